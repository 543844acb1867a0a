package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/cache"
	catalogdomain "github.com/smallbiznis/cicilan/internal/catalog/domain"
	"github.com/smallbiznis/cicilan/internal/clock"
	obsmetrics "github.com/smallbiznis/cicilan/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/cicilan/internal/payment/domain"
	"github.com/smallbiznis/cicilan/internal/providers/events"
	"github.com/smallbiznis/cicilan/internal/transaction/domain"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"github.com/smallbiznis/cicilan/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reservations releases pending week claims when a transaction disappears.
type Reservations interface {
	ReleaseTransaction(ctx context.Context, transactionID string, tenor int) error
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	PaymentRepo paymentdomain.Repository
	CatalogSvc  catalogdomain.Service
	UserSvc     authdomain.Service
	AuditSvc    auditdomain.Service  `optional:"true"`
	Reserver    Reservations         `optional:"true"`
	Publisher   events.Publisher     `optional:"true"`
	Cache       *cache.Cache         `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics  `optional:"true"`
	Clock       clock.Clock          `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	paymentRepo paymentdomain.Repository
	catalogSvc  catalogdomain.Service
	userSvc     authdomain.Service
	auditSvc    auditdomain.Service
	reserver    Reservations
	publisher   events.Publisher
	cache       *cache.Cache
	obsMetrics  *obsmetrics.Metrics
	clock       clock.Clock
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("transaction.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		paymentRepo: p.PaymentRepo,
		catalogSvc:  p.CatalogSvc,
		userSvc:     p.UserSvc,
		auditSvc:    p.AuditSvc,
		reserver:    p.Reserver,
		publisher:   publisher,
		cache:       p.Cache,
		obsMetrics:  p.ObsMetrics,
		clock:       c,
	}
}

// Create snapshots the package terms into a new transaction.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Transaction, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return nil, err
	}

	customerName := strings.TrimSpace(req.CustomerName)
	if customerName == "" {
		return nil, domain.ErrInvalidCustomerName
	}

	pkg, err := s.catalogSvc.GetPackage(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}

	reseller, err := s.resolveReseller(ctx, identity, req.ResellerID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &domain.Transaction{
		ID:                 s.genID.Generate(),
		CustomerName:       customerName,
		ResellerID:         reseller.ID,
		ResellerName:       reseller.Name,
		ResellerEmail:      reseller.Email,
		PackageID:          pkg.ID,
		PackageName:        pkg.Name,
		PackageDescription: cloneString(pkg.Description),
		PricePerWeek:       pkg.PricePerWeek,
		Tenor:              pkg.Tenor,
		IsEligibleBonus:    pkg.IsEligibleBonus,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Insert(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.log.Info("transaction created",
		zap.String("transaction_id", item.ID.String()),
		zap.String("package_id", pkg.ID.String()),
		zap.String("reseller_id", item.ResellerID.String()),
		zap.String("price_per_week", item.PricePerWeek.String()),
		zap.Int("tenor", item.Tenor),
	)
	s.obsMetrics.RecordTransactionCreated(ctx, pkg.ID.String())
	s.audit(ctx, identity, "transaction.created", item.ID, map[string]any{
		"customer_name":  item.CustomerName,
		"package_id":     item.PackageID.String(),
		"reseller_id":    item.ResellerID.String(),
		"price_per_week": item.PricePerWeek.String(),
		"tenor":          item.Tenor,
	})
	s.publish(ctx, events.TypeTransactionCreated, item.ID, item)
	s.invalidateStats(ctx, item.ResellerID)
	return item, nil
}

func (s *Service) resolveReseller(ctx context.Context, identity usercontext.Identity, requested string) (usercontext.Identity, error) {
	requested = strings.TrimSpace(requested)
	if !identity.IsAdmin() || requested == "" || requested == identity.ID.String() {
		return identity, nil
	}
	user, err := s.userSvc.GetUser(ctx, requested)
	if err != nil {
		if errors.Is(err, authdomain.ErrUserNotFound) || errors.Is(err, authdomain.ErrInvalidID) {
			return usercontext.Identity{}, domain.ErrInvalidReseller
		}
		return usercontext.Identity{}, err
	}
	return user.Identity(), nil
}

// Get returns the transaction with its payments and derived ledger state.
func (s *Service) Get(ctx context.Context, id string) (*domain.Detail, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccess(item.ResellerID) {
		return nil, usercontext.ErrForbidden
	}

	payments, err := s.paymentRepo.ListByTransactionIDs(ctx, s.db, []snowflake.ID{item.ID})
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []paymentdomain.Payment{}
	}
	return &domain.Detail{
		Transaction: *item,
		Summary:     item.Summarize(payments),
		Payments:    payments,
	}, nil
}

// List pages through transactions newest first. Resellers only see their own.
func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return domain.ListResponse{}, err
	}

	filter := domain.Filter{Query: req.Query, Limit: req.Pagination.Limit()}
	if identity.IsAdmin() {
		if raw := strings.TrimSpace(req.ResellerID); raw != "" {
			resellerID, err := parseID(raw)
			if err != nil {
				return domain.ListResponse{}, err
			}
			filter.ResellerID = resellerID
		}
	} else {
		filter.ResellerID = identity.ID
	}

	cursor, err := decodeCursor(req.PageToken)
	if err != nil {
		return domain.ListResponse{}, err
	}
	filter.Cursor = cursor

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}
	items, pageInfo := pagination.BuildCursorPageInfo(items, filter.Limit, func(t domain.Transaction) pagination.Cursor {
		return pagination.Cursor{ID: t.ID.String(), CreatedAt: t.CreatedAt}
	})

	listed, err := s.withSummaries(ctx, items)
	if err != nil {
		return domain.ListResponse{}, err
	}
	return domain.ListResponse{PageInfo: pageInfo, Transactions: listed}, nil
}

func (s *Service) withSummaries(ctx context.Context, items []domain.Transaction) ([]domain.ListItem, error) {
	out := make([]domain.ListItem, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}
	ids := make([]snowflake.ID, 0, len(items))
	for _, t := range items {
		ids = append(ids, t.ID)
	}
	payments, err := s.paymentRepo.ListByTransactionIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	byTransaction := make(map[snowflake.ID][]paymentdomain.Payment, len(items))
	for _, p := range payments {
		byTransaction[p.TransactionID] = append(byTransaction[p.TransactionID], p)
	}
	for _, t := range items {
		out = append(out, domain.ListItem{Transaction: t, Summary: t.Summarize(byTransaction[t.ID])})
	}
	return out, nil
}

// Delete removes the transaction with all of its payments in one database
// transaction, then drops any pending week reservations.
func (s *Service) Delete(ctx context.Context, id string) error {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return err
	}
	if !identity.IsAdmin() {
		return usercontext.ErrForbidden
	}

	item, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.DeleteCascade(ctx, tx, item.ID)
	})
	if err != nil {
		return err
	}

	if s.reserver != nil {
		if err := s.reserver.ReleaseTransaction(ctx, item.ID.String(), item.Tenor); err != nil {
			s.log.Warn("failed to release week reservations",
				zap.String("transaction_id", item.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.log.Info("transaction deleted", zap.String("transaction_id", item.ID.String()))
	s.audit(ctx, identity, "transaction.deleted", item.ID, map[string]any{
		"customer_name": item.CustomerName,
		"reseller_id":   item.ResellerID.String(),
	})
	s.publish(ctx, events.TypeTransactionDeleted, item.ID, map[string]any{"id": item.ID.String()})
	s.invalidateStats(ctx, item.ResellerID)
	return nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Transaction, error) {
	transactionID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrTransactionNotFound
	}
	item, err := s.repo.FindByID(ctx, s.db, transactionID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return item, nil
}

func (s *Service) audit(ctx context.Context, actor usercontext.Identity, action string, targetID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	actorID := actor.ID.String()
	target := targetID.String()
	if err := s.auditSvc.AuditLog(ctx, string(auditdomain.ActorTypeUser), &actorID, action, "transaction", &target, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType string, key snowflake.ID, payload any) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		Key:        key.String(),
		OccurredAt: s.clock.Now(),
		Payload:    payload,
	})
	if err != nil {
		s.log.Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

func (s *Service) invalidateStats(ctx context.Context, resellerID snowflake.ID) {
	if err := s.cache.Delete(ctx, cache.StatsKey(""), cache.StatsKey(resellerID.String())); err != nil {
		s.log.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func decodeCursor(token string) (*domain.Cursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	if decoded == nil {
		return nil, nil
	}
	id, err := snowflake.ParseString(decoded.ID)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	return &domain.Cursor{ID: id, CreatedAt: decoded.CreatedAt}, nil
}

func parseID(value string) (snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, domain.ErrInvalidID
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return snowflake.ID(id), nil
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
