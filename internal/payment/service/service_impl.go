package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/cicilan/internal/audit/domain"
	"github.com/smallbiznis/cicilan/internal/cache"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/config"
	"github.com/smallbiznis/cicilan/internal/ledger"
	obsmetrics "github.com/smallbiznis/cicilan/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/cicilan/internal/payment/domain"
	"github.com/smallbiznis/cicilan/internal/providers/email"
	"github.com/smallbiznis/cicilan/internal/providers/events"
	"github.com/smallbiznis/cicilan/internal/providers/pdf"
	"github.com/smallbiznis/cicilan/internal/ratelimit"
	transactiondomain "github.com/smallbiznis/cicilan/internal/transaction/domain"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"github.com/smallbiznis/cicilan/pkg/db"
	"github.com/smallbiznis/cicilan/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WeekReservations holds weeks of a transaction while a payment for them is
// pending review.
type WeekReservations interface {
	Reserve(ctx context.Context, transactionID string, weeks []int, ttl time.Duration) (string, error)
	Release(ctx context.Context, transactionID string, weeks []int, token string) error
}

type SubmissionLimiter interface {
	Allow(ctx context.Context, resellerID string) (ratelimit.Result, error)
}

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Repo            paymentdomain.Repository
	TransactionRepo transactiondomain.Repository
	Policy          *config.LedgerPolicyHolder
	AuditSvc        auditdomain.Service `optional:"true"`
	Reserver        WeekReservations    `optional:"true"`
	Limiter         SubmissionLimiter   `optional:"true"`
	Mailer          email.Sender        `optional:"true"`
	Receipts        pdf.Renderer        `optional:"true"`
	Publisher       events.Publisher    `optional:"true"`
	Cache           *cache.Cache        `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics `optional:"true"`
	Clock           clock.Clock         `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	repo            paymentdomain.Repository
	transactionRepo transactiondomain.Repository
	policy          *config.LedgerPolicyHolder
	auditSvc        auditdomain.Service
	reserver        WeekReservations
	limiter         SubmissionLimiter
	mailer          email.Sender
	receipts        pdf.Renderer
	publisher       events.Publisher
	cache           *cache.Cache
	obsMetrics      *obsmetrics.Metrics
	clock           clock.Clock
}

func New(p Params) paymentdomain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	policy := p.Policy
	if policy == nil {
		policy = config.NewStaticLedgerPolicyHolder(config.DefaultLedgerPolicy())
	}
	mailer := p.Mailer
	if mailer == nil {
		mailer = email.NoOpSender{}
	}
	receipts := p.Receipts
	if receipts == nil {
		receipts = pdf.New()
	}
	publisher := p.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("payment.service"),
		genID:           p.GenID,
		repo:            p.Repo,
		transactionRepo: p.TransactionRepo,
		policy:          policy,
		auditSvc:        p.AuditSvc,
		reserver:        p.Reserver,
		limiter:         p.Limiter,
		mailer:          mailer,
		receipts:        receipts,
		publisher:       publisher,
		cache:           p.Cache,
		obsMetrics:      p.ObsMetrics,
		clock:           c,
	}
}

// Submit records a reseller payment for one or more weeks. The payment starts
// in process and does not count toward paid weeks until an admin confirms it.
func (s *Service) Submit(ctx context.Context, req paymentdomain.SubmitRequest) (*paymentdomain.Payment, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.loadTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	if !identity.CanAccess(tx.ResellerID) {
		return nil, usercontext.ErrForbidden
	}

	if err := s.allowSubmission(ctx, identity); err != nil {
		return nil, err
	}

	idempotencyKey := strings.TrimSpace(req.IdempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.repo.FindByIdempotencyKey(ctx, s.db, tx.ResellerID, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return replay(existing, tx.ID)
		}
	}

	policy := s.policy.Get()
	weeks, err := ledger.NormalizeWeeks(req.WeekNumbers, tx.Tenor, policy.MaxWeeksPerSubmit)
	if err != nil {
		return nil, err
	}
	amount, err := ledger.ResolveAmount(req.Amount, tx.PricePerWeek, len(weeks))
	if err != nil {
		return nil, err
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		return nil, paymentdomain.ErrInvalidPaymentMethod
	}

	paid, err := s.repo.ConfirmedWeeks(ctx, s.db, tx.ID)
	if err != nil {
		return nil, err
	}
	if overlaps(paid, weeks) {
		s.obsMetrics.RecordWeekConflict(ctx, "already_paid")
		return nil, paymentdomain.ErrWeekAlreadyPaid
	}

	token, err := s.reserve(ctx, tx.ID, weeks, policy.ReservationTTL)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &paymentdomain.Payment{
		ID:               s.genID.Generate(),
		TransactionID:    tx.ID,
		Amount:           amount,
		WeekNumbers:      datatypes.JSONSlice[int](weeks),
		PaymentMethod:    method,
		BankName:         optionalString(req.BankName),
		ProofImage:       optionalString(req.ProofImage),
		Note:             optionalString(req.Note),
		Status:           ledger.StatusProcess,
		ResellerID:       tx.ResellerID,
		ResellerName:     tx.ResellerName,
		ResellerEmail:    tx.ResellerEmail,
		IdempotencyKey:   optionalString(idempotencyKey),
		ReservationToken: optionalString(token),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, s.db, item); err != nil {
		s.release(ctx, item)
		if idempotencyKey != "" && db.IsDuplicateKeyErr(err) {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, s.db, tx.ResellerID, idempotencyKey)
			if findErr == nil && existing != nil {
				return replay(existing, tx.ID)
			}
		}
		return nil, err
	}

	s.log.Info("payment submitted",
		zap.String("payment_id", item.ID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.Ints("weeks", weeks),
		zap.String("amount", amount.String()),
	)
	s.obsMetrics.RecordPaymentSubmitted(ctx, method, len(weeks))
	s.audit(ctx, identity, "payment.submitted", item, map[string]any{
		"transaction_id": tx.ID.String(),
		"weeks":          weeks,
		"amount":         amount.String(),
		"payment_method": method,
	})
	s.publish(ctx, events.TypePaymentSubmitted, item)
	s.invalidateStats(ctx, item.ResellerID)
	return item, nil
}

func (s *Service) allowSubmission(ctx context.Context, identity usercontext.Identity) error {
	if s.limiter == nil || identity.IsAdmin() {
		return nil
	}
	res, err := s.limiter.Allow(ctx, identity.ID.String())
	if err != nil {
		s.log.Warn("submission limiter unavailable", zap.Error(err))
		return nil
	}
	if !res.Allowed {
		s.obsMetrics.RecordRateLimitDenied(ctx, "payments.submit")
		return paymentdomain.ErrRateLimited
	}
	return nil
}

func (s *Service) reserve(ctx context.Context, transactionID snowflake.ID, weeks []int, ttl time.Duration) (string, error) {
	if s.reserver == nil {
		return "", nil
	}
	token, err := s.reserver.Reserve(ctx, transactionID.String(), weeks, ttl)
	switch {
	case errors.Is(err, ratelimit.ErrWeeksReserved):
		s.obsMetrics.RecordWeekConflict(ctx, "reserved")
		return "", paymentdomain.ErrWeekReserved
	case err != nil:
		// The payment_weeks constraint still guards confirmation.
		s.log.Warn("week reservation unavailable",
			zap.String("transaction_id", transactionID.String()),
			zap.Error(err),
		)
		return "", nil
	}
	return token, nil
}

func (s *Service) release(ctx context.Context, item *paymentdomain.Payment) {
	if s.reserver == nil || item.ReservationToken == nil {
		return
	}
	err := s.reserver.Release(ctx, item.TransactionID.String(), []int(item.WeekNumbers), *item.ReservationToken)
	if err != nil {
		s.log.Warn("failed to release week reservation",
			zap.String("payment_id", item.ID.String()),
			zap.Error(err),
		)
	}
}

// Confirm moves a process payment to confirmed and claims its weeks. Claiming
// a week that another confirmed payment already holds rolls the change back.
func (s *Service) Confirm(ctx context.Context, id string) (*paymentdomain.Payment, error) {
	identity, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	paymentID, err := parseID(id)
	if err != nil {
		return nil, paymentdomain.ErrPaymentNotFound
	}

	now := s.clock.Now()
	var item *paymentdomain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.Transition(ctx, tx, paymentdomain.Transition{
			ID:   paymentID,
			From: ledger.StatusProcess,
			To:   ledger.StatusConfirmed,
			At:   now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return s.transitionError(ctx, tx, paymentID)
		}

		item, err = s.repo.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if item == nil {
			return paymentdomain.ErrPaymentNotFound
		}

		rows := make([]paymentdomain.PaymentWeek, 0, len(item.WeekNumbers))
		for _, w := range item.WeekNumbers {
			rows = append(rows, paymentdomain.PaymentWeek{
				ID:            s.genID.Generate(),
				TransactionID: item.TransactionID,
				PaymentID:     item.ID,
				WeekNumber:    w,
				CreatedAt:     now,
			})
		}
		if err := s.repo.InsertWeeks(ctx, tx, rows); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return paymentdomain.ErrWeekAlreadyPaid
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, paymentdomain.ErrWeekAlreadyPaid) {
			s.obsMetrics.RecordWeekConflict(ctx, "confirm")
		}
		return nil, err
	}

	s.release(ctx, item)
	s.log.Info("payment confirmed",
		zap.String("payment_id", item.ID.String()),
		zap.String("transaction_id", item.TransactionID.String()),
		zap.Ints("weeks", []int(item.WeekNumbers)),
	)
	s.obsMetrics.RecordPaymentTransition(ctx, string(ledger.StatusProcess), string(ledger.StatusConfirmed))
	s.audit(ctx, identity, "payment.confirmed", item, map[string]any{
		"transaction_id": item.TransactionID.String(),
		"weeks":          []int(item.WeekNumbers),
		"amount":         item.Amount.String(),
	})
	s.notifyConfirmed(ctx, item)
	s.publish(ctx, events.TypePaymentConfirmed, item)
	s.invalidateStats(ctx, item.ResellerID)
	return item, nil
}

// Reject moves a process payment to rejected. The weeks become payable again.
func (s *Service) Reject(ctx context.Context, id string, note string) (*paymentdomain.Payment, error) {
	identity, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	paymentID, err := parseID(id)
	if err != nil {
		return nil, paymentdomain.ErrPaymentNotFound
	}

	note = strings.TrimSpace(note)
	if note == "" {
		note = s.policy.Get().RejectNote
	}
	if note == "" {
		note = config.DefaultRejectNote
	}

	var item *paymentdomain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.Transition(ctx, tx, paymentdomain.Transition{
			ID:   paymentID,
			From: ledger.StatusProcess,
			To:   ledger.StatusRejected,
			Note: &note,
			At:   s.clock.Now(),
		})
		if err != nil {
			return err
		}
		if !ok {
			return s.transitionError(ctx, tx, paymentID)
		}
		item, err = s.repo.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if item == nil {
			return paymentdomain.ErrPaymentNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.release(ctx, item)
	s.log.Info("payment rejected",
		zap.String("payment_id", item.ID.String()),
		zap.String("transaction_id", item.TransactionID.String()),
		zap.String("note", note),
	)
	s.obsMetrics.RecordPaymentTransition(ctx, string(ledger.StatusProcess), string(ledger.StatusRejected))
	s.audit(ctx, identity, "payment.rejected", item, map[string]any{
		"transaction_id": item.TransactionID.String(),
		"weeks":          []int(item.WeekNumbers),
		"note":           note,
	})
	s.notifyRejected(ctx, item, note)
	s.publish(ctx, events.TypePaymentRejected, item)
	s.invalidateStats(ctx, item.ResellerID)
	return item, nil
}

func (s *Service) transitionError(ctx context.Context, tx *gorm.DB, id snowflake.ID) error {
	current, err := s.repo.FindByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return paymentdomain.ErrPaymentNotFound
	}
	return paymentdomain.ErrInvalidStateTransition
}

func (s *Service) Get(ctx context.Context, id string) (*paymentdomain.Payment, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadVisible(ctx, identity, id)
}

func (s *Service) loadVisible(ctx context.Context, identity usercontext.Identity, id string) (*paymentdomain.Payment, error) {
	paymentID, err := parseID(id)
	if err != nil {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	item, err := s.repo.FindByID(ctx, s.db, paymentID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, paymentdomain.ErrPaymentNotFound
	}
	if !identity.CanAccess(item.ResellerID) {
		return nil, usercontext.ErrForbidden
	}
	return item, nil
}

// List pages through payments newest first. Resellers only see their own.
func (s *Service) List(ctx context.Context, req paymentdomain.ListRequest) (paymentdomain.ListResponse, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return paymentdomain.ListResponse{}, err
	}

	filter := paymentdomain.Filter{Limit: req.Pagination.Limit()}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := ledger.PaymentStatus(strings.ToLower(raw))
		if !status.Valid() {
			return paymentdomain.ListResponse{}, paymentdomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.TransactionID); raw != "" {
		transactionID, err := parseID(raw)
		if err != nil {
			return paymentdomain.ListResponse{}, err
		}
		filter.TransactionID = transactionID
	}
	if identity.IsAdmin() {
		if raw := strings.TrimSpace(req.ResellerID); raw != "" {
			resellerID, err := parseID(raw)
			if err != nil {
				return paymentdomain.ListResponse{}, err
			}
			filter.ResellerID = resellerID
		}
	} else {
		filter.ResellerID = identity.ID
	}

	cursor, err := decodeCursor(req.PageToken)
	if err != nil {
		return paymentdomain.ListResponse{}, err
	}
	filter.Cursor = cursor

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return paymentdomain.ListResponse{}, err
	}
	items, pageInfo := pagination.BuildCursorPageInfo(items, filter.Limit, func(p paymentdomain.Payment) pagination.Cursor {
		return pagination.Cursor{ID: p.ID.String(), CreatedAt: p.CreatedAt}
	})
	if items == nil {
		items = []paymentdomain.Payment{}
	}
	return paymentdomain.ListResponse{PageInfo: pageInfo, Payments: items}, nil
}

// Receipt renders a PDF receipt for a confirmed payment.
func (s *Service) Receipt(ctx context.Context, id string) (*paymentdomain.Receipt, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.loadVisible(ctx, identity, id)
	if err != nil {
		return nil, err
	}
	if item.Status != ledger.StatusConfirmed {
		return nil, paymentdomain.ErrInvalidStateTransition
	}

	tx, summary, err := s.summarize(ctx, item.TransactionID)
	if err != nil {
		return nil, err
	}

	data := pdf.ReceiptData{
		ReceiptNumber:   "KW-" + item.ID.String(),
		ResellerName:    item.ResellerName,
		CustomerName:    tx.CustomerName,
		PackageName:     tx.PackageName,
		PricePerWeek:    formatRupiah(tx.PricePerWeek),
		Tenor:           tx.Tenor,
		Weeks:           joinWeeks(item.WeekNumbers),
		PaymentMethod:   item.PaymentMethod,
		BankName:        stringValue(item.BankName),
		Amount:          formatRupiah(item.Amount),
		TotalAmount:     formatRupiah(summary.TotalAmount),
		ConfirmedAmount: formatRupiah(summary.ConfirmedAmount),
		RemainingAmount: formatRupiah(summary.RemainingAmount),
		Progress:        fmt.Sprintf("%d/%d minggu (%.2f%%)", len(summary.PaidWeeks), tx.Tenor, summary.ProgressPercent),
	}
	if item.ConfirmedAt != nil {
		data.ConfirmedAt = item.ConfirmedAt.Format("02 Jan 2006 15:04")
	}

	content, err := s.receipts.RenderReceipt(ctx, data)
	if err != nil {
		return nil, err
	}
	return &paymentdomain.Receipt{
		Filename: "receipt-" + item.ID.String() + ".pdf",
		Content:  content,
	}, nil
}

func (s *Service) summarize(ctx context.Context, transactionID snowflake.ID) (*transactiondomain.Transaction, ledger.Summary, error) {
	tx, err := s.transactionRepo.FindByID(ctx, s.db, transactionID)
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	if tx == nil {
		return nil, ledger.Summary{}, transactiondomain.ErrTransactionNotFound
	}
	payments, err := s.repo.ListByTransactionIDs(ctx, s.db, []snowflake.ID{transactionID})
	if err != nil {
		return nil, ledger.Summary{}, err
	}
	return tx, tx.Summarize(payments), nil
}

type confirmedEmail struct {
	ResellerName string
	CustomerName string
	PackageName  string
	Weeks        string
	Amount       string
	PaidWeeks    int
	Tenor        int
	Remaining    string
}

type rejectedEmail struct {
	ResellerName string
	CustomerName string
	PackageName  string
	Weeks        string
	Amount       string
	Note         string
}

func (s *Service) notifyConfirmed(ctx context.Context, item *paymentdomain.Payment) {
	tx, summary, err := s.summarize(ctx, item.TransactionID)
	if err != nil {
		s.log.Warn("skip confirmation email", zap.String("payment_id", item.ID.String()), zap.Error(err))
		return
	}
	s.send(ctx, email.TemplatePaymentConfirmed, item.ResellerEmail, confirmedEmail{
		ResellerName: item.ResellerName,
		CustomerName: tx.CustomerName,
		PackageName:  tx.PackageName,
		Weeks:        joinWeeks(item.WeekNumbers),
		Amount:       formatRupiah(item.Amount),
		PaidWeeks:    len(summary.PaidWeeks),
		Tenor:        tx.Tenor,
		Remaining:    formatRupiah(summary.RemainingAmount),
	})
}

func (s *Service) notifyRejected(ctx context.Context, item *paymentdomain.Payment, note string) {
	tx, err := s.transactionRepo.FindByID(ctx, s.db, item.TransactionID)
	if err != nil || tx == nil {
		s.log.Warn("skip rejection email", zap.String("payment_id", item.ID.String()), zap.Error(err))
		return
	}
	s.send(ctx, email.TemplatePaymentRejected, item.ResellerEmail, rejectedEmail{
		ResellerName: item.ResellerName,
		CustomerName: tx.CustomerName,
		PackageName:  tx.PackageName,
		Weeks:        joinWeeks(item.WeekNumbers),
		Amount:       formatRupiah(item.Amount),
		Note:         note,
	})
}

func (s *Service) send(ctx context.Context, template string, to string, data any) {
	if strings.TrimSpace(to) == "" {
		return
	}
	msg, err := email.Render(template, to, data)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		s.obsMetrics.RecordNotificationFailed(ctx, "email", template)
		s.log.Warn("email notification failed", zap.String("template", template), zap.Error(err))
	}
}

func (s *Service) loadTransaction(ctx context.Context, id string) (*transactiondomain.Transaction, error) {
	transactionID, err := parseID(id)
	if err != nil {
		return nil, transactiondomain.ErrTransactionNotFound
	}
	tx, err := s.transactionRepo.FindByID(ctx, s.db, transactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, transactiondomain.ErrTransactionNotFound
	}
	return tx, nil
}

func (s *Service) audit(ctx context.Context, actor usercontext.Identity, action string, item *paymentdomain.Payment, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	actorID := actor.ID.String()
	target := item.ID.String()
	if err := s.auditSvc.AuditLog(ctx, string(auditdomain.ActorTypeUser), &actorID, action, "payment", &target, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType string, item *paymentdomain.Payment) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		Key:        item.TransactionID.String(),
		OccurredAt: s.clock.Now(),
		Payload:    item,
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

func requireAdmin(ctx context.Context) (usercontext.Identity, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return usercontext.Identity{}, err
	}
	if !identity.IsAdmin() {
		return usercontext.Identity{}, usercontext.ErrForbidden
	}
	return identity, nil
}

// replay returns the payment stored under an idempotency key, provided it
// belongs to the same transaction.
func replay(existing *paymentdomain.Payment, transactionID snowflake.ID) (*paymentdomain.Payment, error) {
	if existing.TransactionID != transactionID {
		return nil, paymentdomain.ErrIdempotencyKeyReused
	}
	return existing, nil
}

func overlaps(paid []int, weeks []int) bool {
	if len(paid) == 0 {
		return false
	}
	set := make(map[int]struct{}, len(paid))
	for _, w := range paid {
		set[w] = struct{}{}
	}
	for _, w := range weeks {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func joinWeeks(weeks []int) string {
	parts := make([]string, 0, len(weeks))
	for _, w := range weeks {
		parts = append(parts, strconv.Itoa(w))
	}
	return strings.Join(parts, ", ")
}

func formatRupiah(amount decimal.Decimal) string {
	return "Rp " + amount.StringFixed(2)
}

func decodeCursor(token string) (*paymentdomain.Cursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, paymentdomain.ErrInvalidPageToken
	}
	if decoded == nil {
		return nil, nil
	}
	id, err := snowflake.ParseString(decoded.ID)
	if err != nil {
		return nil, paymentdomain.ErrInvalidPageToken
	}
	return &paymentdomain.Cursor{ID: id, CreatedAt: decoded.CreatedAt}, nil
}

func parseID(value string) (snowflake.ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, paymentdomain.ErrInvalidID
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, paymentdomain.ErrInvalidID
	}
	return snowflake.ID(id), nil
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func stringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
