package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	authdomain "github.com/smallbiznis/cicilan/internal/auth/domain"
	"github.com/smallbiznis/cicilan/internal/cache"
	catalogdomain "github.com/smallbiznis/cicilan/internal/catalog/domain"
	"github.com/smallbiznis/cicilan/internal/config"
	"github.com/smallbiznis/cicilan/internal/dashboard/domain"
	"github.com/smallbiznis/cicilan/internal/ledger"
	paymentdomain "github.com/smallbiznis/cicilan/internal/payment/domain"
	transactiondomain "github.com/smallbiznis/cicilan/internal/transaction/domain"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"github.com/smallbiznis/cicilan/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	recentLimit       = 5
	topResellersLimit = 5
	searchPageSize    = 20
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	TransactionRepo transactiondomain.Repository
	PaymentRepo     paymentdomain.Repository
	TransactionSvc  transactiondomain.Service
	CatalogSvc      catalogdomain.Service
	UserSvc         authdomain.Service
	Policy          *config.LedgerPolicyHolder `optional:"true"`
	Cache           *cache.Cache               `optional:"true"`
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	transactionRepo transactiondomain.Repository
	paymentRepo     paymentdomain.Repository
	transactionSvc  transactiondomain.Service
	catalogSvc      catalogdomain.Service
	userSvc         authdomain.Service
	policy          *config.LedgerPolicyHolder
	cache           *cache.Cache
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("dashboard.service"),
		transactionRepo: p.TransactionRepo,
		paymentRepo:     p.PaymentRepo,
		transactionSvc:  p.TransactionSvc,
		catalogSvc:      p.CatalogSvc,
		userSvc:         p.UserSvc,
		policy:          p.Policy,
		cache:           p.Cache,
	}
}

// Stats returns the dashboard numbers, served from the cache when present.
// Ledger writes invalidate the cached entries.
func (s *Service) Stats(ctx context.Context) (*domain.Stats, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return nil, err
	}

	var scope snowflake.ID
	key := cache.StatsKey("")
	if !identity.IsAdmin() {
		scope = identity.ID
		key = cache.StatsKey(scope.String())
	}

	var cached domain.Stats
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("stats cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	stats, err := s.computeStats(ctx, scope)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, stats, s.policy.Get().StatsCacheTTL); err != nil {
		s.log.Warn("stats cache write failed", zap.String("key", key), zap.Error(err))
	}
	return stats, nil
}

func (s *Service) computeStats(ctx context.Context, scope snowflake.ID) (*domain.Stats, error) {
	conn := s.db.WithContext(ctx)
	scoped := func(query string, args ...any) (string, []any) {
		if scope == 0 {
			return query, args
		}
		if strings.Contains(query, " WHERE ") {
			return query + " AND reseller_id = ?", append(args, scope)
		}
		return query + " WHERE reseller_id = ?", append(args, scope)
	}

	stats := &domain.Stats{
		ConfirmedAmount:    decimal.Zero,
		RecentTransactions: []transactiondomain.Transaction{},
		PendingReview:      []paymentdomain.Payment{},
		TopResellers:       []domain.ResellerTotal{},
	}

	if err := conn.Raw(`SELECT COUNT(*) FROM packages`).Scan(&stats.TotalPackages).Error; err != nil {
		return nil, err
	}
	query, args := scoped(`SELECT COUNT(*) FROM transactions`)
	if err := conn.Raw(query, args...).Scan(&stats.TotalTransactions).Error; err != nil {
		return nil, err
	}
	query, args = scoped(`SELECT COUNT(*) FROM payments WHERE status = ?`, ledger.StatusProcess)
	if err := conn.Raw(query, args...).Scan(&stats.PendingPayments).Error; err != nil {
		return nil, err
	}
	query, args = scoped(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = ?`, ledger.StatusConfirmed)
	if err := conn.Raw(query, args...).Row().Scan(&stats.ConfirmedAmount); err != nil {
		return nil, err
	}

	recent, err := s.transactionRepo.List(ctx, s.db, transactiondomain.Filter{ResellerID: scope, Limit: recentLimit})
	if err != nil {
		return nil, err
	}
	stats.RecentTransactions = append(stats.RecentTransactions, head(recent, recentLimit)...)

	pending, err := s.paymentRepo.List(ctx, s.db, paymentdomain.Filter{
		Status:     ledger.StatusProcess,
		ResellerID: scope,
		Limit:      recentLimit,
	})
	if err != nil {
		return nil, err
	}
	stats.PendingReview = append(stats.PendingReview, head(pending, recentLimit)...)

	if scope != 0 {
		return stats, nil
	}

	err = conn.Raw(`SELECT COUNT(*) FROM users WHERE role = ?`, authdomain.RoleReseller).Scan(&stats.TotalResellers).Error
	if err != nil {
		return nil, err
	}
	var top []domain.ResellerTotal
	err = conn.Raw(
		`SELECT reseller_id, reseller_name,
		        COUNT(DISTINCT transaction_id) AS transaction_count,
		        SUM(amount) AS confirmed_amount
		   FROM payments
		  WHERE status = ?
		  GROUP BY reseller_id, reseller_name
		  ORDER BY confirmed_amount DESC, reseller_id ASC
		  LIMIT ?`,
		ledger.StatusConfirmed, topResellersLimit,
	).Scan(&top).Error
	if err != nil {
		return nil, err
	}
	stats.TopResellers = append(stats.TopResellers, top...)
	return stats, nil
}

// Search looks up packages, transactions and members by substring.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}
	kind := strings.ToLower(strings.TrimSpace(req.Type))
	if kind == "" {
		kind = domain.SearchAll
	}
	switch kind {
	case domain.SearchAll, domain.SearchPackages, domain.SearchTransactions:
	case domain.SearchMembers:
		if !identity.IsAdmin() {
			return nil, usercontext.ErrForbidden
		}
	default:
		return nil, domain.ErrInvalidSearchType
	}

	result := &domain.SearchResult{
		Packages:     []catalogdomain.Package{},
		Transactions: []transactiondomain.ListItem{},
		Members:      []authdomain.User{},
	}
	if kind == domain.SearchAll || kind == domain.SearchPackages {
		packages, err := s.catalogSvc.ListPackages(ctx, catalogdomain.ListPackagesRequest{Query: query})
		if err != nil {
			return nil, err
		}
		result.Packages = append(result.Packages, packages...)
	}
	if kind == domain.SearchAll || kind == domain.SearchTransactions {
		page, err := s.transactionSvc.List(ctx, transactiondomain.ListRequest{
			Pagination: pagination.Pagination{PageSize: searchPageSize},
			Query:      query,
		})
		if err != nil {
			return nil, err
		}
		result.Transactions = append(result.Transactions, page.Transactions...)
	}
	if identity.IsAdmin() && (kind == domain.SearchAll || kind == domain.SearchMembers) {
		members, err := s.userSvc.ListUsers(ctx, authdomain.ListUsersRequest{Role: authdomain.RoleReseller, Query: query})
		if err != nil {
			return nil, err
		}
		result.Members = append(result.Members, members...)
	}
	return result, nil
}

// Report aggregates every transaction in scope through the ledger.
func (s *Service) Report(ctx context.Context, req domain.ReportRequest) (*domain.Report, error) {
	identity, err := usercontext.Require(ctx)
	if err != nil {
		return nil, err
	}

	var scope snowflake.ID
	if identity.IsAdmin() {
		if raw := strings.TrimSpace(req.ResellerID); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return nil, domain.ErrInvalidReseller
			}
			scope = snowflake.ID(id)
		}
	} else {
		scope = identity.ID
	}

	items, err := s.transactionRepo.List(ctx, s.db, transactiondomain.Filter{ResellerID: scope})
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		Totals:           ledger.Sum(),
		TransactionCount: len(items),
		Items:            make([]domain.ReportItem, 0, len(items)),
	}
	if len(items) == 0 {
		return report, nil
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

	summaries := make([]ledger.Summary, 0, len(items))
	for _, t := range items {
		own := byTransaction[t.ID]
		summary := t.Summarize(own)
		summaries = append(summaries, summary)
		if len(own) > 0 {
			report.WithPayments++
		} else {
			report.WithoutPayments++
		}
		if summary.PaidOff {
			report.PaidOffTransactions++
		}
		report.Items = append(report.Items, domain.ReportItem{
			ListItem:     transactiondomain.ListItem{Transaction: t, Summary: summary},
			PaymentCount: len(own),
		})
	}
	report.Totals = ledger.Sum(summaries...)
	return report, nil
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
