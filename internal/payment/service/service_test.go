package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cicilan/internal/clock"
	"github.com/smallbiznis/cicilan/internal/config"
	"github.com/smallbiznis/cicilan/internal/ledger"
	"github.com/smallbiznis/cicilan/internal/migration"
	"github.com/smallbiznis/cicilan/internal/payment/domain"
	"github.com/smallbiznis/cicilan/internal/payment/repository"
	"github.com/smallbiznis/cicilan/internal/providers/email"
	"github.com/smallbiznis/cicilan/internal/providers/email/mock_email"
	"github.com/smallbiznis/cicilan/internal/ratelimit"
	transactiondomain "github.com/smallbiznis/cicilan/internal/transaction/domain"
	transactionrepository "github.com/smallbiznis/cicilan/internal/transaction/repository"
	"github.com/smallbiznis/cicilan/internal/usercontext"
	"github.com/smallbiznis/cicilan/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memoryReserver struct {
	mu    sync.Mutex
	held  map[string]string
	calls int
}

func newMemoryReserver() *memoryReserver {
	return &memoryReserver{held: map[string]string{}}
}

func (r *memoryReserver) Reserve(_ context.Context, transactionID string, weeks []int, _ time.Duration) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	keys := ratelimit.WeekKeys(transactionID, weeks)
	for _, k := range keys {
		if _, ok := r.held[k]; ok {
			return "", ratelimit.ErrWeeksReserved
		}
	}
	token := "tok-" + transactionID + "-" + keys[0]
	for _, k := range keys {
		r.held[k] = token
	}
	return token, nil
}

func (r *memoryReserver) Release(_ context.Context, transactionID string, weeks []int, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range ratelimit.WeekKeys(transactionID, weeks) {
		if r.held[k] == token {
			delete(r.held, k)
		}
	}
	return nil
}

type fixedLimiter struct{ allowed bool }

func (l fixedLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{Allowed: l.allowed, Limit: 1}, nil
}

type fixture struct {
	db       *gorm.DB
	svc      domain.Service
	repo     domain.Repository
	txRepo   transactiondomain.Repository
	node     *snowflake.Node
	clock    *clock.FakeClock
	admin    usercontext.Identity
	reseller usercontext.Identity
}

type option func(*Params)

func withReserver(r WeekReservations) option { return func(p *Params) { p.Reserver = r } }
func withLimiter(l SubmissionLimiter) option { return func(p *Params) { p.Limiter = l } }
func withMailer(m email.Sender) option       { return func(p *Params) { p.Mailer = m } }

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	conn := db.NewTest(t)
	require.NoError(t, migration.ApplySchema(conn))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))

	repo := repository.Provide()
	txRepo := transactionrepository.Provide()
	params := Params{
		DB:              conn,
		Log:             zap.NewNop(),
		GenID:           node,
		Repo:            repo,
		TransactionRepo: txRepo,
		Policy:          config.NewStaticLedgerPolicyHolder(config.DefaultLedgerPolicy()),
		Clock:           fake,
	}
	for _, opt := range opts {
		opt(&params)
	}

	return &fixture{
		db:       conn,
		svc:      New(params),
		repo:     repo,
		txRepo:   txRepo,
		node:     node,
		clock:    fake,
		admin:    usercontext.Identity{ID: node.Generate(), Role: usercontext.RoleAdmin, Name: "Admin", Email: "admin@example.com"},
		reseller: usercontext.Identity{ID: node.Generate(), Role: usercontext.RoleReseller, Name: "Rina", Email: "rina@example.com"},
	}
}

func (f *fixture) as(identity usercontext.Identity) context.Context {
	return usercontext.WithIdentity(context.Background(), identity)
}

// transaction stores a 4 week contract at 100000 per week owned by the reseller.
func (f *fixture) transaction(t *testing.T) *transactiondomain.Transaction {
	t.Helper()
	now := f.clock.Now()
	item := &transactiondomain.Transaction{
		ID:            f.node.Generate(),
		CustomerName:  "Budi",
		ResellerID:    f.reseller.ID,
		ResellerName:  f.reseller.Name,
		ResellerEmail: f.reseller.Email,
		PackageID:     f.node.Generate(),
		PackageName:   "Paket Hemat",
		PricePerWeek:  decimal.NewFromInt(100000),
		Tenor:         4,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.txRepo.Insert(context.Background(), f.db, item))
	return item
}

func (f *fixture) submit(t *testing.T, tx *transactiondomain.Transaction, weeks ...int) *domain.Payment {
	t.Helper()
	item, err := f.svc.Submit(f.as(f.reseller), domain.SubmitRequest{
		TransactionID: tx.ID.String(),
		WeekNumbers:   weeks,
		PaymentMethod: "transfer",
		Amount:        decimal.NewFromInt(int64(100000 * len(weeks))),
		BankName:      "BCA",
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) summary(t *testing.T, tx *transactiondomain.Transaction) ledger.Summary {
	t.Helper()
	payments, err := f.repo.ListByTransactionIDs(context.Background(), f.db, []snowflake.ID{tx.ID})
	require.NoError(t, err)
	return tx.Summarize(payments)
}

func assertDecimal(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.NewFromInt(want).Equal(got), "want %d, got %s", want, got)
}

func TestSubmitStartsInProcess(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)

	item, err := f.svc.Submit(f.as(f.reseller), domain.SubmitRequest{
		TransactionID: tx.ID.String(),
		WeekNumbers:   []int{2, 1},
		PaymentMethod: " transfer ",
		ProofImage:    "/uploads/proofs/a.webp",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusProcess, item.Status)
	assert.Equal(t, []int{1, 2}, []int(item.WeekNumbers))
	assertDecimal(t, 200000, item.Amount)
	assert.Equal(t, "transfer", item.PaymentMethod)
	assert.Equal(t, f.reseller.ID, item.ResellerID)
	assert.Equal(t, "rina@example.com", item.ResellerEmail)
	assert.Nil(t, item.ConfirmedAt)

	summary := f.summary(t, tx)
	assert.Empty(t, summary.PaidWeeks)
	assert.Equal(t, []int{1, 2}, summary.ProcessingWeeks)
	assertDecimal(t, 200000, summary.ProcessingAmount)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)
	ctx := f.as(f.reseller)

	base := domain.SubmitRequest{TransactionID: tx.ID.String(), WeekNumbers: []int{1}, PaymentMethod: "transfer"}

	cases := []struct {
		name   string
		mutate func(*domain.SubmitRequest)
		want   error
	}{
		{"no weeks", func(r *domain.SubmitRequest) { r.WeekNumbers = nil }, ledger.ErrInvalidWeekNumbers},
		{"week zero", func(r *domain.SubmitRequest) { r.WeekNumbers = []int{0} }, ledger.ErrInvalidWeekNumbers},
		{"past tenor", func(r *domain.SubmitRequest) { r.WeekNumbers = []int{5} }, ledger.ErrInvalidWeekNumbers},
		{"duplicate week", func(r *domain.SubmitRequest) { r.WeekNumbers = []int{2, 2} }, ledger.ErrInvalidWeekNumbers},
		{"amount mismatch", func(r *domain.SubmitRequest) { r.Amount = decimal.NewFromInt(150000) }, ledger.ErrInvalidAmount},
		{"missing method", func(r *domain.SubmitRequest) { r.PaymentMethod = "  " }, domain.ErrInvalidPaymentMethod},
		{"unknown transaction", func(r *domain.SubmitRequest) { r.TransactionID = "42" }, transactiondomain.ErrTransactionNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := f.svc.Submit(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.svc.Submit(context.Background(), base)
	assert.ErrorIs(t, err, usercontext.ErrUnauthenticated)

	stranger := usercontext.Identity{ID: f.node.Generate(), Role: usercontext.RoleReseller}
	_, err = f.svc.Submit(f.as(stranger), base)
	assert.ErrorIs(t, err, usercontext.ErrForbidden)

	list, err := f.svc.List(f.as(f.admin), domain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Payments)
}

func TestConfirmedPaymentsPayOffTransaction(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)

	a := f.submit(t, tx, 1, 2)
	b := f.submit(t, tx, 3, 4)

	confirmedA, err := f.svc.Confirm(f.as(f.admin), a.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusConfirmed, confirmedA.Status)
	require.NotNil(t, confirmedA.ConfirmedAt)

	_, err = f.svc.Confirm(f.as(f.admin), b.ID.String())
	require.NoError(t, err)

	summary := f.summary(t, tx)
	assert.Equal(t, []int{1, 2, 3, 4}, summary.PaidWeeks)
	assert.Empty(t, summary.UnpaidWeeks)
	assertDecimal(t, 400000, summary.ConfirmedAmount)
	assertDecimal(t, 0, summary.RemainingAmount)
	assert.Equal(t, 100.0, summary.ProgressPercent)
	assert.True(t, summary.PaidOff)

	weeks, err := f.repo.ConfirmedWeeks(context.Background(), f.db, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, weeks)
}

func TestRejectedPaymentLeavesWeeksUnpaid(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)

	before := f.summary(t, tx)
	c := f.submit(t, tx, 1)

	rejected, err := f.svc.Reject(f.as(f.admin), c.ID.String(), "insufficient proof")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.Note)
	assert.Equal(t, "insufficient proof", *rejected.Note)
	require.NotNil(t, rejected.RejectedAt)

	after := f.summary(t, tx)
	assert.Empty(t, after.PaidWeeks)
	assert.Empty(t, after.ProcessingWeeks)
	assert.True(t, before.RemainingAmount.Equal(after.RemainingAmount))
	assertDecimal(t, 400000, after.RemainingAmount)

	// The week can be paid again.
	again := f.submit(t, tx, 1)
	assert.Equal(t, ledger.StatusProcess, again.Status)
}

func TestRejectDefaultsNote(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)
	p := f.submit(t, tx, 1)

	rejected, err := f.svc.Reject(f.as(f.admin), p.ID.String(), "   ")
	require.NoError(t, err)
	require.NotNil(t, rejected.Note)
	assert.Equal(t, "Pembayaran ditolak oleh admin", *rejected.Note)
}

func TestTerminalStatusesDoNotTransition(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)
	admin := f.as(f.admin)

	confirmed := f.submit(t, tx, 1)
	_, err := f.svc.Confirm(admin, confirmed.ID.String())
	require.NoError(t, err)
	rejected := f.submit(t, tx, 2)
	_, err = f.svc.Reject(admin, rejected.ID.String(), "")
	require.NoError(t, err)

	_, err = f.svc.Confirm(admin, confirmed.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = f.svc.Reject(admin, confirmed.ID.String(), "late")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = f.svc.Confirm(admin, rejected.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = f.svc.Reject(admin, rejected.ID.String(), "again")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	stored, err := f.svc.Get(admin, confirmed.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusConfirmed, stored.Status)
	stored, err = f.svc.Get(admin, rejected.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusRejected, stored.Status)
	require.NotNil(t, stored.Note)
	assert.Equal(t, config.DefaultRejectNote, *stored.Note)

	_, err = f.svc.Confirm(admin, "987654321")
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestReviewRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)
	p := f.submit(t, tx, 1)

	_, err := f.svc.Confirm(f.as(f.reseller), p.ID.String())
	assert.ErrorIs(t, err, usercontext.ErrForbidden)
	_, err = f.svc.Reject(f.as(f.reseller), p.ID.String(), "")
	assert.ErrorIs(t, err, usercontext.ErrForbidden)
	_, err = f.svc.Confirm(context.Background(), p.ID.String())
	assert.ErrorIs(t, err, usercontext.ErrUnauthenticated)

	stored, err := f.svc.Get(f.as(f.reseller), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusProcess, stored.Status)
}

func TestConfirmOverlappingWeeksRollsBack(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)

	a := f.submit(t, tx, 1, 2)
	b := f.submit(t, tx, 2, 3)

	_, err := f.svc.Confirm(f.as(f.admin), a.ID.String())
	require.NoError(t, err)
	_, err = f.svc.Confirm(f.as(f.admin), b.ID.String())
	assert.ErrorIs(t, err, domain.ErrWeekAlreadyPaid)

	stored, err := f.svc.Get(f.as(f.admin), b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusProcess, stored.Status)
	assert.Nil(t, stored.ConfirmedAt)

	weeks, err := f.repo.ConfirmedWeeks(context.Background(), f.db, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, weeks)

	_, err = f.svc.Submit(f.as(f.reseller), domain.SubmitRequest{
		TransactionID: tx.ID.String(),
		WeekNumbers:   []int{2},
		PaymentMethod: "transfer",
	})
	assert.ErrorIs(t, err, domain.ErrWeekAlreadyPaid)
}

func TestConcurrentConfirmClaimsWeekOnce(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)

	const n = 5
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, f.submit(t, tx, 1).ID.String())
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.Confirm(f.as(f.admin), id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrWeekAlreadyPaid):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)

	summary := f.summary(t, tx)
	assert.Equal(t, []int{1}, summary.PaidWeeks)
	assertDecimal(t, 100000, summary.ConfirmedAmount)
}

func TestConcurrentConfirmOfSamePayment(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)
	p := f.submit(t, tx, 1, 2)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Confirm(f.as(f.admin), p.ID.String())
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	}
	assert.Equal(t, 1, ok)

	weeks, err := f.repo.ConfirmedWeeks(context.Background(), f.db, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, weeks)
}

func TestSubmitIsIdempotent(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)
	other := f.transaction(t)

	req := domain.SubmitRequest{
		TransactionID:  tx.ID.String(),
		WeekNumbers:    []int{1},
		PaymentMethod:  "transfer",
		IdempotencyKey: "retry-1",
	}
	first, err := f.svc.Submit(f.as(f.reseller), req)
	require.NoError(t, err)
	second, err := f.svc.Submit(f.as(f.reseller), req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	req.TransactionID = other.ID.String()
	_, err = f.svc.Submit(f.as(f.reseller), req)
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyReused)

	list, err := f.svc.List(f.as(f.reseller), domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Payments, 1)
}

func TestReservationHoldsPendingWeeks(t *testing.T) {
	reserver := newMemoryReserver()
	f := newFixture(t, withReserver(reserver))
	tx := f.transaction(t)

	first := f.submit(t, tx, 1, 2)
	require.NotNil(t, first.ReservationToken)

	_, err := f.svc.Submit(f.as(f.reseller), domain.SubmitRequest{
		TransactionID: tx.ID.String(),
		WeekNumbers:   []int{2, 3},
		PaymentMethod: "transfer",
	})
	assert.ErrorIs(t, err, domain.ErrWeekReserved)

	_, err = f.svc.Reject(f.as(f.admin), first.ID.String(), "")
	require.NoError(t, err)
	assert.Empty(t, reserver.held)

	second := f.submit(t, tx, 2, 3)
	_, err = f.svc.Confirm(f.as(f.admin), second.ID.String())
	require.NoError(t, err)
	assert.Empty(t, reserver.held)
}

func TestSubmitRateLimited(t *testing.T) {
	f := newFixture(t, withLimiter(fixedLimiter{allowed: false}))
	tx := f.transaction(t)

	_, err := f.svc.Submit(f.as(f.reseller), domain.SubmitRequest{
		TransactionID: tx.ID.String(),
		WeekNumbers:   []int{1},
		PaymentMethod: "transfer",
	})
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	// Admins are not throttled.
	_, err = f.svc.Submit(f.as(f.admin), domain.SubmitRequest{
		TransactionID: tx.ID.String(),
		WeekNumbers:   []int{1},
		PaymentMethod: "transfer",
	})
	assert.NoError(t, err)
}

func TestReviewNotifiesReseller(t *testing.T) {
	ctrl := gomock.NewController(t)
	mailer := mock_email.NewMockSender(ctrl)
	f := newFixture(t, withMailer(mailer))
	tx := f.transaction(t)

	confirmed := f.submit(t, tx, 1, 2)
	rejected := f.submit(t, tx, 3)

	gomock.InOrder(
		mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg email.Message) error {
			assert.Equal(t, []string{"rina@example.com"}, msg.To)
			assert.Equal(t, "Pembayaran dikonfirmasi", msg.Subject)
			assert.Contains(t, msg.HTML, "Budi")
			assert.Contains(t, msg.HTML, "1, 2")
			return nil
		}),
		mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, msg email.Message) error {
			assert.Equal(t, "Pembayaran ditolak", msg.Subject)
			assert.Contains(t, msg.HTML, "insufficient proof")
			return errors.New("smtp down")
		}),
	)

	_, err := f.svc.Confirm(f.as(f.admin), confirmed.ID.String())
	require.NoError(t, err)
	// Delivery failures do not undo the review.
	_, err = f.svc.Reject(f.as(f.admin), rejected.ID.String(), "insufficient proof")
	require.NoError(t, err)
}

func TestListScopesAndFilters(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)

	p1 := f.submit(t, tx, 1)
	f.clock.Advance(time.Minute)
	f.submit(t, tx, 2)
	f.clock.Advance(time.Minute)
	f.submit(t, tx, 3)
	_, err := f.svc.Confirm(f.as(f.admin), p1.ID.String())
	require.NoError(t, err)

	stranger := usercontext.Identity{ID: f.node.Generate(), Role: usercontext.RoleReseller}
	empty, err := f.svc.List(f.as(stranger), domain.ListRequest{})
	require.NoError(t, err)
	assert.Empty(t, empty.Payments)

	processing, err := f.svc.List(f.as(f.admin), domain.ListRequest{Status: "process"})
	require.NoError(t, err)
	require.Len(t, processing.Payments, 2)
	assert.Equal(t, []int{3}, []int(processing.Payments[0].WeekNumbers))

	page, err := f.svc.List(f.as(f.reseller), domain.ListRequest{TransactionID: tx.ID.String()})
	require.NoError(t, err)
	assert.Len(t, page.Payments, 3)

	_, err = f.svc.List(f.as(f.admin), domain.ListRequest{Status: "paid"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.Get(f.as(stranger), p1.ID.String())
	assert.ErrorIs(t, err, usercontext.ErrForbidden)
}

func TestReceiptOnlyForConfirmedPayments(t *testing.T) {
	f := newFixture(t)
	tx := f.transaction(t)
	p := f.submit(t, tx, 1)

	_, err := f.svc.Receipt(f.as(f.reseller), p.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = f.svc.Confirm(f.as(f.admin), p.ID.String())
	require.NoError(t, err)

	receipt, err := f.svc.Receipt(f.as(f.reseller), p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "receipt-"+p.ID.String()+".pdf", receipt.Filename)
	assert.True(t, bytes.HasPrefix(receipt.Content, []byte("%PDF")))
}
