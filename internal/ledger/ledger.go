// Package ledger derives installment progress from a transaction's terms and
// its payments. Nothing here touches storage: every view that reports paid
// weeks or outstanding amounts goes through Aggregate.
package ledger

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the lifecycle state of a payment submission.
type PaymentStatus string

const (
	StatusProcess   PaymentStatus = "process"
	StatusConfirmed PaymentStatus = "confirmed"
	StatusRejected  PaymentStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusProcess, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s can no longer change.
func (s PaymentStatus) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected
}

var (
	ErrInvalidWeekNumbers = errors.New("invalid_week_numbers")
	ErrInvalidAmount      = errors.New("invalid_amount")
)

// Terms are the financial terms frozen on a transaction.
type Terms struct {
	PricePerWeek decimal.Decimal
	Tenor        int
}

// Total is the full contract value.
func (t Terms) Total() decimal.Decimal {
	return t.PricePerWeek.Mul(decimal.NewFromInt(int64(t.Tenor)))
}

// Entry is the part of a payment the aggregator needs.
type Entry struct {
	Status PaymentStatus
	Amount decimal.Decimal
	Weeks  []int
}

// Summary is the derived state of one transaction.
type Summary struct {
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	ConfirmedAmount  decimal.Decimal `json:"confirmedAmount"`
	ProcessingAmount decimal.Decimal `json:"processingAmount"`
	RemainingAmount  decimal.Decimal `json:"remainingAmount"`
	PaidWeeks        []int           `json:"paidWeeks"`
	ProcessingWeeks  []int           `json:"processingWeeks"`
	UnpaidWeeks      []int           `json:"unpaidWeeks"`
	ProgressPercent  float64         `json:"progressPercent"`
	PaidOff          bool            `json:"paidOff"`
}

// Aggregate folds payments into a Summary. Rejected payments contribute
// nothing; RemainingAmount is not clamped at zero.
func Aggregate(terms Terms, entries []Entry) Summary {
	confirmed := decimal.Zero
	processing := decimal.Zero
	paid := make(map[int]struct{})
	pending := make(map[int]struct{})

	for _, e := range entries {
		switch e.Status {
		case StatusConfirmed:
			confirmed = confirmed.Add(e.Amount)
			for _, w := range e.Weeks {
				if w >= 1 && w <= terms.Tenor {
					paid[w] = struct{}{}
				}
			}
		case StatusProcess:
			processing = processing.Add(e.Amount)
			for _, w := range e.Weeks {
				if w >= 1 && w <= terms.Tenor {
					pending[w] = struct{}{}
				}
			}
		}
	}

	total := terms.Total()
	summary := Summary{
		TotalAmount:      total,
		ConfirmedAmount:  confirmed,
		ProcessingAmount: processing,
		RemainingAmount:  total.Sub(confirmed).Sub(processing),
		PaidWeeks:        sortedKeys(paid),
		ProcessingWeeks:  sortedKeys(pending),
		UnpaidWeeks:      []int{},
	}
	for w := 1; w <= terms.Tenor; w++ {
		if _, ok := paid[w]; !ok {
			summary.UnpaidWeeks = append(summary.UnpaidWeeks, w)
		}
	}
	if terms.Tenor > 0 {
		summary.ProgressPercent = decimal.NewFromInt(int64(len(summary.PaidWeeks))).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(terms.Tenor))).
			Round(2).
			InexactFloat64()
		summary.PaidOff = len(summary.PaidWeeks) == terms.Tenor
	}
	return summary
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// NormalizeWeeks checks that weeks is non-empty, distinct, within [1, tenor]
// and no longer than maxWeeks (0 disables the cap). It returns a sorted copy.
func NormalizeWeeks(weeks []int, tenor, maxWeeks int) ([]int, error) {
	if len(weeks) == 0 {
		return nil, ErrInvalidWeekNumbers
	}
	if maxWeeks > 0 && len(weeks) > maxWeeks {
		return nil, ErrInvalidWeekNumbers
	}
	seen := make(map[int]struct{}, len(weeks))
	out := make([]int, 0, len(weeks))
	for _, w := range weeks {
		if w < 1 || w > tenor {
			return nil, ErrInvalidWeekNumbers
		}
		if _, dup := seen[w]; dup {
			return nil, ErrInvalidWeekNumbers
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Ints(out)
	return out, nil
}

// ExpectedAmount is the only acceptable amount for paying weeks at price.
func ExpectedAmount(price decimal.Decimal, weeks int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(weeks)))
}

// ResolveAmount returns the amount to persist. A zero amount means the caller
// left it to the server; any other value must equal ExpectedAmount.
func ResolveAmount(submitted, price decimal.Decimal, weeks int) (decimal.Decimal, error) {
	expected := ExpectedAmount(price, weeks)
	if submitted.IsZero() {
		return expected, nil
	}
	if !submitted.Equal(expected) {
		return decimal.Zero, ErrInvalidAmount
	}
	return expected, nil
}

// Totals sums a set of summaries for report views.
type Totals struct {
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	ConfirmedAmount  decimal.Decimal `json:"confirmedAmount"`
	ProcessingAmount decimal.Decimal `json:"processingAmount"`
	RemainingAmount  decimal.Decimal `json:"remainingAmount"`
}

func Sum(summaries ...Summary) Totals {
	t := Totals{
		TotalAmount:      decimal.Zero,
		ConfirmedAmount:  decimal.Zero,
		ProcessingAmount: decimal.Zero,
		RemainingAmount:  decimal.Zero,
	}
	for _, s := range summaries {
		t.TotalAmount = t.TotalAmount.Add(s.TotalAmount)
		t.ConfirmedAmount = t.ConfirmedAmount.Add(s.ConfirmedAmount)
		t.ProcessingAmount = t.ProcessingAmount.Add(s.ProcessingAmount)
		t.RemainingAmount = t.RemainingAmount.Add(s.RemainingAmount)
	}
	return t
}
