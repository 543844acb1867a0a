package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("reason", "week_reserved"),
		attribute.String("reseller_id", "456"),
		attribute.String("payment_method", "bca"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "reason" && attrs[1].Key != "reason" {
		t.Fatalf("expected reason to be retained")
	}
	if attrs[0].Key != "payment_method" && attrs[1].Key != "payment_method" {
		t.Fatalf("expected payment_method to be retained")
	}
}

func TestRecordersTolerateNilAndNoop(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.RecordPaymentSubmitted(context.Background(), "bca", 2)
	nilMetrics.RecordPaymentTransition(context.Background(), "process", "confirmed")

	m, err := New(Config{ServiceName: "cicilan-test"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordTransactionCreated(context.Background(), "1")
	m.RecordWeekConflict(context.Background(), "week_already_paid")
	m.RecordRateLimitDenied(context.Background(), "/api/payments")
	m.RecordNotificationFailed(context.Background(), "email", "payment.confirmed")
}
