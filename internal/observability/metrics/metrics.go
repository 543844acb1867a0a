package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes installment ledger instruments.
type Metrics struct {
	transactionsCreated metric.Int64Counter
	paymentsSubmitted   metric.Int64Counter
	paymentTransitions  metric.Int64Counter
	weekConflicts       metric.Int64Counter
	rateLimitDenied     metric.Int64Counter
	notificationsFailed metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the ledger metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "cicilan"
	}
	meter := provider.Meter(name)

	transactionsCreated, err := meter.Int64Counter("cicilan_transactions_created_total")
	if err != nil {
		return nil, err
	}
	paymentsSubmitted, err := meter.Int64Counter("cicilan_payments_submitted_total")
	if err != nil {
		return nil, err
	}
	paymentTransitions, err := meter.Int64Counter("cicilan_payment_transitions_total")
	if err != nil {
		return nil, err
	}
	weekConflicts, err := meter.Int64Counter("cicilan_week_conflicts_total")
	if err != nil {
		return nil, err
	}
	rateLimitDenied, err := meter.Int64Counter("cicilan_rate_limit_denied_total")
	if err != nil {
		return nil, err
	}
	notificationsFailed, err := meter.Int64Counter("cicilan_notifications_failed_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		transactionsCreated: transactionsCreated,
		paymentsSubmitted:   paymentsSubmitted,
		paymentTransitions:  paymentTransitions,
		weekConflicts:       weekConflicts,
		rateLimitDenied:     rateLimitDenied,
		notificationsFailed: notificationsFailed,
	}, nil
}

// RecordTransactionCreated counts new transactions per package.
func (m *Metrics) RecordTransactionCreated(ctx context.Context, packageID string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("package_id", strings.TrimSpace(packageID)))
	m.transactionsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPaymentSubmitted counts payment submissions and the weeks they cover.
func (m *Metrics) RecordPaymentSubmitted(ctx context.Context, paymentMethod string, weeks int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("payment_method", strings.TrimSpace(paymentMethod)),
		attribute.Int("weeks", weeks),
	)
	m.paymentsSubmitted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPaymentTransition counts process -> confirmed/rejected moves.
func (m *Metrics) RecordPaymentTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("from", strings.TrimSpace(from)),
		attribute.String("to", strings.TrimSpace(to)),
	)
	m.paymentTransitions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordWeekConflict counts submissions or confirmations blocked by a week collision.
func (m *Metrics) RecordWeekConflict(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.weekConflicts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied counts throttled submissions.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordNotificationFailed counts outbound notifications that could not be delivered.
func (m *Metrics) RecordNotificationFailed(ctx context.Context, channel, eventType string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("channel", strings.TrimSpace(channel)),
		attribute.String("event_type", strings.TrimSpace(eventType)),
	)
	m.notificationsFailed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"package_id":     {},
	"payment_method": {},
	"weeks":          {},
	"from":           {},
	"to":             {},
	"endpoint":       {},
	"status_code":    {},
	"channel":        {},
	"event_type":     {},
	"reason":         {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
