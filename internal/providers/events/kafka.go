package events

import (
	"context"
	"errors"
	"strings"

	"github.com/IBM/sarama"
	"github.com/bytedance/sonic"
	"github.com/smallbiznis/cicilan/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.events",
	fx.Provide(NewFromConfig),
)

type KafkaPublisher struct {
	producer    sarama.SyncProducer
	topicPrefix string
	log         *zap.Logger
}

func NewKafkaPublisher(producer sarama.SyncProducer, topicPrefix string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer:    producer,
		topicPrefix: strings.Trim(topicPrefix, "."),
		log:         log,
	}
}

// NewFromConfig falls back to NoopPublisher when no broker is configured or
// the brokers are unreachable at startup.
func NewFromConfig(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) Publisher {
	log = log.Named("events.kafka")
	if !cfg.Kafka.Enabled() {
		log.Info("kafka disabled; domain events are dropped")
		return NoopPublisher{}
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.ClientID = cfg.AppName
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, saramaCfg)
	if err != nil {
		log.Warn("kafka producer unavailable; domain events are dropped",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.Error(err),
		)
		return NoopPublisher{}
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return producer.Close()
		},
	})
	log.Info("kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
	return NewKafkaPublisher(producer, cfg.Kafka.TopicPrefix, log)
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.Type == "" {
		return errors.New("event type is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := sonic.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.Topic(event.Type),
		Key:   sarama.StringEncoder(event.Key),
		Value: sarama.ByteEncoder(data),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}

	p.log.Debug("event published",
		zap.String("topic", msg.Topic),
		zap.String("key", event.Key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Topic maps an event type onto its topic, e.g. "cicilan.payment.confirmed".
func (p *KafkaPublisher) Topic(eventType string) string {
	if p.topicPrefix == "" {
		return eventType
	}
	return p.topicPrefix + "." + eventType
}
