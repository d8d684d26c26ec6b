// Package events — kafka.go публикует события движка в Kafka.
// Produce асинхронный: вызывающий не ждёт подтверждения брокера,
// ошибки доставки только логируются и считаются в метрике.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

// envelope — обёртка события для потребителей топика.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// KafkaSink публикует события в один топик, ключ — id пользователя
// (события одного пользователя попадают в одну партицию по порядку).
type KafkaSink struct {
	client       *kgo.Client
	topic        string
	emitFailures prometheus.Counter
}

// NewKafkaSink подключается к брокерам и создаёт sink.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к Kafka: %w", err)
	}

	log.WithFields(log.Fields{"brokers": brokers, "topic": topic}).Info("Kafka-sink событий подключен")
	return &KafkaSink{
		client: client,
		topic:  topic,
		emitFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trust_event_emit_failures_total",
			Help: "Неудачные публикации событий в Kafka",
		}),
	}, nil
}

// ScoreChanged публикует событие изменения счёта.
func (s *KafkaSink) ScoreChanged(ctx context.Context, ev ScoreChanged) {
	s.produce(ctx, ev.UserID, envelope{Type: "trust.score_changed", Payload: ev})
}

// LevelChanged публикует событие смены уровня.
func (s *KafkaSink) LevelChanged(ctx context.Context, ev LevelChanged) {
	s.produce(ctx, ev.UserID, envelope{Type: "trust.level_changed", Payload: ev})
}

func (s *KafkaSink) produce(ctx context.Context, key string, env envelope) {
	value, err := json.Marshal(env)
	if err != nil {
		s.emitFailures.Inc()
		log.WithError(err).Error("Ошибка кодирования события")
		return
	}

	record := &kgo.Record{Topic: s.topic, Key: []byte(key), Value: value}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.emitFailures.Inc()
			log.WithError(err).WithField("type", env.Type).Error("Ошибка публикации события")
		}
	})
}

// Close дожидается отправки буферизованных записей и закрывает клиент.
func (s *KafkaSink) Close() {
	s.client.Close()
}
