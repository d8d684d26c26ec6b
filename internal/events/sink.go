// Package events описывает исходящий канал событий движка доверия.
// Отправка событий — побочный best-effort канал: она происходит только
// после коммита транзакции, не блокирует мутацию и не возвращает
// ошибок наверх. Недоступность sink'а никогда не роняет начисление.
package events

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// ScoreChanged — счёт пользователя изменился.
type ScoreChanged struct {
	UserID   string    `json:"user_id"`
	OldScore int       `json:"old_score"`
	NewScore int       `json:"new_score"`
	Action   string    `json:"action"`
	Weight   int       `json:"weight"`
	At       time.Time `json:"at"`
}

// LevelChanged — производный уровень пользователя изменился.
type LevelChanged struct {
	UserID   string    `json:"user_id"`
	OldLevel string    `json:"old_level"`
	NewLevel string    `json:"new_level"`
	Score    int       `json:"score"`
	At       time.Time `json:"at"`
}

// Sink — получатель событий. Реализации не блокируют вызывающего
// и сами логируют свои сбои.
type Sink interface {
	ScoreChanged(ctx context.Context, ev ScoreChanged)
	LevelChanged(ctx context.Context, ev LevelChanged)
}

// LogSink пишет события в структурированные логи.
// Дефолтный sink, когда брокеры Kafka не настроены.
type LogSink struct{}

// NewLogSink создаёт лог-sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// ScoreChanged логирует изменение счёта.
func (s *LogSink) ScoreChanged(ctx context.Context, ev ScoreChanged) {
	log.WithFields(log.Fields{
		"user_id":   ev.UserID,
		"old_score": ev.OldScore,
		"new_score": ev.NewScore,
		"action":    ev.Action,
		"weight":    ev.Weight,
	}).Info("[EVENT] Счёт доверия изменён")
}

// LevelChanged логирует смену уровня.
func (s *LogSink) LevelChanged(ctx context.Context, ev LevelChanged) {
	log.WithFields(log.Fields{
		"user_id":   ev.UserID,
		"old_level": ev.OldLevel,
		"new_level": ev.NewLevel,
		"score":     ev.Score,
	}).Info("[EVENT] Уровень доверия изменён")
}
