// Package trust — service.go содержит бизнес-логику движка:
// применение и отмена действий, ручные корректировки, выдача уровня.
//
// Все мутации идут по одной схеме: внутри одной транзакции читается
// счёт (с блокировкой строки), считается новый счёт, пишутся счёт и
// запись журнала. События уходят ТОЛЬКО после коммита и best-effort:
// их сбой никогда не откатывает мутацию.
package trust

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"emuready.app/trust-engine/internal/common"
	"emuready.app/trust-engine/internal/config"
	"emuready.app/trust-engine/internal/events"
)

// Service управляет счётом доверия.
type Service struct {
	store   Store
	cfg     *config.Config
	sink    events.Sink
	metrics *Metrics
}

// NewService создаёт сервис движка. metrics может быть nil (в тестах).
func NewService(store Store, cfg *config.Config, sink events.Sink, metrics *Metrics) *Service {
	if sink == nil {
		sink = events.NewLogSink()
	}
	return &Service{store: store, cfg: cfg, sink: sink, metrics: metrics}
}

// mutation — параметры одной мутации счёта.
type mutation struct {
	action        Action
	delta         int
	meta          Metadata
	floorAtZero   bool // Клампить ли итоговый счёт снизу нулём
	touchActivity bool // Обновлять ли last_active_at
	recordApplied bool // Писать в журнал фактическую дельту, а не запрошенную
}

// ApplyAction применяет каталогизированное действие к счёту пользователя.
//
// Прямое применение НЕ клампится нулём: серия штрафов может увести
// счёт в минус. Это сознательно сохранённая асимметрия (клампятся
// только отмены и ручные минус-корректировки); поведение закреплено
// регрессионным тестом.
func (s *Service) ApplyAction(ctx context.Context, userID string, action Action, meta Metadata) error {
	weight, err := WeightOf(action)
	if err != nil {
		return err
	}
	if err := s.mutate(ctx, userID, mutation{
		action:        action,
		delta:         weight,
		meta:          meta,
		touchActivity: true,
	}); err != nil {
		return err
	}
	s.metrics.incApplied(action)
	return nil
}

// ReverseAction отменяет ранее применённое действие: симметрично
// ApplyAction, но с весом −weightOf(kind) и полом в нуле. Отмена
// никогда не уводит пользователя в минус, даже если из-за этого она
// не является точной инверсией одной прошлой записи.
func (s *Service) ReverseAction(ctx context.Context, userID string, action Action, meta Metadata) error {
	weight, err := WeightOf(action)
	if err != nil {
		return err
	}
	if err := s.mutate(ctx, userID, mutation{
		action:        action,
		delta:         -weight,
		meta:          meta,
		floorAtZero:   true,
		touchActivity: true,
	}); err != nil {
		return err
	}
	s.metrics.incReversed(action)
	return nil
}

// ApplyManualAdjustment — корректировка счёта администратором.
// Пол в нуле: фактическая дельта может отличаться от запрошенной,
// в журнал пишется фактическая, запрошенная сохраняется в metadata.
func (s *Service) ApplyManualAdjustment(ctx context.Context, userID string, adjustment int, reason, adminUserID string) error {
	if adjustment == 0 {
		return common.ErrZeroAdjustment
	}

	action := ActionAdminAdjustPositive
	if adjustment < 0 {
		action = ActionAdminAdjustNegative
	}

	meta := Metadata{
		"admin_user_id":        adminUserID,
		"reason":               reason,
		"requested_adjustment": adjustment,
	}

	if err := s.mutate(ctx, userID, mutation{
		action:        action,
		delta:         adjustment,
		meta:          meta,
		floorAtZero:   true,
		recordApplied: true,
	}); err != nil {
		return err
	}
	s.metrics.incManual()

	log.WithFields(log.Fields{
		"user_id":    userID,
		"admin_id":   adminUserID,
		"adjustment": adjustment,
	}).Info("Ручная корректировка счёта применена")
	return nil
}

// mutate выполняет мутацию в одной транзакции и шлёт события после коммита.
func (s *Service) mutate(ctx context.Context, userID string, m mutation) error {
	var oldScore, newScore, recorded int

	err := s.store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		oldScore = user.TrustScore
		newScore = oldScore + m.delta
		if m.floorAtZero && newScore < 0 {
			newScore = 0
		}

		// В журнал обычно идёт каталожный вес; для ручных корректировок —
		// фактическая дельта после клампа
		recorded = m.delta
		if m.recordApplied {
			recorded = newScore - oldScore
		}

		if err := tx.UpdateScore(ctx, userID, newScore, m.touchActivity); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, userID, m.action, recorded, m.meta)
	})
	if err != nil {
		return err
	}

	s.emitAfterCommit(ctx, userID, oldScore, newScore, m.action, recorded)
	return nil
}

// emitAfterCommit шлёт события об изменении счёта/уровня.
// Вызывается строго после коммита; sink не блокирует и не возвращает ошибок.
func (s *Service) emitAfterCommit(ctx context.Context, userID string, oldScore, newScore int, action Action, weight int) {
	now := time.Now().UTC()
	s.sink.ScoreChanged(ctx, events.ScoreChanged{
		UserID:   userID,
		OldScore: oldScore,
		NewScore: newScore,
		Action:   string(action),
		Weight:   weight,
		At:       now,
	})

	oldLevel := LevelFor(oldScore)
	newLevel := LevelFor(newScore)
	if oldLevel != newLevel {
		s.sink.LevelChanged(ctx, events.LevelChanged{
			UserID:   userID,
			OldLevel: oldLevel.Name,
			NewLevel: newLevel.Name,
			Score:    newScore,
			At:       now,
		})
	}
}

// LevelInfo — уровень пользователя и прогресс к следующему.
type LevelInfo struct {
	UserID         string  `json:"user_id"`
	Score          int     `json:"score"`
	Level          Level   `json:"level"`
	NextLevel      *Level  `json:"next_level,omitempty"`
	Progress       float64 `json:"progress"`
	CanAutoApprove bool    `json:"can_auto_approve"`
}

// LevelOf возвращает уровень доверия пользователя (вычисляется на чтении).
func (s *Service) LevelOf(ctx context.Context, userID string) (*LevelInfo, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &LevelInfo{
		UserID:         userID,
		Score:          user.TrustScore,
		Level:          LevelFor(user.TrustScore),
		NextLevel:      NextLevelFor(user.TrustScore),
		Progress:       ProgressToNextLevel(user.TrustScore),
		CanAutoApprove: HasAtLeastLevel(user.TrustScore, s.cfg.AutoApproveMinLevel),
	}, nil
}

// CanAutoApprove сообщает, достиг ли пользователь уровня автоодобрения.
func (s *Service) CanAutoApprove(ctx context.Context, userID string) (bool, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return HasAtLeastLevel(user.TrustScore, s.cfg.AutoApproveMinLevel), nil
}
