// Package trust — ratelimit.go реализует консультативный лимитер действий.
// Лимитер только читает журнал и возвращает bool: он ничего не мутирует
// и не считает отказ ошибкой — решение остаётся за вызывающим.
// Гонка с конкурентной записью допустима: проверка может опираться на
// журнал, отстающий на одну запись.
package trust

import (
	"context"
	"time"

	"emuready.app/trust-engine/internal/common"
	"emuready.app/trust-engine/internal/config"
)

// Limiter проверяет дневной потолок действий и короткое окно голосов.
type Limiter struct {
	store   Store
	cfg     *config.Config
	metrics *Metrics
}

// NewLimiter создаёт лимитер. metrics может быть nil.
func NewLimiter(store Store, cfg *config.Config, metrics *Metrics) *Limiter {
	return &Limiter{store: store, cfg: cfg, metrics: metrics}
}

// IsActionAllowed проверяет, не упёрся ли пользователь в лимиты:
//  1. потолок действий за календарный день (UTC);
//  2. для голосов — дополнительно потолок голосов обоих видов
//     в коротком скользящем окне.
//
// Ошибка возвращается только при сбое хранилища.
func (l *Limiter) IsActionAllowed(ctx context.Context, userID string, action Action) (bool, error) {
	now := time.Now().UTC()

	dayCount, err := l.store.CountEntriesSince(ctx, userID, common.StartOfDayUTC(now))
	if err != nil {
		return false, err
	}
	if dayCount >= l.cfg.DailyActionLimit {
		l.metrics.incDenial("daily")
		return false, nil
	}

	if IsVoteAction(action) {
		voteCount, err := l.store.CountEntriesOfActionsSince(ctx, userID, VoteActions(), now.Add(-l.cfg.VoteWindow))
		if err != nil {
			return false, err
		}
		if voteCount >= l.cfg.VoteWindowLimit {
			l.metrics.incDenial("vote_window")
			return false, nil
		}
	}

	return true, nil
}
