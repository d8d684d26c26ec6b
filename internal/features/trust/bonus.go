// Package trust — bonus.go начисляет месячный бонус за активность.
// Батч идемпотентен в пределах календарного месяца: перед начислением
// проверяется, нет ли уже записи MONTHLY_ACTIVE_BONUS с начала месяца.
// Сбой по одному пользователю не прерывает обработку остальных.
package trust

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"emuready.app/trust-engine/internal/common"
)

// BonusError — ошибка начисления бонуса одному пользователю.
type BonusError struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// BonusReport — итог одного прогона батча.
type BonusReport struct {
	Processed int          `json:"processed"`
	Skipped   int          `json:"skipped"`
	Errors    []BonusError `json:"errors"`
}

// EligibleUsers возвращает кандидатов на месячный бонус:
// аккаунт старше минимального возраста И активен в пределах
// максимального окна неактивности.
func (s *Service) EligibleUsers(ctx context.Context) ([]string, error) {
	now := time.Now().UTC()
	createdBefore := common.DaysAgo(now, s.cfg.BonusMinAccountAgeDays)
	activeAfter := common.DaysAgo(now, s.cfg.BonusMaxInactivityDays)
	return s.store.EligibleUserIDs(ctx, createdBefore, activeAfter)
}

// ApplyMonthlyBonus начисляет бонус каждому кандидату не более одного
// раза за календарный месяц. Повторный запуск в том же месяце безопасен.
// Ошибки по отдельным пользователям собираются в отчёт, а не роняют батч.
func (s *Service) ApplyMonthlyBonus(ctx context.Context) (*BonusReport, error) {
	users, err := s.EligibleUsers(ctx)
	if err != nil {
		return nil, err
	}

	monthStart := common.StartOfMonthUTC(time.Now().UTC())
	report := &BonusReport{}

	for _, userID := range users {
		credited, err := s.creditMonthlyBonus(ctx, userID, monthStart)
		if err != nil {
			report.Errors = append(report.Errors, BonusError{UserID: userID, Message: err.Error()})
			s.metrics.incBonusError()
			log.WithError(err).WithField("user_id", userID).Error("Ошибка начисления месячного бонуса")
			continue
		}
		if credited {
			report.Processed++
			s.metrics.incBonusCredited()
		} else {
			report.Skipped++
			s.metrics.incBonusSkipped()
		}
	}

	log.WithFields(log.Fields{
		"candidates": len(users),
		"processed":  report.Processed,
		"skipped":    report.Skipped,
		"errors":     len(report.Errors),
	}).Info("Прогон месячного бонуса завершён")

	return report, nil
}

// creditMonthlyBonus начисляет бонус одному пользователю, если в этом
// месяце он ещё не начислялся.
func (s *Service) creditMonthlyBonus(ctx context.Context, userID string, monthStart time.Time) (bool, error) {
	exists, err := s.store.HasEntrySince(ctx, userID, ActionMonthlyBonus, monthStart)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	meta := Metadata{"source": "monthly_bonus", "month": monthStart.Format("2006-01")}
	if err := s.ApplyAction(ctx, userID, ActionMonthlyBonus, meta); err != nil {
		return false, err
	}
	return true, nil
}
