// Package jobs управляет периодическими задачами (cron).
// Сам движок фоновых воркеров не порождает: периодичность — забота
// внешнего триггера, и этот планировщик — его конкретизация.
// Месячный бонус идемпотентен, поэтому его можно запускать ежедневно;
// раз в неделю сверяются журналы.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"emuready.app/trust-engine/internal/config"
	"emuready.app/trust-engine/internal/features/trust"
)

// Scheduler запускает задачи движка по расписанию (UTC).
type Scheduler struct {
	cron    *cron.Cron
	service *trust.Service
	cfg     *config.Config
}

// NewScheduler создаёт планировщик. Все расписания трактуются в UTC —
// как и календарные окна самого движка.
func NewScheduler(service *trust.Service, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		service: service,
		cfg:     cfg,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.AddFunc(s.cfg.BonusCronSpec, func() {
		log.Info("[CRON] Прогон месячного бонуса")
		report, err := s.service.ApplyMonthlyBonus(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка прогона бонуса")
			return
		}
		log.WithFields(log.Fields{
			"processed": report.Processed,
			"skipped":   report.Skipped,
			"errors":    len(report.Errors),
		}).Info("[CRON] Бонус начислен")
	})

	s.cron.AddFunc(s.cfg.AuditCronSpec, func() {
		log.Info("[CRON] Сверка журналов")
		mismatches, err := s.service.VerifyAllLedgers(ctx)
		if err != nil {
			log.WithError(err).Error("[CRON] Ошибка сверки журналов")
			return
		}
		if mismatches > 0 {
			log.WithField("mismatches", mismatches).Warn("[CRON] Найдены расхождения счёта с журналом")
		}
	})

	s.cron.Start()
	log.Info("Планировщик задач запущен (UTC)")
}

// Stop останавливает планировщик, дожидаясь работающих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}
