// Package trust — stats.go: read-only агрегаты журнала и проверка
// согласованности счёта с журналом. Обычные чтения, без транзакций.
package trust

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// DefaultRecentLimit — сколько последних записей отдаёт статистика,
// если вызывающий не указал лимит.
const DefaultRecentLimit = 20

// Stats — агрегированное представление журнала.
type Stats struct {
	TotalEntries int64         `json:"total_entries"`
	ByAction     []ActionStat  `json:"by_action"`
	Recent       []*LedgerView `json:"recent"`
}

// Stats возвращает агрегаты журнала; непустой userID ограничивает
// выборку одним пользователем.
func (s *Service) Stats(ctx context.Context, userID string, limit int) (*Stats, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	total, err := s.store.TotalEntries(ctx)
	if err != nil {
		return nil, err
	}
	byAction, err := s.store.CountsByAction(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.RecentEntries(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	return &Stats{TotalEntries: total, ByAction: byAction, Recent: recent}, nil
}

// AuditReport — итог сверки счёта пользователя с его журналом.
type AuditReport struct {
	UserID        string `json:"user_id"`
	StoredScore   int    `json:"stored_score"`
	ReplayedScore int    `json:"replayed_score"`
	Entries       int    `json:"entries"`
	Consistent    bool   `json:"consistent"`
}

// VerifyLedger воспроизводит журнал пользователя в порядке created_at,
// клампя промежуточный счёт нулём после каждого шага, и сравнивает
// результат с хранимым счётом. Это инструмент аудита, не горячий путь:
// в норме счёт никогда не пересчитывается из журнала.
func (s *Service) VerifyLedger(ctx context.Context, userID string) (*AuditReport, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.EntriesInOrder(ctx, userID)
	if err != nil {
		return nil, err
	}

	replayed := 0
	for _, e := range entries {
		replayed += e.Weight
		if replayed < 0 {
			replayed = 0
		}
	}

	return &AuditReport{
		UserID:        userID,
		StoredScore:   user.TrustScore,
		ReplayedScore: replayed,
		Entries:       len(entries),
		Consistent:    replayed == user.TrustScore,
	}, nil
}

// VerifyAllLedgers сверяет журналы всех пользователей и возвращает
// количество расхождений. Запускается по расписанию (см. internal/jobs).
func (s *Service) VerifyAllLedgers(ctx context.Context) (int, error) {
	ids, err := s.store.AllUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	mismatches := 0
	for _, id := range ids {
		report, err := s.VerifyLedger(ctx, id)
		if err != nil {
			log.WithError(err).WithField("user_id", id).Error("Ошибка сверки журнала")
			continue
		}
		if !report.Consistent {
			mismatches++
			log.WithFields(log.Fields{
				"user_id":  id,
				"stored":   report.StoredScore,
				"replayed": report.ReplayedScore,
			}).Warn("Счёт расходится с журналом")
		}
	}
	return mismatches, nil
}
