package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"emuready.app/trust-engine/internal/common"
)

// flakyStore ломает HasEntrySince для одного пользователя, чтобы
// проверить, что сбой по одному не роняет весь батч.
type flakyStore struct {
	*MemoryStore
	failFor string
}

func (s *flakyStore) HasEntrySince(ctx context.Context, userID string, action Action, since time.Time) (bool, error) {
	if userID == s.failFor {
		return false, errors.New("хранилище недоступно")
	}
	return s.MemoryStore.HasEntrySince(ctx, userID, action, since)
}

type BonusSuite struct {
	suite.Suite
	ctx     context.Context
	store   *MemoryStore
	service *Service
}

func (s *BonusSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()
	s.service = NewService(s.store, testConfig(), &recordingSink{}, nil)
}

func TestBonusSuite(t *testing.T) {
	suite.Run(t, new(BonusSuite))
}

// putUser — пользователь с заданным возрастом аккаунта и давностью активности.
func (s *BonusSuite) putUser(id string, ageDays, inactiveDays int) {
	now := time.Now().UTC()
	s.store.PutUser(&User{
		ID:           id,
		Name:         "user-" + id,
		CreatedAt:    now.AddDate(0, 0, -ageDays),
		LastActiveAt: now.AddDate(0, 0, -inactiveDays),
	})
}

func (s *BonusSuite) TestEligibleUsers() {
	s.putUser("established", 60, 0) // подходит
	s.putUser("newcomer", 5, 0)     // слишком молодой аккаунт
	s.putUser("dormant", 60, 45)    // слишком давно неактивен

	ids, err := s.service.EligibleUsers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"established"}, ids)
}

func (s *BonusSuite) TestApplyMonthlyBonus() {
	s.putUser("u1", 60, 0)
	s.putUser("u2", 90, 3)

	report, err := s.service.ApplyMonthlyBonus(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, report.Processed)
	s.Equal(0, report.Skipped)
	s.Empty(report.Errors)

	u1, _ := s.store.GetUser(s.ctx, "u1")
	s.Equal(5, u1.TrustScore)

	entries, _ := s.store.EntriesInOrder(s.ctx, "u1")
	s.Require().Len(entries, 1)
	s.Equal(ActionMonthlyBonus, entries[0].Action)
	s.Equal(5, entries[0].Weight)
	s.Equal("monthly_bonus", entries[0].Metadata["source"])
}

// Повторный запуск в том же месяце не начисляет второй раз.
func (s *BonusSuite) TestApplyMonthlyBonusIdempotent() {
	s.putUser("u1", 60, 0)

	report, err := s.service.ApplyMonthlyBonus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)

	report, err = s.service.ApplyMonthlyBonus(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, report.Processed)
	s.Equal(1, report.Skipped)

	u1, _ := s.store.GetUser(s.ctx, "u1")
	s.Equal(5, u1.TrustScore)
}

// Бонус прошлого месяца не мешает начислению в новом месяце.
func (s *BonusSuite) TestApplyMonthlyBonusNewMonth() {
	s.putUser("u1", 60, 0)
	lastMonth := common.StartOfMonthUTC(time.Now().UTC()).Add(-time.Hour)
	s.store.SeedEntry("u1", ActionMonthlyBonus, 5, lastMonth)

	report, err := s.service.ApplyMonthlyBonus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.Equal(0, report.Skipped)
}

// Ошибка по одному пользователю попадает в отчёт, остальные обрабатываются.
func (s *BonusSuite) TestApplyMonthlyBonusCollectsErrors() {
	s.putUser("broken", 90, 0)
	s.putUser("ok", 60, 0)

	flaky := &flakyStore{MemoryStore: s.store, failFor: "broken"}
	service := NewService(flaky, testConfig(), &recordingSink{}, nil)

	report, err := service.ApplyMonthlyBonus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, report.Processed)
	s.Require().Len(report.Errors, 1)
	s.Equal("broken", report.Errors[0].UserID)

	ok, _ := s.store.GetUser(s.ctx, "ok")
	s.Equal(5, ok.TrustScore)
	broken, _ := s.store.GetUser(s.ctx, "broken")
	s.Equal(0, broken.TrustScore)
}
