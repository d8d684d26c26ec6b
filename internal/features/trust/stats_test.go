package trust

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type StatsSuite struct {
	suite.Suite
	ctx     context.Context
	store   *MemoryStore
	service *Service
}

func (s *StatsSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()
	s.service = NewService(s.store, testConfig(), &recordingSink{}, nil)

	now := time.Now().UTC()
	s.store.PutUser(&User{ID: "u1", Name: "Алиса", CreatedAt: now, LastActiveAt: now})
	s.store.PutUser(&User{ID: "u2", Name: "Боб", CreatedAt: now, LastActiveAt: now})
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsSuite))
}

func (s *StatsSuite) TestStatsGlobal() {
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionUpvote, nil))
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionUpvote, nil))
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u2", ActionListingApproved, nil))

	stats, err := s.service.Stats(s.ctx, "", 0)
	s.Require().NoError(err)
	s.Equal(int64(3), stats.TotalEntries)

	s.Require().Len(stats.ByAction, 2)
	byAction := make(map[Action]ActionStat)
	for _, st := range stats.ByAction {
		byAction[st.Action] = st
	}
	s.Equal(int64(2), byAction[ActionUpvote].Count)
	s.Equal(int64(2), byAction[ActionUpvote].WeightSum)
	s.Equal(int64(1), byAction[ActionListingApproved].Count)
	s.Equal(int64(4), byAction[ActionListingApproved].WeightSum)

	// Последние записи идут от новых к старым, с именем пользователя
	s.Require().Len(stats.Recent, 3)
	s.Equal(ActionListingApproved, stats.Recent[0].Action)
	s.Equal("Боб", stats.Recent[0].UserName)
}

func (s *StatsSuite) TestStatsPerUser() {
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionUpvote, nil))
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u2", ActionDownvote, nil))

	stats, err := s.service.Stats(s.ctx, "u1", 0)
	s.Require().NoError(err)
	s.Require().Len(stats.ByAction, 1)
	s.Equal(ActionUpvote, stats.ByAction[0].Action)
	s.Require().Len(stats.Recent, 1)
	s.Equal("u1", stats.Recent[0].UserID)
}

func (s *StatsSuite) TestStatsRecentLimit() {
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionUpvote, nil))
	}

	stats, err := s.service.Stats(s.ctx, "u1", 2)
	s.Require().NoError(err)
	s.Len(stats.Recent, 2)
}

func (s *StatsSuite) TestVerifyLedgerConsistent() {
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionListingApproved, nil))
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionUpvoteReceived, nil))
	s.Require().NoError(s.service.ReverseAction(s.ctx, "u1", ActionUpvoteReceived, nil))

	report, err := s.service.VerifyLedger(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(4, report.StoredScore)
	s.Equal(4, report.ReplayedScore)
	s.Equal(3, report.Entries)
	s.True(report.Consistent)
}

// Воспроизведение клампит промежуточный счёт на каждом шаге, поэтому
// клампленная отмена сходится с хранимым счётом.
func (s *StatsSuite) TestVerifyLedgerClampsPerStep() {
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionUpvote, nil))       // 0 → 1
	s.Require().NoError(s.service.ReverseAction(s.ctx, "u1", ActionListingApproved, nil)) // кламп в 0, в журнале −4
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionUpvoteReceived, nil)) // 0 → 2

	report, err := s.service.VerifyLedger(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal(2, report.StoredScore)
	s.Equal(2, report.ReplayedScore)
	s.True(report.Consistent)
}

func (s *StatsSuite) TestVerifyLedgerMismatch() {
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionUpvote, nil))
	// Запись мимо сервиса: счёт не менялся, журнал разошёлся
	s.store.SeedEntry("u1", ActionUpvoteReceived, 2, time.Now().UTC())

	report, err := s.service.VerifyLedger(s.ctx, "u1")
	s.Require().NoError(err)
	s.False(report.Consistent)
	s.Equal(1, report.StoredScore)
	s.Equal(3, report.ReplayedScore)
}

func (s *StatsSuite) TestVerifyAllLedgers() {
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u1", ActionUpvote, nil))
	s.Require().NoError(s.service.ApplyAction(s.ctx, "u2", ActionUpvote, nil))
	s.store.SeedEntry("u2", ActionUpvoteReceived, 2, time.Now().UTC())

	mismatches, err := s.service.VerifyAllLedgers(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, mismatches)
}
