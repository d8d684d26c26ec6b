package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStartOfDayUTC(t *testing.T) {
	// Момент в не-UTC зоне нормализуется к границе дня UTC
	msk := time.FixedZone("MSK", 3*60*60)
	moment := time.Date(2026, 3, 15, 1, 30, 0, 0, msk) // 2026-03-14 22:30 UTC

	got := StartOfDayUTC(moment)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), got)
}

func TestStartOfDayUTCIdempotent(t *testing.T) {
	moment := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, moment, StartOfDayUTC(moment))
}

func TestStartOfMonthUTC(t *testing.T) {
	moment := time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), StartOfMonthUTC(moment))

	// Первая секунда месяца уже принадлежит новому месяцу
	moment = time.Date(2026, 3, 1, 0, 0, 1, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), StartOfMonthUTC(moment))
}

func TestDaysAgo(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC), DaysAgo(now, 30))
	assert.Equal(t, now, DaysAgo(now, 0))
}

func TestFormatDateTime(t *testing.T) {
	moment := time.Date(2026, 3, 15, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "15.03.2026 09:05", FormatDateTime(moment))
}
