package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{-50, "New"}, // отрицательный счёт не роняет функцию
		{0, "New"},
		{99, "New"},
		{100, "Contributor"},
		{249, "Contributor"},
		{250, "Trusted"},
		{500, "Verified"},
		{1000, "Elite"},
		{1500, "Core"},
		{99999, "Core"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LevelFor(c.score).Name, "score=%d", c.score)
	}
}

// Уровень монотонно не убывает по счёту.
func TestLevelForMonotonic(t *testing.T) {
	prev := 0
	for score := -10; score <= 2000; score++ {
		idx := levelIndexFor(score)
		require.GreaterOrEqual(t, idx, prev, "score=%d", score)
		prev = idx
	}
}

func TestNextLevelFor(t *testing.T) {
	next := NextLevelFor(0)
	require.NotNil(t, next)
	assert.Equal(t, "Contributor", next.Name)

	next = NextLevelFor(250)
	require.NotNil(t, next)
	assert.Equal(t, "Verified", next.Name)

	// На верхнем уровне следующего нет
	assert.Nil(t, NextLevelFor(1500))
	assert.Nil(t, NextLevelFor(5000))
}

func TestProgressToNextLevel(t *testing.T) {
	// Ровно 1 на верхнем уровне и выше
	assert.Equal(t, 1.0, ProgressToNextLevel(1500))
	assert.Equal(t, 1.0, ProgressToNextLevel(9000))

	// В [0,1) на всех остальных
	for score := 0; score < 1500; score++ {
		p := ProgressToNextLevel(score)
		require.GreaterOrEqual(t, p, 0.0, "score=%d", score)
		require.Less(t, p, 1.0, "score=%d", score)
	}

	// Середина интервала New → Contributor
	assert.InDelta(t, 0.5, ProgressToNextLevel(50), 1e-9)
}

func TestHasAtLeastLevel(t *testing.T) {
	assert.True(t, HasAtLeastLevel(0, "New"))
	assert.False(t, HasAtLeastLevel(249, "Trusted"))
	assert.True(t, HasAtLeastLevel(250, "Trusted"))
	assert.True(t, HasAtLeastLevel(2000, "Trusted"))

	// Неизвестное имя уровня — false, не паника
	assert.False(t, HasAtLeastLevel(2000, "Legendary"))
}
