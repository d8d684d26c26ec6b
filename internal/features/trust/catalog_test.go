package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emuready.app/trust-engine/internal/common"
)

func TestWeightOf(t *testing.T) {
	w, err := WeightOf(ActionListingApproved)
	require.NoError(t, err)
	assert.Equal(t, 4, w)

	w, err = WeightOf(ActionListingRejected)
	require.NoError(t, err)
	assert.Equal(t, -8, w)

	// Админ-корректировки в каталоге номинально нулевые
	w, err = WeightOf(ActionAdminAdjustPositive)
	require.NoError(t, err)
	assert.Equal(t, 0, w)
}

func TestWeightOfUnknownAction(t *testing.T) {
	_, err := WeightOf(Action("TELEPORT"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnknownAction)
}

func TestIsVoteAction(t *testing.T) {
	assert.True(t, IsVoteAction(ActionUpvote))
	assert.True(t, IsVoteAction(ActionDownvote))
	assert.False(t, IsVoteAction(ActionUpvoteReceived))
	assert.False(t, IsVoteAction(ActionListingCreated))
}

func TestCatalogDescriptions(t *testing.T) {
	assert.True(t, IsCataloged(ActionMonthlyBonus))
	assert.False(t, IsCataloged(Action("TELEPORT")))
	assert.NotEmpty(t, DescriptionOf(ActionMonthlyBonus))
	assert.Empty(t, DescriptionOf(Action("TELEPORT")))
}
