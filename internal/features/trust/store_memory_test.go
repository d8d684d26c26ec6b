package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Откат RunInTx: ошибка внутри fn отменяет и счёт, и записи журнала.
func TestMemoryStoreRunInTxRollback(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()
	store.PutUser(&User{ID: "u1", TrustScore: 10, CreatedAt: now, LastActiveAt: now})

	boom := errors.New("искусственный сбой")
	err := store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		require.NoError(t, tx.UpdateScore(ctx, "u1", 99, true))
		require.NoError(t, tx.AppendEntry(ctx, "u1", ActionUpvote, 1, nil))
		return boom
	})
	require.ErrorIs(t, err, boom)

	user, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, user.TrustScore)

	entries, err := store.EntriesInOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryStoreRunInTxCommit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()
	store.PutUser(&User{ID: "u1", TrustScore: 10, CreatedAt: now, LastActiveAt: now})

	err := store.RunInTx(ctx, func(ctx context.Context, tx TxStore) error {
		if err := tx.UpdateScore(ctx, "u1", 15, false); err != nil {
			return err
		}
		return tx.AppendEntry(ctx, "u1", ActionMonthlyBonus, 5, Metadata{"source": "monthly_bonus"})
	})
	require.NoError(t, err)

	user, _ := store.GetUser(ctx, "u1")
	assert.Equal(t, 15, user.TrustScore)

	entries, _ := store.EntriesInOrder(ctx, "u1")
	require.Len(t, entries, 1)
	assert.Equal(t, "monthly_bonus", entries[0].Metadata["source"])
}

// GetUser отдаёт копию: мутации снаружи не протекают в хранилище.
func TestMemoryStoreGetUserReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now().UTC()
	store.PutUser(&User{ID: "u1", TrustScore: 10, CreatedAt: now, LastActiveAt: now})

	user, err := store.GetUser(ctx, "u1")
	require.NoError(t, err)
	user.TrustScore = 999

	again, _ := store.GetUser(ctx, "u1")
	assert.Equal(t, 10, again.TrustScore)
}
