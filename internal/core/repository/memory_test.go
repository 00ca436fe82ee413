package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duynhne/course-service/internal/core/domain"
)

func TestMemoryStore_UsersUniqueness(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	u, err := users.Create(ctx, "alice", "alice@example.com", "h")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	_, err = users.Create(ctx, "alice", "other@example.com", "h")
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = users.Create(ctx, "bob", "alice@example.com", "h")
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	row, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h", row.PasswordHash)

	missing, err := users.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStore_ConcurrentCompletionAwardsOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	u, err := store.Users().Create(ctx, "alice", "alice@example.com", "h")
	require.NoError(t, err)

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		awarded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Completions().Complete(ctx, u.ID, "go-101", 100)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				awarded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, awarded)

	got, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Points)

	completions, err := store.Completions().ListByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, completions, 1)
}

func TestMemoryStore_CompleteUnknownUser(t *testing.T) {
	_, err := NewMemoryStore().Completions().Complete(context.Background(), 9, "go-101", 100)
	assert.Error(t, err)
}

func TestMemoryStore_RatingUpsertAndAggregate(t *testing.T) {
	ctx := context.Background()
	ratings := NewMemoryStore().Ratings()

	require.NoError(t, ratings.Upsert(ctx, 1, "go-101", 3))
	require.NoError(t, ratings.Upsert(ctx, 1, "go-101", 5))

	agg, err := ratings.Aggregate(ctx, "go-101")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.Count)
	assert.InDelta(t, 5.0, *agg.Average, 1e-9)

	require.NoError(t, ratings.Upsert(ctx, 2, "go-101", 2))
	agg, err = ratings.Aggregate(ctx, "go-101")
	require.NoError(t, err)
	assert.Equal(t, 2, agg.Count)
	assert.InDelta(t, 3.5, *agg.Average, 1e-9)

	empty, err := ratings.Aggregate(ctx, "unrated")
	require.NoError(t, err)
	assert.Nil(t, empty.Average)
	assert.Zero(t, empty.Count)

	many, err := ratings.AggregateMany(ctx, []string{"go-101", "unrated"})
	require.NoError(t, err)
	assert.Len(t, many, 1)

	mine, err := ratings.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, 5, mine[0].Rating)
}
