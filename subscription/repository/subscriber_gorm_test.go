package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/subgate/subgate/subscription/domain"
)

func setupTestRepo(t *testing.T) *SubscriberGormRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "failed to open db")

	repo := NewSubscriberGormRepository(db)
	require.NoError(t, repo.InitSchema(context.Background()), "failed to init schema")
	return repo
}

func TestUpsertAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	until := time.Now().UTC().Add(30 * 24 * time.Hour)
	err := repo.Upsert(ctx, &domain.Subscriber{
		ID:          42,
		DisplayName: "alice",
		ValidUntil:  until,
		InviteLink:  "https://t.me/+abc",
	})
	require.NoError(t, err)

	stored, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.DisplayName)
	assert.Equal(t, "https://t.me/+abc", stored.InviteLink)
	assert.WithinDuration(t, until, stored.ValidUntil, time.Second)
	assert.False(t, stored.Notified)
}

func TestGetUnknownSubscriber(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrSubscriberNotFound)
}

func TestUpsertClearsNotified(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx, &domain.Subscriber{
		ID:          7,
		DisplayName: "bob",
		ValidUntil:  time.Now().UTC().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, repo.MarkNotified(ctx, 7))

	// A replacement purchase starts a new expiry window
	err = repo.Upsert(ctx, &domain.Subscriber{
		ID:          7,
		DisplayName: "bob",
		ValidUntil:  time.Now().UTC().Add(31 * 24 * time.Hour),
	})
	require.NoError(t, err)

	stored, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, stored.Notified, "upsert must clear the notified flag")
}

func TestExtendFromStoredValidity(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// Validity with 5 days remaining; extension stacks on top of it
	remaining := time.Now().UTC().Add(5 * 24 * time.Hour)
	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		ID:          1,
		DisplayName: "carol",
		ValidUntil:  remaining,
	}))
	require.NoError(t, repo.MarkNotified(ctx, 1))

	newEnd, err := repo.Extend(ctx, 1, 30*24*time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, remaining.Add(30*24*time.Hour), newEnd, time.Second)

	stored, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.WithinDuration(t, newEnd, stored.ValidUntil, time.Second)
	assert.False(t, stored.Notified, "extend must clear the notified flag")
}

func TestExtendUnknownSubscriber(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Extend(context.Background(), 404, 30*24*time.Hour)
	assert.ErrorIs(t, err, domain.ErrSubscriberNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		ID:          3,
		DisplayName: "dave",
		ValidUntil:  time.Now().UTC().Add(time.Hour),
	}))

	require.NoError(t, repo.Delete(ctx, 3))
	_, err := repo.Get(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrSubscriberNotFound)

	// Deleting again is a no-op
	assert.NoError(t, repo.Delete(ctx, 3))
}

func TestFindExpiringUnnotified(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	window := 48 * time.Hour

	// Inside the window
	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		ID: 1, DisplayName: "soon", ValidUntil: now.Add(12 * time.Hour),
	}))
	// Already expired
	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		ID: 2, DisplayName: "expired", ValidUntil: now.Add(-time.Hour),
	}))
	// Beyond the window
	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		ID: 3, DisplayName: "later", ValidUntil: now.Add(10 * 24 * time.Hour),
	}))
	// Inside the window but already offered
	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		ID: 4, DisplayName: "offered", ValidUntil: now.Add(24 * time.Hour),
	}))
	require.NoError(t, repo.MarkNotified(ctx, 4))

	subs, err := repo.FindExpiringUnnotified(ctx, window)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(1), subs[0].ID)
}

func TestMarkNotifiedExcludesFromNextScan(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		ID: 9, DisplayName: "eve", ValidUntil: time.Now().UTC().Add(6 * time.Hour),
	}))

	subs, err := repo.FindExpiringUnnotified(ctx, 48*time.Hour)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	require.NoError(t, repo.MarkNotified(ctx, 9))

	subs, err = repo.FindExpiringUnnotified(ctx, 48*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestMarkNotifiedUnknownSubscriber(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.MarkNotified(context.Background(), 123)
	assert.ErrorIs(t, err, domain.ErrSubscriberNotFound)
}

func TestCounters(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		ID: 1, DisplayName: "active", ValidUntil: now.Add(time.Hour),
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.Subscriber{
		ID: 2, DisplayName: "lapsed", ValidUntil: now.Add(-time.Hour),
	}))

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	active, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}
