package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"guestbook/internal/guest"
)

func newTestRepo(t *testing.T) *MemoryRepo {
	t.Helper()
	return NewMemoryRepo(zerolog.Nop())
}

func TestAddGetUpdateDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)

	g := guest.Guest{ID: "g1", Name: "Amelia Hart", Email: "amelia@example.com", IsActive: true}
	require.NoError(t, repo.Add(ctx, g))
	require.Error(t, repo.Add(ctx, g), "duplicate id must be rejected")

	got, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Amelia Hart", got.Name)

	got.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, *got))
	again, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, "Renamed", again.Name)

	require.NoError(t, repo.Delete(ctx, "g1"))
	gone, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	require.Nil(t, gone)

	require.Error(t, repo.Delete(ctx, "g1"))
	require.Error(t, repo.Update(ctx, g))
}

func TestGetByIDAbsentReturnsNil(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	got, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSearchSubstringNameAndEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "1", Name: "Grace Li", Email: "grace.li@example.com", IsActive: true}))
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "2", Name: "Ben Okafor", Email: "ben@gracehotel.com", IsActive: true}))
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "3", Name: "Mara Petrova", Email: "mara@example.com", IsActive: true}))

	got, err := repo.Search(ctx, "GRACE")
	require.NoError(t, err)
	require.Len(t, got, 2, "matches name of one, email domain of another")

	got, err = repo.Search(ctx, "petrova")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "3", got[0].ID)
}

func TestTopSpendingOrdersBySpend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "1", Name: "a", LifetimeSpend: 100, IsActive: true}))
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "2", Name: "b", LifetimeSpend: 900, IsActive: true}))
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "3", Name: "c", LifetimeSpend: 0, IsActive: true}))
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "4", Name: "d", LifetimeSpend: 500, IsActive: true}))

	got, err := repo.TopSpending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3, "zero spend excluded, nothing truncated here")
	require.Equal(t, "2", got[0].ID)
	require.Equal(t, "4", got[1].ID)
	require.Equal(t, "1", got[2].ID)
}

func TestAggregatesCountActiveOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "1", Name: "a", LifetimeSpend: 100, IsActive: true}))
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "2", Name: "b", LifetimeSpend: 300, IsActive: true}))
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "3", Name: "c", LifetimeSpend: 999, IsActive: false}))

	n, err := repo.CountActive(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	total, err := repo.TotalLifetimeSpend(ctx)
	require.NoError(t, err)
	require.Equal(t, 400.0, total)

	avg, err := repo.AverageLifetimeSpend(ctx)
	require.NoError(t, err)
	require.Equal(t, 200.0, avg)
}

func TestAverageLifetimeSpendEmpty(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	avg, err := repo.AverageLifetimeSpend(context.Background())
	require.NoError(t, err)
	require.Zero(t, avg)
}

func TestContextCancellationPropagates(t *testing.T) {
	t.Parallel()
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.GetAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadsDoNotAliasStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Add(ctx, guest.Guest{ID: "1", Name: "Keiko", IsActive: true, Allergies: []string{"sesame"}}))

	got, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	got.Allergies[0] = "mutated"

	again, err := repo.GetByID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "sesame", again.Allergies[0])
}

func TestSeedDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, SeedDefaults(ctx, repo, 0))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(seedRows))

	inactive := 0
	for _, g := range all {
		require.NotEmpty(t, g.ID)
		require.NotEmpty(t, g.Name)
		if !g.IsActive {
			inactive++
		}
		if g.TotalVisits > 0 && g.LifetimeSpend > 0 {
			require.InDelta(t, g.LifetimeSpend/float64(g.TotalVisits), g.AverageSpend, 0.001)
		}
	}
	require.Positive(t, inactive, "seed set includes soft-deleted guests")
}

func TestSeedDefaultsGeneratesExtras(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, SeedDefaults(ctx, repo, len(seedRows)+5))
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(seedRows)+5)
}

func TestSeededDatesAreRelative(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, SeedDefaults(ctx, repo, 4))
	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	for _, g := range all {
		if g.LastVisit != nil {
			require.True(t, g.LastVisit.Before(time.Now().Add(time.Minute)))
		}
	}
}
