package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"guestbook/internal/guest"
	"guestbook/internal/repository"
)

func seededService(t *testing.T, guests ...guest.Guest) *QueryService {
	t.Helper()
	repo := repository.NewMemoryRepo(zerolog.Nop())
	ctx := context.Background()
	for _, g := range guests {
		require.NoError(t, repo.Add(ctx, g))
	}
	return &QueryService{Guests: repo}
}

func TestGetAllExcludesInactiveAndSortsByName(t *testing.T) {
	t.Parallel()
	svc := seededService(t,
		guest.Guest{ID: "1", Name: "charlie", IsActive: true},
		guest.Guest{ID: "2", Name: "Alice", IsActive: true},
		guest.Guest{ID: "3", Name: "Bob", IsActive: false},
	)
	got, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "Alice", got[0].Name)
	require.Equal(t, "charlie", got[1].Name)
}

func TestSearchBlankQueryFailsValidation(t *testing.T) {
	t.Parallel()
	svc := seededService(t)
	for _, q := range []string{"", "   ", "\t"} {
		_, err := svc.Search(context.Background(), q)
		require.True(t, guest.IsValidation(err), "query %q should fail validation", q)
	}
}

func TestSearchRanksNameMatchesBeforeEmailOnly(t *testing.T) {
	t.Parallel()
	svc := seededService(t,
		guest.Guest{ID: "1", Name: "Zed Martin", Email: "zed@example.com", IsActive: true},
		guest.Guest{ID: "2", Name: "Amelia Hart", Email: "amelia.martin@example.com", IsActive: true},
		guest.Guest{ID: "3", Name: "Bea Martinez", Email: "bea@example.com", IsActive: true},
	)
	got, err := svc.Search(context.Background(), "martin")
	require.NoError(t, err)
	require.Len(t, got, 3)
	// name matches first, alphabetical within the band; email-only match last
	require.Equal(t, "3", got[0].ID)
	require.Equal(t, "1", got[1].ID)
	require.Equal(t, "2", got[2].ID)
}

func TestSearchEqualNamesBreakTiesByEmailCloseness(t *testing.T) {
	t.Parallel()
	// insertion order would keep the long address first; the edit-distance
	// tiebreak surfaces the closer one
	svc := seededService(t,
		guest.Guest{ID: "1", Name: "Alex Chen", Email: "alexander.chen.catering@example.com", IsActive: true},
		guest.Guest{ID: "2", Name: "Alex Chen", Email: "alex@x.io", IsActive: true},
	)
	got, err := svc.Search(context.Background(), "alex")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "2", got[0].ID)
	require.Equal(t, "1", got[1].ID)
}

func TestSearchExcludesInactive(t *testing.T) {
	t.Parallel()
	svc := seededService(t,
		guest.Guest{ID: "1", Name: "Farid Haddad", Email: "farid@example.com", IsActive: false},
	)
	got, err := svc.Search(context.Background(), "farid")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGetByID(t *testing.T) {
	t.Parallel()
	svc := seededService(t,
		guest.Guest{ID: "1", Name: "Grace Li", IsActive: true},
		guest.Guest{ID: "2", Name: "Liam O'Shea", IsActive: false},
	)
	ctx := context.Background()

	got, err := svc.GetByID(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "Grace Li", got.Name)

	_, err = svc.GetByID(ctx, "2")
	require.True(t, guest.IsNotFound(err), "inactive guest reads as missing")

	_, err = svc.GetByID(ctx, "nope")
	require.True(t, guest.IsNotFound(err))
}

func TestDerivedQueriesApplyActiveRule(t *testing.T) {
	t.Parallel()
	svc := seededService(t,
		guest.Guest{ID: "1", Name: "b", UpcomingVisits: 2, Allergies: []string{"nuts"}, IsActive: true},
		guest.Guest{ID: "2", Name: "a", UpcomingVisits: 1, IsActive: true},
		guest.Guest{ID: "3", Name: "c", UpcomingVisits: 3, Allergies: []string{"dairy"}, IsActive: false},
	)
	ctx := context.Background()

	up, err := svc.WithUpcomingVisits(ctx)
	require.NoError(t, err)
	require.Len(t, up, 2)
	require.Equal(t, "a", up[0].Name, "name ascending")

	al, err := svc.WithAllergies(ctx)
	require.NoError(t, err)
	require.Len(t, al, 1)
	require.Equal(t, "1", al[0].ID)
}

func TestTopSpenders(t *testing.T) {
	t.Parallel()
	svc := seededService(t,
		guest.Guest{ID: "1", Name: "a", LifetimeSpend: 100, IsActive: true},
		guest.Guest{ID: "2", Name: "b", LifetimeSpend: 900, IsActive: true},
		guest.Guest{ID: "3", Name: "c", LifetimeSpend: 0, IsActive: true},
		guest.Guest{ID: "4", Name: "d", LifetimeSpend: 800, IsActive: false},
	)
	ctx := context.Background()

	_, err := svc.TopSpenders(ctx, 0)
	require.True(t, guest.IsValidation(err))
	_, err = svc.TopSpenders(ctx, -3)
	require.True(t, guest.IsValidation(err))

	got, err := svc.TopSpenders(ctx, 5)
	require.NoError(t, err)
	require.Len(t, got, 2, "zero spend and inactive guests excluded")
	require.Equal(t, "2", got[0].ID)
}

func TestTopSpendersActiveRuleAppliesBeforeLimit(t *testing.T) {
	t.Parallel()
	// an inactive big spender inside the limit band must not crowd out an
	// active guest
	svc := seededService(t,
		guest.Guest{ID: "1", Name: "a", LifetimeSpend: 900, IsActive: false},
		guest.Guest{ID: "2", Name: "b", LifetimeSpend: 100, IsActive: true},
	)
	got, err := svc.TopSpenders(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "2", got[0].ID)
}

func TestStatisticsAggregates(t *testing.T) {
	t.Parallel()
	svc := seededService(t,
		guest.Guest{ID: "1", Name: "a", LifetimeSpend: 100, IsActive: true},
		guest.Guest{ID: "2", Name: "b", LifetimeSpend: 300, IsActive: true},
	)
	st, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, st.ActiveGuests)
	require.Equal(t, 400.0, st.TotalLifetimeSpend)
	require.Equal(t, 200.0, st.AverageLifetimeSpend)
}

// faultyRepo fails a single aggregate to prove the composite is
// all-or-nothing.
type faultyRepo struct {
	*repository.MemoryRepo
}

func (f *faultyRepo) AverageLifetimeSpend(ctx context.Context) (float64, error) {
	return 0, errors.New("aggregate backend down")
}

func TestStatisticsPartialFailureFailsWhole(t *testing.T) {
	t.Parallel()
	repo := repository.NewMemoryRepo(zerolog.Nop())
	require.NoError(t, repo.Add(context.Background(), guest.Guest{ID: "1", Name: "a", LifetimeSpend: 50, IsActive: true}))
	svc := &QueryService{Guests: &faultyRepo{MemoryRepo: repo}}

	st, err := svc.Statistics(context.Background())
	require.Error(t, err)
	var dse *guest.DataSourceError
	require.ErrorAs(t, err, &dse)
	require.Zero(t, st, "no partial data on failure")
}
