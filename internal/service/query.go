package service

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/sync/errgroup"

	"guestbook/internal/guest"
)

// Repository is the guest data source the query service runs over.
type Repository interface {
	GetAll(ctx context.Context) ([]guest.Guest, error)
	GetByID(ctx context.Context, id string) (*guest.Guest, error)
	Search(ctx context.Context, query string) ([]guest.Guest, error)
	WithUpcomingVisits(ctx context.Context) ([]guest.Guest, error)
	WithAllergies(ctx context.Context) ([]guest.Guest, error)
	TopSpending(ctx context.Context) ([]guest.Guest, error)
	CountActive(ctx context.Context) (int, error)
	TotalLifetimeSpend(ctx context.Context) (float64, error)
	AverageLifetimeSpend(ctx context.Context) (float64, error)
}

// QueryService applies the business rules the raw repository does not know
// about: inactive guests are never returned, search results are ordered by
// relevance, and inputs are validated before they reach the repository.
type QueryService struct {
	Guests Repository
}

// GetAll returns all active guests sorted by name.
func (s *QueryService) GetAll(ctx context.Context) ([]guest.Guest, error) {
	all, err := s.Guests.GetAll(ctx)
	if err != nil {
		return nil, &guest.DataSourceError{Op: "getAll", Err: err}
	}
	out := activeOnly(all)
	guest.SortGuests(out, guest.DefaultSort())
	return out, nil
}

// Search returns active guests matching the query, name matches ranked
// before email-only matches, ties broken by case-insensitive name and then
// by edit distance to the query.
func (s *QueryService) Search(ctx context.Context, query string) ([]guest.Guest, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, &guest.ValidationError{Field: "query", Reason: "must not be blank"}
	}
	matches, err := s.Guests.Search(ctx, q)
	if err != nil {
		return nil, &guest.DataSourceError{Op: "search", Err: err}
	}
	out := activeOnly(matches)
	rankSearchResults(out, q)
	return out, nil
}

// GetByID returns the active guest with the given id.
func (s *QueryService) GetByID(ctx context.Context, id string) (*guest.Guest, error) {
	g, err := s.Guests.GetByID(ctx, id)
	if err != nil {
		return nil, &guest.DataSourceError{Op: "getById", Err: err}
	}
	if g == nil || !g.IsActive {
		return nil, &guest.NotFoundError{ID: id}
	}
	return g, nil
}

// WithUpcomingVisits returns active guests with booked visits, by name.
func (s *QueryService) WithUpcomingVisits(ctx context.Context) ([]guest.Guest, error) {
	matches, err := s.Guests.WithUpcomingVisits(ctx)
	if err != nil {
		return nil, &guest.DataSourceError{Op: "withUpcomingVisits", Err: err}
	}
	out := activeOnly(matches)
	guest.SortGuests(out, guest.DefaultSort())
	return out, nil
}

// WithAllergies returns active guests with recorded allergies, by name.
func (s *QueryService) WithAllergies(ctx context.Context) ([]guest.Guest, error) {
	matches, err := s.Guests.WithAllergies(ctx)
	if err != nil {
		return nil, &guest.DataSourceError{Op: "withAllergies", Err: err}
	}
	out := activeOnly(matches)
	guest.SortGuests(out, guest.DefaultSort())
	return out, nil
}

// TopSpenders returns up to limit active guests by lifetime spend
// descending. Guests with zero lifetime spend are excluded. The active rule
// applies before the limit, so an inactive big spender never crowds an
// active guest out of the band.
func (s *QueryService) TopSpenders(ctx context.Context, limit int) ([]guest.Guest, error) {
	if limit <= 0 {
		return nil, &guest.ValidationError{Field: "limit", Reason: "must be positive"}
	}
	matches, err := s.Guests.TopSpending(ctx)
	if err != nil {
		return nil, &guest.DataSourceError{Op: "topSpending", Err: err}
	}
	out := activeOnly(matches)
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Stats aggregates collection-level numbers for the dashboard header.
type Stats struct {
	ActiveGuests         int
	TotalLifetimeSpend   float64
	AverageLifetimeSpend float64
}

// Statistics fans the three aggregate queries out concurrently. Any single
// failure fails the whole composite; partial data is never returned.
func (s *QueryService) Statistics(ctx context.Context) (Stats, error) {
	var st Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.Guests.CountActive(ctx)
		st.ActiveGuests = n
		return err
	})
	g.Go(func() error {
		total, err := s.Guests.TotalLifetimeSpend(ctx)
		st.TotalLifetimeSpend = total
		return err
	})
	g.Go(func() error {
		avg, err := s.Guests.AverageLifetimeSpend(ctx)
		st.AverageLifetimeSpend = avg
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, &guest.DataSourceError{Op: "statistics", Err: err}
	}
	return st, nil
}

func activeOnly(guests []guest.Guest) []guest.Guest {
	out := make([]guest.Guest, 0, len(guests))
	for _, g := range guests {
		if g.IsActive {
			out = append(out, g)
		}
	}
	return out
}

// rankSearchResults orders name-substring matches ahead of email-only
// matches, ties broken by case-insensitive name. Guests sharing a name
// order by edit distance of their email to the query, so the closer
// address surfaces first instead of falling back to insertion order.
func rankSearchResults(guests []guest.Guest, query string) {
	q := strings.ToLower(query)
	band := func(g guest.Guest) int {
		if strings.Contains(strings.ToLower(g.Name), q) {
			return 0
		}
		return 1
	}
	sort.SliceStable(guests, func(i, j int) bool {
		bi, bj := band(guests[i]), band(guests[j])
		if bi != bj {
			return bi < bj
		}
		ni, nj := strings.ToLower(guests[i].Name), strings.ToLower(guests[j].Name)
		if ni != nj {
			return ni < nj
		}
		di := levenshtein.ComputeDistance(strings.ToLower(guests[i].Email), q)
		dj := levenshtein.ComputeDistance(strings.ToLower(guests[j].Email), q)
		return di < dj
	})
}
