package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"guestbook/internal/guest"
)

// MemoryRepo is the authoritative in-memory guest collection. All methods
// are safe for concurrent use; reads hand out copies so callers never alias
// the stored slice.
type MemoryRepo struct {
	mu     sync.RWMutex
	guests []guest.Guest
	log    zerolog.Logger
}

func NewMemoryRepo(log zerolog.Logger) *MemoryRepo {
	return &MemoryRepo{log: log.With().Str("component", "repository").Logger()}
}

// GetAll returns every guest, active or not.
func (r *MemoryRepo) GetAll(ctx context.Context) ([]guest.Guest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]guest.Guest, len(r.guests))
	copy(out, r.guests)
	return out, nil
}

// GetByID returns the guest or nil when absent.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (*guest.Guest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.guests {
		if r.guests[i].ID == id {
			g := r.guests[i].Clone()
			return &g, nil
		}
	}
	return nil, nil
}

// Search matches the query as a case-insensitive substring of name or email.
func (r *MemoryRepo) Search(ctx context.Context, query string) ([]guest.Guest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []guest.Guest
	for _, g := range r.guests {
		if strings.Contains(strings.ToLower(g.Name), q) || strings.Contains(strings.ToLower(g.Email), q) {
			out = append(out, g)
		}
	}
	return out, nil
}

// Add inserts a new guest. The id must be unique.
func (r *MemoryRepo) Add(ctx context.Context, g guest.Guest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.guests {
		if r.guests[i].ID == g.ID {
			return &guest.ValidationError{Field: "id", Reason: "already exists"}
		}
	}
	r.guests = append(r.guests, g.Clone())
	r.log.Debug().Str("id", g.ID).Msg("guest added")
	return nil
}

// Update replaces the stored record wholesale. Last write wins.
func (r *MemoryRepo) Update(ctx context.Context, g guest.Guest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.guests {
		if r.guests[i].ID == g.ID {
			r.guests[i] = g.Clone()
			return nil
		}
	}
	return &guest.NotFoundError{ID: g.ID}
}

// Delete removes the guest entirely.
func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.guests {
		if r.guests[i].ID == id {
			r.guests = append(r.guests[:i], r.guests[i+1:]...)
			return nil
		}
	}
	return &guest.NotFoundError{ID: id}
}

// WithUpcomingVisits returns guests with at least one upcoming visit.
func (r *MemoryRepo) WithUpcomingVisits(ctx context.Context) ([]guest.Guest, error) {
	return r.matching(ctx, func(g guest.Guest) bool { return g.UpcomingVisits > 0 })
}

// WithAllergies returns guests with at least one recorded allergy.
func (r *MemoryRepo) WithAllergies(ctx context.Context) ([]guest.Guest, error) {
	return r.matching(ctx, func(g guest.Guest) bool { return len(g.Allergies) > 0 })
}

// TopSpending returns every guest with positive lifetime spend ordered by
// spend descending. Truncation is left to the caller, which may still need
// to drop rows before applying a limit.
func (r *MemoryRepo) TopSpending(ctx context.Context) ([]guest.Guest, error) {
	out, err := r.matching(ctx, func(g guest.Guest) bool { return g.LifetimeSpend > 0 })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LifetimeSpend > out[j].LifetimeSpend })
	return out, nil
}

// CountActive returns the number of active guests.
func (r *MemoryRepo) CountActive(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, g := range r.guests {
		if g.IsActive {
			n++
		}
	}
	return n, nil
}

// TotalLifetimeSpend sums lifetime spend across active guests.
func (r *MemoryRepo) TotalLifetimeSpend(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total float64
	for _, g := range r.guests {
		if g.IsActive {
			total += g.LifetimeSpend
		}
	}
	return total, nil
}

// AverageLifetimeSpend averages lifetime spend across active guests.
func (r *MemoryRepo) AverageLifetimeSpend(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total float64
	n := 0
	for _, g := range r.guests {
		if g.IsActive {
			total += g.LifetimeSpend
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}

func (r *MemoryRepo) matching(ctx context.Context, keep func(guest.Guest) bool) ([]guest.Guest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []guest.Guest
	for _, g := range r.guests {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out, nil
}
