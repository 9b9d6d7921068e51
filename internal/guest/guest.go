package guest

import (
	"strings"
	"time"
)

// Guest represents a guest record. Values are immutable once handed out;
// mutation is whole-object replace-by-copy through the repository.
type Guest struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	IsActive bool

	TotalVisits     int
	UpcomingVisits  int
	CancelledVisits int
	NoShows         int
	LifetimeSpend   float64
	AverageSpend    float64
	TotalOrders     int
	AverageTip      float64
	LoyaltyPoints   int
	LoyaltyTier     int

	Allergies []string
	Tags      []string
	Notes     map[string]string

	LastVisit     *time.Time
	CustomerSince *time.Time
	Birthday      *time.Time
	Anniversary   *time.Time

	AvatarURL string
}

// Clone returns a deep copy so callers can build a replacement record
// without aliasing the stored slices and maps.
func (g Guest) Clone() Guest {
	out := g
	out.Allergies = append([]string(nil), g.Allergies...)
	out.Tags = append([]string(nil), g.Tags...)
	if g.Notes != nil {
		out.Notes = make(map[string]string, len(g.Notes))
		for k, v := range g.Notes {
			out.Notes[k] = v
		}
	}
	return out
}

// HasTag reports whether the guest carries the given tag, case-insensitively.
func (g Guest) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Filter narrows a guest list. The zero value matches everything.
type Filter struct {
	HasAllergies      bool
	HasUpcomingVisits bool
	Tags              []string // match any
	VisitedAfter      *time.Time
	VisitedBefore     *time.Time
}

// IsEmpty reports whether no predicate is set.
func (f Filter) IsEmpty() bool {
	return !f.HasAllergies && !f.HasUpcomingVisits && len(f.Tags) == 0 &&
		f.VisitedAfter == nil && f.VisitedBefore == nil
}

// Matches reports whether the guest passes every set predicate.
func (f Filter) Matches(g Guest) bool {
	if f.HasAllergies && len(g.Allergies) == 0 {
		return false
	}
	if f.HasUpcomingVisits && g.UpcomingVisits == 0 {
		return false
	}
	if len(f.Tags) > 0 {
		any := false
		for _, t := range f.Tags {
			if g.HasTag(t) {
				any = true
				break
			}
		}
		if !any {
			return false
		}
	}
	if f.VisitedAfter != nil {
		if g.LastVisit == nil || g.LastVisit.Before(*f.VisitedAfter) {
			return false
		}
	}
	if f.VisitedBefore != nil {
		if g.LastVisit == nil || g.LastVisit.After(*f.VisitedBefore) {
			return false
		}
	}
	return true
}

// ApplyFilter returns the subset of guests matching f, preserving order.
func ApplyFilter(guests []Guest, f Filter) []Guest {
	if f.IsEmpty() {
		out := make([]Guest, len(guests))
		copy(out, guests)
		return out
	}
	out := make([]Guest, 0, len(guests))
	for _, g := range guests {
		if f.Matches(g) {
			out = append(out, g)
		}
	}
	return out
}
