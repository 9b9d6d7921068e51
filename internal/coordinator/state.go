package coordinator

import (
	"time"

	"guestbook/internal/guest"
)

// ListKind discriminates GuestListState variants.
type ListKind string

const (
	ListInitial    ListKind = "initial"
	ListLoading    ListKind = "loading"
	ListLoaded     ListKind = "loaded"
	ListSearching  ListKind = "searching"
	ListRefreshing ListKind = "refreshing"
	ListError      ListKind = "error"
)

// GuestListState is the list coordinator's externally visible state. Kind
// selects the variant; only that variant's fields are meaningful. Snapshots
// are immutable once emitted.
type GuestListState struct {
	Kind ListKind

	// Loading / Error
	Message string

	// Loaded
	Guests          []guest.Guest
	SelectedGuestID string
	SearchQuery     string
	Filter          *guest.Filter
	Sort            guest.SortSpec
	IsFiltered      bool
	TotalCount      int
	LastUpdated     time.Time

	// Searching
	Query string

	// Refreshing / Error fallback content
	Current  []guest.Guest
	CanRetry bool
	Previous []guest.Guest
}

// Selected returns the selected guest from the visible list, if any.
func (s GuestListState) Selected() *guest.Guest {
	if s.Kind != ListLoaded || s.SelectedGuestID == "" {
		return nil
	}
	for i := range s.Guests {
		if s.Guests[i].ID == s.SelectedGuestID {
			g := s.Guests[i]
			return &g
		}
	}
	return nil
}

// PanelKind discriminates PanelState variants.
type PanelKind string

const (
	PanelInitial   PanelKind = "initial"
	PanelExpanded  PanelKind = "expanded"
	PanelCollapsed PanelKind = "collapsed"
	PanelAnimating PanelKind = "animating"
)

// PanelState is the master-panel visibility state. Animating is always
// transient and terminates in the state matching ToExpanded.
type PanelState struct {
	Kind PanelKind

	// Expanded
	Width float64

	// Animating
	ToExpanded bool
	Progress   float64
	Duration   time.Duration
}

// WidthFor resolves the master panel width for any state. This is the pure
// contract the view layer samples every frame.
func WidthFor(s PanelState, expandedWidth float64) float64 {
	switch s.Kind {
	case PanelExpanded:
		return expandedWidth
	case PanelAnimating:
		if s.ToExpanded {
			return expandedWidth * s.Progress
		}
		return expandedWidth * (1 - s.Progress)
	default:
		return 0
	}
}

// DefaultExpanded is the default-expand policy: screens narrower than the
// smaller of the two breakpoints start collapsed, everything else starts
// expanded. Taking the minimum keeps the split correct when a config file
// swaps the breakpoint values.
func DefaultExpanded(screenWidth, compactBreakpoint, expandedBreakpoint float64) bool {
	threshold := compactBreakpoint
	if expandedBreakpoint < threshold {
		threshold = expandedBreakpoint
	}
	return screenWidth >= threshold
}

// TabKind discriminates TabState variants.
type TabKind string

const (
	TabInitial  TabKind = "initial"
	TabSelected TabKind = "selected"
)

// TabState is the detail-panel tab strip state.
type TabState struct {
	Kind  TabKind
	Index int
}
