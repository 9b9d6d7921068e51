package coordinator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"guestbook/internal/guest"
)

// DefaultDebounce is the quiet window a search burst must outlast before a
// query is actually executed.
const DefaultDebounce = 300 * time.Millisecond

// QueryService is the slice of the guest query service the list coordinator
// consumes.
type QueryService interface {
	GetAll(ctx context.Context) ([]guest.Guest, error)
	Search(ctx context.Context, query string) ([]guest.Guest, error)
	WithUpcomingVisits(ctx context.Context) ([]guest.Guest, error)
	WithAllergies(ctx context.Context) ([]guest.Guest, error)
	TopSpenders(ctx context.Context, limit int) ([]guest.Guest, error)
}

// GuestListCoordinator owns the list panel state machine. One mutex
// serializes every transition, so emissions are strictly ordered; the mutex
// is released across repository calls, so new events are accepted while an
// async load is still pending. Superseded search results are detected by a
// generation counter and dropped on arrival.
type GuestListCoordinator struct {
	svc      QueryService
	log      zerolog.Logger
	debounce time.Duration

	mu         sync.Mutex
	state      GuestListState
	all        []guest.Guest // authoritative cache; replaced only by Load/Refresh
	filter     *guest.Filter
	sortSpec   guest.SortSpec
	selectedID string
	query      string
	everLoaded bool
	searchGen  uint64
	timer      *time.Timer
	em         emitter[GuestListState]
}

func NewGuestList(svc QueryService, debounce time.Duration, log zerolog.Logger) *GuestListCoordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &GuestListCoordinator{
		svc:      svc,
		log:      log.With().Str("component", "guestlist").Logger(),
		debounce: debounce,
		state:    GuestListState{Kind: ListInitial},
		sortSpec: guest.DefaultSort(),
	}
}

// Subscribe returns an ordered stream of state snapshots.
func (c *GuestListCoordinator) Subscribe() <-chan GuestListState {
	return c.em.subscribe()
}

// Current returns the latest state snapshot.
func (c *GuestListCoordinator) Current() GuestListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close stops any pending debounce and closes all subscriber channels.
func (c *GuestListCoordinator) Close() {
	c.mu.Lock()
	c.searchGen++
	c.stopTimerLocked()
	c.mu.Unlock()
	c.em.close()
}

// Load fetches the full guest set. A no-op when already loaded and
// forceRefresh is false, or while another full load is resolving.
func (c *GuestListCoordinator) Load(ctx context.Context, forceRefresh bool) error {
	c.mu.Lock()
	if c.inFlightLocked() {
		c.mu.Unlock()
		return nil
	}
	if !forceRefresh && c.state.Kind == ListLoaded {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(GuestListState{Kind: ListLoading, Message: "Loading guests..."})
	c.mu.Unlock()

	guests, err := c.svc.GetAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.setStateLocked(c.errorStateLocked(err))
		return nil
	}
	c.commitCacheLocked(guests)
	c.setStateLocked(c.loadedLocked(c.visibleLocked()))
	return nil
}

// Refresh keeps the current content on screen while a forced reload runs.
// A no-op while another full load is already resolving, so at most one
// authoritative load commits into the cache at a time.
func (c *GuestListCoordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlightLocked() {
		c.mu.Unlock()
		return nil
	}
	var current []guest.Guest
	if c.state.Kind == ListLoaded {
		current = append(current, c.state.Guests...)
	}
	c.setStateLocked(GuestListState{Kind: ListRefreshing, Current: current})
	c.mu.Unlock()

	guests, err := c.svc.GetAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.setStateLocked(c.errorStateLocked(err))
		return nil
	}
	c.commitCacheLocked(guests)
	c.setStateLocked(c.loadedLocked(c.visibleLocked()))
	return nil
}

// Search schedules a debounced query. A blank query short-circuits to
// ClearSearch synchronously and never reaches the service. Rapid calls
// coalesce: only the last query in a burst executes, and any in-flight
// result issued under an older generation is dropped on arrival.
func (c *GuestListCoordinator) Search(ctx context.Context, query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(query) == "" {
		c.clearSearchLocked()
		return
	}
	c.searchGen++
	gen := c.searchGen
	if c.visibleQueryLocked() != query {
		c.setStateLocked(GuestListState{Kind: ListSearching, Query: query})
	}
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.debounce, func() {
		c.runSearch(ctx, query, gen)
	})
}

// ClearSearch synchronously restores the cached set, discarding any
// in-flight search.
func (c *GuestListCoordinator) ClearSearch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearSearchLocked()
}

// Select marks a guest from the currently visible list. Selecting an id
// that is not visible returns NotFoundError and changes nothing.
func (c *GuestListCoordinator) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != ListLoaded || !containsID(c.state.Guests, id) {
		return &guest.NotFoundError{ID: id}
	}
	c.selectedID = id
	snap := c.state
	snap.SelectedGuestID = id
	snap.LastUpdated = time.Now()
	c.setStateLocked(snap)
	return nil
}

// Deselect clears the selection. A no-op outside Loaded.
func (c *GuestListCoordinator) Deselect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != ListLoaded || c.selectedID == "" {
		return
	}
	c.selectedID = ""
	snap := c.state
	snap.SelectedGuestID = ""
	snap.LastUpdated = time.Now()
	c.setStateLocked(snap)
}

// SetFilter recomputes the visible list from the full cached set with the
// new filter and the current sort. Any active search is superseded; the
// selection survives even when the selected guest is filtered out of view.
func (c *GuestListCoordinator) SetFilter(f guest.Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != ListLoaded {
		return
	}
	if f.IsEmpty() {
		c.filter = nil
	} else {
		spec := f
		c.filter = &spec
	}
	c.searchGen++
	c.stopTimerLocked()
	c.query = ""
	c.setStateLocked(c.loadedLocked(c.visibleLocked()))
}

// ClearFilter drops the filter. When a search query is active the search is
// re-issued immediately (no debounce); otherwise the full cached set is
// shown with the current sort.
func (c *GuestListCoordinator) ClearFilter(ctx context.Context) {
	c.mu.Lock()
	c.filter = nil
	if c.query != "" {
		q := c.query
		c.searchGen++
		gen := c.searchGen
		c.stopTimerLocked()
		c.mu.Unlock()
		go c.runSearch(ctx, q, gen)
		return
	}
	if c.state.Kind == ListLoaded {
		c.setStateLocked(c.loadedLocked(c.visibleLocked()))
	}
	c.mu.Unlock()
}

// SortBy re-sorts the currently visible list in place. Sort composes with
// whatever search or filter produced that list; it does not re-derive from
// the cache.
func (c *GuestListCoordinator) SortBy(spec guest.SortSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != ListLoaded {
		return
	}
	c.sortSpec = spec
	visible := append([]guest.Guest(nil), c.state.Guests...)
	guest.SortGuests(visible, spec)
	snap := c.state
	snap.Guests = visible
	snap.Sort = spec
	snap.LastUpdated = time.Now()
	c.setStateLocked(snap)
}

// LoadWithUpcomingVisits shows only guests with booked visits.
func (c *GuestListCoordinator) LoadWithUpcomingVisits(ctx context.Context) error {
	return c.loadDerived(ctx, "Loading guests with upcoming visits...",
		c.svc.WithUpcomingVisits,
		&guest.Filter{HasUpcomingVisits: true}, guest.DefaultSort())
}

// LoadWithAllergies shows only guests with recorded allergies.
func (c *GuestListCoordinator) LoadWithAllergies(ctx context.Context) error {
	return c.loadDerived(ctx, "Loading guests with allergies...",
		c.svc.WithAllergies,
		&guest.Filter{HasAllergies: true}, guest.DefaultSort())
}

// LoadTopSpenders shows the top guests by lifetime spend. A non-positive
// limit fails with ValidationError before any state changes.
func (c *GuestListCoordinator) LoadTopSpenders(ctx context.Context, limit int) error {
	if limit <= 0 {
		return &guest.ValidationError{Field: "limit", Reason: "must be positive"}
	}
	return c.loadDerived(ctx, "Loading top spenders...",
		func(ctx context.Context) ([]guest.Guest, error) { return c.svc.TopSpenders(ctx, limit) },
		nil, guest.SortSpec{Field: guest.SortByLifetimeSpend, Ascending: false})
}

func (c *GuestListCoordinator) loadDerived(ctx context.Context, message string,
	fetch func(context.Context) ([]guest.Guest, error), f *guest.Filter, sort guest.SortSpec) error {
	c.mu.Lock()
	if c.inFlightLocked() {
		c.mu.Unlock()
		return nil
	}
	c.setStateLocked(GuestListState{Kind: ListLoading, Message: message})
	c.mu.Unlock()

	guests, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.setStateLocked(c.errorStateLocked(err))
		return nil
	}
	c.filter = f
	c.sortSpec = sort
	c.searchGen++
	c.stopTimerLocked()
	c.query = ""

	snap := c.loadedLocked(guests)
	snap.IsFiltered = true
	if !c.everLoaded {
		snap.TotalCount = len(guests)
	}
	c.setStateLocked(snap)
	return nil
}

// runSearch executes one debounced query. The generation captured at issue
// time must still be current both before the call and at commit; otherwise
// the result is stale and silently dropped.
func (c *GuestListCoordinator) runSearch(ctx context.Context, query string, gen uint64) {
	c.mu.Lock()
	if gen != c.searchGen {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	results, err := c.svc.Search(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.searchGen {
		c.log.Debug().Str("query", query).Msg("stale search result dropped")
		return
	}
	if err != nil {
		c.setStateLocked(c.errorStateLocked(err))
		return
	}
	c.query = query
	visible := results
	if c.filter != nil {
		visible = guest.ApplyFilter(results, *c.filter)
	}
	// Search results keep the service's relevance order; the current sort
	// spec is metadata only here.
	if c.selectedID != "" && !containsID(visible, c.selectedID) {
		c.selectedID = ""
	}
	snap := c.loadedLocked(visible)
	snap.IsFiltered = true
	c.setStateLocked(snap)
}

func (c *GuestListCoordinator) clearSearchLocked() {
	c.searchGen++
	c.stopTimerLocked()
	c.query = ""
	if c.state.Kind != ListLoaded {
		// Mid-search or error: fall back to the full cached set under the
		// default sort.
		c.filter = nil
		c.sortSpec = guest.DefaultSort()
	}
	c.setStateLocked(c.loadedLocked(c.visibleLocked()))
}

// commitCacheLocked replaces the authoritative set after a successful full
// load. The selection survives only if the guest still exists in the base
// set; search context is invalidated.
func (c *GuestListCoordinator) commitCacheLocked(guests []guest.Guest) {
	c.all = guests
	c.everLoaded = true
	c.searchGen++
	c.stopTimerLocked()
	c.query = ""
	if c.selectedID != "" && !containsID(c.all, c.selectedID) {
		c.selectedID = ""
	}
}

// visibleLocked derives the visible list from the cache: filter then sort.
func (c *GuestListCoordinator) visibleLocked() []guest.Guest {
	var visible []guest.Guest
	if c.filter != nil {
		visible = guest.ApplyFilter(c.all, *c.filter)
	} else {
		visible = append([]guest.Guest(nil), c.all...)
	}
	guest.SortGuests(visible, c.sortSpec)
	return visible
}

func (c *GuestListCoordinator) loadedLocked(visible []guest.Guest) GuestListState {
	snap := GuestListState{
		Kind:            ListLoaded,
		Guests:          visible,
		SelectedGuestID: c.selectedID,
		SearchQuery:     c.query,
		Sort:            c.sortSpec,
		IsFiltered:      c.query != "" || c.filter != nil,
		TotalCount:      len(c.all),
		LastUpdated:     time.Now(),
	}
	if c.filter != nil {
		f := *c.filter
		snap.Filter = &f
	}
	return snap
}

func (c *GuestListCoordinator) errorStateLocked(err error) GuestListState {
	snap := GuestListState{
		Kind:     ListError,
		Message:  err.Error(),
		CanRetry: !guest.IsValidation(err),
	}
	if c.everLoaded {
		snap.Previous = c.visibleLocked()
	}
	return snap
}

func (c *GuestListCoordinator) visibleQueryLocked() string {
	switch c.state.Kind {
	case ListSearching:
		return c.state.Query
	case ListLoaded:
		return c.state.SearchQuery
	default:
		return ""
	}
}

func (c *GuestListCoordinator) setStateLocked(s GuestListState) {
	c.state = s
	c.em.emit(s)
}

func (c *GuestListCoordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// inFlightLocked reports whether a load is currently resolving. Loading and
// Refreshing are only ever transient states between the request and its
// commit, so state kind doubles as the in-flight flag.
func (c *GuestListCoordinator) inFlightLocked() bool {
	return c.state.Kind == ListLoading || c.state.Kind == ListRefreshing
}

func containsID(guests []guest.Guest, id string) bool {
	for i := range guests {
		if guests[i].ID == id {
			return true
		}
	}
	return false
}
