package coordinator

import "sync"

// TabCoordinator owns the detail-panel tab strip selection. It shares the
// same event-in/state-out contract as the other coordinators.
type TabCoordinator struct {
	labels []string

	mu    sync.Mutex
	state TabState
	em    emitter[TabState]
}

func NewTabs(labels []string) *TabCoordinator {
	return &TabCoordinator{labels: labels, state: TabState{Kind: TabInitial}}
}

// Subscribe returns an ordered stream of state snapshots.
func (c *TabCoordinator) Subscribe() <-chan TabState {
	return c.em.subscribe()
}

// Current returns the latest state snapshot.
func (c *TabCoordinator) Current() TabState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close closes all subscriber channels.
func (c *TabCoordinator) Close() { c.em.close() }

// Labels returns the fixed ordered tab labels.
func (c *TabCoordinator) Labels() []string {
	return append([]string(nil), c.labels...)
}

// Initialize selects the first tab.
func (c *TabCoordinator) Initialize() {
	c.Select(0)
}

// Select emits Selected for the given index unconditionally. Out-of-range
// indices are clamped into the label range.
func (c *TabCoordinator) Select(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if n := len(c.labels); n > 0 && index >= n {
		index = n - 1
	}
	c.state = TabState{Kind: TabSelected, Index: index}
	c.em.emit(c.state)
}

// Next advances to the following tab, wrapping at the end.
func (c *TabCoordinator) Next() {
	c.step(1)
}

// Prev moves to the preceding tab, wrapping at the start.
func (c *TabCoordinator) Prev() {
	c.step(-1)
}

func (c *TabCoordinator) step(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.labels) == 0 {
		return
	}
	idx := 0
	if c.state.Kind == TabSelected {
		idx = (c.state.Index + delta + len(c.labels)) % len(c.labels)
	}
	c.state = TabState{Kind: TabSelected, Index: idx}
	c.em.emit(c.state)
}
