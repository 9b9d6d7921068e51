package coordinator

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Animation defaults: 20 discrete progress steps over 300ms. The step count
// is an implementation choice; monotonic progress ending exactly at 1.0 is
// the contract.
const (
	DefaultAnimationDuration = 300 * time.Millisecond
	DefaultAnimationSteps    = 20
)

// PanelCoordinator owns the master panel expand/collapse state machine.
// Transitions route through an Animating sequence with monotonically
// increasing progress. Requests arriving while an animation is running are
// ignored; the running animation reaches its terminal state in bounded time
// and the caller can re-issue.
type PanelCoordinator struct {
	expandedWidth float64
	duration      time.Duration
	steps         int
	log           zerolog.Logger

	mu    sync.Mutex
	state PanelState
	em    emitter[PanelState]
}

func NewPanel(expandedWidth float64, duration time.Duration, steps int, log zerolog.Logger) *PanelCoordinator {
	if duration <= 0 {
		duration = DefaultAnimationDuration
	}
	if steps <= 0 {
		steps = DefaultAnimationSteps
	}
	return &PanelCoordinator{
		expandedWidth: expandedWidth,
		duration:      duration,
		steps:         steps,
		log:           log.With().Str("component", "panel").Logger(),
		state:         PanelState{Kind: PanelInitial},
	}
}

// Subscribe returns an ordered stream of state snapshots.
func (c *PanelCoordinator) Subscribe() <-chan PanelState {
	return c.em.subscribe()
}

// Current returns the latest state snapshot.
func (c *PanelCoordinator) Current() PanelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close closes all subscriber channels.
func (c *PanelCoordinator) Close() { c.em.close() }

// ExpandedWidth returns the configured full panel width.
func (c *PanelCoordinator) ExpandedWidth() float64 { return c.expandedWidth }

// Width resolves the panel width for the current state.
func (c *PanelCoordinator) Width() float64 {
	return WidthFor(c.Current(), c.expandedWidth)
}

// Initialize settles the panel into its default state without animating.
// A no-op once initialized.
func (c *PanelCoordinator) Initialize(shouldExpand bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Kind != PanelInitial {
		return
	}
	if shouldExpand {
		c.setStateLocked(PanelState{Kind: PanelExpanded, Width: c.expandedWidth})
	} else {
		c.setStateLocked(PanelState{Kind: PanelCollapsed})
	}
}

// Expand animates the panel open. A no-op when already expanded or while
// any animation is running.
func (c *PanelCoordinator) Expand() { c.transition(true, c.duration) }

// Collapse animates the panel closed. A no-op when already collapsed or
// while any animation is running.
func (c *PanelCoordinator) Collapse() { c.transition(false, c.duration) }

// Toggle dispatches Collapse when expanded, Expand when collapsed. A no-op
// while animating.
func (c *PanelCoordinator) Toggle() {
	switch c.Current().Kind {
	case PanelExpanded:
		c.Collapse()
	case PanelCollapsed, PanelInitial:
		c.Expand()
	}
}

// SetState animates toward the requested logical state, optionally with a
// duration override. A redundant request - including one issued while
// already animating toward the same target - is ignored.
func (c *PanelCoordinator) SetState(isExpanded bool, duration ...time.Duration) {
	d := c.duration
	if len(duration) > 0 && duration[0] > 0 {
		d = duration[0]
	}
	c.transition(isExpanded, d)
}

func (c *PanelCoordinator) transition(toExpanded bool, duration time.Duration) {
	c.mu.Lock()
	switch c.state.Kind {
	case PanelAnimating:
		c.mu.Unlock()
		return
	case PanelExpanded:
		if toExpanded {
			c.mu.Unlock()
			return
		}
	case PanelCollapsed:
		if !toExpanded {
			c.mu.Unlock()
			return
		}
	}
	c.setStateLocked(PanelState{Kind: PanelAnimating, ToExpanded: toExpanded, Progress: 0, Duration: duration})
	c.mu.Unlock()

	go c.animate(toExpanded, duration)
}

// animate emits the progress sequence. Progress starts at 0 (already
// emitted by transition), increases strictly, and lands exactly on 1.0
// before the terminal state.
func (c *PanelCoordinator) animate(toExpanded bool, duration time.Duration) {
	step := duration / time.Duration(c.steps)
	for i := 1; i <= c.steps; i++ {
		time.Sleep(step)
		progress := float64(i) / float64(c.steps)
		c.mu.Lock()
		c.setStateLocked(PanelState{Kind: PanelAnimating, ToExpanded: toExpanded, Progress: progress, Duration: duration})
		c.mu.Unlock()
	}
	c.mu.Lock()
	if toExpanded {
		c.setStateLocked(PanelState{Kind: PanelExpanded, Width: c.expandedWidth})
	} else {
		c.setStateLocked(PanelState{Kind: PanelCollapsed})
	}
	c.mu.Unlock()
	c.log.Debug().Bool("expanded", toExpanded).Msg("panel animation settled")
}

func (c *PanelCoordinator) setStateLocked(s PanelState) {
	c.state = s
	c.em.emit(s)
}
