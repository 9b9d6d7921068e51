package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"guestbook/internal/config"
	"guestbook/internal/coordinator"
	"guestbook/internal/guest"
	"guestbook/internal/service"
)

// pxPerCell approximates a terminal cell's width in the layout units the
// panel breakpoints and widths are configured in.
const pxPerCell = 8

// Coordinators groups the state machines the view subscribes to.
type Coordinators struct {
	List  *coordinator.GuestListCoordinator
	Panel *coordinator.PanelCoordinator
	Tabs  *coordinator.TabCoordinator
}

// StatsProvider supplies the collection aggregates shown in the header.
type StatsProvider interface {
	Statistics(ctx context.Context) (service.Stats, error)
}

type keyMap struct {
	Search   key.Binding
	Quit     key.Binding
	UpDown   key.Binding
	Select   key.Binding
	Deselect key.Binding
	Panel    key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	Refresh  key.Binding
	Filter   key.Binding
	Sort     key.Binding
	Retry    key.Binding
}

var keys = keyMap{
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	UpDown:   key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑/↓", "move")),
	Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Deselect: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "deselect")),
	Panel:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "toggle panel")),
	NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Filter:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle filter")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
	Retry:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "retry")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	activeTab     = lipgloss.NewStyle().Bold(true).Underline(true)
)

// App renders coordinator state and dispatches user intents back as
// coordinator operations. It never mutates the snapshots it holds.
type App struct {
	ctx    context.Context
	cfg    config.Config
	coords Coordinators

	listCh  <-chan coordinator.GuestListState
	panelCh <-chan coordinator.PanelState
	tabCh   <-chan coordinator.TabState

	list  coordinator.GuestListState
	panel coordinator.PanelState
	tabs  coordinator.TabState

	statsProvider StatsProvider
	stats         service.Stats
	statsLoaded   bool

	search      textinput.Model
	width       int
	height      int
	cursor      int
	filterCycle int
	sortCycle   int
	initialized bool
}

func New(ctx context.Context, cfg config.Config, coords Coordinators, stats StatsProvider) *App {
	ti := textinput.New()
	ti.Placeholder = "name or email"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	return &App{
		ctx:           ctx,
		cfg:           cfg,
		coords:        coords,
		statsProvider: stats,
		listCh:        coords.List.Subscribe(),
		panelCh:       coords.Panel.Subscribe(),
		tabCh:         coords.Tabs.Subscribe(),
		list:          coords.List.Current(),
		panel:         coords.Panel.Current(),
		tabs:          coords.Tabs.Current(),
		search:        ti,
	}
}

type listStateMsg coordinator.GuestListState

type panelStateMsg coordinator.PanelState

type tabStateMsg coordinator.TabState

type statsMsg struct {
	stats service.Stats
	err   error
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.waitList(), a.waitPanel(), a.waitTabs(),
		func() tea.Msg { a.coords.Tabs.Initialize(); return nil },
		func() tea.Msg { _ = a.coords.List.Load(a.ctx, false); return nil },
		a.loadStats(),
	)
}

func (a *App) loadStats() tea.Cmd {
	if a.statsProvider == nil {
		return nil
	}
	return func() tea.Msg {
		st, err := a.statsProvider.Statistics(a.ctx)
		return statsMsg{stats: st, err: err}
	}
}

func (a *App) waitList() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-a.listCh
		if !ok {
			return nil
		}
		return listStateMsg(s)
	}
}

func (a *App) waitPanel() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-a.panelCh
		if !ok {
			return nil
		}
		return panelStateMsg(s)
	}
}

func (a *App) waitTabs() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-a.tabCh
		if !ok {
			return nil
		}
		return tabStateMsg(s)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		if !a.initialized {
			a.initialized = true
			expand := coordinator.DefaultExpanded(float64(m.Width*pxPerCell), a.cfg.UI.CompactBreakpoint, a.cfg.UI.ExpandedBreakpoint)
			a.coords.Panel.Initialize(expand)
		}
	case listStateMsg:
		a.list = coordinator.GuestListState(m)
		if a.cursor >= len(a.list.Guests) {
			a.cursor = 0
		}
		return a, a.waitList()
	case panelStateMsg:
		a.panel = coordinator.PanelState(m)
		return a, a.waitPanel()
	case tabStateMsg:
		a.tabs = coordinator.TabState(m)
		return a, a.waitTabs()
	case statsMsg:
		if m.err == nil {
			a.stats = m.stats
			a.statsLoaded = true
		}
	case tea.KeyMsg:
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.search.Focused() {
		switch m.String() {
		case "esc":
			a.search.Blur()
			a.search.SetValue("")
			a.coords.List.ClearSearch()
			return a, nil
		case "enter":
			a.search.Blur()
			return a, nil
		}
		var cmd tea.Cmd
		a.search, cmd = a.search.Update(m)
		// Dispatch every keystroke; the coordinator owns the debounce.
		a.coords.List.Search(a.ctx, a.search.Value())
		return a, cmd
	}

	switch {
	case key.Matches(m, keys.Quit):
		return a, tea.Quit
	case key.Matches(m, keys.Search):
		a.search.Focus()
		return a, textinput.Blink
	case key.Matches(m, keys.UpDown):
		if m.String() == "up" || m.String() == "k" {
			if a.cursor > 0 {
				a.cursor--
			}
		} else if a.cursor < len(a.list.Guests)-1 {
			a.cursor++
		}
	case key.Matches(m, keys.Select):
		if a.cursor < len(a.list.Guests) {
			_ = a.coords.List.Select(a.list.Guests[a.cursor].ID)
		}
	case key.Matches(m, keys.Deselect):
		a.coords.List.Deselect()
	case key.Matches(m, keys.Panel):
		return a, func() tea.Msg { a.coords.Panel.Toggle(); return nil }
	case key.Matches(m, keys.NextTab):
		a.coords.Tabs.Next()
	case key.Matches(m, keys.PrevTab):
		a.coords.Tabs.Prev()
	case key.Matches(m, keys.Refresh):
		return a, tea.Batch(
			func() tea.Msg { _ = a.coords.List.Refresh(a.ctx); return nil },
			a.loadStats(),
		)
	case key.Matches(m, keys.Filter):
		return a, a.cycleFilter()
	case key.Matches(m, keys.Sort):
		a.cycleSort()
	case key.Matches(m, keys.Retry):
		if a.list.Kind == coordinator.ListError && a.list.CanRetry {
			return a, func() tea.Msg { _ = a.coords.List.Load(a.ctx, true); return nil }
		}
	}
	return a, nil
}

func (a *App) cycleFilter() tea.Cmd {
	a.filterCycle = (a.filterCycle + 1) % 3
	switch a.filterCycle {
	case 1:
		a.coords.List.SetFilter(guest.Filter{HasAllergies: true})
	case 2:
		a.coords.List.SetFilter(guest.Filter{HasUpcomingVisits: true})
	default:
		ctx := a.ctx
		return func() tea.Msg { a.coords.List.ClearFilter(ctx); return nil }
	}
	return nil
}

func (a *App) cycleSort() {
	fields := []guest.SortField{guest.SortByName, guest.SortByLastVisit, guest.SortByLifetimeSpend, guest.SortByTotalVisits}
	a.sortCycle = (a.sortCycle + 1) % len(fields)
	asc := fields[a.sortCycle] == guest.SortByName
	a.coords.List.SortBy(guest.SortSpec{Field: fields[a.sortCycle], Ascending: asc})
}

func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}
	listWidth := int(coordinator.WidthFor(a.panel, a.coords.Panel.ExpandedWidth()) / pxPerCell)
	detailWidth := a.width - listWidth - 6
	if detailWidth < 20 {
		detailWidth = 20
	}

	var cols []string
	if listWidth > 4 {
		cols = append(cols, panelStyle.Width(listWidth).Render(a.renderList(listWidth)))
	}
	cols = append(cols, panelStyle.Width(detailWidth).Render(a.renderDetail(detailWidth)))

	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	return lipgloss.JoinVertical(lipgloss.Left, a.renderHeader(), body, a.renderStatus())
}

func (a *App) renderHeader() string {
	parts := []string{titleStyle.Render("Guest Book"), "  ", a.search.View()}
	if a.statsLoaded {
		summary := fmt.Sprintf("%d active · $%.0f lifetime · $%.0f avg",
			a.stats.ActiveGuests, a.stats.TotalLifetimeSpend, a.stats.AverageLifetimeSpend)
		parts = append(parts, "  ", dimStyle.Render(summary))
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (a *App) renderList(width int) string {
	var b strings.Builder
	switch a.list.Kind {
	case coordinator.ListInitial, coordinator.ListLoading:
		msg := a.list.Message
		if msg == "" {
			msg = "Loading..."
		}
		return dimStyle.Render(msg)
	case coordinator.ListSearching:
		return dimStyle.Render("Searching for " + a.list.Query + "...")
	case coordinator.ListError:
		b.WriteString(errorStyle.Render(a.list.Message) + "\n")
		if a.list.CanRetry {
			b.WriteString(dimStyle.Render("[R] retry") + "\n")
		}
		for _, g := range a.list.Previous {
			b.WriteString(dimStyle.Render(truncate(g.Name, width-2)) + "\n")
		}
		return b.String()
	case coordinator.ListRefreshing:
		b.WriteString(dimStyle.Render("Refreshing...") + "\n")
		for _, g := range a.list.Current {
			b.WriteString(truncate(g.Name, width-2) + "\n")
		}
		return b.String()
	}

	header := fmt.Sprintf("%d of %d guests", len(a.list.Guests), a.list.TotalCount)
	if a.list.IsFiltered {
		header += " " + badgeStyle.Render("●filtered")
	}
	b.WriteString(dimStyle.Render(header) + "\n")
	for i, g := range a.list.Guests {
		prefix := "  "
		if i == a.cursor {
			prefix = cursorStyle.Render("> ")
		}
		line := truncate(g.Name, width-6)
		if len(g.Allergies) > 0 {
			line += badgeStyle.Render(" ⚠")
		}
		if g.ID == a.list.SelectedGuestID {
			line = selectedStyle.Render(line)
		}
		b.WriteString(prefix + line + "\n")
	}
	if len(a.list.Guests) == 0 {
		b.WriteString(dimStyle.Render("no guests match"))
	}
	return b.String()
}

func (a *App) renderDetail(width int) string {
	labels := a.coords.Tabs.Labels()
	var tabParts []string
	for i, label := range labels {
		if a.tabs.Kind == coordinator.TabSelected && a.tabs.Index == i {
			tabParts = append(tabParts, activeTab.Render(label))
		} else {
			tabParts = append(tabParts, dimStyle.Render(label))
		}
	}
	header := strings.Join(tabParts, "  ")

	sel := a.list.Selected()
	if sel == nil {
		return header + "\n\n" + dimStyle.Render("Select a guest to see details.")
	}

	var body string
	idx := 0
	if a.tabs.Kind == coordinator.TabSelected {
		idx = a.tabs.Index
	}
	switch idx {
	case 1:
		body = fmt.Sprintf("Total visits: %d\nUpcoming: %d\nCancelled: %d\nNo-shows: %d\nLast visit: %s",
			sel.TotalVisits, sel.UpcomingVisits, sel.CancelledVisits, sel.NoShows, dateLabel(sel.LastVisit))
	case 2:
		body = fmt.Sprintf("Allergies: %s\nTags: %s\nLoyalty points: %d",
			listLabel(sel.Allergies), listLabel(sel.Tags), sel.LoyaltyPoints)
	case 3:
		if len(sel.Notes) == 0 {
			body = dimStyle.Render("No notes.")
		} else {
			var lines []string
			for k, v := range sel.Notes {
				lines = append(lines, fmt.Sprintf("%s: %s", k, v))
			}
			body = strings.Join(lines, "\n")
		}
	default:
		body = fmt.Sprintf("%s\n%s\n%s\n\nCustomer since: %s\nLifetime spend: $%.2f\nAverage spend: $%.2f",
			titleStyle.Render(sel.Name), sel.Email, sel.Phone,
			dateLabel(sel.CustomerSince), sel.LifetimeSpend, sel.AverageSpend)
	}
	return header + "\n\n" + truncateLines(body, width)
}

func (a *App) renderStatus() string {
	parts := []string{
		"[/] search", "[f] filter", "[s] sort", "[p] panel", "[tab] tabs", "[r] refresh", "[q] quit",
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}

func dateLabel(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("02 Jan 2006")
}

func listLabel(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// truncate shortens s to max runes, never splitting a multibyte sequence.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return string(r[:1])
	}
	return string(r[:max-1]) + "…"
}

func truncateLines(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = truncate(l, width)
	}
	return strings.Join(lines, "\n")
}
