package guest

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestFilterIsEmpty(t *testing.T) {
	if !(Filter{}).IsEmpty() {
		t.Fatalf("zero filter should be empty")
	}
	cases := []Filter{
		{HasAllergies: true},
		{HasUpcomingVisits: true},
		{Tags: []string{"vip"}},
		{VisitedAfter: date(2026, 1, 1)},
		{VisitedBefore: date(2026, 1, 1)},
	}
	for i, f := range cases {
		if f.IsEmpty() {
			t.Fatalf("case %d: filter with predicate should not be empty", i)
		}
	}
}

func TestFilterMatches(t *testing.T) {
	g := Guest{
		Name:           "Amelia",
		UpcomingVisits: 1,
		Allergies:      []string{"peanuts"},
		Tags:           []string{"VIP"},
		LastVisit:      date(2026, 6, 10),
	}
	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty matches", Filter{}, true},
		{"allergies", Filter{HasAllergies: true}, true},
		{"upcoming", Filter{HasUpcomingVisits: true}, true},
		{"tag case-insensitive", Filter{Tags: []string{"vip"}}, true},
		{"tag any-of", Filter{Tags: []string{"regular", "vip"}}, true},
		{"tag miss", Filter{Tags: []string{"regular"}}, false},
		{"after ok", Filter{VisitedAfter: date(2026, 6, 1)}, true},
		{"after miss", Filter{VisitedAfter: date(2026, 7, 1)}, false},
		{"before ok", Filter{VisitedBefore: date(2026, 7, 1)}, true},
		{"before miss", Filter{VisitedBefore: date(2026, 6, 1)}, false},
	}
	for _, tc := range cases {
		if got := tc.f.Matches(g); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestFilterDateRangeRequiresVisit(t *testing.T) {
	g := Guest{Name: "Hugo"}
	if (Filter{VisitedAfter: date(2020, 1, 1)}).Matches(g) {
		t.Fatalf("guest without a last visit should not match a date range")
	}
}

func TestApplyFilterPreservesOrderAndCopies(t *testing.T) {
	guests := []Guest{
		{ID: "1", Name: "b", Allergies: []string{"x"}},
		{ID: "2", Name: "a"},
		{ID: "3", Name: "c", Allergies: []string{"y"}},
	}
	got := ApplyFilter(guests, Filter{HasAllergies: true})
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	all := ApplyFilter(guests, Filter{})
	all[0].Name = "mutated"
	if guests[0].Name == "mutated" {
		t.Fatalf("ApplyFilter must not alias the input slice")
	}
}

func TestSortGuestsNameCaseInsensitive(t *testing.T) {
	guests := []Guest{{Name: "charlie"}, {Name: "Alice"}, {Name: "bob"}}
	SortGuests(guests, SortSpec{Field: SortByName, Ascending: true})
	want := []string{"Alice", "bob", "charlie"}
	for i, w := range want {
		if guests[i].Name != w {
			t.Fatalf("position %d: got %s want %s", i, guests[i].Name, w)
		}
	}
}

func TestSortGuestsMissingDateSortsFirstAscending(t *testing.T) {
	guests := []Guest{
		{Name: "visited", LastVisit: date(2026, 3, 1)},
		{Name: "never"},
	}
	SortGuests(guests, SortSpec{Field: SortByLastVisit, Ascending: true})
	if guests[0].Name != "never" {
		t.Fatalf("missing date should sort first ascending, got %s", guests[0].Name)
	}
	SortGuests(guests, SortSpec{Field: SortByLastVisit, Ascending: false})
	if guests[0].Name != "visited" {
		t.Fatalf("missing date should sort last descending, got %s", guests[0].Name)
	}
}

func TestSortGuestsSpendDescending(t *testing.T) {
	guests := []Guest{{Name: "low", LifetimeSpend: 10}, {Name: "high", LifetimeSpend: 500}}
	SortGuests(guests, SortSpec{Field: SortByLifetimeSpend, Ascending: false})
	if guests[0].Name != "high" {
		t.Fatalf("expected high spender first")
	}
}

func TestSortGuestsStable(t *testing.T) {
	guests := []Guest{
		{ID: "1", Name: "Same", TotalVisits: 5},
		{ID: "2", Name: "same", TotalVisits: 5},
		{ID: "3", Name: "SAME", TotalVisits: 5},
	}
	SortGuests(guests, SortSpec{Field: SortByTotalVisits, Ascending: true})
	if guests[0].ID != "1" || guests[1].ID != "2" || guests[2].ID != "3" {
		t.Fatalf("equal keys must keep input order: %v %v %v", guests[0].ID, guests[1].ID, guests[2].ID)
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := Guest{
		Allergies: []string{"peanuts"},
		Tags:      []string{"vip"},
		Notes:     map[string]string{"seating": "window"},
	}
	c := g.Clone()
	c.Allergies[0] = "none"
	c.Notes["seating"] = "bar"
	if g.Allergies[0] != "peanuts" || g.Notes["seating"] != "window" {
		t.Fatalf("Clone must not alias slices or maps")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = &ValidationError{Field: "query", Reason: "blank"}
	if !IsValidation(err) || IsNotFound(err) {
		t.Fatalf("validation error misclassified")
	}
	err = &NotFoundError{ID: "g1"}
	if !IsNotFound(err) || IsValidation(err) {
		t.Fatalf("not-found error misclassified")
	}
	wrapped := &DataSourceError{Op: "getAll", Err: &NotFoundError{ID: "g2"}}
	if !IsNotFound(wrapped) {
		t.Fatalf("DataSourceError should unwrap")
	}
}
