package guest

import (
	"sort"
	"strings"
	"time"
)

// SortField selects the guest attribute a sort runs over.
type SortField string

const (
	SortByName          SortField = "name"
	SortByEmail         SortField = "email"
	SortByLastVisit     SortField = "lastVisit"
	SortByTotalVisits   SortField = "totalVisits"
	SortByLifetimeSpend SortField = "lifetimeSpend"
	SortByCustomerSince SortField = "customerSince"
	SortByUpcoming      SortField = "upcomingVisits"
)

// SortSpec pairs a field with a direction.
type SortSpec struct {
	Field     SortField
	Ascending bool
}

// DefaultSort is case-insensitive name ascending.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortByName, Ascending: true}
}

// SortGuests stable-sorts guests in place by spec. String fields compare
// case-insensitively; a missing date sorts as the sentinel minimum, so
// guests without the field come first in ascending order.
func SortGuests(guests []Guest, spec SortSpec) {
	sort.SliceStable(guests, func(i, j int) bool {
		if !spec.Ascending {
			i, j = j, i
		}
		var less bool
		switch spec.Field {
		case SortByEmail:
			less = strings.ToLower(guests[i].Email) < strings.ToLower(guests[j].Email)
		case SortByLastVisit:
			less = dateKey(guests[i].LastVisit).Before(dateKey(guests[j].LastVisit))
		case SortByTotalVisits:
			less = guests[i].TotalVisits < guests[j].TotalVisits
		case SortByLifetimeSpend:
			less = guests[i].LifetimeSpend < guests[j].LifetimeSpend
		case SortByCustomerSince:
			less = dateKey(guests[i].CustomerSince).Before(dateKey(guests[j].CustomerSince))
		case SortByUpcoming:
			less = guests[i].UpcomingVisits < guests[j].UpcomingVisits
		default:
			less = strings.ToLower(guests[i].Name) < strings.ToLower(guests[j].Name)
		}
		return less
	})
}

func dateKey(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
