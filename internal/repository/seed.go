package repository

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"guestbook/internal/guest"
)

type seedRow struct {
	name, email, phone string
	active             bool
	visits, upcoming   int
	spend              float64
	allergies          []string
	tags               []string
	daysSinceVisit     int // -1 means never visited
	yearsSince         int
}

var seedRows = []seedRow{
	{"Amelia Hart", "amelia.hart@example.com", "0401 220 318", true, 24, 2, 3120.50, []string{"peanuts"}, []string{"vip", "regular"}, 4, 3},
	{"Ben Okafor", "ben.okafor@example.com", "0402 118 906", true, 7, 0, 642.00, nil, []string{"regular"}, 19, 1},
	{"Carla Jimenez", "carla.j@example.com", "0403 554 221", true, 41, 3, 6893.25, []string{"shellfish", "gluten"}, []string{"vip"}, 2, 6},
	{"Dmitri Volkov", "d.volkov@example.com", "0404 781 440", true, 3, 1, 287.40, nil, nil, 45, 0},
	{"Esther Nguyen", "esther.n@example.com", "0405 903 112", true, 15, 0, 1904.80, []string{"dairy"}, []string{"birthday-club"}, 11, 2},
	{"Farid Haddad", "farid.h@example.com", "0406 337 785", false, 9, 0, 1100.00, nil, nil, 210, 4},
	{"Grace Li", "grace.li@example.com", "0407 665 019", true, 52, 4, 9241.10, nil, []string{"vip", "wine-club"}, 1, 8},
	{"Hugo Bertrand", "hugo.b@example.com", "0408 412 930", true, 1, 0, 0, nil, nil, -1, 0},
	{"Imogen Clarke", "imogen.c@example.com", "0409 228 647", true, 18, 1, 2450.00, []string{"tree nuts"}, []string{"regular"}, 8, 3},
	{"Jonas Weber", "jonas.w@example.com", "0410 990 203", true, 6, 0, 512.75, nil, nil, 33, 1},
	{"Keiko Tanaka", "keiko.t@example.com", "0411 174 568", true, 29, 2, 4387.90, []string{"sesame"}, []string{"wine-club"}, 5, 5},
	{"Liam O'Shea", "liam.oshea@example.com", "0412 843 771", false, 14, 0, 1765.30, nil, []string{"regular"}, 160, 2},
	{"Mara Petrova", "mara.p@example.com", "0413 506 298", true, 11, 1, 1332.60, []string{"eggs", "soy"}, nil, 14, 2},
	{"Noah Fischer", "noah.f@example.com", "0414 677 150", true, 2, 0, 96.00, nil, nil, 72, 0},
	{"Olivia Marsh", "olivia.m@example.com", "0415 321 884", true, 36, 2, 5120.45, nil, []string{"vip", "birthday-club"}, 3, 7},
	{"Priya Raman", "priya.r@example.com", "0416 459 007", true, 8, 1, 944.20, []string{"gluten"}, nil, 21, 1},
}

// SeedDefaults populates the repository with the demo guest set. Extra
// generated guests are appended when n exceeds the fixed roster.
func SeedDefaults(ctx context.Context, repo *MemoryRepo, n int) error {
	now := time.Now()
	rows := seedRows
	if n > 0 && n < len(rows) {
		rows = rows[:n]
	}
	for _, row := range rows {
		if err := repo.Add(ctx, buildSeedGuest(row, now)); err != nil {
			return err
		}
	}
	rng := rand.New(rand.NewSource(42))
	for i := len(rows); i < n; i++ {
		row := seedRow{
			name:           fmt.Sprintf("Guest %03d", i+1),
			email:          fmt.Sprintf("guest%03d@example.com", i+1),
			active:         true,
			visits:         rng.Intn(30),
			upcoming:       rng.Intn(3),
			spend:          float64(rng.Intn(500000)) / 100,
			daysSinceVisit: rng.Intn(90),
			yearsSince:     rng.Intn(5),
		}
		if err := repo.Add(ctx, buildSeedGuest(row, now)); err != nil {
			return err
		}
	}
	return nil
}

func buildSeedGuest(row seedRow, now time.Time) guest.Guest {
	g := guest.Guest{
		ID:             uuid.NewString(),
		Name:           row.name,
		Email:          row.email,
		Phone:          row.phone,
		IsActive:       row.active,
		TotalVisits:    row.visits,
		UpcomingVisits: row.upcoming,
		LifetimeSpend:  row.spend,
		TotalOrders:    row.visits,
		LoyaltyPoints:  int(row.spend / 10),
		Allergies:      row.allergies,
		Tags:           row.tags,
		Notes:          map[string]string{},
	}
	if row.visits > 0 {
		g.AverageSpend = row.spend / float64(row.visits)
	}
	if row.daysSinceVisit >= 0 {
		t := now.AddDate(0, 0, -row.daysSinceVisit)
		g.LastVisit = &t
	}
	if row.yearsSince > 0 {
		t := now.AddDate(-row.yearsSince, 0, 0)
		g.CustomerSince = &t
	}
	return g
}
