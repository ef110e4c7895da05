package sync

import (
	"testing"

	"github.com/alexatafm/solar-hub-sync/internal/simpro"
)

func TestRateCacheLookup(t *testing.T) {
	cache := BuildRateCache([]simpro.LaborRate{
		{ID: 1, Name: "Electrician", CostRate: 95, Markup: 0.35},
		{ID: 2, Name: "Apprentice", CostRate: 45, Markup: 0.5},
	})

	if cache.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", cache.Len())
	}

	rate, ok := cache.Lookup("Electrician")
	if !ok {
		t.Fatal("Lookup(Electrician) not found")
	}
	if rate.CostRate != 95 || rate.Markup != 0.35 {
		t.Errorf("Lookup(Electrician) = %+v, want cost 95 markup 0.35", rate)
	}

	if _, ok := cache.Lookup("Plumber"); ok {
		t.Error("Lookup(Plumber) found, want missing")
	}
}

func TestRateCacheNameCollision(t *testing.T) {
	// Distinct definitions sharing a name collapse to the last listed.
	cache := BuildRateCache([]simpro.LaborRate{
		{ID: 1, Name: "Electrician", CostRate: 90, Markup: 0.3},
		{ID: 2, Name: "Electrician", CostRate: 95, Markup: 0.35},
	})

	rate, _ := cache.Lookup("Electrician")
	if rate.CostRate != 95 {
		t.Errorf("collided rate cost = %v, want 95", rate.CostRate)
	}
}

func TestCostAndMarkup(t *testing.T) {
	cache := BuildRateCache([]simpro.LaborRate{
		{Name: "Electrician", CostRate: 95, Markup: 0.35},
	})

	tests := []struct {
		name       string
		common     simpro.ItemCommon
		laborName  string
		wantCost   float64
		wantMarkup float64
	}{
		{
			name:       "non-labor uses base price and percentage markup",
			common:     simpro.ItemCommon{BasePrice: 80, Markup: 25},
			wantCost:   80,
			wantMarkup: 0.25,
		},
		{
			name:       "labor priced from rate cache",
			common:     simpro.ItemCommon{BasePrice: 999, Markup: 999},
			laborName:  "Electrician",
			wantCost:   95,
			wantMarkup: 0.35,
		},
		{
			name:       "missing labor rate prices at zero",
			laborName:  "Plumber",
			wantCost:   0,
			wantMarkup: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, markup := costAndMarkup(tt.common, tt.laborName, cache)
			if cost != tt.wantCost || markup != tt.wantMarkup {
				t.Errorf("costAndMarkup() = (%v, %v), want (%v, %v)", cost, markup, tt.wantCost, tt.wantMarkup)
			}
		})
	}
}

func TestCostAndMarkupNilCache(t *testing.T) {
	cost, markup := costAndMarkup(simpro.ItemCommon{}, "Electrician", nil)
	if cost != 0 || markup != 0 {
		t.Errorf("nil cache = (%v, %v), want zeros", cost, markup)
	}
}
