package sync

import (
	"context"

	"github.com/alexatafm/solar-hub-sync/internal/simpro"
	"github.com/alexatafm/solar-hub-sync/pkg/logging"
)

// Rate is one cached labor rate: cost per unit and markup as a fraction.
type Rate struct {
	CostRate float64
	Markup   float64
}

// RateCache maps labor-type names to their rates. It is built once per
// batch run before workers start and is read-only afterward, so lookups
// need no locking. Distinct rate definitions sharing a name collapse to
// whichever the listing returned last.
type RateCache struct {
	rates map[string]Rate
}

// NewRateCache fetches the labor-rate table and builds the cache.
func NewRateCache(ctx context.Context, client *simpro.Client) (*RateCache, error) {
	rates, err := client.LaborRates(ctx)
	if err != nil {
		return nil, err
	}
	cache := BuildRateCache(rates)
	logging.Ctx(ctx).Info().Int("rates", cache.Len()).Msg("Labor rates cached")
	return cache, nil
}

// BuildRateCache builds a cache from an already-fetched rate table.
func BuildRateCache(rates []simpro.LaborRate) *RateCache {
	m := make(map[string]Rate, len(rates))
	for _, r := range rates {
		m[r.Name] = Rate{CostRate: r.CostRate, Markup: r.Markup}
	}
	return &RateCache{rates: m}
}

// Lookup returns the rate for a labor-type name. Missing names price at
// zero cost and zero markup so the item still syncs, just without margin.
func (rc *RateCache) Lookup(name string) (Rate, bool) {
	if rc == nil {
		return Rate{}, false
	}
	r, ok := rc.rates[name]
	return r, ok
}

// Len returns the number of cached rates.
func (rc *RateCache) Len() int {
	if rc == nil {
		return 0
	}
	return len(rc.rates)
}

// costAndMarkup resolves cost price and markup fraction for an item.
// Non-labor items carry their own base price and a percentage markup;
// labor items are priced from the rate cache by labor-type name.
func costAndMarkup(common simpro.ItemCommon, laborName string, rates *RateCache) (cost, markup float64) {
	if laborName == "" {
		return common.BasePrice, common.Markup / 100
	}
	if r, ok := rates.Lookup(laborName); ok {
		return r.CostRate, r.Markup
	}
	return 0, 0
}
