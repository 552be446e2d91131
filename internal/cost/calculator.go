// Package cost estimates Apify spend for lead searches.
package cost

import (
	"math"

	"github.com/sells-group/outreach-cli/internal/model"
)

// DefaultSizes are the search sizes shown by Analysis when none are given.
var DefaultSizes = []int{10, 20, 50, 100}

// Rates holds per-platform Apify pricing, keyed by lowercase platform name.
type Rates struct {
	Apify map[string]ActorRate `yaml:"apify" mapstructure:"apify"`
}

// ActorRate prices one platform actor.
type ActorRate struct {
	// PerThousand is the USD charged per 1000 dataset items.
	PerThousand float64 `json:"per_1k_results" yaml:"per_1k_results" mapstructure:"per_1k_results"`
	// Overfetch is how many raw items are requested per wanted lead.
	Overfetch float64 `json:"overfetch" yaml:"overfetch" mapstructure:"overfetch"`
	// MinItems is the smallest request the actor is sent.
	MinItems int `json:"min_items" yaml:"min_items" mapstructure:"min_items"`
}

// Estimate is the projected cost of one search.
type Estimate struct {
	Platform   model.Platform `json:"platform"`
	MaxResults int            `json:"max_results"`
	RawItems   int            `json:"raw_items"`
	USD        float64        `json:"usd"`
}

// Report is the cost table for every platform at several search sizes.
type Report struct {
	Sizes     []int                         `json:"sizes"`
	Rates     map[string]ActorRate          `json:"rates"`
	Estimates map[model.Platform][]Estimate `json:"estimates"`
}

// Calculator computes costs for actor usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates. Platforms missing
// from rates use DefaultRates.
func NewCalculator(rates Rates) *Calculator {
	merged := DefaultRates()
	for k, r := range rates.Apify {
		merged.Apify[k] = r
	}
	return &Calculator{rates: merged}
}

// Estimate returns the raw item count and USD cost of asking platform for
// maxResults leads.
func (c *Calculator) Estimate(platform model.Platform, maxResults int) Estimate {
	rate := c.rates.Apify[platform.Key()]
	overfetch := rate.Overfetch
	if overfetch <= 0 {
		overfetch = 1
	}
	raw := max(int(math.Ceil(float64(maxResults)*overfetch)), rate.MinItems)
	return Estimate{
		Platform:   platform,
		MaxResults: maxResults,
		RawItems:   raw,
		USD:        round(float64(raw) / 1000 * rate.PerThousand),
	}
}

// Analysis estimates every platform at each size.
func (c *Calculator) Analysis(sizes []int) Report {
	if len(sizes) == 0 {
		sizes = DefaultSizes
	}
	r := Report{
		Sizes:     sizes,
		Rates:     c.rates.Apify,
		Estimates: make(map[model.Platform][]Estimate),
	}
	for _, p := range model.AllPlatforms() {
		for _, n := range sizes {
			r.Estimates[p] = append(r.Estimates[p], c.Estimate(p, n))
		}
	}
	return r
}

// round keeps cent precision with sub-cent detail for tiny searches.
func round(usd float64) float64 {
	return math.Round(usd*10000) / 10000
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Apify: map[string]ActorRate{
			"linkedin": {PerThousand: 10.00, Overfetch: 1},
			"x":        {PerThousand: 0.25, Overfetch: 3, MinItems: 20},
			"tiktok":   {PerThousand: 5.00, Overfetch: 2},
		},
	}
}
