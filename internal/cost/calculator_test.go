package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

func TestEstimate(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	tests := []struct {
		name     string
		platform model.Platform
		max      int
		wantRaw  int
		wantUSD  float64
	}{
		{name: "linkedin one per lead", platform: model.PlatformLinkedIn, max: 20, wantRaw: 20, wantUSD: 0.2},
		{name: "x triple overfetch", platform: model.PlatformX, max: 100, wantRaw: 300, wantUSD: 0.075},
		{name: "x minimum items", platform: model.PlatformX, max: 5, wantRaw: 20, wantUSD: 0.005},
		{name: "tiktok double overfetch", platform: model.PlatformTikTok, max: 50, wantRaw: 100, wantUSD: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Estimate(tt.platform, tt.max)
			assert.Equal(t, tt.platform, got.Platform)
			assert.Equal(t, tt.max, got.MaxResults)
			assert.Equal(t, tt.wantRaw, got.RawItems)
			assert.InDelta(t, tt.wantUSD, got.USD, 1e-9)
		})
	}
}

func TestNewCalculator_Overrides(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{Apify: map[string]ActorRate{
		"tiktok": {PerThousand: 1.00, Overfetch: 0},
	}})

	// Zero overfetch means one item per lead.
	got := calc.Estimate(model.PlatformTikTok, 10)
	assert.Equal(t, 10, got.RawItems)
	assert.InDelta(t, 0.01, got.USD, 1e-9)

	// Untouched platforms keep defaults.
	assert.Equal(t, 300, calc.Estimate(model.PlatformX, 100).RawItems)
}

func TestAnalysis(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(Rates{})

	r := calc.Analysis(nil)
	assert.Equal(t, DefaultSizes, r.Sizes)
	require.Len(t, r.Estimates, 3)
	for _, p := range model.AllPlatforms() {
		require.Len(t, r.Estimates[p], len(DefaultSizes))
		for i, e := range r.Estimates[p] {
			assert.Equal(t, DefaultSizes[i], e.MaxResults)
		}
	}

	r = calc.Analysis([]int{7})
	assert.Equal(t, []int{7}, r.Sizes)
	assert.Equal(t, 21, r.Estimates[model.PlatformX][0].RawItems)
}
