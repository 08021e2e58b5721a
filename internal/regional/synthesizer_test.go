package regional

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

func TestSynthesize_Deterministic(t *testing.T) {
	national := map[domain.ProductID]float64{
		domain.ProductPig:  15.00,
		domain.ProductCorn: 2300,
	}

	first := NewSeededSynthesizer(DefaultSeed, market.Profiles{}).Synthesize(national)
	second := NewSeededSynthesizer(DefaultSeed, market.Profiles{}).Synthesize(national)
	assert.Equal(t, first, second)
}

func TestSynthesize_NationalUnchangedAndBounded(t *testing.T) {
	national := map[domain.ProductID]float64{
		domain.ProductPig:  15.00,
		domain.ProductCorn: 2300,
	}
	snapshot := NewSeededSynthesizer(DefaultSeed, market.Profiles{}).Synthesize(national)

	require.Len(t, snapshot, len(market.Regions()))

	q, ok := snapshot.Quote(market.NationalRegion, domain.ProductPig)
	require.True(t, ok)
	require.NotNil(t, q.Price)
	assert.Equal(t, 15.00, *q.Price)

	var profiles market.Profiles
	for _, r := range market.Regions() {
		if r.IsNational() {
			continue
		}
		pig := snapshot[r.Name][domain.ProductPig]
		require.NotNil(t, pig.Price, r.Name)
		bounds := profiles.Profile(domain.ProductPig, r.Name)
		assert.GreaterOrEqual(t, *pig.Price, market.Round(15.00*bounds.Min, 2)-0.01, r.Name)
		assert.LessOrEqual(t, *pig.Price, market.Round(15.00*bounds.Max, 2)+0.01, r.Name)

		corn := snapshot[r.Name][domain.ProductCorn]
		require.NotNil(t, corn.Price, r.Name)
		assert.Equal(t, market.Round(*corn.Price, 0), *corn.Price, "corn is a whole number")
	}
}

func TestSynthesize_AbsentNationalPrice(t *testing.T) {
	snapshot := NewSeededSynthesizer(DefaultSeed, market.Profiles{}).Synthesize(map[domain.ProductID]float64{
		domain.ProductPig: 15.00,
	})

	for _, r := range market.Regions() {
		q := snapshot[r.Name][domain.ProductSoybean]
		assert.Nil(t, q.Price, r.Name)
	}
}

func TestSynthesize_DrawOrder(t *testing.T) {
	// Every product draws once per province, present or not.
	national := map[domain.ProductID]float64{domain.ProductPig: 10}
	rng := rand.New(rand.NewSource(7))
	NewSynthesizer(rng, market.Profiles{}).Synthesize(national)

	provinces := len(market.Regions()) - 1
	ref := rand.New(rand.NewSource(7))
	for i := 0; i < provinces*len(market.Products()); i++ {
		ref.Float64()
	}
	assert.Equal(t, ref.Float64(), rng.Float64())
}

func TestSynthesize_AbsentProductKeepsLaterPrices(t *testing.T) {
	withPig := NewSeededSynthesizer(DefaultSeed, market.Profiles{}).Synthesize(map[domain.ProductID]float64{
		domain.ProductPig:    15,
		domain.ProductPiglet: 20,
	})
	withoutPig := NewSeededSynthesizer(DefaultSeed, market.Profiles{}).Synthesize(map[domain.ProductID]float64{
		domain.ProductPiglet: 20,
	})

	for _, r := range market.Regions() {
		assert.Equal(t, withPig[r.Name][domain.ProductPiglet], withoutPig[r.Name][domain.ProductPiglet], r.Name)
		assert.Nil(t, withoutPig[r.Name][domain.ProductPig].Price, r.Name)
	}
}

func TestExpandWeekly_AbsentProductKeepsLaterPrices(t *testing.T) {
	piglet := domain.ProductWeek{Average: domain.Float(20)}
	full := domain.WeeklyAggregate{Products: map[domain.ProductID]domain.ProductWeek{
		domain.ProductPig:    {Average: domain.Float(15)},
		domain.ProductPiglet: piglet,
	}}
	partial := domain.WeeklyAggregate{Products: map[domain.ProductID]domain.ProductWeek{
		domain.ProductPiglet: piglet,
	}}

	a := NewSeededSynthesizer(DefaultSeed, market.Profiles{}).ExpandWeekly(full)
	b := NewSeededSynthesizer(DefaultSeed, market.Profiles{}).ExpandWeekly(partial)
	assert.Equal(t, a["河北"][domain.ProductPiglet], b["河北"][domain.ProductPiglet])
}

type fixedProfiles struct{ ratio float64 }

func (f fixedProfiles) Profile(id domain.ProductID, region string) domain.VariationProfile {
	if region == market.NationalRegion {
		return domain.VariationProfile{Min: 1, Max: 1}
	}
	return domain.VariationProfile{Min: f.ratio, Max: f.ratio}
}

func TestExpandWeekly(t *testing.T) {
	agg := domain.WeeklyAggregate{
		WeekStart: "2024-05-06",
		WeekEnd:   "2024-05-12",
		Products: map[domain.ProductID]domain.ProductWeek{
			domain.ProductPig: {
				Average:  domain.Float(15.00),
				Previous: domain.Float(14.50),
				Change:   &domain.Change{Diff: 0.50, Percent: 0.50 / 14.50 * 100},
			},
			domain.ProductCorn: {
				Average: domain.Float(2300),
			},
		},
	}

	snapshot := NewSeededSynthesizer(DefaultSeed, fixedProfiles{ratio: 1.10}).ExpandWeekly(agg)

	national := snapshot[market.NationalRegion][domain.ProductPig]
	assert.Equal(t, 15.00, *national.Price)
	assert.Equal(t, agg.Products[domain.ProductPig].Change, national.Change)

	hebei := snapshot["河北"][domain.ProductPig]
	require.NotNil(t, hebei.Price)
	assert.InDelta(t, 16.50, *hebei.Price, 1e-9)
	require.NotNil(t, hebei.Change)
	assert.InDelta(t, 0.55, hebei.Change.Diff, 1e-9)
	assert.InDelta(t, 0.55/15.95*100, hebei.Change.Percent, 1e-9)

	corn := snapshot["河北"][domain.ProductCorn]
	assert.Equal(t, 2530.0, *corn.Price)
	assert.Nil(t, corn.Change)

	egg := snapshot["河北"][domain.ProductEgg]
	assert.Nil(t, egg.Price)
}
