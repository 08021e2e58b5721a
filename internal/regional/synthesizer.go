package regional

import (
	"math/rand"

	"anyumarket/internal/market"
	"anyumarket/pkg/contracts/domain"
)

// DefaultSeed is the seed used for reproducible regional breakdowns.
const DefaultSeed int64 = 42

// ProfileSource provides the variation bounds for a product in a region
type ProfileSource interface {
	Profile(id domain.ProductID, region string) domain.VariationProfile
}

// Synthesizer draws regional ratios from a caller-supplied generator
type Synthesizer struct {
	rng      *rand.Rand
	profiles ProfileSource
	products []domain.Product
	regions  []domain.Region
}

// NewSynthesizer creates a synthesizer over the canonical products and
// regions.
func NewSynthesizer(rng *rand.Rand, profiles ProfileSource) *Synthesizer {
	return &Synthesizer{
		rng:      rng,
		profiles: profiles,
		products: market.Products(),
		regions:  market.Regions(),
	}
}

// NewSeededSynthesizer creates a synthesizer with its own generator seeded
// with seed.
func NewSeededSynthesizer(seed int64, profiles ProfileSource) *Synthesizer {
	return NewSynthesizer(rand.New(rand.NewSource(seed)), profiles)
}

// Synthesize expands national prices into every region. Regional prices are
// rounded to the product precision; the national price is kept unchanged.
// Products without a national price are absent in every region but still
// consume their draws, so each product keeps its position in the stream.
func (s *Synthesizer) Synthesize(national map[domain.ProductID]float64) domain.RegionalSnapshot {
	snapshot := s.emptySnapshot()
	for _, p := range s.products {
		price, ok := national[p.ID]
		if !ok {
			s.skip(p.ID)
			s.fillAbsent(snapshot, p.ID)
			continue
		}
		for _, r := range s.regions {
			if r.IsNational() {
				snapshot[r.Name][p.ID] = domain.RegionalQuote{Price: domain.Float(price)}
				continue
			}
			ratio := s.draw(p.ID, r.Name)
			snapshot[r.Name][p.ID] = domain.RegionalQuote{
				Price: domain.Float(market.Round(price*ratio, p.Precision)),
			}
		}
	}
	return snapshot
}

// ExpandWeekly expands a weekly aggregate. Each region gets one ratio per
// product, applied to both the current and the previous weekly average, so
// the regional change is measured against the region's own previous price.
// The national row carries the aggregate unchanged.
func (s *Synthesizer) ExpandWeekly(agg domain.WeeklyAggregate) domain.RegionalSnapshot {
	snapshot := s.emptySnapshot()
	for _, p := range s.products {
		week, ok := agg.Products[p.ID]
		if !ok || week.Average == nil {
			s.skip(p.ID)
			s.fillAbsent(snapshot, p.ID)
			continue
		}
		for _, r := range s.regions {
			if r.IsNational() {
				snapshot[r.Name][p.ID] = domain.RegionalQuote{
					Price:  domain.Float(*week.Average),
					Change: week.Change,
				}
				continue
			}
			ratio := s.draw(p.ID, r.Name)
			price := market.Round(*week.Average*ratio, p.Precision)
			quote := domain.RegionalQuote{Price: domain.Float(price)}
			if week.Previous != nil && week.Change != nil {
				prev := market.Round(*week.Previous*ratio, p.Precision)
				quote.Change = regionalChange(price, prev, p.Precision)
			}
			snapshot[r.Name][p.ID] = quote
		}
	}
	return snapshot
}

func (s *Synthesizer) draw(id domain.ProductID, region string) float64 {
	profile := s.profiles.Profile(id, region)
	return profile.Min + (profile.Max-profile.Min)*s.rng.Float64()
}

// skip consumes the draws of an absent product.
func (s *Synthesizer) skip(id domain.ProductID) {
	for _, r := range s.regions {
		if !r.IsNational() {
			s.draw(id, r.Name)
		}
	}
}

func (s *Synthesizer) emptySnapshot() domain.RegionalSnapshot {
	snapshot := make(domain.RegionalSnapshot, len(s.regions))
	for _, r := range s.regions {
		snapshot[r.Name] = make(map[domain.ProductID]domain.RegionalQuote, len(s.products))
	}
	return snapshot
}

func (s *Synthesizer) fillAbsent(snapshot domain.RegionalSnapshot, id domain.ProductID) {
	for _, r := range s.regions {
		snapshot[r.Name][id] = domain.RegionalQuote{}
	}
}

func regionalChange(price, prev float64, precision int) *domain.Change {
	if prev == 0 {
		return nil
	}
	diff := market.Round(price-prev, precision)
	return &domain.Change{
		Diff:    diff,
		Percent: diff / prev * 100,
	}
}
