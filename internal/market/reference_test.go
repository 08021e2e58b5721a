package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anyumarket/pkg/contracts/domain"
)

func TestValidateReference(t *testing.T) {
	require.NoError(t, ValidateReference())
}

func TestProductsOrder(t *testing.T) {
	var names []string
	for _, p := range Products() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"生猪", "仔猪", "鸡蛋", "淘汰鸡", "玉米", "豆粕"}, names)
}

func TestRegionsNationalFirst(t *testing.T) {
	regions := Regions()
	require.Len(t, regions, 13)
	assert.True(t, regions[0].IsNational())
	assert.Equal(t, NationalRegion, regions[0].Name)
	for _, r := range regions[1:] {
		assert.False(t, r.IsNational(), r.Name)
	}
}

func TestProfile(t *testing.T) {
	tests := []struct {
		name    string
		product domain.ProductID
		region  string
		want    domain.VariationProfile
	}{
		{"national is identity", domain.ProductPig, NationalRegion, domain.VariationProfile{Min: 1, Max: 1}},
		{"explicit entry", domain.ProductCorn, "陕西", domain.VariationProfile{Min: 1.06, Max: 1.12}},
		{"unknown province falls back", domain.ProductPig, "西藏", DefaultProfile},
	}

	var p Profiles
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Profile(tt.product, tt.region))
		})
	}
}

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources()
	require.Len(t, sources, 3)
	assert.Equal(t, "博亚和讯", sources[0].Name)
	assert.Len(t, sources[0].Queries, 6)
	assert.Equal(t, "猪好多网", sources[1].Name)
	assert.Len(t, sources[1].Queries, 4)
	assert.Equal(t, "多源聚合", sources[2].Name)
	assert.Equal(t, []string{"鸡蛋价格 7.35元", "鸡蛋基准价 生意社"}, sources[2].Queries[0].Terms)
}

func TestProductLookup(t *testing.T) {
	p, ok := ProductByName("玉米")
	require.True(t, ok)
	assert.Equal(t, domain.ProductCorn, p.ID)
	assert.Equal(t, 0, p.Precision)

	_, ok = Product("rice")
	assert.False(t, ok)
}

func TestRound(t *testing.T) {
	tests := []struct {
		name      string
		v         float64
		precision int
		want      float64
	}{
		{"integer half up", 2302.5, 0, 2303},
		{"integer down", 2302.4, 0, 2302},
		{"two decimals", 15.204, 2, 15.20},
		{"two decimals half away", 15.125, 2, 15.13},
		{"negative", -0.505, 2, -0.51},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Round(tt.v, tt.precision), 1e-9)
		})
	}
}
