package market

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"anyumarket/pkg/contracts/domain"
)

// NationalRegion is the name of the national aggregate region.
const NationalRegion = "全国"

var products = []domain.Product{
	{ID: domain.ProductPig, Name: "生猪", Unit: "元/公斤", Precision: 2},
	{ID: domain.ProductPiglet, Name: "仔猪", Unit: "元/公斤", Precision: 2},
	{ID: domain.ProductEgg, Name: "鸡蛋", Unit: "元/公斤", Precision: 2},
	{ID: domain.ProductHen, Name: "淘汰鸡", Unit: "元/公斤", Precision: 2},
	{ID: domain.ProductCorn, Name: "玉米", Unit: "元/吨", Precision: 0},
	{ID: domain.ProductSoybean, Name: "豆粕", Unit: "元/吨", Precision: 0},
}

var regionNames = []string{
	NationalRegion, "黑龙江", "河北", "山东", "陕西", "河南", "甘肃",
	"湖北", "广西", "广东", "江西", "四川", "福建",
}

// DefaultProfile applies to any province without an explicit entry.
var DefaultProfile = domain.VariationProfile{Min: 0.95, Max: 1.05}

type ratio = domain.VariationProfile

var profiles = map[domain.ProductID]map[string]domain.VariationProfile{
	domain.ProductPig: {
		"黑龙江": ratio{Min: 0.94, Max: 0.98}, "河北": ratio{Min: 1.01, Max: 1.03},
		"山东": ratio{Min: 0.99, Max: 1.02}, "陕西": ratio{Min: 0.98, Max: 1.02},
		"河南": ratio{Min: 1.00, Max: 1.03}, "甘肃": ratio{Min: 0.97, Max: 1.00},
		"湖北": ratio{Min: 0.98, Max: 1.02}, "广西": ratio{Min: 0.98, Max: 1.02},
		"广东": ratio{Min: 1.02, Max: 1.05}, "江西": ratio{Min: 0.97, Max: 1.02},
		"四川": ratio{Min: 0.98, Max: 1.03}, "福建": ratio{Min: 0.98, Max: 1.05},
	},
	domain.ProductPiglet: {
		"黑龙江": ratio{Min: 0.95, Max: 0.98}, "河北": ratio{Min: 0.98, Max: 1.02},
		"山东": ratio{Min: 1.02, Max: 1.05}, "陕西": ratio{Min: 0.98, Max: 1.02},
		"河南": ratio{Min: 1.00, Max: 1.05}, "甘肃": ratio{Min: 0.95, Max: 1.00},
		"湖北": ratio{Min: 1.00, Max: 1.05}, "广西": ratio{Min: 0.98, Max: 1.02},
		"广东": ratio{Min: 1.02, Max: 1.08}, "江西": ratio{Min: 0.98, Max: 1.02},
		"四川": ratio{Min: 0.98, Max: 1.10}, "福建": ratio{Min: 0.95, Max: 1.08},
	},
	domain.ProductEgg: {
		"黑龙江": ratio{Min: 0.90, Max: 0.95}, "河北": ratio{Min: 0.90, Max: 0.95},
		"山东": ratio{Min: 0.95, Max: 1.00}, "陕西": ratio{Min: 1.05, Max: 1.10},
		"河南": ratio{Min: 1.00, Max: 1.05}, "甘肃": ratio{Min: 1.00, Max: 1.05},
		"湖北": ratio{Min: 0.95, Max: 1.02}, "广西": ratio{Min: 1.02, Max: 1.08},
		"广东": ratio{Min: 1.02, Max: 1.08}, "江西": ratio{Min: 0.95, Max: 1.02},
		"四川": ratio{Min: 0.95, Max: 1.05}, "福建": ratio{Min: 1.08, Max: 1.15},
	},
	domain.ProductHen: {
		"黑龙江": ratio{Min: 0.95, Max: 1.02}, "河北": ratio{Min: 0.90, Max: 0.98},
		"山东": ratio{Min: 0.95, Max: 1.02}, "陕西": ratio{Min: 0.90, Max: 0.98},
		"河南": ratio{Min: 0.95, Max: 1.02}, "甘肃": ratio{Min: 0.85, Max: 0.95},
		"湖北": ratio{Min: 0.88, Max: 0.98}, "广西": ratio{Min: 0.88, Max: 0.95},
		"广东": ratio{Min: 0.88, Max: 0.95}, "江西": ratio{Min: 0.88, Max: 0.95},
		"四川": ratio{Min: 0.85, Max: 0.92}, "福建": ratio{Min: 0.88, Max: 0.95},
	},
	domain.ProductCorn: {
		"黑龙江": ratio{Min: 0.95, Max: 0.98}, "河北": ratio{Min: 1.00, Max: 1.03},
		"山东": ratio{Min: 1.00, Max: 1.03}, "陕西": ratio{Min: 1.06, Max: 1.12},
		"河南": ratio{Min: 1.00, Max: 1.03}, "甘肃": ratio{Min: 0.90, Max: 0.98},
		"湖北": ratio{Min: 0.99, Max: 1.03}, "广西": ratio{Min: 1.03, Max: 1.08},
		"广东": ratio{Min: 0.98, Max: 1.05}, "江西": ratio{Min: 0.98, Max: 1.10},
		"四川": ratio{Min: 1.02, Max: 1.08}, "福建": ratio{Min: 1.00, Max: 1.10},
	},
	domain.ProductSoybean: {
		"黑龙江": ratio{Min: 1.00, Max: 1.05}, "河北": ratio{Min: 1.00, Max: 1.02},
		"山东": ratio{Min: 0.98, Max: 1.02}, "陕西": ratio{Min: 0.98, Max: 1.02},
		"河南": ratio{Min: 0.98, Max: 1.02}, "甘肃": ratio{Min: 0.98, Max: 1.02},
		"湖北": ratio{Min: 0.98, Max: 1.02}, "广西": ratio{Min: 0.97, Max: 1.02},
		"广东": ratio{Min: 0.95, Max: 1.00}, "江西": ratio{Min: 0.95, Max: 1.00},
		"四川": ratio{Min: 0.98, Max: 1.04}, "福建": ratio{Min: 0.98, Max: 1.02},
	},
}

// Products returns the tracked products in canonical order.
func Products() []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out
}

// Product looks up a product by identifier.
func Product(id domain.ProductID) (domain.Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// ProductByName looks up a product by its display name.
func ProductByName(name string) (domain.Product, bool) {
	for _, p := range products {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Regions returns the regional breakdown with the national aggregate first.
func Regions() []domain.Region {
	out := make([]domain.Region, 0, len(regionNames))
	for _, name := range regionNames {
		kind := domain.RegionProvince
		if name == NationalRegion {
			kind = domain.RegionNational
		}
		out = append(out, domain.Region{Name: name, Kind: kind})
	}
	return out
}

// Profiles implements the lookup used by the regional synthesizer.
type Profiles struct{}

// Profile returns the variation profile for a product in a province. The
// national region always maps to the identity ratio.
func (Profiles) Profile(id domain.ProductID, region string) domain.VariationProfile {
	if region == NationalRegion {
		return domain.VariationProfile{Min: 1, Max: 1}
	}
	if byRegion, ok := profiles[id]; ok {
		if p, ok := byRegion[region]; ok {
			return p
		}
	}
	return DefaultProfile
}

// ValidateReference checks that every product and profile in the reference
// tables is well formed.
func ValidateReference() error {
	v := validator.New()
	for _, p := range products {
		if err := v.Struct(p); err != nil {
			return fmt.Errorf("product %s: %w", p.ID, err)
		}
	}
	for _, r := range Regions() {
		if err := v.Struct(r); err != nil {
			return fmt.Errorf("region %s: %w", r.Name, err)
		}
	}
	for id, byRegion := range profiles {
		if _, ok := Product(id); !ok {
			return fmt.Errorf("profile for unknown product %s", id)
		}
		for region, p := range byRegion {
			if err := v.Struct(p); err != nil {
				return fmt.Errorf("profile %s/%s: %w", id, region, err)
			}
		}
	}
	return nil
}
