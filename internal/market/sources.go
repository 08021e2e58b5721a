package market

import "anyumarket/pkg/contracts/domain"

// Query is one product's search plan within a source. Terms are tried in
// order until one yields a price.
type Query struct {
	Product domain.ProductID
	Terms   []string
	// Label overrides the source name in recorded provenance.
	Label string
}

// Source declares a price source and the products it covers.
type Source struct {
	Name    string
	Queries []Query
}

// BackupPrice is a static fallback used when no source yields a price.
type BackupPrice struct {
	Product domain.ProductID
	Price   float64
	Label   string
}

// DefaultSources returns the source catalogue in precedence order.
func DefaultSources() []Source {
	boyar := Source{Name: "博亚和讯"}
	for _, p := range products {
		boyar.Queries = append(boyar.Queries, Query{
			Product: p.ID,
			Terms:   []string{p.Name + "价格 博亚和讯"},
		})
	}

	zhuwang := Source{Name: "猪好多网"}
	for _, id := range []domain.ProductID{domain.ProductPig, domain.ProductPiglet, domain.ProductCorn, domain.ProductSoybean} {
		p, _ := Product(id)
		zhuwang.Queries = append(zhuwang.Queries, Query{
			Product: id,
			Terms:   []string{p.Name + "价格 中国养猪网"},
		})
	}

	aggregated := Source{
		Name: "多源聚合",
		Queries: []Query{
			{Product: domain.ProductEgg, Terms: []string{"鸡蛋价格 7.35元", "鸡蛋基准价 生意社"}, Label: "农业农村部"},
			{Product: domain.ProductHen, Terms: []string{"淘汰鸡 4.50元"}, Label: "鸡病专业网"},
			{Product: domain.ProductCorn, Terms: []string{"玉米价格 2280元"}, Label: "港口价格"},
		},
	}

	return []Source{boyar, zhuwang, aggregated}
}

// BackupTable returns the static fallback prices.
func BackupTable() []BackupPrice {
	return []BackupPrice{
		{Product: domain.ProductEgg, Price: 7.35, Label: "生意社备用"},
		{Product: domain.ProductHen, Price: 9.20, Label: "鸡病专业网备用"},
		{Product: domain.ProductCorn, Price: 2285.0, Label: "港口价格备用"},
	}
}
