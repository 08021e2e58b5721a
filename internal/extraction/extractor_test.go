package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		product string
		want    float64
		found   bool
	}{
		{
			name:    "name then number",
			text:    "今日生猪均价为15.20元/公斤",
			product: "生猪",
			want:    15.20,
			found:   true,
		},
		{
			name:    "name then integer",
			text:    "豆粕3200元/吨，较昨日持平",
			product: "豆粕",
			want:    3200,
			found:   true,
		},
		{
			name:    "number then name",
			text:    "报价 12.50元/公斤 生猪 稳中有涨",
			product: "生猪",
			want:    12.50,
			found:   true,
		},
		{
			name:    "interval midpoint",
			text:    "12.50-12.60元/公斤 生猪",
			product: "生猪",
			want:    12.55,
			found:   true,
		},
		{
			name:    "interval with chinese marker",
			text:    "玉米收购价2280到2300元/吨",
			product: "豆粕",
			want:    2290,
			found:   true,
		},
		{
			name:    "interval with english marker",
			text:    "12.50 to 12.60元/公斤",
			product: "生猪",
			want:    12.55,
			found:   true,
		},
		{
			name:    "upper bound after english marker is skipped",
			text:    "12.50 TO 12.60元/公斤 生猪",
			product: "生猪",
			want:    12.55,
			found:   true,
		},
		{
			name:    "spaces around filler words",
			text:    "生猪 均价 15.5 元/公斤",
			product: "生猪",
			want:    15.5,
			found:   true,
		},
		{
			name:    "name pattern beats interval",
			text:    "仔猪均价25.00元，区间20-30元/公斤",
			product: "仔猪",
			want:    25.00,
			found:   true,
		},
		{
			name:    "case insensitive unit",
			text:    "14.8元/KG 生猪",
			product: "生猪",
			want:    14.8,
			found:   true,
		},
		{
			name:    "no price",
			text:    "鸡蛋价格走势分析",
			product: "鸡蛋",
			found:   false,
		},
		{
			name:    "other product only",
			text:    "玉米2280元",
			product: "生猪",
			found:   false,
		},
		{
			name:    "zero is not a price",
			text:    "生猪0元",
			product: "生猪",
			found:   false,
		},
		{
			name:    "empty text",
			text:    "",
			product: "生猪",
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text, tt.product)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestExtractQuotesProductName(t *testing.T) {
	got, ok := Extract("a.b均价3.5元", "a.b")
	assert.True(t, ok)
	assert.Equal(t, 3.5, got)

	_, ok = Extract("axb均价3.5元", "a.b")
	assert.False(t, ok)
}
