package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

const (
	number    = `(\d+(?:\.\d+)?)`
	unitToken = `元\s*/?\s*(?:公斤|千克|吨|斤|kg)?`
)

// interval matches "12.50-12.60元/公斤" style ranges regardless of product.
var interval = regexp.MustCompile(`(?i)` + number + `\s*(?:-|~|～|—|到|至|to)\s*` + number + `\s*` + unitToken)

// rangeMarkers precede the upper bound of an interval.
var rangeMarkers = []string{"-", "~", "～", "—", "到", "至", "to"}

type productPatterns struct {
	nameFirst   *regexp.Regexp
	numberFirst *regexp.Regexp
}

var (
	patternCache   = make(map[string]productPatterns)
	patternCacheMu sync.RWMutex
)

func patternsFor(productName string) productPatterns {
	patternCacheMu.RLock()
	p, ok := patternCache[productName]
	patternCacheMu.RUnlock()
	if ok {
		return p
	}

	name := regexp.QuoteMeta(productName)
	p = productPatterns{
		// 生猪均价为15.20元, 生猪 均价 15.5 元
		nameFirst: regexp.MustCompile(`(?i)` + name + `\s*(?:均价|价格|均|价)*\s*(?:为|是)*\s*[:：]?\s*` + number + `\s*元`),
		// 12.50元/公斤 生猪
		numberFirst: regexp.MustCompile(`(?i)` + number + `\s*` + unitToken + `\s*` + name),
	}

	patternCacheMu.Lock()
	patternCache[productName] = p
	patternCacheMu.Unlock()
	return p
}

// Extract returns the price of productName mentioned in text. Patterns are
// tried in priority order: the product name followed by a number, a number
// with a unit followed by the product name, then the midpoint of any price
// interval. The first pattern that parses wins. Text without a usable
// mention yields false.
func Extract(text, productName string) (float64, bool) {
	if text == "" || productName == "" {
		return 0, false
	}
	p := patternsFor(productName)

	if m := p.nameFirst.FindStringSubmatch(text); m != nil {
		if v, ok := parsePrice(m[1]); ok {
			return v, true
		}
	}

	for _, loc := range p.numberFirst.FindAllStringSubmatchIndex(text, -1) {
		if isIntervalBound(text, loc[2]) {
			continue
		}
		if v, ok := parsePrice(text[loc[2]:loc[3]]); ok {
			return v, true
		}
	}

	if m := interval.FindStringSubmatch(text); m != nil {
		lo, okLo := parsePrice(m[1])
		hi, okHi := parsePrice(m[2])
		if okLo && okHi {
			return (lo + hi) / 2, true
		}
	}

	return 0, false
}

// isIntervalBound reports whether the number starting at idx is the upper
// end of a range such as "12.50-12.60".
func isIntervalBound(text string, idx int) bool {
	before := strings.ToLower(strings.TrimRight(text[:idx], " \t"))
	if before == "" {
		return false
	}
	for _, marker := range rangeMarkers {
		if strings.HasSuffix(before, marker) {
			return true
		}
	}
	return false
}

func parsePrice(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
