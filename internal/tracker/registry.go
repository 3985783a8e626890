package tracker

import (
	"slices"
	"strings"

	"pricepulse-backend/internal/components/assert"
	"pricepulse-backend/internal/components/telemetry"
	"pricepulse-backend/internal/scrapers"
	"pricepulse-backend/internal/scrapers/amazon"
	"pricepulse-backend/internal/scrapers/flipkart"

	"github.com/antzucaro/matchr"
)

// suggestThreshold is the minimum Jaro-Winkler similarity for a key to be suggested.
const suggestThreshold = 0.85

// Registry maps store keys (the keys of a product's store url map) to their extractor. It is
// built once and only read afterwards.
type Registry struct {
	extractors map[string]scrapers.Extractor
}

func NewRegistry(extractors map[string]scrapers.Extractor) Registry {
	r := Registry{extractors: make(map[string]scrapers.Extractor, len(extractors))}
	for key, e := range extractors {
		assert.NotEmptyStr(key, "store key")
		assert.NotNil(e, key)
		r.extractors[key] = e
	}
	return r
}

// NewDefaultRegistry registers every supported store under its lowercase key.
func NewDefaultRegistry(opts scrapers.Options, tel telemetry.API) (Registry, error) {
	amazonExtractor, err := amazon.New(opts, tel)
	if err != nil {
		return Registry{}, err
	}
	flipkartExtractor, err := flipkart.New(opts, tel)
	if err != nil {
		return Registry{}, err
	}
	return NewRegistry(map[string]scrapers.Extractor{
		"amazon":   amazonExtractor,
		"flipkart": flipkartExtractor,
	}), nil
}

func (r Registry) Lookup(key string) (scrapers.Extractor, bool) {
	e, ok := r.extractors[key]
	return e, ok
}

// Keys returns the registered store keys in sorted order.
func (r Registry) Keys() []string {
	keys := make([]string, 0, len(r.extractors))
	for key := range r.extractors {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Suggest returns the registered key closest to an unknown `key`, only for user facing
// messages. Lookup stays exact.
func (r Registry) Suggest(key string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(key))
	if needle == "" {
		return "", false
	}

	best := ""
	bestScore := 0.0
	for _, candidate := range r.Keys() {
		score := matchr.JaroWinkler(needle, strings.ToLower(candidate), false)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if bestScore < suggestThreshold {
		return "", false
	}
	return best, true
}
