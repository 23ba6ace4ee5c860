package event

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Keyword dictionary for inferring a category from free-text descriptions
// when the upstream sends an event_type we do not recognize. Phrases come
// from the detector wording used by the producing pipeline.
var keywordTypes = []struct {
	phrase string
	t      Type
}{
	{"vegetation loss", TypeDeforestation},
	{"cleared area", TypeDeforestation},
	{"clearing", TypeDeforestation},
	{"canopy", TypeDeforestation},
	{"flood", TypeFlood},
	{"inundat", TypeFlood},
	{"water level", TypeFlood},
	{"crop stress", TypeCropStress},
	{"crop decline", TypeCropStress},
	{"irrigation", TypeCropStress},
	{"construction", TypeConstruction},
	{"built-up", TypeConstruction},
	{"impervious surface", TypeConstruction},
	{"burn scar", TypeFire},
	{"active fire", TypeFire},
	{"thermal anomaly", TypeFire},
	{"smoke", TypeFire},
	{"drought", TypeDrought},
	{"soil moisture", TypeDrought},
	{"rainfall deficit", TypeDrought},
}

var keywordMatcher = func() *ahocorasick.Matcher {
	dict := make([]string, len(keywordTypes))
	for i, k := range keywordTypes {
		dict[i] = k.phrase
	}
	return ahocorasick.NewStringMatcher(dict)
}()

// InferType scans a description for known detector phrases and returns the
// matching category. When several phrases hit, the one whose first match
// appears earliest in the dictionary wins; ok is false when nothing hits.
func InferType(description string) (Type, bool) {
	if description == "" {
		return TypeUnknown, false
	}
	hits := keywordMatcher.Match([]byte(strings.ToLower(description)))
	if len(hits) == 0 {
		return TypeUnknown, false
	}
	best := hits[0]
	for _, h := range hits[1:] {
		if h < best {
			best = h
		}
	}
	return keywordTypes[best].t, true
}
