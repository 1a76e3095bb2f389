package nutrition

import "sort"

// Disease tags with a dedicated limit table.
const (
	DiseaseDefault    = "default"
	DiseaseDiabetes   = "diabetes"
	DiseaseHeart      = "heart"
	DiseaseParkinsons = "parkinsons"
)

// LimitTable maps a nutrient to the maximum acceptable amount in grams.
type LimitTable map[Nutrient]float64

// Validation maps a nutrient to whether its reading is within the limit.
type Validation map[Nutrient]bool

var defaultLimits = LimitTable{
	TotalFat:     70,
	SaturatedFat: 20,
	TransFat:     0,
	Cholesterol:  0.3,
	Sodium:       2.3,
	DietaryFiber: 25,
	TotalSugars:  50,
	AddedSugars:  10,
}

// catalogue must only be read. Tables are derived from defaultLimits so that
// each disease lists only what it tightens.
var catalogue = map[string]LimitTable{
	DiseaseDefault: defaultLimits,
	DiseaseDiabetes: derive(defaultLimits, LimitTable{
		TotalSugars: 30,
		AddedSugars: 5,
	}),
	DiseaseHeart: derive(defaultLimits, LimitTable{
		TotalFat:     60,
		SaturatedFat: 15,
		Cholesterol:  0.2,
		Sodium:       1.5,
	}),
	DiseaseParkinsons: derive(defaultLimits, nil),
}

func derive(base, overrides LimitTable) LimitTable {
	out := make(LimitTable, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// LimitsFor returns a copy of the limit table for a disease tag. Unknown or
// empty tags resolve to the default table.
func LimitsFor(disease string) LimitTable {
	table, ok := catalogue[disease]
	if !ok {
		table = catalogue[DiseaseDefault]
	}
	return derive(table, nil)
}

// HasLimits reports whether the tag has its own table in the catalogue.
func HasLimits(disease string) bool {
	_, ok := catalogue[disease]
	return ok
}

// Diseases returns the catalogue tags in sorted order.
func Diseases() []string {
	tags := make([]string, 0, len(catalogue))
	for tag := range catalogue {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Validate compares each reading against limits. Only nutrients present in
// both maps appear in the result; the comparison is inclusive.
func Validate(readings Readings, limits LimitTable) Validation {
	results := make(Validation, len(readings))
	for nutrient, value := range readings {
		limit, ok := limits[nutrient]
		if !ok {
			continue
		}
		results[nutrient] = value <= limit
	}
	return results
}

// ValidateFor resolves the limit table for disease and validates readings
// against it.
func ValidateFor(readings Readings, disease string) Validation {
	return Validate(readings, LimitsFor(disease))
}
