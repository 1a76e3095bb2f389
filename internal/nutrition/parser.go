package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

// Nutrient is one of the label rows recognized on a nutrition facts panel.
type Nutrient string

// Recognized nutrient labels. The string values are the exact phrases matched
// in OCR text and are also used as JSON keys in API responses.
const (
	TotalFat     Nutrient = "Total Fat"
	SaturatedFat Nutrient = "Saturated Fat"
	TransFat     Nutrient = "Trans Fat"
	Cholesterol  Nutrient = "Cholesterol"
	Sodium       Nutrient = "Sodium"
	DietaryFiber Nutrient = "Dietary Fiber"
	TotalSugars  Nutrient = "Total Sugars"
	AddedSugars  Nutrient = "Added Sugars"
)

// Nutrients lists every recognized label in panel order.
var Nutrients = []Nutrient{
	TotalFat,
	SaturatedFat,
	TransFat,
	Cholesterol,
	Sodium,
	DietaryFiber,
	TotalSugars,
	AddedSugars,
}

// Readings maps a nutrient to its amount in grams.
type Readings map[Nutrient]float64

const unitMilligram = "mg"

// nutrientPattern captures (label, number, unit). "mg" is listed before "g"
// so that the longer unit wins the alternation.
var nutrientPattern = buildPattern(Nutrients)

func buildPattern(labels []Nutrient) *regexp.Regexp {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(string(l))
	}
	return regexp.MustCompile(`(` + strings.Join(quoted, "|") + `):?\s*([\d.]+)\s*(mg|g)?`)
}

// Parse extracts nutrient readings from raw OCR text.
//
// Every match of "<Label>[:] <number> [g|mg]" is converted to grams. Later
// matches overwrite earlier ones for the same label. A match whose number
// cannot be parsed as a float is ignored.
//
// The returned map is never nil; text without any recognizable row yields an
// empty map.
func Parse(text string) Readings {
	readings := make(Readings)

	for _, m := range nutrientPattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		readings[Nutrient(m[1])] = ToGrams(value, m[3])
	}

	return readings
}

// ToGrams normalizes an amount in the given unit to grams. An empty unit is
// treated as grams.
func ToGrams(value float64, unit string) float64 {
	if unit == unitMilligram {
		return value / 1000
	}
	return value
}
