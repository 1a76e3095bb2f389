// Package nutrition turns OCR text from a nutrition facts label into gram
// readings and checks them against per-disease intake limits.
//
// # Parsing
//
// Parse recognizes a closed vocabulary of eight nutrient labels:
//
//   - Total Fat, Saturated Fat, Trans Fat
//   - Cholesterol, Sodium
//   - Dietary Fiber, Total Sugars, Added Sugars
//
// Labels are matched case-sensitively as exact phrases, optionally followed by
// a colon, a number and a "g" or "mg" unit. Milligram values are divided by
// 1000 so every reading is expressed in grams. When a label appears more than
// once, the last occurrence wins. Numbers that do not parse (for example
// "1.2.3" produced by OCR noise) are skipped without failing the whole text.
//
// # Validation
//
// The limit catalogue is compiled into the binary and keyed by disease tag:
// "default", "diabetes", "heart" and "parkinsons". Unknown or empty tags fall
// back to "default". A reading passes when value <= limit; nutrients that have
// no limit are left out of the result.
//
// # Thread Safety
//
// All functions are pure. The catalogue is never handed out directly;
// LimitsFor returns a copy, so callers cannot mutate shared state.
package nutrition
