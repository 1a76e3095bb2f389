package predictor

// Predictor names, also used as URL path segments.
const (
	NameDiabetes   = "diabetes"
	NameHeart      = "heart-disease"
	NameParkinsons = "parkinsons"
)

// Definition fixes a predictor's form fields (in classifier input order) and
// the two diagnosis strings its binary output maps to.
type Definition struct {
	Name     string
	Title    string
	Fields   []string
	Positive string
	Negative string
}

// Diagnosis returns the human-readable string for a classifier label.
func (d Definition) Diagnosis(positive bool) string {
	if positive {
		return d.Positive
	}
	return d.Negative
}

var definitions = []Definition{
	{
		Name:  NameDiabetes,
		Title: "Diabetes Prediction",
		Fields: []string{
			"Pregnancies", "Glucose", "BloodPressure", "SkinThickness",
			"Insulin", "BMI", "DiabetesPedigreeFunction", "Age",
		},
		Positive: "The person is diabetic",
		Negative: "The person is not diabetic",
	},
	{
		Name:  NameHeart,
		Title: "Heart Disease Prediction",
		Fields: []string{
			"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
			"thalach", "exang", "oldpeak", "slope", "ca", "thal",
		},
		Positive: "The person has heart disease",
		Negative: "The person does not have heart disease",
	},
	{
		Name:  NameParkinsons,
		Title: "Parkinson's Disease Prediction",
		Fields: []string{
			"fo", "fhi", "flo", "Jitter_percent", "Jitter_Abs", "RAP", "PPQ",
			"DDP", "Shimmer", "Shimmer_dB", "APQ3", "APQ5", "APQ", "DDA",
			"NHR", "HNR", "RPDE", "DFA", "spread1", "spread2", "D2", "PPE",
		},
		Positive: "The person has Parkinson's disease",
		Negative: "The person does not have Parkinson's disease",
	},
}

// Definitions returns the built-in predictor definitions in display order.
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	for i, d := range definitions {
		d.Fields = append([]string(nil), d.Fields...)
		out[i] = d
	}
	return out
}

// Lookup returns the definition named name.
func Lookup(name string) (Definition, bool) {
	for _, d := range Definitions() {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}
