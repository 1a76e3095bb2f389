// Package predictor wraps pre-trained disease classifiers behind fixed
// sets of numeric form fields.
package predictor

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Prediction is a predictor's answer for one set of inputs.
type Prediction struct {
	Disease   string  `json:"disease"`
	Positive  bool    `json:"positive"`
	Diagnosis string  `json:"diagnosis"`
	Score     float64 `json:"score"`
}

// Predictor pairs a Definition with its classifier. A Predictor without a
// classifier is unavailable and fails every prediction with
// ErrModelUnavailable.
type Predictor struct {
	def Definition
	clf Classifier
}

// New returns a predictor for def. clf may be nil.
func New(def Definition, clf Classifier) *Predictor {
	return &Predictor{def: def, clf: clf}
}

// Name returns the predictor's name.
func (p *Predictor) Name() string { return p.def.Name }

// Definition returns the predictor's definition.
func (p *Predictor) Definition() Definition { return p.def }

// Available reports whether a classifier is loaded.
func (p *Predictor) Available() bool { return p.clf != nil }

// Vector converts form values into the classifier's feature vector. Every
// field must be present and numeric; all offending fields are reported in a
// single *InputError.
func (p *Predictor) Vector(values map[string]string) ([]float64, error) {
	x := make([]float64, len(p.def.Fields))
	var fields []FieldError

	for i, name := range p.def.Fields {
		raw := strings.TrimSpace(values[name])
		if err := validate.Var(raw, "required,numeric"); err != nil {
			fields = append(fields, FieldError{Field: name, Message: fieldMessage(err)})
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fields = append(fields, FieldError{Field: name, Message: "must be a number"})
			continue
		}
		x[i] = v
	}

	if len(fields) > 0 {
		return nil, &InputError{Fields: fields}
	}
	return x, nil
}

func fieldMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
		return "is required"
	}
	return "must be a number"
}

// Predict validates values and runs the classifier.
func (p *Predictor) Predict(ctx context.Context, values map[string]string) (*Prediction, error) {
	x, err := p.Vector(values)
	if err != nil {
		return nil, err
	}
	if p.clf == nil {
		return nil, &ModelError{Predictor: p.def.Name, Err: ErrModelUnavailable}
	}

	out, err := p.clf.Classify(ctx, x)
	if err != nil {
		return nil, &ModelError{Predictor: p.def.Name, Err: err}
	}

	return &Prediction{
		Disease:   p.def.Name,
		Positive:  out.Positive,
		Diagnosis: p.def.Diagnosis(out.Positive),
		Score:     out.Score,
	}, nil
}
