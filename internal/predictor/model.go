package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/spf13/viper"
)

// Model kinds understood by LoadModel.
const (
	KindLinear   = "linear"
	KindLogistic = "logistic"
)

// Outcome is a classifier's binary label and the score it was derived from.
type Outcome struct {
	Positive bool
	Score    float64
}

// Classifier maps a feature vector to a binary outcome.
type Classifier interface {
	Classify(ctx context.Context, features []float64) (Outcome, error)
}

// ModelSpec is the on-disk description of a linear classifier.
//
// For KindLinear the score is the decision function w·x+b of a linear SVM and
// the label is positive when it is greater than zero. For KindLogistic the
// score is the sigmoid of w·x+b and the label is positive when it reaches
// Threshold.
//
// When Mean and Scale are set, features are standardized as (x-mean)/scale
// before the dot product.
type ModelSpec struct {
	Kind         string    `mapstructure:"kind"`
	Features     []string  `mapstructure:"features"`
	Coefficients []float64 `mapstructure:"coefficients"`
	Intercept    float64   `mapstructure:"intercept"`
	Mean         []float64 `mapstructure:"mean"`
	Scale        []float64 `mapstructure:"scale"`
	Threshold    float64   `mapstructure:"threshold"`
}

// Validate checks the model description against the predictor's field order.
func (s *ModelSpec) Validate(fields []string) error {
	switch s.Kind {
	case KindLinear, KindLogistic:
	default:
		return fmt.Errorf("kind must be %q or %q, got %q", KindLinear, KindLogistic, s.Kind)
	}
	if !slices.Equal(s.Features, fields) {
		return fmt.Errorf("features %v do not match predictor fields %v", s.Features, fields)
	}
	if len(s.Coefficients) != len(fields) {
		return fmt.Errorf("got %d coefficients for %d features", len(s.Coefficients), len(fields))
	}
	if (s.Mean == nil) != (s.Scale == nil) {
		return errors.New("mean and scale must be given together")
	}
	if s.Mean != nil {
		if len(s.Mean) != len(fields) || len(s.Scale) != len(fields) {
			return fmt.Errorf("mean and scale must have %d entries", len(fields))
		}
		for i, v := range s.Scale {
			if v == 0 {
				return fmt.Errorf("scale for %s is zero", fields[i])
			}
		}
	}
	if s.Kind == KindLogistic && (s.Threshold <= 0 || s.Threshold >= 1) {
		return fmt.Errorf("threshold must be in (0, 1), got %g", s.Threshold)
	}
	return nil
}

// LinearModel is a Classifier evaluated in-process.
type LinearModel struct {
	spec ModelSpec
}

// NewLinearModel validates spec against fields. A logistic model without a
// threshold gets 0.5.
func NewLinearModel(spec ModelSpec, fields []string) (*LinearModel, error) {
	if spec.Kind == KindLogistic && spec.Threshold == 0 {
		spec.Threshold = 0.5
	}
	if err := spec.Validate(fields); err != nil {
		return nil, err
	}
	return &LinearModel{spec: spec}, nil
}

// LoadModel reads a model document (JSON or YAML, by extension) from path.
func LoadModel(path string, fields []string) (*LinearModel, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read model %s failed: %w", path, err)
	}

	var spec ModelSpec
	if err := v.Unmarshal(&spec); err != nil {
		return nil, fmt.Errorf("decode model %s failed: %w", path, err)
	}

	m, err := NewLinearModel(spec, fields)
	if err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return m, nil
}

// Classify implements Classifier.
func (m *LinearModel) Classify(_ context.Context, x []float64) (Outcome, error) {
	if len(x) != len(m.spec.Coefficients) {
		return Outcome{}, fmt.Errorf("got %d features, want %d", len(x), len(m.spec.Coefficients))
	}

	z := m.spec.Intercept
	for i, w := range m.spec.Coefficients {
		xi := x[i]
		if m.spec.Mean != nil {
			xi = (xi - m.spec.Mean[i]) / m.spec.Scale[i]
		}
		z += w * xi
	}
	if math.IsNaN(z) || math.IsInf(z, 0) {
		return Outcome{}, fmt.Errorf("decision value is %v", z)
	}

	if m.spec.Kind == KindLogistic {
		p := 1 / (1 + math.Exp(-z))
		return Outcome{Positive: p >= m.spec.Threshold, Score: p}, nil
	}
	return Outcome{Positive: z > 0, Score: z}, nil
}
