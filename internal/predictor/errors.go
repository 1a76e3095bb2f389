package predictor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelUnavailable is returned by predictors that have no loaded classifier.
var ErrModelUnavailable = errors.New("model unavailable")

// FieldError describes one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// InputError reports every missing or non-numeric field of a request.
type InputError struct {
	Fields []FieldError
}

func (e *InputError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Message
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ModelError wraps a classifier failure.
type ModelError struct {
	Predictor string
	Err       error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s model failed: %v", e.Predictor, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }
