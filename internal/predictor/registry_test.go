package predictor

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/nutrilabel/internal/config"
)

func TestLoad_Sources(t *testing.T) {
	srv, _ := newModelServer(t, http.StatusOK, `{"prediction": 1}`)
	modelPath := writeModel(t, "diabetes.yaml", `
kind: linear
features: [Pregnancies, Glucose, BloodPressure, SkinThickness, Insulin, BMI, DiabetesPedigreeFunction, Age]
coefficients: [0, 0.01, 0, 0, 0, 0, 0, 0]
intercept: -1
`)

	reg := Load(map[string]config.PredictorConfig{
		NameDiabetes: {Source: config.SourceFile, Path: modelPath},
		NameHeart:    {Source: config.SourceRemote, URL: srv.URL, Timeout: time.Second},
		"unknown":    {Source: config.SourceFile, Path: "x.json"},
	}, nil)

	want := map[string]bool{
		NameDiabetes:   true,
		NameHeart:      true,
		NameParkinsons: false,
	}
	if diff := cmp.Diff(want, reg.Status()); diff != "" {
		t.Errorf("Status mismatch (-want +got):\n%s", diff)
	}
	if _, ok := reg.Get("unknown"); ok {
		t.Error("unknown predictors should not be registered")
	}
}

func TestLoad_BrokenModelIsUnavailable(t *testing.T) {
	reg := Load(map[string]config.PredictorConfig{
		NameDiabetes: {Source: config.SourceFile, Path: filepath.Join(t.TempDir(), "missing.json")},
	}, nil)

	p, ok := reg.Get(NameDiabetes)
	if !ok {
		t.Fatal("diabetes predictor should still be registered")
	}
	if p.Available() {
		t.Error("predictor with missing model file should be unavailable")
	}
}

func TestRegistry_AllOrder(t *testing.T) {
	reg := Load(nil, nil)

	var names []string
	for _, p := range reg.All() {
		names = append(names, p.Name())
	}
	want := []string{NameDiabetes, NameHeart, NameParkinsons}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("All order mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRegistry_DuplicateReplaces(t *testing.T) {
	def, _ := Lookup(NameDiabetes)
	first := New(def, nil)
	second := New(def, &stubClassifier{})

	reg := NewRegistry(first, second)
	if len(reg.All()) != 1 {
		t.Fatalf("got %d predictors, want 1", len(reg.All()))
	}
	if got, _ := reg.Get(NameDiabetes); got != second {
		t.Error("later predictor should replace earlier one")
	}
}
