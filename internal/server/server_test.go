package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/nutrilabel/internal/config"
	"github.com/ironsheep/nutrilabel/internal/ocr"
	"github.com/ironsheep/nutrilabel/internal/predictor"
	"github.com/ironsheep/nutrilabel/internal/upload"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeEngine returns canned OCR text.
type fakeEngine struct {
	text string
	err  error
}

func (f fakeEngine) Recognize(context.Context, image.Image) (*ocr.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ocr.Result{FullText: f.text}, nil
}

// stubClassifier always answers with the same label.
type stubClassifier struct {
	positive bool
	err      error
}

func (s stubClassifier) Classify(context.Context, []float64) (predictor.Outcome, error) {
	if s.err != nil {
		return predictor.Outcome{}, s.err
	}
	return predictor.Outcome{Positive: s.positive, Score: 0.8}, nil
}

type testOptions struct {
	text     string
	ocrErr   error
	maxBytes  int64
	maxPixels int
	retain    bool
}

// newTestServer builds a server with a fake OCR engine, a positive diabetes
// classifier, an unavailable heart-disease predictor and a failing
// parkinsons classifier.
func newTestServer(t *testing.T, opts testOptions) *Server {
	t.Helper()

	if opts.maxBytes == 0 {
		opts.maxBytes = 1 << 20
	}
	cfg := &config.Config{
		App:    config.AppConfig{Name: "nutrilabel"},
		Server: config.ServerConfig{Port: "0", CORSOrigins: []string{"*"}},
		Upload: config.UploadConfig{Dir: t.TempDir(), MaxBytes: opts.maxBytes, Retain: opts.retain},
		OCR:    config.OCRConfig{MaxPixels: opts.maxPixels},
	}

	store, err := upload.NewStore(cfg.Upload.Dir, cfg.Upload.Retain)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	def := func(name string) predictor.Definition {
		d, ok := predictor.Lookup(name)
		if !ok {
			t.Fatalf("definition %s missing", name)
		}
		return d
	}
	reg := predictor.NewRegistry(
		predictor.New(def(predictor.NameDiabetes), stubClassifier{positive: true}),
		predictor.New(def(predictor.NameHeart), nil),
		predictor.New(def(predictor.NameParkinsons), stubClassifier{err: errors.New("model crashed")}),
	)

	s, err := New(Deps{
		Config:     cfg,
		Extractor:  ocr.NewExtractor(fakeEngine{text: opts.text, err: opts.ocrErr}, ocr.ExtractorOptions{MaxPixels: opts.maxPixels}, nil),
		Uploads:    store,
		Predictors: reg,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
}

// pngBytes encodes a small label-like image.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if y > 15 && y < 25 && x > 10 && x < 50 {
				c = color.RGBA{0, 0, 0, 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("New should fail without dependencies")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testOptions{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	decodeJSON(t, w, &resp)
	if resp.Status != "ok" || resp.Service != "nutrilabel" {
		t.Errorf("unexpected health %+v", resp)
	}
	if !resp.OCR.Available {
		t.Error("fake engine should report available")
	}
	want := map[string]bool{
		predictor.NameDiabetes:   true,
		predictor.NameHeart:      false,
		predictor.NameParkinsons: true,
	}
	for name, avail := range want {
		if resp.Predictors[name] != avail {
			t.Errorf("predictors[%s] = %v, want %v", name, resp.Predictors[name], avail)
		}
	}
}

func TestHomePage(t *testing.T) {
	s := newTestServer(t, testOptions{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"/nutrition", "Diabetes Prediction", "Heart Disease Prediction", "model not loaded"} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
}

func TestNutritionPage(t *testing.T) {
	s := newTestServer(t, testOptions{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/nutrition?disease=heart", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Limits for heart") {
		t.Error("page should name the selected condition")
	}
	if !strings.Contains(body, `value="heart" selected`) {
		t.Error("selected condition should be preselected")
	}
	if !strings.Contains(body, "<td>Sodium</td><td>1.5</td>") {
		t.Error("page should show the heart sodium limit")
	}
}

func TestNutritionPage_NoDisease(t *testing.T) {
	s := newTestServer(t, testOptions{})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/nutrition", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<td>Sodium</td><td>2.3</td>") {
		t.Error("page should show default limits")
	}
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t, testOptions{})

	for _, path := range []string{"/static/style.css", "/static/upload.js"} {
		w := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, w.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, testOptions{})

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := serve(s, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, testOptions{})
	s.engine.GET("/panic", func(*gin.Context) { panic("boom") })

	w := serve(s, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp ErrorResponse
	decodeJSON(t, w, &resp)
	if resp.Error == "" {
		t.Error("expected an error message")
	}
}

func TestCORSMiddleware_ExplicitOrigins(t *testing.T) {
	r := gin.New()
	r.Use(corsMiddleware([]string{"http://allowed.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://allowed.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://allowed.example" {
		t.Errorf("allowed origin header = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://other.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Errorf("disallowed origin status = %d, want 403", w.Code)
	}
}

// multipartRequest builds a POST /upload request. An empty filename with
// withFile set sends an image part without a filename.
func multipartRequest(t *testing.T, fields map[string]string, withFile bool, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	if withFile {
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		part.Write(content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
