package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/nutrilabel/internal/imaging"
	"github.com/ironsheep/nutrilabel/internal/nutrition"
	"github.com/ironsheep/nutrilabel/internal/ocr"
	"github.com/ironsheep/nutrilabel/internal/predictor"
	"github.com/ironsheep/nutrilabel/internal/upload"
)

// Upload error messages. Clients match on these strings.
const (
	msgNoImage       = "No image provided"
	msgEmptyFilename = "Empty filename"
	msgTooLarge      = "Image exceeds upload limit"
)

// numberFormatHint is shown on the predictor pages under input errors.
const numberFormatHint = "Enter plain decimal numbers such as 120, 0.5 or -3.25. " +
	"Exponents (1e3), a leading point (.5) and inf are not accepted."

// navLink is a predictor entry in the page navigation.
type navLink struct {
	Name      string
	Title     string
	Available bool
}

func (s *Server) nav() []navLink {
	preds := s.predictors.All()
	links := make([]navLink, len(preds))
	for i, p := range preds {
		links[i] = navLink{Name: p.Name(), Title: p.Definition().Title, Available: p.Available()}
	}
	return links
}

// handleHome renders the landing page.
func (s *Server) handleHome(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", gin.H{
		"Title":      "Health Checker",
		"Predictors": s.nav(),
	})
}

type limitRow struct {
	Nutrient nutrition.Nutrient
	Grams    float64
}

// handleNutritionPage renders the upload form. The optional disease query
// parameter preselects a limit table; unknown tags show the default limits.
func (s *Server) handleNutritionPage(c *gin.Context) {
	disease := c.Query("disease")

	limits := nutrition.LimitsFor(disease)
	rows := make([]limitRow, 0, len(limits))
	for _, n := range nutrition.Nutrients {
		if v, ok := limits[n]; ok {
			rows = append(rows, limitRow{Nutrient: n, Grams: v})
		}
	}

	c.HTML(http.StatusOK, "nutrition.html", gin.H{
		"Title":      "Nutrition Checker",
		"Predictors": s.nav(),
		"Disease":    disease,
		"Diseases":   nutrition.Diseases(),
		"Limits":     rows,
	})
}

type uploadForm struct {
	Image *multipart.FileHeader `form:"image" binding:"required"`
}

// UploadResponse is the JSON answer of POST /upload. Disease echoes the
// submitted form value and is null when the field was absent.
type UploadResponse struct {
	Nutrition  nutrition.Readings   `json:"nutrition"`
	Validation nutrition.Validation `json:"validation"`
	Disease    *string              `json:"disease"`
}

// handleUpload stores the image, extracts its text, parses nutrients and
// validates them against the selected disease's limits.
//
// OCR failures are logged and produce an empty nutrient mapping rather than
// an error response.
func (s *Server) handleUpload(c *gin.Context) {
	maxBytes := s.cfg.Upload.MaxBytes
	if c.Request.ContentLength > maxBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			abortWithError(c, http.StatusRequestEntityTooLarge, msgTooLarge)
		case hasEmptyFilePart(c, "image"):
			abortWithError(c, http.StatusBadRequest, msgEmptyFilename)
		default:
			abortWithError(c, http.StatusBadRequest, msgNoImage)
		}
		return
	}

	var disease *string
	if v, ok := c.GetPostForm("disease"); ok {
		disease = &v
	}

	path, err := s.uploads.Save(form.Image)
	if err != nil {
		if errors.Is(err, upload.ErrEmptyFilename) {
			abortWithError(c, http.StatusBadRequest, msgEmptyFilename)
			return
		}
		s.log.Error("failed to store upload", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to store image")
		return
	}
	defer func() {
		if err := s.uploads.Release(path); err != nil {
			s.log.Warn("failed to release upload", zap.String("path", path), zap.Error(err))
		}
	}()

	text := s.extractText(c, path)
	readings := nutrition.Parse(text)

	tag := ""
	if disease != nil {
		tag = *disease
	}

	c.JSON(http.StatusOK, UploadResponse{
		Nutrition:  readings,
		Validation: nutrition.ValidateFor(readings, tag),
		Disease:    disease,
	})
}

// hasEmptyFilePart reports whether the multipart form carried a part named
// field without a filename. Such parts are parsed as plain values, so a text
// field of that name is reported too.
func hasEmptyFilePart(c *gin.Context, field string) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	_, ok := form.Value[field]
	return ok
}

// extractText returns "" when the file is not a decodable image or OCR fails.
func (s *Server) extractText(c *gin.Context, path string) string {
	info, err := imaging.Inspect(path)
	if err != nil {
		s.log.Warn("unreadable upload", zap.String("path", path), zap.Error(err))
		return ""
	}
	s.log.Debug("upload stored",
		zap.String("path", path),
		zap.String("format", info.Format),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Int64("bytes", info.FileSizeBytes))

	if limit := s.cfg.OCR.MaxPixels; limit > 0 && info.Width*info.Height > limit {
		s.log.Warn("upload too large for OCR",
			zap.String("path", path),
			zap.Int("width", info.Width),
			zap.Int("height", info.Height),
			zap.Int("max_pixels", limit))
		return ""
	}

	ext, err := s.extractor.ExtractFile(c.Request.Context(), path)
	if err != nil {
		s.log.Warn("text extraction failed", zap.String("path", path), zap.Error(err))
		return ""
	}
	s.logExtraction(path, ext)
	return ext.Text
}

func (s *Server) logExtraction(path string, ext *ocr.Extraction) {
	s.log.Debug("text extracted",
		zap.String("path", path),
		zap.Bool("cached", ext.Cached),
		zap.Uint8("threshold", ext.Threshold),
		zap.Bool("scaled", ext.Scaled),
		zap.Bool("inverted", ext.Inverted),
		zap.Int("words", ext.Words),
		zap.Float64("confidence", ext.Confidence),
		zap.Int("chars", len(ext.Text)))
}

// predictStatus maps a prediction error to an HTTP status.
func predictStatus(err error) int {
	var inErr *predictor.InputError
	var mErr *predictor.ModelError
	switch {
	case errors.As(err, &inErr):
		return http.StatusBadRequest
	case errors.Is(err, predictor.ErrModelUnavailable), errors.As(err, &mErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handlePredictorPage serves the form of one predictor. POST submissions are
// classified and the diagnosis, or the error, is rendered inline.
func (s *Server) handlePredictorPage(p *predictor.Predictor) gin.HandlerFunc {
	def := p.Definition()
	return func(c *gin.Context) {
		data := gin.H{
			"Title":      def.Title,
			"Predictors": s.nav(),
			"Name":       def.Name,
			"Fields":     def.Fields,
			"Available":  p.Available(),
			"Values":     map[string]string{},
		}

		if c.Request.Method != http.MethodPost {
			c.HTML(http.StatusOK, "predict.html", data)
			return
		}

		values := make(map[string]string, len(def.Fields))
		for _, f := range def.Fields {
			if v, ok := c.GetPostForm(f); ok {
				values[f] = v
			}
		}
		data["Values"] = values

		pred, err := p.Predict(c.Request.Context(), values)
		if err != nil {
			status := predictStatus(err)
			if status != http.StatusBadRequest {
				s.log.Warn("prediction failed", zap.String("predictor", def.Name), zap.Error(err))
			}
			data["Error"] = "Error processing input data: " + err.Error()
			if status == http.StatusBadRequest {
				data["Hint"] = numberFormatHint
			}
			c.HTML(status, "predict.html", data)
			return
		}

		data["Diagnosis"] = pred.Diagnosis
		data["Positive"] = pred.Positive
		c.HTML(http.StatusOK, "predict.html", data)
	}
}

// handleAPIPredict is the JSON variant of the predictor forms. Numbers and
// numeric strings are accepted for every field.
func (s *Server) handleAPIPredict(c *gin.Context) {
	p, ok := s.predictors.Get(c.Param("name"))
	if !ok {
		abortWithError(c, http.StatusNotFound, "Unknown predictor")
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	pred, err := p.Predict(c.Request.Context(), stringValues(body))
	if err != nil {
		var inErr *predictor.InputError
		if errors.As(err, &inErr) {
			details := make([]ErrorDetail, len(inErr.Fields))
			for i, f := range inErr.Fields {
				details[i] = ErrorDetail{Path: f.Field, Info: f.Field + " " + f.Message}
			}
			abortWithDetails(c, http.StatusBadRequest, "Validation failed", details)
			return
		}
		s.log.Warn("prediction failed", zap.String("predictor", p.Name()), zap.Error(err))
		abortWithError(c, predictStatus(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, pred)
}

// stringValues converts decoded JSON values to form-style strings. null
// becomes "" and any other non-numeric value fails validation as text.
func stringValues(body map[string]any) map[string]string {
	out := make(map[string]string, len(body))
	for k, v := range body {
		switch t := v.(type) {
		case nil:
			out[k] = ""
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case string:
			out[k] = t
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}

// HealthResponse is the JSON answer of GET /health.
type HealthResponse struct {
	Status     string          `json:"status"`
	Service    string          `json:"service"`
	Version    string          `json:"version,omitempty"`
	OCR        ocr.Info        `json:"ocr"`
	Predictors map[string]bool `json:"predictors"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Service:    serviceName,
		Version:    s.version,
		OCR:        s.extractor.Info(),
		Predictors: s.predictors.Status(),
	})
}
