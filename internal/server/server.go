package server

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/nutrilabel/internal/config"
	"github.com/ironsheep/nutrilabel/internal/ocr"
	"github.com/ironsheep/nutrilabel/internal/predictor"
	"github.com/ironsheep/nutrilabel/internal/upload"
)

const serviceName = "nutrilabel"

// Extractor turns a stored label image into raw text.
type Extractor interface {
	ExtractFile(ctx context.Context, path string) (*ocr.Extraction, error)
	Info() ocr.Info
}

// Deps are the process-wide collaborators built at startup. All of them are
// read-only or internally synchronized and shared by every request.
type Deps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Extractor  Extractor
	Uploads    *upload.Store
	Predictors *predictor.Registry
	Version    string
}

// Server holds the gin engine and the dependencies its handlers use.
type Server struct {
	cfg        *config.Config
	log        *zap.Logger
	extractor  Extractor
	uploads    *upload.Store
	predictors *predictor.Registry
	version    string

	engine *gin.Engine
}

// New builds the server and registers all routes.
func New(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Extractor == nil || deps.Uploads == nil || deps.Predictors == nil {
		return nil, fmt.Errorf("server: config, extractor, uploads and predictors are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	s := &Server{
		cfg:        deps.Config,
		log:        deps.Logger,
		extractor:  deps.Extractor,
		uploads:    deps.Uploads,
		predictors: deps.Predictors,
		version:    deps.Version,
	}

	tmpl, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("server: parse templates: %w", err)
	}
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return nil, fmt.Errorf("server: static assets: %w", err)
	}

	r := gin.New()
	r.Use(recovery(s.log))
	r.Use(requestLogger(s.log))
	r.Use(corsMiddleware(s.cfg.Server.CORSOrigins))
	r.SetHTMLTemplate(tmpl)

	s.engine = r
	s.routes(http.FS(static))
	return s, nil
}

func (s *Server) routes(static http.FileSystem) {
	r := s.engine

	r.GET("/health", s.handleHealth)
	r.StaticFS("/static", static)

	r.GET("/", s.handleHome)
	r.GET("/nutrition", s.handleNutritionPage)
	r.POST("/upload", s.handleUpload)

	for _, p := range s.predictors.All() {
		h := s.handlePredictorPage(p)
		r.GET("/"+p.Name(), h)
		r.POST("/"+p.Name(), h)
	}

	api := r.Group("/api")
	{
		api.POST("/predict/:name", s.handleAPIPredict)
	}
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// HTTPServer wraps the handler in an http.Server configured from
// server.port and the read/write timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.engine,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
