package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/nutrilabel/internal/config"
	"github.com/ironsheep/nutrilabel/internal/logger"
	"github.com/ironsheep/nutrilabel/internal/ocr"
	"github.com/ironsheep/nutrilabel/internal/predictor"
	"github.com/ironsheep/nutrilabel/internal/server"
	"github.com/ironsheep/nutrilabel/internal/upload"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and --help before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("nutrilabel %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	defaultConfig := os.Getenv("NUTRILABEL_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "config.yaml"
	}
	configPath := flag.String("config", defaultConfig, "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "nutrilabel: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("nutrilabel - nutrition label checker and disease risk predictors")
	fmt.Println()
	fmt.Println("Usage: nutrilabel [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config <path>   Configuration file (default config.yaml)")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  NUTRILABEL_CONFIG=<path>          Configuration file")
	fmt.Println("  NUTRILABEL_SERVER_PORT=8080       Override any key, '.' becomes '_'")
	fmt.Println("  NUTRILABEL_APP_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println()
	fmt.Println("A .env file in the working directory is loaded first when present.")
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	logFormat := cfg.App.LogFormat
	if cfg.IsDevelopment() {
		logFormat = "console"
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(cfg.App.LogLevel, logFormat)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting nutrilabel",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("env", cfg.App.Env))

	uploads, err := upload.NewStore(cfg.Upload.Dir, cfg.Upload.Retain)
	if err != nil {
		return err
	}

	engine := ocr.NewTesseract(ocr.TesseractOptions{
		Language:       cfg.OCR.Language,
		TessdataPrefix: cfg.OCR.TessdataPrefix,
		PageSegMode:    cfg.OCR.PageSegMode,
	})
	if info := engine.Info(); info.Available {
		log.Info("OCR engine ready",
			zap.String("tesseract", info.Version),
			zap.String("language", info.Language))
	} else {
		log.Warn("OCR engine unavailable, uploads will return no nutrients",
			zap.String("error", info.Error))
	}

	extractor := ocr.NewExtractor(engine, ocr.ExtractorOptions{
		MinWidth:       cfg.OCR.MinWidth,
		MaxPixels:      cfg.OCR.MaxPixels,
		DetectPolarity: cfg.OCR.DetectPolarity,
		Cache:          ocr.NewCache(cfg.OCR.CacheTTL, cfg.OCR.CacheCleanup),
	}, log.Named("ocr"))

	predictors := predictor.Load(cfg.Predictors, log.Named("predictor"))

	srv, err := server.New(server.Deps{
		Config:     cfg,
		Logger:     log.Named("http"),
		Extractor:  extractor,
		Uploads:    uploads,
		Predictors: predictors,
		Version:    Version,
	})
	if err != nil {
		return err
	}

	httpServer := srv.HTTPServer()
	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	log.Info("HTTP server stopped gracefully")
	return nil
}
