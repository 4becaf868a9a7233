package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"hyperleaf/app"
	"hyperleaf/domain/result"
	"hyperleaf/internal"
	"hyperleaf/internal/i18n"
	"hyperleaf/models"
	"hyperleaf/ports"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

// Options are the report server settings read from configuration
type Options struct {
	GinMode          string
	DefaultToken     string
	ExportEnabled    bool
	EchartsAssetHost string
}

// Deps are the services the handlers drive
type Deps struct {
	API      ports.PredictionAPI
	Analysis *app.AnalysisService
	Reports  *app.ReportRegistry
	Exporter *app.SnapshotExporter
	Browsers *app.HistoryBrowsers
	I18n     *i18n.Bundle
	Logger   *internal.Logger
}

// Server represents the web server for the HyperLeaf report UI
type Server struct {
	router    *gin.Engine
	templates *template.Template
	print     *PrintRenderer
	opts      Options
	deps      Deps
	logger    *internal.Logger
}

// NewServer parses the embedded templates and wires routes
func NewServer(deps Deps, opts Options) (*Server, error) {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	if deps.Logger == nil {
		deps.Logger = internal.DefaultLogger
	}
	if deps.I18n == nil {
		b, err := i18n.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load catalogs: %w", err)
		}
		deps.I18n = b
	}

	templates, err := parseTemplates(opts.EchartsAssetHost)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.New(),
		templates: templates,
		print:     &PrintRenderer{templates: templates},
		opts:      opts,
		deps:      deps,
		logger:    deps.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// templateFuncs are shared by the live pages and the print document
func templateFuncs(assetHost string) template.FuncMap {
	return template.FuncMap{
		"pct": func(p float64) float64 { return p * 100 },
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return humanize.Time(t)
		},
		"stamp": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
		"percent": result.FormatPercent,
		"fixed": func(v *float64, places int) string {
			return result.FormatFixed(v, places, result.Placeholder)
		},
		"ownerActive": func(scope models.HistoryScope, id int64) bool {
			return scope.IsSet() && int64(scope) == id
		},
		"markdown":    renderMarkdown,
		"echartsJS":   func() string { return strings.TrimRight(assetHost, "/") + "/echarts.min.js" },
		"spectralSVG": spectralPolyline,
	}
}

func parseTemplates(assetHost string) (*template.Template, error) {
	sub, err := fs.Sub(embeddedFiles, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open templates: %w", err)
	}
	names, err := fs.Glob(sub, "*.html")
	if err != nil || len(names) == 0 {
		return nil, fmt.Errorf("no templates found: %v", err)
	}
	t, err := template.New("").Funcs(templateFuncs(assetHost)).ParseFS(sub, names...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	pages := s.router.Group("/", s.requireViewer(), s.withLanguage())
	pages.GET("/", s.handleIndex)
	pages.POST("/analyze", s.handleAnalyze)

	pages.GET("/reports/:id", s.handleReport)
	pages.GET("/reports/:id/print", s.handlePrint)
	pages.POST("/reports/:id/export", s.handleExport)

	pages.GET("/history", s.handleHistory)
	pages.GET("/history/export.xlsx", s.handleHistoryExport)
	pages.GET("/history/:recordID", s.handleHistoryRecord)
}

// Handler exposes the router for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("[ui] listening on %s", addr)
	return s.router.Run(addr)
}
