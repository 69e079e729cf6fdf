package server

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"net/http"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/eufmd/pprcost/pkg/episystem"
	"github.com/eufmd/pprcost/pkg/population"
	"github.com/eufmd/pprcost/pkg/scenario"
)

//go:embed methodology.md
var methodologyMarkdown []byte

// Server is the local server for interactive scenario exploration. The
// project is loaded once; every request evaluates against that immutable
// data.
type Server struct {
	projectPath string
	port        int
	log         logr.Logger

	cfg         scenario.Config
	data        *population.Dataset
	catalog     *episystem.Catalog
	methodology []byte
}

// New creates a server for the given project directory.
func New(projectPath string, port int, log logr.Logger) *Server {
	return &Server{
		projectPath: projectPath,
		port:        port,
		log:         log.WithName("server"),
		catalog:     episystem.Default(),
	}
}

// Load reads the project's scenario and population tables and renders the
// methodology page.
func (s *Server) Load() error {
	cfg, err := scenario.LoadProject(s.projectPath)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}
	data, err := population.NewLoader(s.log).LoadDataset(s.projectPath)
	if err != nil {
		return fmt.Errorf("loading population: %w", err)
	}
	s.cfg = data.ApplyStability(cfg)
	s.data = data

	var buf bytes.Buffer
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert(methodologyMarkdown, &buf); err != nil {
		return fmt.Errorf("rendering methodology: %w", err)
	}
	s.methodology = buf.Bytes()

	s.log.Info("project loaded", "path", s.projectPath, "scenario", s.cfg.Name,
		"national_records", len(data.National), "subregional_records", len(data.Subregional))
	return nil
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/scenario", s.handleScenario)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("POST /api/evaluate", s.handleEvaluate)
	mux.HandleFunc("GET /api/bands", s.handleBands)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /methodology", s.handleMethodology)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return s.withRequestID(mux)
}

// Start loads the project and launches the HTTP server.
func (s *Server) Start() error {
	if err := s.Load(); err != nil {
		return err
	}
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("PPR cost server starting", "url", fmt.Sprintf("http://localhost%s", addr),
		"project", filepath.Clean(s.projectPath))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html><head><title>PPR Vaccination Cost</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>PPR Vaccination Cost</h1>
<p>Scenario: %s</p>
<p><a style="color:#8cf" href="/methodology">Methodology</a> &middot; <a style="color:#8cf" href="/api/scenario">Scenario JSON</a></p>
</div>
</body></html>`, html.EscapeString(s.cfg.Name))
}

func (s *Server) handleMethodology(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>Methodology</title></head>
<body style="max-width:48rem;margin:2rem auto;font-family:system-ui">
`)
	w.Write(s.methodology)
	fmt.Fprint(w, "</body></html>")
}
