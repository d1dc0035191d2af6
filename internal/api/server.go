// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/cloudblazer/sfexporter/internal/common"
	"github.com/cloudblazer/sfexporter/internal/config"
	"github.com/cloudblazer/sfexporter/internal/drive"
	"github.com/cloudblazer/sfexporter/internal/files"
	"github.com/cloudblazer/sfexporter/internal/lucid"
	"github.com/cloudblazer/sfexporter/internal/run"
	"github.com/cloudblazer/sfexporter/internal/salesforce"
)

// Server is the JSON HTTP surface of the exporter.
type Server struct {
	router chi.Router
	cfg    config.Settings

	sf    *salesforce.Client
	runs  *run.Manager
	files *files.Service
	drive *drive.Client
	lucid *lucid.Client

	sessions *sessionRegistry
}

// NewServer wires the router and handlers around the provided services.
func NewServer(cfg config.Settings, sf *salesforce.Client, runs *run.Manager, fileSvc *files.Service, driveClient *drive.Client, lucidClient *lucid.Client) *Server {
	srv := &Server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		sf:       sf,
		runs:     runs,
		files:    fileSvc,
		drive:    driveClient,
		lucid:    lucidClient,
		sessions: newSessionRegistry(),
	}
	srv.routes()
	common.Logger().Info("api: server ready")
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/runs", s.handleRunStart)
	s.router.Post("/v1/runs/token", s.handleRunStartToken)
	s.router.Get("/v1/runs", s.handleRunHistory)
	s.router.Get("/v1/runs/{id}", s.handleRunStatus)
	s.router.Post("/v1/runs/{id}/terminate", s.handleRunTerminate)
	s.router.Get("/v1/runs/{id}/download/{kind}", s.handleRunDownload)
	s.router.Post("/v1/runs/{id}/drive", s.handleRunDriveUpload)
	s.router.Post("/v1/runs/{id}/lucid", s.handleRunLucidImport)

	s.router.Get("/v1/salesforce/redirect-uri", s.handleSalesforceRedirectURI)
	s.router.Get("/v1/salesforce/auth", s.handleSalesforceAuth)
	s.router.Get("/salesforce-callback", s.handleSalesforceCallback)
	s.router.Get("/v1/salesforce/apps", s.handleSalesforceApps)
	s.router.Post("/v1/salesforce/token", s.handleSalesforceToken)

	s.router.Get("/v1/drive/auth", s.handleDriveAuth)
	s.router.Get("/google-drive-callback", s.handleDriveCallback)

	s.router.Get("/v1/lucid/auth", s.handleLucidAuth)
	s.router.Get("/lucidchart-callback", s.handleLucidCallback)
	s.router.Get("/v1/lucid/documents", s.handleLucidDocuments)

	s.router.Get("/v1/logs", s.handleLogs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": common.LogEntries()})
}

// requestBaseURL reconstructs the externally visible origin for building
// OAuth redirect URIs when none is configured.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
