// File path: internal/api/handlers_lucid.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/cloudblazer/sfexporter/internal/lucid"
)

func (s *Server) lucidRedirectURI(r *http.Request) string {
	if s.cfg.LucidRedirectURI != "" {
		return s.cfg.LucidRedirectURI
	}
	return requestBaseURL(r) + "/lucidchart-callback"
}

func (s *Server) handleLucidAuth(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.lucid.AuthURL(s.lucidRedirectURI(r))
	if errors.Is(err, lucid.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

func (s *Server) handleLucidCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("authorization denied: %s", errParam))
		return
	}
	code := query.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, errors.New("authorization code missing"))
		return
	}
	token, err := s.lucid.ExchangeCode(r.Context(), code, s.lucidRedirectURI(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	sessionID := s.sessions.addLucid(token.AccessToken)
	http.Redirect(w, r, "/?lucid_session="+sessionID, http.StatusFound)
}

func (s *Server) handleLucidDocuments(w http.ResponseWriter, r *http.Request) {
	token, ok := s.sessions.getLucid(strings.TrimSpace(r.URL.Query().Get("session_id")))
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("lucid session not found or expired"))
		return
	}
	docs, err := s.lucid.ListDocuments(r.Context(), token.accessToken)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	if docs == nil {
		docs = []lucid.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

type lucidImportRequest struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

// handleRunLucidImport creates a Lucidchart document named after the run's
// export artifact. The CSV itself is imported through the Lucidchart UI.
func (s *Server) handleRunLucidImport(w http.ResponseWriter, r *http.Request) {
	var req lucidImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	token, ok := s.sessions.getLucid(strings.TrimSpace(req.SessionID))
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("lucid session not found or expired"))
		return
	}
	path, err := s.runArtifactPath(w, r, chi.URLParam(r, "id"), "lucid")
	if err != nil {
		return // response already written
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	doc, viewURL, err := s.lucid.CreateDocument(r.Context(), token.accessToken, title)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"document_id": doc.ID,
		"title":       doc.Title,
		"view_url":    viewURL,
	})
}
