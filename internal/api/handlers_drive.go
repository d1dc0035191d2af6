// File path: internal/api/handlers_drive.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/cloudblazer/sfexporter/internal/drive"
)

func (s *Server) driveRedirectURI(r *http.Request) string {
	if s.cfg.GoogleRedirectURI != "" {
		return s.cfg.GoogleRedirectURI
	}
	return requestBaseURL(r) + "/google-drive-callback"
}

func (s *Server) handleDriveAuth(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.drive.AuthURL(s.driveRedirectURI(r))
	if errors.Is(err, drive.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL})
}

func (s *Server) handleDriveCallback(w http.ResponseWriter, r *http.Request) {
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
	token, err := s.drive.ExchangeCode(r.Context(), code, s.driveRedirectURI(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	sessionID := s.sessions.addDrive(token.AccessToken)
	http.Redirect(w, r, "/?drive_session="+sessionID, http.StatusFound)
}

type driveUploadRequest struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
}

// handleRunDriveUpload pushes one of a run's CSV artifacts to Google Drive.
func (s *Server) handleRunDriveUpload(w http.ResponseWriter, r *http.Request) {
	var req driveUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	token, ok := s.sessions.getDrive(strings.TrimSpace(req.SessionID))
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("drive session not found or expired"))
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = "lucid"
	}
	path, err := s.runArtifactPath(w, r, chi.URLParam(r, "id"), kind)
	if err != nil {
		return // response already written
	}
	result, err := s.drive.UploadFile(r.Context(), path, token.accessToken)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
