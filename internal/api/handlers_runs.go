// File path: internal/api/handlers_runs.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/cloudblazer/sfexporter/internal/run"
	"github.com/cloudblazer/sfexporter/internal/salesforce"
)

type startRunRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	InstanceURL  string `json:"instance_url"`
	AppID        string `json:"app_id"`
	AppLabel     string `json:"app_label"`
	Namespace    string `json:"namespace"`
}

func (s *Server) handleRunStart(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	creds := salesforce.Credentials{
		ClientID:     firstNonEmpty(req.ClientID, s.cfg.SalesforceClientID),
		ClientSecret: firstNonEmpty(req.ClientSecret, s.cfg.SalesforceSecret),
		Username:     strings.TrimSpace(req.Username),
		Password:     req.Password,
		InstanceURL:  firstNonEmpty(req.InstanceURL, s.cfg.SalesforceInstanceURL),
	}
	if !strings.HasPrefix(creds.InstanceURL, "https://") {
		writeError(w, http.StatusBadRequest, errors.New("instance_url must use https"))
		return
	}
	id, err := s.runs.Start(run.Request{
		Flow:        run.FlowPassword,
		Credentials: creds,
		AppID:       strings.TrimSpace(req.AppID),
		AppLabel:    strings.TrimSpace(req.AppLabel),
		Namespace:   strings.TrimSpace(req.Namespace),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": id, "status": run.StatusStarting})
}

type startTokenRunRequest struct {
	SessionID string `json:"session_id"`
	AppID     string `json:"app_id"`
	AppLabel  string `json:"app_label"`
	Namespace string `json:"namespace"`
}

func (s *Server) handleRunStartToken(w http.ResponseWriter, r *http.Request) {
	var req startTokenRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	sess, ok := s.sessions.getSalesforce(strings.TrimSpace(req.SessionID))
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("salesforce session not found or expired"))
		return
	}
	id, err := s.runs.Start(run.Request{
		Flow:        run.FlowToken,
		AccessToken: sess.accessToken,
		InstanceURL: sess.instanceURL,
		AppID:       strings.TrimSpace(req.AppID),
		AppLabel:    strings.TrimSpace(req.AppLabel),
		Namespace:   strings.TrimSpace(req.Namespace),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": id, "status": run.StatusStarting})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := s.runs.Status(r.Context(), id)
	if errors.Is(err, run.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	payload := map[string]interface{}{
		"run":            state,
		"metadata_ready": state.MetadataPath != "" && s.files.FileExists(state.MetadataPath),
		"lucid_ready":    state.ExportPath != "" && s.files.FileExists(state.ExportPath),
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleRunTerminate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.runs.Terminate(id)
	switch {
	case errors.Is(err, run.ErrRunNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, run.ErrRunNotRunning):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"run_id": id, "status": run.StatusTerminating})
	}
}

func (s *Server) handleRunHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	states, err := s.runs.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if states == nil {
		states = []run.State{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": states})
}

func (s *Server) handleRunDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path, err := s.runArtifactPath(w, r, id, chi.URLParam(r, "kind"))
	if err != nil {
		return // response already written
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	w.Header().Set("Content-Type", "text/csv")
	http.ServeFile(w, r, path)
}

// runArtifactPath resolves a run's artifact by kind, writing the error
// response itself when the artifact is unavailable.
func (s *Server) runArtifactPath(w http.ResponseWriter, r *http.Request, id, kind string) (string, error) {
	state, err := s.runs.Status(r.Context(), id)
	if errors.Is(err, run.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, err)
		return "", err
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return "", err
	}
	var path string
	switch kind {
	case "metadata":
		path = state.MetadataPath
	case "lucid":
		path = state.ExportPath
	default:
		err := fmt.Errorf("unknown artifact kind %q", kind)
		writeError(w, http.StatusBadRequest, err)
		return "", err
	}
	if path == "" || !s.files.FileExists(path) {
		err := errors.New("artifact not available")
		writeError(w, http.StatusNotFound, err)
		return "", err
	}
	return path, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
