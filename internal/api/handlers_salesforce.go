// File path: internal/api/handlers_salesforce.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudblazer/sfexporter/internal/common"
	"github.com/cloudblazer/sfexporter/internal/salesforce"
)

// salesforceRedirectURI prefers the configured redirect and falls back to the
// request origin.
func (s *Server) salesforceRedirectURI(r *http.Request) string {
	if s.cfg.SalesforceRedirectURI != "" {
		return s.cfg.SalesforceRedirectURI
	}
	return requestBaseURL(r) + "/salesforce-callback"
}

func (s *Server) handleSalesforceRedirectURI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"redirect_uri": s.salesforceRedirectURI(r)})
}

func (s *Server) handleSalesforceAuth(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	instanceURL := firstNonEmpty(query.Get("instance_url"), s.cfg.SalesforceInstanceURL)
	clientID := firstNonEmpty(query.Get("client_id"), s.cfg.SalesforceClientID)
	clientSecret := firstNonEmpty(query.Get("client_secret"), s.cfg.SalesforceSecret)
	if clientID == "" {
		writeError(w, http.StatusBadRequest, errors.New("client_id required"))
		return
	}
	redirectURI := s.salesforceRedirectURI(r)
	state := s.sessions.addPending(pendingAuth{
		instanceURL:  instanceURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	})
	authURL := s.sf.AuthURL(instanceURL, clientID, redirectURI, state)
	writeJSON(w, http.StatusOK, map[string]string{"auth_url": authURL, "state": state})
}

func (s *Server) handleSalesforceCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("authorization denied: %s", query.Get("error_description")))
		return
	}
	code := query.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, errors.New("authorization code missing"))
		return
	}
	pending, ok := s.sessions.takePending(query.Get("state"))
	if !ok {
		writeError(w, http.StatusBadRequest, errors.New("unknown or expired authorization state"))
		return
	}
	token, err := s.sf.ExchangeCode(r.Context(), pending.instanceURL, pending.clientID, pending.clientSecret, code, pending.redirectURI)
	if err != nil {
		var authErr *salesforce.AuthError
		if errors.As(err, &authErr) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	sessionID := s.sessions.addSalesforce(token.AccessToken, token.InstanceURL)
	common.Logger().Info("api: salesforce session established", "instance", token.InstanceURL)
	http.Redirect(w, r, "/?salesforce_session="+sessionID, http.StatusFound)
}

// handleSalesforceApps lists installed apps and packages for the namespace
// picker. Accepts either a session id or an explicit token pair.
func (s *Server) handleSalesforceApps(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	accessToken := strings.TrimSpace(query.Get("access_token"))
	instanceURL := strings.TrimSpace(query.Get("instance_url"))
	if sessionID := strings.TrimSpace(query.Get("session_id")); sessionID != "" {
		sess, ok := s.sessions.getSalesforce(sessionID)
		if !ok {
			writeError(w, http.StatusUnauthorized, errors.New("salesforce session not found or expired"))
			return
		}
		accessToken, instanceURL = sess.accessToken, sess.instanceURL
	}
	if accessToken == "" || instanceURL == "" {
		writeError(w, http.StatusBadRequest, errors.New("session_id or access_token and instance_url required"))
		return
	}
	apps := s.sf.ListApplications(r.Context(), accessToken, instanceURL)
	writeJSON(w, http.StatusOK, map[string]interface{}{"apps": apps})
}

type passwordTokenRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	InstanceURL  string `json:"instance_url"`
}

// handleSalesforceToken performs the password grant outside a run so the UI
// can list apps before starting an extraction.
func (s *Server) handleSalesforceToken(w http.ResponseWriter, r *http.Request) {
	var req passwordTokenRequest
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
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, errors.New("username and password required"))
		return
	}
	token, err := s.sf.PasswordToken(r.Context(), creds)
	if err != nil {
		var authErr *salesforce.AuthError
		if errors.As(err, &authErr) && authErr.Status != 0 {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		writeError(w, http.StatusBadGateway, err)
		return
	}
	sessionID := s.sessions.addSalesforce(token.AccessToken, token.InstanceURL)
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id":   sessionID,
		"instance_url": token.InstanceURL,
	})
}
