// File path: internal/lucid/client.go
package lucid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudblazer/sfexporter/internal/common"
)

const (
	defaultOAuthURL = "https://lucid.app/oauth2/authorize"
	defaultTokenURL = "https://api.lucid.co/oauth2/token"
	defaultAPIURL   = "https://api.lucid.co"

	oauthScopes = "lucidchart.document.content offline_access user.profile"
)

// ErrNotConfigured reports missing OAuth2 application settings.
var ErrNotConfigured = errors.New("lucidchart integration not configured; set LUCID_CLIENT_ID and LUCID_CLIENT_SECRET")

// APIError reports a failed Lucidchart API call.
type APIError struct {
	Operation string
	Status    int
	Detail    string
	Err       error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lucid %s: %s: %v", e.Operation, e.Detail, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("lucid %s: status %d: %s", e.Operation, e.Status, e.Detail)
	}
	return fmt.Sprintf("lucid %s: %s", e.Operation, e.Detail)
}

func (e *APIError) Unwrap() error { return e.Err }

// Config carries the OAuth2 application settings and endpoint overrides.
type Config struct {
	ClientID     string
	ClientSecret string

	OAuthURL string
	TokenURL string
	APIURL   string
}

func (c *Config) applyDefaults() {
	if c.OAuthURL == "" {
		c.OAuthURL = defaultOAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = defaultTokenURL
	}
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
}

// Client performs Lucidchart OAuth2 and document calls.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New constructs a client; zero-value credentials leave the integration
// unconfigured and auth calls return ErrNotConfigured.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: 60 * time.Second}}
}

// Configured reports whether OAuth2 application settings are present.
func (c *Client) Configured() bool {
	return c.cfg.ClientID != "" && c.cfg.ClientSecret != ""
}

// AuthURL builds the authorization URL for the document-content scopes.
func (c *Client) AuthURL(redirectURI string) (string, error) {
	if c.cfg.ClientID == "" {
		return "", ErrNotConfigured
	}
	values := url.Values{}
	values.Set("client_id", c.cfg.ClientID)
	values.Set("redirect_uri", redirectURI)
	values.Set("response_type", "code")
	values.Set("scope", oauthScopes)
	return c.cfg.OAuthURL + "?" + values.Encode(), nil
}

// TokenResponse is the subset of the token-endpoint reply the service uses.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// ExchangeCode swaps an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (TokenResponse, error) {
	if !c.Configured() {
		return TokenResponse{}, ErrNotConfigured
	}
	payload := url.Values{}
	payload.Set("code", code)
	payload.Set("client_id", c.cfg.ClientID)
	payload.Set("client_secret", c.cfg.ClientSecret)
	payload.Set("redirect_uri", redirectURI)
	payload.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(payload.Encode()))
	if err != nil {
		return TokenResponse{}, &APIError{Operation: "token", Detail: "build token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, &APIError{Operation: "token", Detail: "network error during token exchange", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return TokenResponse{}, &APIError{Operation: "token", Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}
	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return TokenResponse{}, &APIError{Operation: "token", Detail: "decode token response", Err: err}
	}
	return token, nil
}

// Document is a Lucidchart document listing entry.
type Document struct {
	ID    string `json:"documentId"`
	Title string `json:"title"`
}

// ListDocuments fetches the documents visible to the authorized user.
func (c *Client) ListDocuments(ctx context.Context, accessToken string) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"/documents", nil)
	if err != nil {
		return nil, &APIError{Operation: "list documents", Detail: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Lucid-Api-Version", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Operation: "list documents", Detail: "network error", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Operation: "list documents", Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}
	var docs []Document
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, &APIError{Operation: "list documents", Detail: "decode response", Err: err}
	}
	return docs, nil
}

// CreateDocument creates an empty chart document and returns its identifier
// and browser view URL. The generated CSV still has to be imported through
// the Lucidchart UI; the API does not accept data-import payloads.
func (c *Client) CreateDocument(ctx context.Context, accessToken, title string) (Document, string, error) {
	payload, err := json.Marshal(map[string]string{"title": title, "product": "lucidchart"})
	if err != nil {
		return Document{}, "", &APIError{Operation: "create document", Detail: "encode payload", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/documents", bytes.NewReader(payload))
	if err != nil {
		return Document{}, "", &APIError{Operation: "create document", Detail: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Lucid-Api-Version", "1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Document{}, "", &APIError{Operation: "create document", Detail: "network error", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Document{}, "", &APIError{Operation: "create document", Status: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return Document{}, "", &APIError{Operation: "create document", Detail: "decode response", Err: err}
	}
	viewURL := ViewURL(doc.ID)
	common.Logger().Info("lucid: document created", "document_id", doc.ID)
	return doc, viewURL, nil
}

// ViewURL returns the browser URL for a document.
func ViewURL(documentID string) string {
	return "https://lucid.app/documents/view/" + documentID
}
