// File path: internal/drive/client.go
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudblazer/sfexporter/internal/common"
)

const (
	defaultOAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL  = "https://oauth2.googleapis.com/token"
	defaultUploadURL = "https://www.googleapis.com/upload/drive/v3/files?uploadType=multipart"
	defaultFilesURL  = "https://www.googleapis.com/drive/v3/files"

	driveScope = "https://www.googleapis.com/auth/drive.file"
)

// ErrNotConfigured reports missing OAuth2 application settings.
var ErrNotConfigured = errors.New("google drive integration not configured; set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")

// AuthError reports a failed token exchange.
type AuthError struct {
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("drive auth: %s: %v", e.Detail, e.Err)
	}
	return "drive auth: " + e.Detail
}

func (e *AuthError) Unwrap() error { return e.Err }

// UploadError reports a failed file upload.
type UploadError struct {
	Detail string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("drive upload: %s: %v", e.Detail, e.Err)
	}
	return "drive upload: " + e.Detail
}

func (e *UploadError) Unwrap() error { return e.Err }

// Config carries the OAuth2 application settings and endpoint overrides.
type Config struct {
	ClientID     string
	ClientSecret string

	OAuthURL  string
	TokenURL  string
	UploadURL string
	FilesURL  string
}

func (c *Config) applyDefaults() {
	if c.OAuthURL == "" {
		c.OAuthURL = defaultOAuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = defaultTokenURL
	}
	if c.UploadURL == "" {
		c.UploadURL = defaultUploadURL
	}
	if c.FilesURL == "" {
		c.FilesURL = defaultFilesURL
	}
}

// Client performs Google Drive OAuth2 and upload calls.
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

// AuthURL builds the consent-screen URL for the drive.file scope.
func (c *Client) AuthURL(redirectURI string) (string, error) {
	if c.cfg.ClientID == "" {
		return "", ErrNotConfigured
	}
	values := url.Values{}
	values.Set("client_id", c.cfg.ClientID)
	values.Set("redirect_uri", redirectURI)
	values.Set("response_type", "code")
	values.Set("scope", driveScope)
	values.Set("access_type", "offline")
	values.Set("prompt", "consent")
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
		return TokenResponse{}, &AuthError{Detail: "build token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TokenResponse{}, &AuthError{Detail: "network error during token exchange", Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return TokenResponse{}, &AuthError{Detail: fmt.Sprintf("token exchange failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return TokenResponse{}, &AuthError{Detail: "decode token response", Err: err}
	}
	return token, nil
}

// UploadResult identifies an uploaded file.
type UploadResult struct {
	FileID      string `json:"file_id"`
	WebViewLink string `json:"web_view_link"`
}

// UploadFile pushes a CSV artifact to Drive using a multipart/related
// request and resolves the web view link best effort.
func (c *Client) UploadFile(ctx context.Context, path, accessToken string) (UploadResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return UploadResult{}, &UploadError{Detail: "read file " + path, Err: err}
	}
	metadata, err := json.Marshal(map[string]string{"name": filepath.Base(path)})
	if err != nil {
		return UploadResult{}, &UploadError{Detail: "encode metadata", Err: err}
	}

	const boundary = "sfexporter-upload-boundary"
	var body bytes.Buffer
	body.WriteString("--" + boundary + "\r\n")
	body.WriteString("Content-Type: application/json; charset=UTF-8\r\n\r\n")
	body.Write(metadata)
	body.WriteString("\r\n--" + boundary + "\r\n")
	body.WriteString("Content-Type: text/csv\r\n\r\n")
	body.Write(content)
	body.WriteString("\r\n--" + boundary + "--")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.UploadURL, &body)
	if err != nil {
		return UploadResult{}, &UploadError{Detail: "build upload request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+boundary)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, &UploadError{Detail: "network error during upload", Err: err}
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return UploadResult{}, &UploadError{Detail: fmt.Sprintf("upload failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))}
	}
	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return UploadResult{}, &UploadError{Detail: "decode upload response", Err: err}
	}

	result := UploadResult{FileID: uploaded.ID}
	result.WebViewLink = c.webViewLink(ctx, uploaded.ID, accessToken)
	common.Logger().Info("drive: file uploaded", "file_id", result.FileID)
	return result, nil
}

// webViewLink fetches the browser link for an uploaded file; failures leave
// the link empty.
func (c *Client) webViewLink(ctx context.Context, fileID, accessToken string) string {
	infoURL := fmt.Sprintf("%s/%s?fields=webViewLink", c.cfg.FilesURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, infoURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		common.Logger().Warn("drive: web view link lookup failed", "error", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	var info struct {
		WebViewLink string `json:"webViewLink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return ""
	}
	return info.WebViewLink
}
