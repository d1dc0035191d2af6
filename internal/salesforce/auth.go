// File path: internal/salesforce/auth.go
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudblazer/sfexporter/internal/common"
)

// Environment classifies a Salesforce instance URL into the org flavor that
// determines which login hosts to try.
type Environment int

const (
	EnvProduction Environment = iota
	EnvStaging
	EnvDev
)

func (e Environment) String() string {
	switch e {
	case EnvDev:
		return "dev"
	case EnvStaging:
		return "staging"
	default:
		return "production"
	}
}

// ClassifyEnvironment infers the org flavor from substring heuristics over
// the instance URL. Developer-edition markers win over sandbox markers.
func ClassifyEnvironment(instanceURL string) Environment {
	lowered := strings.ToLower(instanceURL)
	switch {
	case strings.Contains(lowered, "dev-ed"),
		strings.Contains(lowered, "develop.my.salesforce.com"),
		strings.Contains(lowered, ".develop."):
		return EnvDev
	case strings.Contains(lowered, "test.salesforce.com"),
		strings.Contains(lowered, "sandbox"),
		strings.Contains(lowered, ".cs"):
		return EnvStaging
	default:
		return EnvProduction
	}
}

// loginCandidates returns the ordered login hosts to try for an environment.
// Developer-edition orgs authenticate against the production host; sandboxes
// try the sandbox host first and fall back to production.
func (c *Client) loginCandidates(env Environment) []string {
	switch env {
	case EnvStaging:
		return []string{c.cfg.SandboxLoginURL, c.cfg.ProductionLoginURL}
	default:
		return []string{c.cfg.ProductionLoginURL}
	}
}

// AuthURL builds the authorization-code grant URL for the given instance.
func (c *Client) AuthURL(instanceURL, clientID, redirectURI, state string) string {
	values := url.Values{}
	values.Set("response_type", "code")
	values.Set("client_id", clientID)
	values.Set("redirect_uri", redirectURI)
	values.Set("scope", "api refresh_token offline_access")
	if state != "" {
		values.Set("state", state)
	}
	return strings.TrimRight(instanceURL, "/") + authorizePath + "?" + values.Encode()
}

// PasswordToken acquires an access token with the resource-owner password
// grant, trying each candidate login host in order. A 400 from a non-final
// host is ambiguous (wrong host or bad credentials) and moves on to the next
// candidate; any other failure status is treated as host-correct and aborts.
func (c *Client) PasswordToken(ctx context.Context, creds Credentials) (Token, error) {
	logger := common.Logger()
	env := ClassifyEnvironment(creds.InstanceURL)
	candidates := c.loginCandidates(env)
	logger.Info("salesforce: acquiring token", "environment", env.String(), "candidates", len(candidates))

	payload := url.Values{}
	payload.Set("grant_type", "password")
	payload.Set("client_id", creds.ClientID)
	payload.Set("client_secret", creds.ClientSecret)
	payload.Set("username", creds.Username)
	payload.Set("password", creds.Password)

	var (
		lastStatus int
		lastDetail string
	)
	for i, host := range candidates {
		final := i == len(candidates)-1
		logger.Info("salesforce: trying login host", "host", host)

		token, status, detail, err := c.postToken(ctx, host, payload)
		if err != nil {
			if final {
				logger.Error("salesforce: token request failed", "host", host, "error", err)
				return Token{}, &AuthError{Detail: "network error during authentication", Err: err}
			}
			logger.Warn("salesforce: login host unreachable, trying alternative", "host", host)
			continue
		}
		if status == http.StatusOK {
			logger.Info("salesforce: access token retrieved", "host", host)
			if token.InstanceURL == "" {
				token.InstanceURL = strings.TrimRight(creds.InstanceURL, "/")
			}
			return token, nil
		}
		lastStatus, lastDetail = status, detail
		logger.Warn("salesforce: authentication attempt failed", "host", host, "status", status)
		if status == http.StatusBadRequest && !final {
			continue
		}
		break
	}
	if lastDetail == "" {
		lastDetail = "unknown error"
	}
	return Token{}, authFailure(lastStatus, lastDetail)
}

// ExchangeCode swaps an authorization code for a token. The code was minted
// against a specific login host during the authorize step, so only the single
// inferred host is queried, with no fallback.
func (c *Client) ExchangeCode(ctx context.Context, instanceURL, clientID, clientSecret, code, redirectURI string) (Token, error) {
	logger := common.Logger()
	host := c.cfg.ProductionLoginURL
	if ClassifyEnvironment(instanceURL) == EnvStaging {
		host = c.cfg.SandboxLoginURL
	}
	logger.Info("salesforce: exchanging authorization code", "host", host)

	payload := url.Values{}
	payload.Set("grant_type", "authorization_code")
	payload.Set("client_id", clientID)
	payload.Set("client_secret", clientSecret)
	payload.Set("code", code)
	payload.Set("redirect_uri", redirectURI)

	token, status, detail, err := c.postToken(ctx, host, payload)
	if err != nil {
		return Token{}, &AuthError{Detail: "network error during token exchange", Err: err}
	}
	if status != http.StatusOK {
		logger.Error("salesforce: code exchange failed", "status", status)
		return Token{}, &AuthError{Status: status, Detail: fmt.Sprintf("failed to exchange authorization code for token: %s", detail)}
	}
	if token.InstanceURL == "" {
		token.InstanceURL = strings.TrimRight(instanceURL, "/")
	}
	logger.Info("salesforce: access token retrieved via code exchange")
	return token, nil
}

// postToken posts the form payload to a host's token endpoint. Transport
// failures surface as err; HTTP failures surface as status plus a detail
// string extracted from the error body.
func (c *Client) postToken(ctx context.Context, host string, payload url.Values) (Token, int, string, error) {
	endpoint := strings.TrimRight(host, "/") + tokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return Token{}, 0, "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.queryClient.Do(req)
	if err != nil {
		return Token{}, 0, "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, 0, "", err
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, resp.StatusCode, apiErrorDetail(body), nil
	}
	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return Token{}, 0, "", fmt.Errorf("decode token response: %w", err)
	}
	return token, resp.StatusCode, "", nil
}

// authFailure maps the last observed token-endpoint failure onto a user hint
// keyed by heuristic substrings in the error description.
func authFailure(status int, detail string) *AuthError {
	lowered := strings.ToLower(detail)
	switch {
	case status == http.StatusBadRequest &&
		(strings.Contains(lowered, "invalid_grant") || strings.Contains(lowered, "authentication failure")):
		return &AuthError{Status: status, Detail: fmt.Sprintf(
			"invalid username or password; if IP restrictions are enabled, append your security token to the password: %s", detail)}
	case status == http.StatusBadRequest &&
		(strings.Contains(lowered, "invalid_client_id") || strings.Contains(lowered, "invalid client")):
		return &AuthError{Status: status, Detail: fmt.Sprintf(
			"invalid client id (consumer key); verify the connected app consumer key: %s", detail)}
	case status == http.StatusBadRequest:
		return &AuthError{Status: status, Detail: fmt.Sprintf(
			"%s; check your credentials and connected app configuration", detail)}
	case status == http.StatusUnauthorized:
		return &AuthError{Status: status, Detail: fmt.Sprintf(
			"unauthorized: %s; verify client id, client secret, username, and password", detail)}
	default:
		return &AuthError{Status: status, Detail: detail}
	}
}
