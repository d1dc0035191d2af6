// File path: internal/salesforce/config.go
package salesforce

import (
	"os"
	"strings"
	"time"
)

const (
	defaultProductionLoginURL = "https://login.salesforce.com"
	defaultSandboxLoginURL    = "https://test.salesforce.com"
	defaultAPIVersion         = "v53.0"

	authorizePath = "/services/oauth2/authorize"
	tokenPath     = "/services/oauth2/token"
)

// Config carries client tunables. Login URLs are overridable so tests can
// point the resolver at local servers.
type Config struct {
	APIVersion         string
	ProductionLoginURL string
	SandboxLoginURL    string

	// QueryTimeout bounds token and SOQL query calls; ListTimeout bounds the
	// heavier catalog, describe, and apps-listing calls.
	QueryTimeout time.Duration
	ListTimeout  time.Duration
}

// LoadConfig resolves client configuration from the environment.
func LoadConfig() Config {
	cfg := Config{
		APIVersion:         strings.TrimSpace(os.Getenv("SALESFORCE_API_VERSION")),
		ProductionLoginURL: strings.TrimSpace(os.Getenv("SALESFORCE_PRODUCTION_LOGIN_URL")),
		SandboxLoginURL:    strings.TrimSpace(os.Getenv("SALESFORCE_SANDBOX_LOGIN_URL")),
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.APIVersion) == "" {
		c.APIVersion = defaultAPIVersion
	}
	if strings.TrimSpace(c.ProductionLoginURL) == "" {
		c.ProductionLoginURL = defaultProductionLoginURL
	}
	if strings.TrimSpace(c.SandboxLoginURL) == "" {
		c.SandboxLoginURL = defaultSandboxLoginURL
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 30 * time.Second
	}
	if c.ListTimeout <= 0 {
		c.ListTimeout = 60 * time.Second
	}
}
