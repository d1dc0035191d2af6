// File path: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	productionLoginURL = "https://login.salesforce.com"
	sandboxLoginURL    = "https://test.salesforce.com"
)

// Settings holds the application configuration resolved from the environment.
type Settings struct {
	AppName string
	Addr    string

	// Salesforce connection defaults. Credentials are optional; when unset the
	// web form must supply them per request.
	SalesforceAPIVersion  string
	SalesforceInstanceURL string
	SalesforceClientID    string
	SalesforceSecret      string
	SalesforceRedirectURI string

	// Google Drive OAuth2 application settings.
	GoogleClientID    string
	GoogleSecret      string
	GoogleRedirectURI string

	// Lucidchart OAuth2 application settings.
	LucidClientID    string
	LucidSecret      string
	LucidRedirectURI string

	// Artifact storage.
	InputDir         string
	OutputDir        string
	RetentionDays    int
	RetentionCron    string
	MaxRunLogEntries int

	// Run-history database.
	HistoryPath string
}

// Load resolves settings from environment variables, applying defaults that
// mirror a local development deployment.
func Load() (Settings, error) {
	s := Settings{
		AppName:               envOr("APP_NAME", "Salesforce Data Model Exporter"),
		Addr:                  envOr("ADDR", ":8000"),
		SalesforceAPIVersion:  envOr("SALESFORCE_API_VERSION", "v53.0"),
		SalesforceClientID:    strings.TrimSpace(os.Getenv("SALESFORCE_CLIENT_ID")),
		SalesforceSecret:      strings.TrimSpace(os.Getenv("SALESFORCE_CLIENT_SECRET")),
		SalesforceRedirectURI: strings.TrimSpace(os.Getenv("SALESFORCE_REDIRECT_URI")),
		GoogleClientID:        strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		GoogleSecret:          strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
		GoogleRedirectURI:     strings.TrimSpace(os.Getenv("GOOGLE_REDIRECT_URI")),
		LucidClientID:         strings.TrimSpace(os.Getenv("LUCIDCHART_CLIENT_ID")),
		LucidSecret:           strings.TrimSpace(os.Getenv("LUCIDCHART_CLIENT_SECRET")),
		LucidRedirectURI:      strings.TrimSpace(os.Getenv("LUCIDCHART_REDIRECT_URI")),
		InputDir:              envOr("INPUT_DIR", "input"),
		OutputDir:             envOr("OUTPUT_DIR", "output"),
		RetentionCron:         envOr("ARTIFACT_RETENTION_CRON", "0 3 * * *"),
		HistoryPath:           envOr("HISTORY_DB_PATH", "data/history.db"),
	}

	s.SalesforceInstanceURL = strings.TrimSpace(os.Getenv("SALESFORCE_INSTANCE_URL"))
	if s.SalesforceInstanceURL == "" {
		s.SalesforceInstanceURL = defaultInstanceURL()
	}

	var err error
	if s.MaxRunLogEntries, err = envInt("MAX_LOG_ENTRIES", 1000); err != nil {
		return Settings{}, err
	}
	if s.RetentionDays, err = envInt("ARTIFACT_RETENTION_DAYS", 30); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func defaultInstanceURL() string {
	switch strings.ToUpper(strings.TrimSpace(os.Getenv("DEPLOYMENT_ENV"))) {
	case "PROD", "PRODUCTION":
		return productionLoginURL
	case "STG", "STAGING":
		return sandboxLoginURL
	default:
		return productionLoginURL
	}
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if parsed <= 0 {
		return fallback, nil
	}
	return parsed, nil
}
