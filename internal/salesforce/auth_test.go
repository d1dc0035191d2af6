// File path: internal/salesforce/auth_test.go
package salesforce

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClassifyEnvironment(t *testing.T) {
	cases := []struct {
		url  string
		want Environment
	}{
		{"https://mycompany-dev-ed.my.salesforce.com", EnvDev},
		{"https://mycompany.develop.my.salesforce.com", EnvDev},
		{"https://something.develop.lightning.force.com", EnvDev},
		{"https://test.salesforce.com", EnvStaging},
		{"https://mycompany--sandbox.my.salesforce.com", EnvStaging},
		{"https://mycompany.cs123.my.salesforce.com", EnvStaging},
		{"https://login.salesforce.com", EnvProduction},
		{"https://mycompany.my.salesforce.com", EnvProduction},
		// Developer-edition markers win over sandbox markers.
		{"https://mycompany-dev-ed--sandbox.my.salesforce.com", EnvDev},
		{"", EnvProduction},
	}
	for _, tc := range cases {
		if got := ClassifyEnvironment(tc.url); got != tc.want {
			t.Fatalf("ClassifyEnvironment(%q) = %s, want %s", tc.url, got, tc.want)
		}
	}
}

func tokenServer(t *testing.T, calls *int, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		if r.URL.Path != "/services/oauth2/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestPasswordTokenDevUsesProductionHostOnly(t *testing.T) {
	prodCalls, sandboxCalls := 0, 0
	prod := tokenServer(t, &prodCalls, http.StatusOK, `{"access_token":"tok","instance_url":"https://inst.example"}`)
	defer prod.Close()
	sandbox := tokenServer(t, &sandboxCalls, http.StatusOK, `{"access_token":"wrong"}`)
	defer sandbox.Close()

	client := New(Config{ProductionLoginURL: prod.URL, SandboxLoginURL: sandbox.URL})
	token, err := client.PasswordToken(context.Background(), Credentials{
		Username: "u", Password: "p", InstanceURL: "https://acme-dev-ed.my.salesforce.com",
	})
	if err != nil {
		t.Fatalf("password token: %v", err)
	}
	if token.AccessToken != "tok" {
		t.Fatalf("unexpected token %q", token.AccessToken)
	}
	if prodCalls != 1 || sandboxCalls != 0 {
		t.Fatalf("expected production only, got prod=%d sandbox=%d", prodCalls, sandboxCalls)
	}
}

func TestPasswordTokenSandboxFallsBackOn400(t *testing.T) {
	prodCalls, sandboxCalls := 0, 0
	prod := tokenServer(t, &prodCalls, http.StatusOK, `{"access_token":"tok","instance_url":"https://inst.example"}`)
	defer prod.Close()
	sandbox := tokenServer(t, &sandboxCalls, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"authentication failure"}`)
	defer sandbox.Close()

	client := New(Config{ProductionLoginURL: prod.URL, SandboxLoginURL: sandbox.URL})
	token, err := client.PasswordToken(context.Background(), Credentials{
		Username: "u", Password: "p", InstanceURL: "https://test.salesforce.com",
	})
	if err != nil {
		t.Fatalf("password token: %v", err)
	}
	if token.AccessToken != "tok" {
		t.Fatalf("unexpected token %q", token.AccessToken)
	}
	if sandboxCalls != 1 || prodCalls != 1 {
		t.Fatalf("expected sandbox then production, got sandbox=%d prod=%d", sandboxCalls, prodCalls)
	}
}

func TestPasswordTokenSandboxStopsOnNon400(t *testing.T) {
	prodCalls, sandboxCalls := 0, 0
	prod := tokenServer(t, &prodCalls, http.StatusOK, `{"access_token":"tok"}`)
	defer prod.Close()
	sandbox := tokenServer(t, &sandboxCalls, http.StatusUnauthorized, `{"error":"invalid_client","error_description":"invalid client credentials"}`)
	defer sandbox.Close()

	client := New(Config{ProductionLoginURL: prod.URL, SandboxLoginURL: sandbox.URL})
	_, err := client.PasswordToken(context.Background(), Credentials{
		Username: "u", Password: "p", InstanceURL: "https://acme--sandbox.my.salesforce.com",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", authErr.Status)
	}
	if prodCalls != 0 {
		t.Fatalf("production host should not be tried after a non-400 failure, got %d calls", prodCalls)
	}
}

func TestPasswordTokenTransportErrorFallsThrough(t *testing.T) {
	prodCalls := 0
	prod := tokenServer(t, &prodCalls, http.StatusOK, `{"access_token":"tok","instance_url":"https://inst.example"}`)
	defer prod.Close()
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	client := New(Config{ProductionLoginURL: prod.URL, SandboxLoginURL: deadURL})
	token, err := client.PasswordToken(context.Background(), Credentials{
		Username: "u", Password: "p", InstanceURL: "https://test.salesforce.com",
	})
	if err != nil {
		t.Fatalf("password token: %v", err)
	}
	if token.AccessToken != "tok" || prodCalls != 1 {
		t.Fatalf("expected fallback success, token=%q prod=%d", token.AccessToken, prodCalls)
	}
}

func TestPasswordTokenTransportErrorOnFinalHostIsFatal(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	client := New(Config{ProductionLoginURL: deadURL, SandboxLoginURL: deadURL})
	_, err := client.PasswordToken(context.Background(), Credentials{
		Username: "u", Password: "p", InstanceURL: "https://login.salesforce.com",
	})
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %v", err)
	}
	if authErr.Err == nil {
		t.Fatal("expected wrapped transport error")
	}
}

func TestAuthFailureHints(t *testing.T) {
	cases := []struct {
		status int
		detail string
		want   string
	}{
		{400, "invalid_grant: authentication failure", "security token"},
		{400, "invalid_client_id: client identifier invalid", "consumer key"},
		{400, "something else entirely", "connected app configuration"},
		{401, "bad secret", "client id, client secret"},
		{500, "server error", "server error"},
	}
	for _, tc := range cases {
		err := authFailure(tc.status, tc.detail)
		if err.Status != tc.status {
			t.Fatalf("status %d: got %d", tc.status, err.Status)
		}
		if !strings.Contains(err.Detail, tc.want) {
			t.Fatalf("authFailure(%d, %q) = %q, want substring %q", tc.status, tc.detail, err.Detail, tc.want)
		}
	}
}

func TestExchangeCodeUsesSandboxHostForStaging(t *testing.T) {
	sandboxCalls := 0
	var grantType string
	sandbox := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sandboxCalls++
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		grantType = r.PostFormValue("grant_type")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","instance_url":"https://inst.example"}`))
	}))
	defer sandbox.Close()

	client := New(Config{ProductionLoginURL: "http://invalid.invalid", SandboxLoginURL: sandbox.URL})
	token, err := client.ExchangeCode(context.Background(), "https://test.salesforce.com", "cid", "secret", "code123", "http://localhost/cb")
	if err != nil {
		t.Fatalf("exchange code: %v", err)
	}
	if token.AccessToken != "tok" || sandboxCalls != 1 {
		t.Fatalf("unexpected exchange result token=%q calls=%d", token.AccessToken, sandboxCalls)
	}
	if grantType != "authorization_code" {
		t.Fatalf("expected authorization_code grant, got %q", grantType)
	}
}
