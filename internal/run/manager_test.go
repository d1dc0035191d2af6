// File path: internal/run/manager_test.go
package run

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloudblazer/sfexporter/internal/extract"
	"github.com/cloudblazer/sfexporter/internal/files"
	"github.com/cloudblazer/sfexporter/internal/salesforce"
)

func newTestFiles(t *testing.T) *files.Service {
	t.Helper()
	dir := t.TempDir()
	svc, err := files.NewService(filepath.Join(dir, "input"), filepath.Join(dir, "output"))
	if err != nil {
		t.Fatalf("new files service: %v", err)
	}
	return svc
}

// fakeOrg serves the REST endpoints one extraction run touches.
func fakeOrg(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/sobjects/"):
			_, _ = w.Write([]byte(`{"sobjects":[
                                {"name":"Account","queryable":true},
                                {"name":"Contact","queryable":true}
                        ]}`))
		case strings.HasSuffix(r.URL.Path, "/describe"):
			_, _ = w.Write([]byte(`{"fields":[
                                {"name":"Id","type":"id","length":18},
                                {"name":"Name","type":"string","length":255}
                        ]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`[{"message":"not found"}]`))
		}
	}))
}

func waitForTerminal(t *testing.T, m *Manager, id string) State {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		state, err := m.Status(context.Background(), id)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if !state.Running {
			return state
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s did not reach a terminal state", id)
	return State{}
}

func TestStartValidation(t *testing.T) {
	m := NewManager(salesforce.New(salesforce.Config{}), newTestFiles(t), nil, 10)

	if _, err := m.Start(Request{Flow: FlowPassword}); err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if _, err := m.Start(Request{Flow: FlowToken}); err == nil {
		t.Fatal("expected error for missing token")
	}
	if _, err := m.Start(Request{Flow: "carrier-pigeon"}); err == nil {
		t.Fatal("expected error for unknown flow")
	}
}

func TestTokenFlowRunCompletes(t *testing.T) {
	org := fakeOrg(t)
	defer org.Close()

	fileSvc := newTestFiles(t)
	m := NewManager(salesforce.New(salesforce.Config{APIVersion: "v53.0"}), fileSvc, nil, 100)

	id, err := m.Start(Request{Flow: FlowToken, AccessToken: "tok", InstanceURL: org.URL, AppLabel: "Sales"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	state := waitForTerminal(t, m, id)
	if state.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", state.Status, state.Message)
	}
	if state.ObjectsProcessed != 2 || state.FieldsExtracted != 4 {
		t.Fatalf("unexpected counts: %+v", state)
	}
	if !fileSvc.FileExists(state.MetadataPath) || !fileSvc.FileExists(state.ExportPath) {
		t.Fatalf("expected artifacts on disk: %+v", state)
	}
	joined := strings.Join(state.Logs, "\n")
	if !strings.Contains(joined, "Processing object 1/2: Account") {
		t.Fatalf("expected progress messages, got %q", joined)
	}
	if !strings.Contains(joined, "Metadata extraction completed. Processed 2 objects, extracted 4 field records.") {
		t.Fatalf("expected summary message, got %q", joined)
	}
}

func TestPasswordFlowAuthFailureEndsInError(t *testing.T) {
	login := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad secret"}`))
	}))
	defer login.Close()

	m := NewManager(salesforce.New(salesforce.Config{ProductionLoginURL: login.URL, SandboxLoginURL: login.URL}), newTestFiles(t), nil, 100)
	id, err := m.Start(Request{
		Flow:        FlowPassword,
		Credentials: salesforce.Credentials{Username: "u", Password: "p", InstanceURL: "https://login.salesforce.com"},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	state := waitForTerminal(t, m, id)
	if state.Status != StatusError {
		t.Fatalf("expected error state, got %s", state.Status)
	}
	if !strings.Contains(state.Message, "bad secret") {
		t.Fatalf("expected auth detail in message, got %q", state.Message)
	}
}

func TestTerminateErrors(t *testing.T) {
	m := NewManager(salesforce.New(salesforce.Config{}), newTestFiles(t), nil, 10)
	if err := m.Terminate("nope"); err != ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := m.Status(context.Background(), "nope"); err != ErrRunNotFound {
		t.Fatalf("expected ErrRunNotFound from status, got %v", err)
	}
}

func TestCountObjects(t *testing.T) {
	rows := []extract.MetadataRow{
		{Object: "Account"}, {Object: "Account"}, {Object: "Contact"}, {Object: "Lead"},
	}
	if got := countObjects(rows); got != 3 {
		t.Fatalf("countObjects = %d, want 3", got)
	}
	if got := countObjects(nil); got != 0 {
		t.Fatalf("countObjects(nil) = %d, want 0", got)
	}
}
