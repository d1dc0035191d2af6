// File path: internal/salesforce/catalog_test.go
package salesforce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListObjectsFiltersCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/data/v53.0/sobjects/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sobjects":[
                        {"name":"Account","label":"Account","queryable":true},
                        {"name":"__SystemThing","label":"System","queryable":true},
                        {"name":"AccountHistory","label":"History","queryable":false},
                        {"name":"Contact","label":"Contact","queryable":true}
                ]}`))
	}))
	defer server.Close()

	client := New(Config{APIVersion: "v53.0"})
	objects, err := client.ListObjects(context.Background(), "tok", server.URL)
	if err != nil {
		t.Fatalf("list objects: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(objects))
	}
	if objects[0].Name != "Account" || objects[1].Name != "Contact" {
		t.Fatalf("unexpected objects: %+v", objects)
	}
}

func TestListObjectsSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`[{"message":"Session expired or invalid","errorCode":"INVALID_SESSION_ID"}]`))
	}))
	defer server.Close()

	client := New(Config{})
	_, err := client.ListObjects(context.Background(), "stale", server.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", apiErr.Status)
	}
	if apiErr.Detail != "Session expired or invalid" {
		t.Fatalf("unexpected detail %q", apiErr.Detail)
	}
}
