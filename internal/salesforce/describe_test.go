// File path: internal/salesforce/describe_test.go
package salesforce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDescribeFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/data/v53.0/sobjects/Account/describe" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fields":[
                        {"name":"Id","type":"id","length":18,"precision":0,"scale":0},
                        {"name":"OwnerId","type":"reference","length":18,"referenceTo":["User","Group"],"relationshipName":"Owner"}
                ]}`))
	}))
	defer server.Close()

	client := New(Config{APIVersion: "v53.0"})
	fields, err := client.DescribeFields(context.Background(), "tok", server.URL, "Account")
	if err != nil {
		t.Fatalf("describe fields: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	owner := fields[1]
	if owner.Name != "OwnerId" || owner.Type != "reference" {
		t.Fatalf("unexpected field: %+v", owner)
	}
	if len(owner.ReferenceTo) != 2 || owner.ReferenceTo[1] != "Group" {
		t.Fatalf("unexpected referenceTo: %+v", owner.ReferenceTo)
	}
	if owner.RelationshipName != "Owner" {
		t.Fatalf("unexpected relationship name %q", owner.RelationshipName)
	}
}
