// File path: internal/extract/pipeline_test.go
package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudblazer/sfexporter/internal/salesforce"
)

type fakeDescriber struct {
	fields map[string][]salesforce.FieldDescriptor
	failed map[string]error
	calls  []string
}

func (f *fakeDescriber) DescribeFields(ctx context.Context, accessToken, instanceURL, objectName string) ([]salesforce.FieldDescriptor, error) {
	f.calls = append(f.calls, objectName)
	if err, ok := f.failed[objectName]; ok {
		return nil, err
	}
	return f.fields[objectName], nil
}

func objects(names ...string) []salesforce.SchemaObject {
	out := make([]salesforce.SchemaObject, 0, len(names))
	for _, name := range names {
		out = append(out, salesforce.SchemaObject{Name: name, Queryable: true})
	}
	return out
}

func TestExtractFlattensFields(t *testing.T) {
	describer := &fakeDescriber{fields: map[string][]salesforce.FieldDescriptor{
		"Account": {
			{Name: "Id", Type: "id", Length: 18},
			{Name: "OwnerId", Type: "reference", Length: 18, ReferenceTo: []string{"User", "Group"}, RelationshipName: "Owner"},
			{Name: "AnnualRevenue", Type: "currency", Precision: 18, Scale: 2},
		},
	}}
	rows := Extract(context.Background(), describer, "tok", "https://inst", objects("Account"), "", nil, nil)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	id := rows[0]
	if id.Length != "18" || id.Precision != Sentinel || id.Scale != Sentinel {
		t.Fatalf("unexpected numeric cells: %+v", id)
	}
	if id.ReferenceTo != Sentinel || id.RelationshipName != Sentinel {
		t.Fatalf("expected sentinels for non-reference field: %+v", id)
	}
	owner := rows[1]
	if owner.ReferenceTo != "User,Group" || owner.RelationshipName != "Owner" {
		t.Fatalf("unexpected reference cells: %+v", owner)
	}
	revenue := rows[2]
	if revenue.Length != Sentinel || revenue.Precision != "18" || revenue.Scale != "2" {
		t.Fatalf("unexpected revenue cells: %+v", revenue)
	}
}

func TestExtractSkipsFailingObject(t *testing.T) {
	describer := &fakeDescriber{
		fields: map[string][]salesforce.FieldDescriptor{
			"Account": {{Name: "Id", Type: "id", Length: 18}},
			"Contact": {{Name: "Id", Type: "id", Length: 18}},
		},
		failed: map[string]error{"Broken": errors.New("describe exploded")},
	}
	var messages []string
	sink := func(m string) { messages = append(messages, m) }

	rows := Extract(context.Background(), describer, "tok", "https://inst", objects("Account", "Broken", "Contact"), "", nil, sink)
	if len(rows) != 2 {
		t.Fatalf("expected the two healthy objects, got %d rows", len(rows))
	}
	if len(describer.calls) != 3 {
		t.Fatalf("all objects should be attempted, got %v", describer.calls)
	}
	joined := strings.Join(messages, "\n")
	if !strings.Contains(joined, "Warning: error processing object Broken") {
		t.Fatalf("expected per-object warning, got %q", joined)
	}
	if !strings.Contains(joined, "Processed 3 objects, extracted 2 field records.") {
		t.Fatalf("expected completion summary, got %q", joined)
	}
}

func TestExtractStopsOnCancellation(t *testing.T) {
	describer := &fakeDescriber{fields: map[string][]salesforce.FieldDescriptor{
		"Account": {{Name: "Id", Type: "id", Length: 18}},
		"Contact": {{Name: "Id", Type: "id", Length: 18}},
		"Lead":    {{Name: "Id", Type: "id", Length: 18}},
	}}
	polls := 0
	poll := func() bool {
		polls++
		return polls <= 1
	}
	var messages []string
	sink := func(m string) { messages = append(messages, m) }

	rows := Extract(context.Background(), describer, "tok", "https://inst", objects("Account", "Contact", "Lead"), "", poll, sink)
	if len(rows) != 1 {
		t.Fatalf("expected rows from the first object only, got %d", len(rows))
	}
	if len(describer.calls) != 1 {
		t.Fatalf("expected a single describe call, got %v", describer.calls)
	}
	joined := strings.Join(messages, "\n")
	if !strings.Contains(joined, "Processing terminated by user.") {
		t.Fatalf("expected termination message, got %q", joined)
	}
}

func TestExtractNamespaceFilter(t *testing.T) {
	describer := &fakeDescriber{fields: map[string][]salesforce.FieldDescriptor{
		"acme__Invoice__c": {{Name: "Id", Type: "id", Length: 18}},
	}}
	var messages []string
	sink := func(m string) { messages = append(messages, m) }

	rows := Extract(context.Background(), describer, "tok", "https://inst",
		objects("Account", "acme__Invoice__c", "other__Thing__c"), "acme", nil, sink)
	if len(rows) != 1 {
		t.Fatalf("expected only the namespaced object, got %d rows", len(rows))
	}
	if describer.calls[0] != "acme__Invoice__c" {
		t.Fatalf("unexpected describe calls: %v", describer.calls)
	}
	joined := strings.Join(messages, "\n")
	if !strings.Contains(joined, "Filtering objects by app namespace 'acme': 1 objects found") {
		t.Fatalf("expected filter message, got %q", joined)
	}
}

func TestExtractNamespaceFilterEmptyResultWarns(t *testing.T) {
	describer := &fakeDescriber{}
	var messages []string
	sink := func(m string) { messages = append(messages, m) }

	rows := Extract(context.Background(), describer, "tok", "https://inst",
		objects("Account", "Contact"), "ghost", nil, sink)
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
	joined := strings.Join(messages, "\n")
	if !strings.Contains(joined, "Warning: No objects found with namespace 'ghost'") {
		t.Fatalf("expected empty-filter warning, got %q", joined)
	}
	if !strings.Contains(joined, "Available objects sample: Account, Contact") {
		t.Fatalf("expected sample listing, got %q", joined)
	}
}
