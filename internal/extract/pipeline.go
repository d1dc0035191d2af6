// File path: internal/extract/pipeline.go
package extract

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudblazer/sfexporter/internal/common"
	"github.com/cloudblazer/sfexporter/internal/salesforce"
)

// Sentinel marks absent numeric, reference, or relationship values in the
// normalized table.
const Sentinel = "N/A"

// MetadataRow is one (object, field) pair of the normalized table. Cells are
// string typed because the row is written straight to CSV and never mutated
// afterward.
type MetadataRow struct {
	Object           string
	Field            string
	Type             string
	Length           string
	Precision        string
	Scale            string
	ReferenceTo      string
	RelationshipName string
}

// PollFunc reports whether the run should keep going; false requests a stop.
type PollFunc func() bool

// LogFunc receives per-run progress messages.
type LogFunc func(message string)

// Extract flattens the filtered object catalog into normalized metadata rows,
// describing one object at a time in input order. Cancellation is polled once
// per object; rows accumulated before a stop are returned. A single object's
// describe failure is logged and skipped, never aborting the run.
func Extract(ctx context.Context, describer salesforce.Describer, accessToken, instanceURL string, objects []salesforce.SchemaObject, namespacePrefix string, poll PollFunc, sink LogFunc) []MetadataRow {
	logger := common.Logger()
	if poll == nil {
		poll = func() bool { return true }
	}
	if sink == nil {
		sink = func(string) {}
	}

	filtered := filterByNamespace(objects, namespacePrefix, sink)
	total := len(filtered)
	processed := 0
	var rows []MetadataRow

	for _, obj := range filtered {
		if !poll() {
			message := "Processing terminated by user."
			logger.Info("extract: " + message)
			sink(message)
			break
		}
		if obj.Name == "" {
			continue
		}
		processed++
		message := fmt.Sprintf("Processing object %d/%d: %s", processed, total, obj.Name)
		logger.Info("extract: " + message)
		sink(message)

		fields, err := describer.DescribeFields(ctx, accessToken, instanceURL, obj.Name)
		if err != nil {
			logger.Warn("extract: error processing object", "object", obj.Name, "error", err)
			sink(fmt.Sprintf("Warning: error processing object %s: %v", obj.Name, err))
			continue
		}
		for _, field := range fields {
			if field.Name == "" {
				continue
			}
			rows = append(rows, flattenField(obj.Name, field))
		}
	}

	summary := fmt.Sprintf("Metadata extraction completed. Processed %d objects, extracted %d field records.", processed, len(rows))
	logger.Info("extract: " + summary)
	sink(summary)
	return rows
}

// filterByNamespace retains objects whose names carry the "{ns}__" prefix.
// An empty or "all" filter passes everything through.
func filterByNamespace(objects []salesforce.SchemaObject, namespacePrefix string, sink LogFunc) []salesforce.SchemaObject {
	ns := strings.TrimSpace(namespacePrefix)
	if ns == "" || ns == salesforce.AllObjectsID {
		sink("Extracting all objects (no app filter)")
		return objects
	}
	prefix := ns + "__"
	filtered := make([]salesforce.SchemaObject, 0, len(objects))
	for _, obj := range objects {
		if strings.HasPrefix(obj.Name, prefix) {
			filtered = append(filtered, obj)
		}
	}
	sink(fmt.Sprintf("Filtering objects by app namespace '%s': %d objects found", ns, len(filtered)))
	if len(filtered) == 0 {
		sink(fmt.Sprintf("Warning: No objects found with namespace '%s'. This app may not have custom objects with this namespace.", ns))
		sink("Available objects sample: " + strings.Join(sampleNames(objects, 10), ", "))
	}
	return filtered
}

func sampleNames(objects []salesforce.SchemaObject, limit int) []string {
	if len(objects) < limit {
		limit = len(objects)
	}
	names := make([]string, 0, limit)
	for _, obj := range objects[:limit] {
		names = append(names, obj.Name)
	}
	return names
}

func flattenField(objectName string, field salesforce.FieldDescriptor) MetadataRow {
	row := MetadataRow{
		Object:           objectName,
		Field:            field.Name,
		Type:             field.Type,
		Length:           numericCell(field.Length),
		Precision:        numericCell(field.Precision),
		Scale:            numericCell(field.Scale),
		ReferenceTo:      Sentinel,
		RelationshipName: Sentinel,
	}
	if row.Type == "" {
		row.Type = Sentinel
	}
	if len(field.ReferenceTo) > 0 {
		row.ReferenceTo = strings.Join(field.ReferenceTo, ",")
	}
	if field.RelationshipName != "" {
		row.RelationshipName = field.RelationshipName
	}
	return row
}

func numericCell(value int) string {
	if value == 0 {
		return Sentinel
	}
	return strconv.Itoa(value)
}
