// File path: internal/salesforce/catalog.go
package salesforce

import (
	"context"
	"strings"

	"github.com/cloudblazer/sfexporter/internal/common"
)

// ListObjects retrieves the queryable schema objects for the session. System
// entries prefixed with a double underscore are dropped; the upstream
// response order is preserved otherwise.
func (c *Client) ListObjects(ctx context.Context, accessToken, instanceURL string) ([]SchemaObject, error) {
	logger := common.Logger()
	var envelope struct {
		SObjects []SchemaObject `json:"sobjects"`
	}
	listURL := c.restURL(instanceURL, "/sobjects/")
	if err := c.getJSON(ctx, c.listClient, "list objects", listURL, accessToken, &envelope); err != nil {
		logAPIFailure("list objects", err)
		return nil, err
	}
	queryable := make([]SchemaObject, 0, len(envelope.SObjects))
	for _, obj := range envelope.SObjects {
		if !obj.Queryable || strings.HasPrefix(obj.Name, "__") {
			continue
		}
		queryable = append(queryable, obj)
	}
	logger.Info("salesforce: retrieved object catalog", "total", len(envelope.SObjects), "queryable", len(queryable))
	return queryable, nil
}
