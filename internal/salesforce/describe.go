// File path: internal/salesforce/describe.go
package salesforce

import (
	"context"

	"github.com/cloudblazer/sfexporter/internal/common"
)

// Describer is the field-metadata dependency consumed by the extraction
// pipeline; satisfied by *Client.
type Describer interface {
	DescribeFields(ctx context.Context, accessToken, instanceURL, objectName string) ([]FieldDescriptor, error)
}

// DescribeFields fetches the full field schema for one object. No filtering
// happens here; callers decide which fields matter.
func (c *Client) DescribeFields(ctx context.Context, accessToken, instanceURL, objectName string) ([]FieldDescriptor, error) {
	var envelope struct {
		Fields []FieldDescriptor `json:"fields"`
	}
	describeURL := c.restURL(instanceURL, "/sobjects/"+objectName+"/describe")
	if err := c.getJSON(ctx, c.listClient, "describe "+objectName, describeURL, accessToken, &envelope); err != nil {
		return nil, err
	}
	common.Logger().Debug("salesforce: described object", "object", objectName, "fields", len(envelope.Fields))
	return envelope.Fields, nil
}
