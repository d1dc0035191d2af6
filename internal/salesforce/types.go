// File path: internal/salesforce/types.go
package salesforce

// Credentials carries the resource-owner password grant inputs. The instance
// URL is only used to infer the login host; API calls use the instance URL
// returned by the token endpoint.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	InstanceURL  string `json:"instance_url"`
}

// Token is the OAuth2 token-endpoint response.
type Token struct {
	AccessToken string `json:"access_token"`
	InstanceURL string `json:"instance_url"`
	ID          string `json:"id"`
	TokenType   string `json:"token_type"`
	IssuedAt    string `json:"issued_at"`
	Signature   string `json:"signature"`
}

// SchemaObject is one entry from the sobjects catalog listing.
type SchemaObject struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Custom    bool   `json:"custom"`
	Queryable bool   `json:"queryable"`
}

// FieldDescriptor is one field from an object describe response.
type FieldDescriptor struct {
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Length           int      `json:"length"`
	Precision        int      `json:"precision"`
	Scale            int      `json:"scale"`
	ReferenceTo      []string `json:"referenceTo"`
	RelationshipName string   `json:"relationshipName"`
}

// Application describes an installed app or package used to build the
// namespace selection menu. The synthetic "all" entry represents no filter.
type Application struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Label           string `json:"label"`
	NamespacePrefix string `json:"namespacePrefix,omitempty"`
	Description     string `json:"description,omitempty"`
}
