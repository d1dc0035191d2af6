// File path: internal/salesforce/errors.go
package salesforce

import "fmt"

// AuthError reports a failed token acquisition after all candidate login
// hosts were exhausted or a host rejected the request outright.
type AuthError struct {
	Status int
	Detail string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("salesforce auth: %s: %v", e.Detail, e.Err)
	}
	if e.Status > 0 {
		return fmt.Sprintf("salesforce auth: %s (status %d)", e.Detail, e.Status)
	}
	return fmt.Sprintf("salesforce auth: %s", e.Detail)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError reports a non-2xx response or transport failure from a catalog,
// describe, or query call.
type APIError struct {
	Operation string
	Status    int
	Detail    string
	Err       error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("salesforce %s: %s: %v", e.Operation, e.Detail, e.Err)
	}
	if e.Status > 0 {
		return fmt.Sprintf("salesforce %s: %s (status %d)", e.Operation, e.Detail, e.Status)
	}
	return fmt.Sprintf("salesforce %s: %s", e.Operation, e.Detail)
}

func (e *APIError) Unwrap() error { return e.Err }
