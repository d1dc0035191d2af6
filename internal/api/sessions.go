// File path: internal/api/sessions.go
package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	pendingStateTTL = 10 * time.Minute
	sessionTTL      = 2 * time.Hour
)

// pendingAuth is an outstanding OAuth authorization keyed by the state value
// sent to the provider.
type pendingAuth struct {
	instanceURL  string
	clientID     string
	clientSecret string
	redirectURI  string
	createdAt    time.Time
}

// salesforceSession holds an authenticated Salesforce token for later API
// calls and token-flow runs.
type salesforceSession struct {
	accessToken string
	instanceURL string
	createdAt   time.Time
}

// providerToken holds an access token for an external publishing provider.
type providerToken struct {
	accessToken string
	createdAt   time.Time
}

// sessionRegistry is the in-memory home of pending OAuth states and
// authenticated sessions. Everything expires; nothing is persisted.
type sessionRegistry struct {
	mu sync.Mutex

	pending     map[string]pendingAuth
	salesforce  map[string]salesforceSession
	driveTokens map[string]providerToken
	lucidTokens map[string]providerToken
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		pending:     make(map[string]pendingAuth),
		salesforce:  make(map[string]salesforceSession),
		driveTokens: make(map[string]providerToken),
		lucidTokens: make(map[string]providerToken),
	}
}

func (r *sessionRegistry) addPending(p pendingAuth) string {
	state := uuid.NewString()
	p.createdAt = time.Now()
	r.mu.Lock()
	r.prunePendingLocked()
	r.pending[state] = p
	r.mu.Unlock()
	return state
}

func (r *sessionRegistry) takePending(state string) (pendingAuth, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[state]
	if !ok {
		return pendingAuth{}, false
	}
	delete(r.pending, state)
	if time.Since(p.createdAt) > pendingStateTTL {
		return pendingAuth{}, false
	}
	return p, true
}

func (r *sessionRegistry) prunePendingLocked() {
	cutoff := time.Now().Add(-pendingStateTTL)
	for state, p := range r.pending {
		if p.createdAt.Before(cutoff) {
			delete(r.pending, state)
		}
	}
}

func (r *sessionRegistry) addSalesforce(accessToken, instanceURL string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.salesforce[id] = salesforceSession{accessToken: accessToken, instanceURL: instanceURL, createdAt: time.Now()}
	r.mu.Unlock()
	return id
}

func (r *sessionRegistry) getSalesforce(id string) (salesforceSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.salesforce[id]
	if !ok || time.Since(sess.createdAt) > sessionTTL {
		delete(r.salesforce, id)
		return salesforceSession{}, false
	}
	return sess, true
}

func (r *sessionRegistry) addDrive(accessToken string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.driveTokens[id] = providerToken{accessToken: accessToken, createdAt: time.Now()}
	r.mu.Unlock()
	return id
}

func (r *sessionRegistry) getDrive(id string) (providerToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.driveTokens[id]
	if !ok || time.Since(token.createdAt) > sessionTTL {
		delete(r.driveTokens, id)
		return providerToken{}, false
	}
	return token, true
}

func (r *sessionRegistry) addLucid(accessToken string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.lucidTokens[id] = providerToken{accessToken: accessToken, createdAt: time.Now()}
	r.mu.Unlock()
	return id
}

func (r *sessionRegistry) getLucid(id string) (providerToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.lucidTokens[id]
	if !ok || time.Since(token.createdAt) > sessionTTL {
		delete(r.lucidTokens, id)
		return providerToken{}, false
	}
	return token, true
}
