// Package auth defines operator API keys and their persistence contract.
// Counter terminals authenticate with a key whose HMAC-SHA256 hash is held
// server-side; raw keys are never stored.
package auth

import "context"

// ScopeCreateBill authorizes committing a sale (checkout).
const ScopeCreateBill = "create_bill"

// APIKeyInfo identifies an operator API key. KeyHash is the hex-encoded
// HMAC-SHA256 of the raw key under the configured pepper.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// HasScope reports whether the key grants the given scope.
func (k *APIKeyInfo) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Repository defines lookups for operator API keys.
type Repository interface {
	// FindByHash returns the active key with the given hex-encoded hash.
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
