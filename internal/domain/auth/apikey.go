// Package auth defines API key identity lookup for request authentication.
package auth

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrKeyNotFound is returned when no active API key matches a hash.
var ErrKeyNotFound = errors.New("api key not found")

// APIKeyInfo holds the identity data for a validated API key. UserID links
// the key to the acting user for attribution; it is nil for service keys.
type APIKeyInfo struct {
	ID      int64
	KeyHash string
	Name    string
	UserID  *int64
}

// Repository provides lookup of active API keys by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
