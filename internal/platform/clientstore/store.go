// Package clientstore holds the small per-session key/value area that the
// landing and error pages read after the wizard hands off to them.
package clientstore

import (
	"context"
	"errors"
)

// Keys written by the enrollment wizard.
const (
	KeyRecordID     = "recordId"
	KeyErrorMessage = "errorMessage"
)

var ErrNotFound = errors.New("client storage key not found")

// Store is scoped by session id. Clear removes every key of a scope.
type Store interface {
	Set(ctx context.Context, scope, key, value string) error
	Get(ctx context.Context, scope, key string) (string, error)
	Clear(ctx context.Context, scope string) error
}

// AllowedKey reports whether key may be read back by clients.
func AllowedKey(key string) bool {
	return key == KeyRecordID || key == KeyErrorMessage
}
