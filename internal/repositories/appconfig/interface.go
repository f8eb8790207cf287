// Package appconfig is the primary, transactional tier for small persistent
// config entries (device identity, entitlement expiry, consumed codes). It
// lives in the app_config container and is independent of the project
// document: resetting the project never touches it.
package appconfig

import "context"

// Repository is a byte-valued key/value store. Get on a missing key returns
// (nil, nil).
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
