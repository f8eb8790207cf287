package blobs

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Repository is keyed binary storage for photo assets.
type Repository interface {
	// Put stores data under id, replacing any previous value.
	Put(ctx context.Context, id string, data []byte) error

	// Get returns the blob under id, or (nil, nil) when absent.
	Get(ctx context.Context, id string) ([]byte, error)

	// Has reports whether a blob exists under id.
	Has(ctx context.Context, id string) (bool, error)

	// Delete removes the blob under id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns every stored id in ascending order.
	List(ctx context.Context) ([]string, error)

	// Clear removes every blob.
	Clear(ctx context.Context) error
}

// Digest returns the hex BLAKE2b-256 digest recorded alongside a blob.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}
