package documents

import (
	"context"

	"github.com/Merlito456/ospsurveyengine/internal/models"
)

// Repository stores project documents by key.
type Repository interface {
	// Put inserts or replaces the document stored under key.
	Put(ctx context.Context, key string, doc *models.Project) error

	// Get returns the document under key, or (nil, nil) when absent.
	Get(ctx context.Context, key string) (*models.Project, error)

	// Delete removes the document under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error
}
