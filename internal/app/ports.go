package app

import (
	"context"
	"path"

	"aiornot-quiz-service/internal/domain"
)

// AssetPrefix is the object store namespace for synthetic images.
const AssetPrefix = "generated"

// ImageGenerator calls the external generative-image service.
// A nil error with zero images is a soft failure, not an error.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]domain.Image, error)
}

// ObjectStore is the backing store for synthetic images.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PublicURL(key string) string
}

// ReferenceSource searches genuine photographs used as decoys.
type ReferenceSource interface {
	Search(ctx context.Context, query string, perPage int) ([]string, error)
}

// ProgressStore persists resumable sessions. Only one in-progress record may exist per key;
// CreateActive must be atomic and return the existing record with created=false when one is present.
type ProgressStore interface {
	FindActive(ctx context.Context, key domain.ProgressKey) (domain.GameProgress, bool, error)
	CreateActive(ctx context.Context, p domain.GameProgress) (rec domain.GameProgress, created bool, err error)
	UpdateActive(ctx context.Context, key domain.ProgressKey, u domain.ProgressUpdate) (domain.GameProgress, bool, error)
	DeleteActive(ctx context.Context, key domain.ProgressKey) (bool, error)
}

// TopicPrefix is the listing prefix for a topic namespace, e.g. "generated/cat/".
func TopicPrefix(namespace string) string {
	return path.Join(AssetPrefix, namespace) + "/"
}
