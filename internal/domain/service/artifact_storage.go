package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// StoredObject describes an artifact in storage.
type StoredObject struct {
	Key         string
	PublicPath  string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// ArtifactStorage keeps uploaded guest artifacts (documents, selfies, videos, signatures).
type ArtifactStorage interface {
	// Save writes data under key and returns the stored object.
	Save(ctx context.Context, key string, data []byte, contentType string) (*StoredObject, error)

	// Read loads a whole artifact by its public path or key.
	Read(ctx context.Context, pathOrKey string) ([]byte, string, error)

	// Open streams an artifact by key. The caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, *StoredObject, error)

	// Delete removes an artifact. Missing keys are not an error.
	Delete(ctx context.Context, pathOrKey string) error

	// SignedURL returns a URL that grants read access to the artifact for a
	// limited time.
	SignedURL(ctx context.Context, pathOrKey string) (string, error)

	// ResolveSignedURL checks the signature and expiry of a URL built by
	// SignedURL and returns the artifact key it grants.
	ResolveSignedURL(ctx context.Context, signed *url.URL) (string, error)
}

// ArtifactKey builds the bucket key of a verification artifact. Every key is new, so
// re-uploads of the same step never overwrite an object that is still referenced,
// and the random part keeps keys from being guessed from the verification id.
func ArtifactKey(verificationID uuid.UUID, name, extension string, now time.Time) string {
	return fmt.Sprintf("verifications/%s/%s-%d-%s%s", verificationID, name, now.UnixMilli(), uuid.New(), extension)
}
