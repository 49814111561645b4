// Package storage keeps guest artifacts in a gocloud.dev bucket. The bucket URL
// selects the backend: file:// on a single host, s3:// in production, mem:// in tests.
// Artifacts are only readable through short-lived HMAC signed URLs.
package storage

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"globalchek/config"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	"gocloud.dev/blob/driver"
	"gocloud.dev/blob/fileblob"  // file:// buckets and the URL signer
	_ "gocloud.dev/blob/memblob" // mem:// buckets
	_ "gocloud.dev/blob/s3blob"  // s3:// buckets
	"gocloud.dev/gcerrors"
)

const (
	defaultPublicPrefix = "/uploads"
	defaultSignedURLTTL = 15 * time.Minute
	signingKeySize      = 32
)

type blobStorage struct {
	bucket       *blob.Bucket
	publicPrefix string
	signer       *fileblob.URLSignerHMAC
	urlTTL       time.Duration
}

// Params holds dependencies for the storage, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewArtifactStorage opens the configured bucket and closes it on shutdown.
func NewArtifactStorage(params Params) (service.ArtifactStorage, error) {
	cfg := params.Config.Storage
	if cfg == nil || cfg.BucketURL == "" {
		return nil, errors.New("storage bucket URL is required")
	}

	bucket, err := blob.OpenBucket(params.Ctx, cfg.BucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", redactURL(cfg.BucketURL))
	}

	signingKey := []byte(cfg.SigningKey)
	if len(signingKey) == 0 {
		params.Logger.Warn("Storage signing key not set, artifact URLs only verify on this process")
	}

	params.Logger.Info("Artifact storage initialized",
		slog.String("bucket", redactURL(cfg.BucketURL)),
		slog.String("public_prefix", cfg.PublicPrefix),
		slog.Duration("signed_url_ttl", cfg.SignedURLTTL),
	)

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return errors.WithStack(bucket.Close())
		},
	})

	return NewBlobStorage(bucket, cfg.PublicPrefix, signingKey, cfg.SignedURLTTL), nil
}

// NewBlobStorage wraps an already opened bucket. Signed URLs point at publicPrefix
// and stay valid for urlTTL. An empty signingKey is replaced by a random one.
func NewBlobStorage(bucket *blob.Bucket, publicPrefix string, signingKey []byte, urlTTL time.Duration) service.ArtifactStorage {
	prefix := "/" + strings.Trim(publicPrefix, "/")
	if prefix == "/" {
		prefix = defaultPublicPrefix
	}
	if len(signingKey) == 0 {
		signingKey = make([]byte, signingKeySize)
		_, _ = rand.Read(signingKey)
	}
	if urlTTL <= 0 {
		urlTTL = defaultSignedURLTTL
	}

	return &blobStorage{
		bucket:       bucket,
		publicPrefix: prefix,
		signer:       fileblob.NewURLSignerHMAC(&url.URL{Path: prefix}, signingKey),
		urlTTL:       urlTTL,
	}
}

// Save writes data under key and returns the stored object.
func (s *blobStorage) Save(ctx context.Context, key string, data []byte, contentType string) (*service.StoredObject, error) {
	key, err := s.normalizeKey(key)
	if err != nil {
		return nil, err
	}

	if err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType}); err != nil {
		return nil, errors.Wrapf(domainerrors.ErrStorageFailed, "write %s: %v", key, err)
	}

	return &service.StoredObject{
		Key:         key,
		PublicPath:  s.publicPrefix + "/" + key,
		ContentType: contentType,
		Size:        int64(len(data)),
		ModTime:     time.Now(),
	}, nil
}

// Read loads a whole artifact by its public path or key.
func (s *blobStorage) Read(ctx context.Context, pathOrKey string) ([]byte, string, error) {
	reader, obj, err := s.Open(ctx, pathOrKey)
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", errors.Wrapf(domainerrors.ErrStorageFailed, "read %s: %v", obj.Key, err)
	}

	return data, obj.ContentType, nil
}

// Open streams an artifact. The caller closes the reader.
func (s *blobStorage) Open(ctx context.Context, pathOrKey string) (io.ReadCloser, *service.StoredObject, error) {
	key, err := s.normalizeKey(pathOrKey)
	if err != nil {
		return nil, nil, err
	}

	reader, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, nil, errors.Wrapf(domainerrors.ErrNotFound, "artifact %s", key)
		}

		return nil, nil, errors.Wrapf(domainerrors.ErrStorageFailed, "open %s: %v", key, err)
	}

	return reader, &service.StoredObject{
		Key:         key,
		PublicPath:  s.publicPrefix + "/" + key,
		ContentType: reader.ContentType(),
		Size:        reader.Size(),
		ModTime:     reader.ModTime(),
	}, nil
}

// Delete removes an artifact. Missing keys are not an error.
func (s *blobStorage) Delete(ctx context.Context, pathOrKey string) error {
	key, err := s.normalizeKey(pathOrKey)
	if err != nil {
		return err
	}

	if err := s.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrapf(domainerrors.ErrStorageFailed, "delete %s: %v", key, err)
	}

	return nil
}

// SignedURL returns a relative URL under the public prefix that grants read
// access to the artifact until the TTL runs out.
func (s *blobStorage) SignedURL(ctx context.Context, pathOrKey string) (string, error) {
	key, err := s.normalizeKey(pathOrKey)
	if err != nil {
		return "", err
	}

	signed, err := s.signer.URLFromKey(ctx, key, &driver.SignedURLOptions{Expiry: s.urlTTL, Method: http.MethodGet})
	if err != nil {
		return "", errors.Wrapf(domainerrors.ErrStorageFailed, "sign %s: %v", key, err)
	}

	return signed.String(), nil
}

// ResolveSignedURL returns the key granted by a URL from SignedURL. Forged,
// expired and non-read URLs are rejected as not found.
func (s *blobStorage) ResolveSignedURL(ctx context.Context, signed *url.URL) (string, error) {
	if signed == nil || signed.Query().Get("method") != http.MethodGet {
		return "", errors.Wrap(domainerrors.ErrNotFound, "artifact URL is not a read grant")
	}

	key, err := s.signer.KeyFromURL(ctx, signed)
	if err != nil {
		return "", errors.Wrap(domainerrors.ErrNotFound, "artifact URL signature is invalid or expired")
	}

	return s.normalizeKey(key)
}

// normalizeKey maps a public path or a bare key to a bucket key and refuses
// anything that would escape the bucket root.
func (s *blobStorage) normalizeKey(pathOrKey string) (string, error) {
	key := strings.TrimSpace(pathOrKey)
	key = strings.TrimPrefix(key, s.publicPrefix+"/")
	key = strings.TrimLeft(key, "/")

	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return "", errors.Wrap(domainerrors.ErrNotFound, "invalid artifact path")
		}
	}
	key = path.Clean(key)
	if key == "." || key == "" {
		return "", errors.Wrap(domainerrors.ErrNotFound, "invalid artifact path")
	}

	return key, nil
}

func redactURL(raw string) string {
	if idx := strings.IndexByte(raw, '?'); idx >= 0 {
		return raw[:idx]
	}

	return raw
}
