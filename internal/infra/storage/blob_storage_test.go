package storage

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"testing"
	"time"

	domainerrors "globalchek/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

func TestBlobStorage_SaveReadDelete(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	store := NewBlobStorage(bucket, "/uploads/", testSigningKey, time.Minute)

	obj, err := store.Save(ctx, "verifications/abc/documentFront-1.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/verifications/abc/documentFront-1.png", obj.PublicPath)
	assert.Equal(t, int64(9), obj.Size)

	// Read accepts both the public path and the bare key.
	data, contentType, err := store.Read(ctx, obj.PublicPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", contentType)

	reader, meta, err := store.Open(ctx, obj.Key)
	require.NoError(t, err)
	streamed, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, data, streamed)
	assert.Equal(t, int64(9), meta.Size)

	require.NoError(t, store.Delete(ctx, obj.PublicPath))
	_, _, err = store.Read(ctx, obj.Key)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	// Deleting twice is fine.
	assert.NoError(t, store.Delete(ctx, obj.Key))
}

func TestBlobStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	store := NewBlobStorage(bucket, "/uploads", testSigningKey, time.Minute)

	_, _, err := store.Read(ctx, "/uploads/../config.yaml")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = store.Save(ctx, "", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestBlobStorage_SignedURL(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	store := NewBlobStorage(bucket, "/uploads", testSigningKey, time.Minute)

	obj, err := store.Save(ctx, "verifications/abc/documentFront-1-x.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)

	raw, err := store.SignedURL(ctx, obj.PublicPath)
	require.NoError(t, err)
	signed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/uploads", signed.Path)
	assert.NotContains(t, signed.Path, obj.Key)

	key, err := store.ResolveSignedURL(ctx, signed)
	require.NoError(t, err)
	assert.Equal(t, obj.Key, key)

	t.Run("tampered key is rejected", func(t *testing.T) {
		forged := *signed
		q := forged.Query()
		q.Set("obj", "verifications/abc/passport.png")
		forged.RawQuery = q.Encode()

		_, err := store.ResolveSignedURL(ctx, &forged)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("expired url is rejected", func(t *testing.T) {
		expired := *signed
		q := expired.Query()
		q.Set("expiry", strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10))
		expired.RawQuery = q.Encode()

		_, err := store.ResolveSignedURL(ctx, &expired)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("unsigned path is rejected", func(t *testing.T) {
		_, err := store.ResolveSignedURL(ctx, &url.URL{Path: obj.PublicPath})
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})

	t.Run("another key does not verify", func(t *testing.T) {
		other := NewBlobStorage(bucket, "/uploads", []byte("another-signing-key"), time.Minute)

		_, err := other.ResolveSignedURL(ctx, signed)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	})
}
