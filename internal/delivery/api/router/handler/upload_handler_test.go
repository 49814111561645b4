package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"globalchek/internal/infra/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func TestUploadHandler_Serve(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })
	store := storage.NewBlobStorage(bucket, "/uploads", []byte("upload-handler-key"), time.Minute)

	obj, err := store.Save(ctx, "verifications/abc/documentFront-1-x.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	signed, err := store.SignedURL(ctx, obj.PublicPath)
	require.NoError(t, err)

	e := newTestEcho()
	e.GET("/uploads", NewUploadHandler(store).Serve)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "signed url streams the artifact", target: signed, status: http.StatusOK},
		{name: "stored path alone is refused", target: obj.PublicPath, status: http.StatusNotFound},
		{name: "bare prefix is refused", target: "/uploads", status: http.StatusNotFound},
		{name: "guessed key is refused", target: "/uploads?obj=" + obj.Key, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, "png-bytes", rec.Body.String())
				assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
				assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestSignArtifacts(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })
	store := storage.NewBlobStorage(bucket, "/uploads", []byte("upload-handler-key"), time.Minute)

	front := "/uploads/verifications/abc/documentFront-1-x.png"
	escaping := "/uploads/../secrets"
	resp := &verificationResponse{DocumentFrontImage: &front, SignatureImage: &escaping}

	signArtifacts(ctx, store, resp, nil)

	require.NotNil(t, resp.DocumentFrontImage)
	assert.True(t, strings.HasPrefix(*resp.DocumentFrontImage, "/uploads?"))
	assert.Contains(t, *resp.DocumentFrontImage, "signature=")
	assert.Nil(t, resp.SignatureImage)
	assert.Nil(t, resp.SelfieVideo)
}
