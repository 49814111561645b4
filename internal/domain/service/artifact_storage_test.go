package service

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestArtifactKey(t *testing.T) {
	id := uuid.MustParse("0191b2c4-0000-7000-8000-000000000001")
	now := time.UnixMilli(1700000000123)

	first := ArtifactKey(id, "signature", ".png", now)
	second := ArtifactKey(id, "signature", ".png", now)

	pattern := regexp.MustCompile(`^verifications/0191b2c4-0000-7000-8000-000000000001/signature-1700000000123-[0-9a-f-]{36}\.png$`)
	assert.Regexp(t, pattern, first)
	assert.Regexp(t, pattern, second)
	assert.NotEqual(t, first, second, "keys created in the same millisecond must differ")
}
