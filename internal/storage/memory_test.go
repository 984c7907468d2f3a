package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageUpload(t *testing.T) {
	s := NewMemoryStorage()
	path, err := s.Upload(context.Background(), "funding/a.json", strings.NewReader(`{"id":"a"}`), 10, "application/json")
	require.NoError(t, err)
	assert.Equal(t, "/memory/funding/a.json", path)

	body, ok := s.Object("funding/a.json")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"a"}`, string(body))

	_, ok = s.Object("missing")
	assert.False(t, ok)
}
