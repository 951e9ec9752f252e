package evaluation

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploaderRoundTrip(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir(), "http://127.0.0.1:8787/")
	require.NoError(t, err)

	ref, err := u.Upload(context.Background(), []byte("webm-bytes"), "video/webm")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8787/media/"+ref.ID, ref.URL)

	path, err := u.Open(ref.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".webm"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "webm-bytes", string(data))
}

func TestLocalUploaderFileURL(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir(), "")
	require.NoError(t, err)

	ref, err := u.Upload(context.Background(), []byte("x"), "video/mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref.URL, "file://"), ref.URL)
	assert.True(t, strings.HasSuffix(ref.URL, ".mp4"), ref.URL)
}

func TestLocalUploaderOpenRejectsUnknownIDs(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir(), "")
	require.NoError(t, err)

	for _, id := range []string{"", "../etc/passwd", "*", "6f1c0b6e-0000-4000-8000-000000000000"} {
		_, err := u.Open(id)
		assert.True(t, errors.Is(err, ErrMediaNotFound), "id %q", id)
	}
}

func TestLocalUploaderEmptyClip(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir(), "")
	require.NoError(t, err)

	_, err = u.Upload(context.Background(), nil, "video/webm")
	assert.True(t, errors.Is(err, ErrEmptyClip))
}

func TestLocalUploaderPrune(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(dir, "")
	require.NoError(t, err)

	old, err := u.Upload(context.Background(), []byte("old"), "video/webm")
	require.NoError(t, err)
	fresh, err := u.Upload(context.Background(), []byte("fresh"), "video/webm")
	require.NoError(t, err)

	oldPath, err := u.Open(old.ID)
	require.NoError(t, err)
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	n, err := u.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = u.Open(old.ID)
	assert.ErrorIs(t, err, ErrMediaNotFound)
	_, err = u.Open(fresh.ID)
	assert.NoError(t, err)
}
