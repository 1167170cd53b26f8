package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }
	return s, dir
}

func TestLocalStorage_SaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestLocalStorage(t)

	path, err := s.Save(ctx, "me.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/1700000000123-me.png", path)

	data, err := os.ReadFile(filepath.Join(dir, "1700000000123-me.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	f, err := s.Open(ctx, "1700000000123-me.png")
	require.NoError(t, err)
	body, err := io.ReadAll(f.Content)
	require.NoError(t, err)
	require.NoError(t, f.Content.Close())
	assert.Equal(t, "png-bytes", string(body))
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, int64(9), f.Size)

	require.NoError(t, s.Remove(ctx, path))
	_, err = os.Stat(filepath.Join(dir, "1700000000123-me.png"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, s.Remove(ctx, path), ErrNotFound)
	_, err = s.Open(ctx, "1700000000123-me.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_SaveSameNameSameMillisecond(t *testing.T) {
	ctx := context.Background()
	s, dir := newTestLocalStorage(t)

	first, err := s.Save(ctx, "a.gif", "image/gif", strings.NewReader("1"))
	require.NoError(t, err)
	second, err := s.Save(ctx, "a.gif", "image/gif", strings.NewReader("2"))
	require.NoError(t, err)

	assert.Equal(t, "uploads/1700000000123-a.gif", first)
	assert.Equal(t, "uploads/1-1700000000123-a.gif", second)
	data, err := os.ReadFile(filepath.Join(dir, "1700000000123-a.gif"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestLocalStorage(t)

	for _, p := range []string{"uploads/../secret", "../etc/passwd", "uploads/a/b.png", "", "uploads/"} {
		_, err := s.Open(ctx, p)
		assert.ErrorIs(t, err, ErrNotFound, p)
		assert.ErrorIs(t, s.Remove(ctx, p), ErrNotFound, p)
	}
}

func TestStoredName(t *testing.T) {
	now := time.UnixMilli(42)
	tests := []struct {
		in   string
		want string
	}{
		{"photo.jpg", "42-photo.jpg"},
		{"dir/sub/photo.jpg", "42-photo.jpg"},
		{`C:\Users\me\photo.jpg`, "42-photo.jpg"},
		{"my photo.png", "42-my_photo.png"},
		{"", "42-photo"},
		{"..", "42-photo"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, storedName(now, tc.in), tc.in)
	}
}

func TestKeyFromPath(t *testing.T) {
	key, err := KeyFromPath("uploads/1-a.png")
	require.NoError(t, err)
	assert.Equal(t, "1-a.png", key)

	key, err = KeyFromPath("/uploads/1-a.png")
	require.NoError(t, err)
	assert.Equal(t, "1-a.png", key)

	key, err = KeyFromPath("1-a.png")
	require.NoError(t, err)
	assert.Equal(t, "1-a.png", key)
}
