// Package media stores profile photos and serves them back under /uploads.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// PathPrefix starts every path handed back by Save.
const PathPrefix = "uploads"

var ErrNotFound = errors.New("photo not found")

// File is an open stored photo. The caller closes Content.
type File struct {
	Name        string
	ContentType string
	Size        int64
	ModTime     time.Time
	Content     io.ReadCloser
}

// Source opens stored photos by the key that follows PathPrefix.
type Source interface {
	Open(ctx context.Context, key string) (*File, error)
}

// KeyFromPath strips PathPrefix and rejects anything that could leave the
// storage namespace.
func KeyFromPath(p string) (string, error) {
	key := strings.TrimPrefix(strings.TrimPrefix(p, "/"), PathPrefix+"/")
	if key == "" || key == "." || strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid photo path %q: %w", p, ErrNotFound)
	}
	return key, nil
}

func pathForKey(key string) string {
	return path.Join(PathPrefix, key)
}

// storedName builds "<unixms>-<original base name>".
func storedName(now time.Time, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == ':' || r < 0x20:
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." {
		base = "photo"
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), base)
}
