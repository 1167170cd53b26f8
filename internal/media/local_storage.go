package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"userdirectory/internal/common"
)

// maxNameAttempts bounds the suffixes tried when two uploads share a name
// within the same millisecond.
const maxNameAttempts = 100

// LocalStorage keeps photos as flat files in one directory.
type LocalStorage struct {
	dir string
	now func() time.Time
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir, now: time.Now}, nil
}

func (s *LocalStorage) Save(ctx context.Context, filename, contentType string, content io.Reader) (string, error) {
	name := storedName(s.now(), filename)
	f, err := s.create(name)
	for n := 1; errors.Is(err, fs.ErrExist) && n <= maxNameAttempts; n++ {
		name = fmt.Sprintf("%d-%s", n, storedName(s.now(), filename))
		f, err = s.create(name)
	}
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write photo file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close photo file: %w", err)
	}
	return pathForKey(name), nil
}

func (s *LocalStorage) create(name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
}

func (s *LocalStorage) Remove(ctx context.Context, path string) error {
	key, err := KeyFromPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

func (s *LocalStorage) Open(ctx context.Context, key string) (*File, error) {
	key, err := KeyFromPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	return &File{
		Name:        key,
		ContentType: common.ContentTypeForFilename(key),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Content:     f,
	}, nil
}
