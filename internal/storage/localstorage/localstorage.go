// Package localstorage keeps objects as plain files under an explicit root directory
package localstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

var ErrBadKey = errors.New("storage key escapes storage root")

type LocalImageStorage struct {
	root string
}

func New(root string) (*LocalImageStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %q: %w", abs, err)
	}
	return &LocalImageStorage{root: abs}, nil
}

// Path - путь на диске для ключа вида "results/abc.png"
func (s *LocalImageStorage) Path(key string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return p, nil
}

func (s *LocalImageStorage) Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	f, err := os.Create(p)
	if err != nil {
		return err
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return err
	}
	if size >= 0 && n != size {
		f.Close()
		return fmt.Errorf("short write for %q: %d of %d bytes", key, n, size)
	}
	return f.Close()
}

func (s *LocalImageStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	p, err := s.Path(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, "", err
	}

	cType := mime.TypeByExtension(filepath.Ext(p))
	if cType == "" {
		cType = "application/octet-stream"
	}
	return f, cType, nil
}

func (s *LocalImageStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := s.Path(key)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// List - ключи всех файлов под префиксом-каталогом, несуществующий каталог = пустой список
func (s *LocalImageStorage) List(ctx context.Context, prefix string) ([]string, error) {
	dir, err := s.Path(prefix)
	if err != nil {
		return nil, err
	}

	keys := []string{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == dir {
				return filepath.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
