package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// FileStore persists uploaded blobs and returns the URL they are served from.
type FileStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// LocalStore writes files under Dir and serves them from BaseURL + URLPrefix.
type LocalStore struct {
	Dir       string
	BaseURL   string
	URLPrefix string
}

func NewLocalStore(dir, baseURL, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewLocalStore: %w", err)
	}
	return &LocalStore{
		Dir:       dir,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		URLPrefix: "/" + strings.Trim(urlPrefix, "/"),
	}, nil
}

func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := StoredName(filename)

	f, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage.Save create: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("storage.Save write: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage.Save close: %w", err)
	}
	return s.BaseURL + s.URLPrefix + "/" + name, nil
}

// StoredName turns a client supplied file name into a unique, URL safe one:
// "<uuid>-<slug>.<ext>".
func StoredName(filename string) string {
	base := filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "upload"
	}
	return uuid.NewString() + "-" + stem + ext
}
