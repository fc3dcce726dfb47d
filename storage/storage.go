// Package storage is the blob store behind product images: upload bytes
// under a path, hand back a public URL. Backed by local disk and served
// statically.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Store struct {
	dir     string
	baseURL string
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes the blob and returns its storage path. An empty name gets a
// timestamped one derived from the content type.
func (s *Store) Upload(name string, data []byte, contentType string) (string, error) {
	if name == "" {
		ext := "bin"
		if i := strings.LastIndex(contentType, "/"); i >= 0 && i < len(contentType)-1 {
			ext = contentType[i+1:]
		}
		name = fmt.Sprintf("%d.%s", time.Now().UnixMilli(), ext)
	}
	name = filepath.Base(name) // no directory traversal

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// PublicURL maps a storage path to the URL it is served from.
func (s *Store) PublicURL(path string) string {
	return s.baseURL + "/uploads/" + path
}

// Dir is the root the HTTP layer serves statically.
func (s *Store) Dir() string { return s.dir }
