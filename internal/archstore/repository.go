// Package archstore persists reconstructed architecture models.
package archstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/efebarandurmaz/archrecover/internal/arch"
)

// ErrNotFound is returned when no model is stored under a name.
var ErrNotFound = errors.New("model not found")

// Repository provides storage for architecture models.
type Repository interface {
	// StoreModel persists the model, replacing any model of the same name.
	StoreModel(ctx context.Context, m *arch.Model) error
	// LoadModel retrieves the latest model stored under name.
	LoadModel(ctx context.Context, name string) (*arch.Model, error)
	// QueryProviders returns the components providing an interface.
	QueryProviders(ctx context.Context, model, iface string) ([]string, error)
	// Close releases resources.
	Close(ctx context.Context) error
}

// FileStore keeps one JSON model file per model name in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the store directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *FileStore) path(name string) string {
	clean := strings.Trim(unsafeName.ReplaceAllString(name, "_"), ".")
	if clean == "" {
		clean = "model"
	}
	return filepath.Join(s.dir, clean+".json")
}

func (s *FileStore) StoreModel(_ context.Context, m *arch.Model) error {
	return arch.WriteFile(s.path(m.Name), m)
}

func (s *FileStore) LoadModel(_ context.Context, name string) (*arch.Model, error) {
	path := s.path(name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return arch.ReadFile(path)
}

func (s *FileStore) QueryProviders(ctx context.Context, model, iface string) ([]string, error) {
	m, err := s.LoadModel(ctx, model)
	if err != nil {
		return nil, err
	}
	return Providers(m, iface), nil
}

func (s *FileStore) Close(context.Context) error { return nil }

// Providers lists the components of m providing iface, sorted.
func Providers(m *arch.Model, iface string) []string {
	var out []string
	for _, c := range m.Components() {
		for _, i := range c.Provided() {
			if i.Name == iface {
				out = append(out, c.Name)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

var _ Repository = (*FileStore)(nil)
