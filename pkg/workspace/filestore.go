package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/caklein/hokus/pkg/model"
)

// FileStore keeps each workspace configuration as a YAML document at
// <root>/<site>/<workspace>.yaml. Sync and publish are not supported.
type FileStore struct {
	root   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// StoreOption configures a FileStore.
type StoreOption func(*FileStore)

// WithStoreLogger sets the logger used for store diagnostics.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

var _ Service = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string, opts ...StoreOption) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("workspace: store root is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve store root: %w", err)
	}
	store := &FileStore{
		root:   abs,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store, nil
}

// Root returns the absolute store directory.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) path(site, workspace string) string {
	return filepath.Join(s.root, site, workspace+".yaml")
}

// WorkspaceDetails reads the stored configuration.
func (s *FileStore) WorkspaceDetails(ctx context.Context, site, workspace string) (Details, error) {
	const op = "details"
	if err := validateKeys(site, workspace); err != nil {
		return Details{}, &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return Details{}, &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.path(site, workspace)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = ErrNotFound
		}
		return Details{}, &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Details{}, &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}

	var config map[string]any
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Details{}, &ServiceError{Op: op, Site: site, Workspace: workspace, Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	if config == nil {
		config = map[string]any{}
	}
	normalized, _ := model.NormalizeValue(config).(map[string]any)

	return Details{
		Site:      site,
		Workspace: workspace,
		Config:    normalized,
		UpdatedAt: info.ModTime(),
	}, nil
}

// SaveWorkspaceConfig replaces the stored configuration. The document is
// written to a temporary file and renamed into place.
func (s *FileStore) SaveWorkspaceConfig(ctx context.Context, site, workspace string, config map[string]any) error {
	const op = "save"
	if err := validateKeys(site, workspace); err != nil {
		return &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}
	if config == nil {
		config = map[string]any{}
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return &ServiceError{Op: op, Site: site, Workspace: workspace, Err: fmt.Errorf("encode: %w", err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(site, workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+workspace+"-*.yaml")
	if err != nil {
		return &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(tmpName)
		return &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &ServiceError{Op: op, Site: site, Workspace: workspace, Err: err}
	}

	s.logger.Info("workspace config saved",
		slog.String("site", site),
		slog.String("workspace", workspace),
		slog.Int("bytes", len(data)),
	)
	return nil
}

// SyncWorkspace is not supported by the file store.
func (s *FileStore) SyncWorkspace(_ context.Context, site, workspace string) error {
	return &ServiceError{Op: "sync", Site: site, Workspace: workspace, Err: ErrNotSupported}
}

// CanSyncWorkspace always reports false.
func (s *FileStore) CanSyncWorkspace(_ context.Context, site, workspace string) (bool, error) {
	if err := validateKeys(site, workspace); err != nil {
		return false, &ServiceError{Op: "can-sync", Site: site, Workspace: workspace, Err: err}
	}
	return false, nil
}

// PublishWorkspace is not supported by the file store.
func (s *FileStore) PublishWorkspace(_ context.Context, site, workspace string) error {
	return &ServiceError{Op: "publish", Site: site, Workspace: workspace, Err: ErrNotSupported}
}
