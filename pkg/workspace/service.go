package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotSupported is returned by operations a service does not offer.
	ErrNotSupported = errors.New("workspace: operation not supported")
	// ErrNotFound is returned when a workspace has no stored configuration.
	ErrNotFound = errors.New("workspace: not found")
	// ErrInvalidKey is returned for empty or unsafe site and workspace keys.
	ErrInvalidKey = errors.New("workspace: invalid key")
)

// Details is the stored configuration of one site workspace.
type Details struct {
	Site      string         `json:"site" yaml:"site"`
	Workspace string         `json:"workspace" yaml:"workspace"`
	Config    map[string]any `json:"config" yaml:"config"`
	UpdatedAt time.Time      `json:"updatedAt" yaml:"updatedAt"`
}

// Service reads and persists workspace configurations. Implementations must
// be safe for concurrent use.
type Service interface {
	WorkspaceDetails(ctx context.Context, site, workspace string) (Details, error)
	SaveWorkspaceConfig(ctx context.Context, site, workspace string, config map[string]any) error
	SyncWorkspace(ctx context.Context, site, workspace string) error
	CanSyncWorkspace(ctx context.Context, site, workspace string) (bool, error)
	PublishWorkspace(ctx context.Context, site, workspace string) error
}

// ServiceError describes a failed service operation. Fields optionally carries
// per-field messages keyed by dotted path.
type ServiceError struct {
	Op        string
	Site      string
	Workspace string
	Err       error
	Fields    map[string][]string
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("workspace: %s %s/%s: %v", e.Op, e.Site, e.Workspace, e.Err)
}

func (e *ServiceError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Message returns the text shown to a user, without the operation prefix.
func (e *ServiceError) Message() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func validateKeys(site, workspace string) error {
	for _, key := range []string{site, workspace} {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" || trimmed != key {
			return ErrInvalidKey
		}
		if key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
			return ErrInvalidKey
		}
	}
	return nil
}
