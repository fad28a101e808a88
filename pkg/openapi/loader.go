package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/caklein/hokus/pkg/model"
)

// DefaultMaxDocumentBytes caps the size of a fetched document unless
// WithMaxDocumentBytes says otherwise.
const DefaultMaxDocumentBytes int64 = 8 << 20

var (
	// ErrDocumentTooLarge is returned when a document exceeds the size cap.
	ErrDocumentTooLarge = errors.New("openapi: document exceeds size limit")
	// ErrComponentRequired is returned by LoadSchema when the source names no
	// component.
	ErrComponentRequired = errors.New("openapi: source names no component")
)

// Loader fetches OpenAPI documents.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions configures a Loader. URL sources fail unless an HTTP client
// is configured.
type LoaderOptions struct {
	// FileSystem serves SourceKindFS documents.
	FileSystem fs.FS
	// HTTPClient fetches SourceKindURL documents.
	HTTPClient *http.Client
	// RequestTimeout bounds each HTTP fetch.
	RequestTimeout time.Duration
	// MaxDocumentBytes caps how much of a document is read.
	MaxDocumentBytes int64
	Logger           *slog.Logger
}

// LoaderOption mutates LoaderOptions.
type LoaderOption func(*LoaderOptions)

// WithFileSystem sets the filesystem fs sources are read from.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient enables URL sources through client.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTP enables URL sources with a default client, each fetch bounded by
// timeout when it is positive.
func WithHTTP(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		if opts.HTTPClient == nil {
			opts.HTTPClient = &http.Client{}
		}
		opts.RequestTimeout = timeout
	}
}

// WithMaxDocumentBytes overrides DefaultMaxDocumentBytes.
func WithMaxDocumentBytes(n int64) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.MaxDocumentBytes = n
	}
}

// WithLoaderLogger sets the logger fetches are reported to.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.Logger = logger
	}
}

// NewLoaderOptions applies options over the defaults.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	cfg := LoaderOptions{MaxDocumentBytes: DefaultMaxDocumentBytes}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg
}

// LoadSchema fetches the document src points at and converts the component it
// names into a form schema. Without a component the error lists the ones the
// document declares.
func LoadSchema(ctx context.Context, l Loader, src Source) (model.Schema, error) {
	if l == nil {
		return nil, errors.New("openapi: loader is nil")
	}
	doc, err := l.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", src.Location(), err)
	}
	if src.Component() == "" {
		names, err := Components(ctx, doc)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s declares [%s]", ErrComponentRequired, src.Location(), strings.Join(names, ", "))
	}
	return FieldsFromComponent(ctx, doc, src.Component())
}
