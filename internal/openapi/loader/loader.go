// Package loader fetches OpenAPI documents for pkg/openapi. The hokus package
// exposes the constructor.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	pkgopenapi "github.com/caklein/hokus/pkg/openapi"
)

// yamlOrJSON is sent as the Accept header of HTTP fetches.
const yamlOrJSON = "application/yaml, application/json;q=0.9, */*;q=0.5"

// Loader reads file, fs.FS and URL sources, refusing documents larger than
// its size cap.
type Loader struct {
	files    fs.FS
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	logger   *slog.Logger
}

var _ pkgopenapi.Loader = (*Loader)(nil)

// New constructs a Loader from resolved options.
func New(options pkgopenapi.LoaderOptions) *Loader {
	if options.MaxDocumentBytes <= 0 {
		options.MaxDocumentBytes = pkgopenapi.DefaultMaxDocumentBytes
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{
		files:    options.FileSystem,
		client:   options.HTTPClient,
		timeout:  options.RequestTimeout,
		maxBytes: options.MaxDocumentBytes,
		logger:   options.Logger,
	}
}

// Load fetches the document src points at.
func (l *Loader) Load(ctx context.Context, src pkgopenapi.Source) (pkgopenapi.Document, error) {
	if src.IsZero() {
		return pkgopenapi.Document{}, errors.New("openapi loader: source is empty")
	}
	if err := ctx.Err(); err != nil {
		return pkgopenapi.Document{}, err
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case pkgopenapi.SourceKindFile:
		data, err = l.readFile(src.Location())
	case pkgopenapi.SourceKindFS:
		data, err = l.readFS(src.Location())
	case pkgopenapi.SourceKindURL:
		data, err = l.fetch(ctx, src.Location())
	default:
		err = fmt.Errorf("openapi loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return pkgopenapi.Document{}, err
	}

	l.logger.Debug("openapi document loaded",
		slog.String("kind", string(src.Kind())),
		slog.String("location", src.Location()),
		slog.Int("bytes", len(data)),
	)
	return pkgopenapi.NewDocument(src, data)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.readLimited(f)
}

func (l *Loader) readFS(name string) ([]byte, error) {
	if l.files == nil {
		return nil, errors.New("openapi loader: filesystem is not configured")
	}
	f, err := l.files.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.readLimited(f)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if l.client == nil {
		return nil, errors.New("openapi loader: http support disabled")
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", yamlOrJSON)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openapi loader: unexpected status %s", resp.Status)
	}
	return l.readLimited(resp.Body)
}

// readLimited reads r, failing with ErrDocumentTooLarge past the size cap.
func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w (%d bytes)", pkgopenapi.ErrDocumentTooLarge, l.maxBytes)
	}
	return data, nil
}
