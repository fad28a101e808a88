package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/caklein/hokus"
	"github.com/caklein/hokus/pkg/model"
	pkgopenapi "github.com/caklein/hokus/pkg/openapi"
)

// openAPITimeout bounds fetching an --openapi URL.
const openAPITimeout = 30 * time.Second

// schemaFlags select where the form schema comes from.
type schemaFlags struct {
	schemaDir string
	formID    string
	openapi   string
	component string
	root      string
	site      string
	workspace string
	logLevel  string
}

func (f *schemaFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.schemaDir, "schema", "", "directory of form documents (embedded defaults if empty)")
	flags.StringVar(&f.formID, "form", "site", "form id within the schema documents")
	flags.StringVar(&f.openapi, "openapi", "", "OpenAPI document path or URL to derive the form from, optionally suffixed with #Component")
	flags.StringVar(&f.component, "component", "", "component schema name within --openapi (overrides the #fragment)")
	flags.StringVar(&f.root, "root", ".", "directory workspace configurations are stored under")
	flags.StringVar(&f.site, "site", "default", "site key")
	flags.StringVar(&f.workspace, "workspace", "main", "workspace key")
	flags.StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

// loadedForm is a resolved schema with its display names.
type loadedForm struct {
	schema   model.Schema
	rootName string
	title    string
}

func (f *schemaFlags) load(ctx context.Context, logger *slog.Logger) (loadedForm, error) {
	if f.openapi != "" {
		src, err := pkgopenapi.ParseSource(f.openapi)
		if err != nil {
			return loadedForm{}, fmt.Errorf("--openapi: %w", err)
		}
		if f.component != "" {
			src = src.WithComponent(f.component)
		}
		schema, err := hokus.SchemaFromOpenAPI(ctx, src,
			pkgopenapi.WithHTTP(openAPITimeout),
			pkgopenapi.WithLoaderLogger(logger),
		)
		if err != nil {
			return loadedForm{}, err
		}
		return loadedForm{schema: schema, rootName: src.Component(), title: src.Component()}, nil
	}

	var files fs.FS
	if f.schemaDir != "" {
		files = os.DirFS(f.schemaDir)
	}
	forms, err := hokus.LoadSchemas(files)
	if err != nil {
		return loadedForm{}, err
	}
	form, ok := forms.Form(f.formID)
	if !ok {
		return loadedForm{}, fmt.Errorf("form %q not found (have %s)", f.formID, strings.Join(forms.IDs(), ", "))
	}
	return loadedForm{schema: form.Fields, rootName: form.RootName, title: form.Title}, nil
}
