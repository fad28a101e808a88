package openapi

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// SourceKind tells a Loader how to fetch a document.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

const componentPointer = "/components/schemas/"

// Source locates an OpenAPI document and optionally names the component
// schema a form is derived from.
type Source struct {
	kind      SourceKind
	location  string
	component string
}

// SourceFromFile points at a document on disk.
func SourceFromFile(path string) Source {
	return Source{kind: SourceKindFile, location: filepath.Clean(path)}
}

// SourceFromFS points at a document inside the loader's fs.FS.
func SourceFromFS(name string) Source {
	return Source{kind: SourceKindFS, location: name}
}

// SourceFromURL points at a document served over HTTP. The URL is checked
// when the document is loaded.
func SourceFromURL(raw string) Source {
	return Source{kind: SourceKindURL, location: raw}
}

// ParseSource reads a component reference of the form
// "location#Component". The location is a URL when it starts with http:// or
// https:// and a file path otherwise. The fragment may be a bare component
// name or a JSON pointer such as "#/components/schemas/Params".
func ParseSource(ref string) (Source, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Source{}, errors.New("openapi: empty source reference")
	}

	location, fragment, _ := strings.Cut(ref, "#")
	if location == "" {
		return Source{}, fmt.Errorf("openapi: source %q has no document location", ref)
	}

	var src Source
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		if _, err := url.ParseRequestURI(location); err != nil {
			return Source{}, fmt.Errorf("openapi: invalid URL %q: %w", location, err)
		}
		src = SourceFromURL(location)
	} else {
		src = SourceFromFile(location)
	}
	return src.WithComponent(fragment), nil
}

// WithComponent returns a copy of s naming component. JSON pointers into
// components/schemas are reduced to the component name.
func (s Source) WithComponent(component string) Source {
	component = strings.TrimSpace(component)
	if rest, ok := strings.CutPrefix(component, "#"); ok {
		component = rest
	}
	if rest, ok := strings.CutPrefix(component, componentPointer); ok {
		component = strings.NewReplacer("~1", "/", "~0", "~").Replace(rest)
	}
	s.component = component
	return s
}

// Kind reports how the document is fetched.
func (s Source) Kind() SourceKind { return s.kind }

// Location is the file path, fs name or URL of the document.
func (s Source) Location() string { return s.location }

// Component is the component schema name, empty when none was given.
func (s Source) Component() string { return s.component }

// IsZero reports whether s locates nothing.
func (s Source) IsZero() bool { return s.kind == "" || s.location == "" }

func (s Source) String() string {
	if s.component == "" {
		return s.location
	}
	return s.location + "#" + s.component
}
