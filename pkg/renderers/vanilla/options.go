package vanilla

import (
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/caklein/hokus/pkg/registry"
	rendertemplate "github.com/caklein/hokus/pkg/render/template"
)

type Option func(*config)

type config struct {
	overrides        []fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	registry         *registry.Registry
	themes           theme.ThemeSelector
	defaultTheme     string
	defaultVariant   string
	assetPrefix      string
	classes          map[ChromeClass]string
}

// WithTemplatesFS layers a template bundle over the built-in chrome and field
// templates. Templates found in later bundles win over earlier ones.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.overrides = append([]fs.FS{files}, cfg.overrides...)
		}
	}
}

// WithTemplatesDir loads template overrides from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(path) == "" {
			return
		}
		cfg.overrides = append([]fs.FS{os.DirFS(path)}, cfg.overrides...)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithRegistry lets the renderer collect field stylesheets and scripts from
// the registry the form was built with.
func WithRegistry(reg *registry.Registry) Option {
	return func(cfg *config) {
		cfg.registry = reg
	}
}

// WithThemeSelector resolves theme tokens per render. RenderOptions.Theme and
// ThemeVariant win over the defaults given here.
func WithThemeSelector(selector theme.ThemeSelector, defaultTheme, defaultVariant string) Option {
	return func(cfg *config) {
		cfg.themes = selector
		cfg.defaultTheme = strings.TrimSpace(defaultTheme)
		cfg.defaultVariant = strings.TrimSpace(defaultVariant)
	}
}

// WithAssetPrefix sets the URL prefix AssetsFS is served under.
func WithAssetPrefix(prefix string) Option {
	return func(cfg *config) {
		cfg.assetPrefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	}
}

// WithChromeClasses overrides the CSS classes applied to the form chrome.
func WithChromeClasses(classes map[ChromeClass]string) Option {
	return func(cfg *config) {
		for key, value := range classes {
			if cleaned := sanitizeClassList(value); cleaned != "" {
				cfg.classes[key] = cleaned
			}
		}
	}
}
