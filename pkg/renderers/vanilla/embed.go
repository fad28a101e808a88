package vanilla

import (
	"embed"
	"io/fs"
)

//go:embed templates
var embeddedTemplates embed.FS

//go:embed assets/*
var embeddedAssets embed.FS

const (
	StylesheetName    = "hokus.css"
	RuntimeScriptName = "hokus.js"

	chromeTemplate = "chrome/form"
)

// TemplatesFS exposes the embedded chrome templates so callers can layer
// their own overrides on top.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// AssetsFS exposes the embedded runtime asset bundle (CSS/JS) so callers can
// serve them over HTTP or copy them into their own asset pipeline.
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}
