package hokus

import (
	"io/fs"

	"github.com/caklein/hokus/pkg/fields"
	"github.com/caklein/hokus/pkg/renderers/vanilla"
)

// AssetsFS exposes the stylesheet and shortcut script of the HTML renderer so
// applications can serve them without importing the renderer package.
//
// Typical mount:
//
//	mux.Handle("/assets/hokus/",
//	  http.StripPrefix("/assets/hokus/",
//	    http.FileServerFS(hokus.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}

// EmbeddedTemplates exposes the chrome templates of the HTML renderer and the
// field templates of the built-in catalog, in lookup order.
func EmbeddedTemplates() []fs.FS {
	return []fs.FS{vanilla.TemplatesFS(), fields.Templates()}
}
