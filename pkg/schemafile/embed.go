package schemafile

import (
	"embed"
	"io/fs"
)

//go:embed defaults/*.yaml
var embeddedDefaults embed.FS

// EmbeddedFS returns the bundled schema documents, including the "site" form
// describing a Hugo site configuration.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(embeddedDefaults, "defaults")
	if err != nil {
		panic(err)
	}
	return sub
}
