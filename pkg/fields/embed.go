package fields

import (
	"embed"
	"io/fs"
)

//go:embed templates
var embedded embed.FS

// Templates returns the field templates rooted so that they resolve as
// "fields/<type>.tmpl".
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
