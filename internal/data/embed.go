package data

import (
	"embed"
	"io/fs"
)

//go:embed defaults
var defaultFS embed.FS

func defaults() fs.FS {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		panic(err) // embedded tree is fixed at build time
	}
	return sub
}
