package site

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
)

// AssetDir is the site-relative directory holding the built-in assets.
const AssetDir = "_codecopy"

const (
	ScriptName = "copy-button.js"
	StyleName  = "style.css"
)

//go:embed assets/copy-button.js assets/style.css
var embedded embed.FS

// Assets returns the built-in script and stylesheet rooted at their file names.
func Assets() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// WriteAssets copies the built-in assets into dir/_codecopy.
func WriteAssets(dir string) error {
	target := filepath.Join(dir, AssetDir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}
	for _, name := range []string{ScriptName, StyleName} {
		data, err := fs.ReadFile(Assets(), name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
