package static

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/dispatch/core/handler"
	"github.com/dmitrymomot/dispatch/core/response"
)

// File creates a handler that serves a single static file.
// Content type detection and range requests are handled by http.ServeFile.
// Panics at registration if the file doesn't exist or is a directory.
func File[C handler.Context](filePath string) handler.HandlerFunc[C] {
	cleanPath := filepath.Clean(filePath)

	info, err := os.Stat(cleanPath)
	if err != nil {
		panic("static.File: cannot stat " + cleanPath + ": " + err.Error())
	}
	if info.IsDir() {
		panic("static.File: " + cleanPath + " is a directory, use Dir instead")
	}

	return func(ctx C) handler.Response {
		return func(w http.ResponseWriter, r *http.Request) error {
			http.ServeFile(w, r, cleanPath)
			return nil
		}
	}
}

// Dir creates a handler that serves files from a directory tree.
// The handler reads the request path from the wildcard capture named by
// param, so it pairs with a wildcard route:
//
//	r.Get("/assets/{*path}", static.Dir[*myapp.Context]("./public", "path"))
//
// Directory listings are disabled; requests resolving to a directory serve
// its index.html or answer 404. Panics at registration if root doesn't exist.
func Dir[C handler.Context](root, param string) handler.HandlerFunc[C] {
	cleanRoot := filepath.Clean(root)

	info, err := os.Stat(cleanRoot)
	if err != nil {
		panic("static.Dir: cannot stat " + cleanRoot + ": " + err.Error())
	}
	if !info.IsDir() {
		panic("static.Dir: " + cleanRoot + " is not a directory, use File instead")
	}

	return func(ctx C) handler.Response {
		rel := ctx.Param(param)

		target, ok := resolvePath(cleanRoot, rel)
		if !ok {
			return response.Error(response.ErrNotFound)
		}

		fi, err := os.Stat(target)
		if err != nil {
			return response.Error(response.ErrNotFound)
		}
		if fi.IsDir() {
			target = filepath.Join(target, "index.html")
			if _, err := os.Stat(target); err != nil {
				return response.Error(response.ErrNotFound)
			}
		}

		return func(w http.ResponseWriter, r *http.Request) error {
			http.ServeFile(w, r, target)
			return nil
		}
	}
}

// FS creates a handler that serves files from an fs.FS, typically an
// embedded filesystem. Like Dir it reads the request path from the named
// wildcard capture:
//
//	//go:embed assets
//	var assets embed.FS
//
//	sub, _ := fs.Sub(assets, "assets")
//	r.Get("/assets/{*path}", static.FS[*myapp.Context](sub, "path"))
func FS[C handler.Context](fsys fs.FS, param string) handler.HandlerFunc[C] {
	fileServer := http.FileServerFS(fsys)

	return func(ctx C) handler.Response {
		rel := path.Clean("/" + ctx.Param(param))
		if strings.Contains(rel, "..") {
			return response.Error(response.ErrNotFound)
		}

		return func(w http.ResponseWriter, r *http.Request) error {
			r2 := r.Clone(r.Context())
			r2.URL.Path = rel
			fileServer.ServeHTTP(w, r2)
			return nil
		}
	}
}

// resolvePath joins rel onto root and rejects paths escaping the root.
func resolvePath(root, rel string) (string, bool) {
	target := filepath.Join(root, filepath.Clean("/"+rel))

	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", false
	}
	return target, true
}
