// Package static serves files through the router's typed handler pipeline.
// File serves one file, Dir serves a directory tree from disk, and FS serves
// an fs.FS such as an embedded filesystem. Dir and FS pair with wildcard
// routes and read the remaining path from the wildcard capture.
//
// All variants validate paths against directory traversal and disable
// directory listings; a request resolving to a directory serves its
// index.html or answers 404.
package static
