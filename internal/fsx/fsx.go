// Package fsx abstracts the source filesystem behind a small capability
// interface so the pipeline runs unchanged against local paths and
// remote object storage. The implementation is chosen once at run start.
package fsx

import (
	"context"
	"io"
)

// FS is the read-side capability surface the pipeline consumes.
type FS interface {
	// Open returns the contents of the named file.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// List returns the paths of the files directly under dir. A missing
	// directory returns an error satisfying errors.Is(err, fs.ErrNotExist)
	// where the backend can tell; object stores report an empty listing.
	List(ctx context.Context, dir string) ([]string, error)
	// Walk returns the paths of every file under root, recursively.
	Walk(ctx context.Context, root string) ([]string, error)
	// Exists reports whether the named file exists.
	Exists(ctx context.Context, name string) (bool, error)
}
