// Package transfer mirrors a source tree to the local output with a
// small bounded worker pool. Each worker performs one complete
// download-then-write per object; workers share nothing mutable except
// the job and result channels.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/geostage-labs/geostage-go/internal/fsx"
)

// DefaultWorkers bounds the pool. Transfers are I/O-latency bound; a
// handful of in-flight objects keeps the link busy without swamping the
// remote.
const DefaultWorkers = 8

// Result reports one object's transfer. Every submitted object yields
// exactly one Result.
type Result struct {
	Source string
	Dest   string
	Err    error
}

// Mirror copies every file under root into destBase, preserving the
// relative layout. It returns one Result per file; transfer failures are
// reported per object, not by aborting the batch.
func Mirror(ctx context.Context, fsys fsx.FS, root, destBase string, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	paths, err := fsys.Walk(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}

	jobs := make(chan string)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				dest := filepath.Join(destBase, relativeTo(root, src))
				results <- Result{Source: src, Dest: dest, Err: copyOne(ctx, fsys, src, dest)}
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result, 0, len(paths))
	for r := range results {
		out = append(out, r)
	}
	return out, nil
}

func copyOne(ctx context.Context, fsys fsx.FS, src, dest string) error {
	rc, err := fsys.Open(ctx, src)
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func relativeTo(root, p string) string {
	trimmed := strings.TrimPrefix(p, root)
	return strings.TrimPrefix(trimmed, "/")
}
