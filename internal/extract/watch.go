// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mzelen/statpaper/pkg/types"
)

// settleDelay gives the harvester time to finish renaming a PDF into place
// before extraction starts.
const settleDelay = 500 * time.Millisecond

// Watch monitors the corpus PDF directory and extracts new PDFs as they
// appear, at most cfg.Concurrency at a time. It blocks until ctx is
// cancelled, then waits for in-flight extractions to drain.
func Watch(ctx context.Context, ex TextExtractor, cfg types.ExtractConfig, w io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	pdfDir := filepath.Join(cfg.CorpusDir, "pdfs")
	if err := watcher.Add(pdfDir); err != nil {
		return fmt.Errorf("watching %s: %w", pdfDir, err)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	sem := make(chan struct{}, concurrency)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	out := &lockedWriter{w: w, mu: &mu}

	fmt.Fprintf(out, "watching %s (max concurrent: %d)\n", pdfDir, concurrency)

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			fmt.Fprintln(out, "watcher stopped")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				wg.Wait()
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) || !strings.HasSuffix(event.Name, ".pdf") {
				continue
			}

			id := strings.TrimSuffix(filepath.Base(event.Name), ".pdf")
			fmt.Fprintf(out, "new PDF detected: %s\n", id)

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				wg.Wait()
				return ctx.Err()
			}

			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				defer func() { <-sem }()

				time.Sleep(settleDelay)
				ExtractPaper(ex, id, cfg, out)
			}(id)

		case err, ok := <-watcher.Errors:
			if !ok {
				wg.Wait()
				return fmt.Errorf("watcher errors channel closed")
			}
			fmt.Fprintf(out, "warning: watcher error: %v\n", err)
		}
	}
}
