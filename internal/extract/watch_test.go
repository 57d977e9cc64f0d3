// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mzelen/statpaper/internal/harvest"
	"github.com/mzelen/statpaper/pkg/types"
)

// syncBuffer lets the test read output while Watch is still writing.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatchExtractsNewPDF(t *testing.T) {
	dir := t.TempDir()
	seedCorpus(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, fakeExtractor{text: sampleText}, testCfg(dir), &out)
	}()

	// The watcher announces itself once the PDF directory is registered.
	if !waitFor(t, 2*time.Second, func() bool {
		return strings.Contains(out.String(), "watching")
	}) {
		t.Fatal("watcher never started")
	}

	const id = "2403.00042"
	p := &types.Paper{ID: id, Category: "cs.LG", ExtractionStatus: types.ExtractionNone}
	if err := harvest.WriteMetadata(p, harvest.MetadataPath(dir, id)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(harvest.PDFPath(dir, id), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 5*time.Second, func() bool {
		_, err := os.Stat(TextPath(dir, id))
		return err == nil
	}) {
		t.Fatalf("text file never appeared; output:\n%s", out.String())
	}
	if !waitFor(t, 2*time.Second, func() bool {
		_, err := os.Stat(StatsPath(dir, id))
		return err == nil
	}) {
		t.Error("stats file never appeared")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Watch returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}

	for _, want := range []string{"new PDF detected: " + id, "watcher stopped"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
