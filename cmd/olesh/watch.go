package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce swallows the burst of events editors produce for one save.
const debounce = 100 * time.Millisecond

// runWatch runs script, then again every time it or the model file
// changes, until ctx is cancelled or the process is interrupted.
func runWatch(ctx context.Context, opts Options, script string, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, stopSignals()...)
	defer stop()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := map[string]bool{}
	for _, path := range []string{script, opts.ModelPath} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		watched[abs] = true
		// editors replace files on save; watch the directory
		if err := w.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
	}

	rerun := func() {
		if err := runOnce(opts, script, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
		}
		fmt.Fprintf(stderr, "watching %s for changes\n", script)
	}
	rerun()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !watched[abs] {
				continue
			}
			if time.Since(last) < debounce {
				continue
			}
			last = time.Now()
			rerun()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "watcher error: %v\n", err)
		}
	}
}
