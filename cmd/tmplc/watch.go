package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"tmplc/internal/buildpipeline"
)

const watchDebounce = 150 * time.Millisecond

// watchLoop calls rebuild after template or globals changes settle, until
// ctx is done.
func watchLoop(ctx context.Context, out io.Writer, setup *buildSetup, rebuild func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	for _, root := range setup.roots {
		if err := addWatchTree(w, root); err != nil {
			return err
		}
	}
	if setup.globals != "" {
		// следим за каталогом: редакторы часто заменяют файл целиком
		if err := w.Add(filepath.Dir(setup.globals)); err != nil {
			return fmt.Errorf("watch %s: %w", setup.globals, err)
		}
	}
	fmt.Fprintln(out, "watching for changes (Ctrl-C to stop)")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addWatchTree(w, ev.Name)
				}
			}
			if relevantChange(ev, setup.globals) {
				pending = time.After(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "watch: %v\n", err)
		case <-pending:
			pending = nil
			if err := rebuild(); err != nil && !errors.Is(err, errBuildFailed) {
				fmt.Fprintf(out, "tmplc: %v\n", err)
			}
		}
	}
}

func relevantChange(ev fsnotify.Event, globalsPath string) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if strings.HasSuffix(ev.Name, buildpipeline.TemplateExt) {
		return true
	}
	return globalsPath != "" && filepath.Clean(ev.Name) == filepath.Clean(globalsPath)
}

// addWatchTree watches root and every non-hidden directory below it. A
// file root watches its directory.
func addWatchTree(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
