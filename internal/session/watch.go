package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last file event before
// reloading.
const DefaultDebounce = 200 * time.Millisecond

// WatchFunc receives each new session, or the error that prevented one.
type WatchFunc func(s *Session, err error)

// Watch starts a session for opts and starts another whenever a declaration
// or .env file changes. fn is called with the first session and then with
// every session whose configuration differs from the last one delivered. A
// failed reload is reported through fn and the previous session stays
// current. Watch blocks until ctx is cancelled.
//
// Watching requires opts.Loader.Dir; the embedded defaults never change.
func Watch(ctx context.Context, opts Options, debounce time.Duration, fn WatchFunc) error {
	dir := opts.Loader.Dir
	if dir == "" {
		return errors.New("watch: a declaration directory is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}
	envDirs := map[string]bool{filepath.Clean(dir): true}
	for _, f := range opts.Loader.EnvFiles {
		d := filepath.Clean(filepath.Dir(f))
		if envDirs[d] {
			continue
		}
		// .env files are optional; their directory may not exist.
		if err := watcher.Add(d); err == nil {
			envDirs[d] = true
		}
	}

	current, err := Start(ctx, opts)
	fn(current, err)

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher channel closed")
			}
			if !relevant(event, opts.Loader.EnvFiles) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher error channel closed")
			}
			fn(nil, fmt.Errorf("watch: %w", err))
		case <-reload:
			next, err := Start(ctx, opts)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				fn(nil, err)
				continue
			}
			if current != nil && !current.Changed(next) {
				continue
			}
			current = next
			fn(next, nil)
		}
	}
}

// relevant reports whether event touches a declaration or .env file.
func relevant(event fsnotify.Event, envFiles []string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(event.Name) {
	case ".cue", ".yaml", ".yml":
		return true
	}
	name := filepath.Clean(event.Name)
	for _, f := range envFiles {
		if filepath.Clean(f) == name {
			return true
		}
	}
	return false
}
