package server

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Reloader watches the configuration file and hot-reloads the gate on
// change.
type Reloader struct {
	watcher *fsnotify.Watcher
	server  *Server
}

// NewReloader creates a file watcher for the server's config path.
func NewReloader(server *Server, path string) (*Reloader, error) {
	if path == "" {
		return nil, fmt.Errorf("server: no config path to watch")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("server: cannot watch %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("server: create file watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("server: watch %q: %w", path, err)
	}

	return &Reloader{watcher: watcher, server: server}, nil
}

// Run watches for file changes and reloads configuration. Blocks until
// ctx is cancelled. Writes are debounced so editors that write in
// several syscalls trigger a single reload.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					if err := r.server.Reload(); err != nil {
						fmt.Fprintf(os.Stderr, "reload failed, keeping previous configuration: %v\n", err)
						return
					}
					fmt.Fprintln(os.Stderr, "configuration reloaded")
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watcher error: %v\n", err)
		}
	}
}
