package shader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-registers *.wgsl files in dir with lib whenever they are written or created, and calls onChange
// with the library name of each reloaded source. It blocks until ctx is done or the watcher fails.
//
// Parameters:
//   - ctx: cancels the watch
//   - lib: the library to update
//   - dir: the override directory to watch
//   - onChange: called after each reload, may be nil
//
// Returns:
//   - error: nil when ctx ends the watch, otherwise the watcher error
func Watch(ctx context.Context, lib Library, dir string, onChange func(name string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("shader: creating watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("shader: watching %s: %w", dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".wgsl" {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			data, err := os.ReadFile(ev.Name)
			if err != nil {
				// editors often write through a rename; the follow-up create event carries the file
				continue
			}
			name := sourceName(ev.Name)
			lib.Register(name, string(data))
			if onChange != nil {
				onChange(name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("shader: watcher: %w", err)
		}
	}
}
