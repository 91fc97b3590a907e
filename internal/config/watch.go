package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tauraamui/dualcam/pkg/configdef"
	"github.com/tauraamui/dualcam/pkg/log"
	"github.com/tauraamui/xerror"
)

// settleDelay lets editors finish writing before the file is re-read.
const settleDelay = time.Second / 10

// Watch reloads the config file whenever it changes and passes every
// valid result to onChange. Invalid edits are logged and ignored. It
// blocks until ctx is done.
func Watch(ctx context.Context, onChange func(configdef.Values)) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	if _, err := fs.Stat(path); err != nil {
		return xerror.Errorf("unable to watch config file %s: %w", path, err)
	}

	for ctx.Err() == nil {
		if err := waitForChange(ctx, path); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("Error waiting for config file change: %v", err)
			sleep(ctx, settleDelay)
			continue
		}

		values, err := load()
		if err != nil {
			log.Error("Failed to reload config: %v", err)
			continue
		}
		onChange(values)
	}
	return nil
}

// waitForChange arms a fresh watcher on every call, a save that renames
// a new file over path leaves the previous watch on the replaced inode.
// Any event counts as a change.
func waitForChange(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return xerror.Errorf("unable to watch config file: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return xerror.Errorf("unable to watch config file %s: %w", path, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-watcher.Errors:
		return err
	case <-watcher.Events:
	}

	sleep(ctx, settleDelay)
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
