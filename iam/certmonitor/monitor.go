// Package certmonitor watches a client key file's directory tree for
// changes. Filesystem events are collected continuously but reported on
// a fixed tick: however many events arrive between ticks, at most one
// change signal fires per tick.
package certmonitor

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultCheckInterval is how often accumulated events are polled.
const DefaultCheckInterval = 1000 * time.Millisecond

// Monitor polls for changes under the parent directory of a watched
// file. It runs on its own goroutines and never touches the request
// path.
type Monitor struct {
	interval time.Duration

	watcher  *fsnotify.Watcher
	pending  atomic.Int64
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a monitor with the given poll interval. A zero interval
// falls back to DefaultCheckInterval.
func New(interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	return &Monitor{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins watching the parent directory of path, and every
// subdirectory under it, for create and write events. onChange is
// invoked at most once per poll interval, from the monitor's timer
// goroutine. If path is not a regular file the monitor does not start;
// if the watch cannot be established an error is returned and the
// caller keeps serving with its current identity.
func (m *Monitor) Start(path string, onChange func()) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		log.Info().Str("path", path).Msg("monitor path is not a file, certificate monitor will not start")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	root := filepath.Dir(path)
	if err := registerRecursive(watcher, root); err != nil {
		watcher.Close()
		return err
	}
	m.watcher = watcher

	go m.drainEvents(watcher.Events, watcher.Errors)
	go m.poll(onChange)

	log.Info().Str("dir", root).Msg("certificate monitor started")
	return nil
}

// Stop halts the monitor. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		if m.watcher != nil {
			m.watcher.Close()
		}
	})
}

// registerRecursive adds root and all subdirectories to the watcher.
func registerRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

// drainEvents accumulates filesystem events into a counter that the
// poll loop swaps out each tick.
func (m *Monitor) drainEvents(events <-chan fsnotify.Event, errors <-chan error) {
	for {
		select {
		case <-m.stopCh:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				m.pending.Add(1)
			}
		case err, ok := <-errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("certificate monitor watch error")
		}
	}
}

// poll coalesces all events seen since the previous tick into a single
// change signal.
func (m *Monitor) poll(onChange func()) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			if m.pending.Swap(0) > 0 {
				log.Info().Msg("certificate is changed")
				onChange()
			}
		}
	}
}
