package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/rjsoccer/planner/logging"
	"github.com/rjsoccer/planner/utils"
)

// DefaultWatchDebounce coalesces the burst of events an editor produces when saving.
const DefaultWatchDebounce = 200 * time.Millisecond

// A Watcher delivers the config file's contents every time it changes.
type Watcher struct {
	path    string
	logger  logging.Logger
	fsw     *fsnotify.Watcher
	changed chan struct{}
	configs chan *Config
	last    *Config
	workers utils.StoppableWorkers
}

// NewWatcher watches the config at path. last is the config already in use; it is not delivered
// again unless the file changes it.
func NewWatcher(path string, last *Config, debounceDelay time.Duration, logger logging.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config watcher")
	}
	// editors often replace the file, so the directory is watched rather than the file itself
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "failed to watch %q", path), fsw.Close())
	}
	w := &Watcher{
		path:    abs,
		logger:  logger,
		fsw:     fsw,
		changed: make(chan struct{}, 1),
		configs: make(chan *Config, 1),
		last:    last,
	}
	debounced := debounce.New(debounceDelay)
	w.workers = utils.NewStoppableWorkers(func(ctx context.Context) { w.watch(ctx, debounced) })
	return w, nil
}

// Config returns the channel new configs are delivered on. Only the latest undelivered config is
// kept.
func (w *Watcher) Config() <-chan *Config {
	return w.configs
}

func (w *Watcher) watch(ctx context.Context, debounced func(func())) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			debounced(w.markChanged)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.CWarnw(ctx, "config watcher error", "error", err)
		case <-w.changed:
			w.reload()
		}
	}
}

func (w *Watcher) markChanged() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

func (w *Watcher) reload() {
	cfg, err := Read(w.path, w.logger)
	if err != nil {
		w.logger.Errorw("error reading changed config, keeping the current one", "error", err)
		return
	}
	if w.last != nil {
		if diff := DiffConfigs(w.last, cfg); diff.Equal() {
			return
		}
	}
	w.last = cfg
	select {
	case <-w.configs:
	default:
	}
	w.configs <- cfg
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.workers.Stop()
	return w.fsw.Close()
}
