package racedata

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/lapviewer/log"
)

var ErrNoLoader = errors.New("holder has no loader")

// Holder provides the currently active store. A reload replaces the store
// only if both feeds could be loaded.
type Holder struct {
	loader  *Loader
	current atomic.Pointer[Store]
	updates chan Report
	log     *log.Logger
}

// NewHolder provides store. Without loader the store is never replaced.
func NewHolder(loader *Loader, store *Store) *Holder {
	ret := &Holder{
		loader:  loader,
		updates: make(chan Report, 1),
		log:     log.Default().Named("racedata.holder"),
	}
	if loader != nil {
		ret.log = loader.log.Named("holder")
	}
	ret.current.Store(store)
	return ret
}

// Updates delivers the report of each replaced store. Reports are dropped
// if nobody picked up the previous one.
func (h *Holder) Updates() <-chan Report {
	return h.updates
}

func (h *Holder) Store() *Store {
	return h.current.Load()
}

func (h *Holder) Reload(ctx context.Context) error {
	if h.loader == nil {
		return ErrNoLoader
	}
	store, err := h.loader.Load(ctx)
	if err != nil {
		h.log.Error("reload failed, keeping current data", log.ErrorField(err))
		return err
	}
	h.current.Store(store)
	h.log.Info("race data replaced")
	select {
	case h.updates <- store.Report():
	default:
	}
	return nil
}

// Watch reloads the data whenever a local feed file changes.
// Remote sources are not watched. Blocks until ctx is done.
//
//nolint:funlen,gocognit,cyclop // by design
func (h *Holder) Watch(ctx context.Context) error {
	if h.loader == nil {
		return ErrNoLoader
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := map[string]bool{}
	results, laps := h.loader.Sources()
	for _, source := range []string{results, laps} {
		if source == "" || IsRemote(source) {
			continue
		}
		// the directory is watched, editors often replace files on save
		dir := filepath.Dir(source)
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				h.log.Error("could not watch feed directory",
					log.String("dir", dir), log.ErrorField(err))
				continue
			}
			watched[dir] = true
		}
	}
	files := map[string]bool{
		filepath.Clean(results): true,
		filepath.Clean(laps):    true,
	}

	for {
		select {
		case <-ctx.Done():
			h.log.Info("context done, stopping data watcher")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				h.log.Info("watcher events channel closed, stopping data watcher")
				return nil
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			h.log.Debug("change detected",
				log.String("file", event.Name), log.Any("event", event))
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {

				h.log.Info("feed file changed, reloading",
					log.String("file", event.Name))
				//nolint:errcheck // logged by Reload
				h.Reload(ctx)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				h.log.Info("watcher errors channel closed, stopping data watcher")
				return nil
			}
			h.log.Error("watcher error", log.ErrorField(err))
		}
	}
}
