package engine

import (
	"fmt"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/fsnotify/fsnotify"
)

// watchAsset reloads the pipeline asset whenever the file at path is written or replaced.
// The watcher stops with the engine.
func (e *engine) watchAsset(path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// editors often save by renaming over the file, which drops a watch on the file itself
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return err
	}
	target := filepath.Clean(path)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer w.Close()
		for {
			select {
			case <-e.quitChannel:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				if err := e.reloadAsset(target); err != nil {
					common.Logger().Warn("engine: asset reload failed", "path", target, "err", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				common.Logger().Warn("engine: asset watcher", "err", err)
			}
		}
	}()
	return nil
}

// reloadAsset decodes the asset at path and hands it to the pipeline switch. The toggle chord
// follows the new asset.
func (e *engine) reloadAsset(path string) error {
	a, err := renderer.LoadAssetFile(path)
	if err != nil {
		return err
	}
	toggle, err := common.ParseKeyChord(a.ToggleKey)
	if err != nil {
		return fmt.Errorf("toggle key: %w", err)
	}
	if err := e.pipelines.Reload(a); err != nil {
		return err
	}
	e.mu.Lock()
	e.asset = a
	e.toggle = toggle
	e.mu.Unlock()
	common.Logger().Info("engine: asset reloaded", "path", path, "pipeline", a.Name)
	return nil
}
