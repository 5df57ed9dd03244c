package gateway

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchCatalog re-registers catalog servers whenever the file changes.
// Watching the parent directory instead of the file itself survives editors
// that replace the file on save.
func (g *Gateway) watchCatalog(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logf("catalog watcher: %s", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(g.catalogPath)); err != nil {
		logf("catalog watcher: %s", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			log("> Stop watching catalog")
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(g.catalogPath) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			log("> Catalog updated, reloading...")
			if err := g.loadCatalog(ctx); err != nil {
				logf("> Unable to reload catalog: %s", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logf("catalog watcher: %s", err)
		}
	}
}
