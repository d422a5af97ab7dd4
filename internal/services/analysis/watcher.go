package analysis

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"farmops/internal/assess"
)

// WatchRules loads the ruleset at path and swaps it in whenever the
// file changes. The initial load must succeed; later reload failures
// keep the running table. Watches the parent directory because editors
// and config mounts replace the file rather than writing in place.
func (s *Service) WatchRules(ctx context.Context, path string) error {
	rs, err := assess.LoadRulesFile(path)
	if err != nil {
		return err
	}
	s.rules.Store(rs)
	s.log.Infof("loaded ruleset from %s", path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		var lastReload time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				// Debounce the write+rename bursts editors produce.
				if time.Since(lastReload) < 200*time.Millisecond {
					continue
				}
				lastReload = time.Now()
				s.reloadRules(path)
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				s.log.Warnf("ruleset watcher: %v", werr)
			}
		}
	}()
	return nil
}

func (s *Service) reloadRules(path string) {
	rs, err := assess.LoadRulesFile(path)
	if err != nil {
		rulesetReloads.WithLabelValues("error").Inc()
		s.log.Errorf("ruleset reload failed, keeping previous: %v", err)
		return
	}
	s.rules.Store(rs)
	rulesetReloads.WithLabelValues("ok").Inc()
	s.log.Infof("ruleset reloaded from %s", path)
}
