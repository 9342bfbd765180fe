package utils

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// StartStagingCleaner periodically removes staged uploads older than maxAge from dir.
// Staged files are normally moved away by the attachment service; leftovers come
// from failed or abandoned requests. It stops when ctx is done.
func StartStagingCleaner(ctx context.Context, dir string, maxAge, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := CleanStaging(dir, maxAge, time.Now()); err != nil {
					Sugar.Warnf("staging cleaner failed dir=%s err=%v", dir, err)
				} else if n > 0 {
					Sugar.Infof("staging cleaner removed %d files", n)
				}
			}
		}
	}()
}

// CleanStaging removes regular files in dir last modified before now-maxAge.
func CleanStaging(dir string, maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	removed := 0
	cutoff := now.Add(-maxAge)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}
