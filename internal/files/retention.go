// File path: internal/files/retention.go
package files

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cloudblazer/sfexporter/internal/common"
)

// StartRetention schedules a sweep that deletes generated CSV artifacts older
// than maxAge. The returned cron must be stopped by the caller on shutdown.
func (s *Service) StartRetention(spec string, maxAge time.Duration) (*cron.Cron, error) {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(spec, func() { s.Sweep(maxAge) }); err != nil {
		return nil, err
	}
	scheduler.Start()
	common.Logger().Info("files: retention sweep scheduled", "spec", spec, "max_age", maxAge)
	return scheduler, nil
}

// Sweep removes expired CSV artifacts from both directories.
func (s *Service) Sweep(maxAge time.Duration) {
	logger := common.Logger()
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, dir := range []string{s.inputDir, s.outputDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("files: retention sweep read failed", "dir", dir, "error", err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
				continue
			}
			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				logger.Warn("files: retention delete failed", "path", path, "error", err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		logger.Info("files: retention sweep removed artifacts", "count", removed)
	}
}
