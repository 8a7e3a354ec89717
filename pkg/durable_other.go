//go:build !linux

package relver

import (
	"log/slog"
	"os"
)

func syncFile(f *os.File, logger *slog.Logger) {
	if err := f.Sync(); err != nil {
		logger.Debug("fsync failed", "file", f.Name(), "error", err)
	}
}

func syncDir(string, *slog.Logger) {}
