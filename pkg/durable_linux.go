//go:build linux

package relver

import (
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// syncFile flushes f to stable storage, trying progressively coarser
// strategies. Failure of all of them is tolerated.
func syncFile(f *os.File, logger *slog.Logger) {
	err := f.Sync()
	if err == nil {
		return
	}
	logger.Debug("fsync failed, trying fdatasync", "file", f.Name(), "error", err)
	if err = unix.Fdatasync(int(f.Fd())); err == nil {
		return
	}
	logger.Debug("fdatasync failed, falling back to sync", "file", f.Name(), "error", err)
	unix.Sync()
}

// syncDir makes a rename in dir durable. Best effort.
func syncDir(dir string, logger *slog.Logger) {
	d, err := os.Open(dir)
	if err != nil {
		logger.Debug("open directory for sync failed", "dir", dir, "error", err)
		return
	}
	defer d.Close()
	if err := unix.Fsync(int(d.Fd())); err != nil {
		logger.Debug("directory sync failed", "dir", dir, "error", err)
	}
}
