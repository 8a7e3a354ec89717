package relver

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactWriter persists the version record and the manifest mirror.
// All paths are relative to Root.
type ArtifactWriter struct {
	Root        string
	VersionFile string
	Manifest    string
	session     *Session
	logger      *slog.Logger
	rename      func(oldpath, newpath string) error
}

// NewArtifactWriter returns a writer whose temporary files belong to session.
func NewArtifactWriter(root, versionFile, manifest string, session *Session, logger *slog.Logger) *ArtifactWriter {
	return &ArtifactWriter{
		Root:        root,
		VersionFile: versionFile,
		Manifest:    manifest,
		session:     session,
		logger:      logger,
		rename:      os.Rename,
	}
}

func (w *ArtifactWriter) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(w.Root, rel)
}

// ReadVersionRecord reads the current release version. exists is false when
// the record is absent.
func (w *ArtifactWriter) ReadVersionRecord() (v Version, exists bool, err error) {
	return readVersionRecord(w.abs(w.VersionFile))
}

func readVersionRecord(path string) (Version, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Version{}, false, nil
		}
		return Version{}, false, fmt.Errorf("failed to read version file: %w", err)
	}
	raw := strings.TrimSpace(string(data))
	v, err := ParseVersion(raw, false)
	if err != nil {
		return Version{}, true, fmt.Errorf("malformed version file %s: %w", path, err)
	}
	return v, true, nil
}

// WriteVersionRecord atomically replaces the version record with v.
// Prerelease versions are never persisted; the call is a no-op for them.
func (w *ArtifactWriter) WriteVersionRecord(v Version) error {
	if !v.IsRelease() {
		w.logger.Info("prerelease versions are not written to the version file", "version", v.String())
		return nil
	}
	return w.writeAtomic(w.abs(w.VersionFile), []byte(v.String()+"\n"))
}

// PlanManifest computes the manifest rewrite for v. The zero change (nothing
// to do) is returned when the manifest is disabled, absent, or v is a prerelease.
func (w *ArtifactWriter) PlanManifest(v Version) (ManifestChange, error) {
	if w.Manifest == "" || !v.IsRelease() {
		return ManifestChange{}, nil
	}
	path := w.abs(w.Manifest)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ManifestChange{}, nil
		}
		return ManifestChange{}, fmt.Errorf("stat manifest: %w", err)
	}
	change, err := planManifest(path, v)
	if err != nil {
		return change, err
	}
	change.Path = w.Manifest
	if !change.Found {
		w.logger.Info("no recognizable version field in manifest, skipping", "manifest", w.Manifest)
	}
	return change, nil
}

// WriteManifest applies a planned change when it alters the file.
func (w *ArtifactWriter) WriteManifest(change ManifestChange) error {
	if !change.Changed {
		return nil
	}
	return w.writeAtomic(w.abs(change.Path), change.content)
}

// writeAtomic writes data to a temporary sibling of path and renames it over
// path. The target is never written in place.
func (w *ArtifactWriter) writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	mode := fs.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	f, err := w.session.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	syncFile(f, w.logger)
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := w.rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	w.session.Committed(tmp)
	syncDir(dir, w.logger)
	return nil
}
