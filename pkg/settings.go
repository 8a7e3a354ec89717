package relver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SettingsFile is read from the repository root when present.
const SettingsFile = ".relver.yaml"

// Settings are repository defaults that flags may override.
type Settings struct {
	VersionFile string
	Manifest    string
	TagPrefix   string
	Remote      string

	// tagPrefixSet distinguishes an explicit empty prefix from an unset one.
	tagPrefixSet bool
}

// DefaultSettings are used when nothing else is configured.
func DefaultSettings() Settings {
	return Settings{
		VersionFile:  "VERSION",
		Manifest:     "CMakeLists.txt",
		TagPrefix:    "v",
		Remote:       "origin",
		tagPrefixSet: true,
	}
}

type settingsFile struct {
	VersionFile string  `yaml:"version_file"`
	Manifest    string  `yaml:"manifest"`
	TagPrefix   *string `yaml:"tag_prefix"`
	Remote      string  `yaml:"remote"`
}

// LoadSettings layers the repository file and the environment over the
// defaults. lookupEnv is normally os.LookupEnv.
func LoadSettings(root string, lookupEnv func(string) (string, bool)) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(filepath.Join(root, SettingsFile))
	switch {
	case err == nil:
		var f settingsFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return s, fmt.Errorf("parsing %s: %w", SettingsFile, err)
		}
		s.merge(Settings{
			VersionFile:  f.VersionFile,
			Manifest:     f.Manifest,
			TagPrefix:    deref(f.TagPrefix),
			Remote:       f.Remote,
			tagPrefixSet: f.TagPrefix != nil,
		})
	case !errors.Is(err, fs.ErrNotExist):
		return s, fmt.Errorf("reading %s: %w", SettingsFile, err)
	}

	env := func(k string) string {
		v, _ := lookupEnv(k)
		return v
	}
	prefix, prefixSet := lookupEnv("RELVER_TAG_PREFIX")
	s.merge(Settings{
		VersionFile:  env("RELVER_VERSION_FILE"),
		Remote:       env("RELVER_REMOTE"),
		TagPrefix:    prefix,
		tagPrefixSet: prefixSet,
	})
	return s, nil
}

func (s *Settings) merge(o Settings) {
	if o.VersionFile != "" {
		s.VersionFile = o.VersionFile
	}
	if o.Manifest != "" {
		s.Manifest = o.Manifest
	}
	if o.Remote != "" {
		s.Remote = o.Remote
	}
	if o.tagPrefixSet {
		s.TagPrefix = o.TagPrefix
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
