package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	settingsSection = "typecheck"
	bindingsSection = "typecheck_cfgBindings"
)

// Settings are the user-editable options persisted between runs.
type Settings struct {
	Enable       bool     `toml:"enable"`
	EnableEditor bool     `toml:"enable_editor"`
	ExtraArgs    string   `toml:"extra_args"`
	SearchWrap   bool     `toml:"search_wrap"`
	Checker      string   `toml:"checker"`
	Bell         bool     `toml:"bell"`
	Ignore       []string `toml:"ignore"`
}

// Bindings are the key bindings an editor integration should register.
type Bindings struct {
	TypeCheck           string `toml:"type-check"`
	RemoveTypeComments  string `toml:"remove-type-comments"`
	FindNextTypeComment string `toml:"find-next-type-comment"`
}

// File is the on-disk layout of the settings store.
type File struct {
	Settings Settings `toml:"typecheck"`
	Bindings Bindings `toml:"typecheck_cfgBindings"`
}

// DefaultFile returns the values written by `config init`.
func DefaultFile() File {
	return File{
		Settings: Settings{
			Enable:       true,
			EnableEditor: true,
			ExtraArgs:    DefaultExtraArgs,
			SearchWrap:   false,
			Checker:      DefaultChecker,
			Bell:         true,
			Ignore:       []string{},
		},
		Bindings: Bindings{
			TypeCheck:           "<Alt-Key-t>",
			RemoveTypeComments:  "<Alt-Shift-Key-T>",
			FindNextTypeComment: "<Alt-Key-g>",
		},
	}
}

// Store reads and writes the persisted settings file.
type Store struct {
	Path string
}

// DefaultStorePath returns <user config dir>/idletypecheck/config.toml.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// Load decodes the settings file over the defaults. A missing file yields
// the defaults.
func (s Store) Load() (File, error) {
	f, _, err := s.load()
	return f, err
}

func (s Store) load() (File, toml.MetaData, error) {
	f := DefaultFile()
	if s.Path == "" {
		return f, toml.MetaData{}, nil
	}
	meta, err := toml.DecodeFile(s.Path, &f)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultFile(), toml.MetaData{}, nil
		}
		return DefaultFile(), toml.MetaData{}, fmt.Errorf("%s: failed to parse TOML: %w", s.Path, err)
	}
	return f, meta, nil
}

// EnsureDefaults writes every missing section and key with its default
// value. It reports whether the file had to be written.
func (s Store) EnsureDefaults() (bool, error) {
	if s.Path == "" {
		return false, fmt.Errorf("settings store has no path")
	}
	f, meta, err := s.load()
	if err != nil {
		return false, err
	}
	if complete(meta) {
		return false, nil
	}
	if err := s.Save(f); err != nil {
		return false, err
	}
	return true, nil
}

func complete(meta toml.MetaData) bool {
	keys := map[string][]string{
		settingsSection: {"enable", "enable_editor", "extra_args", "search_wrap", "checker", "bell", "ignore"},
		bindingsSection: {"type-check", "remove-type-comments", "find-next-type-comment"},
	}
	for section, names := range keys {
		for _, name := range names {
			if !meta.IsDefined(section, name) {
				return false
			}
		}
	}
	return true
}

// Save writes f to the store path, creating parent directories.
func (s Store) Save(f File) error {
	raw, err := Encode(f)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("prepare settings dir: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(raw), 0o644); err != nil {
		return fmt.Errorf("write settings %q: %w", s.Path, err)
	}
	return nil
}

// Encode renders f as TOML.
func Encode(f File) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Reload returns base with the persisted settings applied. Options whose
// name is reported by explicit are left as set on the command line.
func (s Store) Reload(base Config, explicit func(name string) bool) (Config, error) {
	f, err := s.Load()
	if err != nil {
		return base, err
	}
	if explicit == nil {
		explicit = func(string) bool { return false }
	}

	cfg := base
	set := f.Settings
	cfg.Enabled = set.Enable && set.EnableEditor
	if !explicit("checker") && set.Checker != "" {
		cfg.Checker = set.Checker
	}
	if !explicit("extra-args") && set.ExtraArgs != "" {
		cfg.ExtraArgs = set.ExtraArgs
	}
	if !explicit("wrap") {
		cfg.SearchWrap = set.SearchWrap
	}
	if !explicit("bell") {
		cfg.Bell = set.Bell
	}
	if !explicit("ignore") {
		cfg.Ignore = append([]string(nil), set.Ignore...)
	}
	return cfg, nil
}
