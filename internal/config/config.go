package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	DefaultChecker   = "mypy"
	DefaultPrefix    = "# typecheck: "
	DefaultExtraArgs = "None"
	appName          = "idletypecheck"
)

// Config stores the options of one command invocation. It is built once
// from defaults, persisted settings and flags, then passed by value.
type Config struct {
	File  string
	Line  int
	Stdin bool
	Save  bool

	Checker   string
	CacheDir  string
	ExtraArgs string
	Prefix    string
	Ignore    []string

	SearchWrap bool
	Bell       bool
	Enabled    bool

	Diff   bool
	DryRun bool
	Backup bool

	ReportJSON string
	ReportCSV  string
	ReportYAML string

	Verbose bool
}

// Default returns baseline configuration values used by CLI flags.
func Default() Config {
	return Config{
		Line:      1,
		Checker:   DefaultChecker,
		CacheDir:  defaultCacheDir(),
		ExtraArgs: DefaultExtraArgs,
		Prefix:    DefaultPrefix,
		Bell:      true,
		Enabled:   true,
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, appName, "mypy")
}

// Validate normalizes and checks the configuration before execution.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.File) == "" {
		return fmt.Errorf("a file to check is required")
	}
	abs, err := filepath.Abs(c.File)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", c.File, err)
	}
	c.File = abs

	if c.Line < 1 {
		return fmt.Errorf("--line must be at least 1, got %d", c.Line)
	}
	if strings.TrimSpace(c.Checker) == "" {
		c.Checker = DefaultChecker
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		c.CacheDir = defaultCacheDir()
	}
	if strings.TrimSpace(c.Prefix) == "" {
		return fmt.Errorf("comment prefix must not be blank")
	}
	if strings.TrimSpace(c.ExtraArgs) == "" {
		c.ExtraArgs = DefaultExtraArgs
	}
	for _, pattern := range c.Ignore {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}
	return nil
}

// CheckerFlags returns the flags passed to the checker. Extra arguments
// are appended after the fixed set, skipping ones already present.
func (c Config) CheckerFlags() []string {
	flags := []string{
		"--cache-dir=" + c.CacheDir,
		"--hide-error-context",
		"--no-color-output",
		"--show-absolute-path",
		"--no-error-summary",
		"--soft-error-limit=-1",
		"--show-traceback",
	}
	if c.ExtraArgs == DefaultExtraArgs {
		return flags
	}
	seen := make(map[string]struct{}, len(flags))
	for _, f := range flags {
		seen[f] = struct{}{}
	}
	for _, arg := range strings.Fields(c.ExtraArgs) {
		if _, ok := seen[arg]; ok {
			continue
		}
		seen[arg] = struct{}{}
		flags = append(flags, arg)
	}
	return flags
}
