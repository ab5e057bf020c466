package fswalk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// ProjectMarkers are the files whose presence makes a directory the one the
// checker runs from, so that it picks up the project's own configuration.
var ProjectMarkers = []string{"mypy.ini", ".mypy.ini", "pyproject.toml", "setup.cfg"}

// ProjectRoot walks up from the directory of file and returns the first
// directory holding an entry that matches one of markers (doublestar
// patterns against entry names). It returns the directory of file when no
// ancestor matches.
func ProjectRoot(file string, markers []string) (string, error) {
	start := filepath.Dir(filepath.Clean(file))
	for _, pattern := range markers {
		if !doublestar.ValidatePattern(pattern) {
			return "", fmt.Errorf("invalid marker pattern %q", pattern)
		}
	}

	for dir := start; ; {
		entries, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) && !os.IsPermission(err) {
			return "", fmt.Errorf("read %q: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			for _, pattern := range markers {
				if ok, _ := doublestar.Match(pattern, entry.Name()); ok {
					return dir, nil
				}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start, nil
		}
		dir = parent
	}
}

// BackupPath returns the path a backup of path is written to.
func BackupPath(path string) string {
	return path + ".bak"
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// EnsureParentDir creates the parent directory tree for a target file path.
func EnsureParentDir(path string) error {
	return EnsureDir(filepath.Dir(path))
}

// ReadText returns the content of path as a string.
func ReadText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// WriteFileAtomic replaces path with data through a temporary file in the
// same directory. An existing file keeps its permissions.
func WriteFileAtomic(path string, data []byte) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	tmpName = ""
	return nil
}

// CopyFile copies a file while creating parent directories for destination.
func CopyFile(srcPath string, dstPath string) error {
	if err := EnsureParentDir(dstPath); err != nil {
		return err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return nil
}
