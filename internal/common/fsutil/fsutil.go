package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// IsFile reports whether path exists and is a regular file.
func IsFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// FirstExisting returns the first of paths that is a regular file after home
// expansion, or "" if none is.
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		exp, err := ExpandHome(p)
		if err != nil {
			continue
		}
		if IsFile(exp) {
			return exp
		}
	}
	return ""
}
