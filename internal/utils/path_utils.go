package utils

import (
	"path/filepath"
)

// ResolvePath resolves p relative to baseDir unless it is absolute or
// empty.
func ResolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if baseDir == "." || baseDir == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}

// ResolvePaths applies ResolvePath to every element.
func ResolvePaths(baseDir string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = ResolvePath(baseDir, p)
	}
	return out
}

// ConfigDir returns the directory a config file's relative paths are
// resolved against. An empty configPath means the working directory.
func ConfigDir(configPath string) string {
	if configPath == "" {
		return "."
	}
	return filepath.Dir(configPath)
}
