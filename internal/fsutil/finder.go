// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
)

// FindFilesNamed recursively searches the given root path for all files whose
// base name matches exactly. It returns a slice of their full paths, hidden
// directories excluded.
func FindFilesNamed(rootPath string, name string) ([]string, error) {
	if name == "" {
		panic("name must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// The root itself may be dot-named (or "."); only descendants are
		// subject to the hidden-directory skip.
		if d.IsDir() && path != rootPath && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if !d.IsDir() && d.Name() == name {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
