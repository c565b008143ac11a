package utils

import "path/filepath"

// GetPathInfo returns the cleaned absolute form of path and the directory
// that contains it. For a directory input, parentDir is its parent.
func GetPathInfo(path string) (fullPath string, parentDir string, err error) {
	fullPath, err = filepath.Abs(path)
	if err != nil {
		return "", "", err
	}
	return fullPath, filepath.Dir(fullPath), nil
}
