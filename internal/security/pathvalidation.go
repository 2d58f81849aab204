// Package security validates the file paths the tool reads and writes.
// Session files, config files and report artifacts all arrive as operator
// input, so each entry point checks the extension and (for inputs) a size
// cap before touching the file.
package security

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidateInputFile cleans path and checks that it names an existing regular
// file with the required extension and a size no larger than maxSize bytes.
// It returns the cleaned path.
func ValidateInputFile(path, ext string, maxSize int64) (string, error) {
	cleanPath, err := requireExt(path, ext)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", cleanPath, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", cleanPath)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return "", fmt.Errorf("%s too large: %d bytes (max %d)", cleanPath, info.Size(), maxSize)
	}
	return cleanPath, nil
}

// ValidateOutputPath cleans path and checks the extension. The file itself
// need not exist yet.
func ValidateOutputPath(path, ext string) (string, error) {
	return requireExt(path, ext)
}

func requireExt(path, ext string) (string, error) {
	cleanPath := filepath.Clean(path)
	if got := filepath.Ext(cleanPath); got != ext {
		return "", fmt.Errorf("file must have %s extension, got %q", ext, got)
	}
	return cleanPath, nil
}
