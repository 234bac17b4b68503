package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// AllowedExtensions lists the audio containers accepted for upload.
var AllowedExtensions = []string{"wav", "mp3", "flac", "m4a", "aac", "ogg"}

// IsAllowedAudioFile reports whether name carries an allow-listed extension.
func IsAllowedAudioFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// DeleteDir removes a directory and all its contents
func DeleteDir(path string) error {
	return os.RemoveAll(path)
}

// DeleteFile removes a file
func DeleteFile(path string) error {
	return os.Remove(path)
}

// MoveFile moves or renames a file
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move file from %s to %s: %w", src, dst, err)
	}
	return nil
}

// SaveTemp copies r into a new file in dir. The file keeps the extension of
// name so decoders can pick the container. The caller removes it.
func SaveTemp(r io.Reader, dir, name string) (string, error) {
	if err := MakeDir(dir); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(name))
	out, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}
