package fileutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize is the largest file the assistant will read into context.
// Anything bigger is almost certainly not something to hand to a model.
const MaxFileSize = 10 * 1024 * 1024

// ExpandPath expands ~ and environment variables and cleans the path.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return homeDir, nil
		}
		if strings.HasPrefix(path, "~/") {
			return filepath.Join(homeDir, path[2:]), nil
		}
		// ~user syntax is not supported, fall through to Clean
	}

	return filepath.Clean(path), nil
}

// SafeReadFile reads a file, refusing anything above MaxFileSize.
func SafeReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("file %s is too large (%d bytes, limit %d)", path, info.Size(), MaxFileSize)
	}
	return os.ReadFile(path)
}

// WriteFile writes content to path, creating parent directories first. The
// write is a full overwrite.
func WriteFile(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", path, err)
	}
	return nil
}

// EnsureDir creates a directory and its parents. Idempotent.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// IsTextContent reports whether data looks like text rather than a binary
// blob. A null byte in the first 8 KiB is treated as binary, which matches
// what git does.
func IsTextContent(data []byte) bool {
	sniff := data
	if len(sniff) > 8192 {
		sniff = sniff[:8192]
	}
	return !bytes.ContainsRune(sniff, 0)
}

// RelativeTo returns path expressed relative to base, or the cleaned path
// unchanged when it does not sit under base.
func RelativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Clean(path)
	}
	return rel
}
