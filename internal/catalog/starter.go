package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed starter.toml
var starterPack string

// StarterPack returns the bundled lesson pack.
func StarterPack() (*Pack, error) {
	return ParsePack(starterPack)
}

// WriteStarterPack writes the bundled lesson pack to path. An existing file
// is kept unless force is set.
func WriteStarterPack(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("lesson pack already exists: %s (use --force to overwrite)", path)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat lesson pack: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create lesson pack dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "lessons-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp lesson pack: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.WriteString(starterPack); err != nil {
		return fmt.Errorf("failed to write lesson pack: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close lesson pack: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write lesson pack: %w", err)
	}
	return nil
}
