// Package local implements a filesystem payload archive.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/scoreline/scoreline/internal/archive"
	"github.com/scoreline/scoreline/internal/scoreboard"
)

// Config captures the parameters for the filesystem archive.
type Config struct {
	// BaseDir is the root directory payloads are written under.
	BaseDir string
}

// Archive writes payloads to the local filesystem.
type Archive struct {
	baseDir string
	now     func() time.Time
}

// New creates a filesystem-backed archive, creating BaseDir if needed.
func New(cfg Config) (*Archive, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	info, err := os.Stat(cfg.BaseDir)
	switch {
	case err != nil && os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}
	return &Archive{baseDir: cfg.BaseDir, now: time.Now}, nil
}

// PutPayload writes the body under BaseDir and returns a file:// URI.
func (a *Archive) PutPayload(_ context.Context, provider string, sport scoreboard.Sport, date string, body []byte) (string, error) {
	path := archive.ObjectPath(provider, sport, date, a.now())
	fullPath := filepath.Join(a.baseDir, path)

	cleanBase := filepath.Clean(a.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, body, 0o600); err != nil {
		return "", fmt.Errorf("write payload: %w", err)
	}
	return fmt.Sprintf("file://%s", fullPath), nil
}
