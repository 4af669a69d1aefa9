package repo

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// CleanupError reports a working directory that could not be removed.
// It is logged and never fails the run that owned the directory.
type CleanupError struct {
	Dir   string
	Cause error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("failed to remove working directory %s: %v", e.Dir, e.Cause)
}

func (e *CleanupError) Unwrap() error {
	return e.Cause
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Workspace hands out per-project working directories under a base directory.
type Workspace struct {
	baseDir string
	cloner  Cloner

	// removeAll is swapped in tests to simulate cleanup failures.
	removeAll func(path string) error
}

// NewWorkspace creates a Workspace rooted at baseDir.
func NewWorkspace(baseDir string, cloner Cloner) *Workspace {
	return &Workspace{baseDir: baseDir, cloner: cloner, removeAll: os.RemoveAll}
}

// BaseDir returns the root of all working directories.
func (w *Workspace) BaseDir() string { return w.baseDir }

// Acquire clones url into a fresh directory for projectID, calls fn with it, and removes
// the directory on every return path. The directory is also removed when the clone fails.
func (w *Workspace) Acquire(ctx context.Context, projectID, url string, fn func(dir string) error) (err error) {
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace base: %w", err)
	}
	dir, err := os.MkdirTemp(w.baseDir, sanitize(projectID)+"-")
	if err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	defer func() {
		if rmErr := w.removeAll(dir); rmErr != nil {
			log.Printf("[CODE] %v", &CleanupError{Dir: dir, Cause: rmErr})
		}
	}()

	if err := w.cloner.Clone(ctx, url, dir); err != nil {
		return err
	}
	return fn(dir)
}

// Sweep removes working directories older than maxAge. It returns the number removed.
func (w *Workspace) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read workspace base: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(w.baseDir, e.Name())
		if err := w.removeAll(path); err != nil {
			log.Printf("[JANITOR] %v", &CleanupError{Dir: path, Cause: err})
			continue
		}
		removed++
	}
	return removed, nil
}

func sanitize(id string) string {
	s := unsafeChars.ReplaceAllString(id, "_")
	if s == "" {
		return "project"
	}
	return s
}
