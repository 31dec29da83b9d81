package scratch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	dirPrefix   = "scratch-"
	maxIDLength = 36
	rootPerm    = 0o700
)

// Manager hands out invocation-scoped directories under a common root.
type Manager struct {
	root string
	log  *slog.Logger
}

func New(root string, log *slog.Logger) (*Manager, error) {
	root = filepath.Clean(strings.TrimSpace(root))
	if root == "" || root == "." {
		return nil, errors.New("scratch root is empty")
	}

	if err := os.MkdirAll(root, rootPerm); err != nil {
		return nil, fmt.Errorf("create scratch root: %w", err)
	}

	return &Manager{root: root, log: log}, nil
}

func (m *Manager) Root() string {
	return m.root
}

// With creates a fresh directory, passes it to fn and removes it on every
// exit path, panics included. A removal failure is joined to fn's error.
func (m *Manager) With(
	ctx context.Context,
	id string,
	fn func(dir string) error,
) (err error) {
	dir, err := os.MkdirTemp(m.root, dirPrefix+sanitizeID(id)+"-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}

	defer func() {
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			m.log.ErrorContext(ctx, "Failed to remove scratch dir",
				"error", removeErr,
				"dir", dir)

			err = errors.Join(err, fmt.Errorf("remove scratch dir: %w", removeErr))
		}
	}()

	return fn(dir)
}

// Sweep removes scratch directories last modified more than maxAge before
// now. Only entries created by With are considered.
func (m *Manager) Sweep(
	ctx context.Context,
	maxAge time.Duration,
	now time.Time,
) (int, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return 0, fmt.Errorf("read scratch root: %w", err)
	}

	cutoff := now.Add(-maxAge)
	removed := 0
	var errs []error

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			if !errors.Is(infoErr, os.ErrNotExist) {
				errs = append(errs, fmt.Errorf("stat %s: %w", entry.Name(), infoErr))
			}
			continue
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		dir := filepath.Join(m.root, entry.Name())
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", entry.Name(), removeErr))
			continue
		}

		m.log.InfoContext(ctx, "Stale scratch dir is removed",
			"dir", dir,
			"modTime", info.ModTime())
		removed++
	}

	return removed, errors.Join(errs...)
}

func sanitizeID(id string) string {
	var sb strings.Builder

	for _, r := range id {
		if sb.Len() >= maxIDLength {
			break
		}

		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	if sb.Len() == 0 {
		return "anon"
	}

	return sb.String()
}
