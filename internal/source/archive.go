package source

import (
	"archive/zip"
	"codetransform/internal/domain"
	"codetransform/internal/scratch"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	archiveFileName = "archive.zip"
	extractDirName  = "src"

	// Uncompressed archive contents may be at most this many times the
	// download limit.
	maxExtractionRatio = 10

	filePerm = 0o600
	dirPerm  = 0o700
)

type ArchiveConfig struct {
	// UserAgent is sent with every download. Some hosts (GitHub archive
	// endpoints among them) answer 403 without one.
	UserAgent     string
	Patterns      []string
	MaxBytes      int64
	MaxConcurrent int64
	Timeout       time.Duration
}

// ArchiveFlattener downloads a zip archive, extracts it into an
// invocation-scoped scratch directory and flattens the matching files.
type ArchiveFlattener struct {
	client  *http.Client
	scratch *scratch.Manager
	sem     *semaphore.Weighted
	cfg     ArchiveConfig
	log     *slog.Logger
}

func NewArchiveFlattener(
	client *http.Client,
	scratchManager *scratch.Manager,
	cfg ArchiveConfig,
	log *slog.Logger,
) *ArchiveFlattener {
	maxConcurrent := max(cfg.MaxConcurrent, 1)

	return &ArchiveFlattener{
		client:  client,
		scratch: scratchManager,
		sem:     semaphore.NewWeighted(maxConcurrent),
		cfg:     cfg,
		log:     log,
	}
}

// Flatten returns the formatted entries of the archive at url. The scratch
// directory is gone by the time Flatten returns, whatever the outcome.
func (a *ArchiveFlattener) Flatten(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire archive slot: %w", err)
	}
	defer a.sem.Release(1)

	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	var blob string

	err := a.scratch.With(ctx, domain.RequestIDFromContext(ctx), func(dir string) error {
		archivePath := filepath.Join(dir, archiveFileName)
		if err := a.download(ctx, url, archivePath); err != nil {
			return fmt.Errorf("download archive: %w", err)
		}

		srcDir := filepath.Join(dir, extractDirName)
		extracted, err := extractZip(ctx, archivePath, srcDir, a.extractionLimit())
		if err != nil {
			return fmt.Errorf("extract archive: %w", err)
		}

		res, err := FlattenDir(ctx, srcDir, a.cfg.Patterns)
		if err != nil {
			return fmt.Errorf("flatten archive: %w", err)
		}

		fields := append([]any{
			"sourceURL", url,
			"extractedFiles", extracted,
		}, res.Stats.LogAttrs()...)
		a.log.InfoContext(ctx, "Archive is flattened", fields...)

		blob = FormatEntries(res.Entries)

		return nil
	})
	if err != nil {
		return "", err
	}

	return blob, nil
}

func (a *ArchiveFlattener) downloadLimit() int64 {
	if a.cfg.MaxBytes <= 0 {
		return -1
	}

	return a.cfg.MaxBytes
}

func (a *ArchiveFlattener) extractionLimit() int64 {
	if a.cfg.MaxBytes <= 0 {
		return -1
	}

	return a.cfg.MaxBytes * maxExtractionRatio
}

func (a *ArchiveFlattener) download(ctx context.Context, url, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("create archive file: %w", err)
	}

	_, copyErr := copyLimited(out, resp.Body, a.downloadLimit())
	closeErr := out.Close()

	if copyErr != nil {
		return fmt.Errorf("write archive file: %w", copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close archive file: %w", closeErr)
	}

	return nil
}

// extractZip unpacks the regular files and directories of archivePath into
// dst and returns the number of files written. Symlinks and other special
// entries are skipped. A negative limit disables the size check.
func extractZip(ctx context.Context, archivePath, dst string, limit int64) (int, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		if r != nil {
			_ = r.Close()
		}

		return 0, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	if err = os.MkdirAll(dst, dirPerm); err != nil {
		return 0, fmt.Errorf("create extraction dir: %w", err)
	}

	var written int64
	files := 0

	for _, f := range r.File {
		if err = ctx.Err(); err != nil {
			return files, err
		}

		target, joinErr := safeJoin(dst, f.Name)
		if joinErr != nil {
			return files, joinErr
		}

		mode := f.Mode()
		if mode.IsDir() {
			if err = os.MkdirAll(target, dirPerm); err != nil {
				return files, fmt.Errorf("create dir %s: %w", f.Name, err)
			}
			continue
		}

		if !mode.IsRegular() {
			continue
		}

		if err = os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
			return files, fmt.Errorf("create dir for %s: %w", f.Name, err)
		}

		remaining := limit
		if limit >= 0 {
			remaining = max(limit-written, 0)
		}

		n, extractErr := extractFile(f, target, remaining)
		written += n
		if extractErr != nil {
			return files, fmt.Errorf("extract %s: %w", f.Name, extractErr)
		}
		files++
	}

	return files, nil
}

func extractFile(f *zip.File, target string, limit int64) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open file in zip: %w", err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}

	n, copyErr := copyLimited(out, rc, limit)
	closeErr := out.Close()

	return n, errors.Join(copyErr, closeErr)
}

// copyLimited copies src into dst and fails with ErrTooLarge once more than
// limit bytes arrive. A negative limit copies everything.
func copyLimited(dst io.Writer, src io.Reader, limit int64) (int64, error) {
	if limit < 0 {
		return io.Copy(dst, src)
	}

	n, err := io.Copy(dst, io.LimitReader(src, limit+1))
	if err != nil {
		return n, err
	}
	if n > limit {
		return n, fmt.Errorf("%w (limit = %d bytes)", ErrTooLarge, limit)
	}

	return n, nil
}

func safeJoin(root, name string) (string, error) {
	local := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	if local == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}

	return filepath.Join(root, local), nil
}
