package source_test

import (
	"archive/zip"
	"bytes"
	"codetransform/internal/domain"
	"codetransform/internal/scratch"
	"codetransform/internal/source"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "codetransform-test/1.0"

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)

		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// archiveHost serves payload only to clients sending testUserAgent, like
// archive endpoints that answer 403 to anonymous agents.
type archiveHost struct {
	mu       sync.Mutex
	requests []string
	payload  []byte
}

func (h *archiveHost) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.requests = append(h.requests, r.URL.Path)
	h.mu.Unlock()

	if r.UserAgent() != testUserAgent {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	_, _ = w.Write(h.payload)
}

func (h *archiveHost) requestCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.requests)
}

func newScratch(t *testing.T) *scratch.Manager {
	t.Helper()

	m, err := scratch.New(filepath.Join(t.TempDir(), "scratch"), slog.Default())
	require.NoError(t, err)

	return m
}

func assertNoResidue(t *testing.T, m *scratch.Manager) {
	t.Helper()

	entries, err := os.ReadDir(m.Root())
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch root must be empty")
}

func newArchiveFlattener(t *testing.T, m *scratch.Manager, cfg source.ArchiveConfig) *source.ArchiveFlattener {
	t.Helper()

	if cfg.UserAgent == "" {
		cfg.UserAgent = testUserAgent
	}
	if cfg.Patterns == nil {
		cfg.Patterns = []string{"*.cs*", "*.go"}
	}

	return source.NewArchiveFlattener(&http.Client{Timeout: 5 * time.Second}, m, cfg, slog.Default())
}

func githubLikeZip(t *testing.T) []byte {
	t.Helper()

	return buildZip(t, map[string]string{
		"repo-main/":           "",
		"repo-main/a.cs":       "X",
		"repo-main/README.md":  "docs",
		"repo-main/src/":       "",
		"repo-main/src/b.go":   "package b",
		"repo-main/src/c.json": "{}",
	})
}

func TestArchiveFlattenerFlattensAndCleansUp(t *testing.T) {
	host := &archiveHost{payload: githubLikeZip(t)}
	srv := httptest.NewServer(host)
	defer srv.Close()

	m := newScratch(t)
	af := newArchiveFlattener(t, m, source.ArchiveConfig{})

	ctx := domain.ContextWithRequestID(context.Background(), "req-42")
	blob, err := af.Flatten(ctx, srv.URL+"/archive/refs/heads/main.zip")
	require.NoError(t, err)

	want := "<filename>repo-main/a.cs</filename>\n<code>X</code>" +
		"<filename>repo-main/src/b.go</filename>\n<code>package b</code>"
	assert.Equal(t, want, blob)
	assert.Equal(t, 1, host.requestCount())
	assertNoResidue(t, m)
}

func TestArchiveFlattenerWithoutUserAgentIsRejected(t *testing.T) {
	host := &archiveHost{payload: githubLikeZip(t)}
	srv := httptest.NewServer(host)
	defer srv.Close()

	m := newScratch(t)
	af := newArchiveFlattener(t, m, source.ArchiveConfig{UserAgent: "someone-else"})

	_, err := af.Flatten(context.Background(), srv.URL+"/repo.zip")

	var statusErr *source.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assertNoResidue(t, m)
}

func TestArchiveFlattenerRejectsNonZipPayload(t *testing.T) {
	host := &archiveHost{payload: []byte("<html>not a zip</html>")}
	srv := httptest.NewServer(host)
	defer srv.Close()

	m := newScratch(t)
	af := newArchiveFlattener(t, m, source.ArchiveConfig{})

	blob, err := af.Flatten(context.Background(), srv.URL+"/repo.zip")
	require.ErrorIs(t, err, zip.ErrFormat)
	assert.Empty(t, blob)
	assertNoResidue(t, m)
}

func TestArchiveFlattenerCleansUpWhenFlattenFails(t *testing.T) {
	host := &archiveHost{payload: githubLikeZip(t)}
	srv := httptest.NewServer(host)
	defer srv.Close()

	m := newScratch(t)
	af := newArchiveFlattener(t, m, source.ArchiveConfig{Patterns: []string{"[unterminated"}})

	_, err := af.Flatten(context.Background(), srv.URL+"/repo.zip")
	require.Error(t, err)
	assertNoResidue(t, m)
}

func TestArchiveFlattenerCleansUpOnNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/repo.zip"
	srv.Close()

	m := newScratch(t)
	af := newArchiveFlattener(t, m, source.ArchiveConfig{})

	_, err := af.Flatten(context.Background(), url)
	require.Error(t, err)
	assertNoResidue(t, m)
}

func TestArchiveFlattenerEnforcesDownloadLimit(t *testing.T) {
	payload := githubLikeZip(t)
	host := &archiveHost{payload: payload}
	srv := httptest.NewServer(host)
	defer srv.Close()

	m := newScratch(t)
	af := newArchiveFlattener(t, m, source.ArchiveConfig{MaxBytes: int64(len(payload) - 1)})

	_, err := af.Flatten(context.Background(), srv.URL+"/repo.zip")
	require.ErrorIs(t, err, source.ErrTooLarge)
	assertNoResidue(t, m)
}

func TestArchiveFlattenerRejectsEscapingEntries(t *testing.T) {
	host := &archiveHost{payload: buildZip(t, map[string]string{
		"repo/ok.go":     "package ok",
		"../../evil.go": "package evil",
	})}
	srv := httptest.NewServer(host)
	defer srv.Close()

	root := t.TempDir()
	m, err := scratch.New(filepath.Join(root, "scratch"), slog.Default())
	require.NoError(t, err)
	af := newArchiveFlattener(t, m, source.ArchiveConfig{})

	_, err = af.Flatten(context.Background(), srv.URL+"/repo.zip")
	require.Error(t, err)

	assert.NoFileExists(t, filepath.Join(root, "evil.go"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "evil.go"))
	assertNoResidue(t, m)
}

func TestArchiveFlattenerConcurrentInvocationsDoNotInterfere(t *testing.T) {
	host := &archiveHost{payload: githubLikeZip(t)}
	srv := httptest.NewServer(host)
	defer srv.Close()

	m := newScratch(t)
	af := newArchiveFlattener(t, m, source.ArchiveConfig{MaxConcurrent: 2})

	const callers = 6
	blobs := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			// Same request ID on purpose: uniqueness must not depend on it.
			ctx := domain.ContextWithRequestID(context.Background(), "shared")
			blobs[i], errs[i] = af.Flatten(ctx, srv.URL+"/repo.zip")
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, blobs[0], blobs[i])
	}
	assert.Equal(t, callers, host.requestCount())
	assertNoResidue(t, m)
}

func TestArchiveFlattenerHonoursCancelledContext(t *testing.T) {
	host := &archiveHost{payload: githubLikeZip(t)}
	srv := httptest.NewServer(host)
	defer srv.Close()

	m := newScratch(t)
	af := newArchiveFlattener(t, m, source.ArchiveConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := af.Flatten(ctx, srv.URL+"/repo.zip")
	require.ErrorIs(t, err, context.Canceled)
	assertNoResidue(t, m)
}
