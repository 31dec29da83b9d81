package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// FileFetcher downloads a single source file and returns its body verbatim.
type FileFetcher struct {
	client   *http.Client
	maxBytes int64
}

func NewFileFetcher(client *http.Client, maxBytes int64) *FileFetcher {
	return &FileFetcher{
		client:   client,
		maxBytes: maxBytes,
	}
}

func (f *FileFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(url), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(body), nil
}

func readLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		return io.ReadAll(r)
	}

	body, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}

	if int64(len(body)) > maxBytes {
		return nil, fmt.Errorf("%w (limit = %d bytes)", ErrTooLarge, maxBytes)
	}

	return body, nil
}
