package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"unicode/utf8"
)

var (
	ErrNoPatterns = errors.New("no file patterns")
	ErrEncoding   = errors.New("file is not valid UTF-8")
)

// Entry is a single flattened file. Path is slash-separated and relative to
// the flatten root.
type Entry struct {
	Path    string
	Content string
}

type Result struct {
	Entries []Entry
	Stats   Stats
}

// FlattenDir flattens the directory tree rooted at dir on the host filesystem.
func FlattenDir(ctx context.Context, dir string, patterns []string) (Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return Result{}, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return Result{}, fmt.Errorf("root %s is not a directory", dir)
	}

	return Flatten(ctx, os.DirFS(dir), patterns)
}

// Flatten collects every regular file of fsys whose base name matches one of
// patterns. Files of a directory come before its subdirectories, both in
// lexical order. Glob matching is case-insensitive. Any read failure,
// invalid UTF-8 included, aborts the whole walk.
func Flatten(ctx context.Context, fsys fs.FS, patterns []string) (Result, error) {
	m, err := newMatcher(patterns)
	if err != nil {
		return Result{}, err
	}

	var res Result
	if err = flattenDir(ctx, fsys, ".", m, &res); err != nil {
		return Result{}, err
	}

	return res, nil
}

func flattenDir(
	ctx context.Context,
	fsys fs.FS,
	dir string,
	m matcher,
	res *Result,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	var subdirs []string
	for _, entry := range entries {
		name := path.Join(dir, entry.Name())

		if entry.IsDir() {
			subdirs = append(subdirs, name)
			continue
		}

		if !entry.Type().IsRegular() || !m.match(entry.Name()) {
			continue
		}

		if err = ctx.Err(); err != nil {
			return err
		}

		data, readErr := fs.ReadFile(fsys, name)
		if readErr != nil {
			return fmt.Errorf("read file %s: %w", name, readErr)
		}

		if !utf8.Valid(data) {
			return fmt.Errorf("read file %s: %w", name, ErrEncoding)
		}

		content := string(data)
		res.Entries = append(res.Entries, Entry{Path: name, Content: content})
		res.Stats.Add(content)
	}

	for _, sub := range subdirs {
		if err = flattenDir(ctx, fsys, sub, m, res); err != nil {
			return err
		}
	}

	return nil
}

type matcher []string

func newMatcher(patterns []string) (matcher, error) {
	m := make(matcher, 0, len(patterns))

	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}

		if _, err := path.Match(p, "probe"); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}

		m = append(m, p)
	}

	if len(m) == 0 {
		return nil, ErrNoPatterns
	}

	return m, nil
}

func (m matcher) match(name string) bool {
	name = strings.ToLower(name)

	for _, p := range m {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}

	return false
}
