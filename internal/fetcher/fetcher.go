package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"conformcheck/internal/data"
	"conformcheck/internal/rules"
)

// Fetcher reads and decodes documents from the environment's trees. Concurrent
// requests for the same document are collapsed and the outcome is cached for
// the lifetime of the Fetcher (one run).
type Fetcher struct {
	env    *data.Environment
	group  Group
	cache  *Cache
	logger *slog.Logger
}

func NewFetcher(env *data.Environment, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{
		env:    env,
		cache:  NewCache(),
		logger: logger,
	}
}

func (f *Fetcher) Environment() *data.Environment {
	return f.env
}

// Stat reports the file info of a scope-relative path without caching; stat
// results are cheap and callers want the live answer for each candidate.
func (f *Fetcher) Stat(ctx context.Context, scope rules.Scope, path string) (fs.FileInfo, error) {
	if err := f.check(ctx); err != nil {
		return nil, err
	}
	fsys, err := f.env.FS(scope)
	if err != nil {
		return nil, err
	}
	return fs.Stat(fsys, path)
}

// Fetch returns the decoded document at path. Errors wrap fs.ErrNotExist for
// absent files and are *ParseError for undecodable ones.
func (f *Fetcher) Fetch(ctx context.Context, scope rules.Scope, path string, format Format) (any, error) {
	if err := f.check(ctx); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("Fetch: empty path")
	}
	dec, ok := ResolveDecoder(format)
	if !ok {
		return nil, fmt.Errorf("Fetch: unsupported format %q", format)
	}

	key := string(scope) + ":" + string(format) + ":" + path
	if e, ok := f.cache.Get(key); ok {
		return e.val, e.err
	}

	e, shared := f.group.Do(key, func() entry {
		e := f.load(scope, path, dec)
		f.cache.Set(key, e)
		return e
	})
	f.logger.Debug("fetched document", "scope", scope, "path", path, "format", format, "shared", shared, "error", e.err)
	return e.val, e.err
}

func (f *Fetcher) load(scope rules.Scope, path string, dec Decoder) entry {
	fsys, err := f.env.FS(scope)
	if err != nil {
		return entry{err: err}
	}
	b, err := fs.ReadFile(fsys, path)
	if err != nil {
		return entry{err: err}
	}
	v, err := dec.Decode(b)
	if err != nil {
		return entry{err: &ParseError{Path: f.env.DisplayPath(scope, path), Format: dec.Format(), Err: err}}
	}
	return entry{val: v}
}

func (f *Fetcher) check(ctx context.Context) error {
	if ctx == nil {
		return errors.New("Fetch: nil context")
	}
	if f == nil {
		return errors.New("Fetch: nil Fetcher")
	}
	if f.env == nil {
		return errors.New("Fetch: nil environment (use NewFetcher)")
	}
	if f.cache == nil {
		return errors.New("Fetch: nil cache (use NewFetcher)")
	}
	return ctx.Err()
}
