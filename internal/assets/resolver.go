// Package assets resolves artwork into deterministic local files and the
// public URLs the metadata document points at.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Status is the outcome of resolving one asset.
type Status string

const (
	StatusDownloaded Status = "downloaded"
	StatusURLOnly    Status = "url-only"
	StatusSkipped    Status = "skipped"
)

// Ref describes one resolved asset. PublicURL is always set.
type Ref struct {
	SourceURL string
	RelPath   string
	LocalPath string
	PublicURL string
	Status    Status
	Err       error
}

// AssetDownloadError is a failed artwork fetch or write. It never escapes
// the resolver; it is attached to the Ref and logged.
type AssetDownloadError struct {
	URL  string
	Path string
	Err  error
}

func (e *AssetDownloadError) Error() string {
	return fmt.Sprintf("download %s -> %s: %v", e.URL, e.Path, e.Err)
}

func (e *AssetDownloadError) Unwrap() error { return e.Err }

// ErrNotImage is wrapped when a download answers with a non-image type.
var ErrNotImage = errors.New("response is not an image")

// Downloader fetches raw bytes and their content type. The SportsDB client
// implements it, so downloads share the feed's limiter.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, string, error)
}

// Options configures a Resolver.
type Options struct {
	Root         string // local directory the relative paths live under
	PublicBase   string // URL prefix for relative paths
	SkipDownload bool
}

// Resolver downloads artwork and computes public URLs.
type Resolver struct {
	dl         Downloader
	root       string
	publicBase string
	skip       bool
	logger     *slog.Logger
}

// NewResolver creates a resolver. dl may be nil when SkipDownload is set.
func NewResolver(dl Downloader, opts Options, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	root := opts.Root
	if root == "" {
		root = "."
	}
	return &Resolver{
		dl:         dl,
		root:       root,
		publicBase: strings.TrimRight(strings.TrimSpace(opts.PublicBase), "/"),
		skip:       opts.SkipDownload || dl == nil,
		logger:     logger,
	}
}

// PublicURL joins the public base and a relative path.
func (r *Resolver) PublicURL(relPath string) string {
	if IsAbsoluteURL(relPath) {
		return relPath
	}
	rel := strings.TrimLeft(filepath.ToSlash(relPath), "/")
	if r.publicBase == "" {
		return rel
	}
	return r.publicBase + "/" + rel
}

// Resolve downloads sourceURL to relPath under the root. It never fails:
// any problem degrades the Ref to url-only.
func (r *Resolver) Resolve(ctx context.Context, sourceURL, relPath string) Ref {
	ref := Ref{
		SourceURL: strings.TrimSpace(sourceURL),
		RelPath:   relPath,
		PublicURL: r.PublicURL(relPath),
	}
	if IsAbsoluteURL(relPath) {
		ref.RelPath = ""
		ref.Status = StatusURLOnly
		return ref
	}
	ref.LocalPath = filepath.Join(r.root, filepath.FromSlash(relPath))

	if r.skip {
		ref.Status = StatusSkipped
		return ref
	}
	if ref.SourceURL == "" {
		ref.Status = StatusURLOnly
		return ref
	}

	if err := r.download(ctx, ref.SourceURL, relPath, ref.LocalPath); err != nil {
		ref.Status = StatusURLOnly
		ref.Err = &AssetDownloadError{URL: ref.SourceURL, Path: ref.LocalPath, Err: err}
		r.logger.Warn("Asset download failed, using public URL only",
			"source", ref.SourceURL, "path", relPath, "error", err)
		return ref
	}
	ref.Status = StatusDownloaded
	r.logger.Debug("Asset downloaded", "source", ref.SourceURL, "path", ref.LocalPath)
	return ref
}

func (r *Resolver) download(ctx context.Context, sourceURL, relPath, localPath string) error {
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes the assets root", relPath)
	}

	body, contentType, err := r.dl.Download(ctx, sourceURL)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return fmt.Errorf("%w: content type %q", ErrNotImage, contentType)
	}
	if len(body) == 0 {
		return errors.New("empty response body")
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("create asset directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(localPath), "."+filepath.Base(localPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Request is one asset to resolve.
type Request struct {
	SourceURL string
	RelPath   string
}

// ResolveAll resolves requests with at most workers concurrent downloads.
// refs[i] always corresponds to reqs[i]. All downloads still pass through
// the downloader's shared limiter.
func (r *Resolver) ResolveAll(ctx context.Context, reqs []Request, workers int) []Ref {
	refs := make([]Ref, len(reqs))
	if len(reqs) == 0 {
		return refs
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(reqs) {
		workers = len(reqs)
	}

	ch := make(chan int, len(reqs))
	for i := range reqs {
		ch <- i
	}
	close(ch)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				refs[i] = r.Resolve(ctx, reqs[i].SourceURL, reqs[i].RelPath)
			}
		}()
	}
	wg.Wait()
	return refs
}
