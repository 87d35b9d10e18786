// Package acquire downloads raw filing extracts into the acquisition
// directory and hands them to the archive expander and the normalizer.
//
// A file is fetched at most once: if it already exists locally it is
// reused unless a force flag is set, either on the [Acquirer] or on the
// individual call. There is no retry. A download endpoint that answers
// with an HTML "Page Not Found" page is reported as an INVALID_URL error,
// whatever the status code.
package acquire

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nccs/pkg/archive"
	errs "github.com/matzehuels/nccs/pkg/errors"
	"github.com/matzehuels/nccs/pkg/normalize"
	"github.com/matzehuels/nccs/pkg/observability"
)

// NotFoundMarker is the text an HTML error page carries.
const NotFoundMarker = "Page Not Found"

// Options configures an Acquirer.
type Options struct {
	// Dir is the acquisition directory. It is created if missing.
	Dir string

	// Force re-downloads every file regardless of what exists locally.
	Force bool

	// Headers replaces [DefaultHeaders] when non-nil.
	Headers map[string]string

	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
}

// Acquirer downloads files and returns the path of their canonical form.
// It is not safe for concurrent use on the same directory.
type Acquirer struct {
	dir        string
	force      bool
	client     *Client
	normalizer *normalize.Normalizer
	logger     *log.Logger
}

// New creates an Acquirer. A nil normalizer gets the default handler set;
// a nil logger uses log.Default().
func New(opts Options, n *normalize.Normalizer, logger *log.Logger) (*Acquirer, error) {
	if logger == nil {
		logger = log.Default()
	}
	if n == nil {
		n = normalize.New(logger)
	}
	if opts.Dir == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "acquisition directory is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create acquisition directory: %w", err)
	}
	return &Acquirer{
		dir:        opts.Dir,
		force:      opts.Force,
		client:     NewClient(opts.Timeout, opts.Headers),
		normalizer: n,
		logger:     logger,
	}, nil
}

// Dir returns the acquisition directory.
func (a *Acquirer) Dir() string { return a.dir }

// FileName returns the final path segment of a URL, which names the local
// copy.
func FileName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return rawURL[strings.LastIndex(rawURL, "/")+1:]
}

// Acquire makes sure the file behind rawURL is present locally and returns
// the path of its canonical form (see [normalize.Normalizer.Normalize]).
// Zip archives are expanded first and their first file entry is used.
func (a *Acquirer) Acquire(ctx context.Context, rawURL string, force bool) (string, error) {
	name := FileName(rawURL)
	if name == "" || name == "/" || name == "." {
		return "", errs.New(errs.ErrCodeInvalidInput, "cannot derive a file name from %s", rawURL)
	}
	target := filepath.Join(a.dir, name)

	fresh := false
	if _, err := os.Stat(target); err == nil && !a.force && !force {
		a.logger.Info("using existing file", "file", name)
		observability.Acquire().OnReuse(ctx, name)
	} else {
		if err := a.download(ctx, rawURL, target); err != nil {
			return "", err
		}
		fresh = true
	}

	if strings.EqualFold(filepath.Ext(name), ".zip") {
		return a.expand(ctx, target, fresh)
	}
	if fresh {
		if err := a.normalizer.Invalidate(target); err != nil {
			return "", err
		}
	}
	return a.normalizer.Normalize(ctx, target)
}

func (a *Acquirer) download(ctx context.Context, rawURL, target string) (err error) {
	hooks := observability.Acquire()
	hooks.OnDownloadStart(ctx, rawURL)
	start := time.Now()
	var n int64
	defer func() { hooks.OnDownloadComplete(ctx, rawURL, n, time.Since(start), err) }()

	a.logger.Debug("downloading", "url", rawURL)
	resp, err := a.client.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body := io.Reader(resp.Body)
	if isHTML(resp.Header.Get("Content-Type")) {
		page, err := io.ReadAll(resp.Body)
		if err != nil {
			return errs.Wrap(errs.ErrCodeNetwork, err, "read %s", rawURL)
		}
		if bytes.Contains(page, []byte(NotFoundMarker)) {
			return errs.New(errs.ErrCodeInvalidURL, "the url %s appears to be invalid", rawURL)
		}
		body = bytes.NewReader(page)
	}

	if err := removeExisting(target); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	n, err = io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return errs.Wrap(errs.ErrCodeNetwork, err, "download %s", rawURL)
	}
	a.logger.Info("downloaded", "file", filepath.Base(target), "bytes", n)
	return nil
}

func (a *Acquirer) expand(ctx context.Context, zipPath string, fresh bool) (string, error) {
	paths, err := archive.Expand(zipPath, a.dir)
	if err != nil {
		return "", err
	}
	if len(paths) != 1 {
		a.logger.Warn("archive does not hold exactly one file, using the first",
			"file", filepath.Base(zipPath), "entries", len(paths))
	}
	for _, p := range paths {
		a.logger.Info("extracted", "file", filepath.Base(p), "archive", filepath.Base(zipPath))
		if fresh {
			if err := a.normalizer.Invalidate(p); err != nil {
				return "", err
			}
		}
	}
	return a.normalizer.Normalize(ctx, paths[0])
}

// removeExisting deletes target, clearing restrictive permissions first.
func removeExisting(target string) error {
	if _, err := os.Stat(target); err != nil {
		return nil
	}
	_ = os.Chmod(target, 0o777)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func isHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "text/html")
	}
	return mt == "text/html"
}
