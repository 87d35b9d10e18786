// Package normalize converts raw downloads into the canonical columnar
// artifact: a Parquet file named after the raw file's stem and stored
// beside it.
//
// Conversion is idempotent. Once <stem>.parquet exists the raw file is not
// read again until the artifact is removed with [Normalizer.Invalidate].
//
// Each supported extension maps to one [Handler] that reads the raw file
// into a table. The default set covers the formats the extracts are
// distributed in:
//
//   - .csv: comma separated with a header row, numeric columns inferred
//   - .xlsx: first sheet, columns mixing numbers and text coerced to text
//   - .dat: delimiter sniffed from the first non-blank line
//
// Files with any other extension are passed through unchanged.
package normalize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nccs/pkg/observability"
	"github.com/matzehuels/nccs/pkg/table"
	"github.com/matzehuels/nccs/pkg/tableio"
)

// CanonicalExt is the extension of canonical artifacts.
const CanonicalExt = ".parquet"

// Handler reads one raw format into a table.
type Handler struct {
	// Format names the handler in logs and hooks.
	Format string

	// Read parses the file at path. Shape anomalies are reported on logger
	// and do not fail the read.
	Read func(path string, logger *log.Logger) (*table.Table, error)
}

// Normalizer converts raw files to canonical artifacts.
type Normalizer struct {
	logger   *log.Logger
	handlers map[string]Handler
}

// New returns a Normalizer with the default handlers registered.
// A nil logger uses log.Default().
func New(logger *log.Logger) *Normalizer {
	if logger == nil {
		logger = log.Default()
	}
	n := &Normalizer{logger: logger, handlers: make(map[string]Handler)}
	n.Register(".csv", CSVHandler())
	n.Register(".xlsx", XLSXHandler())
	n.Register(".dat", DATHandler())
	return n
}

// Register adds or replaces the handler for an extension (with the dot,
// matched case-insensitively).
func (n *Normalizer) Register(ext string, h Handler) {
	n.handlers[strings.ToLower(ext)] = h
}

// Select returns the handler for an extension.
func (n *Normalizer) Select(ext string) (Handler, bool) {
	h, ok := n.handlers[strings.ToLower(ext)]
	return h, ok
}

// CanonicalPath returns where the canonical artifact for path lives.
func CanonicalPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + CanonicalExt
}

// Normalize returns the canonical artifact for path, converting the raw
// file first if the artifact does not exist yet. Unsupported extensions
// and files without any columns are logged and path is returned unchanged.
func (n *Normalizer) Normalize(ctx context.Context, path string) (string, error) {
	out := CanonicalPath(path)
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := filepath.Ext(path)
	h, ok := n.Select(ext)
	if !ok {
		n.logger.Warn("unsupported file type", "file", filepath.Base(path), "ext", ext)
		return path, nil
	}

	n.logger.Info("converting to parquet", "file", filepath.Base(path), "format", h.Format)
	start := time.Now()
	err := n.convert(h, path, out)
	if errors.Is(err, tableio.ErrNoColumns) {
		n.logger.Warn("no columns found, keeping raw file", "file", filepath.Base(path))
		out, err = path, nil
	}
	observability.Acquire().OnNormalize(ctx, filepath.Base(path), h.Format, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return out, nil
}

func (n *Normalizer) convert(h Handler, src, dst string) error {
	t, err := h.Read(src, n.logger)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(src), err)
	}
	if err := tableio.WriteParquet(dst, t); err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("convert %s: %w", filepath.Base(src), err)
	}
	return nil
}

// Invalidate removes the canonical artifact for path so the next
// Normalize converts the raw file again. A missing artifact is not an error.
func (n *Normalizer) Invalidate(path string) error {
	if strings.EqualFold(filepath.Ext(path), CanonicalExt) {
		return nil
	}
	err := os.Remove(CanonicalPath(path))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
