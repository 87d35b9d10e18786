package cli

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "loaded core files (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logHooks reports acquisition, cache and HTTP events at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnDownloadStart(_ context.Context, url string) {
	h.logger.Debug("download started", "url", url)
}

func (h *logHooks) OnDownloadComplete(_ context.Context, url string, bytes int64, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("download failed", "url", url, "err", err)
		return
	}
	h.logger.Debug("download complete", "url", url, "bytes", bytes, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnReuse(_ context.Context, file string) {
	h.logger.Debug("reused local file", "file", file)
}

func (h *logHooks) OnNormalize(_ context.Context, file, format string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("conversion failed", "file", file, "format", format, "err", err)
		return
	}
	h.logger.Debug("converted", "file", file, "format", format, "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnCacheHit(_ context.Context, tier, table string) {
	h.logger.Debug("cache hit", "tier", tier, "table", table)
}

func (h *logHooks) OnCacheMiss(_ context.Context, tier, table string) {
	h.logger.Debug("cache miss", "tier", tier, "table", table)
}

func (h *logHooks) OnCacheSet(_ context.Context, tier, table string, rows int) {
	h.logger.Debug("cache set", "tier", tier, "table", table, "rows", rows)
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "host", host, "path", path,
		"status", http.StatusText(status), "took", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("request failed", "method", method, "host", host, "path", path, "err", err)
}
