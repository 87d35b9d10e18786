// Package loader turns configured download URLs into EIN-indexed tables:
// one core filing table per form and release year, the notice filing
// (epostcard) table and the combined organization registry (BMF).
//
// Core tables are keyed by EIN without a uniqueness check and carry a
// SOURCE column naming the file they came from. The notice filing and
// registry tables must have unique EINs; a repeat is a DUPLICATE_KEY error.
package loader

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nccs/pkg/acquire"
	errs "github.com/matzehuels/nccs/pkg/errors"
	"github.com/matzehuels/nccs/pkg/normalize"
	"github.com/matzehuels/nccs/pkg/table"
	"github.com/matzehuels/nccs/pkg/tableio"
	"github.com/matzehuels/nccs/pkg/urls"
)

// Column names set by the loaders.
const (
	EIN       = "EIN"
	SOURCE    = "SOURCE"
	EPOSTCARD = "EPOSTCARD"
	REGION    = "REGION"
)

// Options configures the delimiters of the delimited formats.
type Options struct {
	// CoreDelimiter separates fields of core .csv files. Zero means ','.
	CoreDelimiter rune

	// EpostcardDelimiter separates fields of the notice filing file.
	// Zero means '|'.
	EpostcardDelimiter rune

	// BMFDelimiter separates fields of registry .csv partitions. Zero
	// means ','.
	BMFDelimiter rune
}

func (o Options) withDefaults() Options {
	if o.CoreDelimiter == 0 {
		o.CoreDelimiter = ','
	}
	if o.EpostcardDelimiter == 0 {
		o.EpostcardDelimiter = '|'
	}
	if o.BMFDelimiter == 0 {
		o.BMFDelimiter = ','
	}
	return o
}

// Loader loads the filing tables named in a URL map.
type Loader struct {
	urls   *urls.Map
	acq    *acquire.Acquirer
	opts   Options
	logger *log.Logger
}

// New creates a Loader. A nil logger uses log.Default().
func New(m *urls.Map, acq *acquire.Acquirer, opts Options, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{urls: m, acq: acq, opts: opts.withDefaults(), logger: logger}
}

// LoadForms loads the core table of every form for a release year, keyed
// by form name. The first failure stops the run.
func (l *Loader) LoadForms(ctx context.Context, forms []string, year int) (map[string]*table.Table, error) {
	l.logger.Info("beginning any necessary downloads", "forms", strings.Join(forms, ","), "year", year)
	out := make(map[string]*table.Table, len(forms))
	for _, form := range forms {
		t, err := l.LoadForm(ctx, form, year)
		if err != nil {
			return nil, err
		}
		out[form] = t
	}
	l.logger.Info("downloading complete")
	return out, nil
}

// LoadForm loads the core table of one form and release year.
func (l *Loader) LoadForm(ctx context.Context, form string, year int) (*table.Table, error) {
	u, ok := l.urls.URL(form, year)
	if !ok {
		return nil, errs.New(errs.ErrCodeMissingURL,
			"URL not found for core file year %d, form %s; check the urls folder", year, form)
	}
	l.logger.Info("loading", "form", form, "url", u)
	path, err := l.acq.Acquire(ctx, u, false)
	if err != nil {
		return nil, err
	}

	t, err := ReadArtifact(path, l.opts.CoreDelimiter, l.logger)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("finished loading", "file", filepath.Base(path), "rows", t.Len())
	return Finish(t, acquire.FileName(u))
}

// ReadArtifact reads an acquired file according to its extension. Core
// .csv files are read as text with delim; .dat files have their delimiter
// sniffed.
func ReadArtifact(path string, delim rune, logger *log.Logger) (*table.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return tableio.ReadXLSX(path)
	case ".csv":
		return tableio.ReadDelimitedFile(path, tableio.DelimitedOptions{Comma: delim, Header: true})
	case normalize.CanonicalExt:
		return tableio.ReadParquet(path)
	case ".dat":
		d, err := normalize.SniffOrDefault(path, ',', logger)
		if err != nil {
			return nil, err
		}
		return tableio.ReadDelimitedFile(path, tableio.DelimitedOptions{Comma: d, Header: true, Infer: true})
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "%s has unsupported file type extension %q",
			filepath.Base(path), filepath.Ext(path))
	}
}

// Finish applies the core table conventions: the identifier column is
// named EIN (one release ships it lowercase), it becomes the index, and
// every row gets SOURCE = source.
func Finish(t *table.Table, source string) (*table.Table, error) {
	if t.Has("ein") && !t.Has(EIN) {
		t.Rename("ein", EIN)
	}
	if err := t.SetIndex(EIN); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "%s has no EIN column", source)
	}
	t.Fill(SOURCE, source)
	return t, nil
}
