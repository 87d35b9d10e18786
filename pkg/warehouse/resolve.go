package warehouse

import (
	"context"
	"strings"

	errs "github.com/matzehuels/nccs/pkg/errors"
	"github.com/matzehuels/nccs/pkg/observability"
	"github.com/matzehuels/nccs/pkg/table"
)

// AllColumns requests every column of a table.
const AllColumns = "*"

// Request describes one warehouse table lookup.
type Request struct {
	// Name is the warehouse table name and the stem of its cache files.
	Name string

	// Database qualifies the live query.
	Database string

	// Columns to return. Empty or ["*"] returns every column.
	Columns []string

	// IndexKey names the key column. Empty leaves the result unkeyed.
	IndexKey string

	// Reference supplies the column kinds the result is reconciled to.
	Reference *table.Table

	// ForceColumns pushes Columns into the SELECT list instead of
	// selecting every column.
	ForceColumns bool
}

func (r Request) all() bool {
	return len(r.Columns) == 0 || (len(r.Columns) == 1 && r.Columns[0] == AllColumns)
}

// wanted lists the requested columns other than the index key.
func (r Request) wanted() []string {
	if r.all() {
		return nil
	}
	out := make([]string, 0, len(r.Columns))
	for _, c := range r.Columns {
		if c == r.IndexKey || c == AllColumns {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Resolve returns the requested table from the first tier that holds it.
// Results read from disk or the warehouse are kept in memory for the rest
// of the session. When no tier can serve the table the error has code
// TABLE_UNAVAILABLE.
func (s *Session) Resolve(ctx context.Context, req Request) (*table.Table, error) {
	if req.Name == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "warehouse table name is required")
	}
	hooks := observability.Cache()

	if t, ok := s.memory[req.Name]; ok {
		s.logger.Info("table already cached, trying version in memory", "table", req.Name)
		missing := missingColumns(t, req.wanted())
		if len(missing) == 0 {
			hooks.OnCacheHit(ctx, TierMemory, req.Name)
			return shape(t, req)
		}
		s.logger.Info("requested columns not in memory", "table", req.Name, "missing", strings.Join(missing, ","))
	}
	hooks.OnCacheMiss(ctx, TierMemory, req.Name)

	t, err := s.load(ctx, req)
	if err != nil {
		return nil, err
	}
	s.memory[req.Name] = t
	hooks.OnCacheSet(ctx, TierMemory, req.Name, t.Len())
	return shape(t, req)
}

// load consults the disk tiers and then the live query.
func (s *Session) load(ctx context.Context, req Request) (*table.Table, error) {
	hooks := observability.Cache()
	for _, tier := range []fileTier{parquetTier{s.opts.Dir}, csvTier{s.opts.Dir}} {
		t, ok, err := tier.Get(ctx, req.Name)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "read cached table %s", req.Name)
		}
		if !ok {
			hooks.OnCacheMiss(ctx, tier.Name(), req.Name)
			continue
		}
		hooks.OnCacheHit(ctx, tier.Name(), req.Name)
		s.logger.Info("found in cache directory", "table", req.Name, "tier", tier.Name())
		if err := s.prepare(t, req); err != nil {
			return nil, err
		}
		return t, nil
	}

	if s.db == nil {
		return nil, errs.New(errs.ErrCodeTableUnavailable,
			"no active warehouse connection and %s not found in cache directory %s", req.Name, s.opts.Dir)
	}
	t, err := s.query(ctx, req)
	if err != nil {
		return nil, err
	}
	hooks.OnCacheHit(ctx, TierQuery, req.Name)

	if req.Reference != nil {
		s.logger.Info("standardizing column types", "table", req.Name)
		t.Reconcile(req.Reference, req.IndexKey)
	}
	csv := csvTier{s.opts.Dir}
	if err := csv.Set(ctx, req.Name, t); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "persist %s", req.Name)
	}
	hooks.OnCacheSet(ctx, TierCSV, req.Name, t.Len())
	return t, nil
}

// prepare keys a table read from disk and fixes its column kinds.
func (s *Session) prepare(t *table.Table, req Request) error {
	if req.IndexKey != "" {
		if err := t.SetIndex(req.IndexKey); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "cached table %s", req.Name)
		}
	}
	if req.Reference != nil {
		t.Reconcile(req.Reference, req.IndexKey)
		return nil
	}
	for _, name := range s.opts.NumericColumns {
		if name != req.IndexKey {
			t.CoerceNumber(name)
		}
	}
	t.FillText()
	return nil
}

// resolveName finds a requested column as given or upper-cased.
func resolveName(t *table.Table, name string) (string, bool) {
	if t.Has(name) {
		return name, true
	}
	if up := strings.ToUpper(name); t.Has(up) {
		return up, true
	}
	return "", false
}

func missingColumns(t *table.Table, names []string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := resolveName(t, n); !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// shape copies the requested view out of a cached table.
func shape(t *table.Table, req Request) (*table.Table, error) {
	if req.all() {
		return t.Clone(), nil
	}
	wanted := req.wanted()
	names := make([]string, 0, len(wanted))
	for _, w := range wanted {
		n, ok := resolveName(t, w)
		if !ok {
			return nil, errs.New(errs.ErrCodeTableUnavailable, "column %s not found in table %s", w, req.Name)
		}
		names = append(names, n)
	}
	out, err := t.Select(names)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "select from %s", req.Name)
	}
	out.Upper(out.Index())
	return out, nil
}
