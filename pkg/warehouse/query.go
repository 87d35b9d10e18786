package warehouse

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/lib/pq"

	errs "github.com/matzehuels/nccs/pkg/errors"
	"github.com/matzehuels/nccs/pkg/table"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// quoteIdent validates a table, schema or column name and quotes it in
// the case the server folds unquoted names to.
func quoteIdent(name string) (string, error) {
	if !identPattern.MatchString(name) {
		return "", errs.New(errs.ErrCodeInvalidInput, "invalid warehouse identifier %q", name)
	}
	return pq.QuoteIdentifier(strings.ToLower(name)), nil
}

// BuildQuery renders the SELECT for a request.
func BuildQuery(req Request) (string, error) {
	from, err := quoteIdent(req.Name)
	if err != nil {
		return "", err
	}
	if req.Database != "" {
		db, err := quoteIdent(req.Database)
		if err != nil {
			return "", err
		}
		from = db + "." + from
	}

	cols := AllColumns
	if req.ForceColumns && !req.all() {
		names := req.wanted()
		if req.IndexKey != "" {
			names = append([]string{req.IndexKey}, names...)
		}
		quoted := make([]string, len(names))
		for i, n := range names {
			if quoted[i], err = quoteIdent(n); err != nil {
				return "", err
			}
		}
		cols = strings.Join(quoted, ", ")
	}
	return "SELECT " + cols + " FROM " + from, nil
}

// query runs the live tier. Result columns are upper-cased except the
// index column, which takes the requested key name.
func (s *Session) query(ctx context.Context, req Request) (*table.Table, error) {
	q, err := BuildQuery(req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("querying warehouse", "table", req.Name, "database", req.Database)
	s.logger.Debug("query", "sql", q)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeTableUnavailable, err, "query %s", req.Name)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "read columns of %s", req.Name)
	}
	numeric := make([]bool, len(names))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			switch strings.ToUpper(ct.DatabaseTypeName()) {
			case "NUMERIC", "DECIMAL":
				numeric[i] = true
			}
		}
	}

	values := make([][]any, len(names))
	dest := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "scan %s", req.Name)
		}
		for i, v := range dest {
			values[i] = append(values[i], scanValue(v, numeric[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeTableUnavailable, err, "query %s", req.Name)
	}

	t := table.New(req.Name)
	index := ""
	for i, n := range names {
		col := strings.ToUpper(n)
		if req.IndexKey != "" && index == "" && strings.EqualFold(n, req.IndexKey) {
			col = req.IndexKey
			index = col
		}
		if values[i] == nil {
			values[i] = []any{}
		}
		if err := t.AddColumn(col, values[i]); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "build %s", req.Name)
		}
	}
	if req.IndexKey != "" {
		if index == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "table %s has no %s column", req.Name, req.IndexKey)
		}
		if err := t.SetIndex(index); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInternal, err, "index %s", req.Name)
		}
	}
	return t, nil
}

// scanValue maps a driver value onto the table value model. NUMERIC
// columns arrive as text and are parsed.
func scanValue(v any, numeric bool) any {
	if b, ok := v.([]byte); ok && numeric {
		if f, err := strconv.ParseFloat(string(b), 64); err == nil {
			return f
		}
	}
	return table.Normalize(v)
}
