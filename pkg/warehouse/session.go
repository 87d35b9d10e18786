// Package warehouse serves tables from the organization's relational
// warehouse through a four-tier cache:
//
//  1. memory, for the life of the [Session]
//  2. <dir>/<name>.parquet
//  3. <dir>/<name>.csv
//  4. a live query, when the session holds a connection
//
// The first tier that can satisfy a request wins. Query results are
// written back as <name>.csv, so a later run without warehouse access can
// still be served from disk.
//
// A Session is not safe for concurrent use.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"

	"github.com/matzehuels/nccs/pkg/table"
)

// Options configures a warehouse session.
type Options struct {
	// Enabled turns on credential prompting and the live query tier.
	Enabled bool

	Host    string
	Port    int
	SSLMode string

	// Driver is the database/sql driver name. Defaults to "postgres".
	Driver string

	// Dir holds the on-disk cache tiers.
	Dir string

	// NumericColumns lists columns converted to numbers when a table is
	// read from disk without a reference schema.
	NumericColumns []string
}

// Session owns the warehouse connection and the memory tier.
type Session struct {
	db     *sql.DB
	opts   Options
	memory map[string]*table.Table
	logger *log.Logger
}

// Open starts a session. When the warehouse is enabled it asks p for
// credentials and connects; a failure to connect is logged and the
// session continues with the on-disk tiers only. A nil logger uses
// log.Default().
func Open(ctx context.Context, opts Options, p Prompter, logger *log.Logger) *Session {
	s := NewSession(nil, opts, logger)
	if !opts.Enabled {
		s.logger.Info("warehouse disabled, looking for all tables in the cache directory", "dir", opts.Dir)
		return s
	}

	s.logger.Info("authenticating connection to warehouse", "host", opts.Host)
	user, password, err := p.Credentials(ctx)
	if err != nil {
		s.logger.Warn("no credentials, will try to load from the cache directory", "err", err)
		return s
	}
	db, err := s.connect(ctx, user, password)
	if err != nil {
		s.logger.Warn("failed to connect to warehouse, will try to load from the cache directory", "err", err)
		return s
	}
	s.db = db
	s.logger.Info("login successful, will retrieve missing tables from the warehouse")
	return s
}

// NewSession wraps an existing handle, which may be nil. The session
// closes it on Close.
func NewSession(db *sql.DB, opts Options, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	if opts.Driver == "" {
		opts.Driver = "postgres"
	}
	return &Session{
		db:     db,
		opts:   opts,
		memory: make(map[string]*table.Table),
		logger: logger,
	}
}

func (s *Session) connect(ctx context.Context, user, password string) (*sql.DB, error) {
	db, err := sql.Open(s.opts.Driver, DSN(s.opts, user, password))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// DSN builds a postgres connection URL. The database is chosen per query
// through schema qualification, so none is named here.
func DSN(opts Options, user, password string) string {
	host := opts.Host
	if opts.Port != 0 {
		host += ":" + strconv.Itoa(opts.Port)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   host,
	}
	if opts.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {opts.SSLMode}}.Encode()
	}
	return u.String()
}

// Connected reports whether the live query tier is available.
func (s *Session) Connected() bool { return s.db != nil }

// Close closes the connection if one was opened.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Info("closing warehouse connection")
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close warehouse connection: %w", err)
	}
	return nil
}
