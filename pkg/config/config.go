// Package config loads the nccs run file (nccs.toml).
//
// Every setting has a default, so the file is optional and may set any
// subset of keys. Relative directories are resolved against Root.
//
//	root = "/data/nccs"
//	year = 2020
//	forms = ["EZ", "Full", "PF"]
//	force_download = false
//
//	[download]
//	dir = "downloads/IRS"
//	urls_dir = "settings/urls"
//	timeout = "0s"
//
//	[delimiters]
//	core = ","
//	epostcard = "|"
//	bmf = ","
//
//	[warehouse]
//	enabled = false
//	host = "localhost"
//	port = 5432
//	database = "nccs"
//	dir = "downloads/nccs"
//	numeric_columns = ["TOTREV", "ASSETS"]
package config

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/nccs/pkg/errors"
)

// FileName is the run file looked up in the working directory.
const FileName = "nccs.toml"

// Config is the full run configuration.
type Config struct {
	Root  string   `toml:"root"`
	Year  int      `toml:"year"`
	Forms []string `toml:"forms"`
	Force bool     `toml:"force_download"`

	Download   Download   `toml:"download"`
	Delimiters Delimiters `toml:"delimiters"`
	Warehouse  Warehouse  `toml:"warehouse"`
}

// Download configures the file acquirer.
type Download struct {
	Dir     string            `toml:"dir"`
	URLsDir string            `toml:"urls_dir"`
	Timeout duration          `toml:"timeout"`
	Headers map[string]string `toml:"headers"`
}

// Delimiters holds single-character field separators.
type Delimiters struct {
	Core      string `toml:"core"`
	Epostcard string `toml:"epostcard"`
	BMF       string `toml:"bmf"`
}

// Warehouse configures the warehouse session.
type Warehouse struct {
	Enabled        bool     `toml:"enabled"`
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	SSLMode        string   `toml:"sslmode"`
	Driver         string   `toml:"driver"`
	Database       string   `toml:"database"`
	Dir            string   `toml:"dir"`
	NumericColumns []string `toml:"numeric_columns"`
}

type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) { return []byte(d.Duration.String()), nil }

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Root:  ".",
		Year:  2020,
		Forms: []string{"EZ", "Full", "PF"},
		Download: Download{
			Dir:     filepath.Join("downloads", "IRS"),
			URLsDir: filepath.Join("settings", "urls"),
		},
		Delimiters: Delimiters{Core: ",", Epostcard: "|", BMF: ","},
		Warehouse: Warehouse{
			Host:     "localhost",
			Port:     5432,
			SSLMode:  "disable",
			Driver:   "postgres",
			Database: "nccs",
			Dir:      filepath.Join("downloads", "nccs"),
		},
	}
}

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errs.Wrap(errs.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errs.New(errs.ErrCodeInvalidInput, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Year < 1000 || c.Year > 9999 {
		return errs.New(errs.ErrCodeInvalidInput, "year %d is not a four digit year", c.Year)
	}
	if len(c.Forms) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "at least one form is required")
	}
	for name, d := range map[string]string{
		"core":      c.Delimiters.Core,
		"epostcard": c.Delimiters.Epostcard,
		"bmf":       c.Delimiters.BMF,
	} {
		if utf8.RuneCountInString(d) != 1 {
			return errs.New(errs.ErrCodeInvalidInput, "%s delimiter %q must be a single character", name, d)
		}
	}
	if c.Warehouse.Port < 0 || c.Warehouse.Port > 65535 {
		return errs.New(errs.ErrCodeInvalidInput, "warehouse port %d out of range", c.Warehouse.Port)
	}
	if c.Download.Timeout.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "download timeout must not be negative")
	}
	return nil
}

// Path resolves p against Root unless it is absolute.
func (c Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// DownloadDir is the acquisition directory.
func (c Config) DownloadDir() string { return c.Path(c.Download.Dir) }

// URLsDir holds the URL registry files.
func (c Config) URLsDir() string { return c.Path(c.Download.URLsDir) }

// WarehouseDir holds the warehouse cache tiers.
func (c Config) WarehouseDir() string { return c.Path(c.Warehouse.Dir) }

// Timeout is the per-request download timeout. Zero means none.
func (c Config) Timeout() time.Duration { return c.Download.Timeout.Duration }

// Rune returns the single character of a validated delimiter.
func Rune(d string) rune {
	r, _ := utf8.DecodeRuneInString(d)
	return r
}
