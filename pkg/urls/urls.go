// Package urls reads the download registry: one text file per data
// category under <settings>/urls, each line of the form
//
//	<key> = <url>
//
// Core filing files use a four-digit release year as key, the notice
// filing file uses the literal key "epostcard" and the organization
// registry uses region1, region2, and so on. URLs must end in one of the
// recognized extensions (.dat, .zip, .csv, .txt, .xlsx). Lines starting
// with '#' are comments and lines that do not match are skipped. When a
// key appears twice the later line wins.
package urls

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const urlPattern = `\s*=\s*(https?://.+\.(?:dat|zip|csv|txt|xlsx))\s*`

var (
	formLine      = regexp.MustCompile(`^(\d{4})` + urlPattern)
	epostcardLine = regexp.MustCompile(`^(epostcard)` + urlPattern)
	bmfLine       = regexp.MustCompile(`^(region\d)` + urlPattern)
)

// File names of the auxiliary registries.
const (
	EpostcardFile = "epostcard.txt"
	BMFFile       = "bmf.txt"
)

// Map holds every configured download URL. It is built once by [Load] and
// not modified afterwards.
type Map struct {
	forms     map[string]map[int]string
	epostcard string
	bmf       map[string]string
}

// NewMap builds a Map from already parsed entries. The inputs are copied.
func NewMap(forms map[string]map[int]string, epostcard string, bmf map[string]string) *Map {
	m := &Map{
		forms:     make(map[string]map[int]string, len(forms)),
		epostcard: epostcard,
		bmf:       maps.Clone(bmf),
	}
	for form, years := range forms {
		m.forms[form] = maps.Clone(years)
	}
	if m.bmf == nil {
		m.bmf = map[string]string{}
	}
	return m
}

// URL returns the core file URL for a form and release year.
func (m *Map) URL(form string, year int) (string, bool) {
	u, ok := m.forms[form][year]
	return u, ok
}

// Forms returns the configured form names, sorted.
func (m *Map) Forms() []string {
	return slices.Sorted(maps.Keys(m.forms))
}

// Years returns the release years configured for a form, sorted.
func (m *Map) Years(form string) []int {
	return slices.Sorted(maps.Keys(m.forms[form]))
}

// Epostcard returns the notice filing URL, or "" if none is configured.
func (m *Map) Epostcard() string { return m.epostcard }

// BMF returns a copy of the region to URL map of the organization registry.
func (m *Map) BMF() map[string]string { return maps.Clone(m.bmf) }

// Regions returns the registry regions in sorted order.
func (m *Map) Regions() []string {
	return slices.Sorted(maps.Keys(m.bmf))
}

// FormFile returns the registry file name for a form.
func FormFile(form string) string {
	return strings.ToLower(form) + ".txt"
}

// Load reads the registry files for the given forms plus the notice filing
// and organization registry files from dir. A missing file is an error.
func Load(dir string, forms []string) (*Map, error) {
	parsed := make(map[string]map[int]string, len(forms))
	for _, form := range forms {
		years, err := parseFile(filepath.Join(dir, FormFile(form)), ParseForm)
		if err != nil {
			return nil, err
		}
		parsed[form] = years
	}
	epostcard, err := parseFile(filepath.Join(dir, EpostcardFile), ParseEpostcard)
	if err != nil {
		return nil, err
	}
	bmf, err := parseFile(filepath.Join(dir, BMFFile), ParseBMF)
	if err != nil {
		return nil, err
	}
	return NewMap(parsed, epostcard, bmf), nil
}

func parseFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open url registry: %w", err)
	}
	defer f.Close()
	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return v, nil
}

// ParseForm parses a core filing registry into release year → URL.
func ParseForm(r io.Reader) (map[int]string, error) {
	out := make(map[int]string)
	err := scan(r, formLine, func(key, u string) {
		year, _ := strconv.Atoi(key)
		out[year] = u
	})
	return out, err
}

// ParseEpostcard parses the notice filing registry and returns its URL.
func ParseEpostcard(r io.Reader) (string, error) {
	var out string
	err := scan(r, epostcardLine, func(_, u string) { out = u })
	return out, err
}

// ParseBMF parses the organization registry into region → URL.
func ParseBMF(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	err := scan(r, bmfLine, func(key, u string) { out[key] = u })
	return out, err
}

func scan(r io.Reader, re *regexp.Regexp, emit func(key, url string)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		emit(m[1], m[2])
	}
	return sc.Err()
}
