package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SetIndex marks a column as the table's lookup key. Uniqueness is not
// enforced here; callers that need it check [Table.DuplicateKeys].
func (t *Table) SetIndex(name string) error {
	if !t.Has(name) {
		return fmt.Errorf("index column %q not in table %s", name, t.Name)
	}
	t.index = name
	return nil
}

// Index returns the index column name, or "" when the table is unkeyed.
func (t *Table) Index() string { return t.index }

// Key returns the index key of a row.
func (t *Table) Key(row int) string {
	if t.index == "" {
		return strconv.Itoa(row)
	}
	return FormatKey(t.Value(row, t.index))
}

// FormatKey renders an identifier value as a lookup key. Whole numbers
// print as integers so a numeric EIN and its text form agree.
func FormatKey(v any) string {
	switch x := v.(type) {
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return strings.TrimSpace(x)
	default:
		return ToText(x)
	}
}

// Lookup returns the first row whose key equals key.
func (t *Table) Lookup(key string) (int, bool) {
	for i := 0; i < t.rows; i++ {
		if t.Key(i) == key {
			return i, true
		}
	}
	return 0, false
}

// DuplicateKeys returns the sorted set of keys that occur on more than one
// row.
func (t *Table) DuplicateKeys() []string {
	counts := make(map[string]int, t.rows)
	for i := 0; i < t.rows; i++ {
		counts[t.Key(i)]++
	}
	var dups []string
	for k, n := range counts {
		if n > 1 {
			dups = append(dups, k)
		}
	}
	sort.Strings(dups)
	return dups
}
