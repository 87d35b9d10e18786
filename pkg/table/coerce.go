package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ToText renders a value as text. Missing values become "". Whole numbers
// print without a fractional part.
func ToText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// ToNumber parses a value as a number. ok is false for missing values and
// for text that is not a number.
func ToNumber(v any) (n float64, ok bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ParseText keeps a raw text cell as text, with "" as missing.
func ParseText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ParseCell types a raw text cell: "" is missing, numeric text is a
// number, anything else stays text.
func ParseCell(s string) any {
	if s == "" {
		return nil
	}
	if f, ok := ToNumber(s); ok {
		return f
	}
	return s
}

// CoerceNumber converts a column to numbers. Values that do not parse,
// including missing ones, become 0.
func (t *Table) CoerceNumber(name string) {
	c, ok := t.Column(name)
	if !ok {
		return
	}
	for i, v := range c.Values {
		n, _ := ToNumber(v)
		c.Values[i] = n
	}
}

// CoerceText converts a column to text with [ToText].
func (t *Table) CoerceText(name string) {
	c, ok := t.Column(name)
	if !ok {
		return
	}
	for i, v := range c.Values {
		c.Values[i] = ToText(v)
	}
}

// FillText replaces missing values with "" in every text column.
func (t *Table) FillText() {
	for _, c := range t.cols {
		if c.Kind() != KindText {
			continue
		}
		for i, v := range c.Values {
			if v == nil {
				c.Values[i] = ""
			}
		}
	}
}

// InferNumbers converts every column whose non-missing values all parse as
// numbers. Columns with any non-numeric text are left untouched.
func (t *Table) InferNumbers() {
	for _, c := range t.cols {
		numeric := true
		for _, v := range c.Values {
			if v == nil {
				continue
			}
			if _, ok := ToNumber(v); !ok {
				numeric = false
				break
			}
		}
		if !numeric {
			continue
		}
		for i, v := range c.Values {
			if v == nil {
				continue
			}
			c.Values[i], _ = ToNumber(v)
		}
	}
}

// Reconcile coerces every column except skip toward the kind the same
// column has in ref: text stays text, number becomes a number (invalid
// values 0), and any other kind, or a column ref lacks, becomes text.
func (t *Table) Reconcile(ref *Table, skip string) {
	for _, c := range t.cols {
		if c.Name == skip {
			continue
		}
		rc, ok := ref.Column(c.Name)
		if ok && rc.Kind() == KindNumber {
			t.CoerceNumber(c.Name)
			continue
		}
		t.CoerceText(c.Name)
	}
}
