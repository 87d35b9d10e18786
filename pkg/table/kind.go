package table

import (
	"math"
	"time"
)

// Kind is the category of a cell value or a column.
type Kind int

const (
	// KindNull marks a missing value. Columns never report it.
	KindNull Kind = iota
	// KindText covers strings and columns of heterogeneous values.
	KindText
	// KindNumber covers float64 values.
	KindNumber
	// KindOther covers dates and booleans.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "other"
	}
}

// KindOfValue returns the category of a single normalized value.
func KindOfValue(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case string:
		return KindText
	case float64:
		return KindNumber
	default:
		return KindOther
	}
}

// Verdict is the outcome of [Classify].
type Verdict int

const (
	Uniform Verdict = iota
	Mixed
)

func (v Verdict) String() string {
	if v == Mixed {
		return "mixed"
	}
	return "uniform"
}

// Classify scans values once and reports whether more than one value
// category is present. Missing values are ignored, so an empty or all-null
// column is uniform.
func Classify(values []any) Verdict {
	seen := KindNull
	for _, v := range values {
		k := KindOfValue(v)
		if k == KindNull {
			continue
		}
		if seen == KindNull {
			seen = k
			continue
		}
		if k != seen {
			return Mixed
		}
	}
	return Uniform
}

// KindOf returns the category of a column: the single kind of its non-null
// values, KindText when they are heterogeneous, and KindText for an empty
// or all-null column.
func KindOf(values []any) Kind {
	seen := KindNull
	for _, v := range values {
		k := KindOfValue(v)
		if k == KindNull {
			continue
		}
		if seen == KindNull {
			seen = k
		} else if k != seen {
			return KindText
		}
	}
	if seen == KindNull {
		return KindText
	}
	return seen
}

// Normalize maps codec and driver values onto the table's value set:
// integers and float32 become float64, byte slices become strings, NaN
// becomes nil. Pointers are dereferenced.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case float32:
		return Normalize(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case bool, time.Time:
		return x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return Normalize(*x)
	case *int64:
		if x == nil {
			return nil
		}
		return float64(*x)
	case *int32:
		if x == nil {
			return nil
		}
		return float64(*x)
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	default:
		return ToText(x)
	}
}
