package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ID identifies a record within one entity collection. In JSON an id is
// either a number (timestamp-derived ids, numeric fixtures) or a string
// (UUIDs, user ids); the two kinds never compare equal.
type ID struct {
	text    string
	numeric bool
}

// NumberID returns a numeric id.
func NumberID(n int64) ID {
	return ID{text: strconv.FormatInt(n, 10), numeric: true}
}

// StringID returns a string id.
func StringID(s string) ID {
	return ID{text: s}
}

// ParseID interprets command-line text: a valid JSON number literal becomes a
// numeric id, anything else a string id.
func ParseID(s string) ID {
	if isNumberLiteral(s) {
		return ID{text: canonicalNumber(s), numeric: true}
	}
	return ID{text: s}
}

// IDOf converts a decoded JSON value into an ID. It reports false for values
// that cannot be identifiers (nil, bools, objects, arrays).
func IDOf(v any) (ID, bool) {
	switch x := v.(type) {
	case ID:
		return x, !x.IsZero()
	case string:
		return ID{text: x}, true
	case json.Number:
		return ID{text: canonicalNumber(x.String()), numeric: true}, true
	case float64:
		return ID{text: formatFloat(x), numeric: true}, true
	case float32:
		return ID{text: formatFloat(float64(x)), numeric: true}, true
	case int:
		return NumberID(int64(x)), true
	case int32:
		return NumberID(int64(x)), true
	case int64:
		return NumberID(x), true
	case uint:
		return ID{text: strconv.FormatUint(uint64(x), 10), numeric: true}, true
	case uint32:
		return NumberID(int64(x)), true
	case uint64:
		return ID{text: strconv.FormatUint(x, 10), numeric: true}, true
	default:
		return ID{}, false
	}
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id.text == "" && !id.numeric }

// IsNumeric reports whether the id is a JSON number.
func (id ID) IsNumeric() bool { return id.numeric }

// Equal reports whether two ids are the same kind with the same value.
func (id ID) Equal(other ID) bool {
	return id.numeric == other.numeric && id.text == other.text
}

// Int64 returns the numeric value of the id, if it has one.
func (id ID) Int64() (int64, bool) {
	if !id.numeric {
		return 0, false
	}
	n, err := strconv.ParseInt(id.text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// String returns the id as it appears in messages.
func (id ID) String() string { return id.text }

// Value returns the form stored inside a Record: json.Number or string.
func (id ID) Value() any {
	if id.numeric {
		return json.Number(id.text)
	}
	return id.text
}

// MarshalJSON encodes numeric ids as numbers and the rest as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.text), nil
	}
	return json.Marshal(id.text)
}

// UnmarshalJSON accepts a number, a string, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{text: s}
		return nil
	}
	if !isNumberLiteral(string(data)) {
		return fmt.Errorf("%w: %s", ErrInvalidID, data)
	}
	*id = ID{text: canonicalNumber(string(data)), numeric: true}
	return nil
}

func isNumberLiteral(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

// canonicalNumber renders a number literal so that 1, 1.0 and 1e0 agree.
func canonicalNumber(s string) string {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return formatFloat(f)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
