package normalize

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// RawRecord is one unprocessed dataset item as returned by the provider.
type RawRecord json.RawMessage

// Get returns the value at a gjson path.
func (r RawRecord) Get(path string) gjson.Result {
	return gjson.GetBytes(r, path)
}

// Has reports whether path resolves to an object.
func (r RawRecord) Has(path string) bool {
	return r.Get(path).IsObject()
}

// Scope returns the sub-record at path, or nil when it is absent or not an object.
func (r RawRecord) Scope(path string) RawRecord {
	v := r.Get(path)
	if !v.IsObject() {
		return nil
	}
	return RawRecord(v.Raw)
}

// StringRule extracts one string field, reporting whether it was found.
type StringRule func(RawRecord) (string, bool)

// CountRule extracts a non-negative integer field.
type CountRule func(RawRecord) (int64, bool)

// BoolRule extracts a boolean field.
type BoolRule func(RawRecord) (bool, bool)

// Str reads a non-blank string (or number) at path. Objects, arrays and
// booleans are treated as absent.
func Str(path string) StringRule {
	return func(r RawRecord) (string, bool) {
		v := r.Get(path)
		if v.Type != gjson.String && v.Type != gjson.Number {
			return "", false
		}
		s := strings.TrimSpace(v.String())
		if s == "" {
			return "", false
		}
		return s, true
	}
}

// Join concatenates the non-blank strings at paths with a single space. It
// is found only if at least one part is present.
func Join(paths ...string) StringRule {
	return func(r RawRecord) (string, bool) {
		var parts []string
		for _, p := range paths {
			if s, ok := Str(p)(r); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, " "), true
	}
}

// SplitPart splits the string at path on sep and returns the trimmed part at
// index (0 = before the first separator, 1 = after it).
func SplitPart(path, sep string, index int) StringRule {
	return func(r RawRecord) (string, bool) {
		s, ok := Str(path)(r)
		if !ok || !strings.Contains(s, sep) {
			return "", false
		}
		parts := strings.SplitN(s, sep, 2)
		out := strings.TrimSpace(parts[index])
		return out, out != ""
	}
}

// Under evaluates rule against the object at path.
func Under(path string, rule StringRule) StringRule {
	return func(r RawRecord) (string, bool) {
		sub := r.Scope(path)
		if sub == nil {
			return "", false
		}
		return rule(sub)
	}
}

// FirstElem evaluates rule against the first element of the array at path.
func FirstElem(path string, rule StringRule) StringRule {
	return func(r RawRecord) (string, bool) {
		arr := r.Get(path)
		if !arr.IsArray() {
			return "", false
		}
		elems := arr.Array()
		if len(elems) == 0 || !elems[0].IsObject() {
			return "", false
		}
		return rule(RawRecord(elems[0].Raw))
	}
}

// Count reads a non-negative integer at path. Numeric strings are accepted.
func Count(path string) CountRule {
	return func(r RawRecord) (int64, bool) {
		v := r.Get(path)
		switch v.Type {
		case gjson.Number:
			if v.Int() < 0 {
				return 0, false
			}
			return v.Int(), true
		case gjson.String:
			s := strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "")
			n := gjson.Parse(s)
			if n.Type != gjson.Number || n.Int() < 0 {
				return 0, false
			}
			return n.Int(), true
		default:
			return 0, false
		}
	}
}

// Flag reads a JSON boolean at path.
func Flag(path string) BoolRule {
	return func(r RawRecord) (bool, bool) {
		v := r.Get(path)
		if v.Type != gjson.True && v.Type != gjson.False {
			return false, false
		}
		return v.Bool(), true
	}
}

// FirstString applies rules in order and returns the first found value.
func FirstString(r RawRecord, rules ...StringRule) string {
	for _, rule := range rules {
		if s, ok := rule(r); ok {
			return s
		}
	}
	return ""
}

// FirstCount applies rules in order and returns the first found value, or 0.
func FirstCount(r RawRecord, rules ...CountRule) int64 {
	for _, rule := range rules {
		if n, ok := rule(r); ok {
			return n
		}
	}
	return 0
}

// FirstFlag applies rules in order and returns the first found value, or false.
func FirstFlag(r RawRecord, rules ...BoolRule) bool {
	for _, rule := range rules {
		if b, ok := rule(r); ok {
			return b
		}
	}
	return false
}
