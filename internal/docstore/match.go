package docstore

import (
	"sort"
	"strings"
)

// Apply evaluates q over docs in memory.
func Apply(q Query, docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if Matches(q, d) {
			out = append(out, d)
		}
	}
	if len(q.Orders) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.Orders {
				c := compareValues(fieldValue(out[i], o.Field), fieldValue(out[j], o.Field))
				if c == 0 {
					continue
				}
				if o.Dir == Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func Matches(q Query, d Document) bool {
	for _, f := range q.Filters {
		v := fieldValue(d, f.Field)
		if !sameType(v, f.Value) {
			return false
		}
		c := compareValues(v, f.Value)
		switch f.Op {
		case OpEqual:
			if c != 0 {
				return false
			}
		case OpGreaterEqual:
			if c < 0 {
				return false
			}
		case OpLessEqual:
			if c > 0 {
				return false
			}
		case OpGreater:
			if c <= 0 {
				return false
			}
		case OpLess:
			if c >= 0 {
				return false
			}
		}
	}
	return true
}

func fieldValue(d Document, field string) any {
	if field == FieldID {
		return d.ID
	}
	return d.Data[field]
}

// sameType reports whether a stored value and a constraint value share a
// JSON type. Mismatched types never match, as in typed document stores.
func sameType(a, b any) bool {
	switch a.(type) {
	case string:
		_, ok := b.(string)
		return ok
	case float64:
		_, ok := b.(float64)
		return ok
	case bool:
		_, ok := b.(bool)
		return ok
	case nil:
		return b == nil
	}
	return false
}

// compareValues orders nil < bool < number < string, then by value.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	}
	return 4
}
