package docstore

import (
	"fmt"
	"regexp"
)

type Op string

const (
	OpEqual        Op = "=="
	OpGreaterEqual Op = ">="
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpLess         Op = "<"
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

// FieldID addresses the document id in Where and OrderBy.
const FieldID = "__id__"

type constraintKind int

const (
	kindWhere constraintKind = iota
	kindOrder
	kindLimit
)

// Constraint is one filter, ordering or limit clause of a query.
type Constraint struct {
	kind  constraintKind
	field string
	op    Op
	value any
	dir   Direction
	limit int
}

func Where(field string, op Op, value any) Constraint {
	return Constraint{kind: kindWhere, field: field, op: op, value: value}
}

func OrderBy(field string, dir Direction) Constraint {
	return Constraint{kind: kindOrder, field: field, dir: dir}
}

func Limit(n int) Constraint {
	return Constraint{kind: kindLimit, limit: n}
}

type Filter struct {
	Field string
	Op    Op
	Value any
}

type Order struct {
	Field string
	Dir   Direction
}

// Query is the compiled form of a constraint list.
type Query struct {
	Filters []Filter
	Orders  []Order
	Limit   int
}

var fieldRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Compile validates constraints and groups them. Filters combine with AND;
// orderings apply in the order given; the last limit wins.
func Compile(constraints []Constraint) (Query, error) {
	var q Query
	for _, c := range constraints {
		switch c.kind {
		case kindWhere:
			if !fieldRegex.MatchString(c.field) {
				return Query{}, fmt.Errorf("invalid field %q", c.field)
			}
			switch c.op {
			case OpEqual, OpGreaterEqual, OpLessEqual, OpGreater, OpLess:
			default:
				return Query{}, fmt.Errorf("invalid operator %q", c.op)
			}
			v, err := normalize(c.value)
			if err != nil {
				return Query{}, fmt.Errorf("field %s: %w", c.field, err)
			}
			q.Filters = append(q.Filters, Filter{Field: c.field, Op: c.op, Value: v})
		case kindOrder:
			if !fieldRegex.MatchString(c.field) {
				return Query{}, fmt.Errorf("invalid field %q", c.field)
			}
			q.Orders = append(q.Orders, Order{Field: c.field, Dir: c.dir})
		case kindLimit:
			if c.limit < 0 {
				return Query{}, fmt.Errorf("invalid limit %d", c.limit)
			}
			q.Limit = c.limit
		}
	}
	return q, nil
}

// normalize maps a constraint value onto the JSON value space so that it
// compares the same way the stored document fields do.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return t, nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float32:
		return float64(t), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}
