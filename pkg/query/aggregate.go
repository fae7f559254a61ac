package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrNotNumeric = errors.New("value is not numeric")
	ErrEmptyGroup = errors.New("empty group")
)

type Aggregate int

const (
	Count Aggregate = iota
	Sum
	Min
	Max
	Average
)

var aggregateNames = map[Aggregate]string{
	Count:   "count",
	Sum:     "sum",
	Min:     "min",
	Max:     "max",
	Average: "avg",
}

func (a Aggregate) String() string {
	if s, ok := aggregateNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Aggregate(%d)", int(a))
}

func ParseAggregate(s string) (Aggregate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count":
		return Count, nil
	case "sum":
		return Sum, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "avg", "average":
		return Average, nil
	}
	return 0, fmt.Errorf("unknown aggregate %q", s)
}

// Set, String and Type make *Aggregate usable as a command line flag.
func (a *Aggregate) Set(s string) error {
	v, err := ParseAggregate(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a *Aggregate) Type() string {
	return "aggregate"
}

type Operator int

const (
	Eq Operator = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

var operatorSymbols = map[Operator]string{
	Eq: "==",
	Ne: "!=",
	Lt: "<",
	Le: "<=",
	Gt: ">",
	Ge: ">=",
}

func (o Operator) String() string {
	if s, ok := operatorSymbols[o]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", int(o))
}

func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "==", "=", "eq":
		return Eq, nil
	case "!=", "<>", "ne":
		return Ne, nil
	case "<", "lt":
		return Lt, nil
	case "<=", "le":
		return Le, nil
	case ">", "gt":
		return Gt, nil
	case ">=", "ge":
		return Ge, nil
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

func (o *Operator) Set(s string) error {
	v, err := ParseOperator(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

func (o *Operator) Type() string {
	return "operator"
}

// Compare reports whether "a <op> b" holds.
func (o Operator) Compare(a, b float64) bool {
	switch o {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	case Ge:
		return a >= b
	}
	return false
}

// Compute applies agg to the values field resolves from items.
// Count ignores field and may be given a nil one.
func Compute[T any](agg Aggregate, field Accessor, items []T) (float64, error) {
	if agg == Count {
		return float64(len(items)), nil
	}
	if field == nil {
		return 0, fmt.Errorf("%s needs a field", agg)
	}

	nums := make([]float64, 0, len(items))
	for i, item := range items {
		v, err := field.Value(item)
		if err != nil {
			return 0, fmt.Errorf("item %d: %w", i, err)
		}
		n, err := toFloat(v)
		if err != nil {
			return 0, fmt.Errorf("item %d: %w", i, err)
		}
		nums = append(nums, n)
	}

	switch agg {
	case Sum:
		var sum float64
		for _, n := range nums {
			sum += n
		}
		return sum, nil
	case Min, Max, Average:
		if len(nums) == 0 {
			return 0, fmt.Errorf("%s: %w", agg, ErrEmptyGroup)
		}
	default:
		return 0, fmt.Errorf("unknown aggregate %s", agg)
	}

	res := nums[0]
	switch agg {
	case Min:
		for _, n := range nums[1:] {
			res = math.Min(res, n)
		}
	case Max:
		for _, n := range nums[1:] {
			res = math.Max(res, n)
		}
	case Average:
		for _, n := range nums[1:] {
			res += n
		}
		res /= float64(len(nums))
	}
	return res, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, n)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, n)
		}
		return f, nil
	case gjson.Result:
		switch n.Type {
		case gjson.Number:
			return n.Num, nil
		case gjson.String:
			return toFloat(n.Str)
		}
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, n.Raw)
	}
	return 0, fmt.Errorf("%w: %T", ErrNotNumeric, v)
}

// Having is a condition on an aggregate of a group, as in
// "HAVING sum(amount) > 100".
type Having struct {
	Aggregate Aggregate
	Field     Accessor
	Operator  Operator
	Threshold float64
}

func (h Having) String() string {
	field := "*"
	if s, ok := h.Field.(fmt.Stringer); ok {
		field = s.String()
	}
	return fmt.Sprintf("%s(%s) %s %s", h.Aggregate, field, h.Operator,
		strconv.FormatFloat(h.Threshold, 'f', -1, 64))
}

// Aggregated is a group together with its computed aggregate.
type Aggregated[K comparable, T any] struct {
	Group[K, T]
	Value float64
}

// Filter computes the aggregate of every group and keeps the groups satisfying
// the condition, preserving their order.
func Filter[K comparable, T any](groups []Group[K, T], h Having) ([]Aggregated[K, T], error) {
	var out []Aggregated[K, T]
	for _, g := range groups {
		v, err := Compute(h.Aggregate, h.Field, g.Items)
		if err != nil {
			return nil, fmt.Errorf("group %v: %w", g.Values, err)
		}
		if h.Operator.Compare(v, h.Threshold) {
			out = append(out, Aggregated[K, T]{Group: g, Value: v})
		}
	}
	return out, nil
}
