package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrFieldNotFound  = errors.New("field not found")
	ErrNotTraversable = errors.New("cannot descend")
)

// Accessor resolves a value of a record.
type Accessor interface {
	Value(record any) (any, error)
}

// Func adapts a typed function to an Accessor. It fails on records of other types.
type Func[T any] func(T) any

func (f Func[T]) Value(record any) (any, error) {
	t, ok := record.(T)
	if !ok {
		var zero T
		return nil, fmt.Errorf("record of type %T, expected %T", record, zero)
	}
	return f(t), nil
}

// Selector is a dotted property path like "customer.address.city".
type Selector struct {
	Path []string
}

// NewSelector converts "foo.bar.baz" to []string{"foo","bar","baz"}.
func NewSelector(q string) (*Selector, error) {
	// If query is empty, assume root selector.
	if q == "" {
		return &Selector{Path: []string{}}, nil
	}
	parts := strings.Split(q, ".")
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty token at position %d", i)
		}
	}
	return &Selector{Path: parts}, nil
}

func MustSelector(q string) *Selector {
	s, err := NewSelector(q)
	if err != nil {
		panic(fmt.Errorf("selector %q: %w", q, err))
	}
	return s
}

func (s *Selector) String() string {
	return strings.Join(s.Path, ".")
}

func (s *Selector) Value(record any) (any, error) {
	return s.Resolve(record)
}

// Resolve walks the path through maps, JSON documents and struct fields.
func (s *Selector) Resolve(record any) (any, error) {
	if r, ok := record.(gjson.Result); ok {
		return s.resolveJSON(r)
	}

	cur := record
	for i, tok := range s.Path {
		next, err := descend(cur, tok)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", strings.Join(s.Path[:i+1], "."), err)
		}
		cur = next
	}
	return cur, nil
}

func (s *Selector) resolveJSON(r gjson.Result) (any, error) {
	if len(s.Path) == 0 {
		return r.Value(), nil
	}
	escaped := make([]string, len(s.Path))
	for i, tok := range s.Path {
		escaped[i] = gjson.Escape(tok)
	}
	res := r.Get(strings.Join(escaped, "."))
	if !res.Exists() {
		return nil, fmt.Errorf("%s: %w", s.String(), ErrFieldNotFound)
	}
	return res.Value(), nil
}

func descend(cur any, tok string) (any, error) {
	switch node := cur.(type) {
	case map[string]any:
		next, ok := node[tok]
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrFieldNotFound, tok)
		}
		return next, nil
	case map[string]string:
		next, ok := node[tok]
		if !ok {
			return nil, fmt.Errorf("%w: key %q", ErrFieldNotFound, tok)
		}
		return next, nil
	case gjson.Result:
		res := node.Get(gjson.Escape(tok))
		if !res.Exists() {
			return nil, fmt.Errorf("%w: key %q", ErrFieldNotFound, tok)
		}
		return res.Value(), nil
	}
	return descendReflect(cur, tok)
}

func descendReflect(cur any, tok string) (any, error) {
	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w via %q: nil %s", ErrNotTraversable, tok, rv.Type())
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		if f, ok := structField(rv, tok); ok {
			return f.Interface(), nil
		}
		return nil, fmt.Errorf("%w: field %q in %s", ErrFieldNotFound, tok, rv.Type())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		v := rv.MapIndex(reflect.ValueOf(tok).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, fmt.Errorf("%w: key %q", ErrFieldNotFound, tok)
		}
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("%w via %q into %T", ErrNotTraversable, tok, cur)
}

// structField looks a field up by name, ignoring case, and then by its json tag.
func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if strings.EqualFold(sf.Name, name) {
			return rv.Field(i), true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag != "" && tag == name {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}
