package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Group is a set of items sharing the same key. Values holds the key parts
// the items were grouped by.
type Group[K comparable, T any] struct {
	Key    K
	Values []any
	Items  []T
}

func (g Group[K, T]) Len() int {
	return len(g.Items)
}

// GroupBy partitions items by key. Groups are returned in the order their
// keys were first seen and items keep their input order.
func GroupBy[T any, K comparable](items []T, key func(T) K) []Group[K, T] {
	var groups []Group[K, T]
	index := make(map[K]int)
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K, T]{Key: k, Values: []any{k}})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// Key identifies a combination of values resolved at runtime.
type Key string

const keySeparator = "\x1f"

// GroupByPaths partitions records by the values found at the given selector paths.
func GroupByPaths(records []any, paths ...string) ([]Group[Key, any], error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no group paths given")
	}
	accessors := make([]Accessor, 0, len(paths))
	for _, p := range paths {
		s, err := NewSelector(p)
		if err != nil {
			return nil, fmt.Errorf("parse selector %q: %w", p, err)
		}
		accessors = append(accessors, s)
	}
	return GroupByAccessors(records, accessors...)
}

// GroupByAccessors is GroupByPaths with arbitrary accessors.
func GroupByAccessors(records []any, accessors ...Accessor) ([]Group[Key, any], error) {
	var groups []Group[Key, any]
	index := make(map[Key]int)
	for n, rec := range records {
		values := make([]any, len(accessors))
		parts := make([]string, len(accessors))
		for i, acc := range accessors {
			v, err := acc.Value(rec)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", n, err)
			}
			values[i] = v
			parts[i] = keyPart(v)
		}
		k := Key(strings.Join(parts, keySeparator))
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[Key, any]{Key: k, Values: values})
		}
		groups[i].Items = append(groups[i].Items, rec)
	}
	return groups, nil
}

// keyPart encodes v so that values of different JSON types never collide,
// e.g. the number 1 and the string "1".
func keyPart(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(b)
}
