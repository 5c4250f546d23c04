package models

import (
	"cmp"
	"slices"
)

// SortedKeys returns the keys of m in ascending order.
// Map iteration order is random in Go; every calculation that depends on
// participant order goes through this.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
