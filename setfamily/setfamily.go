// Package setfamily implements families of sets that are kept minimal under inclusion.
//
// A Family is an antichain: no member is a subset of another member, and no member
// contains duplicate elements. The minimal blocking sets and minimal splitting sets
// of an FBAS are such families. Relabeling elements (grouping participants by
// organization) or removing elements (excluding faulty participants) can only shrink
// members or make them equal, so both transforms restore the antichain with Minimize.
//
// Members are sorted slices. All functions return new values and never modify their
// arguments, so families can be shared read-only between goroutines.
package setfamily

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Family is a collection of sets. Families returned by this package are minimal,
// and in canonical order: members are sorted by size and then lexicographically.
type Family[T cmp.Ordered] [][]T

// NewSet returns the elements as a sorted set without duplicates.
func NewSet[T cmp.Ordered](elems ...T) []T {
	s := slices.Clone(elems)
	if s == nil {
		s = []T{}
	}
	slices.Sort(s)
	return slices.Compact(s)
}

// New returns the minimal family of the given members.
func New[T cmp.Ordered](members ...[]T) Family[T] {
	return Minimize(Family[T](members))
}

// Len returns the number of members in the family.
func (f Family[T]) Len() int {
	return len(f)
}

// MinSize returns the size of the smallest member, or -1 for the empty family.
func (f Family[T]) MinSize() int {
	if len(f) == 0 {
		return -1
	}
	m := len(f[0])
	for _, s := range f[1:] {
		m = min(m, len(s))
	}
	return m
}

func (f Family[T]) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, s := range f {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, e := range s {
			if j > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprint(&sb, e)
		}
		sb.WriteString("}")
	}
	sb.WriteString("}")
	return sb.String()
}

// compareSets orders sorted sets by size and then lexicographically.
func compareSets[T cmp.Ordered](a, b []T) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return slices.Compare(a, b)
}

// IsSubset returns true if the sorted set a is a subset of the sorted set b.
func IsSubset[T cmp.Ordered](a, b []T) bool {
	if len(a) > len(b) {
		return false
	}
	i := 0
	for _, e := range b {
		if i == len(a) {
			break
		}
		switch cmp.Compare(a[i], e) {
		case 0:
			i++
		case -1:
			return false
		}
	}
	return i == len(a)
}

// Minimize returns the family without members that are proper supersets of other
// members, and without duplicate members. Minimize is idempotent.
// If the family has the empty set as a member, the result is exactly {∅}.
func Minimize[T cmp.Ordered](f Family[T]) Family[T] {
	if len(f) == 0 {
		return nil
	}
	sets := make([][]T, len(f))
	for i, s := range f {
		sets[i] = NewSet(s...)
	}
	slices.SortFunc(sets, compareSets[T])
	sets = slices.CompactFunc(sets, func(a, b []T) bool { return slices.Equal(a, b) })

	// sets are ordered by size, so any subset of a set precedes it.
	minimal := make(Family[T], 0, len(sets))
	for _, s := range sets {
		if !slices.ContainsFunc(minimal, func(m []T) bool { return IsSubset(m, s) }) {
			minimal = append(minimal, s)
		}
	}
	return minimal
}

// MapElements replaces every element e of every member with fn(e), removes duplicate
// elements within each member and minimizes the result.
// Mapping several elements to the same value can make distinct members equal or
// turn them into subsets of each other; those members are removed.
func MapElements[T, U cmp.Ordered](f Family[T], fn func(T) U) Family[U] {
	if len(f) == 0 {
		return nil
	}
	mapped := make(Family[U], len(f))
	for i, s := range f {
		mapped[i] = MapSet(s, fn)
	}
	return Minimize(mapped)
}

// Translate replaces every element e of every member with fn(e) without merging
// anything: members keep their size, and members that become equal are all kept.
// Members and the family are sorted. The result is only a relabeling of f, so it
// is a plain slice rather than a Family.
func Translate[T, U cmp.Ordered](f Family[T], fn func(T) U) [][]U {
	out := make([][]U, len(f))
	for i, s := range f {
		out[i] = TranslateSet(s, fn)
	}
	slices.SortStableFunc(out, compareSets[U])
	return out
}

// TranslateSet maps every element of s with fn and sorts the result, keeping
// elements that map to the same value.
func TranslateSet[T, U cmp.Ordered](s []T, fn func(T) U) []U {
	mapped := make([]U, len(s))
	for i, e := range s {
		mapped[i] = fn(e)
	}
	slices.Sort(mapped)
	return mapped
}

// FilterExclude removes the excluded elements from every member and minimizes the result.
// If any member consists only of excluded elements, the result is {∅}: the property
// described by the family already holds once the excluded elements are removed.
func FilterExclude[T cmp.Ordered](f Family[T], exclude []T) Family[T] {
	if len(f) == 0 {
		return nil
	}
	filtered := make(Family[T], len(f))
	for i, s := range f {
		filtered[i] = ExcludeSet(s, exclude)
	}
	return Minimize(filtered)
}

// ContainsEmptySet returns true if the minimized family is {∅}.
func ContainsEmptySet[T cmp.Ordered](f Family[T]) bool {
	return slices.ContainsFunc(f, func(s []T) bool { return len(s) == 0 })
}

// IsAntichain returns true if no member of f is a subset of another member,
// and no member contains duplicate elements.
func IsAntichain[T cmp.Ordered](f Family[T]) bool {
	for i, a := range f {
		if len(NewSet(a...)) != len(a) {
			return false
		}
		for j, b := range f {
			if i != j && IsSubset(NewSet(a...), NewSet(b...)) {
				return false
			}
		}
	}
	return true
}

// Refines returns true if every member of a is a subset of some member of b.
func Refines[T cmp.Ordered](a, b Family[T]) bool {
	for _, s := range a {
		s := NewSet(s...)
		if !slices.ContainsFunc(b, func(t []T) bool { return IsSubset(s, NewSet(t...)) }) {
			return false
		}
	}
	return true
}

// MapSet maps every element of s with fn and returns the resulting set.
func MapSet[T, U cmp.Ordered](s []T, fn func(T) U) []U {
	mapped := make([]U, len(s))
	for i, e := range s {
		mapped[i] = fn(e)
	}
	return NewSet(mapped...)
}

// ExcludeSet returns the set s without the excluded elements.
func ExcludeSet[T cmp.Ordered](s []T, exclude []T) []T {
	kept := make([]T, 0, len(s))
	for _, e := range s {
		if !slices.Contains(exclude, e) {
			kept = append(kept, e)
		}
	}
	return NewSet(kept...)
}
