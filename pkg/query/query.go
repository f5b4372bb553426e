// Package query provides a lazy, composable query interface over in-memory
// collections. Combinators build up a pipeline of iterator stages; nothing is
// evaluated until a terminal operation runs, and elements flow through the
// stages one at a time.
package query

import (
	"errors"
	"iter"
	"sort"
)

// ErrNoElements is returned by Single on an empty sequence.
var ErrNoElements = errors.New("sequence contains no elements")

// ErrMultipleElements is returned by Single on a sequence with more than one
// element.
var ErrMultipleElements = errors.New("sequence contains more than one element")

// Query is a lazily evaluated sequence of elements.
type Query[T any] struct {
	seq iter.Seq[T]
}

// From builds a query over the given elements.
func From[T any](items ...T) Query[T] {
	return FromSlice(items)
}

// FromSlice builds a query over a slice. The slice is not copied; it is read
// when a terminal operation runs.
func FromSlice[T any](items []T) Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}}
}

// FromSeq builds a query over an iterator.
func FromSeq[T any](seq iter.Seq[T]) Query[T] {
	return Query[T]{seq: seq}
}

// Seq exposes the query as an iterator, usable directly in a range loop.
func (q Query[T]) Seq() iter.Seq[T] {
	return q.seq
}

// Where keeps the elements the predicate accepts.
func (q Query[T]) Where(predicate func(T) bool) Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		for item := range q.seq {
			if !predicate(item) {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}}
}

// Concat appends another query's elements after this query's.
func (q Query[T]) Concat(other Query[T]) Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		for item := range q.seq {
			if !yield(item) {
				return
			}
		}
		for item := range other.seq {
			if !yield(item) {
				return
			}
		}
	}}
}

// Skip drops the first n elements.
func (q Query[T]) Skip(n int) Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		index := 0
		for item := range q.seq {
			if index < n {
				index++
				continue
			}
			if !yield(item) {
				return
			}
		}
	}}
}

// SkipWhile drops elements until the predicate first fails, then yields the
// rest unconditionally.
func (q Query[T]) SkipWhile(predicate func(T) bool) Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		skipping := true
		for item := range q.seq {
			if skipping && predicate(item) {
				continue
			}
			skipping = false
			if !yield(item) {
				return
			}
		}
	}}
}

// Take yields at most the first n elements and stops consuming the source
// afterwards.
func (q Query[T]) Take(n int) Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		index := 0
		for item := range q.seq {
			if index >= n {
				return
			}
			index++
			if !yield(item) {
				return
			}
		}
	}}
}

// TakeWhile yields elements until the predicate first fails.
func (q Query[T]) TakeWhile(predicate func(T) bool) Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		for item := range q.seq {
			if !predicate(item) {
				return
			}
			if !yield(item) {
				return
			}
		}
	}}
}

// Reverse yields the elements in reverse order. The whole sequence is
// buffered when the terminal operation runs.
func (q Query[T]) Reverse() Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		items := collect(q.seq)
		for i := len(items) - 1; i >= 0; i-- {
			if !yield(items[i]) {
				return
			}
		}
	}}
}

// OrderBy sorts the elements with a stable sort. The whole sequence is
// buffered when the terminal operation runs.
func (q Query[T]) OrderBy(less func(a, b T) bool) Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		items := collect(q.seq)
		sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}}
}

// First returns the first element, or false on an empty sequence.
func (q Query[T]) First() (T, bool) {
	for item := range q.seq {
		return item, true
	}
	var zero T
	return zero, false
}

// Last returns the last element, or false on an empty sequence.
func (q Query[T]) Last() (T, bool) {
	var (
		last  T
		found bool
	)
	for item := range q.seq {
		last = item
		found = true
	}
	return last, found
}

// Single returns the sole element of the sequence. It fails with
// ErrNoElements on an empty sequence and ErrMultipleElements when there is
// more than one.
func (q Query[T]) Single() (T, error) {
	var (
		single T
		found  bool
	)
	for item := range q.seq {
		if found {
			var zero T
			return zero, ErrMultipleElements
		}
		single = item
		found = true
	}
	if !found {
		return single, ErrNoElements
	}
	return single, nil
}

// ElementAt returns the element at the given index, or false when the
// sequence is shorter.
func (q Query[T]) ElementAt(index int) (T, bool) {
	i := 0
	for item := range q.seq {
		if i == index {
			return item, true
		}
		i++
	}
	var zero T
	return zero, false
}

// Any reports whether any element satisfies the predicate.
func (q Query[T]) Any(predicate func(T) bool) bool {
	for item := range q.seq {
		if predicate(item) {
			return true
		}
	}
	return false
}

// All reports whether every element satisfies the predicate.
func (q Query[T]) All(predicate func(T) bool) bool {
	for item := range q.seq {
		if !predicate(item) {
			return false
		}
	}
	return true
}

// Count evaluates the query and returns the number of elements.
func (q Query[T]) Count() int {
	count := 0
	for range q.seq {
		count++
	}
	return count
}

// Slice evaluates the query into a slice.
func (q Query[T]) Slice() []T {
	return collect(q.seq)
}

func collect[T any](seq iter.Seq[T]) []T {
	var items []T
	for item := range seq {
		items = append(items, item)
	}
	return items
}

// Select maps each element through the selector.
func Select[T, U any](q Query[T], selector func(T) U) Query[U] {
	return Query[U]{seq: func(yield func(U) bool) {
		for item := range q.seq {
			if !yield(selector(item)) {
				return
			}
		}
	}}
}

// SelectMany maps each element to a sequence and flattens the results.
func SelectMany[T, U any](q Query[T], selector func(T) []U) Query[U] {
	return Query[U]{seq: func(yield func(U) bool) {
		for item := range q.seq {
			for _, mapped := range selector(item) {
				if !yield(mapped) {
					return
				}
			}
		}
	}}
}

// Distinct drops repeated elements, keeping the first occurrence of each.
func Distinct[T comparable](q Query[T]) Query[T] {
	return DistinctBy(q, func(item T) T { return item })
}

// DistinctBy drops elements whose key was already seen, keeping the first
// occurrence of each key.
func DistinctBy[T any, K comparable](q Query[T], key func(T) K) Query[T] {
	return Query[T]{seq: func(yield func(T) bool) {
		seen := make(map[K]struct{})
		for item := range q.seq {
			k := key(item)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			if !yield(item) {
				return
			}
		}
	}}
}

func toSet[T comparable](items []T) map[T]struct{} {
	set := make(map[T]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// Except drops elements present in the exclusion set.
func Except[T comparable](q Query[T], exclude []T) Query[T] {
	set := toSet(exclude)
	return q.Where(func(item T) bool {
		_, ok := set[item]
		return !ok
	})
}

// Intersect keeps only elements present in the other set.
func Intersect[T comparable](q Query[T], other []T) Query[T] {
	set := toSet(other)
	return q.Where(func(item T) bool {
		_, ok := set[item]
		return ok
	})
}

// Union yields the query's elements followed by the values of the other set
// not already seen.
func Union[T comparable](q Query[T], other []T) Query[T] {
	return Distinct(q.Concat(FromSlice(other)))
}

// Group is one key's bucket from GroupBy, in encounter order.
type Group[K comparable, T any] struct {
	Key      K
	Elements []T
}

// GroupBy buckets elements by key. Groups come out in the order their keys
// were first seen; the whole sequence is buffered when the terminal
// operation runs.
func GroupBy[T any, K comparable](q Query[T], key func(T) K) Query[Group[K, T]] {
	return Query[Group[K, T]]{seq: func(yield func(Group[K, T]) bool) {
		var order []K
		buckets := make(map[K][]T)
		for item := range q.seq {
			k := key(item)
			if _, ok := buckets[k]; !ok {
				order = append(order, k)
			}
			buckets[k] = append(buckets[k], item)
		}
		for _, k := range order {
			if !yield(Group[K, T]{Key: k, Elements: buckets[k]}) {
				return
			}
		}
	}}
}

// Fold reduces the sequence to a single value, threading an accumulator
// through every element. Sums and averages are folds with the appropriate
// combine function.
func Fold[T, A any](q Query[T], initial A, combine func(A, T) A) A {
	acc := initial
	for item := range q.seq {
		acc = combine(acc, item)
	}
	return acc
}
