// Package reconcile brings a remote, id-keyed record set into agreement with a
// desired set using only create, replace and delete calls.
//
// Diff is pure: it compares two sets and returns the operations needed. Execute
// dispatches those operations concurrently and collects every outcome.
package reconcile

import (
	"slices"
)

// Record is a storage record with a stable id and structural equality that ignores the id.
type Record[T any] interface {
	RecordID() string
	Equivalent(other T) bool
}

// Set is a record set keyed by record id.
type Set[T Record[T]] map[string]T

// Index keys records by their id. A later record with the same id replaces an earlier one.
func Index[T Record[T]](records []T) Set[T] {
	set := make(Set[T], len(records))
	for _, r := range records {
		set[r.RecordID()] = r
	}
	return set
}

// Keys returns the ids in the set, sorted.
func (s Set[T]) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Kind is the type of a write operation.
type Kind int

const (
	Create Kind = iota
	Update
	Delete
)

func (k Kind) String() string {
	switch k {
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Operation is one write needed to reconcile a set. For deletes, Record is the existing record.
type Operation[T Record[T]] struct {
	Kind   Kind
	ID     string
	Record T
}

// Diff returns the operations that turn existing into desired:
// a create for every desired id not in existing, an update for every shared id
// whose records are not equivalent, and a delete for every existing id not desired.
// Equivalent records produce no operation. Creates and updates come first, then
// deletes, each group ordered by id.
func Diff[T Record[T]](existing, desired Set[T]) []Operation[T] {
	ops := make([]Operation[T], 0, len(desired)+len(existing))

	for _, id := range desired.Keys() {
		want := desired[id]
		have, ok := existing[id]
		switch {
		case !ok:
			ops = append(ops, Operation[T]{Kind: Create, ID: id, Record: want})
		case !want.Equivalent(have):
			ops = append(ops, Operation[T]{Kind: Update, ID: id, Record: want})
		}
	}

	for _, id := range existing.Keys() {
		if _, ok := desired[id]; !ok {
			ops = append(ops, Operation[T]{Kind: Delete, ID: id, Record: existing[id]})
		}
	}

	return ops
}

// Plan counts operations by kind.
type Plan struct {
	Creates int `json:"creates"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
}

// Summarize counts the operations in ops.
func Summarize[T Record[T]](ops []Operation[T]) Plan {
	var p Plan
	for _, op := range ops {
		switch op.Kind {
		case Create:
			p.Creates++
		case Update:
			p.Updates++
		case Delete:
			p.Deletes++
		}
	}
	return p
}

// Total is the number of planned writes.
func (p Plan) Total() int {
	return p.Creates + p.Updates + p.Deletes
}
