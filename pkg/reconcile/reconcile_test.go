package reconcile

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type link struct {
	ID   string
	From string
	To   string
	Type string
}

func (l link) RecordID() string { return l.ID }

func (l link) Equivalent(o link) bool {
	return l.From == o.From && l.To == o.To && l.Type == o.Type
}

func set(links ...link) Set[link] {
	return Index(links)
}

func TestDiff_Cases(t *testing.T) {
	ab := link{ID: "r1", From: "A", To: "B", Type: "T"}

	t.Run("create into empty", func(t *testing.T) {
		ops := Diff(set(), set(ab))
		require.Len(t, ops, 1)
		assert.Equal(t, Create, ops[0].Kind)
		assert.Equal(t, "r1", ops[0].ID)
		assert.Equal(t, ab, ops[0].Record)
	})

	t.Run("delete everything", func(t *testing.T) {
		ops := Diff(set(ab), set())
		require.Len(t, ops, 1)
		assert.Equal(t, Delete, ops[0].Kind)
		assert.Equal(t, "r1", ops[0].ID)
	})

	t.Run("unchanged is a no-op", func(t *testing.T) {
		assert.Empty(t, Diff(set(ab), set(ab)))
	})

	t.Run("changed type is an update", func(t *testing.T) {
		changed := ab
		changed.Type = "U"
		ops := Diff(set(ab), set(changed))
		require.Len(t, ops, 1)
		assert.Equal(t, Update, ops[0].Kind)
		assert.Equal(t, "r1", ops[0].ID)
		assert.Equal(t, "U", ops[0].Record.Type)
	})

	t.Run("different ids create and delete", func(t *testing.T) {
		ac := link{ID: "r2", From: "A", To: "C"}
		ops := Diff(set(link{ID: "r1", From: "A", To: "B"}), set(ac))
		require.Len(t, ops, 2)
		assert.Equal(t, Create, ops[0].Kind)
		assert.Equal(t, "r2", ops[0].ID)
		assert.Equal(t, Delete, ops[1].Kind)
		assert.Equal(t, "r1", ops[1].ID)
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Empty(t, Diff(set(), set()))
		assert.Empty(t, Diff[link](nil, nil))
	})
}

func TestDiff_WritesBeforeDeletes(t *testing.T) {
	existing := set(
		link{ID: "a", From: "1"},
		link{ID: "c", From: "1"},
		link{ID: "e", From: "1"},
	)
	desired := set(
		link{ID: "b", From: "1"},
		link{ID: "c", From: "2"},
		link{ID: "d", From: "1"},
	)

	ops := Diff(existing, desired)
	var kinds []string
	for _, op := range ops {
		kinds = append(kinds, op.Kind.String()+":"+op.ID)
	}
	assert.Equal(t, []string{"create:b", "update:c", "create:d", "delete:a", "delete:e"}, kinds)
	assert.Equal(t, Plan{Creates: 2, Updates: 1, Deletes: 2}, Summarize(ops))
	assert.Equal(t, 5, Summarize(ops).Total())
}

func randomSet(r *rand.Rand, prefix string, n int) Set[link] {
	s := make(Set[link], n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s%d", prefix, r.Intn(n*2))
		s[id] = link{ID: id, From: "x", To: fmt.Sprintf("%d", r.Intn(3))}
	}
	return s
}

func TestDiff_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		existing := randomSet(r, "k", r.Intn(12))
		desired := randomSet(r, "k", r.Intn(12))

		ops := Diff(existing, desired)

		touched := make(map[string]Kind)
		for _, op := range ops {
			_, dup := touched[op.ID]
			require.False(t, dup, "id %s touched twice", op.ID)
			touched[op.ID] = op.Kind
		}

		expected := make(map[string]struct{})
		for id, want := range desired {
			if have, ok := existing[id]; ok && have.Equivalent(want) {
				continue
			}
			expected[id] = struct{}{}
		}
		for id := range existing {
			if _, ok := desired[id]; !ok {
				expected[id] = struct{}{}
			}
		}
		require.Len(t, touched, len(expected))
		for id, kind := range touched {
			_, ok := expected[id]
			require.True(t, ok, "unexpected id %s", id)
			_, inDesired := desired[id]
			if kind == Delete {
				require.False(t, inDesired, "delete of desired id %s", id)
			} else {
				require.True(t, inDesired, "write of undesired id %s", id)
			}
		}

		require.Empty(t, Diff(desired, desired), "reconciling a set with itself must be a no-op")
	}
}

func TestDiff_EquivalenceIgnoresID(t *testing.T) {
	existing := Set[link]{"r1": {ID: "r1", From: "A", To: "B", Type: "T"}}
	desired := Set[link]{"r1": {ID: "", From: "A", To: "B", Type: "T"}}
	assert.Empty(t, Diff(existing, desired))
}

func TestIndex_LastWins(t *testing.T) {
	s := Index([]link{{ID: "a", Type: "1"}, {ID: "a", Type: "2"}, {ID: "b"}})
	assert.Equal(t, []string{"a", "b"}, s.Keys())
	assert.Equal(t, "2", s["a"].Type)
}
