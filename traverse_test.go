package wv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFan returns a weave with knots 1..3 and, in order: arrows 4 (1->2),
// 5 (1->3), 6 (1->1), 7 (3->1), mark 8 on 1 and tether 9 from 1.
func buildFan(t *testing.T) (*Weave, []Ref) {
	t.Helper()
	w := New()
	k1, k2, k3 := mustKnot(t, w), mustKnot(t, w), mustKnot(t, w)
	for _, pair := range [][2]Ref{{k1, k2}, {k1, k3}, {k1, k1}, {k3, k1}} {
		_, err := w.NewArrow(pair[0], pair[1])
		require.NoError(t, err)
	}
	_, err := w.NewMark(k1)
	require.NoError(t, err)
	_, err = w.NewTether(k1)
	require.NoError(t, err)
	return w, []Ref{k1, k2, k3}
}

func TestTraversal(t *testing.T) {
	w, knots := buildFan(t)
	defer w.Close()
	k1, k2, k3 := knots[0], knots[1], knots[2]

	cases := []struct {
		name string
		fn   func(Ref) ([]Ref, error)
		from Ref
		want []EntityID
	}{
		{"arrows out", w.ArrowsOut, k1, []EntityID{4, 5, 6}},
		{"arrows in", w.ArrowsIn, k1, []EntityID{6, 7}},
		{"arrows", w.Arrows, k1, []EntityID{4, 5, 6, 7}},
		{"marks", w.Marks, k1, []EntityID{8}},
		{"tethers", w.Tethers, k1, []EntityID{9}},
		{"dependents", w.Dependents, k1, []EntityID{4, 5, 6, 7, 8, 9}},
		{"next", w.Next, k1, []EntityID{2, 3}},
		{"prev", w.Prev, k1, []EntityID{3}},
		{"next of sink", w.Next, k2, []EntityID{}},
		{"prev of sink", w.Prev, k2, []EntityID{1}},
		{"arrows of k3", w.Arrows, k3, []EntityID{5, 7}},
		{"marks of k3", w.Marks, k3, []EntityID{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.fn(tc.from)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(got))
		})
	}
}

func TestTraversalRequiresKnot(t *testing.T) {
	w, knots := buildFan(t)
	defer w.Close()

	arrow := w.Ref(4)
	_, err := w.ArrowsOut(arrow)
	assert.ErrorIs(t, err, ErrNotKnot)
	_, err = w.Marks(w.Ref(99))
	assert.ErrorIs(t, err, ErrUnknownEntity)

	other := New()
	defer other.Close()
	_, err = other.Tethers(knots[0])
	assert.ErrorIs(t, err, ErrForeignEntity)
}

func TestTraversalAfterClose(t *testing.T) {
	w, knots := buildFan(t)
	require.NoError(t, w.Close())

	_, err := w.Dependents(knots[0])
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMergeSorted(t *testing.T) {
	assert.Equal(t, []EntityID{1, 2, 3, 5, 8}, mergeSorted([]EntityID{1, 3, 5}, []EntityID{2, 3, 8}))
	assert.Equal(t, []EntityID{4}, mergeSorted(nil, []EntityID{4}))
	assert.Empty(t, mergeSorted(nil, nil))
}
