package wv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksObserveCreation(t *testing.T) {
	var created, rejected []Event
	var closed []Stats
	w := New(WithHooks(Hooks{
		OnCreate: func(ev Event) { created = append(created, ev) },
		OnReject: func(ev Event) { rejected = append(rejected, ev) },
		OnClose:  func(s Stats) { closed = append(closed, s) },
	}))

	k := mustKnot(t, w)
	a, err := w.NewArrow(k, k)
	require.NoError(t, err)
	_, err = w.NewMark(a)
	require.Error(t, err)

	require.Len(t, created, 2)
	assert.Equal(t, OpNewKnot, created[0].Op)
	assert.Equal(t, KindArrow, created[1].Kind)
	assert.Equal(t, a, created[1].Entity)
	assert.Equal(t, k, created[1].Src)
	assert.Equal(t, w.ID(), created[1].WeaveID)

	require.Len(t, rejected, 1)
	assert.Equal(t, OpNewMark, rejected[0].Op)
	assert.True(t, rejected[0].Entity.IsZero())
	assert.ErrorIs(t, rejected[0].Err, ErrNotKnot)

	require.NoError(t, w.Close())
	require.Len(t, closed, 1)
	assert.Equal(t, 2, closed[0].Total())

	assert.Error(t, w.Close())
	assert.Len(t, closed, 1, "close hook runs once")
}

func TestHooksMergeOrder(t *testing.T) {
	var order []string
	first := Hooks{OnCreate: func(Event) { order = append(order, "first") }}
	second := Hooks{OnCreate: func(Event) { order = append(order, "second") }}

	w := New(WithHooks(first), WithHooks(second))
	defer w.Close()
	mustKnot(t, w)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestHooksMayCallBack(t *testing.T) {
	var lens []int
	var w *Weave
	w = New(WithHooks(Hooks{
		OnCreate: func(Event) { lens = append(lens, w.Len()) },
	}))
	defer w.Close()

	mustKnot(t, w)
	mustKnot(t, w)
	assert.Equal(t, []int{1, 2}, lens)
}
