package wv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func definePosition(t *testing.T, w *Weave) DatatypeID {
	t.Helper()
	id, err := w.DefineDatatype("Position",
		Field{Name: "x", Type: TypeFloat},
		Field{Name: "y", Type: TypeFloat},
	)
	require.NoError(t, err)
	return id
}

func TestDefineDatatype(t *testing.T) {
	w := New()
	defer w.Close()

	id := definePosition(t, w)
	again := definePosition(t, w)
	assert.Equal(t, id, again, "identical redefinition is a no-op")

	_, err := w.DefineDatatype("Position", Field{Name: "x", Type: TypeInt})
	assert.ErrorIs(t, err, ErrDatatypeConflict)

	_, err = w.DefineDatatype("")
	assert.ErrorIs(t, err, ErrEmptyDatatypeName)

	_, err = w.DefineDatatype("Broken", Field{Name: "x", Type: ValueType(42)})
	assert.ErrorIs(t, err, ErrComponentMismatch)

	dt, err := w.Datatype("Position")
	require.NoError(t, err)
	assert.Equal(t, "Position", dt.Name)
	assert.Len(t, dt.Fields, 2)

	_, err = w.Datatype("Velocity")
	assert.ErrorIs(t, err, ErrUnknownDatatype)
}

func TestSetAndGetComponent(t *testing.T) {
	w := New()
	defer w.Close()
	definePosition(t, w)

	k := mustKnot(t, w)
	assert.False(t, w.HasComponent(k, "Position"))

	require.NoError(t, w.SetComponent(k, "Position", FloatValue(1.5), FloatValue(-2)))
	assert.True(t, w.HasComponent(k, "Position"))

	row, err := w.Component(k, "Position")
	require.NoError(t, err)
	require.Len(t, row, 2)
	x, ok := row[0].Float()
	assert.True(t, ok)
	assert.Equal(t, 1.5, x)
	_, ok = row[1].Int()
	assert.False(t, ok)

	require.NoError(t, w.SetComponent(k, "Position", FloatValue(3), FloatValue(4)))
	row, err = w.Component(k, "Position")
	require.NoError(t, err)
	x, _ = row[0].Float()
	assert.Equal(t, 3.0, x, "set replaces the previous row")
	assert.Equal(t, 1, w.Stats().Components)

	require.NoError(t, w.RemoveComponent(k, "Position"))
	assert.False(t, w.HasComponent(k, "Position"))
	_, err = w.Component(k, "Position")
	assert.ErrorIs(t, err, ErrNoComponent)
	require.NoError(t, w.RemoveComponent(k, "Position"))
}

func TestComponentValidation(t *testing.T) {
	w := New()
	defer w.Close()
	definePosition(t, w)
	_, err := w.DefineDatatype("Link", Field{Name: "to", Type: TypeEntity}, Field{Name: "label", Type: TypeString})
	require.NoError(t, err)

	k := mustKnot(t, w)

	err = w.SetComponent(k, "Position", FloatValue(1))
	assert.ErrorIs(t, err, ErrComponentMismatch)
	err = w.SetComponent(k, "Position", FloatValue(1), StringValue("y"))
	assert.ErrorIs(t, err, ErrComponentMismatch)
	err = w.SetComponent(k, "Velocity")
	assert.ErrorIs(t, err, ErrUnknownDatatype)
	err = w.SetComponent(w.Ref(77), "Position", FloatValue(1), FloatValue(2))
	assert.ErrorIs(t, err, ErrUnknownEntity)

	other := New()
	defer other.Close()
	foreign := mustKnot(t, other)
	err = w.SetComponent(k, "Link", EntityValue(foreign), StringValue("x"))
	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "to", refErr.Role)
	assert.ErrorIs(t, err, ErrForeignEntity)

	a, err := w.NewArrow(k, k)
	require.NoError(t, err)
	require.NoError(t, w.SetComponent(k, "Link", EntityValue(a), StringValue("self")))
	row, err := w.Component(k, "Link")
	require.NoError(t, err)
	to, ok := row[0].Entity()
	assert.True(t, ok)
	assert.Equal(t, a, to)
	label, ok := row[1].Text()
	assert.True(t, ok)
	assert.Equal(t, "self", label)

	names, err := w.ComponentNames(k)
	require.NoError(t, err)
	assert.Equal(t, []string{"Link"}, names)
}

func TestAnnotate(t *testing.T) {
	w := New()
	defer w.Close()
	_, err := w.DefineDatatype("Comment", Field{Name: "text", Type: TypeString}, Field{Name: "resolved", Type: TypeBool})
	require.NoError(t, err)

	k := mustKnot(t, w)
	_, err = w.NewMark(k)
	require.NoError(t, err)

	_, found, err := w.Annotation(k, "Comment")
	require.NoError(t, err)
	assert.False(t, found)

	note, err := w.Annotate(k, "Comment", StringValue("looks good"), BoolValue(false))
	require.NoError(t, err)
	assert.True(t, w.IsMark(note))
	tgt, err := w.Tgt(note)
	require.NoError(t, err)
	assert.Equal(t, k, tgt)

	got, found, err := w.Annotation(k, "Comment")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, note, got)

	before := w.Len()
	_, err = w.Annotate(k, "Comment", StringValue("missing flag"))
	assert.ErrorIs(t, err, ErrComponentMismatch)
	_, err = w.Annotate(note, "Comment", StringValue("on a mark"), BoolValue(true))
	assert.ErrorIs(t, err, ErrNotKnot)
	assert.Equal(t, before, w.Len(), "rejected annotations create no mark")
}

func TestComponentsAfterClose(t *testing.T) {
	w := New()
	definePosition(t, w)
	k := mustKnot(t, w)
	require.NoError(t, w.Close())

	_, err := w.DefineDatatype("Other")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.SetComponent(k, "Position", FloatValue(0), FloatValue(0)), ErrClosed)
	assert.False(t, w.HasComponent(k, "Position"))
	_, err = w.Annotate(k, "Position", FloatValue(0), FloatValue(0))
	assert.ErrorIs(t, err, ErrClosed)
}
