package wv

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrUnknownDatatype indicates a component name with no registered datatype.
	ErrUnknownDatatype = errors.New("wv: unknown datatype")
	// ErrDatatypeConflict indicates a datatype was redefined with a different layout.
	ErrDatatypeConflict = errors.New("wv: datatype already defined with a different layout")
	// ErrComponentMismatch indicates component values that do not fit the datatype layout.
	ErrComponentMismatch = errors.New("wv: component values do not match datatype")
	// ErrNoComponent indicates the entity carries no component of the requested datatype.
	ErrNoComponent = errors.New("wv: entity has no such component")
	// ErrEmptyDatatypeName indicates a datatype was defined without a name.
	ErrEmptyDatatypeName = errors.New("wv: datatype name must not be empty")
)

// DatatypeID identifies a datatype by the hash of its name.
type DatatypeID uint64

// ValueType is the type of one component field.
type ValueType uint8

const (
	TypeEntity ValueType = iota + 1
	TypeInt
	TypeFloat
	TypeBool
	TypeString
)

func (t ValueType) String() string {
	switch t {
	case TypeEntity:
		return "entity"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// Field is one named, typed slot of a datatype.
type Field struct {
	Name string
	Type ValueType
}

// Datatype is a named record layout for components.
type Datatype struct {
	ID     DatatypeID
	Name   string
	Fields []Field
}

func datatypeID(name string) DatatypeID {
	return DatatypeID(xxhash.Sum64String(name))
}

// Value is one component field value.
type Value struct {
	typ ValueType
	ref Ref
	i   int64
	f   float64
	b   bool
	s   string
}

// EntityValue wraps a reference to another entity of the same weave.
func EntityValue(r Ref) Value { return Value{typ: TypeEntity, ref: r} }

func IntValue(v int64) Value { return Value{typ: TypeInt, i: v} }

func FloatValue(v float64) Value { return Value{typ: TypeFloat, f: v} }

func BoolValue(v bool) Value { return Value{typ: TypeBool, b: v} }

func StringValue(v string) Value { return Value{typ: TypeString, s: v} }

// Type returns the value's type.
func (v Value) Type() ValueType { return v.typ }

// Entity returns the referenced entity if v is an entity value.
func (v Value) Entity() (Ref, bool) { return v.ref, v.typ == TypeEntity }

func (v Value) Int() (int64, bool) { return v.i, v.typ == TypeInt }

func (v Value) Float() (float64, bool) { return v.f, v.typ == TypeFloat }

func (v Value) Bool() (bool, bool) { return v.b, v.typ == TypeBool }

// Text returns the string payload if v is a string value.
func (v Value) Text() (string, bool) { return v.s, v.typ == TypeString }

// DefineDatatype registers a datatype. Redefining a name with an identical layout
// returns the existing id.
func (w *Weave) DefineDatatype(name string, fields ...Field) (DatatypeID, error) {
	if name == "" {
		return 0, ErrEmptyDatatypeName
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, ErrClosed
	}

	if existing, ok := w.types[name]; ok {
		if !slices.Equal(existing.Fields, fields) {
			return 0, fmt.Errorf("%w: %s", ErrDatatypeConflict, name)
		}
		return existing.ID, nil
	}
	for i, f := range fields {
		if f.Type < TypeEntity || f.Type > TypeString {
			return 0, fmt.Errorf("%w: %s field %d has %s", ErrComponentMismatch, name, i, f.Type)
		}
	}

	dt := Datatype{ID: datatypeID(name), Name: name, Fields: slices.Clone(fields)}
	w.types[name] = dt
	return dt.ID, nil
}

// Datatype returns the datatype registered under name.
func (w *Weave) Datatype(name string) (Datatype, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return Datatype{}, ErrClosed
	}
	dt, ok := w.types[name]
	if !ok {
		return Datatype{}, fmt.Errorf("%w: %s", ErrUnknownDatatype, name)
	}
	dt.Fields = slices.Clone(dt.Fields)
	return dt, nil
}

// SetComponent attaches a row of datatype name to r, replacing any previous row
// of that datatype. Entity values must reference live entities of this weave.
func (w *Weave) SetComponent(r Ref, name string, values ...Value) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err := w.resolveLocked(r); err != nil {
		return refError(OpSetComponent, "entity", r.id, err)
	}
	dt, err := w.checkRowLocked(OpSetComponent, name, values)
	if err != nil {
		return err
	}
	w.setRowLocked(dt.ID, r.id, values)
	return nil
}

// Component returns a copy of r's row of datatype name.
func (w *Weave) Component(r Ref, name string) ([]Value, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, ErrClosed
	}
	if err := w.resolveLocked(r); err != nil {
		return nil, refError(OpComponent, "entity", r.id, err)
	}
	dt, ok := w.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDatatype, name)
	}
	row, ok := w.components[dt.ID][r.id]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoComponent, name, r)
	}
	return slices.Clone(row), nil
}

// HasComponent reports whether r carries a row of datatype name.
func (w *Weave) HasComponent(r Ref, name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.hasComponentLocked(r, name)
}

func (w *Weave) hasComponentLocked(r Ref, name string) bool {
	if w.closed || w.resolveLocked(r) != nil {
		return false
	}
	dt, ok := w.types[name]
	if !ok {
		return false
	}
	_, ok = w.components[dt.ID][r.id]
	return ok
}

// RemoveComponent detaches r's row of datatype name. Removing an absent row is
// not an error.
func (w *Weave) RemoveComponent(r Ref, name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err := w.resolveLocked(r); err != nil {
		return refError(OpRemoveComponent, "entity", r.id, err)
	}
	dt, ok := w.types[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDatatype, name)
	}
	if rows := w.components[dt.ID]; rows != nil {
		delete(rows, r.id)
		if len(rows) == 0 {
			delete(w.components, dt.ID)
		}
	}
	return nil
}

// ComponentNames lists the datatypes attached to r, sorted by name.
func (w *Weave) ComponentNames(r Ref) ([]string, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, ErrClosed
	}
	if err := w.resolveLocked(r); err != nil {
		return nil, refError(OpComponent, "entity", r.id, err)
	}
	var names []string
	for name, dt := range w.types {
		if _, ok := w.components[dt.ID][r.id]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Annotate creates a mark on the knot tgt carrying a row of datatype name. If the
// row is rejected no mark is created.
func (w *Weave) Annotate(tgt Ref, name string, values ...Value) (Ref, error) {
	w.mu.Lock()
	ref, err := w.annotateLocked(tgt, name, values)
	w.mu.Unlock()

	w.emit(Event{Op: OpAnnotate, Kind: KindMark, Entity: ref, Tgt: tgt, Err: err})
	return ref, err
}

func (w *Weave) annotateLocked(tgt Ref, name string, values []Value) (Ref, error) {
	if w.closed {
		return Ref{}, ErrClosed
	}
	if err := w.knotLocked(OpAnnotate, "tgt", tgt); err != nil {
		return Ref{}, err
	}
	dt, err := w.checkRowLocked(OpAnnotate, name, values)
	if err != nil {
		return Ref{}, err
	}
	mark, err := w.newMarkLocked(OpAnnotate, tgt)
	if err != nil {
		return Ref{}, err
	}
	w.setRowLocked(dt.ID, mark.id, values)
	return mark, nil
}

// Annotation returns the earliest mark on tgt carrying datatype name.
func (w *Weave) Annotation(tgt Ref, name string) (Ref, bool, error) {
	marks, err := w.Marks(tgt)
	if err != nil {
		return Ref{}, false, err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, m := range marks {
		if w.hasComponentLocked(m, name) {
			return m, true, nil
		}
	}
	return Ref{}, false, nil
}

func (w *Weave) checkRowLocked(op Op, name string, values []Value) (Datatype, error) {
	dt, ok := w.types[name]
	if !ok {
		return Datatype{}, fmt.Errorf("%w: %s", ErrUnknownDatatype, name)
	}
	if len(values) != len(dt.Fields) {
		return Datatype{}, fmt.Errorf("%w: %s wants %d values, got %d", ErrComponentMismatch, name, len(dt.Fields), len(values))
	}
	for i, f := range dt.Fields {
		v := values[i]
		if v.typ != f.Type {
			return Datatype{}, fmt.Errorf("%w: %s.%s wants %s, got %s", ErrComponentMismatch, name, f.Name, f.Type, v.typ)
		}
		if v.typ == TypeEntity {
			if err := w.resolveLocked(v.ref); err != nil {
				return Datatype{}, refError(op, f.Name, v.ref.id, err)
			}
		}
	}
	return dt, nil
}

func (w *Weave) setRowLocked(dt DatatypeID, id EntityID, values []Value) {
	rows := w.components[dt]
	if rows == nil {
		rows = make(map[EntityID][]Value)
		w.components[dt] = rows
	}
	rows[id] = slices.Clone(values)
}
