package wv

import (
	"fmt"

	"github.com/google/uuid"
)

// EntityID identifies an entity within one weave. Ids are issued from a single
// counter shared by all kinds, starting at 1, and are never reused.
type EntityID uint32

// Nil is the reserved "no entity" id. It is never issued.
const Nil EntityID = 0

// Kind is the kind of an entity.
type Kind uint8

const (
	KindKnot Kind = iota + 1
	KindArrow
	KindMark
	KindTether
)

const kindCount = int(KindTether) + 1

// Kinds lists every entity kind in declaration order.
var Kinds = []Kind{KindKnot, KindArrow, KindMark, KindTether}

func (k Kind) String() string {
	switch k {
	case KindKnot:
		return "knot"
	case KindArrow:
		return "arrow"
	case KindMark:
		return "mark"
	case KindTether:
		return "tether"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Ref references an entity of a specific weave. The zero Ref references nothing.
type Ref struct {
	weave uuid.UUID
	id    EntityID
}

// ID returns the plain entity id.
func (r Ref) ID() EntityID {
	return r.id
}

// WeaveID returns the identifier of the weave that issued the reference.
func (r Ref) WeaveID() string {
	if r.weave == uuid.Nil {
		return ""
	}
	return r.weave.String()
}

// IsZero reports whether r is the zero Ref.
func (r Ref) IsZero() bool {
	return r == Ref{}
}

func (r Ref) String() string {
	return fmt.Sprintf("#%d", r.id)
}

// record is the stored form of one entity. Knots point at themselves on both
// ends, marks on the source end and tethers on the target end.
type record struct {
	kind Kind
	src  EntityID
	tgt  EntityID
}

// Stats summarises a weave's contents.
type Stats struct {
	WeaveID    string
	Knots      int
	Arrows     int
	Marks      int
	Tethers    int
	Components int
}

// Total returns the number of entities of every kind.
func (s Stats) Total() int {
	return s.Knots + s.Arrows + s.Marks + s.Tethers
}

// Lookup resolves a plain id issued by this weave.
func (w *Weave) Lookup(id EntityID) (Ref, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return Ref{}, ErrClosed
	}
	ref := w.ref(id)
	if err := w.resolveLocked(ref); err != nil {
		return Ref{}, refError(OpLookup, "id", id, err)
	}
	return ref, nil
}

// Ref binds a plain id to this weave without validating it. Operations taking the
// result validate it as they would any other reference.
func (w *Weave) Ref(id EntityID) Ref {
	return w.ref(id)
}

func (w *Weave) ref(id EntityID) Ref {
	return Ref{weave: w.id, id: id}
}

// Contains reports whether r is a live entity of this weave.
func (w *Weave) Contains(r Ref) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return !w.closed && w.resolveLocked(r) == nil
}

// Kind returns the kind of r.
func (w *Weave) Kind(r Ref) (Kind, error) {
	rec, err := w.record(OpKind, r)
	if err != nil {
		return 0, err
	}
	return rec.kind, nil
}

// Src returns the source end of r. Knots and marks are their own source.
func (w *Weave) Src(r Ref) (Ref, error) {
	rec, err := w.record(OpSrc, r)
	if err != nil {
		return Ref{}, err
	}
	return w.ref(rec.src), nil
}

// Tgt returns the target end of r. Knots and tethers are their own target.
func (w *Weave) Tgt(r Ref) (Ref, error) {
	rec, err := w.record(OpTgt, r)
	if err != nil {
		return Ref{}, err
	}
	return w.ref(rec.tgt), nil
}

func (w *Weave) IsKnot(r Ref) bool   { return w.is(r, KindKnot) }
func (w *Weave) IsArrow(r Ref) bool  { return w.is(r, KindArrow) }
func (w *Weave) IsMark(r Ref) bool   { return w.is(r, KindMark) }
func (w *Weave) IsTether(r Ref) bool { return w.is(r, KindTether) }

func (w *Weave) is(r Ref, kind Kind) bool {
	k, err := w.Kind(r)
	return err == nil && k == kind
}

func (w *Weave) record(op Op, r Ref) (record, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return record{}, ErrClosed
	}
	if err := w.resolveLocked(r); err != nil {
		return record{}, refError(op, "entity", r.id, err)
	}
	return w.records[r.id-1], nil
}

// Len returns the number of entities in the weave.
func (w *Weave) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.records)
}

// Count returns the number of entities of kind k.
func (w *Weave) Count(k Kind) int {
	if k < KindKnot || k > KindTether {
		return 0
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.counts[k]
}

// Stats returns a summary of the weave. A closed weave reports only its id.
func (w *Weave) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.statsLocked()
}

func (w *Weave) statsLocked() Stats {
	stats := Stats{
		WeaveID: w.id.String(),
		Knots:   w.counts[KindKnot],
		Arrows:  w.counts[KindArrow],
		Marks:   w.counts[KindMark],
		Tethers: w.counts[KindTether],
	}
	for _, rows := range w.components {
		stats.Components += len(rows)
	}
	return stats
}

// Entities returns every entity in creation order.
func (w *Weave) Entities() ([]Ref, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, ErrClosed
	}
	refs := make([]Ref, len(w.records))
	for i := range w.records {
		refs[i] = w.ref(EntityID(i + 1))
	}
	return refs, nil
}
