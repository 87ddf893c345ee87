package wv

import (
	"math"
	"sync"

	"github.com/google/uuid"
)

// Op names a weave operation in events and errors.
type Op string

const (
	OpNewKnot         Op = "new_knot"
	OpNewArrow        Op = "new_arrow"
	OpNewMark         Op = "new_mark"
	OpNewTether       Op = "new_tether"
	OpLookup          Op = "lookup"
	OpKind            Op = "kind"
	OpSrc             Op = "src"
	OpTgt             Op = "tgt"
	OpTraverse        Op = "traverse"
	OpSetComponent    Op = "set_component"
	OpComponent       Op = "component"
	OpRemoveComponent Op = "remove_component"
	OpAnnotate        Op = "annotate"
)

// Weave owns a graph of knots, arrows, marks and tethers. Entities are created one
// at a time, are immutable once created, and are released together by Close.
//
// A Weave is safe for concurrent use; creation operations are serialized.
type Weave struct {
	mu     sync.RWMutex
	id     uuid.UUID
	closed bool
	limit  uint32
	hooks  Hooks

	records  []record
	counts   [kindCount]int
	bySource map[EntityID][]EntityID
	byTarget map[EntityID][]EntityID

	types      map[string]Datatype
	components map[DatatypeID]map[EntityID][]Value
}

// Option configures a weave.
type Option func(*options)

type options struct {
	capacity int
	limit    uint32
	hooks    Hooks
}

func defaultOptions() options {
	return options{limit: math.MaxUint32}
}

// WithCapacity preallocates storage for n entities.
func WithCapacity(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.capacity = n
		}
	}
}

// WithMaxEntities caps the number of entities the weave will issue. Creation
// beyond the cap fails with ErrIDSpaceExhausted.
func WithMaxEntities(n uint32) Option {
	return func(opts *options) {
		opts.limit = n
	}
}

// WithHooks attaches lifecycle hooks to the weave.
func WithHooks(h Hooks) Option {
	return func(opts *options) {
		opts.hooks = opts.hooks.Merge(h)
	}
}

// New constructs an empty weave.
func New(opts ...Option) *Weave {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Weave{
		id:         uuid.New(),
		limit:      cfg.limit,
		hooks:      cfg.hooks,
		records:    make([]record, 0, cfg.capacity),
		bySource:   make(map[EntityID][]EntityID),
		byTarget:   make(map[EntityID][]EntityID),
		types:      make(map[string]Datatype),
		components: make(map[DatatypeID]map[EntityID][]Value),
	}
}

// ID returns the weave's unique identifier.
func (w *Weave) ID() string {
	return w.id.String()
}

// Closed reports whether Close has been called.
func (w *Weave) Closed() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closed
}

// Close releases every entity owned by the weave. Every later operation fails
// with ErrClosed, including a second Close.
func (w *Weave) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	stats := w.statsLocked()
	w.closed = true
	w.records = nil
	w.counts = [kindCount]int{}
	w.bySource = nil
	w.byTarget = nil
	w.types = nil
	w.components = nil
	hooks := w.hooks
	w.mu.Unlock()

	if hooks.OnClose != nil {
		hooks.OnClose(stats)
	}
	return nil
}

// NewKnot creates a knot.
func (w *Weave) NewKnot() (Ref, error) {
	w.mu.Lock()
	ref, err := w.newKnotLocked()
	w.mu.Unlock()

	w.emit(Event{Op: OpNewKnot, Kind: KindKnot, Entity: ref, Err: err})
	return ref, err
}

// NewArrow creates a directed arrow from src to tgt. Both must be knots of this
// weave; they may be the same knot.
func (w *Weave) NewArrow(src, tgt Ref) (Ref, error) {
	w.mu.Lock()
	ref, err := w.newArrowLocked(src, tgt)
	w.mu.Unlock()

	w.emit(Event{Op: OpNewArrow, Kind: KindArrow, Entity: ref, Src: src, Tgt: tgt, Err: err})
	return ref, err
}

// NewMark creates a mark targeting the knot tgt.
func (w *Weave) NewMark(tgt Ref) (Ref, error) {
	w.mu.Lock()
	ref, err := w.newMarkLocked(OpNewMark, tgt)
	w.mu.Unlock()

	w.emit(Event{Op: OpNewMark, Kind: KindMark, Entity: ref, Tgt: tgt, Err: err})
	return ref, err
}

// NewTether creates a tether originating at the knot src.
func (w *Weave) NewTether(src Ref) (Ref, error) {
	w.mu.Lock()
	ref, err := w.newTetherLocked(src)
	w.mu.Unlock()

	w.emit(Event{Op: OpNewTether, Kind: KindTether, Entity: ref, Src: src, Err: err})
	return ref, err
}

func (w *Weave) newKnotLocked() (Ref, error) {
	if w.closed {
		return Ref{}, ErrClosed
	}
	id, err := w.nextIDLocked()
	if err != nil {
		return Ref{}, err
	}
	return w.insertLocked(record{kind: KindKnot, src: id, tgt: id}), nil
}

func (w *Weave) newArrowLocked(src, tgt Ref) (Ref, error) {
	if w.closed {
		return Ref{}, ErrClosed
	}
	if err := w.knotLocked(OpNewArrow, "src", src); err != nil {
		return Ref{}, err
	}
	if err := w.knotLocked(OpNewArrow, "tgt", tgt); err != nil {
		return Ref{}, err
	}
	if _, err := w.nextIDLocked(); err != nil {
		return Ref{}, err
	}
	return w.insertLocked(record{kind: KindArrow, src: src.id, tgt: tgt.id}), nil
}

func (w *Weave) newMarkLocked(op Op, tgt Ref) (Ref, error) {
	if w.closed {
		return Ref{}, ErrClosed
	}
	if err := w.knotLocked(op, "tgt", tgt); err != nil {
		return Ref{}, err
	}
	id, err := w.nextIDLocked()
	if err != nil {
		return Ref{}, err
	}
	return w.insertLocked(record{kind: KindMark, src: id, tgt: tgt.id}), nil
}

func (w *Weave) newTetherLocked(src Ref) (Ref, error) {
	if w.closed {
		return Ref{}, ErrClosed
	}
	if err := w.knotLocked(OpNewTether, "src", src); err != nil {
		return Ref{}, err
	}
	id, err := w.nextIDLocked()
	if err != nil {
		return Ref{}, err
	}
	return w.insertLocked(record{kind: KindTether, src: src.id, tgt: id}), nil
}

// nextIDLocked returns the id the next insert will use without consuming it.
func (w *Weave) nextIDLocked() (EntityID, error) {
	n := uint64(len(w.records))
	if n >= uint64(w.limit) {
		return Nil, ErrIDSpaceExhausted
	}
	return EntityID(n + 1), nil
}

func (w *Weave) insertLocked(rec record) Ref {
	w.records = append(w.records, rec)
	id := EntityID(len(w.records))
	w.counts[rec.kind]++

	if rec.src != id {
		w.bySource[rec.src] = append(w.bySource[rec.src], id)
	}
	if rec.tgt != id {
		w.byTarget[rec.tgt] = append(w.byTarget[rec.tgt], id)
	}
	return w.ref(id)
}

// resolveLocked checks that r names an entity issued by this weave.
func (w *Weave) resolveLocked(r Ref) error {
	switch {
	case r.id == Nil:
		return ErrNilEntity
	case r.weave != w.id:
		return ErrForeignEntity
	case uint64(r.id) > uint64(len(w.records)):
		return ErrUnknownEntity
	}
	return nil
}

func (w *Weave) knotLocked(op Op, role string, r Ref) error {
	if err := w.resolveLocked(r); err != nil {
		return refError(op, role, r.id, err)
	}
	if w.records[r.id-1].kind != KindKnot {
		return refError(op, role, r.id, ErrNotKnot)
	}
	return nil
}

func (w *Weave) emit(ev Event) {
	hook := w.hooks.OnCreate
	if ev.Err != nil {
		hook = w.hooks.OnReject
	}
	if hook == nil {
		return
	}
	ev.WeaveID = w.id.String()
	hook(ev)
}
