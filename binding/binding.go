// Package binding exposes weaves through opaque handles and plain uint32 ids, the
// surface foreign callers use. Every failure returns InvalidID together with a
// non-nil error.
//
// A plain id carries no record of the weave that issued it, so ids are resolved
// against the handle's own weave: an id from another weave is rejected only when
// no entity with that number exists here. Go callers that need strict scoping
// should use wv.Ref directly.
package binding

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bpradana/wv"
)

// Handle is an opaque reference to a live weave. The zero Handle is never issued.
type Handle uintptr

// InvalidID is returned in place of an id whenever an operation fails.
const InvalidID uint32 = uint32(wv.Nil)

// ErrUseAfterTeardown indicates a handle that was torn down or never constructed.
// It matches wv.ErrClosed.
var ErrUseAfterTeardown = fmt.Errorf("binding: use after teardown: %w", wv.ErrClosed)

// Registry maps handles to the weaves they own.
type Registry struct {
	mu     sync.Mutex
	next   Handle
	weaves map[Handle]*wv.Weave
	opts   []wv.Option
}

// NewRegistry returns an empty registry. opts apply to every weave it constructs.
func NewRegistry(opts ...wv.Option) *Registry {
	return &Registry{
		weaves: make(map[Handle]*wv.Weave),
		opts:   opts,
	}
}

// Construct creates a weave and returns its handle. Handles are never reused.
func (r *Registry) Construct() Handle {
	w := wv.New(r.opts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.weaves[r.next] = w
	return r.next
}

// Teardown releases the weave behind h. The handle is dead afterwards.
func (r *Registry) Teardown(h Handle) error {
	r.mu.Lock()
	w, ok := r.weaves[h]
	delete(r.weaves, h)
	r.mu.Unlock()

	if !ok {
		return ErrUseAfterTeardown
	}
	return translate(w.Close())
}

// Live returns the number of handles not yet torn down.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.weaves)
}

// Weave returns the weave behind h.
func (r *Registry) Weave(h Handle) (*wv.Weave, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.weaves[h]
	if !ok {
		return nil, ErrUseAfterTeardown
	}
	return w, nil
}

func (r *Registry) NewKnot(h Handle) (uint32, error) {
	return r.create(h, func(w *wv.Weave) (wv.Ref, error) {
		return w.NewKnot()
	})
}

func (r *Registry) NewArrow(h Handle, src, tgt uint32) (uint32, error) {
	return r.create(h, func(w *wv.Weave) (wv.Ref, error) {
		return w.NewArrow(w.Ref(wv.EntityID(src)), w.Ref(wv.EntityID(tgt)))
	})
}

func (r *Registry) NewMark(h Handle, tgt uint32) (uint32, error) {
	return r.create(h, func(w *wv.Weave) (wv.Ref, error) {
		return w.NewMark(w.Ref(wv.EntityID(tgt)))
	})
}

func (r *Registry) NewTether(h Handle, src uint32) (uint32, error) {
	return r.create(h, func(w *wv.Weave) (wv.Ref, error) {
		return w.NewTether(w.Ref(wv.EntityID(src)))
	})
}

func (r *Registry) create(h Handle, fn func(*wv.Weave) (wv.Ref, error)) (uint32, error) {
	w, err := r.Weave(h)
	if err != nil {
		return InvalidID, err
	}
	ref, err := fn(w)
	if err != nil {
		return InvalidID, translate(err)
	}
	return uint32(ref.ID()), nil
}

// translate maps a weave closed underneath a live handle to ErrUseAfterTeardown.
func translate(err error) error {
	if errors.Is(err, wv.ErrClosed) {
		return ErrUseAfterTeardown
	}
	return err
}

var defaultRegistry = NewRegistry()

// Construct creates a weave in the default registry.
func Construct() Handle { return defaultRegistry.Construct() }

// Teardown releases a weave from the default registry.
func Teardown(h Handle) error { return defaultRegistry.Teardown(h) }

// NewKnot creates a knot and returns its id.
func NewKnot(h Handle) (uint32, error) { return defaultRegistry.NewKnot(h) }

// NewArrow creates an arrow between two knot ids.
func NewArrow(h Handle, src, tgt uint32) (uint32, error) { return defaultRegistry.NewArrow(h, src, tgt) }

// NewMark creates a mark on a knot id.
func NewMark(h Handle, tgt uint32) (uint32, error) { return defaultRegistry.NewMark(h, tgt) }

// NewTether creates a tether from a knot id.
func NewTether(h Handle, src uint32) (uint32, error) { return defaultRegistry.NewTether(h, src) }
