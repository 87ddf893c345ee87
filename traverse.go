package wv

import "slices"

// Traversal walks the reverse indexes from a knot to the entities attached to it.
// Results are ordered by id, which is creation order.

// ArrowsOut returns the arrows whose source is k.
func (w *Weave) ArrowsOut(k Ref) ([]Ref, error) {
	return w.attached(k, func(w *Weave, id EntityID) []EntityID {
		return w.filterLocked(w.bySource[id], KindArrow)
	})
}

// ArrowsIn returns the arrows whose target is k.
func (w *Weave) ArrowsIn(k Ref) ([]Ref, error) {
	return w.attached(k, func(w *Weave, id EntityID) []EntityID {
		return w.filterLocked(w.byTarget[id], KindArrow)
	})
}

// Arrows returns the arrows touching k on either end. A self-loop is listed once.
func (w *Weave) Arrows(k Ref) ([]Ref, error) {
	return w.attached(k, func(w *Weave, id EntityID) []EntityID {
		return mergeSorted(
			w.filterLocked(w.bySource[id], KindArrow),
			w.filterLocked(w.byTarget[id], KindArrow),
		)
	})
}

// Marks returns the marks targeting k.
func (w *Weave) Marks(k Ref) ([]Ref, error) {
	return w.attached(k, func(w *Weave, id EntityID) []EntityID {
		return w.filterLocked(w.byTarget[id], KindMark)
	})
}

// Tethers returns the tethers originating at k.
func (w *Weave) Tethers(k Ref) ([]Ref, error) {
	return w.attached(k, func(w *Weave, id EntityID) []EntityID {
		return w.filterLocked(w.bySource[id], KindTether)
	})
}

// Dependents returns every entity that references k.
func (w *Weave) Dependents(k Ref) ([]Ref, error) {
	return w.attached(k, func(w *Weave, id EntityID) []EntityID {
		return mergeSorted(w.bySource[id], w.byTarget[id])
	})
}

// Next returns the distinct knots reached by k's outgoing arrows, excluding k.
func (w *Weave) Next(k Ref) ([]Ref, error) {
	return w.attached(k, func(w *Weave, id EntityID) []EntityID {
		return w.endsLocked(id, w.bySource[id], func(rec record) EntityID { return rec.tgt })
	})
}

// Prev returns the distinct knots whose arrows reach k, excluding k.
func (w *Weave) Prev(k Ref) ([]Ref, error) {
	return w.attached(k, func(w *Weave, id EntityID) []EntityID {
		return w.endsLocked(id, w.byTarget[id], func(rec record) EntityID { return rec.src })
	})
}

func (w *Weave) attached(k Ref, collect func(*Weave, EntityID) []EntityID) ([]Ref, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return nil, ErrClosed
	}
	if err := w.knotLocked(OpTraverse, "knot", k); err != nil {
		return nil, err
	}

	ids := collect(w, k.id)
	refs := make([]Ref, len(ids))
	for i, id := range ids {
		refs[i] = w.ref(id)
	}
	return refs, nil
}

func (w *Weave) filterLocked(ids []EntityID, kind Kind) []EntityID {
	out := make([]EntityID, 0, len(ids))
	for _, id := range ids {
		if w.records[id-1].kind == kind {
			out = append(out, id)
		}
	}
	return out
}

func (w *Weave) endsLocked(self EntityID, ids []EntityID, end func(record) EntityID) []EntityID {
	seen := make(map[EntityID]struct{}, len(ids))
	out := make([]EntityID, 0, len(ids))
	for _, id := range ids {
		rec := w.records[id-1]
		if rec.kind != KindArrow {
			continue
		}
		other := end(rec)
		if other == self {
			continue
		}
		if _, dup := seen[other]; dup {
			continue
		}
		seen[other] = struct{}{}
		out = append(out, other)
	}
	slices.Sort(out)
	return out
}

// mergeSorted merges two ascending id lists, dropping duplicates.
func mergeSorted(a, b []EntityID) []EntityID {
	out := make([]EntityID, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next EntityID
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			next = a[i]
			i++
		case i >= len(a) || b[j] < a[i]:
			next = b[j]
			j++
		default:
			next = a[i]
			i++
			j++
		}
		if n := len(out); n > 0 && out[n-1] == next {
			continue
		}
		out = append(out, next)
	}
	return out
}
