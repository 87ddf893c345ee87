// Package wv implements a weave: a single-owner container for a graph of four
// entity kinds.
//
// Knots are nodes. Arrows join a source knot to a target knot, marks annotate a
// target knot, and tethers anchor to a source knot. Only knots may be referenced,
// so every reference is checked against the weave's knots when an entity is
// created. Entities are never modified or removed individually; Close releases
// them all at once.
//
// Every entity receives an EntityID from one counter shared by all kinds, so ids
// are unique within a weave and their order is the creation order. Creation
// returns a Ref, which also records the issuing weave; a Ref from another weave is
// rejected even when its numeric id exists locally.
package wv
