// Package core holds the domain model shared by the parser, the resolver and
// the store: the Scribble entity, its attributes and the contracts that
// storage collaborators must satisfy.
//
// Entities are plain values. Helpers that change attributes return a copy with
// the computed attributes re-derived, so a fetched Scribble can be modified
// freely without touching the stored original.
package core
