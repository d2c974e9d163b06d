// Package store persists term-graph snapshots to SQLite.
//
// A snapshot is a named root term plus every term and symbol reachable
// from it, written in topological order so that foreign keys always point
// at already-inserted rows. Loading a snapshot re-interns the graph
// through a pool session, so a loaded term is canonical in the target
// pool exactly as if it had been constructed there.
//
// Hash-consing makes this compact: shared subterms are written once per
// snapshot regardless of how often the root reaches them.
package store
