// Package form builds a tree of field nodes from a schema and a value
// document, and keeps one lazily composed value-extraction function per node.
//
// Editing a node rebuilds its own extraction function and recomposes the
// functions of its ancestors; no handler-specific extraction runs until the
// root function is invoked, which normally happens once per save attempt.
// Extraction functions capture immutable state, so a function obtained before
// later edits keeps returning the value it described.
//
// A Tree is not safe for concurrent mutation. Callers such as session.Session
// serialise edits; the returned ValueFunc values may be invoked from any
// goroutine.
package form
