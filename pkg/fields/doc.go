// Package fields provides the built-in field-type catalog: one handler
// descriptor per type identifier with a template-backed render function,
// an extraction function that normalises edited values, and defaults where
// a type has a natural empty value.
package fields
