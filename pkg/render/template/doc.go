// Package template defines the renderer-agnostic template contract used by
// field render functions. The pongo subpackage provides the default engine.
package template
