// Package model defines the declarative field descriptors a form is built
// from, together with the helpers used to read and write nested values by
// dotted path. A schema is an ordered list of Field entries; each entry names a
// field-type identifier that is resolved against a registry when the form tree
// is constructed. Values are plain `map[string]any` documents so they can be
// decoded from YAML or JSON and handed back to persistence layers untouched.
package model
