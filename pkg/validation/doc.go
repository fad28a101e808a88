// Package validation checks form values against the rules declared on field
// descriptors (required, numeric bounds, length limits and patterns).
package validation
