package form

import "errors"

var (
	// ErrUnknownPath is returned when a dotted path does not address a node.
	ErrUnknownPath = errors.New("form: unknown field path")
	// ErrNotList is returned when item operations target a non-list node.
	ErrNotList = errors.New("form: field is not a list")
	// ErrItemIndex is returned for out-of-range list item indexes.
	ErrItemIndex = errors.New("form: item index out of range")
)
