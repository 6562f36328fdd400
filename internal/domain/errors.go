package domain

import "errors"

var (
	// ErrUnknownProvider is returned when zero or more than one vendor
	// layout matches a document. Ambiguity is never resolved by guessing.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNoLineItems is returned when a document was read but none of its
	// rows matched the vendor's line pattern.
	ErrNoLineItems = errors.New("no line items found")

	// ErrNoTextLayer is returned when a PDF has no extractable text.
	ErrNoTextLayer = errors.New("no extractable text layer")
)
