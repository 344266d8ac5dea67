package netpack

import "errors"

var (
	// ErrFormat reports a malformed format string: an unrecognized scalar
	// code, adjacent $ markers, or a $ marker not preceded by exactly one
	// integer-typed code.
	ErrFormat = errors.New("netpack: invalid format")

	// ErrFormatType reports a format supplied in the wrong representation.
	// Formats must be plain ASCII byte strings; multi-byte text would
	// silently corrupt offsets, so it is rejected before the grammar is
	// even looked at.
	ErrFormatType = errors.New("netpack: format must be an ASCII byte string")

	// ErrSize reports a mismatch between a format and the data supplied
	// for it: wrong value count on Pack, a buffer shorter than the
	// format's minimum size on Unpack, or a negative string length
	// encountered while decoding.
	ErrSize = errors.New("netpack: size mismatch")

	// ErrSessionSpent reports a Feed on a session that has already handed
	// back its decoded values and leftover bytes.
	ErrSessionSpent = errors.New("netpack: session spent")
)
