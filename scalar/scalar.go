// Package scalar defines the fixed-width layout codec capability netpack
// compiles against.
//
// A layout string is a byte-order character (`@ = < > !`) followed by scalar
// codes with optional repeat counts - the fixed part of a netpack segment,
// with no `$` markers. Implementations must report the exact packed size of
// a compiled layout and pack/unpack a flat value sequence in that byte
// order. scalar/stdpack is the stock implementation; netpack never depends
// on anything beyond this interface.
package scalar

// Layout is a compiled fixed-width scalar layout, reusable for any number
// of Pack/Unpack calls.
type Layout interface {
	// Size returns the packed byte size of the layout. Static: strings
	// are not part of a layout.
	Size() int

	// Count returns the number of discrete values the layout consumes on
	// Pack and produces on Unpack (pad bytes consume and produce none).
	Count() int

	// Pack packs exactly Count values into Size bytes.
	Pack(values []any) ([]byte, error)

	// Unpack decodes Count values from the first Size bytes of data.
	// data shorter than Size is an error; surplus bytes are ignored.
	Unpack(data []byte) ([]any, error)
}

// Codec compiles layout strings. Implementations must be safe for
// concurrent use, as must the layouts they return.
type Codec interface {
	Compile(layout string) (Layout, error)
}
