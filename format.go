package netpack

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unkn0wn-root/netpack/scalar"
	"github.com/unkn0wn-root/netpack/scalar/stdpack"
)

// integer-typed codes whose value may supply the length of a trailing $ string.
const lengthCodes = "bBhHiIlLqQP"

// segment is one compiled unit: a fixed scalar layout, the number of values
// it consumes/produces, and whether a variable-length string follows it.
type segment struct {
	layout scalar.Layout
	count  int
	str    bool
}

// Format is a compiled format string. Compile once, then share freely:
// a Format is immutable and every pack/decode operation carries its own
// state, so independent operations need no coordination.
type Format struct {
	format   []byte
	order    byte
	segments []segment
	minSize  int
	initSize int
	values   int
}

var defaultCodec scalar.Codec = stdpack.Codec{}

// Compile parses format into a reusable Format using the stock scalar
// codec (scalar/stdpack).
func Compile(format []byte) (*Format, error) {
	return CompileWith(defaultCodec, format)
}

// CompileWith is Compile with an injected scalar codec.
func CompileWith(codec scalar.Codec, format []byte) (*Format, error) {
	for i, c := range format {
		if c >= 0x80 {
			return nil, fmt.Errorf("%w: byte 0x%02x at offset %d", ErrFormatType, c, i)
		}
	}
	if bytes.Contains(format, []byte("$$")) {
		return nil, fmt.Errorf("%w: adjacent $ markers in %q", ErrFormat, format)
	}

	f := &Format{format: append([]byte(nil), format...), order: '!'}

	rest := format
	if len(rest) > 0 {
		switch rest[0] {
		case '@', '=', '<', '>', '!':
			f.order = rest[0]
			rest = rest[1:]
		}
	}

	for len(rest) > 0 {
		piece, hasStr := rest, false
		if i := bytes.IndexByte(rest, '$'); i >= 0 {
			piece, hasStr, rest = rest[:i], true, rest[i+1:]
		} else {
			rest = nil
		}
		if hasStr && (len(piece) == 0 || !strings.ContainsRune(lengthCodes, rune(piece[len(piece)-1]))) {
			return nil, fmt.Errorf("%w: $ must directly follow an integer code in %q", ErrFormat, format)
		}

		lay, err := codec.Compile(string(f.order) + string(piece))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		f.segments = append(f.segments, segment{layout: lay, count: lay.Count(), str: hasStr})
		f.minSize += lay.Size()
		f.values += lay.Count()
	}
	if len(f.segments) > 0 {
		f.initSize = f.segments[0].layout.Size()
	}
	return f, nil
}

// Format returns a copy of the format string this Format was compiled from.
func (f *Format) Format() []byte { return append([]byte(nil), f.format...) }

func (f *Format) String() string { return string(f.format) }

// MinSize returns the minimum possible packed size: the sum of all fixed
// segment sizes. Variable-length strings contribute zero or more bytes on
// top of it.
func (f *Format) MinSize() int { return f.minSize }

// InitialSize returns the packed size up to the first variable-length
// string, or the whole minimum size when there is none. Streaming callers
// use it to size their first read, before any string length is known.
func (f *Format) InitialSize() int { return f.initSize }

// NumValues returns how many values Pack consumes and a completed decode
// produces. A variable-length string counts as one value; the length field
// driving it is derived, not supplied.
func (f *Format) NumValues() int { return f.values }

// NumSegments returns the number of compiled segments.
func (f *Format) NumSegments() int { return len(f.segments) }
