package netpack

import (
	"bytes"
	"fmt"
)

// Pack packs values according to the format. For a segment with a trailing
// string, the length field is derived from the string value itself - the
// caller passes the string where the layout expects the length, never the
// length. Arity must match NumValues exactly.
func (f *Format) Pack(values ...any) ([]byte, error) {
	if len(values) != f.values {
		return nil, fmt.Errorf("%w: format %q takes %d values, got %d",
			ErrSize, f.format, f.values, len(values))
	}

	var out bytes.Buffer
	out.Grow(f.minSize)

	rest := values
	for _, seg := range f.segments {
		if !seg.str {
			b, err := seg.layout.Pack(rest[:seg.count])
			if err != nil {
				return nil, err
			}
			out.Write(b)
			rest = rest[seg.count:]
			continue
		}

		str, err := stringValue(rest[seg.count-1])
		if err != nil {
			return nil, err
		}
		args := make([]any, seg.count)
		copy(args, rest[:seg.count-1])
		args[seg.count-1] = len(str)

		b, err := seg.layout.Pack(args)
		if err != nil {
			return nil, err
		}
		out.Write(b)
		out.Write(str)
		rest = rest[seg.count:]
	}
	return out.Bytes(), nil
}

func stringValue(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	}
	return nil, fmt.Errorf("netpack: $ takes a byte string, got %T", v)
}
