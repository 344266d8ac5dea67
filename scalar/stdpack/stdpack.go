// Package stdpack is the stock scalar.Codec: struct-style fixed-width
// layouts over encoding/binary.
//
// Supported codes: x (pad), c (char), b/B (int8/uint8), ? (bool),
// h/H (int16/uint16), i/I (int32/uint32), l/L (long), q/Q (int64/uint64),
// f/d (float32/float64), P (pointer-sized unsigned, native order only),
// s (fixed byte string), p (Pascal string). A decimal prefix repeats a
// code, except for s and p where it is the byte length. Whitespace between
// codes is ignored.
//
// In standard modes (= < > !) every code has its standard size and no
// alignment is inserted. In native mode (@) l, L and P are register-sized
// and fields are padded to their natural alignment.
package stdpack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/unkn0wn-root/netpack/scalar"
)

var (
	// ErrLayout reports a malformed layout string.
	ErrLayout = errors.New("stdpack: bad layout")
	// ErrValue reports a value that does not fit its scalar slot.
	ErrValue = errors.New("stdpack: bad value")
)

// register width in bytes; l, L and P use it in native mode.
const ptrSize = bits.UintSize / 8

const maxRepeat = 1 << 24

// Codec compiles layout strings. The zero value is ready to use.
type Codec struct{}

var _ scalar.Codec = Codec{}

func (Codec) Compile(layoutStr string) (scalar.Layout, error) {
	return compile(layoutStr)
}

type field struct {
	code   byte
	n      int // repeat count; byte length for s and p
	unit   int // bytes per element
	offset int
	size   int // total bytes including all repeats
}

type layout struct {
	str    string
	order  binary.ByteOrder
	native bool
	fields []field
	size   int
	count  int
}

var _ scalar.Layout = (*layout)(nil)

func compile(s string) (*layout, error) {
	l := &layout{str: s, order: binary.BigEndian}
	rest := s
	if len(rest) > 0 {
		switch rest[0] {
		case '@':
			l.order, l.native = binary.NativeEndian, true
			rest = rest[1:]
		case '=':
			l.order = binary.NativeEndian
			rest = rest[1:]
		case '<':
			l.order = binary.LittleEndian
			rest = rest[1:]
		case '>', '!':
			rest = rest[1:]
		}
	}

	num := -1 // pending repeat count; -1 = none
	for i := 0; i < len(rest); i++ {
		switch ch := rest[i]; {
		case ch >= '0' && ch <= '9':
			if num < 0 {
				num = 0
			}
			num = num*10 + int(ch-'0')
			if num > maxRepeat {
				return nil, fmt.Errorf("%w: repeat count overflow in %q", ErrLayout, s)
			}
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			if num >= 0 {
				return nil, fmt.Errorf("%w: count without code in %q", ErrLayout, s)
			}
		default:
			if err := l.add(ch, num); err != nil {
				return nil, err
			}
			num = -1
		}
	}
	if num >= 0 {
		return nil, fmt.Errorf("%w: trailing count in %q", ErrLayout, s)
	}
	return l, nil
}

func (l *layout) add(code byte, n int) error {
	if n < 0 {
		n = 1
	}
	unit, align, ok := unitOf(code, l.native)
	if !ok {
		return fmt.Errorf("%w: code %q in %q", ErrLayout, string(code), l.str)
	}

	f := field{code: code, n: n, unit: unit}
	switch code {
	case 's', 'p':
		f.size = n
	default:
		f.size = n * unit
	}

	if l.native && align > 1 {
		if rem := l.size % align; rem != 0 {
			l.size += align - rem
		}
	}
	f.offset = l.size
	l.size += f.size

	switch code {
	case 'x':
	case 's', 'p':
		l.count++
	default:
		l.count += n
	}
	l.fields = append(l.fields, f)
	return nil
}

// unitOf returns element size and native alignment for a code.
func unitOf(code byte, native bool) (size, align int, ok bool) {
	switch code {
	case 'x', 'c', 'b', 'B', '?', 's', 'p':
		return 1, 1, true
	case 'h', 'H':
		return 2, 2, true
	case 'i', 'I', 'f':
		return 4, 4, true
	case 'l', 'L':
		if native {
			return ptrSize, ptrSize, true
		}
		return 4, 4, true
	case 'q', 'Q', 'd':
		return 8, 8, true
	case 'P':
		if native {
			return ptrSize, ptrSize, true
		}
		return 0, 0, false
	}
	return 0, 0, false
}

func (l *layout) Size() int  { return l.size }
func (l *layout) Count() int { return l.count }

func (l *layout) String() string { return l.str }

func (l *layout) Pack(values []any) ([]byte, error) {
	if len(values) != l.count {
		return nil, fmt.Errorf("%w: layout %q takes %d values, got %d",
			ErrValue, l.str, l.count, len(values))
	}

	buf := make([]byte, l.size)
	vi := 0
	for _, f := range l.fields {
		switch f.code {
		case 'x':
			// pad bytes stay zero
		case 'c':
			for k := 0; k < f.n; k++ {
				ch, err := charValue(values[vi])
				if err != nil {
					return nil, err
				}
				buf[f.offset+k] = ch
				vi++
			}
		case 's':
			b, err := byteValue(values[vi])
			if err != nil {
				return nil, err
			}
			// truncated or zero-padded to the declared length
			copy(buf[f.offset:f.offset+f.n], b)
			vi++
		case 'p':
			b, err := byteValue(values[vi])
			if err != nil {
				return nil, err
			}
			if f.n > 0 {
				n := len(b)
				if n > f.n-1 {
					n = f.n - 1
				}
				if n > math.MaxUint8 {
					n = math.MaxUint8
				}
				buf[f.offset] = byte(n)
				copy(buf[f.offset+1:f.offset+f.n], b[:n])
			}
			vi++
		default:
			off := f.offset
			for k := 0; k < f.n; k++ {
				if err := l.putScalar(buf[off:off+f.unit], f.code, values[vi]); err != nil {
					return nil, err
				}
				off += f.unit
				vi++
			}
		}
	}
	return buf, nil
}

func (l *layout) Unpack(data []byte) ([]any, error) {
	if len(data) < l.size {
		return nil, fmt.Errorf("%w: layout %q needs %d bytes, got %d",
			ErrValue, l.str, l.size, len(data))
	}

	out := make([]any, 0, l.count)
	for _, f := range l.fields {
		switch f.code {
		case 'x':
		case 'c':
			for k := 0; k < f.n; k++ {
				out = append(out, data[f.offset+k])
			}
		case 's':
			b := make([]byte, f.n)
			copy(b, data[f.offset:])
			out = append(out, b)
		case 'p':
			if f.n == 0 {
				out = append(out, []byte{})
				continue
			}
			n := int(data[f.offset])
			if n > f.n-1 {
				n = f.n - 1
			}
			b := make([]byte, n)
			copy(b, data[f.offset+1:])
			out = append(out, b)
		default:
			off := f.offset
			for k := 0; k < f.n; k++ {
				out = append(out, l.scalar(data[off:off+f.unit], f.code))
				off += f.unit
			}
		}
	}
	return out, nil
}

func (l *layout) putScalar(dst []byte, code byte, v any) error {
	switch code {
	case 'b', 'h', 'i', 'l', 'q':
		n, err := intValue(v, len(dst)*8)
		if err != nil {
			return err
		}
		putUint(dst, l.order, uint64(n))
	case 'B', 'H', 'I', 'L', 'Q', 'P':
		u, err := uintValue(v, len(dst)*8)
		if err != nil {
			return err
		}
		putUint(dst, l.order, u)
	case '?':
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: cannot pack %T as bool", ErrValue, v)
		}
		if b {
			dst[0] = 1
		}
	case 'f':
		fv, err := floatValue(v)
		if err != nil {
			return err
		}
		putUint(dst, l.order, uint64(math.Float32bits(float32(fv))))
	case 'd':
		fv, err := floatValue(v)
		if err != nil {
			return err
		}
		putUint(dst, l.order, math.Float64bits(fv))
	}
	return nil
}

func (l *layout) scalar(src []byte, code byte) any {
	u := getUint(src, l.order)
	switch code {
	case 'b':
		return int8(u)
	case 'B':
		return uint8(u)
	case '?':
		return u != 0
	case 'h':
		return int16(u)
	case 'H':
		return uint16(u)
	case 'i':
		return int32(u)
	case 'I':
		return uint32(u)
	case 'l':
		if len(src) == 8 {
			return int64(u)
		}
		return int32(u)
	case 'L':
		if len(src) == 8 {
			return u
		}
		return uint32(u)
	case 'q':
		return int64(u)
	case 'Q', 'P':
		return u
	case 'f':
		return math.Float32frombits(uint32(u))
	case 'd':
		return math.Float64frombits(u)
	}
	return nil
}

func putUint(dst []byte, order binary.ByteOrder, u uint64) {
	switch len(dst) {
	case 1:
		dst[0] = byte(u)
	case 2:
		order.PutUint16(dst, uint16(u))
	case 4:
		order.PutUint32(dst, uint32(u))
	case 8:
		order.PutUint64(dst, u)
	}
}

func getUint(src []byte, order binary.ByteOrder) uint64 {
	switch len(src) {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(order.Uint16(src))
	case 4:
		return uint64(order.Uint32(src))
	case 8:
		return order.Uint64(src)
	}
	return 0
}

func intValue(v any, width int) (int64, error) {
	var n int64
	switch t := v.(type) {
	case int:
		n = int64(t)
	case int8:
		n = int64(t)
	case int16:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case uint:
		if uint64(t) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int%d", ErrValue, t, width)
		}
		n = int64(t)
	case uint8:
		n = int64(t)
	case uint16:
		n = int64(t)
	case uint32:
		n = int64(t)
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int%d", ErrValue, t, width)
		}
		n = int64(t)
	default:
		return 0, fmt.Errorf("%w: cannot pack %T into an int%d slot", ErrValue, v, width)
	}
	if width < 64 {
		limit := int64(1) << (width - 1)
		if n < -limit || n >= limit {
			return 0, fmt.Errorf("%w: %d out of range for int%d", ErrValue, n, width)
		}
	}
	return n, nil
}

func uintValue(v any, width int) (uint64, error) {
	var u uint64
	switch t := v.(type) {
	case int:
		if t < 0 {
			return 0, fmt.Errorf("%w: %d is negative for uint%d", ErrValue, t, width)
		}
		u = uint64(t)
	case int8:
		if t < 0 {
			return 0, fmt.Errorf("%w: %d is negative for uint%d", ErrValue, t, width)
		}
		u = uint64(t)
	case int16:
		if t < 0 {
			return 0, fmt.Errorf("%w: %d is negative for uint%d", ErrValue, t, width)
		}
		u = uint64(t)
	case int32:
		if t < 0 {
			return 0, fmt.Errorf("%w: %d is negative for uint%d", ErrValue, t, width)
		}
		u = uint64(t)
	case int64:
		if t < 0 {
			return 0, fmt.Errorf("%w: %d is negative for uint%d", ErrValue, t, width)
		}
		u = uint64(t)
	case uint:
		u = uint64(t)
	case uint8:
		u = uint64(t)
	case uint16:
		u = uint64(t)
	case uint32:
		u = uint64(t)
	case uint64:
		u = t
	default:
		return 0, fmt.Errorf("%w: cannot pack %T into a uint%d slot", ErrValue, v, width)
	}
	if width < 64 && u >= uint64(1)<<width {
		return 0, fmt.Errorf("%w: %d out of range for uint%d", ErrValue, u, width)
	}
	return u, nil
}

func floatValue(v any) (float64, error) {
	switch t := v.(type) {
	case float32:
		return float64(t), nil
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	}
	return 0, fmt.Errorf("%w: cannot pack %T into a float slot", ErrValue, v)
}

func charValue(v any) (byte, error) {
	switch t := v.(type) {
	case byte:
		return t, nil
	case []byte:
		if len(t) == 1 {
			return t[0], nil
		}
	case string:
		if len(t) == 1 {
			return t[0], nil
		}
	}
	return 0, fmt.Errorf("%w: cannot pack %T as a single char", ErrValue, v)
}

func byteValue(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	}
	return nil, fmt.Errorf("%w: cannot pack %T as a byte string", ErrValue, v)
}
