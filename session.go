package netpack

import (
	"fmt"
	"math"
)

// Outcome is the tagged result of a Feed call. Exactly one of the two arms
// holds: Need > 0 when the decoder is suspended waiting for input, or Done
// with the decoded values and any surplus bytes past the record boundary.
type Outcome struct {
	// Need is the minimum number of additional bytes required before any
	// further progress can be made. Zero when Done.
	Need int

	// Done reports that the record is fully decoded.
	Done bool

	// Values is the decoded value sequence, in format order. Set only
	// when Done.
	Values []any

	// Leftover holds bytes fed beyond the record's end, unconsumed, so
	// back-to-back records arriving in one read can be pipelined into
	// the next session.
	Leftover []byte
}

// Session is one incremental decode in progress: a cursor over accumulated
// bytes, the current segment, and the partially built result. Drive it from
// a single caller; independent sessions over the same Format are fully
// independent.
type Session struct {
	f      *Format
	buf    []byte
	seg    int
	inStr  bool
	strLen int
	vals   []any
	done   bool
	spent  bool
	failed error
}

// Begin starts an incremental decode of one record.
func (f *Format) Begin() *Session {
	return &Session{f: f}
}

// Feed appends chunk to the session's buffer and advances the decode as far
// as the buffered bytes allow. A zero-length chunk is valid and simply
// re-reports the current need. After the Done outcome, one further Feed
// returns the (possibly grown) leftover; beyond that the session is spent.
func (s *Session) Feed(chunk []byte) (Outcome, error) {
	if s.failed != nil {
		return Outcome{}, s.failed
	}
	if s.spent {
		return Outcome{}, ErrSessionSpent
	}

	s.buf = append(s.buf, chunk...)

	if s.done {
		s.spent = true
		return Outcome{Done: true, Values: s.vals, Leftover: s.buf}, nil
	}

	for s.seg < len(s.f.segments) {
		seg := s.f.segments[s.seg]

		if !s.inStr {
			need := seg.layout.Size()
			if len(s.buf) < need {
				return Outcome{Need: need - len(s.buf)}, nil
			}
			vals, err := seg.layout.Unpack(s.buf[:need])
			if err != nil {
				return Outcome{}, s.fail(err)
			}
			s.vals = append(s.vals, vals...)
			s.buf = s.buf[need:]

			if !seg.str {
				s.seg++
				continue
			}
			// the scalar just decoded is the string's byte length
			n, err := lengthValue(s.vals[len(s.vals)-1])
			if err != nil {
				return Outcome{}, s.fail(err)
			}
			s.vals = s.vals[:len(s.vals)-1]
			s.inStr, s.strLen = true, n
		}

		if len(s.buf) < s.strLen {
			return Outcome{Need: s.strLen - len(s.buf)}, nil
		}
		str := make([]byte, s.strLen)
		copy(str, s.buf)
		s.vals = append(s.vals, str)
		s.buf = s.buf[s.strLen:]
		s.inStr = false
		s.seg++
	}

	s.done = true
	return Outcome{Done: true, Values: s.vals, Leftover: s.buf}, nil
}

// fail poisons the session; every later Feed returns the same error.
func (s *Session) fail(err error) error {
	s.failed = err
	return err
}

// Unpack decodes a complete record from data in one call. It fails with
// ErrSize when data is shorter than the format requires; bytes beyond what
// the format consumes are ignored.
func (f *Format) Unpack(data []byte) ([]any, error) {
	out, err := f.Begin().Feed(data)
	if err != nil {
		return nil, err
	}
	if !out.Done {
		return nil, fmt.Errorf("%w: unpacking %q needs at least %d more bytes",
			ErrSize, f.format, out.Need)
	}
	return out.Values, nil
}

func lengthValue(v any) (int, error) {
	var n int64
	switch t := v.(type) {
	case int8:
		n = int64(t)
	case uint8:
		n = int64(t)
	case int16:
		n = int64(t)
	case uint16:
		n = int64(t)
	case int32:
		n = int64(t)
	case uint32:
		n = int64(t)
	case int64:
		n = t
	case uint64:
		if t > math.MaxInt64 {
			return 0, fmt.Errorf("%w: string length %d too large", ErrSize, t)
		}
		n = int64(t)
	default:
		return 0, fmt.Errorf("%w: string length has non-integer type %T", ErrFormat, v)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative string length %d", ErrSize, n)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: string length %d too large", ErrSize, n)
	}
	return int(n), nil
}
