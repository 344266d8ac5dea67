package stdpack

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/unkn0wn-root/netpack/scalar"
)

func mustLayout(t *testing.T, s string) scalar.Layout {
	t.Helper()
	l, err := Codec{}.Compile(s)
	if err != nil {
		t.Fatalf("Compile(%q): %v", s, err)
	}
	return l
}

func TestSizesAndCounts(t *testing.T) {
	cases := []struct {
		layout string
		size   int
		count  int
	}{
		{"!ih", 6, 2},
		{"!4b", 4, 4},
		{"<2h3B", 7, 5},
		{">qQd", 24, 3},
		{"!10x", 10, 0},
		{"!5s", 5, 1},
		{"!6p", 6, 1},
		{"=bh", 3, 2},
		{"!c?fd", 14, 4},
		{"!", 0, 0},
		{"! b  h ", 3, 2}, // whitespace between codes is fine
		{"!0h", 0, 0},
		{"!0s", 0, 1},
	}
	for _, tc := range cases {
		l := mustLayout(t, tc.layout)
		if l.Size() != tc.size || l.Count() != tc.count {
			t.Fatalf("%q: size=%d count=%d, want %d/%d",
				tc.layout, l.Size(), l.Count(), tc.size, tc.count)
		}
	}
}

func TestBadLayouts(t *testing.T) {
	cases := []string{
		"!z",   // unknown code
		"!i z", // unknown code later
		"!3",   // trailing count
		"!3 h", // count split from code
		"!P",   // pointer-sized only in native order
		"<P",
		"=P",
	}
	for _, c := range cases {
		if _, err := (Codec{}).Compile(c); !errors.Is(err, ErrLayout) {
			t.Fatalf("Compile(%q): want ErrLayout, got %v", c, err)
		}
	}
}

func TestNativeMode(t *testing.T) {
	if l := mustLayout(t, "@bh"); l.Size() != 4 {
		t.Fatalf("@bh size %d, want 4 (h aligned to 2)", l.Size())
	}
	if l := mustLayout(t, "@bq"); l.Size() != 16 {
		t.Fatalf("@bq size %d, want 16 (q aligned to 8)", l.Size())
	}
	if l := mustLayout(t, "@l"); l.Size() != ptrSize {
		t.Fatalf("@l size %d, want %d", l.Size(), ptrSize)
	}
	if l := mustLayout(t, "@P"); l.Size() != ptrSize {
		t.Fatalf("@P size %d, want %d", l.Size(), ptrSize)
	}
}

func TestRoundTripScalars(t *testing.T) {
	cases := []struct {
		layout string
		values []any
	}{
		{"!bB?", []any{int8(-1), uint8(255), true}},
		{"!hH", []any{int16(-2), uint16(65535)}},
		{"!iI", []any{int32(-100000), uint32(1 << 31)}},
		{"!lL", []any{int32(-5), uint32(5)}},
		{"!qQ", []any{int64(-1) << 40, uint64(1) << 60}},
		{"!fd", []any{float32(1.5), float64(-2.25)}},
		{"<hH", []any{int16(258), uint16(770)}},
		{"!2c", []any{byte('G'), byte('o')}},
	}
	for _, tc := range cases {
		t.Run(tc.layout, func(t *testing.T) {
			l := mustLayout(t, tc.layout)
			packed, err := l.Pack(tc.values)
			if err != nil {
				t.Fatalf("Pack: %v", err)
			}
			if len(packed) != l.Size() {
				t.Fatalf("packed %d bytes, layout size %d", len(packed), l.Size())
			}
			got, err := l.Unpack(packed)
			if err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			if !reflect.DeepEqual(got, tc.values) {
				t.Fatalf("round trip %v want %v", got, tc.values)
			}
		})
	}
}

func TestByteOrderWire(t *testing.T) {
	big, err := mustLayout(t, "!h").Pack([]any{258})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(big, []byte{0x01, 0x02}) {
		t.Fatalf("!h: % x", big)
	}

	little, err := mustLayout(t, "<h").Pack([]any{258})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(little, []byte{0x02, 0x01}) {
		t.Fatalf("<h: % x", little)
	}

	native, err := mustLayout(t, "=h").Pack([]any{258})
	if err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 2)
	binary.NativeEndian.PutUint16(want, 258)
	if !bytes.Equal(native, want) {
		t.Fatalf("=h: % x want % x", native, want)
	}
}

func TestFixedString(t *testing.T) {
	l := mustLayout(t, "!5s")

	// shorter values are zero padded
	packed, err := l.Pack([]any{[]byte("ab")})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(packed, []byte{'a', 'b', 0, 0, 0}) {
		t.Fatalf("padded: % x", packed)
	}

	// longer values are truncated
	packed, err = l.Pack([]any{"abcdefgh"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(packed, []byte("abcde")) {
		t.Fatalf("truncated: % x", packed)
	}

	got, err := l.Unpack(packed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[0].([]byte), []byte("abcde")) {
		t.Fatalf("unpacked %q", got[0])
	}
}

func TestPascalString(t *testing.T) {
	l := mustLayout(t, "!6p")

	packed, err := l.Pack([]any{"hello"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(packed, []byte{5, 'h', 'e', 'l', 'l', 'o'}) {
		t.Fatalf("packed: % x", packed)
	}

	got, err := l.Unpack(packed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[0].([]byte), []byte("hello")) {
		t.Fatalf("unpacked %q", got[0])
	}

	// content longer than the field is clipped to n-1 bytes
	packed, err = l.Pack([]any{"overflowing"})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(packed, []byte{5, 'o', 'v', 'e', 'r', 'f'}) {
		t.Fatalf("clipped: % x", packed)
	}

	// a lying length byte cannot reach past the field
	got, err = l.Unpack([]byte{250, 'a', 'b', 'c', 'd', 'e'})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[0].([]byte), []byte("abcde")) {
		t.Fatalf("unpacked %q", got[0])
	}
}

func TestPadBytes(t *testing.T) {
	l := mustLayout(t, "!xbx")
	packed, err := l.Pack([]any{int8(7)})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(packed, []byte{0, 7, 0}) {
		t.Fatalf("packed: % x", packed)
	}
	got, err := l.Unpack(packed)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []any{int8(7)}) {
		t.Fatalf("unpacked %v", got)
	}
}

func TestValueErrors(t *testing.T) {
	cases := []struct {
		layout string
		values []any
	}{
		{"!b", []any{128}},
		{"!b", []any{-129}},
		{"!B", []any{-1}},
		{"!B", []any{256}},
		{"!H", []any{1 << 16}},
		{"!b", []any{"x"}},
		{"!?", []any{1}},
		{"!c", []any{"ab"}},
		{"!f", []any{"nope"}},
		{"!5s", []any{42}},
		{"!h", []any{}},          // too few
		{"!h", []any{1, 2}},      // too many
		{"!Q", []any{int64(-1)}}, // negative into unsigned
	}
	for _, tc := range cases {
		l := mustLayout(t, tc.layout)
		if _, err := l.Pack(tc.values); !errors.Is(err, ErrValue) {
			t.Fatalf("%q Pack(%v): want ErrValue, got %v", tc.layout, tc.values, err)
		}
	}
}

func TestUnpackShort(t *testing.T) {
	l := mustLayout(t, "!ih")
	if _, err := l.Unpack(make([]byte, 5)); err == nil {
		t.Fatalf("expected error on short buffer")
	}
	// surplus is fine; the layout reads its own size only
	got, err := l.Unpack(make([]byte, 10))
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !reflect.DeepEqual(got, []any{int32(0), int16(0)}) {
		t.Fatalf("unpacked %v", got)
	}
}

func TestIntegerKindCoercion(t *testing.T) {
	l := mustLayout(t, "!q")
	for _, v := range []any{int(5), int8(5), int16(5), int32(5), int64(5), uint(5), uint8(5), uint16(5), uint32(5), uint64(5)} {
		packed, err := l.Pack([]any{v})
		if err != nil {
			t.Fatalf("Pack(%T): %v", v, err)
		}
		got, err := l.Unpack(packed)
		if err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		if got[0] != int64(5) {
			t.Fatalf("Pack(%T) round-tripped to %v", v, got[0])
		}
	}
}
