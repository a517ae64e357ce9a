package lz4block

import "testing"

func TestDecodeSimpleMatch(t *testing.T) {
	// token 0x40: literal length 4, match-length nibble 0.
	// literals "ABCD", then 16-bit offset 4, low nibble 0 -> match length 4.
	// dest becomes "ABCDABCD".
	src := []byte{0x40, 'A', 'B', 'C', 'D', 0x04, 0x00}
	dst, err := Decode(src, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(dst) != "ABCDABCD" {
		t.Fatalf("got %q", dst)
	}
}

func TestDecodeLiteralsOnly(t *testing.T) {
	// token 0x50: literal length 5, no match follows because source is exhausted.
	src := []byte{0x50, 'h', 'e', 'l', 'l', 'o'}
	dst, err := Decode(src, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(dst) != "hello" {
		t.Fatalf("got %q", dst)
	}
}

func TestDecodeExtendedLengths(t *testing.T) {
	// literal length nibble 15 + extension bytes: 15 + 10 = 25 literal bytes.
	lit := make([]byte, 25)
	for i := range lit {
		lit[i] = byte('a' + i%26)
	}
	src := append([]byte{0xF0, 10}, lit...)
	dst, err := Decode(src, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(dst) != string(lit) {
		t.Fatalf("got %q want %q", dst, lit)
	}
}

func TestDecodeOverlappingMatch(t *testing.T) {
	// literal "A", then match of offset 1 length (0+4)=4 -> repeats 'A' x4.
	src := []byte{0x10, 'A', 0x01, 0x00}
	dst, err := Decode(src, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(dst) != "AAAAA" {
		t.Fatalf("got %q", dst)
	}
}

func TestDecodeTruncatedReturnsPartial(t *testing.T) {
	src := []byte{0x50, 'h', 'e'} // claims 5 literals but only 2 are present
	dst, err := Decode(src, 5)
	if err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if string(dst) != "he" {
		t.Fatalf("got %q", dst)
	}
}

func TestDecodeBadOffsetTerminates(t *testing.T) {
	// match offset larger than what's been produced so far.
	src := []byte{0x10, 'A', 0xFF, 0xFF}
	dst, err := Decode(src, 5)
	if err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if string(dst) != "A" {
		t.Fatalf("got %q", dst)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	block := []byte{0x40, 'A', 'B', 'C', 'D', 0x04, 0x00}
	env := make([]byte, 8+len(block))
	env[0] = 8 // decompressed size = 8
	env[4] = byte(len(block))
	copy(env[8:], block)

	out, err := DecodeEnvelope(env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "ABCDABCD" {
		t.Fatalf("got %q", out)
	}
}
