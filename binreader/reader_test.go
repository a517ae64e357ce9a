package binreader

import "testing"

func TestPrimitiveReads(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	r := New(buf)

	u8, err := r.U8()
	if err != nil || u8 != 0x01 {
		t.Fatalf("U8: got %v, %v", u8, err)
	}

	u16, err := r.U16()
	if err != nil || u16 != 0x0302 {
		t.Fatalf("U16: got %#x, %v", u16, err)
	}

	u32, err := r.U32()
	if err != nil || u32 != 0x07060504 {
		t.Fatalf("U32: got %#x, %v", u32, err)
	}
}

func TestU40ByteOrder(t *testing.T) {
	// high byte 0x01, then four LE low bytes -> low=0x04030201, value = low + hi<<32
	buf := []byte{0x01, 0x01, 0x02, 0x03, 0x04}
	r := New(buf)
	v, err := r.U40()
	if err != nil {
		t.Fatal(err)
	}
	want := uint64(0x04030201) + (uint64(0x01) << 32)
	if v != want {
		t.Fatalf("U40 = %#x, want %#x", v, want)
	}
}

func TestOutOfBounds(t *testing.T) {
	r := New([]byte{0x01})
	if _, err := r.U32(); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestCStringStopsAtNulOrBound(t *testing.T) {
	buf := []byte{'h', 'i', 0, 'x', 'y'}
	r := New(buf)
	s, err := r.CString(5)
	if err != nil || s != "hi" {
		t.Fatalf("CString: got %q, %v", s, err)
	}
	if r.Pos() != 3 {
		t.Fatalf("expected cursor past terminator, got %d", r.Pos())
	}

	r2 := New(buf)
	s2, err := r2.CString(2) // bound before any NUL
	if err != nil || s2 != "hi" {
		t.Fatalf("CString bounded: got %q, %v", s2, err)
	}
	if r2.Pos() != 2 {
		t.Fatalf("expected cursor at bound, got %d", r2.Pos())
	}
}

func TestSeekSkipSized(t *testing.T) {
	buf := []byte{0, 1, 2, 3, 4, 5}
	r := New(buf)
	if err := r.Seek(4); err != nil {
		t.Fatal(err)
	}
	b, err := r.Sized(2)
	if err != nil || string(b) != string([]byte{4, 5}) {
		t.Fatalf("Sized: got %v, %v", b, err)
	}
	if err := r.Seek(7); err != ErrOutOfBounds {
		t.Fatalf("expected out of bounds seek, got %v", err)
	}
}
