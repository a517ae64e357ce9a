package xorstream

import "testing"

func TestFirstKeyBytes(t *testing.T) {
	k := Key()
	want := []byte{0x67, 0x75, 0x4E, 0xBC}
	for i, w := range want {
		if k[i] != w {
			t.Fatalf("key[%d] = %#x, want %#x", i, k[i], w)
		}
	}
}

func TestFirst16KeyBytes(t *testing.T) {
	k := Key()
	want := []byte{
		0x67, 0x75, 0x4E, 0xBC, 0x89, 0xF5, 0x66, 0xDD,
		0x34, 0x6E, 0x12, 0xA3, 0xC4, 0x77, 0x25, 0x57,
	}
	for i, w := range want {
		if k[i] != w {
			t.Fatalf("key[%d] = %#x, want %#x", i, k[i], w)
		}
	}
}

func TestApplyInvolution(t *testing.T) {
	orig := []byte("the quick brown fox jumps over 129+ bytes of text to wrap the keystream period at least once, twice even")
	buf := append([]byte(nil), orig...)

	Apply(buf, 12345)
	if string(buf) == string(orig) {
		t.Fatal("Apply should have changed the buffer")
	}
	Apply(buf, 12345)
	if string(buf) != string(orig) {
		t.Fatal("applying twice at the same offset should be identity")
	}
}

func TestByteAtMatchesApply(t *testing.T) {
	buf := []byte{0xAA}
	Apply(buf, 500)
	if got := ByteAt(0xAA, 500); got != buf[0] {
		t.Fatalf("ByteAt = %#x, want %#x", got, buf[0])
	}
}
