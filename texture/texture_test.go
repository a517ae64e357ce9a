package texture

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"testing"
)

func buildSCT2(width, height, pixelFormat int, flags byte, payload []byte) []byte {
	buf := make([]byte, 34+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], sct2Signature)
	binary.LittleEndian.PutUint32(buf[12:16], 34)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(pixelFormat))
	binary.LittleEndian.PutUint16(buf[24:26], uint16(width))
	binary.LittleEndian.PutUint16(buf[26:28], uint16(height))
	buf[32] = flags
	copy(buf[34:], payload)
	return buf
}

func TestDetectSCT2Signature(t *testing.T) {
	raw := buildSCT2(2, 2, 6, 0x10, make([]byte, 2*2*3))
	k, ok := detect(raw)
	if !ok || k != kindSCT2 {
		t.Fatalf("detect = %v,%v want kindSCT2", k, ok)
	}
}

func TestDecodeRawRGBSCT2(t *testing.T) {
	width, height := 2, 2
	payload := []byte{
		255, 0, 0,
		0, 255, 0,
		0, 0, 255,
		255, 255, 255,
	}
	raw := buildSCT2(width, height, 6, 0x10, payload)

	out, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != width || img.Bounds().Dy() != height {
		t.Fatalf("decoded image dims = %v, want %dx%d", img.Bounds(), width, height)
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 || a>>8 != 255 {
		t.Fatalf("pixel(0,0) = %d,%d,%d,%d, want 255,0,0,255", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestDecodeL8(t *testing.T) {
	width, height := 2, 1
	raw := buildSCT2(width, height, 102, 0x10, []byte{10, 200})
	out, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	r, _, _, _ := img.At(1, 0).RGBA()
	if r>>8 != 200 {
		t.Fatalf("pixel(1,0).r = %d, want 200", r>>8)
	}
}

func TestDecodeRGB565(t *testing.T) {
	width, height := 1, 1
	var pixel uint16 = 0x1F<<11 | 0x3F<<5 | 0x00 // full 5-bit red, full 6-bit green, no blue
	payload := make([]byte, 2)
	binary.LittleEndian.PutUint16(payload, pixel)
	raw := buildSCT2(width, height, 4, 0x10, payload)

	out, err := Decode(raw)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 0 {
		t.Fatalf("pixel = %d,%d,%d, want 255,255,0", r>>8, g>>8, b>>8)
	}
}

func TestDecodeUnrecognizedContainerFails(t *testing.T) {
	_, err := Decode([]byte("not a texture"))
	if err != ErrUnsupportedFormat {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDecodeRejectsOversizedDimensions(t *testing.T) {
	raw := buildSCT2(0xFFFF, 1, 6, 0x10, nil)
	_, err := Decode(raw)
	if err != ErrDimensions {
		t.Fatalf("err = %v, want ErrDimensions", err)
	}
}

func TestDecodeASTCVoidExtent(t *testing.T) {
	var block [16]byte
	binary.LittleEndian.PutUint16(block[0:2], astcVoidExtentPattern)
	block[8], block[9] = 0, 0xFF   // R high byte 0xFF
	block[10], block[11] = 0, 0x80 // G
	block[12], block[13] = 0, 0x40 // B
	block[14], block[15] = 0, 0xFF // A

	px := decodeASTCBlock(block)
	if px[0] != 0xFF || px[1] != 0x80 || px[2] != 0x40 || px[3] != 0xFF {
		t.Fatalf("void-extent pixel = %v", px)
	}
}

func TestDecodeASTCUnknownModeFallsBackToGray(t *testing.T) {
	var block [16]byte
	block[0] = 0x01 // not the void-extent pattern
	px := decodeASTCBlock(block)
	if px != [4]byte{128, 128, 128, 255} {
		t.Fatalf("fallback pixel = %v, want mid-gray", px)
	}
}

func TestDecodeETC2RGBA8Dimensions(t *testing.T) {
	// One 4x4 block: 8 bytes alpha (base=255, table=0, mult=0 -> flat 255)
	// + 8 bytes ETC1 individual-mode color block (flat color, zero mod).
	block := make([]byte, 16)
	block[0] = 255 // alpha base
	block[1] = 0x00
	// indices all zero already (zero-value bytes)
	// color block: individual mode (diff bit = 0), base colors mid-gray
	block[8] = 0x88 // R1=8,R2=8
	block[9] = 0x88
	block[10] = 0x88
	block[11] = 0x00 // flip=0 diff=0, table1=0 table2=0

	out, err := decodeETC2RGBA8(block, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 4*4*4 {
		t.Fatalf("len(out) = %d, want %d", len(out), 4*4*4)
	}
	if out[3] != 255 {
		t.Fatalf("alpha = %d, want 255", out[3])
	}
}
