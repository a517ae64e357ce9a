package skeleton

import (
	"fmt"
	"strings"

	"github.com/packhound/scape/binreader"
	"github.com/packhound/scape/lz4block"
)

// ErrBadEnvelope covers a truncated 8-byte LZ4 envelope.
var ErrBadEnvelope = fmt.Errorf("skeleton: truncated lz4 envelope")

// ErrBadMagic means the decompressed body doesn't start with "scsp" at
// offset 0x08.
var ErrBadMagic = fmt.Errorf("skeleton: missing scsp magic")

const sectionsStart = 0x08 + 0x62

type header struct {
	version    uint32
	width      float32
	height     float32
	hash       string
	ver        string
	imagesPath string
	audioPath  string
}

// decompressEnvelope strips the 8-byte (decompressed_size, compressed_size)
// envelope and returns the raw LZ4-decoded body.
func decompressEnvelope(data []byte) ([]byte, error) {
	out, err := lz4block.DecodeEnvelope(data)
	if err != nil && len(out) == 0 {
		return nil, ErrBadEnvelope
	}
	return out, nil
}

// parseHeader reads the skeleton-level fields and builds the string table
// used to resolve every later relative string offset in the document.
func parseHeader(buf []byte) (header, stringTable, error) {
	r := binreader.New(buf)
	stringOffset, err := r.U32()
	if err != nil {
		return header{}, stringTable{}, ErrBadEnvelope
	}
	stringLength, err := r.U32()
	if err != nil {
		return header{}, stringTable{}, ErrBadEnvelope
	}

	magic, err := r.Peek(4)
	if err != nil || string(magic) != "scsp" {
		return header{}, stringTable{}, ErrBadMagic
	}
	r.Skip(4)

	st := stringTable{
		buf:  buf,
		base: int(stringOffset) + 8,
		end:  int(stringOffset) + 8 + int(stringLength),
	}

	hdrVersion, err := r.U32()
	if err != nil {
		return header{}, st, ErrBadEnvelope
	}

	if err := r.Seek(0x0E + 8); err != nil {
		return header{}, st, ErrBadEnvelope
	}
	width, err := r.F32()
	if err != nil {
		return header{}, st, ErrBadEnvelope
	}
	if err := r.Seek(0x12 + 8); err != nil {
		return header{}, st, ErrBadEnvelope
	}
	height, err := r.F32()
	if err != nil {
		return header{}, st, ErrBadEnvelope
	}

	// hash/version/images_path/audio_path are not consecutive fields; each
	// sits at its own scattered offset in the header (SCSPParser.cpp:333-336).
	if err := r.Seek(0x08 + 0x4A); err != nil {
		return header{}, st, ErrBadEnvelope
	}
	hashOff, err := r.U32()
	if err != nil {
		return header{}, st, ErrBadEnvelope
	}
	if err := r.Seek(0x08 + 0x4E); err != nil {
		return header{}, st, ErrBadEnvelope
	}
	verOff, err := r.U32()
	if err != nil {
		return header{}, st, ErrBadEnvelope
	}
	if err := r.Seek(0x08 + 0x5A); err != nil {
		return header{}, st, ErrBadEnvelope
	}
	imagesOff, err := r.U32()
	if err != nil {
		return header{}, st, ErrBadEnvelope
	}
	if err := r.Seek(0x08 + 0x5E); err != nil {
		return header{}, st, ErrBadEnvelope
	}
	audioOff, err := r.U32()
	if err != nil {
		return header{}, st, ErrBadEnvelope
	}

	// The original appends a literal ".scsp" to the version string on disk;
	// strip it back off before exposing it.
	ver := strings.TrimSuffix(st.resolve(verOff), ".scsp")

	return header{
		version:    hdrVersion,
		width:      width,
		height:     height,
		hash:       st.resolve(hashOff),
		ver:        ver,
		imagesPath: st.resolve(imagesOff),
		audioPath:  st.resolve(audioOff),
	}, st, nil
}
