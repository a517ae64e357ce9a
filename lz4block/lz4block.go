// Package lz4block decodes a single LZ4 block (no frame envelope, no
// checksums) given an explicit decompressed length. This is the format
// used inline by the texture and skeleton containers — not the LZ4 frame
// format, and not compatible with github.com/klauspost/compress (which
// implements S2/Zstd, not raw LZ4 blocks).
package lz4block

import (
	"encoding/binary"
	"errors"
)

// ErrTruncated indicates the source ended before decoding finished. Per
// the format's best-effort policy, Decode still returns whatever bytes it
// produced alongside this error; callers that need an authoritative result
// must compare len(dst) against the declared decompressed length.
var ErrTruncated = errors.New("lz4block: truncated or malformed block")

// Decode decompresses src (a raw LZ4 block) into a buffer of exactly
// decompressedLen bytes, best-effort. If the block is truncated or
// contains an out-of-range back-reference, decoding stops early: the
// returned slice holds everything produced so far (possibly shorter than
// decompressedLen) together with ErrTruncated.
func Decode(src []byte, decompressedLen int) ([]byte, error) {
	dst := make([]byte, 0, decompressedLen)
	si := 0

	for si < len(src) && len(dst) < decompressedLen {
		token := src[si]
		si++

		litLen := int(token >> 4)
		matchLen := int(token & 0x0F)

		if litLen == 15 {
			for {
				if si >= len(src) {
					return dst, ErrTruncated
				}
				extra := src[si]
				si++
				litLen += int(extra)
				if extra != 255 {
					break
				}
			}
		}

		if litLen > 0 {
			if si+litLen > len(src) {
				litLen = len(src) - si
			}
			if len(dst)+litLen > decompressedLen {
				litLen = decompressedLen - len(dst)
			}
			dst = append(dst, src[si:si+litLen]...)
			si += litLen
		}

		if si >= len(src) || len(dst) >= decompressedLen {
			break
		}
		if si+2 > len(src) {
			return dst, ErrTruncated
		}

		offset := int(binary.LittleEndian.Uint16(src[si:]))
		si += 2
		if offset <= 0 {
			return dst, ErrTruncated
		}

		if matchLen == 15 {
			for {
				if si >= len(src) {
					return dst, ErrTruncated
				}
				extra := src[si]
				si++
				matchLen += int(extra)
				if extra != 255 {
					break
				}
			}
		}
		matchLen += 4

		matchStart := len(dst) - offset
		if matchStart < 0 {
			return dst, ErrTruncated
		}

		// Self-overlapping copy: must proceed byte by byte, not via
		// copy(), since a source byte may be written by this very loop.
		for i := 0; i < matchLen && len(dst) < decompressedLen && matchStart+i < len(dst); i++ {
			dst = append(dst, dst[matchStart+i])
		}
	}

	if len(dst) < decompressedLen {
		return dst, ErrTruncated
	}
	return dst, nil
}

// DecodeEnvelope decodes an LZ4 payload prefixed by an 8-byte little-endian
// header: u32 decompressedSize, u32 compressedSize. This is the envelope
// used by the texture container's inline compression and by the skeleton
// container's top-level wrapper. The compressedSize field bounds how much
// of src (past the 8-byte header) is treated as the LZ4 block; src may
// contain trailing bytes beyond it.
func DecodeEnvelope(src []byte) ([]byte, error) {
	if len(src) < 8 {
		return nil, ErrTruncated
	}
	decompressedSize := int(int32(binary.LittleEndian.Uint32(src[0:4])))
	compressedSize := int(int32(binary.LittleEndian.Uint32(src[4:8])))
	if decompressedSize < 0 || compressedSize < 0 {
		return nil, ErrTruncated
	}
	end := 8 + compressedSize
	if end > len(src) {
		end = len(src)
	}
	return Decode(src[8:end], decompressedSize)
}
