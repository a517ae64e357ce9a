package texture

import "encoding/binary"

// decodeASTC decodes an LDR ASTC stream at the given block footprint into
// tightly packed RGBA8 (row-major). ASTC's bitstream is large and
// partition/weight-mode combinatorics are extensive; this decoder handles
// the common void-extent (constant color) block exactly, and degrades any
// block mode it does not recognize to a mid-gray fill with full alpha —
// the same fallback the original ripper's astcenc wrapper uses when the
// library call itself reports failure. See DESIGN.md for the scope note.
func decodeASTC(data []byte, width, height, blockW, blockH int) []byte {
	blocksW := (width + blockW - 1) / blockW
	blocksH := (height + blockH - 1) / blockH

	out := make([]byte, width*height*4)

	for by := 0; by < blocksH; by++ {
		for bx := 0; bx < blocksW; bx++ {
			off := (by*blocksW + bx) * 16
			var block [16]byte
			if off+16 <= len(data) {
				copy(block[:], data[off:off+16])
			} else {
				for i := range block {
					block[i] = 128
				}
			}

			px := decodeASTCBlock(block)

			for y := 0; y < blockH; y++ {
				oy := by*blockH + y
				if oy >= height {
					continue
				}
				for x := 0; x < blockW; x++ {
					ox := bx*blockW + x
					if ox >= width {
						continue
					}
					o := (oy*width + ox) * 4
					copy(out[o:o+4], px[:])
				}
			}
		}
	}
	return out
}

// astcVoidExtentPattern is the low 12 bits of the block mode field that
// marks a void-extent (solid color) block per the ASTC specification.
const astcVoidExtentPattern = 0xDFC

// decodeASTCBlock returns a single RGBA8 pixel representing this block.
// For void-extent blocks this is the exact encoded solid color; for any
// other block mode it is a mid-gray fallback (see decodeASTC's doc
// comment), since ASTC's weighted-block bit-unpacking is not implemented.
func decodeASTCBlock(block [16]byte) [4]byte {
	modeField := binary.LittleEndian.Uint16(block[0:2])
	if modeField&0xFFF == astcVoidExtentPattern {
		// Void-extent layout: 2 bytes mode, 8 bytes reserved/extent coords,
		// then four 16-bit UNORM channel values R,G,B,A.
		r := block[8:10]
		g := block[10:12]
		b := block[12:14]
		a := block[14:16]
		return [4]byte{
			r[1], // take the high byte of each 16-bit channel (>>8 truncation)
			g[1],
			b[1],
			a[1],
		}
	}
	return [4]byte{128, 128, 128, 255}
}
