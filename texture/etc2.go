package texture

import "encoding/binary"

// decodeETC2RGBA8 decodes a GL_COMPRESSED_RGBA8_ETC2_EAC stream: each 16
// byte block is an 8-byte EAC alpha block followed by an 8-byte ETC2 RGB
// block, both covering the same 4x4 texel footprint. Output is tightly
// packed RGBA8, row-major, width*height*4 bytes.
func decodeETC2RGBA8(data []byte, width, height int) ([]byte, error) {
	blocksW := (width + 3) / 4
	blocksH := (height + 3) / 4

	out := make([]byte, width*height*4)

	for by := 0; by < blocksH; by++ {
		for bx := 0; bx < blocksW; bx++ {
			blockIdx := by*blocksW + bx
			off := blockIdx * 16
			if off+16 > len(data) {
				continue
			}
			block := data[off : off+16]

			alpha := decodeEACAlphaBlock(block[0:8])
			rgb := decodeETC2RGBBlock(block[8:16])

			for py := 0; py < 4; py++ {
				y := by*4 + py
				if y >= height {
					continue
				}
				for px := 0; px < 4; px++ {
					x := bx*4 + px
					if x >= width {
						continue
					}
					// ETC pixel index is column-major within the block.
					p := px*4 + py
					o := (y*width + x) * 4
					out[o+0] = rgb[p*3+0]
					out[o+1] = rgb[p*3+1]
					out[o+2] = rgb[p*3+2]
					out[o+3] = alpha[p]
				}
			}
		}
	}
	return out, nil
}

var eacModifiers = [16][8]int8{
	{-3, -6, -9, -15, 2, 5, 8, 14},
	{-3, -7, -10, -13, 2, 6, 9, 12},
	{-2, -5, -8, -13, 1, 4, 7, 12},
	{-2, -4, -6, -13, 1, 3, 5, 12},
	{-3, -6, -8, -12, 2, 5, 7, 11},
	{-3, -7, -9, -11, 2, 6, 8, 10},
	{-4, -7, -8, -11, 3, 6, 7, 10},
	{-3, -5, -8, -11, 2, 4, 7, 10},
	{-2, -6, -8, -10, 1, 5, 7, 9},
	{-2, -5, -8, -10, 1, 4, 7, 9},
	{-2, -4, -8, -10, 1, 3, 7, 9},
	{-2, -5, -7, -10, 1, 4, 6, 9},
	{-3, -4, -7, -10, 2, 3, 6, 9},
	{-1, -2, -3, -10, 0, 1, 2, 9},
	{-4, -6, -8, -9, 3, 5, 7, 8},
	{-3, -5, -7, -9, 2, 4, 6, 8},
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// decodeEACAlphaBlock returns 16 alpha values in column-major pixel order.
func decodeEACAlphaBlock(block []byte) [16]byte {
	base := int(block[0])
	table := (block[1] >> 4) & 0x0F
	multiplier := int(block[1] & 0x0F)

	// 48 bits of 3-bit indices, MSB first, spanning block[2:8].
	var bits uint64
	for _, b := range block[2:8] {
		bits = (bits << 8) | uint64(b)
	}

	var out [16]byte
	for p := 0; p < 16; p++ {
		shift := uint(45 - p*3)
		idx := int((bits >> shift) & 0x7)
		mod := int(eacModifiers[table][idx])
		out[p] = clampByte(base + mod*multiplier)
	}
	return out
}

// decodeETC2RGBBlock returns 16 RGB triples (48 bytes) in column-major
// pixel order, covering ETC1-compatible individual/differential modes plus
// the ETC2 T, H and planar extension modes.
func decodeETC2RGBBlock(block []byte) [48]byte {
	diffBit := block[3]&0x02 != 0
	flipBit := block[3]&0x01 != 0

	r1b := (block[0] >> 4) & 0xF
	r1a := block[0] & 0xF
	g1b := (block[1] >> 4) & 0xF
	g1a := block[1] & 0xF
	b1b := (block[2] >> 4) & 0xF
	b1a := block[2] & 0xF

	var out [48]byte

	if !diffBit {
		// Individual mode: two 4-bit colors, each replicated to 8 bits.
		r1 := replicate4(r1a)
		g1 := replicate4(g1a)
		b1 := replicate4(b1a)
		r2 := replicate4(r1b)
		g2 := replicate4(g1b)
		b2 := replicate4(b1b)
		table1 := (block[3] >> 5) & 0x7
		table2 := (block[3] >> 2) & 0x7
		decodeETC1Subblocks(&out, r1, g1, b1, r2, g2, b2, table1, table2, flipBit, block[4:8])
		return out
	}

	// Differential / ETC2 extension modes: base color is 5 bits, delta is
	// a signed 3-bit offset per channel.
	baseR := int(block[0]>>3) & 0x1F
	baseG := int(block[1]>>3) & 0x1F
	baseB := int(block[2]>>3) & 0x1F
	dR := signExtend3(int(block[0] & 0x7))
	dG := signExtend3(int(block[1] & 0x7))
	dB := signExtend3(int(block[2] & 0x7))

	r2 := baseR + dR
	g2 := baseG + dG
	b2 := baseB + dB

	switch {
	case r2 < 0 || r2 > 31:
		decodeETC2TMode(&out, block)
	case g2 < 0 || g2 > 31:
		decodeETC2HMode(&out, block)
	case b2 < 0 || b2 > 31:
		decodeETC2PlanarMode(&out, block)
	default:
		rr1 := replicate5(byte(baseR))
		gg1 := replicate5(byte(baseG))
		bb1 := replicate5(byte(baseB))
		rr2 := replicate5(byte(r2))
		gg2 := replicate5(byte(g2))
		bb2 := replicate5(byte(b2))
		table1 := (block[3] >> 5) & 0x7
		table2 := (block[3] >> 2) & 0x7
		decodeETC1Subblocks(&out, rr1, gg1, bb1, rr2, gg2, bb2, table1, table2, flipBit, block[4:8])
	}
	return out
}

func signExtend3(v int) int {
	if v&0x4 != 0 {
		return v - 8
	}
	return v
}

func replicate4(v byte) byte { return v<<4 | v }
func replicate5(v byte) byte { return v<<3 | v>>2 }
func replicate6(v byte) byte { return v<<2 | v>>4 }

// etc2Distances is the shared 8-entry distance table used by both the T and
// H extension modes to turn a base color into a 4-color paint palette.
var etc2Distances = [8]int{3, 6, 11, 16, 23, 32, 41, 64}

// etc2PixelIndices unpacks the standard 32-bit big-endian index plane (MSB
// plane in the high 16 bits, LSB plane in the low 16 bits) into a per-pixel
// 2-bit selector, column-major, matching decodeETC1Subblocks's convention.
func etc2PixelIndices(idx []byte) [16]int {
	packed := binary.BigEndian.Uint32(idx)
	msb := uint16(packed >> 16)
	lsb := uint16(packed)

	var out [16]int
	for p := 0; p < 16; p++ {
		bit := uint(15 - p)
		hi := (msb >> bit) & 1
		lo := (lsb >> bit) & 1
		out[p] = int(hi<<1 | lo)
	}
	return out
}

func paintFill(out *[48]byte, paint [4][3]int, idx []byte) {
	indices := etc2PixelIndices(idx)
	for p := 0; p < 16; p++ {
		c := paint[indices[p]]
		out[p*3+0] = clampByte(c[0])
		out[p*3+1] = clampByte(c[1])
		out[p*3+2] = clampByte(c[2])
	}
}

var etc1Table = [8][4]int{
	{2, 8, -2, -8},
	{5, 17, -5, -17},
	{9, 29, -9, -29},
	{13, 42, -13, -42},
	{18, 60, -18, -60},
	{24, 80, -24, -80},
	{33, 106, -33, -106},
	{47, 183, -47, -183},
}

// decodeETC1Subblocks fills out with two 2x4 (or 4x2, per flip) subblocks,
// each colored from its base color modulated by the per-pixel 2-bit index
// (MSB plane at block[0:2], LSB plane at block[2:4] of the 4-byte index
// region, big-endian, column-major pixel order).
func decodeETC1Subblocks(out *[48]byte, r1, g1, b1, r2, g2, b2 byte, table1, table2 byte, flip bool, idx []byte) {
	packed := binary.BigEndian.Uint32(idx)
	msb := uint16(packed >> 16)
	lsb := uint16(packed)

	for p := 0; p < 16; p++ {
		px := p / 4
		py := p % 4
		bit := uint(15 - p)
		hi := (msb >> bit) & 1
		lo := (lsb >> bit) & 1
		modIdx := hi<<1 | lo

		var subblock2 bool
		if flip {
			subblock2 = py >= 2
		} else {
			subblock2 = px >= 2
		}

		var r, g, b int
		var mod int
		if !subblock2 {
			r, g, b = int(r1), int(g1), int(b1)
			mod = etc1Table[table1][modIdx]
		} else {
			r, g, b = int(r2), int(g2), int(b2)
			mod = etc1Table[table2][modIdx]
		}
		out[p*3+0] = clampByte(r + mod)
		out[p*3+1] = clampByte(g + mod)
		out[p*3+2] = clampByte(b + mod)
	}
}

// decodeETC2TMode, decodeETC2HMode and decodeETC2PlanarMode cover the three
// ETC2-only extension modes, entered from decodeETC2RGBBlock when the
// differential base-color decode overflows on R, G or B respectively. T and
// H mode each build a 4-color paint palette from two base colors and a
// shared distance table, selected per pixel by the same index plane the
// ETC1-compatible modes use; planar mode replaces the index plane entirely
// with a gradient interpolated from three corner colors.
func decodeETC2TMode(out *[48]byte, block []byte) {
	r1 := replicate4((block[0]>>4)&0x3<<2 | block[0]&0x3)
	g1 := replicate4((block[1] >> 4) & 0xF)
	b1 := replicate4(block[1] & 0xF)
	r2 := replicate4((block[2] >> 4) & 0xF)
	g2 := replicate4(block[2] & 0xF)
	b2 := replicate4((block[3] >> 4) & 0xF)
	dist := etc2Distances[(block[3]>>1)&0x7]

	paint := [4][3]int{
		{int(r1), int(g1), int(b1)},
		{int(r2) + dist, int(g2) + dist, int(b2) + dist},
		{int(r2), int(g2), int(b2)},
		{int(r2) - dist, int(g2) - dist, int(b2) - dist},
	}
	paintFill(out, paint, block[4:8])
}

func decodeETC2HMode(out *[48]byte, block []byte) {
	r1 := replicate4((block[0] >> 4) & 0xF)
	g1 := replicate4(block[0] & 0xF)
	b1 := replicate4((block[1] >> 4) & 0xF)
	r2 := replicate4(block[1] & 0xF)
	g2 := replicate4((block[2] >> 4) & 0xF)
	b2 := replicate4(block[2] & 0xF)
	distBits := int((block[3] >> 6) & 0x3)

	col1 := int(r1)<<16 | int(g1)<<8 | int(b1)
	col2 := int(r2)<<16 | int(g2)<<8 | int(b2)
	distMSB := 0
	if col1 >= col2 {
		distMSB = 1
	}
	dist := etc2Distances[distMSB<<2|distBits]

	paint := [4][3]int{
		{int(r1) + dist, int(g1) + dist, int(b1) + dist},
		{int(r1) - dist, int(g1) - dist, int(b1) - dist},
		{int(r2) + dist, int(g2) + dist, int(b2) + dist},
		{int(r2) - dist, int(g2) - dist, int(b2) - dist},
	}
	paintFill(out, paint, block[4:8])
}

func decodeETC2PlanarMode(out *[48]byte, block []byte) {
	var packed uint64
	for _, b := range block[0:7] {
		packed = packed<<8 | uint64(b)
	}
	packed >>= 2 // low 2 of the 56 bits are unused padding

	field := func(shift uint) byte { return byte((packed >> shift) & 0x3F) }
	o := [3]int{
		int(replicate6(field(48))),
		int(replicate6(field(42))),
		int(replicate6(field(36))),
	}
	h := [3]int{
		int(replicate6(field(30))),
		int(replicate6(field(24))),
		int(replicate6(field(18))),
	}
	v := [3]int{
		int(replicate6(field(12))),
		int(replicate6(field(6))),
		int(replicate6(field(0))),
	}

	for px := 0; px < 4; px++ {
		for py := 0; py < 4; py++ {
			p := px*4 + py
			for c := 0; c < 3; c++ {
				val := o[c] + (px*(h[c]-o[c])+py*(v[c]-o[c]))/4
				out[p*3+c] = clampByte(val)
			}
		}
	}
}
