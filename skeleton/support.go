package skeleton

import (
	"fmt"
	"math"
)

const absentOffset = 0xFFFFFFFF

// stringTable resolves relative string offsets against the decompressed
// buffer's embedded string table.
type stringTable struct {
	buf   []byte
	base  int // strings_base = header.stringOffset + 8
	end   int // strings_base + header.stringLength
}

func (s stringTable) resolve(rel uint32) string {
	if rel == absentOffset {
		return ""
	}
	start := s.base + int(rel)
	if start >= s.end || start < 0 {
		return ""
	}
	i := start
	for i < s.end && s.buf[i] != 0 {
		i++
	}
	return string(s.buf[start:i])
}

func roundFloat(v float64) float64 {
	r := math.Round(v)
	if math.Abs(v-r) < 1e-5 {
		return r
	}
	const mult = 1e6
	return math.Round(v*mult) / mult
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// bezierFromSpineBlock reconstructs cubic Bézier control points from a
// 19-float curve block's first seven samples (x0,y0,x1,y1,x2,y2), per the
// original's fixed-step (h=1/10) reconstruction.
func bezierFromSpineBlock(block []float32) (cx1, cy1, cx2, cy2 float64, ok bool) {
	if len(block) < 19 {
		return 0, 0, 0, 0, false
	}
	x0, y0 := float64(block[1]), float64(block[2])
	x1, y1 := float64(block[3]), float64(block[4])
	x2, y2 := float64(block[5]), float64(block[6])

	ddfx := x1 - 2*x0
	dddfx := x2 - 3*x1 + 3*x0
	ddfy := y1 - 2*y0
	dddfy := y2 - 3*y1 + 3*y0

	const h = 1.0 / 10.0
	A := 3 * h * h
	B := 6 * h * h * h

	Ux := (dddfx/B - 1) / 3
	Vx := (ddfx - dddfx) / (2 * A)
	cx1 = -Vx - Ux
	cx2 = -Vx - 2*Ux

	Uy := (dddfy/B - 1) / 3
	Vy := (ddfy - dddfy) / (2 * A)
	cy1 = -Vy - Uy
	cy2 = -Vy - 2*Uy

	return clamp01(cx1), clamp01(cy1), clamp01(cx2), clamp01(cy2), true
}

// maybeAddCurve inspects the i'th 19-float curve block (if present) and
// attaches "curve"/"c2"/"c3"/"c4" (Bézier) or "curve":"stepped" to frame.
func maybeAddCurve(i int, curves []float32, frame *OrderedMap) {
	start := i * 19
	end := start + 19
	if end > len(curves) {
		return
	}
	block := curves[start:end]
	switch {
	case block[0] == 1:
		frame.Set("curve", "stepped")
	case block[0] == 2:
		if cx1, cy1, cx2, cy2, ok := bezierFromSpineBlock(block); ok {
			frame.Set("curve", roundFloat(cx1))
			frame.Set("c2", roundFloat(cy1))
			frame.Set("c3", roundFloat(cx2))
			frame.Set("c4", roundFloat(cy2))
		}
	}
}

func clampChannel(v float32) int {
	c := float64(v)
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return int(math.Round(c * 255))
}

func rgbaToHex(r, g, b, a float32) string {
	return fmt.Sprintf("%02X%02X%02X%02X", clampChannel(r), clampChannel(g), clampChannel(b), clampChannel(a))
}

func rgbToHex(r, g, b float32) string {
	return fmt.Sprintf("%02X%02X%02X", clampChannel(r), clampChannel(g), clampChannel(b))
}
