package skeleton

import (
	"fmt"
	"math"

	"github.com/packhound/scape/binreader"
)

const (
	tlRotate       = 0
	tlTranslate    = 1
	tlScale        = 2
	tlShear        = 3
	tlAttachment   = 4
	tlColor        = 5
	tlDeform       = 6
	tlEvents       = 7
	tlDrawOrder    = 8
	tlIK           = 9
	tlTransform    = 10
	tlPathPosition = 11
	tlPathSpacing  = 12
	tlPathMix      = 13
	tlTwoColor     = 14
)

type animContext struct {
	boneNames      map[int16]string
	slotNames      map[int16]string
	skinNames      map[int]string
	ikNames        map[int16]string
	transformNames map[int16]string
	pathNames      map[int]string
	attachmentMeta map[attachmentMetaKey]attachmentMeta
	hdrVersion     uint32
}

// parseAnimations reads the animations section into the final ordered
// name->definition map.
func parseAnimations(r *binreader.Reader, st stringTable, ctx animContext) (*OrderedMap, error) {
	count, err := r.U16()
	if err != nil {
		return nil, err
	}

	animations := NewOrderedMap()

	for ai := uint16(0); ai < count; ai++ {
		nameOff, err := r.U32()
		if err != nil {
			return nil, err
		}
		duration, err := r.F32()
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("anim%d", ai)
		if n := st.resolve(nameOff); n != "" {
			name = n
		}

		bones := NewOrderedMap()
		slots := NewOrderedMap()
		ik := NewOrderedMap()
		transform := NewOrderedMap()
		path := NewOrderedMap()
		deform := NewOrderedMap()
		var drawOrder []*OrderedMap

		timelineCount, err := r.U16()
		if err != nil {
			return nil, err
		}

	timelines:
		for k := uint16(0); k < timelineCount; k++ {
			ttype, err := r.U16()
			if err != nil {
				return nil, err
			}

			switch {
			case ttype <= tlShear:
				if err := parseBoneTimeline(r, st, ttype, ctx, bones); err != nil {
					return nil, err
				}
			case ttype == tlAttachment:
				if err := parseAttachmentTimeline(r, st, ctx, slots); err != nil {
					return nil, err
				}
			case ttype == tlDeform:
				if err := parseDeformTimeline(r, st, ctx, deform); err != nil {
					return nil, err
				}
			case ttype == tlEvents:
				if err := consumeEventsTimeline(r); err != nil {
					return nil, err
				}
			case ttype == tlDrawOrder:
				order, err := parseDrawOrderTimeline(r, ctx)
				if err != nil {
					return nil, err
				}
				drawOrder = order
			case ttype == tlColor || ttype == tlIK || ttype == tlTransform || (ttype >= tlPathPosition && ttype <= tlTwoColor):
				if err := parseIndexedTimeline(r, ttype, ctx, slots, ik, transform, path); err != nil {
					return nil, err
				}
			default:
				break timelines // unknown kind: remaining timelines are unreadable
			}
		}

		anim := NewOrderedMap()
		anim.Set("bones", bones)
		anim.Set("slots", slots)
		anim.Set("ik", ik)
		anim.Set("transform", transform)
		anim.Set("path", path)
		anim.Set("deform", deform)
		if len(drawOrder) > 0 {
			anim.Set("drawOrder", drawOrder)
		}
		anim.Set("duration", roundFloat(float64(duration)))
		animations.Set(name, anim)
	}

	return animations, nil
}

func boneTimelineName(ttype uint16) string {
	switch ttype {
	case tlRotate:
		return "rotate"
	case tlTranslate:
		return "translate"
	case tlScale:
		return "scale"
	default:
		return "shear"
	}
}

func parseBoneTimeline(r *binreader.Reader, st stringTable, ttype uint16, ctx animContext, bones *OrderedMap) error {
	boneIdx, err := r.U16()
	if err != nil {
		return err
	}
	fc, err := r.U16()
	if err != nil {
		return err
	}
	values, err := readF32Array(r, fc)
	if err != nil {
		return err
	}
	cc, err := r.U16()
	if err != nil {
		return err
	}
	curves, err := readF32Array(r, cc)
	if err != nil {
		return err
	}

	bkey := fmt.Sprintf("%d", boneIdx)
	if n, ok := ctx.boneNames[int16(boneIdx)]; ok {
		bkey = n
	}
	tname := boneTimelineName(ttype)

	bucket, ok := bones.Get(bkey)
	var b *OrderedMap
	if ok {
		b = bucket.(*OrderedMap)
	} else {
		b = NewOrderedMap()
		bones.Set(bkey, b)
	}

	valCount := 3
	if ttype == tlRotate {
		valCount = 2
	}
	frameCount := 0
	if valCount > 0 {
		frameCount = len(values) / valCount
	}

	frames := make([]*OrderedMap, 0, frameCount)
	for i := 0; i < frameCount; i++ {
		fr := NewOrderedMap()
		base := i * valCount
		if ttype == tlRotate {
			fr.Set("time", roundFloat(float64(values[base])))
			fr.Set("angle", roundFloat(float64(values[base+1])))
		} else {
			fr.Set("time", roundFloat(float64(values[base])))
			fr.Set("x", roundFloat(float64(values[base+1])))
			fr.Set("y", roundFloat(float64(values[base+2])))
		}
		maybeAddCurve(i, curves, fr)
		frames = append(frames, fr)
	}
	b.Set(tname, frames)
	return nil
}

func parseAttachmentTimeline(r *binreader.Reader, st stringTable, ctx animContext, slots *OrderedMap) error {
	slotIdx, err := r.U16()
	if err != nil {
		return err
	}
	fc, err := r.U16()
	if err != nil {
		return err
	}
	times, err := readF32Array(r, fc)
	if err != nil {
		return err
	}
	nameCnt, err := r.U16()
	if err != nil {
		return err
	}
	names := make([]string, 0, nameCnt)
	for i := uint16(0); i < nameCnt; i++ {
		off, err := r.U32()
		if err != nil {
			return err
		}
		names = append(names, st.resolve(off))
	}

	sname := fmt.Sprintf("%d", slotIdx)
	if n, ok := ctx.slotNames[int16(slotIdx)]; ok {
		sname = n
	}

	bucket, ok := slots.Get(sname)
	var s *OrderedMap
	if ok {
		s = bucket.(*OrderedMap)
	} else {
		s = NewOrderedMap()
		slots.Set(sname, s)
	}

	n := len(times)
	if len(names) < n {
		n = len(names)
	}
	frames := make([]*OrderedMap, 0, n)
	for i := 0; i < n; i++ {
		fr := NewOrderedMap()
		fr.Set("time", roundFloat(float64(times[i])))
		if names[i] != "" {
			fr.Set("name", names[i])
		} else {
			fr.Set("name", nil)
		}
		frames = append(frames, fr)
	}
	s.Set("attachment", frames)
	return nil
}

func parseDeformTimeline(r *binreader.Reader, st stringTable, ctx animContext, deform *OrderedMap) error {
	slotIdx, err := r.U16()
	if err != nil {
		return err
	}
	fc, err := r.U16()
	if err != nil {
		return err
	}
	values, err := readF32Array(r, fc)
	if err != nil {
		return err
	}
	cc, err := r.U16()
	if err != nil {
		return err
	}
	curves, err := readF32Array(r, cc)
	if err != nil {
		return err
	}

	fvFrames, err := r.U16()
	if err != nil {
		return err
	}
	frameVertices := make([][]float32, fvFrames)
	for i := range frameVertices {
		cnt, err := r.U16()
		if err != nil {
			return err
		}
		frameVertices[i], err = readF32Array(r, cnt)
		if err != nil {
			return err
		}
	}

	attOff, err := r.U32()
	if err != nil {
		return err
	}
	attName := st.resolve(attOff)

	skinName := "default"
	if ctx.hdrVersion > 0x7530 {
		sidx, err := r.U16()
		if err != nil {
			return err
		}
		if n, ok := ctx.skinNames[int(sidx)]; ok {
			skinName = n
		}
	}

	meta, hasMeta := ctx.attachmentMeta[attachmentMetaKey{skinName, int16(slotIdx), attName}]
	isUnweighted := true
	var setup []float32
	if hasMeta {
		isUnweighted = !meta.weighted
		setup = meta.setup
	}

	sname := fmt.Sprintf("%d", slotIdx)
	if n, ok := ctx.slotNames[int16(slotIdx)]; ok {
		sname = n
	}

	skinBucket, ok := deform.Get(skinName)
	var skinMap *OrderedMap
	if ok {
		skinMap = skinBucket.(*OrderedMap)
	} else {
		skinMap = NewOrderedMap()
		deform.Set(skinName, skinMap)
	}
	slotBucket, ok := skinMap.Get(sname)
	var slotMap *OrderedMap
	if ok {
		slotMap = slotBucket.(*OrderedMap)
	} else {
		slotMap = NewOrderedMap()
		skinMap.Set(sname, slotMap)
	}

	n := int(fc)
	if int(fvFrames) < n {
		n = int(fvFrames)
	}
	frames := make([]*OrderedMap, 0, n)
	for i := 0; i < n; i++ {
		fr := NewOrderedMap()
		fr.Set("time", roundFloat(float64(values[i])))
		verts := frameVertices[i]
		if len(verts) > 0 {
			var diffs []float32
			if isUnweighted && len(setup) == len(verts) {
				diffs = make([]float32, len(verts))
				for k := range verts {
					diffs[k] = verts[k] - setup[k]
				}
			} else {
				diffs = verts
			}

			start := 0
			for start < len(diffs) && math.Abs(float64(diffs[start])) < 1e-6 {
				start++
			}
			if start < len(diffs) {
				end := len(diffs) - 1
				for end >= 0 && math.Abs(float64(diffs[end])) < 1e-6 {
					end--
				}
				rounded := make([]float64, 0, end-start+1)
				for k := start; k <= end; k++ {
					rounded = append(rounded, roundFloat(float64(diffs[k])))
				}
				fr.Set("vertices", rounded)
				if start > 0 {
					fr.Set("offset", start)
				}
			}
		}
		maybeAddCurve(i, curves, fr)
		frames = append(frames, fr)
	}
	slotMap.Set(attName, frames)
	return nil
}

func consumeEventsTimeline(r *binreader.Reader) error {
	fc, err := r.U16()
	if err != nil {
		return err
	}
	if _, err := readF32Array(r, fc); err != nil {
		return err
	}
	evc, err := r.U16()
	if err != nil {
		return err
	}
	return r.Skip(4 * int(evc))
}

func parseDrawOrderTimeline(r *binreader.Reader, ctx animContext) ([]*OrderedMap, error) {
	slotCount := len(ctx.slotNames)

	fc, err := r.U16()
	if err != nil {
		return nil, err
	}
	times, err := readF32Array(r, fc)
	if err != nil {
		return nil, err
	}
	groups, err := r.U16()
	if err != nil {
		return nil, err
	}

	slotName := func(idx int) string {
		if n, ok := ctx.slotNames[int16(idx)]; ok {
			return n
		}
		return fmt.Sprintf("%d", idx)
	}

	var drawOrder []*OrderedMap
	for i := uint16(0); i < groups; i++ {
		c, err := r.U16()
		if err != nil {
			return nil, err
		}

		fr := NewOrderedMap()
		t := float32(0)
		if int(i) < len(times) {
			t = times[i]
		}
		fr.Set("time", roundFloat(float64(t)))

		var offsets []*OrderedMap
		if int(c) == slotCount {
			newOrder := make([]int, c)
			for j := range newOrder {
				v, err := r.U32()
				if err != nil {
					return nil, err
				}
				newOrder[j] = int(v)
			}
			for orig := 0; orig < slotCount; orig++ {
				newPos := -1
				for p, v := range newOrder {
					if v == orig {
						newPos = p
						break
					}
				}
				if newPos != -1 && newPos != orig {
					off := NewOrderedMap()
					off.Set("slot", slotName(orig))
					off.Set("offset", newPos-orig)
					offsets = append(offsets, off)
				}
			}
		} else {
			for j := uint16(0); j < c; j++ {
				sidx, err := r.U32()
				if err != nil {
					return nil, err
				}
				offset, err := r.I32()
				if err != nil {
					return nil, err
				}
				if offset != 0 {
					off := NewOrderedMap()
					off.Set("slot", slotName(int(sidx)))
					off.Set("offset", offset)
					offsets = append(offsets, off)
				}
			}
		}

		if len(offsets) > 0 {
			fr.Set("offsets", offsets)
			drawOrder = append(drawOrder, fr)
		}
	}
	return drawOrder, nil
}

func parseIndexedTimeline(r *binreader.Reader, ttype uint16, ctx animContext, slots, ik, transform, path *OrderedMap) error {
	idx, err := r.U16()
	if err != nil {
		return err
	}
	fc, err := r.U16()
	if err != nil {
		return err
	}
	values, err := readF32Array(r, fc)
	if err != nil {
		return err
	}
	cc, err := r.U16()
	if err != nil {
		return err
	}
	curves, err := readF32Array(r, cc)
	if err != nil {
		return err
	}

	switch ttype {
	case tlColor:
		sname := fmt.Sprintf("%d", idx)
		if n, ok := ctx.slotNames[int16(idx)]; ok {
			sname = n
		}
		bucket, ok := slots.Get(sname)
		var s *OrderedMap
		if ok {
			s = bucket.(*OrderedMap)
		} else {
			s = NewOrderedMap()
			slots.Set(sname, s)
		}
		const entries = 5
		frames := make([]*OrderedMap, 0, len(values)/entries)
		for i := 0; i < len(values)/entries; i++ {
			b := i * entries
			fr := NewOrderedMap()
			fr.Set("time", roundFloat(float64(values[b])))
			fr.Set("color", rgbaToHex(values[b+1], values[b+2], values[b+3], values[b+4]))
			maybeAddCurve(i, curves, fr)
			frames = append(frames, fr)
		}
		s.Set("color", frames)

	case tlIK:
		cname := fmt.Sprintf("ik%d", idx)
		if n, ok := ctx.ikNames[int16(idx)]; ok {
			cname = n
		}
		const entries = 6
		frames := make([]*OrderedMap, 0, len(values)/entries)
		for i := 0; i < len(values)/entries; i++ {
			b := i * entries
			fr := NewOrderedMap()
			fr.Set("time", roundFloat(float64(values[b])))
			fr.Set("mix", roundFloat(float64(values[b+1])))
			fr.Set("softness", roundFloat(float64(values[b+2])))
			fr.Set("bendPositive", values[b+3] >= 0)
			if values[b+4] != 0 {
				fr.Set("compress", true)
			}
			if values[b+5] != 0 {
				fr.Set("stretch", true)
			}
			maybeAddCurve(i, curves, fr)
			frames = append(frames, fr)
		}
		ik.Set(cname, frames)

	case tlTransform:
		cname := fmt.Sprintf("transform%d", idx)
		if n, ok := ctx.transformNames[int16(idx)]; ok {
			cname = n
		}
		const entries = 5
		frames := make([]*OrderedMap, 0, len(values)/entries)
		for i := 0; i < len(values)/entries; i++ {
			b := i * entries
			fr := NewOrderedMap()
			fr.Set("time", roundFloat(float64(values[b])))
			fr.Set("rotateMix", roundFloat(float64(values[b+1])))
			fr.Set("translateMix", roundFloat(float64(values[b+2])))
			fr.Set("scaleMix", roundFloat(float64(values[b+3])))
			fr.Set("shearMix", roundFloat(float64(values[b+4])))
			maybeAddCurve(i, curves, fr)
			frames = append(frames, fr)
		}
		transform.Set(cname, frames)

	case tlPathPosition, tlPathSpacing, tlPathMix:
		cname := fmt.Sprintf("path%d", idx)
		if n, ok := ctx.pathNames[int(idx)]; ok {
			cname = n
		}
		bucket, ok := path.Get(cname)
		var p *OrderedMap
		if ok {
			p = bucket.(*OrderedMap)
		} else {
			p = NewOrderedMap()
			path.Set(cname, p)
		}

		if ttype == tlPathMix {
			const entries = 3
			frames := make([]*OrderedMap, 0, len(values)/entries)
			for i := 0; i < len(values)/entries; i++ {
				b := i * entries
				fr := NewOrderedMap()
				fr.Set("time", roundFloat(float64(values[b])))
				fr.Set("rotateMix", roundFloat(float64(values[b+1])))
				fr.Set("translateMix", roundFloat(float64(values[b+2])))
				maybeAddCurve(i, curves, fr)
				frames = append(frames, fr)
			}
			p.Set("mix", frames)
		} else {
			key := "position"
			if ttype == tlPathSpacing {
				key = "spacing"
			}
			const entries = 2
			frames := make([]*OrderedMap, 0, len(values)/entries)
			for i := 0; i < len(values)/entries; i++ {
				b := i * entries
				fr := NewOrderedMap()
				fr.Set("time", roundFloat(float64(values[b])))
				fr.Set(key, roundFloat(float64(values[b+1])))
				maybeAddCurve(i, curves, fr)
				frames = append(frames, fr)
			}
			p.Set(key, frames)
		}

	case tlTwoColor:
		sname := fmt.Sprintf("%d", idx)
		if n, ok := ctx.slotNames[int16(idx)]; ok {
			sname = n
		}
		bucket, ok := slots.Get(sname)
		var s *OrderedMap
		if ok {
			s = bucket.(*OrderedMap)
		} else {
			s = NewOrderedMap()
			slots.Set(sname, s)
		}
		const entries = 8
		frames := make([]*OrderedMap, 0, len(values)/entries)
		for i := 0; i < len(values)/entries; i++ {
			b := i * entries
			fr := NewOrderedMap()
			fr.Set("time", roundFloat(float64(values[b])))
			fr.Set("light", rgbaToHex(values[b+1], values[b+2], values[b+3], values[b+4]))
			fr.Set("dark", rgbToHex(values[b+5], values[b+6], values[b+7]))
			maybeAddCurve(i, curves, fr)
			frames = append(frames, fr)
		}
		s.Set("twoColor", frames)
	}

	return nil
}
