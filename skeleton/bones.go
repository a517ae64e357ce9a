package skeleton

import "github.com/packhound/scape/binreader"

var transformModes = map[uint16]string{
	0: "normal",
	1: "onlyTranslation",
	2: "noRotationOrReflection",
	3: "noScale",
	4: "noScaleOrReflection",
}

type boneInfo struct {
	index        int16
	name         string
	parentIndex  int16
	length       float32
	x, y         float32
	rotation     float32
	scaleX       float32
	scaleY       float32
	shearX       float32
	shearY       float32
	transformMode uint16
	skin         bool
}

// parseBones reads the bones section and returns the parsed bones plus an
// index->name map used by every later section that references a bone.
func parseBones(r *binreader.Reader, st stringTable) ([]boneInfo, map[int16]string, error) {
	count, err := r.U16()
	if err != nil {
		return nil, nil, err
	}
	names := make(map[int16]string, count)
	bones := make([]boneInfo, 0, count)

	for i := uint16(0); i < count; i++ {
		idx, err := r.I16()
		if err != nil {
			return nil, nil, err
		}
		nameOff, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		parent, err := r.I16()
		if err != nil {
			return nil, nil, err
		}

		floats := make([]float32, 8)
		for j := range floats {
			floats[j], err = r.F32()
			if err != nil {
				return nil, nil, err
			}
		}
		mode, err := r.U16()
		if err != nil {
			return nil, nil, err
		}
		skinFlag, err := r.U8()
		if err != nil {
			return nil, nil, err
		}

		name := st.resolve(nameOff)
		names[idx] = name
		bones = append(bones, boneInfo{
			index: idx, name: name, parentIndex: parent,
			length: floats[0], x: floats[1], y: floats[2],
			rotation: floats[3], scaleX: floats[4], scaleY: floats[5],
			shearX: floats[6], shearY: floats[7],
			transformMode: mode, skin: skinFlag != 0,
		})
	}
	return bones, names, nil
}

// bonesJSON renders the bones array, emitting only non-default fields per
// entry (root bone has no parent field; scale/shear default to 1/0).
func bonesJSON(bones []boneInfo, boneNames map[int16]string) []*OrderedMap {
	out := make([]*OrderedMap, 0, len(bones))
	for _, b := range bones {
		m := NewOrderedMap()
		m.Set("name", b.name)
		if parentName, ok := boneNames[b.parentIndex]; ok && b.parentIndex >= 0 {
			m.Set("parent", parentName)
		}
		if b.length != 0 {
			m.Set("length", roundFloat(float64(b.length)))
		}
		if b.x != 0 {
			m.Set("x", roundFloat(float64(b.x)))
		}
		if b.y != 0 {
			m.Set("y", roundFloat(float64(b.y)))
		}
		if b.rotation != 0 {
			m.Set("rotation", roundFloat(float64(b.rotation)))
		}
		if b.scaleX != 1 {
			m.Set("scaleX", roundFloat(float64(b.scaleX)))
		}
		if b.scaleY != 1 {
			m.Set("scaleY", roundFloat(float64(b.scaleY)))
		}
		if b.shearX != 0 {
			m.Set("shearX", roundFloat(float64(b.shearX)))
		}
		if b.shearY != 0 {
			m.Set("shearY", roundFloat(float64(b.shearY)))
		}
		if name, ok := transformModes[b.transformMode]; ok && b.transformMode != 0 {
			m.Set("transform", name)
		}
		if b.skin {
			m.Set("skin", true)
		}
		out = append(out, m)
	}
	return out
}
