package skeleton

import "github.com/packhound/scape/binreader"

var posModes = map[uint16]string{0: "fixed", 1: "percent"}
var spacingModes = map[uint16]string{0: "length", 1: "fixed", 2: "percent"}
var rotateModes = map[uint16]string{0: "tangent", 1: "chain", 2: "chainScale"}

type ikConstraint struct {
	name          string
	order         int32
	skinRequired  bool
	bendDirection int32
	compress      bool
	mix           float32
	softness      float32
	stretch       bool
	uniform       bool
	target        int16
	bones         []int16
}

func readBoneIndexList(r *binreader.Reader) ([]int16, error) {
	count, err := r.U16()
	if err != nil {
		return nil, err
	}
	out := make([]int16, count)
	for i := range out {
		out[i], err = r.I16()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseIKConstraints(r *binreader.Reader, st stringTable) ([]ikConstraint, map[int16]string, error) {
	count, err := r.U16()
	if err != nil {
		return nil, nil, err
	}
	names := make(map[int16]string, count)
	out := make([]ikConstraint, 0, count)

	for i := uint16(0); i < count; i++ {
		nameOff, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		order, err := r.I32()
		if err != nil {
			return nil, nil, err
		}
		skinRequired, err := r.U8()
		if err != nil {
			return nil, nil, err
		}
		bendDir, err := r.I32()
		if err != nil {
			return nil, nil, err
		}
		compress, err := r.U8()
		if err != nil {
			return nil, nil, err
		}
		mix, err := r.F32()
		if err != nil {
			return nil, nil, err
		}
		softness, err := r.F32()
		if err != nil {
			return nil, nil, err
		}
		stretch, err := r.U8()
		if err != nil {
			return nil, nil, err
		}
		uniform, err := r.U8()
		if err != nil {
			return nil, nil, err
		}
		target, err := r.I16()
		if err != nil {
			return nil, nil, err
		}
		bones, err := readBoneIndexList(r)
		if err != nil {
			return nil, nil, err
		}

		names[int16(i)] = st.resolve(nameOff)
		out = append(out, ikConstraint{
			name: st.resolve(nameOff), order: order, skinRequired: skinRequired != 0,
			bendDirection: bendDir, compress: compress != 0, mix: mix, softness: softness,
			stretch: stretch != 0, uniform: uniform != 0, target: target, bones: bones,
		})
	}
	return out, names, nil
}

func ikJSON(list []ikConstraint, boneNames map[int16]string) []*OrderedMap {
	out := make([]*OrderedMap, 0, len(list))
	for _, c := range list {
		m := NewOrderedMap()
		m.Set("name", c.name)
		if c.order != 0 {
			m.Set("order", c.order)
		}
		if c.skinRequired {
			m.Set("skin", true)
		}
		bones := make([]string, 0, len(c.bones))
		for _, b := range c.bones {
			bones = append(bones, boneNames[b])
		}
		m.Set("bones", bones)
		m.Set("target", boneNames[c.target])
		if c.mix != 1 {
			m.Set("mix", roundFloat(float64(c.mix)))
		}
		if c.softness != 0 {
			m.Set("softness", roundFloat(float64(c.softness)))
		}
		if c.bendDirection < 0 {
			m.Set("bendPositive", false)
		}
		if c.compress {
			m.Set("compress", true)
		}
		if c.stretch {
			m.Set("stretch", true)
		}
		if c.uniform {
			m.Set("uniform", true)
		}
		out = append(out, m)
	}
	return out
}

type transformConstraint struct {
	name                                      string
	order                                     int32
	skinRequired                              bool
	bones                                     []int16
	target                                    int16
	rotateMix, translateMix, scaleMix, shearMix float32
	offsetRotation, offsetX, offsetY           float32
	offsetScaleX, offsetScaleY, offsetShearY   float32
	relative, local                           bool
}

func parseTransformConstraints(r *binreader.Reader, st stringTable) ([]transformConstraint, map[int16]string, error) {
	count, err := r.U16()
	if err != nil {
		return nil, nil, err
	}
	names := make(map[int16]string, count)
	out := make([]transformConstraint, 0, count)

	for i := uint16(0); i < count; i++ {
		nameOff, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		order, err := r.I32()
		if err != nil {
			return nil, nil, err
		}
		skinRequired, err := r.U8()
		if err != nil {
			return nil, nil, err
		}
		bones, err := readBoneIndexList(r)
		if err != nil {
			return nil, nil, err
		}
		target, err := r.I16()
		if err != nil {
			return nil, nil, err
		}

		floats := make([]float32, 10)
		for j := range floats {
			floats[j], err = r.F32()
			if err != nil {
				return nil, nil, err
			}
		}
		relative, err := r.U8()
		if err != nil {
			return nil, nil, err
		}
		local, err := r.U8()
		if err != nil {
			return nil, nil, err
		}

		names[int16(i)] = st.resolve(nameOff)
		out = append(out, transformConstraint{
			name: st.resolve(nameOff), order: order, skinRequired: skinRequired != 0,
			bones: bones, target: target,
			rotateMix: floats[0], translateMix: floats[1], scaleMix: floats[2], shearMix: floats[3],
			offsetRotation: floats[4], offsetX: floats[5], offsetY: floats[6],
			offsetScaleX: floats[7], offsetScaleY: floats[8], offsetShearY: floats[9],
			relative: relative != 0, local: local != 0,
		})
	}
	return out, names, nil
}

func transformConstraintsJSON(list []transformConstraint, boneNames map[int16]string) []*OrderedMap {
	out := make([]*OrderedMap, 0, len(list))
	for _, c := range list {
		m := NewOrderedMap()
		m.Set("name", c.name)
		if c.order != 0 {
			m.Set("order", c.order)
		}
		if c.skinRequired {
			m.Set("skin", true)
		}
		bones := make([]string, 0, len(c.bones))
		for _, b := range c.bones {
			bones = append(bones, boneNames[b])
		}
		m.Set("bones", bones)
		m.Set("target", boneNames[c.target])
		if c.rotateMix != 1 {
			m.Set("rotateMix", roundFloat(float64(c.rotateMix)))
		}
		if c.translateMix != 1 {
			m.Set("translateMix", roundFloat(float64(c.translateMix)))
		}
		if c.scaleMix != 1 {
			m.Set("scaleMix", roundFloat(float64(c.scaleMix)))
		}
		if c.shearMix != 1 {
			m.Set("shearMix", roundFloat(float64(c.shearMix)))
		}
		if c.offsetRotation != 0 {
			m.Set("rotation", roundFloat(float64(c.offsetRotation)))
		}
		if c.offsetX != 0 {
			m.Set("x", roundFloat(float64(c.offsetX)))
		}
		if c.offsetY != 0 {
			m.Set("y", roundFloat(float64(c.offsetY)))
		}
		if c.offsetScaleX != 0 {
			m.Set("scaleX", roundFloat(float64(c.offsetScaleX)))
		}
		if c.offsetScaleY != 0 {
			m.Set("scaleY", roundFloat(float64(c.offsetScaleY)))
		}
		if c.offsetShearY != 0 {
			m.Set("shearY", roundFloat(float64(c.offsetShearY)))
		}
		if c.relative {
			m.Set("relative", true)
		}
		if c.local {
			m.Set("local", true)
		}
		out = append(out, m)
	}
	return out
}

type pathConstraint struct {
	name            string
	order           int32
	skinRequired    bool
	bones           []int16
	target          int16
	positionMode    uint16
	spacingMode     uint16
	rotateMode      uint16
	offsetRotation  float32
	position        float32
	spacing         float32
	rotateMix       float32
	translateMix    float32
}

func parsePathConstraintsWithNames(r *binreader.Reader, st stringTable) ([]pathConstraint, map[int]string, error) {
	count, err := r.U16()
	if err != nil {
		return nil, nil, err
	}
	out := make([]pathConstraint, 0, count)
	names := make(map[int]string, count)

	for i := uint16(0); i < count; i++ {
		nameOff, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		order, err := r.I32()
		if err != nil {
			return nil, nil, err
		}
		skinRequired, err := r.U8()
		if err != nil {
			return nil, nil, err
		}
		bones, err := readBoneIndexList(r)
		if err != nil {
			return nil, nil, err
		}
		target, err := r.I16()
		if err != nil {
			return nil, nil, err
		}
		positionMode, err := r.U16()
		if err != nil {
			return nil, nil, err
		}
		spacingMode, err := r.U16()
		if err != nil {
			return nil, nil, err
		}
		rotateMode, err := r.U16()
		if err != nil {
			return nil, nil, err
		}
		offsetRotation, err := r.F32()
		if err != nil {
			return nil, nil, err
		}
		position, err := r.F32()
		if err != nil {
			return nil, nil, err
		}
		spacing, err := r.F32()
		if err != nil {
			return nil, nil, err
		}
		rotateMix, err := r.F32()
		if err != nil {
			return nil, nil, err
		}
		translateMix, err := r.F32()
		if err != nil {
			return nil, nil, err
		}

		name := st.resolve(nameOff)
		names[int(i)] = name
		out = append(out, pathConstraint{
			name: name, order: order, skinRequired: skinRequired != 0,
			bones: bones, target: target,
			positionMode: positionMode, spacingMode: spacingMode, rotateMode: rotateMode,
			offsetRotation: offsetRotation, position: position, spacing: spacing,
			rotateMix: rotateMix, translateMix: translateMix,
		})
	}
	return out, names, nil
}

func pathConstraintsJSON(list []pathConstraint, boneNames, slotNames map[int16]string) []*OrderedMap {
	out := make([]*OrderedMap, 0, len(list))
	for _, c := range list {
		m := NewOrderedMap()
		m.Set("name", c.name)
		if c.order != 0 {
			m.Set("order", c.order)
		}
		if c.skinRequired {
			m.Set("skin", true)
		}
		bones := make([]string, 0, len(c.bones))
		for _, b := range c.bones {
			bones = append(bones, boneNames[b])
		}
		m.Set("bones", bones)
		m.Set("target", slotNames[c.target])
		if name, ok := posModes[c.positionMode]; ok && c.positionMode != 0 {
			m.Set("positionMode", name)
		}
		if name, ok := spacingModes[c.spacingMode]; ok && c.spacingMode != 0 {
			m.Set("spacingMode", name)
		}
		if name, ok := rotateModes[c.rotateMode]; ok && c.rotateMode != 0 {
			m.Set("rotateMode", name)
		}
		if c.offsetRotation != 0 {
			m.Set("rotation", roundFloat(float64(c.offsetRotation)))
		}
		m.Set("position", roundFloat(float64(c.position)))
		if c.spacing != 0 {
			m.Set("spacing", roundFloat(float64(c.spacing)))
		}
		if c.rotateMix != 1 {
			m.Set("rotateMix", roundFloat(float64(c.rotateMix)))
		}
		if c.translateMix != 1 {
			m.Set("translateMix", roundFloat(float64(c.translateMix)))
		}
		out = append(out, m)
	}
	return out
}
