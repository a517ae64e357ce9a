package skeleton

import "github.com/packhound/scape/binreader"

var blendModes = map[uint16]string{
	0: "normal",
	1: "additive",
	2: "multiply",
	3: "screen",
}

const defaultColorHex = "FFFFFFFF"

type slotInfo struct {
	index          int16
	name           string
	boneIndex      int16
	light          [4]float32
	dark           [4]float32
	hasDark        bool
	attachmentName string
	blendMode      uint16
}

// parseSlots reads the slots section and returns the parsed slots plus an
// index->name map consumed by draw-order and attachment timelines.
func parseSlots(r *binreader.Reader, st stringTable, boneNames map[int16]string) ([]slotInfo, map[int16]string, error) {
	count, err := r.U16()
	if err != nil {
		return nil, nil, err
	}
	names := make(map[int16]string, count)
	slots := make([]slotInfo, 0, count)

	for i := uint16(0); i < count; i++ {
		idx, err := r.I16()
		if err != nil {
			return nil, nil, err
		}
		nameOff, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		boneIdx, err := r.I16()
		if err != nil {
			return nil, nil, err
		}

		var light, dark [4]float32
		for j := range light {
			if light[j], err = r.F32(); err != nil {
				return nil, nil, err
			}
		}
		for j := range dark {
			if dark[j], err = r.F32(); err != nil {
				return nil, nil, err
			}
		}
		hasDark, err := r.U8()
		if err != nil {
			return nil, nil, err
		}
		attachOff, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		blend, err := r.U16()
		if err != nil {
			return nil, nil, err
		}

		name := st.resolve(nameOff)
		names[idx] = name
		slots = append(slots, slotInfo{
			index: idx, name: name, boneIndex: boneIdx,
			light: light, dark: dark, hasDark: hasDark != 0,
			attachmentName: st.resolve(attachOff), blendMode: blend,
		})
	}
	return slots, names, nil
}

func slotsJSON(slots []slotInfo, boneNames map[int16]string) []*OrderedMap {
	out := make([]*OrderedMap, 0, len(slots))
	for _, s := range slots {
		m := NewOrderedMap()
		m.Set("name", s.name)
		m.Set("bone", boneNames[s.boneIndex])
		lightHex := rgbaToHex(s.light[0], s.light[1], s.light[2], s.light[3])
		if lightHex != defaultColorHex {
			m.Set("color", lightHex)
		}
		if s.hasDark {
			m.Set("dark", rgbToHex(s.dark[0], s.dark[1], s.dark[2]))
		}
		if s.attachmentName != "" {
			m.Set("attachment", s.attachmentName)
		}
		if name, ok := blendModes[s.blendMode]; ok && s.blendMode != 0 {
			m.Set("blend", name)
		}
		out = append(out, m)
	}
	return out
}
