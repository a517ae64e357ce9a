package skeleton

import (
	"fmt"

	"github.com/packhound/scape/binreader"
)

// attachmentMetaKey identifies one attachment's setup pose, used by deform
// timelines to compute per-frame vertex deltas.
type attachmentMetaKey struct {
	skin string
	slot int16
	name string
}

type attachmentMeta struct {
	weighted bool
	setup    []float32
}

func readF32Array(r *binreader.Reader, count uint16) ([]float32, error) {
	out := make([]float32, count)
	for i := range out {
		v, err := r.F32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func readU16Array(r *binreader.Reader, count uint16) ([]uint16, error) {
	out := make([]uint16, count)
	for i := range out {
		v, err := r.U16()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseSkins reads the skins section and returns its JSON form, an
// index->name map (for LinkedMesh cross-references), and the collected
// AttachmentMeta table consumed by Deform timelines.
func parseSkins(r *binreader.Reader, st stringTable, slotNames map[int16]string, hdrVersion uint32) ([]*OrderedMap, map[int]string, map[attachmentMetaKey]attachmentMeta, error) {
	skinCount, err := r.U16()
	if err != nil {
		return nil, nil, nil, err
	}

	skinNames := make(map[int]string, skinCount)
	meta := make(map[attachmentMetaKey]attachmentMeta)
	skins := make([]*OrderedMap, 0, skinCount)

	for sidx := uint16(0); sidx < skinCount; sidx++ {
		nameOff, err := r.U32()
		if err != nil {
			return nil, nil, nil, err
		}
		name := "default"
		if s := st.resolve(nameOff); s != "" {
			name = s
		}
		skinNames[int(sidx)] = name

		boneCount, err := r.U16()
		if err != nil {
			return nil, nil, nil, err
		}
		if err := r.Skip(2 * int(boneCount)); err != nil {
			return nil, nil, nil, err
		}

		constraintCount, err := r.U16()
		if err != nil {
			return nil, nil, nil, err
		}
		if err := r.Skip(4 * int(constraintCount)); err != nil {
			return nil, nil, nil, err
		}

		attachCount, err := r.U16()
		if err != nil {
			return nil, nil, nil, err
		}

		attachmentsBySlot := NewOrderedMap()

		for a := uint16(0); a < attachCount; a++ {
			slotIdx, err := r.I16()
			if err != nil {
				return nil, nil, nil, err
			}
			slotName := fmt.Sprintf("slot%d", slotIdx)
			if n, ok := slotNames[slotIdx]; ok {
				slotName = n
			}

			attNameOff, err := r.U32()
			if err != nil {
				return nil, nil, nil, err
			}
			attName := fmt.Sprintf("att%d", a)
			if n := st.resolve(attNameOff); n != "" {
				attName = n
			}

			atype, err := r.I16()
			if err != nil {
				return nil, nil, nil, err
			}
			r.Skip(4) // constructor-name offset, unused

			att, err := parseAttachment(r, st, int(atype), name, slotIdx, attName, hdrVersion, meta, slotNames)
			if err != nil {
				return nil, nil, nil, err
			}
			if att == nil {
				continue
			}

			slotBucket, ok := attachmentsBySlot.Get(slotName)
			var bucket *OrderedMap
			if ok {
				bucket = slotBucket.(*OrderedMap)
			} else {
				bucket = NewOrderedMap()
				attachmentsBySlot.Set(slotName, bucket)
			}
			bucket.Set(attName, att)
		}

		skinObj := NewOrderedMap()
		skinObj.Set("name", name)
		skinObj.Set("attachments", attachmentsBySlot)
		skins = append(skins, skinObj)
	}

	resolveLinkedMeshSkins(skins, skinNames)

	return skins, skinNames, meta, nil
}

// resolveLinkedMeshSkins replaces each LinkedMesh's skinIndex field with a
// resolved skin name, mirroring the original's post-pass.
func resolveLinkedMeshSkins(skins []*OrderedMap, skinNames map[int]string) {
	for _, skin := range skins {
		attsRaw, ok := skin.Get("attachments")
		if !ok {
			continue
		}
		atts := attsRaw.(*OrderedMap)
		for _, slotName := range atts.keys {
			bucketRaw, _ := atts.Get(slotName)
			bucket := bucketRaw.(*OrderedMap)
			for _, attName := range bucket.keys {
				attRaw, _ := bucket.Get(attName)
				att := attRaw.(*OrderedMap)
				typeVal, _ := att.Get("type")
				if typeVal != "linkedmesh" {
					continue
				}
				idxVal, ok := att.Get("skinIndex")
				if !ok {
					continue
				}
				idx := idxVal.(int16)
				skinName := "default"
				if n, ok := skinNames[int(idx)]; ok {
					skinName = n
				}
				att.Set("skin", skinName)
				att.Delete("skinIndex")
			}
		}
	}
}

func parseAttachment(r *binreader.Reader, st stringTable, atype int, skinName string, slotIdx int16, attName string, hdrVersion uint32, meta map[attachmentMetaKey]attachmentMeta, slotNames map[int16]string) (*OrderedMap, error) {
	switch atype {
	case 0:
		return parseRegionAttachment(r, st)
	case 1:
		return parseBoundingBoxAttachment(r, st, skinName, slotIdx, attName, meta)
	case 2, 3:
		return parseMeshAttachment(r, st, skinName, slotIdx, attName, hdrVersion, atype == 3, meta)
	case 4:
		return parsePathAttachment(r, st, skinName, slotIdx, attName, meta)
	case 5:
		return parsePointAttachment(r)
	case 6:
		return parseClippingAttachment(r, st, skinName, slotIdx, attName, meta, slotNames)
	default:
		return nil, nil
	}
}

func parseRegionAttachment(r *binreader.Reader, st stringTable) (*OrderedMap, error) {
	x, err := r.F32()
	if err != nil {
		return nil, err
	}
	y, err := r.F32()
	if err != nil {
		return nil, err
	}
	rot, err := r.F32()
	if err != nil {
		return nil, err
	}
	sx, err := r.F32()
	if err != nil {
		return nil, err
	}
	sy, err := r.F32()
	if err != nil {
		return nil, err
	}
	w, err := r.F32()
	if err != nil {
		return nil, err
	}
	h, err := r.F32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(24); err != nil {
		return nil, err
	}

	vc, err := r.U16()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(4 * int(vc)); err != nil {
		return nil, err
	}
	uc, err := r.U16()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(4 * int(uc)); err != nil {
		return nil, err
	}

	pathOff, err := r.U32()
	if err != nil {
		return nil, err
	}
	cr, err := r.F32()
	if err != nil {
		return nil, err
	}
	cg, err := r.F32()
	if err != nil {
		return nil, err
	}
	cb, err := r.F32()
	if err != nil {
		return nil, err
	}
	ca, err := r.F32()
	if err != nil {
		return nil, err
	}

	m := NewOrderedMap()
	m.Set("type", "region")
	m.Set("x", roundFloat(float64(x)))
	m.Set("y", roundFloat(float64(y)))
	m.Set("rotation", roundFloat(float64(rot)))
	m.Set("scaleX", roundFloat(float64(sx)))
	m.Set("scaleY", roundFloat(float64(sy)))
	m.Set("width", roundFloat(float64(w)))
	m.Set("height", roundFloat(float64(h)))
	if path := st.resolve(pathOff); path != "" {
		m.Set("path", path)
	}
	if color := rgbaToHex(cr, cg, cb, ca); color != defaultColorHex {
		m.Set("color", color)
	}
	return m, nil
}

func recordMeta(meta map[attachmentMetaKey]attachmentMeta, skin string, slot int16, name string, v vertexStream) {
	if v.weighted() {
		meta[attachmentMetaKey{skin, slot, name}] = attachmentMeta{weighted: true}
	} else {
		meta[attachmentMetaKey{skin, slot, name}] = attachmentMeta{weighted: false, setup: v.verts}
	}
}

func parseBoundingBoxAttachment(r *binreader.Reader, st stringTable, skinName string, slotIdx int16, attName string, meta map[attachmentMetaKey]attachmentMeta) (*OrderedMap, error) {
	vs, err := parseVertexStream(r, st)
	if err != nil {
		return nil, err
	}
	recordMeta(meta, skinName, slotIdx, attName, vs)

	m := NewOrderedMap()
	m.Set("type", "boundingbox")
	m.Set("vertexCount", int(vs.worldVerticesLen)>>1)
	m.Set("vertices", verticesJSON(vs))
	if vs.path != "" {
		m.Set("path", vs.path)
	}
	return m, nil
}

func parseMeshAttachment(r *binreader.Reader, st stringTable, skinName string, slotIdx int16, attName string, hdrVersion uint32, linked bool, meta map[attachmentMetaKey]attachmentMeta) (*OrderedMap, error) {
	vs, err := parseVertexStream(r, st)
	if err != nil {
		return nil, err
	}
	recordMeta(meta, skinName, slotIdx, attName, vs)

	if err := r.Skip(4 * 6); err != nil {
		return nil, err
	}

	uvc, err := r.U16()
	if err != nil {
		return nil, err
	}
	if _, err := readF32Array(r, uvc); err != nil {
		return nil, err
	}

	ruvc, err := r.U16()
	if err != nil {
		return nil, err
	}
	regionUVs, err := readF32Array(r, ruvc)
	if err != nil {
		return nil, err
	}

	tc, err := r.U16()
	if err != nil {
		return nil, err
	}
	triangles, err := readU16Array(r, tc)
	if err != nil {
		return nil, err
	}

	ec, err := r.U16()
	if err != nil {
		return nil, err
	}
	edges, err := readU16Array(r, ec)
	if err != nil {
		return nil, err
	}

	mpath := vs.path
	moff, err := r.U32()
	if err != nil {
		return nil, err
	}
	if s := st.resolve(moff); s != "" {
		mpath = s
	}

	if err := r.Skip(4 * 4); err != nil { // regionU/V/U2/V2
		return nil, err
	}
	width, err := r.F32()
	if err != nil {
		return nil, err
	}
	height, err := r.F32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(4 * 4); err != nil { // color RGBA, unused in output
		return nil, err
	}

	hull, err := r.U32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(1); err != nil { // regionRotate
		return nil, err
	}
	if err := r.Skip(4); err != nil { // _deg
		return nil, err
	}

	parentOff, err := r.U32()
	if err != nil {
		return nil, err
	}
	parentName := st.resolve(parentOff)

	m := NewOrderedMap()

	if linked {
		var skinIndex int16
		var inlineSkinName string
		if hdrVersion > 0x7530 {
			if err := r.Skip(2); err != nil {
				return nil, err
			}
		} else {
			skinIndex, err = r.I16()
			if err != nil {
				return nil, err
			}
			soff, err := r.U32()
			if err != nil {
				return nil, err
			}
			inlineSkinName = st.resolve(soff)
		}

		finalSkinIdx, err := r.I16()
		if err != nil {
			return nil, err
		}
		deformFlag, err := r.U8()
		if err != nil {
			return nil, err
		}

		m.Set("type", "linkedmesh")
		if parentName != "" {
			m.Set("parent", parentName)
		} else {
			m.Set("parent", attName)
		}
		m.Set("deform", deformFlag != 0)
		m.Set("uvs", regionUVs)
		m.Set("triangles", triangles)
		m.Set("vertices", verticesJSON(vs))
		m.Set("hull", hull)
		m.Set("edges", edges)
		m.Set("width", roundFloat(float64(width)))
		m.Set("height", roundFloat(float64(height)))

		if hdrVersion > 0x7530 {
			m.Set("skinIndex", finalSkinIdx)
		} else {
			if inlineSkinName == "" {
				inlineSkinName = "default"
			}
			m.Set("skin", inlineSkinName)
		}
		if mpath != "" {
			m.Set("path", mpath)
		}
		_ = skinIndex
		return m, nil
	}

	if err := r.Skip(5); err != nil {
		return nil, err
	}
	m.Set("type", "mesh")
	m.Set("uvs", regionUVs)
	m.Set("triangles", triangles)
	m.Set("vertices", verticesJSON(vs))
	m.Set("hull", hull)
	m.Set("edges", edges)
	m.Set("width", roundFloat(float64(width)))
	m.Set("height", roundFloat(float64(height)))
	if mpath != "" {
		m.Set("path", mpath)
	}
	return m, nil
}

func parsePathAttachment(r *binreader.Reader, st stringTable, skinName string, slotIdx int16, attName string, meta map[attachmentMetaKey]attachmentMeta) (*OrderedMap, error) {
	vs, err := parseVertexStream(r, st)
	if err != nil {
		return nil, err
	}
	recordMeta(meta, skinName, slotIdx, attName, vs)

	cnt, err := r.U16()
	if err != nil {
		return nil, err
	}
	lengths, err := readF32Array(r, cnt)
	if err != nil {
		return nil, err
	}
	closed, err := r.U8()
	if err != nil {
		return nil, err
	}
	constantSpeed, err := r.U8()
	if err != nil {
		return nil, err
	}

	m := NewOrderedMap()
	m.Set("type", "path")
	m.Set("closed", closed != 0)
	m.Set("constantSpeed", constantSpeed != 0)
	m.Set("lengths", lengths)
	m.Set("vertexCount", int(vs.worldVerticesLen)>>1)
	m.Set("vertices", verticesJSON(vs))
	if vs.path != "" {
		m.Set("path", vs.path)
	}
	return m, nil
}

func parsePointAttachment(r *binreader.Reader) (*OrderedMap, error) {
	x, err := r.F32()
	if err != nil {
		return nil, err
	}
	y, err := r.F32()
	if err != nil {
		return nil, err
	}
	rotation, err := r.F32()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(4); err != nil {
		return nil, err
	}

	m := NewOrderedMap()
	m.Set("type", "point")
	m.Set("x", roundFloat(float64(x)))
	m.Set("y", roundFloat(float64(y)))
	m.Set("rotation", roundFloat(float64(rotation)))
	return m, nil
}

func parseClippingAttachment(r *binreader.Reader, st stringTable, skinName string, slotIdx int16, attName string, meta map[attachmentMetaKey]attachmentMeta, slotNames map[int16]string) (*OrderedMap, error) {
	vs, err := parseVertexStream(r, st)
	if err != nil {
		return nil, err
	}
	recordMeta(meta, skinName, slotIdx, attName, vs)

	endSlotIdx, err := r.I16()
	if err != nil {
		return nil, err
	}
	endSlotName := fmt.Sprintf("slot%d", endSlotIdx)
	if n, ok := slotNames[endSlotIdx]; ok {
		endSlotName = n
	}

	m := NewOrderedMap()
	m.Set("type", "clipping")
	m.Set("end", endSlotName)
	m.Set("vertexCount", int(vs.worldVerticesLen)>>1)
	m.Set("vertices", verticesJSON(vs))
	return m, nil
}
