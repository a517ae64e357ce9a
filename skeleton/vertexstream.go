package skeleton

import "github.com/packhound/scape/binreader"

// vertexStream is the shared prefix read by BoundingBox/Mesh/LinkedMesh/
// Path/Clipping attachments: an optional bone-weighted stream followed by
// a flat vertex array, a world-vertex length, and a path override string.
type vertexStream struct {
	bones            []int16 // raw packed [c, bone...]*; empty means unweighted
	verts            []float32
	worldVerticesLen uint32
	path             string
}

func (v vertexStream) weighted() bool { return len(v.bones) > 0 }

func parseVertexStream(r *binreader.Reader, st stringTable) (vertexStream, error) {
	bcount, err := r.U16()
	if err != nil {
		return vertexStream{}, err
	}
	bones := make([]int16, bcount)
	for i := range bones {
		bones[i], err = r.I16()
		if err != nil {
			return vertexStream{}, err
		}
	}

	vcount, err := r.U16()
	if err != nil {
		return vertexStream{}, err
	}
	verts := make([]float32, vcount)
	for i := range verts {
		verts[i], err = r.F32()
		if err != nil {
			return vertexStream{}, err
		}
	}

	worldLen, err := r.U32()
	if err != nil {
		return vertexStream{}, err
	}
	pathOff, err := r.U32()
	if err != nil {
		return vertexStream{}, err
	}

	return vertexStream{bones: bones, verts: verts, worldVerticesLen: worldLen, path: st.resolve(pathOff)}, nil
}

// verticesJSON renders the vertex stream the way the vertices field is
// emitted: a flat float array when unweighted, or a packed
// [count, (boneIndex, x, y, weight)...]* array when weighted.
func verticesJSON(v vertexStream) any {
	if !v.weighted() {
		return v.verts
	}
	out := make([]float32, 0, len(v.bones)+len(v.verts))
	i, vf := 0, 0
	for i < len(v.bones) {
		c := int(v.bones[i])
		i++
		out = append(out, float32(c))
		for k := 0; k < c && i < len(v.bones) && vf+3 <= len(v.verts); k++ {
			out = append(out, float32(v.bones[i]))
			out = append(out, v.verts[vf], v.verts[vf+1], v.verts[vf+2])
			i++
			vf += 3
		}
	}
	return out
}
