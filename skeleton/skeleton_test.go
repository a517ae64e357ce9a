package skeleton

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/packhound/scape/binreader"
)

// encodeLZ4AllLiterals wraps data in a single-token LZ4 block containing
// only literals, relying on len(dst) reaching decompressedLen immediately
// after the literal copy so no match section is ever needed.
func encodeLZ4AllLiterals(data []byte) []byte {
	var out []byte
	n := len(data)
	litNibble := n
	if litNibble > 15 {
		litNibble = 15
	}
	out = append(out, byte(litNibble<<4))
	if n >= 15 {
		remaining := n - 15
		for remaining >= 255 {
			out = append(out, 255)
			remaining -= 255
		}
		out = append(out, byte(remaining))
	}
	out = append(out, data...)
	return out
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func i16(v int16) []byte { return u16(uint16(v)) }

func f32(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

// buildMinimalBody assembles a decompressed SCSP body with one bone named
// "root" and every other section empty, per §4.7's fixed layout.
func buildMinimalBody() []byte {
	var b []byte
	b = append(b, u32(157)...) // string_table_offset (relative)
	b = append(b, u32(5)...)   // string_table_length
	b = append(b, []byte("scsp")...)
	b = append(b, u32(0)...) // hdr_version
	b = append(b, make([]byte, 6)...)
	b = append(b, f32(800)...) // width @ 22
	b = append(b, f32(600)...) // height @ 26

	// hash/version/images_path/audio_path sit at their own scattered
	// absolute offsets (0x08+0x4A/0x4E/0x5A/0x5E), not consecutively
	// after height — this fixture mirrors the real, non-consecutive
	// layout so a wrong offset would actually be caught.
	b = append(b, make([]byte, (0x08+0x4A)-len(b))...)
	b = append(b, u32(absentOffset)...) // hash @ 0x08+0x4A
	b = append(b, u32(absentOffset)...) // version @ 0x08+0x4E
	b = append(b, make([]byte, (0x08+0x5A)-len(b))...)
	b = append(b, u32(absentOffset)...) // images_path @ 0x08+0x5A
	b = append(b, u32(absentOffset)...) // audio_path @ 0x08+0x5E
	b = append(b, make([]byte, sectionsStart-len(b))...) // pad to sectionsStart

	// bones: count=1
	b = append(b, u16(1)...)
	b = append(b, i16(0)...)  // index
	b = append(b, u32(0)...) // name_offset -> "root"
	b = append(b, i16(-1)...) // parent_index
	for _, v := range []float32{0, 0, 0, 0, 1, 1, 0, 0} {
		b = append(b, f32(v)...)
	}
	b = append(b, u16(0)...) // transform_mode
	b = append(b, byte(0))   // skin flag

	b = append(b, u16(0)...) // ik count
	b = append(b, u16(0)...) // slot count
	b = append(b, u16(0)...) // transform constraint count
	b = append(b, u16(0)...) // path constraint count
	b = append(b, u16(0)...) // skin count
	b = append(b, u16(0)...) // event count
	b = append(b, u16(0)...) // animation count

	b = append(b, []byte("root\x00")...)
	return b
}

func buildEnvelope(body []byte) []byte {
	encoded := encodeLZ4AllLiterals(body)
	var env []byte
	env = append(env, u32(uint32(len(body)))...)
	env = append(env, u32(uint32(len(encoded)))...)
	env = append(env, encoded...)
	return env
}

func TestDecodeMinimalDocument(t *testing.T) {
	body := buildMinimalBody()
	envelope := buildEnvelope(body)

	doc, err := Decode(envelope)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	skel, ok := doc.Get("skeleton")
	if !ok {
		t.Fatal("missing skeleton key")
	}
	skelMap := skel.(*OrderedMap)
	spineVal, _ := skelMap.Get("spine")
	if spineVal != defaultSpineVersion {
		t.Fatalf("spine version = %v, want default", spineVal)
	}
	widthVal, _ := skelMap.Get("width")
	if widthVal != 800.0 {
		t.Fatalf("width = %v, want 800", widthVal)
	}

	bonesVal, _ := doc.Get("bones")
	bones := bonesVal.([]*OrderedMap)
	if len(bones) != 1 {
		t.Fatalf("bones len = %d, want 1", len(bones))
	}
	nameVal, _ := bones[0].Get("name")
	if nameVal != "root" {
		t.Fatalf("bone name = %v, want root", nameVal)
	}
	if bones[0].Has("parent") {
		t.Fatal("root bone should not have a parent key")
	}

	eventsVal, _ := doc.Get("events")
	if eventsVal.(*OrderedMap).Len() != 0 {
		t.Fatal("expected no events")
	}
	animsVal, _ := doc.Get("animations")
	if animsVal.(*OrderedMap).Len() != 0 {
		t.Fatal("expected no animations")
	}
}

// buildBodyWithHeaderStrings is like buildMinimalBody but resolves real
// hash/version/images_path/audio_path strings from the scattered header
// offsets instead of leaving them absent, to exercise the real (wrong-until-
// fixed) field layout end to end.
func buildBodyWithHeaderStrings() []byte {
	var b []byte
	b = append(b, u32(157)...) // string_table_offset (relative): base = 157+8 = 165
	b = append(b, u32(35)...)  // string_table_length: covers root\0 + 4 more strings
	b = append(b, []byte("scsp")...)
	b = append(b, u32(0)...) // hdr_version
	b = append(b, make([]byte, 6)...)
	b = append(b, f32(800)...) // width @ 22
	b = append(b, f32(600)...) // height @ 26

	b = append(b, make([]byte, (0x08+0x4A)-len(b))...)
	b = append(b, u32(5)...)  // hash -> rel 5 ("hash123")
	b = append(b, u32(13)...) // version -> rel 13 ("3.8.75.scsp")
	b = append(b, make([]byte, (0x08+0x5A)-len(b))...)
	b = append(b, u32(25)...) // images_path -> rel 25 ("img/")
	b = append(b, u32(30)...) // audio_path -> rel 30 ("aud/")
	b = append(b, make([]byte, sectionsStart-len(b))...)

	// bones: count=1
	b = append(b, u16(1)...)
	b = append(b, i16(0)...) // index
	b = append(b, u32(0)...) // name_offset -> "root" at string-table rel 0
	b = append(b, i16(-1)...) // parent_index
	for _, v := range []float32{0, 0, 0, 0, 1, 1, 0, 0} {
		b = append(b, f32(v)...)
	}
	b = append(b, u16(0)...) // transform_mode
	b = append(b, byte(0))   // skin flag

	b = append(b, u16(0)...) // ik count
	b = append(b, u16(0)...) // slot count
	b = append(b, u16(0)...) // transform constraint count
	b = append(b, u16(0)...) // path constraint count
	b = append(b, u16(0)...) // skin count
	b = append(b, u16(0)...) // event count
	b = append(b, u16(0)...) // animation count

	// string table: base (165) must land exactly here.
	b = append(b, []byte("root\x00")...)
	b = append(b, []byte("hash123\x00")...)
	b = append(b, []byte("3.8.75.scsp\x00")...)
	b = append(b, []byte("img/\x00")...)
	b = append(b, []byte("aud/\x00")...)
	return b
}

func TestDecodeResolvesScatteredHeaderStringFields(t *testing.T) {
	body := buildBodyWithHeaderStrings()
	envelope := buildEnvelope(body)

	doc, err := Decode(envelope)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	skel, ok := doc.Get("skeleton")
	if !ok {
		t.Fatal("missing skeleton key")
	}
	skelMap := skel.(*OrderedMap)

	spineVal, _ := skelMap.Get("spine")
	if spineVal != "3.8.75" {
		t.Fatalf("spine = %v, want 3.8.75 (.scsp suffix stripped)", spineVal)
	}
	hashVal, _ := skelMap.Get("hash")
	if hashVal != "hash123" {
		t.Fatalf("hash = %v, want hash123", hashVal)
	}
	imagesVal, _ := skelMap.Get("images")
	if imagesVal != "img/" {
		t.Fatalf("images = %v, want img/", imagesVal)
	}
	audioVal, _ := skelMap.Get("audio")
	if audioVal != "aud/" {
		t.Fatalf("audio = %v, want aud/", audioVal)
	}
}

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("m", 3)
	got, err := m.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"z":1,"a":2,"m":3}`
	if string(got) != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestOrderedMapDelete(t *testing.T) {
	m := NewOrderedMap()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Delete("a")
	if m.Has("a") {
		t.Fatal("a should be deleted")
	}
	if m.Len() != 1 {
		t.Fatalf("len = %d, want 1", m.Len())
	}
}

func TestRoundFloatSnapsNearIntegers(t *testing.T) {
	if v := roundFloat(2.9999999); v != 3 {
		t.Fatalf("got %v, want 3", v)
	}
	if v := roundFloat(0.123456789); v != 0.123457 {
		t.Fatalf("got %v, want 0.123457", v)
	}
}

func TestMaybeAddCurveStepped(t *testing.T) {
	block := make([]float32, 19)
	block[0] = 1
	fr := NewOrderedMap()
	maybeAddCurve(0, block, fr)
	v, ok := fr.Get("curve")
	if !ok || v != "stepped" {
		t.Fatalf("curve = %v, want stepped", v)
	}
}

func TestMaybeAddCurveLinearOmitsField(t *testing.T) {
	block := make([]float32, 19) // block[0] == 0 -> linear
	fr := NewOrderedMap()
	maybeAddCurve(0, block, fr)
	if fr.Has("curve") {
		t.Fatal("linear curve should not emit a curve field")
	}
}

func TestVerticesJSONWeightedPacksStream(t *testing.T) {
	vs := vertexStream{
		bones: []int16{1, 0},              // one vertex, influenced by bone 0
		verts: []float32{1.5, 2.5, 1.0},    // x, y, weight
	}
	out := verticesJSON(vs).([]float32)
	want := []float32{1, 0, 1.5, 2.5, 1.0}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestVerticesJSONUnweightedIsFlat(t *testing.T) {
	vs := vertexStream{verts: []float32{1, 2, 3, 4}}
	out := verticesJSON(vs).([]float32)
	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
}

func TestParseDrawOrderTimelineFullPermutation(t *testing.T) {
	ctx := animContext{slotNames: map[int16]string{0: "a", 1: "b", 2: "c"}}

	var buf []byte
	buf = append(buf, u16(1)...) // fc = 1 time value
	buf = append(buf, f32(0)...)
	buf = append(buf, u16(1)...) // groups = 1
	buf = append(buf, u16(3)...) // c == slot count -> full permutation
	buf = append(buf, u32(2)...)
	buf = append(buf, u32(0)...)
	buf = append(buf, u32(1)...)

	r := binreader.New(buf)
	frames, err := parseDrawOrderTimeline(r, ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	offsetsVal, _ := frames[0].Get("offsets")
	offsets := offsetsVal.([]*OrderedMap)
	if len(offsets) == 0 {
		t.Fatal("expected at least one moved slot")
	}
}
