// Package skeleton decodes the pack's Spine-like skeleton binary format
// (SCSP) into a JSON document shaped like a Spine 3.x skeleton export.
package skeleton

import (
	"github.com/packhound/scape/binreader"
)

const defaultSpineVersion = "3.8.79"

// Decode decompresses and parses an SCSP blob into a Spine-shaped JSON
// document, preserving field insertion order the way the source format's
// own ordered-JSON export does.
func Decode(data []byte) (*OrderedMap, error) {
	body, err := decompressEnvelope(data)
	if err != nil && len(body) == 0 {
		return nil, err
	}

	hdr, st, err := parseHeader(body)
	if err != nil {
		return nil, err
	}

	r := binreader.New(body)
	if err := r.Seek(sectionsStart); err != nil {
		return nil, err
	}

	bones, boneNames, err := parseBones(r, st)
	if err != nil {
		return nil, err
	}

	ikConstraints, ikNames, err := parseIKConstraints(r, st)
	if err != nil {
		return nil, err
	}

	slots, slotNames, err := parseSlots(r, st, boneNames)
	if err != nil {
		return nil, err
	}

	transformConstraints, transformNames, err := parseTransformConstraints(r, st)
	if err != nil {
		return nil, err
	}

	pathConstraints, pathNames, err := parsePathConstraintsWithNames(r, st)
	if err != nil {
		return nil, err
	}

	skins, skinNames, attachmentMeta, err := parseSkins(r, st, slotNames, hdr.version)
	if err != nil {
		return nil, err
	}

	events, eventNames, err := parseEvents(r, st)
	if err != nil {
		return nil, err
	}
	_ = eventNames

	animations, err := parseAnimations(r, st, animContext{
		boneNames:      boneNames,
		slotNames:      slotNames,
		skinNames:      skinNames,
		ikNames:        ikNames,
		transformNames: transformNames,
		pathNames:      pathNames,
		attachmentMeta: attachmentMeta,
		hdrVersion:     hdr.version,
	})
	if err != nil {
		return nil, err
	}

	skeletonMeta := NewOrderedMap()
	version := hdr.ver
	if version == "" {
		version = defaultSpineVersion
	}
	skeletonMeta.Set("spine", version)
	skeletonMeta.Set("x", 0.0)
	skeletonMeta.Set("y", 0.0)
	if hdr.width != 0 {
		skeletonMeta.Set("width", roundFloat(float64(hdr.width)))
	}
	if hdr.height != 0 {
		skeletonMeta.Set("height", roundFloat(float64(hdr.height)))
	}
	if hdr.hash != "" {
		skeletonMeta.Set("hash", hdr.hash)
	}
	if hdr.imagesPath != "" {
		skeletonMeta.Set("images", hdr.imagesPath)
	}
	if hdr.audioPath != "" {
		skeletonMeta.Set("audio", hdr.audioPath)
	}

	result := NewOrderedMap()
	result.Set("skeleton", skeletonMeta)
	result.Set("bones", bonesJSON(bones, boneNames))
	result.Set("ik", ikJSON(ikConstraints, boneNames))
	result.Set("slots", slotsJSON(slots, boneNames))
	result.Set("transform", transformConstraintsJSON(transformConstraints, boneNames))
	result.Set("path", pathConstraintsJSON(pathConstraints, boneNames, slotNames))
	result.Set("skins", skins)
	result.Set("events", events)
	result.Set("animations", animations)
	return result, nil
}
