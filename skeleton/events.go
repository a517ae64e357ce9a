package skeleton

import "github.com/packhound/scape/binreader"

// parseEvents reads the events section into an ordered name->definition
// map, and records an index->name table for animation event timelines.
func parseEvents(r *binreader.Reader, st stringTable) (*OrderedMap, map[int]string, error) {
	count, err := r.U16()
	if err != nil {
		return nil, nil, err
	}

	events := NewOrderedMap()
	names := make(map[int]string, count)

	for e := uint16(0); e < count; e++ {
		nameOff, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		name := st.resolve(nameOff)

		intData, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		floatData, err := r.F32()
		if err != nil {
			return nil, nil, err
		}
		stringOff, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		audioOff, err := r.U32()
		if err != nil {
			return nil, nil, err
		}
		volume, err := r.F32()
		if err != nil {
			return nil, nil, err
		}
		balance, err := r.F32()
		if err != nil {
			return nil, nil, err
		}

		if name == "" {
			continue
		}

		evt := NewOrderedMap()
		evt.Set("int", intData)
		evt.Set("float", roundFloat(float64(floatData)))
		evt.Set("string", st.resolve(stringOff))
		evt.Set("audio", st.resolve(audioOff))
		evt.Set("volume", roundFloat(float64(volume)))
		evt.Set("balance", roundFloat(float64(balance)))

		events.Set(name, evt)
		names[int(e)] = name
	}

	return events, names, nil
}
