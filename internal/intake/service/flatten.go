package service

import (
	"strconv"

	"caseflow/internal/intake/form"
)

// Flatten serializes the record into the backend's typeSpecificData shape:
// root fields at the top level, the on-behalf-of selection as an array,
// and only the in-range person overlays under "persons". Stale overlays
// beyond the current person count never leave the draft.
func Flatten(r form.Record) map[string]any {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		out[k] = v
	}
	out["onBehalfOf"] = append([]string{}, r.OnBehalfOf...)

	count := r.NumberOfPersons()
	persons := make(map[string]map[string]string)
	for idx := 2; idx <= count; idx++ {
		overlay, ok := r.Persons[idx]
		if !ok {
			continue
		}
		dup := make(map[string]string, len(overlay))
		for k, v := range overlay {
			dup[k] = v
		}
		persons[strconv.Itoa(idx)] = dup
	}
	if len(persons) > 0 {
		out["persons"] = persons
	}
	return out
}

// RecordFromPayload rebuilds a record from a previously flattened payload,
// used when opening a saved intake for editing. Unknown value shapes are
// skipped rather than failing the whole rehydration.
func RecordFromPayload(data map[string]any) form.Record {
	r := form.NewRecord()
	for k, v := range data {
		switch k {
		case "onBehalfOf":
			r.OnBehalfOf = toStringSlice(v)
		case "persons":
			r.Persons = toPersons(v)
		default:
			if s, ok := v.(string); ok {
				r.Fields[k] = s
			}
		}
	}
	return r
}

func toStringSlice(v any) []string {
	out := []string{}
	switch vv := v.(type) {
	case []string:
		out = append(out, vv...)
	case []any:
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func toPersons(v any) map[int]form.Values {
	out := map[int]form.Values{}
	raw, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for key, overlayAny := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 2 || idx > form.MaxSubjects {
			continue
		}
		overlay := form.Values{}
		switch ov := overlayAny.(type) {
		case map[string]any:
			for k, val := range ov {
				if s, ok := val.(string); ok {
					overlay[k] = s
				}
			}
		case map[string]string:
			for k, s := range ov {
				overlay[k] = s
			}
		default:
			continue
		}
		out[idx] = overlay
	}
	return out
}
