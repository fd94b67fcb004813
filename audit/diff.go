package audit

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Diff computes the field-level changes between two snapshots of the same
// entity. Both are flattened through their JSON form, so the recorded field
// names match the wire names and nested structs compare as values. For a
// create pass nil before; for a delete pass nil after.
func Diff(before, after any) (map[string]FieldChange, error) {
	bm, err := toMap(before)
	if err != nil {
		return nil, err
	}
	am, err := toMap(after)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]FieldChange)
	for k, bv := range bm {
		av, ok := am[k]
		if !ok {
			changes[k] = FieldChange{From: bv, To: nil}
			continue
		}
		if !reflect.DeepEqual(bv, av) {
			changes[k] = FieldChange{From: bv, To: av}
		}
	}
	for k, av := range am {
		if _, ok := bm[k]; !ok {
			changes[k] = FieldChange{From: nil, To: av}
		}
	}
	if len(changes) == 0 {
		return nil, nil
	}
	return changes, nil
}

func toMap(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("audit: marshal snapshot: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("audit: snapshot is not an object: %w", err)
	}
	return m, nil
}
