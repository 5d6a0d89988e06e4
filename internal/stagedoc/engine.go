package stagedoc

import (
	"fmt"
)

// Apply performs one mutation against the bag, in place. The bag is the whole
// stageData document (phase key → nested mapping); Apply touches only the
// sub-tree addressed by ref.
//
// Semantics per action:
//   - set: replace the value at the path, creating intermediate maps as
//     needed. A non-map intermediate is overwritten by a fresh map (legacy
//     records may hold scalars where newer clients expect containers).
//   - push: append value to the list at the path, creating the list (and
//     intermediates) if absent. An existing non-list target is ErrNotList.
//   - pull: remove the element whose id matches the value's id. A missing
//     list or element is a no-op, never an error.
//   - update_in_array: locate the element by id and set one named sub-field
//     of it. Missing list or element is a no-op.
//
// Apply never returns a partial result: validation errors are reported before
// the bag is touched.
func Apply(bag map[string]any, ref Ref, action Action, value any) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	segs := ref.segments()
	stage := stageTree(bag, ref.Stage.String())

	switch action {
	case ActionSet:
		applySet(stage, segs, value)
		return nil
	case ActionPush:
		return applyPush(stage, segs, value)
	case ActionPull:
		id, ok := idOf(value)
		if !ok {
			return fmt.Errorf("%w: pull requires an id", ErrInvalidValue)
		}
		applyPull(stage, segs, id)
		return nil
	case ActionUpdateInArray:
		return applyUpdateInArray(stage, segs, value)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
}

// StageTree returns the sub-tree of the bag owned by stage, creating an empty
// one if absent. Callers get the live map, not a copy.
func StageTree(bag map[string]any, stage string) map[string]any {
	return stageTree(bag, stage)
}

func stageTree(bag map[string]any, stage string) map[string]any {
	if m, ok := bag[stage].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	bag[stage] = m
	return m
}

// descend walks the path down to the parent of the leaf segment. When create
// is false it returns nil as soon as a step is missing or not a map.
func descend(node map[string]any, segs []string, create bool) map[string]any {
	for _, s := range segs {
		child, ok := node[s].(map[string]any)
		if !ok {
			if !create {
				return nil
			}
			child = map[string]any{}
			node[s] = child
		}
		node = child
	}
	return node
}

func applySet(stage map[string]any, segs []string, value any) {
	parent := descend(stage, segs[:len(segs)-1], true)
	parent[segs[len(segs)-1]] = value
}

func applyPush(stage map[string]any, segs []string, value any) error {
	parent := descend(stage, segs[:len(segs)-1], true)
	leaf := segs[len(segs)-1]
	cur, exists := parent[leaf]
	if !exists || cur == nil {
		parent[leaf] = []any{value}
		return nil
	}
	list, ok := cur.([]any)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotList, leaf)
	}
	parent[leaf] = append(list, value)
	return nil
}

func applyPull(stage map[string]any, segs []string, id string) {
	parent := descend(stage, segs[:len(segs)-1], false)
	if parent == nil {
		return
	}
	leaf := segs[len(segs)-1]
	list, ok := parent[leaf].([]any)
	if !ok {
		return
	}
	out := list[:0]
	for _, el := range list {
		if elID, ok := idOf(el); ok && elID == id {
			continue
		}
		out = append(out, el)
	}
	parent[leaf] = out
}

func applyUpdateInArray(stage map[string]any, segs []string, value any) error {
	spec, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("%w: update_in_array requires an object value", ErrInvalidValue)
	}
	id, ok := idOf(spec)
	if !ok {
		return fmt.Errorf("%w: update_in_array requires an id", ErrInvalidValue)
	}
	fieldName, ok := spec["fieldToUpdate"].(string)
	if !ok || fieldName == "" {
		return fmt.Errorf("%w: update_in_array requires fieldToUpdate", ErrInvalidValue)
	}
	newValue, ok := spec["newValue"]
	if !ok {
		return fmt.Errorf("%w: update_in_array requires newValue", ErrInvalidValue)
	}

	parent := descend(stage, segs[:len(segs)-1], false)
	if parent == nil {
		return nil
	}
	list, ok := parent[segs[len(segs)-1]].([]any)
	if !ok {
		return nil
	}
	for _, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if elID, ok := idOf(obj); ok && elID == id {
			obj[fieldName] = newValue
			return nil
		}
	}
	// Element gone (e.g. pulled by a concurrent widget): idempotent no-op.
	return nil
}

// idOf extracts the stable id of a list element or mutation value. Objects
// carry it under "id"; a bare string is accepted as the id itself, which lets
// pull take either {"id":"p1"} or "p1".
func idOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case map[string]any:
		switch id := t["id"].(type) {
		case string:
			return id, id != ""
		case float64:
			// JSON numbers decode as float64; normalize for comparison.
			return fmt.Sprintf("%v", id), true
		}
	}
	return "", false
}
