// Package services – checklist auto-verification
//
// Several checklist items are derived from data rather than user-toggled:
// "created a persona" is true iff the personas list is non-empty, and so on.
// On every stage-data read the derived value is recomputed; when it disagrees
// with the persisted boolean a set mutation reconciles it. The persisted flag
// is a self-healing cache of the data, never a source of truth.
package services

import "github.com/designthinkr/go-workshop-backend/internal/stagedoc"

// checklistFix is one pending reconciliation: write Value at Ref.
type checklistFix struct {
	Ref   stagedoc.Ref
	Value bool
}

// derivedChecklistRules computes every derived checklist item from the
// current bag. Rules live here so adding one is a single entry.
var derivedChecklistRules = []struct {
	stage string
	item  string
	check func(stage map[string]any) bool
}{
	{"empathize", "createdPersona", func(st map[string]any) bool {
		return listLen(st["personas"]) > 0
	}},
	{"empathize", "conductedInterview", func(st map[string]any) bool {
		return listLen(st["interviews"]) > 0
	}},
	{"empathize", "completedEmpathyMap", func(st map[string]any) bool {
		return anyQuadrantFilled(st["empathyMaps"])
	}},
}

// verifyChecklist compares the derived value of every rule against the
// persisted boolean and returns the fixes needed to reconcile them. A missing
// checklist entry counts as false.
func verifyChecklist(bag map[string]any) []checklistFix {
	var fixes []checklistFix
	for _, rule := range derivedChecklistRules {
		stage, _ := bag[rule.stage].(map[string]any)
		derived := false
		if stage != nil {
			derived = rule.check(stage)
		}
		if persistedChecklistItem(stage, rule.item) != derived {
			fixes = append(fixes, checklistFix{
				Ref:   stagedoc.NewRef(rule.stage, "checklist."+rule.item),
				Value: derived,
			})
		}
	}
	return fixes
}

func persistedChecklistItem(stage map[string]any, item string) bool {
	if stage == nil {
		return false
	}
	checklist, _ := stage["checklist"].(map[string]any)
	if checklist == nil {
		return false
	}
	v, _ := checklist[item].(bool)
	return v
}

func listLen(v any) int {
	list, _ := v.([]any)
	return len(list)
}

// anyQuadrantFilled walks empathyMaps (persona-id → {user|ai} → quadrant →
// notes) and reports whether any quadrant list holds at least one note.
func anyQuadrantFilled(v any) bool {
	maps, _ := v.(map[string]any)
	for _, perPersona := range maps {
		types, _ := perPersona.(map[string]any)
		for _, perType := range types {
			quadrants, _ := perType.(map[string]any)
			for _, notes := range quadrants {
				if listLen(notes) > 0 {
					return true
				}
			}
		}
	}
	return false
}
