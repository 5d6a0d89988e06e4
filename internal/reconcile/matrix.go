// Package reconcile translates between the ideation record's fixed wire shape
// and the view shape the editing surfaces work with, in both directions and
// without loss. The two shapes differ only syntactically (renamed fields,
// bucket names vs. quadrant ids), so every conversion here is a pure function
// and round-tripping with no intervening edit is a no-op.
//
// It also owns the tolerant decoding of historical records whose stored matrix
// predates the current four-bucket shape: those degrade into an "unassigned"
// list instead of failing the read.
package reconcile

import (
	"sort"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

// Quadrant ids used by the view shape. The first coordinate is impact, the
// second effort: quick wins are high impact at low effort.
const (
	QuadrantHighLow  = "high-low"
	QuadrantHighHigh = "high-high"
	QuadrantLowLow   = "low-low"
	QuadrantLowHigh  = "low-high"
)

// bucketOrder is the canonical bucket iteration order. Deduplication and
// quadrant mapping both rely on it being stable.
var bucketOrder = []string{"quickWins", "majorProjects", "fillIns", "thanklessTasks"}

var quadrantByBucket = map[string]string{
	"quickWins":      QuadrantHighLow,
	"majorProjects":  QuadrantHighHigh,
	"fillIns":        QuadrantLowLow,
	"thanklessTasks": QuadrantLowHigh,
}

var bucketByQuadrant = map[string]string{
	QuadrantHighLow:  "quickWins",
	QuadrantHighHigh: "majorProjects",
	QuadrantLowLow:   "fillIns",
	QuadrantLowHigh:  "thanklessTasks",
}

// UIMatrix is the prioritization matrix in view shape: geometric quadrant ids
// instead of named buckets. Unassigned collects ideas recovered from legacy
// records that no longer map onto a known bucket.
type UIMatrix struct {
	Quadrants       map[string][]domain.IdeaRef `json:"quadrants"`
	WinningSolution *domain.IdeaRef             `json:"winningSolution,omitempty"`
	Unassigned      []domain.IdeaRef            `json:"unassigned,omitempty"`
}

// MatrixToUI converts the wire matrix into quadrant form. All four quadrants
// are always present with non-nil slices.
func MatrixToUI(m domain.Matrix) UIMatrix {
	out := UIMatrix{
		Quadrants:       make(map[string][]domain.IdeaRef, len(bucketOrder)),
		WinningSolution: m.WinningSolution,
	}
	for _, bucket := range bucketOrder {
		refs := *bucketSlice(&m, bucket)
		q := make([]domain.IdeaRef, len(refs))
		copy(q, refs)
		out.Quadrants[quadrantByBucket[bucket]] = q
	}
	return out
}

// MatrixFromUI converts the view shape back to wire buckets. Unrecognized
// quadrant keys are dropped, never invented as new buckets; unassigned ideas
// are likewise dropped (they re-enter the matrix only once the user re-places
// them in a quadrant).
func MatrixFromUI(u UIMatrix) domain.Matrix {
	m := emptyMatrix()
	m.WinningSolution = u.WinningSolution
	for quadrant, refs := range u.Quadrants {
		bucket, ok := bucketByQuadrant[quadrant]
		if !ok {
			continue
		}
		dst := bucketSlice(&m, bucket)
		*dst = append(*dst, refs...)
	}
	return m
}

// CoerceMatrix decodes an untyped matrix value from a request body or a
// historical record. The current view shape (a "quadrants" wrapper) and the
// wire four-bucket object decode normally; any other object of arrays is
// flattened into the Unassigned list, and a bare array is treated the same
// way. Anything else yields an empty matrix. It never fails.
func CoerceMatrix(v any) UIMatrix {
	switch raw := v.(type) {
	case map[string]any:
		if quads, ok := raw["quadrants"].(map[string]any); ok {
			return decodeQuadrants(raw, quads)
		}
		if hasKnownBucket(raw) {
			return MatrixToUI(decodeBuckets(raw))
		}
		// Historical shape: some object of arrays. Flatten every array value
		// into a single unassigned list, preserving encounter order per key.
		out := MatrixToUI(emptyMatrix())
		for _, key := range sortedKeys(raw) {
			list, ok := raw[key].([]any)
			if !ok {
				continue
			}
			out.Unassigned = append(out.Unassigned, decodeRefs(list)...)
		}
		return out
	case []any:
		out := MatrixToUI(emptyMatrix())
		out.Unassigned = decodeRefs(raw)
		return out
	default:
		return MatrixToUI(emptyMatrix())
	}
}

// DedupeMatrix enforces the disjoint-bucket invariant on an incoming matrix.
// When an idea id appears in more than one bucket of next, the occurrence kept
// is the one that differs from the idea's bucket in prev (a drag move keeps
// its destination); with no usable prev assignment the first bucket in
// canonical order wins. Order within each bucket is preserved.
func DedupeMatrix(next, prev domain.Matrix) domain.Matrix {
	prevBucket := make(map[string]string)
	for _, bucket := range bucketOrder {
		for _, ref := range *bucketSlice(&prev, bucket) {
			prevBucket[ref.ID] = bucket
		}
	}

	chosen := make(map[string]string)
	for _, bucket := range bucketOrder {
		for _, ref := range *bucketSlice(&next, bucket) {
			cur, ok := chosen[ref.ID]
			if !ok {
				chosen[ref.ID] = bucket
				continue
			}
			// Prefer the bucket that differs from the previous assignment:
			// that is the drag destination.
			if cur == prevBucket[ref.ID] && bucket != prevBucket[ref.ID] {
				chosen[ref.ID] = bucket
			}
		}
	}

	out := emptyMatrix()
	out.WinningSolution = next.WinningSolution
	kept := make(map[string]bool)
	for _, bucket := range bucketOrder {
		for _, ref := range *bucketSlice(&next, bucket) {
			if chosen[ref.ID] != bucket || kept[ref.ID] {
				continue
			}
			kept[ref.ID] = true
			dst := bucketSlice(&out, bucket)
			*dst = append(*dst, ref)
		}
	}
	return out
}

// decodeQuadrants reads the view wrapper shape. Unknown quadrant ids are
// dropped, matching MatrixFromUI.
func decodeQuadrants(raw, quads map[string]any) UIMatrix {
	out := MatrixToUI(emptyMatrix())
	for quadrant, v := range quads {
		if _, ok := bucketByQuadrant[quadrant]; !ok {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		out.Quadrants[quadrant] = decodeRefs(list)
	}
	if win, ok := raw["winningSolution"].(map[string]any); ok {
		if id, ok := win["id"].(string); ok && id != "" {
			out.WinningSolution = &domain.IdeaRef{ID: id}
		}
	}
	if un, ok := raw["unassigned"].([]any); ok {
		out.Unassigned = decodeRefs(un)
	}
	return out
}

func emptyMatrix() domain.Matrix {
	return domain.Matrix{
		QuickWins:      []domain.IdeaRef{},
		MajorProjects:  []domain.IdeaRef{},
		FillIns:        []domain.IdeaRef{},
		ThanklessTasks: []domain.IdeaRef{},
	}
}

// bucketSlice maps a bucket name onto the matrix field holding it.
func bucketSlice(m *domain.Matrix, bucket string) *[]domain.IdeaRef {
	switch bucket {
	case "quickWins":
		return &m.QuickWins
	case "majorProjects":
		return &m.MajorProjects
	case "fillIns":
		return &m.FillIns
	case "thanklessTasks":
		return &m.ThanklessTasks
	}
	panic("reconcile: unknown bucket " + bucket)
}

func sortedKeys(raw map[string]any) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hasKnownBucket(raw map[string]any) bool {
	for _, bucket := range bucketOrder {
		if _, ok := raw[bucket]; ok {
			return true
		}
	}
	_, ok := raw["winningSolution"]
	return ok
}

func decodeBuckets(raw map[string]any) domain.Matrix {
	m := emptyMatrix()
	for _, bucket := range bucketOrder {
		if list, ok := raw[bucket].([]any); ok {
			dst := bucketSlice(&m, bucket)
			*dst = append(*dst, decodeRefs(list)...)
		}
	}
	if win, ok := raw["winningSolution"].(map[string]any); ok {
		if id, ok := win["id"].(string); ok && id != "" {
			m.WinningSolution = &domain.IdeaRef{ID: id}
		}
	}
	return m
}

// decodeRefs extracts idea references from an untyped list; elements may be
// bare string ids or objects carrying an id field. Unusable elements are
// skipped.
func decodeRefs(list []any) []domain.IdeaRef {
	out := make([]domain.IdeaRef, 0, len(list))
	for _, el := range list {
		switch v := el.(type) {
		case string:
			out = append(out, domain.IdeaRef{ID: v})
		case map[string]any:
			if id, ok := v["id"].(string); ok && id != "" {
				out = append(out, domain.IdeaRef{ID: id})
			}
		}
	}
	return out
}
