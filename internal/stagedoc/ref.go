// Package stagedoc implements the path-addressed mutation engine for the
// free-form stage-data bag. A mutation targets one (stage, field) pair inside
// the nested document and is one of four kinds: set, push, pull, or
// update_in_array. The engine is pure data manipulation; persistence and
// atomicity are the repository's concern.
package stagedoc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

// Validation errors returned by Ref.Validate and Apply. Handlers map these to
// HTTP 400 responses.
var (
	// ErrInvalidStage is returned when the stage is not one of the five phases.
	ErrInvalidStage = errors.New("unknown stage")

	// ErrInvalidField is returned when the field path is empty or its first
	// segment is not addressable under the given stage.
	ErrInvalidField = errors.New("invalid field path")

	// ErrInvalidAction is returned for action strings outside the closed set.
	ErrInvalidAction = errors.New("unknown action")

	// ErrInvalidValue is returned when the mutation value is missing a part the
	// action requires (an id for pull/update_in_array, a fieldToUpdate name).
	ErrInvalidValue = errors.New("invalid mutation value")

	// ErrNotList is returned when push addresses an existing non-list value.
	ErrNotList = errors.New("target is not a list")
)

// Action is the closed set of mutation kinds.
type Action string

const (
	ActionSet           Action = "set"
	ActionPush          Action = "push"
	ActionPull          Action = "pull"
	ActionUpdateInArray Action = "update_in_array"
)

// ParseAction maps the wire action string to an Action. An empty string means
// a plain set, matching the PATCH contract where action is optional.
func ParseAction(s string) (Action, error) {
	switch Action(strings.TrimSpace(s)) {
	case "", ActionSet:
		return ActionSet, nil
	case ActionPush:
		return ActionPush, nil
	case ActionPull:
		return ActionPull, nil
	case ActionUpdateInArray:
		return ActionUpdateInArray, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
}

// stageRoots lists the addressable top-level fields of each stage sub-tree.
// Free-form dot paths below a root are allowed (e.g. empathyMaps.<personaId>.
// user.says), but the root itself is a closed set so a typo cannot silently
// grow an unintended branch of the document.
var stageRoots = map[domain.Phase]map[string]struct{}{
	domain.PhaseEmpathize: {
		"personas":    {},
		"aiPersonas":  {},
		"interviews":  {},
		"empathyMaps": {},
		"checklist":   {},
	},
	domain.PhaseDefine: {
		"povStatements": {},
		"hmwQuestions":  {},
		"checklist":     {},
	},
	domain.PhaseIdeate: {
		"checklist": {},
	},
	domain.PhasePrototype: {
		"artifacts": {},
		"checklist": {},
	},
	domain.PhaseTest: {
		"feedbackMatrix": {},
		"checklist":      {},
	},
}

// Ref addresses one field inside one stage sub-tree. Field is a dot-delimited
// path relative to the stage, e.g. "checklist.createdPersona" or
// "empathyMaps.p1.user.says".
type Ref struct {
	Stage domain.Phase
	Field string
}

// NewRef builds a Ref from wire strings. It does not validate; call Validate.
func NewRef(stage, field string) Ref {
	return Ref{Stage: domain.Phase(strings.TrimSpace(stage)), Field: strings.TrimSpace(field)}
}

// Validate checks the stage against the phase set and the first path segment
// against the stage's addressable roots.
func (r Ref) Validate() error {
	roots, ok := stageRoots[r.Stage]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidStage, r.Stage)
	}
	segs := r.segments()
	if len(segs) == 0 || segs[0] == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidField)
	}
	if _, ok := roots[segs[0]]; !ok {
		return fmt.Errorf("%w: %q is not addressable under stage %q", ErrInvalidField, segs[0], r.Stage)
	}
	return nil
}

// segments splits the dot path, dropping empty segments from stray dots.
func (r Ref) segments() []string {
	raw := strings.Split(r.Field, ".")
	segs := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
