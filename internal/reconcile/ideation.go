package reconcile

import "github.com/designthinkr/go-workshop-backend/internal/domain"

// Position is the canvas coordinate pair in view shape. The wire shape stores
// x and y flat on the note.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UINote is a sticky note in view shape: the wire field "content" becomes
// "text" and the coordinates are nested under "position".
type UINote struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Position Position `json:"position"`
	Color    string   `json:"color,omitempty"`
	Rotation float64  `json:"rotation,omitempty"`
}

// UIArchitecture is the architecture block in view shape; the wire field "db"
// becomes "database".
type UIArchitecture struct {
	Frontend string `json:"frontend"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
	DataFlow string `json:"dataFlow"`
}

// UISpecs is the technical spec artifact in view shape.
type UISpecs struct {
	Requirements domain.Requirements `json:"requirements"`
	Architecture UIArchitecture      `json:"architecture"`
}

// UIState is the full ideation snapshot the editing surfaces (and the autosave
// orchestrator) operate on: the four slices plus flags derived from persisted
// booleans. MatrixVisible is view-only and never written back.
type UIState struct {
	Ideas          []UINote        `json:"ideas"`
	Matrix         UIMatrix        `json:"matrix"`
	WinningConcept *domain.IdeaRef `json:"winningConcept,omitempty"`
	TechSpec       UISpecs         `json:"techSpec"`
	IsFinished     bool            `json:"isFinished"`
	MatrixVisible  bool            `json:"matrixVisible"`
}

// NoteToUI renames wire fields into view fields.
func NoteToUI(n domain.Note) UINote {
	return UINote{
		ID:       n.ID,
		Text:     n.Content,
		Position: Position{X: n.X, Y: n.Y},
		Color:    n.Color,
		Rotation: n.Rotation,
	}
}

// NoteFromUI is the inverse of NoteToUI.
func NoteFromUI(n UINote) domain.Note {
	return domain.Note{
		ID:       n.ID,
		Content:  n.Text,
		X:        n.Position.X,
		Y:        n.Position.Y,
		Color:    n.Color,
		Rotation: n.Rotation,
	}
}

// NotesToUI converts a whole note list, always returning a non-nil slice.
func NotesToUI(notes []domain.Note) []UINote {
	out := make([]UINote, 0, len(notes))
	for _, n := range notes {
		out = append(out, NoteToUI(n))
	}
	return out
}

// NotesFromUI is the inverse of NotesToUI.
func NotesFromUI(notes []UINote) []domain.Note {
	out := make([]domain.Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, NoteFromUI(n))
	}
	return out
}

// SpecsToUI renames the architecture "db" field into "database".
func SpecsToUI(s domain.Specs) UISpecs {
	return UISpecs{
		Requirements: cloneRequirements(s.Requirements),
		Architecture: UIArchitecture{
			Frontend: s.Architecture.Frontend,
			Backend:  s.Architecture.Backend,
			Database: s.Architecture.DB,
			DataFlow: s.Architecture.DataFlow,
		},
	}
}

// SpecsFromUI is the inverse of SpecsToUI.
func SpecsFromUI(s UISpecs) domain.Specs {
	return domain.Specs{
		Requirements: cloneRequirements(s.Requirements),
		Architecture: domain.Architecture{
			Frontend: s.Architecture.Frontend,
			Backend:  s.Architecture.Backend,
			DB:       s.Architecture.Database,
			DataFlow: s.Architecture.DataFlow,
		},
	}
}

// ToUI maps a stored ideation record into the full view snapshot. The
// MatrixVisible flag is derived: the matrix opens once brainstorming is
// finished.
func ToUI(rec *domain.Ideation) UIState {
	return UIState{
		Ideas:          NotesToUI(rec.Brainstorming.Notes),
		Matrix:         MatrixToUI(rec.Matrix),
		WinningConcept: rec.Matrix.WinningSolution,
		TechSpec:       SpecsToUI(rec.Specs),
		IsFinished:     rec.Brainstorming.IsFinished,
		MatrixVisible:  rec.Brainstorming.IsFinished,
	}
}

// FromUI maps a view snapshot back into the three wire blocks of the ideation
// record. WinningConcept takes precedence over whatever the matrix view
// carries, since the winning-idea picker edits the former.
func FromUI(s UIState) (domain.Brainstorming, domain.Matrix, domain.Specs) {
	b := domain.Brainstorming{
		Notes:      NotesFromUI(s.Ideas),
		IsFinished: s.IsFinished,
	}
	m := MatrixFromUI(s.Matrix)
	if s.WinningConcept != nil {
		m.WinningSolution = s.WinningConcept
	}
	return b, m, SpecsFromUI(s.TechSpec)
}

func cloneRequirements(r domain.Requirements) domain.Requirements {
	out := domain.Requirements{
		Functional:    make([]string, len(r.Functional)),
		NonFunctional: make([]string, len(r.NonFunctional)),
	}
	copy(out.Functional, r.Functional)
	copy(out.NonFunctional, r.NonFunctional)
	return out
}
