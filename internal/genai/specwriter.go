package genai

import (
	"context"
	"fmt"
	"strings"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
)

// SpecWriter turns a winning idea plus its brainstorming context into the two
// generated spec artifacts: requirement lists and an architecture sketch. The
// prompts force a line-oriented sectioned format so parsing stays trivial and
// tolerant of chatty model output.
type SpecWriter struct {
	completer Completer
}

// NewSpecWriter wires a SpecWriter to any Completer.
func NewSpecWriter(c Completer) *SpecWriter {
	return &SpecWriter{completer: c}
}

// GenerateRequirements asks the model for functional and non-functional
// requirements for the winning idea. Supporting notes give the model the
// brainstorming context.
func (w *SpecWriter) GenerateRequirements(ctx context.Context, idea string, notes []string) (domain.Requirements, error) {
	prompt := fmt.Sprintf(`You are a software requirements analyst in a design-thinking workshop.

The team's winning product idea:
"%s"
%s
Write the requirements for a first version of this product.

Respond in exactly this format, one requirement per line, no other text:
FUNCTIONAL:
- [requirement]
- [requirement]
NON-FUNCTIONAL:
- [requirement]
- [requirement]`, idea, notesSection(notes))

	text, err := w.completer.Complete(ctx, prompt)
	if err != nil {
		return domain.Requirements{}, err
	}
	reqs := parseRequirements(text)
	if len(reqs.Functional) == 0 && len(reqs.NonFunctional) == 0 {
		return domain.Requirements{}, fmt.Errorf("%w: no requirements in response", ErrUpstream)
	}
	return reqs, nil
}

// GenerateArchitecture asks the model for the four free-text architecture
// fields, grounded on the idea and its requirements.
func (w *SpecWriter) GenerateArchitecture(ctx context.Context, idea string, reqs domain.Requirements) (domain.Architecture, error) {
	prompt := fmt.Sprintf(`You are a software architect in a design-thinking workshop.

The team's winning product idea:
"%s"

Functional requirements:
%s

Sketch a pragmatic architecture for a first version.

Respond in exactly this format, one line per field, no other text:
FRONTEND: [one sentence]
BACKEND: [one sentence]
DATABASE: [one sentence]
DATAFLOW: [one or two sentences]`, idea, bulletList(reqs.Functional))

	text, err := w.completer.Complete(ctx, prompt)
	if err != nil {
		return domain.Architecture{}, err
	}
	arch := parseArchitecture(text)
	if arch == (domain.Architecture{}) {
		return domain.Architecture{}, fmt.Errorf("%w: no architecture fields in response", ErrUpstream)
	}
	return arch, nil
}

func notesSection(notes []string) string {
	if len(notes) == 0 {
		return ""
	}
	return "\nSupporting brainstorming notes:\n" + bulletList(notes) + "\n"
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseRequirements extracts the two bullet lists from the sectioned
// response. Unknown lines are ignored.
func parseRequirements(text string) domain.Requirements {
	out := domain.Requirements{Functional: []string{}, NonFunctional: []string{}}
	section := ""
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "NON-FUNCTIONAL"):
			section = "nonfunctional"
		case strings.HasPrefix(upper, "FUNCTIONAL"):
			section = "functional"
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*"):
			item := strings.TrimSpace(strings.TrimLeft(line, "-* "))
			if item == "" {
				continue
			}
			switch section {
			case "functional":
				out.Functional = append(out.Functional, item)
			case "nonfunctional":
				out.NonFunctional = append(out.NonFunctional, item)
			}
		}
	}
	return out
}

// parseArchitecture extracts the four labeled fields. Labels are matched
// case-insensitively; missing labels stay empty.
func parseArchitecture(text string) domain.Architecture {
	var arch domain.Architecture
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(label)) {
		case "FRONTEND":
			arch.Frontend = value
		case "BACKEND":
			arch.Backend = value
		case "DATABASE", "DB":
			arch.DB = value
		case "DATAFLOW", "DATA FLOW":
			arch.DataFlow = value
		}
	}
	return arch
}
