// Package services – MessageService
//
// This file implements MessageService, the application-level component that
// owns the append-only coach conversation of a project. It validates inputs,
// checks project membership, and persists chat turns.
//
// Optional enhancement: it also auto-generates a project title from the first
// user turn when the project still has a default/empty title.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// include project/user identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/designthinkr/go-workshop-backend/internal/domain"
	"github.com/designthinkr/go-workshop-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	senderUser  = "user"
	senderCoach = "coach"
)

// MessageService coordinates chat-turn persistence for a project.
type MessageService struct {
	DB *gorm.DB

	// Optional guards
	MaxTextRunes int

	// Title generation config
	TitleLocale language.Tag
	TitleMaxLen int
}

// Append validates and stores one chat turn. The first user turn on a project
// that still carries a placeholder title also sets a generated title.
func (s *MessageService) Append(ctx context.Context, userID, projectID, sender, text string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.String("user.id", userID),
			attribute.String("sender", sender),
		),
	)
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(text) > s.MaxTextRunes {
		return nil, ErrMessageTooLong
	}
	if sender != senderUser && sender != senderCoach {
		return nil, ErrInvalidSender
	}

	if _, err := memberShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, err
	}
	p, err := repo.GetProject(ctx, s.DB, projectID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	var msg *domain.Message
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := repo.AppendMessage(ctx, tx, projectID, sender, text)
		if err != nil {
			return err
		}
		msg = m

		// Auto-title if placeholder, from the first user turn
		if sender == senderUser && s.shouldAutoTitle(p.Title) {
			if gen := s.generateTitle(text); gen != "" {
				return tx.Model(&domain.Project{}).
					Where("id = ?", projectID).
					Update("title", gen).Error
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ListPage returns paginated chat turns for a project, chronological order.
func (s *MessageService) ListPage(ctx context.Context, userID, projectID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	if _, err := memberShare(ctx, s.DB, projectID, userID); err != nil {
		return nil, 0, err
	}
	total, err := repo.CountMessages(ctx, s.DB, projectID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := repo.ListMessagesPage(ctx, s.DB, projectID, offset, pageSize)
	return items, total, err
}

// shouldAutoTitle reports whether the current title is a placeholder.
func (s *MessageService) shouldAutoTitle(current string) bool {
	t := strings.TrimSpace(strings.ToLower(current))
	return t == "" || t == strings.ToLower(defaultProjectTitle)
}

// generateTitle derives a concise title from the first chat turn.
func (s *MessageService) generateTitle(text string) string {
	toks := titleWordRE.FindAllString(strings.ToLower(text), -1)
	if len(toks) == 0 {
		return ""
	}

	titleCaser := cases.Title(s.titleLocaleOrDefault())
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	if len(out) == 0 {
		return ""
	}
	return s.clipTitle(strings.Join(out, " "))
}

// clipTitle truncates a generated title to the configured maximum rune length.
func (s *MessageService) clipTitle(title string) string {
	max := s.TitleMaxLen
	if max <= 0 {
		max = 60
	}
	if utf8.RuneCountInString(title) > max {
		return string([]rune(title)[:max])
	}
	return title
}

func (s *MessageService) titleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// Extract Unicode letters with optional trailing numbers (e.g., "q3").
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// Minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
	"i": {}, "we": {}, "my": {}, "our": {}, "want": {}, "need": {}, "help": {},
}
