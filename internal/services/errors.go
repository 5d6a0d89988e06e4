// Package services defines the business logic for workshop projects, stage
// documents, ideation records, and coach messages. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Project-related errors.
var (
	// ErrProjectNotFound indicates that the requested project does not exist
	// or is not accessible to the current user.
	ErrProjectNotFound = errors.New("project not found")

	// ErrForbidden is returned when the caller is a member of the project but
	// lacks the permission the operation requires (owner-only operations).
	ErrForbidden = errors.New("insufficient permission")

	// ErrTitleTooLong is returned when a project title exceeds the configured
	// maximum rune length.
	ErrTitleTooLong = errors.New("title too long")

	// ErrInvalidPhase is returned when a phase value is outside the fixed
	// five-phase sequence.
	ErrInvalidPhase = errors.New("invalid phase")

	// ErrPhaseNotNext is returned when a phase change request skips ahead or
	// moves backwards; the sequence only advances one step at a time.
	ErrPhaseNotNext = errors.New("phase can only advance to the next stage")

	// ErrInvalidPermission is returned when a share request carries a
	// permission outside the allowed set.
	ErrInvalidPermission = errors.New("permission must be basic or owner")
)

// Stage-document errors.
var (
	// ErrVersionConflict is returned when a whole-stage replace carries a
	// stale expected version.
	ErrVersionConflict = errors.New("stage data changed since last read")
)

// Message-related errors.
var (
	// ErrEmptyMessage is returned when a chat turn has an empty text body.
	ErrEmptyMessage = errors.New("message text is empty")

	// ErrMessageTooLong is returned when a chat turn exceeds the maximum
	// configured length limit.
	ErrMessageTooLong = errors.New("message text too long")

	// ErrInvalidSender is returned when a chat turn names a sender outside
	// the allowed set (user, coach).
	ErrInvalidSender = errors.New("sender must be user or coach")
)
