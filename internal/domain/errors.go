package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a quiz session does not exist or has ended.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrFlowNotFound indicates the quiz flow could not be loaded.
	ErrFlowNotFound = errors.New("quiz flow not found")
	// ErrInvalidFlow indicates a loaded flow cannot drive a quiz.
	ErrInvalidFlow = errors.New("invalid quiz flow")
	// ErrStepNotActive is returned when acting on a step other than the displayed one.
	ErrStepNotActive = errors.New("step is not active")
	// ErrOptionNotFound indicates a selected token is not part of the step.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidDirection indicates an advance request that is neither back nor forward.
	ErrInvalidDirection = errors.New("direction must be -1 or +1")
	// ErrSubmissionInFlight is returned while a recommendation request is pending.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrNotLastStep is returned when submitting before reaching the last step.
	ErrNotLastStep = errors.New("submit is only allowed from the last step")
	// ErrIncompleteAnswers is returned when a step has no committed answer at submission.
	ErrIncompleteAnswers = errors.New("not every step has an answer")
	// ErrFlowCompleted is returned when interacting with a finished quiz.
	ErrFlowCompleted = errors.New("quiz already completed")
	// ErrEmptyQuery is returned for blank search queries.
	ErrEmptyQuery = errors.New("search query is empty")

	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("step validation failed")
	// ErrCollaborator is wrapped by every CollaboratorError.
	ErrCollaborator = errors.New("collaborator request failed")
)

// Notice is a user-visible message code surfaced by the quiz.
type Notice string

const (
	NoticeNone                 Notice = ""
	NoticeSelectOption         Notice = "select_option"
	NoticeSelectAtLeastOne     Notice = "select_at_least_one"
	NoticeTooManySelected      Notice = "too_many_selected"
	NoticeRecommendationFailed Notice = "recommendation_failed"
)

// Message returns the default text shown for the notice.
func (n Notice) Message() string {
	switch n {
	case NoticeSelectOption:
		return "Please select an option."
	case NoticeSelectAtLeastOne:
		return "Please select at least one option."
	case NoticeTooManySelected:
		return "Too many options selected."
	case NoticeRecommendationFailed:
		return "Failed to get recommendation. Please try again."
	}
	return ""
}

// ValidationError reports a step whose selection does not satisfy its rules.
type ValidationError struct {
	Step   int
	Notice Notice
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d: %s", e.Step, e.Notice)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ErrorKind classifies collaborator failures.
type ErrorKind string

const (
	// ErrorKindTransport covers network failures before a response was read.
	ErrorKindTransport ErrorKind = "transport"
	// ErrorKindCollaborator covers error payloads and non-2xx responses.
	ErrorKindCollaborator ErrorKind = "collaborator"
	// ErrorKindDecode covers responses that are neither a movie nor an error payload.
	ErrorKindDecode ErrorKind = "decode"
)

// CollaboratorError is the error variant of a search or recommendation call.
type CollaboratorError struct {
	Op      string
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *CollaboratorError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

// Unwrap exposes both the cause and ErrCollaborator to errors.Is.
func (e *CollaboratorError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCollaborator, e.Err}
	}
	return []error{ErrCollaborator}
}
