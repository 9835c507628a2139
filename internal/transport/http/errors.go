package http

import (
	"errors"
	"net/http"

	"movie-quiz-service/internal/domain"
)

type errorPayload struct {
	Message string        `json:"message"`
	Notice  domain.Notice `json:"notice,omitempty"`
}

func newErrorPayload(err error) errorPayload {
	payload := errorPayload{Message: err.Error()}
	var verr *domain.ValidationError
	var cerr *domain.CollaboratorError
	switch {
	case errors.As(err, &verr):
		payload.Notice = verr.Notice
		payload.Message = verr.Notice.Message()
	case errors.As(err, &cerr):
		payload.Notice = domain.NoticeRecommendationFailed
		if cerr.Op == "search" {
			payload.Notice = domain.NoticeNone
		}
	}
	return payload
}

func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSubmissionInFlight), errors.Is(err, domain.ErrFlowCompleted),
		errors.Is(err, domain.ErrStepNotActive), errors.Is(err, domain.ErrNotLastStep):
		return http.StatusConflict
	case errors.As(err, &verr), errors.Is(err, domain.ErrIncompleteAnswers):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCollaborator):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidFlow):
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
