package app

import (
	"errors"
	"fmt"
	"testing"

	"movie-quiz-service/internal/domain"
)

func TestRejectedBeforeSend(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"validation", &domain.ValidationError{Step: 2, Notice: domain.NoticeSelectAtLeastOne}, true},
		{"in flight", domain.ErrSubmissionInFlight, true},
		{"not last step", domain.ErrNotLastStep, true},
		{"incomplete answers", fmt.Errorf("submit: %w", domain.ErrIncompleteAnswers), true},
		{"step not active", fmt.Errorf("%w: step 1, current 0", domain.ErrStepNotActive), true},
		{"completed", domain.ErrFlowCompleted, true},
		{"collaborator", &domain.CollaboratorError{Op: "recommend", Kind: domain.ErrorKindTransport, Err: errors.New("refused")}, false},
		{"other", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := rejectedBeforeSend(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
