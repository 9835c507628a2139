package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"movie-quiz-service/internal/domain"
	"movie-quiz-service/internal/metrics"
)

// SessionRepository abstracts how quiz controllers are kept between requests (in-memory, Redis, etc).
type SessionRepository interface {
	Save(c *Controller)
	Get(sessionID string) (*Controller, bool)
	Delete(sessionID string)
}

// FlowRepository loads quiz flows (from cache/backing store).
type FlowRepository interface {
	GetFlow(ctx context.Context, flowID string) (domain.Flow, error)
}

// QuizService contains the quiz use cases, one controller per page session.
type QuizService struct {
	sessions    SessionRepository
	flows       FlowRepository
	recommender Recommender
	defaultFlow string
	logger      *zap.Logger
	metrics     *metrics.Metrics
	newID       func() string
}

func NewQuizService(store SessionRepository, flows FlowRepository, recommender Recommender, logger *zap.Logger, m *metrics.Metrics) *QuizService {
	return &QuizService{
		sessions:    store,
		flows:       flows,
		recommender: recommender,
		defaultFlow: domain.DefaultFlowID,
		logger:      logger,
		metrics:     m,
		newID:       uuid.NewString,
	}
}

// UseDefaultFlow sets the flow Start opens when no flow id is given.
func (s *QuizService) UseDefaultFlow(flowID string) {
	if flowID != "" {
		s.defaultFlow = flowID
	}
}

// Start loads a flow and opens a new session positioned on its first step.
func (s *QuizService) Start(ctx context.Context, flowID string) (View, error) {
	if flowID == "" {
		flowID = s.defaultFlow
	}
	flow, err := s.flows.GetFlow(ctx, flowID)
	if err != nil {
		return View{}, err
	}
	controller := NewController(s.newID(), flow, s.recommender)
	s.sessions.Save(controller)
	s.logger.Info("quiz session started",
		zap.String("session", controller.ID()),
		zap.String("flow", flow.ID),
		zap.Int("steps", len(flow.Steps)),
	)
	return controller.View(), nil
}

// View returns the current state of a session.
func (s *QuizService) View(_ context.Context, sessionID string) (View, error) {
	controller, err := s.controller(sessionID)
	if err != nil {
		return View{}, err
	}
	return controller.View(), nil
}

// Select marks an option on the active step.
func (s *QuizService) Select(_ context.Context, sessionID string, stepIndex int, token string) (View, error) {
	controller, err := s.controller(sessionID)
	if err != nil {
		return View{}, err
	}
	if err := controller.SelectOption(stepIndex, token); err != nil {
		return controller.View(), err
	}
	s.sessions.Save(controller)
	return controller.View(), nil
}

// Validate checks the active step and commits its selection when valid.
func (s *QuizService) Validate(_ context.Context, sessionID string, stepIndex int) (View, error) {
	controller, err := s.controller(sessionID)
	if err != nil {
		return View{}, err
	}
	err = controller.Validate(stepIndex)
	s.observeValidation(err)
	if err == nil {
		s.sessions.Save(controller)
	}
	return controller.View(), err
}

// Advance moves the session one step back or forward. The bool reports whether the step changed.
func (s *QuizService) Advance(_ context.Context, sessionID string, direction int) (View, bool, error) {
	controller, err := s.controller(sessionID)
	if err != nil {
		return View{}, false, err
	}
	moved, err := controller.Advance(direction)
	s.observeValidation(err)
	if moved {
		s.sessions.Save(controller)
	}
	return controller.View(), moved, err
}

// Submit sends the session's answers to the recommender. On success the returned
// view always carries the record, even if the session was restarted meanwhile.
func (s *QuizService) Submit(ctx context.Context, sessionID string) (View, error) {
	controller, err := s.controller(sessionID)
	if err != nil {
		return View{}, err
	}
	record, err := controller.Submit(ctx)
	view := controller.View()
	s.observeValidation(err)

	switch {
	case rejectedBeforeSend(err):
	case err != nil:
		s.metrics.Submissions.WithLabelValues(metrics.Outcome(err)).Inc()
		s.logger.Warn("recommendation failed",
			zap.String("session", sessionID),
			zap.Error(err),
		)
	default:
		view.Result = &record
		s.metrics.Submissions.WithLabelValues(metrics.Outcome(nil)).Inc()
		s.logger.Info("recommendation received", zap.String("session", sessionID))
	}
	s.sessions.Save(controller)
	return view, err
}

// rejectedBeforeSend reports whether a submit error was raised before any request
// reached the recommender.
func rejectedBeforeSend(err error) bool {
	if err == nil {
		return false
	}
	var verr *domain.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, domain.ErrSubmissionInFlight) ||
		errors.Is(err, domain.ErrNotLastStep) ||
		errors.Is(err, domain.ErrIncompleteAnswers) ||
		errors.Is(err, domain.ErrStepNotActive) ||
		errors.Is(err, domain.ErrFlowCompleted) ||
		errors.Is(err, domain.ErrSessionNotFound)
}

// Restart clears a session back to its first step.
func (s *QuizService) Restart(_ context.Context, sessionID string) (View, error) {
	controller, err := s.controller(sessionID)
	if err != nil {
		return View{}, err
	}
	if err := controller.Restart(); err != nil {
		return controller.View(), err
	}
	s.sessions.Save(controller)
	return controller.View(), nil
}

// End drops the session.
func (s *QuizService) End(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
	s.logger.Debug("quiz session ended", zap.String("session", sessionID))
}

func (s *QuizService) controller(sessionID string) (*Controller, error) {
	controller, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return controller, nil
}

func (s *QuizService) observeValidation(err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		s.metrics.ValidationFailures.WithLabelValues(string(verr.Notice)).Inc()
	}
}
