package app

import (
	"context"
	"fmt"
	"sync"

	"movie-quiz-service/internal/domain"
)

// Recommender is the external recommendation collaborator.
type Recommender interface {
	Recommend(ctx context.Context, flow domain.Flow, answers domain.AnswerSet) (domain.MovieRecord, error)
}

// Phase is the coarse state of a quiz controller.
type Phase string

const (
	PhaseActive     Phase = "active"
	PhaseSubmitting Phase = "submitting"
	PhaseCompleted  Phase = "completed"
)

// Controller drives one page session through the quiz steps.
type Controller struct {
	id          string
	flow        domain.Flow
	recommender Recommender

	mu         sync.Mutex
	current    int
	selections []map[string]struct{}
	answers    domain.AnswerSet
	phase      Phase
	notice     domain.Notice
	result     *domain.MovieRecord
}

// NewController builds a controller positioned on the first step of flow.
// The flow must already be normalized.
func NewController(id string, flow domain.Flow, recommender Recommender) *Controller {
	c := &Controller{
		id:          id,
		flow:        flow,
		recommender: recommender,
	}
	c.resetLocked()
	return c
}

// ID returns the session identifier the controller was created with.
func (c *Controller) ID() string { return c.id }

// Flow returns the steps the controller runs.
func (c *Controller) Flow() domain.Flow { return c.flow }

func (c *Controller) resetLocked() {
	c.current = 0
	c.selections = make([]map[string]struct{}, len(c.flow.Steps))
	for i := range c.selections {
		c.selections[i] = make(map[string]struct{})
	}
	c.answers = make(domain.AnswerSet, len(c.flow.Steps))
	c.phase = PhaseActive
	c.notice = domain.NoticeNone
	c.result = nil
}

func (c *Controller) guardActiveLocked() error {
	switch c.phase {
	case PhaseSubmitting:
		return domain.ErrSubmissionInFlight
	case PhaseCompleted:
		return domain.ErrFlowCompleted
	}
	return nil
}

func (c *Controller) lastStep() int {
	return len(c.flow.Steps) - 1
}

// SelectOption marks token on the active step. Single-choice steps replace their
// selection; multi-choice steps toggle membership without checking the max.
func (c *Controller) SelectOption(stepIndex int, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardActiveLocked(); err != nil {
		return err
	}
	if stepIndex != c.current {
		return fmt.Errorf("%w: step %d, current %d", domain.ErrStepNotActive, stepIndex, c.current)
	}
	step := c.flow.Steps[stepIndex]
	if !step.HasOption(token) {
		return fmt.Errorf("%w: %q on step %q", domain.ErrOptionNotFound, token, step.Key)
	}

	selected := c.selections[stepIndex]
	switch step.Kind {
	case domain.MultiChoice:
		if _, ok := selected[token]; ok {
			delete(selected, token)
		} else {
			selected[token] = struct{}{}
		}
	default:
		for k := range selected {
			delete(selected, k)
		}
		selected[token] = struct{}{}
	}
	c.notice = domain.NoticeNone
	return nil
}

// Validate checks the active step's selection and commits it on success.
// A failed check returns a *domain.ValidationError and leaves the answers untouched.
func (c *Controller) Validate(stepIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardActiveLocked(); err != nil {
		return err
	}
	if stepIndex != c.current {
		return fmt.Errorf("%w: step %d, current %d", domain.ErrStepNotActive, stepIndex, c.current)
	}
	return c.validateLocked(stepIndex)
}

func (c *Controller) validateLocked(stepIndex int) error {
	step := c.flow.Steps[stepIndex]
	tokens := c.selectedLocked(stepIndex)

	notice := domain.NoticeNone
	switch step.Kind {
	case domain.MultiChoice:
		if len(tokens) == 0 {
			notice = domain.NoticeSelectAtLeastOne
		} else if step.Constraints.Max > 0 && len(tokens) > step.Constraints.Max {
			notice = domain.NoticeTooManySelected
		}
	default:
		if len(tokens) != 1 {
			notice = domain.NoticeSelectOption
		}
	}
	if notice != domain.NoticeNone {
		c.notice = notice
		return &domain.ValidationError{Step: stepIndex, Notice: notice}
	}

	answer := domain.Answer{Kind: step.Kind}
	if step.Kind == domain.MultiChoice {
		answer.Tokens = tokens
	} else {
		answer.Token = tokens[0]
	}
	c.answers[stepIndex] = answer
	c.notice = domain.NoticeNone
	return nil
}

// selectedLocked lists the working selection of a step in option order.
func (c *Controller) selectedLocked(stepIndex int) []string {
	selected := c.selections[stepIndex]
	out := make([]string, 0, len(selected))
	for _, opt := range c.flow.Steps[stepIndex].Options {
		if _, ok := selected[opt.Value]; ok {
			out = append(out, opt.Value)
		}
	}
	return out
}

// Advance moves one step back (-1) or forward (+1). Forward movement validates the
// current step first. Targets outside the flow are ignored and report false.
func (c *Controller) Advance(direction int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardActiveLocked(); err != nil {
		return false, err
	}
	if direction != -1 && direction != 1 {
		return false, domain.ErrInvalidDirection
	}
	target := c.current + direction
	if target < 0 || target > c.lastStep() {
		return false, nil
	}
	if direction == 1 {
		if err := c.validateLocked(c.current); err != nil {
			return false, err
		}
	}
	c.current = target
	c.notice = domain.NoticeNone
	return true, nil
}

// Submit validates the last step and sends the committed answers to the recommender.
// Only one submission may be in flight; the lock is released while the call runs.
// On failure the controller returns to the last step with its answers preserved.
func (c *Controller) Submit(ctx context.Context) (domain.MovieRecord, error) {
	c.mu.Lock()
	if err := c.guardActiveLocked(); err != nil {
		c.mu.Unlock()
		return domain.MovieRecord{}, err
	}
	if c.current != c.lastStep() {
		c.mu.Unlock()
		return domain.MovieRecord{}, domain.ErrNotLastStep
	}
	if err := c.validateLocked(c.current); err != nil {
		c.mu.Unlock()
		return domain.MovieRecord{}, err
	}
	if len(c.answers) != len(c.flow.Steps) {
		c.mu.Unlock()
		return domain.MovieRecord{}, domain.ErrIncompleteAnswers
	}
	c.phase = PhaseSubmitting
	c.notice = domain.NoticeNone
	sent := c.answers.Clone()
	c.mu.Unlock()

	record, err := c.recommender.Recommend(ctx, c.flow, sent)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.phase = PhaseActive
		c.current = c.lastStep()
		c.notice = domain.NoticeRecommendationFailed
		return domain.MovieRecord{}, err
	}
	c.phase = PhaseCompleted
	c.result = &record
	return record, nil
}

// Restart discards all selections and answers and returns to the first step.
func (c *Controller) Restart() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseSubmitting {
		return domain.ErrSubmissionInFlight
	}
	c.resetLocked()
	return nil
}

// Answers returns a copy of the committed answers.
func (c *Controller) Answers() domain.AnswerSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answers.Clone()
}

// View is a render-ready snapshot of the controller.
type View struct {
	SessionID  string              `json:"sessionId"`
	FlowID     string              `json:"flowId"`
	Phase      Phase               `json:"phase"`
	StepIndex  int                 `json:"stepIndex"`
	TotalSteps int                 `json:"totalSteps"`
	Progress   float64             `json:"progress"`
	Step       domain.QuizStep     `json:"step"`
	Selected   []string            `json:"selected"`
	Answers    domain.AnswerSet    `json:"answers"`
	Notice     domain.Notice       `json:"notice,omitempty"`
	NoticeText string              `json:"noticeText,omitempty"`
	CanGoBack  bool                `json:"canGoBack"`
	CanSubmit  bool                `json:"canSubmit"`
	Result     *domain.MovieRecord `json:"result,omitempty"`
}

// View snapshots the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.flow.Steps)
	v := View{
		SessionID:  c.id,
		FlowID:     c.flow.ID,
		Phase:      c.phase,
		StepIndex:  c.current,
		TotalSteps: total,
		Progress:   float64(c.current+1) / float64(total),
		Step:       c.flow.Steps[c.current],
		Selected:   c.selectedLocked(c.current),
		Answers:    c.answers.Clone(),
		Notice:     c.notice,
		NoticeText: c.notice.Message(),
		CanGoBack:  c.phase == PhaseActive && c.current > 0,
		CanSubmit:  c.phase == PhaseActive && c.current == c.lastStep(),
	}
	if c.result != nil {
		record := *c.result
		v.Result = &record
	}
	return v
}
