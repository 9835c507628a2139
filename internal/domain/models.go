package domain

import "fmt"

// StepKind distinguishes single-choice from multi-choice quiz steps.
type StepKind string

const (
	SingleChoice StepKind = "single-choice"
	MultiChoice  StepKind = "multi-choice"
)

// Constraints bounds the selection of a step. Max of zero means unbounded.
type Constraints struct {
	Max int `json:"max,omitempty" yaml:"max,omitempty"`
}

// Option is one selectable token of a step.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// QuizStep is one screen of the quiz.
type QuizStep struct {
	Index       int         `json:"index" yaml:"-"`
	Key         string      `json:"key" yaml:"key"`
	Prompt      string      `json:"prompt" yaml:"prompt"`
	Kind        StepKind    `json:"kind" yaml:"kind"`
	Constraints Constraints `json:"constraints" yaml:"constraints"`
	Options     []Option    `json:"options" yaml:"options"`
}

// HasOption reports whether token is one of the step's option values.
func (s QuizStep) HasOption(token string) bool {
	for _, opt := range s.Options {
		if opt.Value == token {
			return true
		}
	}
	return false
}

// Flow is the immutable ordered sequence of steps for a quiz session.
type Flow struct {
	ID    string     `json:"id" yaml:"id"`
	Steps []QuizStep `json:"steps" yaml:"steps"`
}

// Normalize assigns step indexes from their position and checks the flow is usable.
func (f Flow) Normalize() (Flow, error) {
	if len(f.Steps) == 0 {
		return Flow{}, fmt.Errorf("%w: flow %q has no steps", ErrInvalidFlow, f.ID)
	}
	steps := make([]QuizStep, len(f.Steps))
	for i, step := range f.Steps {
		step.Index = i
		if step.Kind == "" {
			step.Kind = SingleChoice
		}
		if step.Kind != SingleChoice && step.Kind != MultiChoice {
			return Flow{}, fmt.Errorf("%w: step %d has unknown kind %q", ErrInvalidFlow, i, step.Kind)
		}
		if step.Key == "" {
			return Flow{}, fmt.Errorf("%w: step %d has no key", ErrInvalidFlow, i)
		}
		if len(step.Options) == 0 {
			return Flow{}, fmt.Errorf("%w: step %q has no options", ErrInvalidFlow, step.Key)
		}
		if step.Constraints.Max < 0 {
			return Flow{}, fmt.Errorf("%w: step %q has negative max", ErrInvalidFlow, step.Key)
		}
		seen := make(map[string]struct{}, len(step.Options))
		options := make([]Option, len(step.Options))
		for j, opt := range step.Options {
			if opt.Value == "" {
				return Flow{}, fmt.Errorf("%w: step %q has an empty option", ErrInvalidFlow, step.Key)
			}
			if _, dup := seen[opt.Value]; dup {
				return Flow{}, fmt.Errorf("%w: step %q repeats option %q", ErrInvalidFlow, step.Key, opt.Value)
			}
			seen[opt.Value] = struct{}{}
			if opt.Label == "" {
				opt.Label = opt.Value
			}
			options[j] = opt
		}
		step.Options = options
		steps[i] = step
	}
	return Flow{ID: f.ID, Steps: steps}, nil
}

// Answer is the committed value of one step: Token for single-choice, Tokens for multi-choice.
type Answer struct {
	Kind   StepKind `json:"kind"`
	Token  string   `json:"token,omitempty"`
	Tokens []string `json:"tokens,omitempty"`
}

// Value reduces the answer to the shape sent to the recommendation collaborator.
func (a Answer) Value() any {
	if a.Kind == MultiChoice {
		out := make([]string, len(a.Tokens))
		copy(out, a.Tokens)
		return out
	}
	return a.Token
}

// AnswerSet maps a step index to its committed answer.
type AnswerSet map[int]Answer

// Clone returns a deep copy of the set.
func (s AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(s))
	for idx, ans := range s {
		ans.Tokens = append([]string(nil), ans.Tokens...)
		out[idx] = ans
	}
	return out
}

// ProviderEntry is a streaming provider listed for a movie.
type ProviderEntry struct {
	Name string `json:"provider_name"`
	Logo string `json:"logo_path,omitempty"`
}

// WatchProviders groups providers by how the movie can be watched.
type WatchProviders struct {
	Flatrate []ProviderEntry `json:"flatrate,omitempty"`
	Rent     []ProviderEntry `json:"rent,omitempty"`
	Buy      []ProviderEntry `json:"buy,omitempty"`
}

// MovieRecord is the movie data returned by search and recommendation.
type MovieRecord struct {
	Title          string          `json:"title"`
	Overview       string          `json:"overview,omitempty"`
	ReleaseDate    string          `json:"release_date,omitempty"`
	VoteAverage    *float64        `json:"vote_average,omitempty"`
	PosterPath     string          `json:"poster_path,omitempty"`
	Genres         []string        `json:"genres,omitempty"`
	WatchProviders *WatchProviders `json:"watch_providers,omitempty"`
}
