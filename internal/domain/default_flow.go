package domain

// DefaultFlowID names the built-in mood/occasion/genre quiz.
const DefaultFlowID = "movie-night"

// DefaultFlow returns the built-in quiz used when no flow store is configured.
func DefaultFlow() Flow {
	flow, err := Flow{
		ID: DefaultFlowID,
		Steps: []QuizStep{
			{
				Key:    "mood",
				Prompt: "What's your mood?",
				Kind:   SingleChoice,
				Options: []Option{
					{Value: "happy", Label: "Happy"},
					{Value: "sad", Label: "Sad"},
					{Value: "excited", Label: "Excited"},
					{Value: "relaxed", Label: "Relaxed"},
					{Value: "thoughtful", Label: "Thoughtful"},
				},
			},
			{
				Key:    "occasion",
				Prompt: "What's the occasion?",
				Kind:   SingleChoice,
				Options: []Option{
					{Value: "date", Label: "Date night"},
					{Value: "solo", Label: "Watching alone"},
					{Value: "friends", Label: "With friends"},
					{Value: "family", Label: "Family time"},
				},
			},
			{
				Key:         "genre",
				Prompt:      "Pick up to three genres",
				Kind:        MultiChoice,
				Constraints: Constraints{Max: 3},
				Options: []Option{
					{Value: "action", Label: "Action"},
					{Value: "comedy", Label: "Comedy"},
					{Value: "drama", Label: "Drama"},
					{Value: "horror", Label: "Horror"},
					{Value: "romance", Label: "Romance"},
					{Value: "animation", Label: "Animation"},
					{Value: "documentary", Label: "Documentary"},
					{Value: "science fiction", Label: "Science fiction"},
				},
			},
		},
	}.Normalize()
	if err != nil {
		panic(err)
	}
	return flow
}
