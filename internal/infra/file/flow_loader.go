package file

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"movie-quiz-service/internal/domain"
)

// FlowLoader reads quiz flows from a YAML document holding one or more flows:
//
//	flows:
//	  - id: movie-night
//	    steps:
//	      - key: mood
//	        kind: single-choice
//	        options: [{value: happy, label: Happy}]
type FlowLoader struct {
	path string
}

func NewFlowLoader(path string) *FlowLoader {
	return &FlowLoader{path: path}
}

type document struct {
	Flows []domain.Flow `yaml:"flows"`
}

// LoadFlow re-reads the file on every call; callers cache through a FlowRepository.
func (l *FlowLoader) LoadFlow(_ context.Context, flowID string) (domain.Flow, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.Flow{}, fmt.Errorf("read flow file: %w", err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Flow{}, fmt.Errorf("parse flow file: %w", err)
	}
	for _, flow := range doc.Flows {
		if flow.ID == flowID {
			return flow, nil
		}
	}
	return domain.Flow{}, domain.ErrFlowNotFound
}
