package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"movie-quiz-service/internal/domain"
)

func TestFlowRepositoryCaches(t *testing.T) {
	loader := &countingLoader{FlowLoader: NewStaticFlowLoader(domain.DefaultFlow())}
	repo := NewFlowRepository(loader, time.Minute)

	if _, err := repo.GetFlow(context.Background(), domain.DefaultFlowID); err != nil {
		t.Fatalf("get flow: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetFlow(context.Background(), domain.DefaultFlowID); err != nil {
		t.Fatalf("get flow 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestFlowRepositoryExpires(t *testing.T) {
	loader := &countingLoader{FlowLoader: NewStaticFlowLoader(domain.DefaultFlow())}
	repo := NewFlowRepository(loader, time.Minute)
	now := time.Now()
	repo.clock = func() time.Time { return now }

	_, _ = repo.GetFlow(context.Background(), domain.DefaultFlowID)
	now = now.Add(2 * time.Minute)
	_, _ = repo.GetFlow(context.Background(), domain.DefaultFlowID)
	if loader.calls != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls)
	}
}

func TestFlowRepositoryRejectsInvalidFlow(t *testing.T) {
	repo := NewFlowRepository(NewStaticFlowLoader(domain.Flow{ID: "empty"}), time.Minute)
	if _, err := repo.GetFlow(context.Background(), "empty"); !errors.Is(err, domain.ErrInvalidFlow) {
		t.Fatalf("expected ErrInvalidFlow, got %v", err)
	}
	if _, err := repo.GetFlow(context.Background(), "unknown"); !errors.Is(err, domain.ErrFlowNotFound) {
		t.Fatalf("expected ErrFlowNotFound, got %v", err)
	}
}

type countingLoader struct {
	FlowLoader
	calls int
}

func (l *countingLoader) LoadFlow(ctx context.Context, flowID string) (domain.Flow, error) {
	l.calls++
	return l.FlowLoader.LoadFlow(ctx, flowID)
}
