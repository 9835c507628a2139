package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"movie-quiz-service/internal/domain"
)

// FlowLoader fetches quiz flows from a backing store (file, database).
type FlowLoader interface {
	LoadFlow(ctx context.Context, flowID string) (domain.Flow, error)
}

// FlowRepository caches normalized flows with TTL to avoid repeated loads.
type FlowRepository struct {
	loader FlowLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedFlow
}

type cachedFlow struct {
	flow      domain.Flow
	expiresAt time.Time
}

func NewFlowRepository(loader FlowLoader, ttl time.Duration) *FlowRepository {
	return &FlowRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedFlow),
	}
}

func (r *FlowRepository) GetFlow(ctx context.Context, flowID string) (domain.Flow, error) {
	if flow, ok := r.lookup(flowID); ok {
		return flow, nil
	}

	result, err, _ := r.sf.Do(flowID, func() (interface{}, error) {
		if flow, ok := r.lookup(flowID); ok {
			return flow, nil
		}

		loaded, err := r.loader.LoadFlow(ctx, flowID)
		if err != nil {
			return domain.Flow{}, err
		}
		flow, err := loaded.Normalize()
		if err != nil {
			return domain.Flow{}, err
		}

		r.mu.Lock()
		r.cache[flowID] = cachedFlow{
			flow:      flow,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return flow, nil
	})
	if err != nil {
		return domain.Flow{}, err
	}
	return result.(domain.Flow), nil
}

func (r *FlowRepository) lookup(flowID string) (domain.Flow, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[flowID]; ok && entry.expiresAt.After(now) {
		return entry.flow, true
	}
	return domain.Flow{}, false
}

func (r *FlowRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticFlowLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticFlowLoader struct {
	flows map[string]domain.Flow
}

func NewStaticFlowLoader(flows ...domain.Flow) *StaticFlowLoader {
	byID := make(map[string]domain.Flow, len(flows))
	for _, flow := range flows {
		byID[flow.ID] = flow
	}
	return &StaticFlowLoader{flows: byID}
}

func (l *StaticFlowLoader) LoadFlow(_ context.Context, flowID string) (domain.Flow, error) {
	if flow, ok := l.flows[flowID]; ok {
		return flow, nil
	}
	return domain.Flow{}, domain.ErrFlowNotFound
}
