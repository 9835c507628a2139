package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"movie-quiz-service/internal/domain"
)

// FlowLoader fetches quiz flows from a backing store (file, database).
type FlowLoader interface {
	LoadFlow(ctx context.Context, flowID string) (domain.Flow, error)
}

// FlowRepository caches normalized flows in Redis and falls back to a loader on cache miss.
// Flows are stored as JSON: SET quiz:flow:{flowID} <json> EX ttl
type FlowRepository struct {
	client *redis.Client
	loader FlowLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewFlowRepository(client *redis.Client, loader FlowLoader, ttl time.Duration) *FlowRepository {
	return &FlowRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *FlowRepository) GetFlow(ctx context.Context, flowID string) (domain.Flow, error) {
	if flow, ok := r.cached(ctx, flowID); ok {
		return flow, nil
	}

	result, err, _ := r.sf.Do(flowID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if flow, ok := r.cached(ctx, flowID); ok {
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

		if data, err := json.Marshal(flow); err == nil {
			_ = r.client.Set(ctx, r.key(flowID), data, r.ttlWithJitter()).Err()
		}
		return flow, nil
	})
	if err != nil {
		return domain.Flow{}, err
	}
	return result.(domain.Flow), nil
}

func (r *FlowRepository) cached(ctx context.Context, flowID string) (domain.Flow, bool) {
	data, err := r.client.Get(ctx, r.key(flowID)).Bytes()
	if err != nil {
		return domain.Flow{}, false
	}
	var flow domain.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return domain.Flow{}, false
	}
	return flow, true
}

func (r *FlowRepository) key(flowID string) string {
	return "quiz:flow:" + flowID
}

func (r *FlowRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
