package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"movie-quiz-service/internal/app"
	"movie-quiz-service/internal/domain"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Controllers stay in a local map; a page session is pinned to the instance
//     holding its WebSocket.
//   - Redis keeps a liveness marker with the session phase and a hash of the
//     committed answers. Save rewrites both and Get extends them, so a session
//     expires after ttl without any activity. Sweep drops local controllers whose
//     marker is gone.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Controller
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Controller),
	}
}

func (s *SessionStore) Save(c *app.Controller) {
	s.mu.Lock()
	s.sessions[c.ID()] = c
	s.mu.Unlock()

	view := c.View()
	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(c.ID()), string(view.Phase), s.ttl)
	pipe.Del(ctx, s.answersKey(c.ID()))
	if len(view.Answers) > 0 {
		fields := make(map[string]interface{}, len(view.Answers))
		for idx, answer := range view.Answers {
			if data, err := json.Marshal(answer.Value()); err == nil {
				fields[strconv.Itoa(idx)] = data
			}
		}
		pipe.HSet(ctx, s.answersKey(c.ID()), fields)
		pipe.Expire(ctx, s.answersKey(c.ID()), s.ttl)
	}
	// best-effort; the local map is authoritative
	_, _ = pipe.Exec(ctx)
}

func (s *SessionStore) Get(sessionID string) (*app.Controller, bool) {
	s.mu.RLock()
	c, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	ctx := context.Background()
	pipe := s.client.Pipeline()
	marker := pipe.Expire(ctx, s.key(sessionID), s.ttl)
	pipe.Expire(ctx, s.answersKey(sessionID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil && marker.Err() != nil {
		// Redis unreachable; the local map is authoritative
		return c, true
	}
	// An expired marker means the session idled out.
	if !marker.Val() {
		s.Delete(sessionID)
		return nil, false
	}
	return c, true
}

// Sweep drops local controllers whose Redis marker has expired and reports how many.
func (s *SessionStore) Sweep(ctx context.Context) int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	if len(ids) == 0 {
		return 0
	}

	pipe := s.client.Pipeline()
	checks := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		checks[i] = pipe.Exists(ctx, s.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0
	}

	dropped := 0
	s.mu.Lock()
	for i, id := range ids {
		if checks[i].Val() == 0 {
			delete(s.sessions, id)
			dropped++
		}
	}
	s.mu.Unlock()
	return dropped
}

// Len reports how many controllers are held locally.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	_ = s.client.Del(context.Background(), s.key(sessionID), s.answersKey(sessionID)).Err()
}

// CommittedAnswers reads the answers snapshot kept in Redis, keyed by step index.
func (s *SessionStore) CommittedAnswers(ctx context.Context, sessionID string) (map[int]json.RawMessage, error) {
	raw, err := s.client.HGetAll(ctx, s.answersKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		if n, err := s.client.Exists(ctx, s.key(sessionID)).Result(); err == nil && n == 0 {
			return nil, domain.ErrSessionNotFound
		}
	}
	out := make(map[int]json.RawMessage, len(raw))
	for field, value := range raw {
		idx, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		out[idx] = json.RawMessage(value)
	}
	return out, nil
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}

func (s *SessionStore) answersKey(sessionID string) string {
	return "quiz:session:" + sessionID + ":answers"
}
