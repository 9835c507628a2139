package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"movie-quiz-service/internal/app"
	"movie-quiz-service/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	controller := app.NewController("s1", domain.DefaultFlow(), nil)
	store.Save(controller)
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:session:s1"); got != string(app.PhaseActive) {
		t.Fatalf("expected phase marker %q, got %q", app.PhaseActive, got)
	}

	store.Delete("s1")
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session gone")
	}
}

func TestSessionStoreSnapshotsCommittedAnswers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	controller := app.NewController("s1", domain.DefaultFlow(), nil)
	if err := controller.SelectOption(0, "happy"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if moved, err := controller.Advance(1); err != nil || !moved {
		t.Fatalf("advance: moved=%v err=%v", moved, err)
	}
	store.Save(controller)

	answers, err := store.CommittedAnswers(context.Background(), "s1")
	if err != nil {
		t.Fatalf("committed answers: %v", err)
	}
	if string(answers[0]) != `"happy"` {
		t.Fatalf("expected mood answer, got %s", answers[0])
	}
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	store.Save(app.NewController("s1", domain.DefaultFlow(), nil))

	mr.FastForward(2 * time.Minute)
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected idle session to expire")
	}
	if _, err := store.CommittedAnswers(context.Background(), "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStoreGetExtendsTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	store.Save(app.NewController("s1", domain.DefaultFlow(), nil))

	for i := 0; i < 3; i++ {
		mr.FastForward(40 * time.Second)
		if _, ok := store.Get("s1"); !ok {
			t.Fatalf("expected session alive after %d reads", i+1)
		}
	}
	if ttl := mr.TTL("quiz:session:s1"); ttl != time.Minute {
		t.Fatalf("expected marker ttl refreshed to 1m, got %v", ttl)
	}
}

func TestSessionStoreSweepDropsExpired(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	store.Save(app.NewController("idle", domain.DefaultFlow(), nil))
	mr.FastForward(30 * time.Second)
	store.Save(app.NewController("active", domain.DefaultFlow(), nil))
	mr.FastForward(45 * time.Second)

	if dropped := store.Sweep(context.Background()); dropped != 1 {
		t.Fatalf("expected one session swept, got %d", dropped)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one local controller left, got %d", store.Len())
	}
	if _, ok := store.Get("active"); !ok {
		t.Fatalf("expected active session kept")
	}
}
