package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"

	"movie-quiz-service/internal/app"
	"movie-quiz-service/internal/domain"
	"movie-quiz-service/internal/infra/backend"
	pgloader "movie-quiz-service/internal/infra/postgres"
	pgmigrations "movie-quiz-service/internal/infra/postgres/migrations"
	infraredis "movie-quiz-service/internal/infra/redis"
	"movie-quiz-service/internal/metrics"
)

func TestQuizSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewFlowLoader(pool)
	if err := loader.SaveFlow(ctx, domain.DefaultFlow()); err != nil {
		t.Fatalf("seed flow: %v", err)
	}

	var sent map[string]any
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
		_, _ = w.Write([]byte(`{"recommendation":{"title":"Before Sunrise","release_date":"1995-01-27","vote_average":7.7}}`))
	}))
	defer upstream.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	m := metrics.New()
	flows := infraredis.NewFlowRepository(redisClient, loader, 5*time.Minute)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	client := backend.NewClient(backend.Options{BaseURL: upstream.URL, Timeout: 5 * time.Second}, zap.NewNop(), m)
	service := app.NewQuizService(sessions, flows, client, zap.NewNop(), m)

	view, err := service.Start(ctx, domain.DefaultFlowID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	id := view.SessionID

	for step, value := range []string{"thoughtful", "date"} {
		if _, err := service.Select(ctx, id, step, value); err != nil {
			t.Fatalf("select step %d: %v", step, err)
		}
		if _, moved, err := service.Advance(ctx, id, 1); err != nil || !moved {
			t.Fatalf("advance from step %d: moved=%v err=%v", step, moved, err)
		}
	}
	for _, value := range []string{"romance", "drama"} {
		if _, err := service.Select(ctx, id, 2, value); err != nil {
			t.Fatalf("select genre: %v", err)
		}
	}

	view, err = service.Submit(ctx, id)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if view.Phase != app.PhaseCompleted || view.Result == nil || view.Result.Title != "Before Sunrise" {
		t.Fatalf("unexpected submit view %+v", view)
	}
	if sent["mood"] != "thoughtful" || sent["occasion"] != "date" {
		t.Fatalf("unexpected request body %v", sent)
	}

	committed, err := sessions.CommittedAnswers(ctx, id)
	if err != nil {
		t.Fatalf("committed answers: %v", err)
	}
	if len(committed) != 3 {
		t.Fatalf("expected three committed answers in redis, got %d", len(committed))
	}
	if exists, _ := redisClient.Exists(ctx, "quiz:flow:"+domain.DefaultFlowID).Result(); exists != 1 {
		t.Fatalf("expected flow cached in redis")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
