package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	pgloader "quiz-engine/internal/infra/postgres"
	infraredis "quiz-engine/internal/infra/redis"
	pgmigrations "quiz-engine/internal/infra/postgres/migrations"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewQuizLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)
	service := app.NewQuizService(sessionStore, quizRepo, domain.Policy{})

	sessionID, snap, err := service.Start(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Total != 2 || snap.Question == nil || snap.Question.Text != "What is 2 + 2?" {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
	if n, err := redisClient.Exists(ctx, "quiz:session:"+sessionID).Result(); err != nil || n != 1 {
		t.Fatalf("expected session key in redis, got n=%d err=%v", n, err)
	}

	if _, err := service.Select(ctx, sessionID, "4"); err != nil {
		t.Fatalf("select: %v", err)
	}
	sub, _, err := service.Submit(ctx, sessionID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !sub.Correct {
		t.Fatalf("expected correct submission")
	}
	if _, err := service.Advance(ctx, sessionID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if _, err := service.Select(ctx, sessionID, "Madrid"); err != nil {
		t.Fatalf("select: %v", err)
	}
	if _, _, err := service.Submit(ctx, sessionID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	final, err := service.Advance(ctx, sessionID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !final.Completed || final.Score != 1 || final.ResultMessage != "Good Job!" {
		t.Fatalf("unexpected final snapshot: %+v", final)
	}

	service.End(ctx, sessionID)
	if n, _ := redisClient.Exists(ctx, "quiz:session:"+sessionID).Result(); n != 0 {
		t.Fatalf("expected session key removed after end")
	}
	if n, _ := redisClient.Exists(ctx, "quiz:quiz-1").Result(); n != 1 {
		t.Fatalf("expected quiz cached in redis")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	addr, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")
	return fmt.Sprintf("postgres://quiz:quizpass@%s/quizdb?sslmode=disable", addr), cleanup
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	addr, cleanup := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")
	return "redis://" + addr, cleanup
}

// startContainer runs req and returns the host:port mapped to port.
func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest, port string) (string, func()) {
	t.Helper()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start %s: %v", req.Image, err)
	}
	cleanup := func() { _ = container.Terminate(ctx) }

	endpoint, err := container.PortEndpoint(ctx, nat.Port(port), "")
	if err != nil {
		cleanup()
		t.Fatalf("%s endpoint: %v", req.Image, err)
	}
	return endpoint, cleanup
}

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
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

	if err := pgloader.NewSeeder(db).Upsert(ctx, []domain.Quiz{quiz}); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Integration",
		Questions: []domain.Question{
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4"},
			{Text: "Capital of France?", Options: []string{"Madrid", "Paris"}, CorrectAnswer: "Paris"},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
