package cli

import (
	"context"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/config"
	"quiz-engine/internal/engine"
	"quiz-engine/internal/infra/memory"
	pgloader "quiz-engine/internal/infra/postgres"
	redissession "quiz-engine/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Log.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// backends holds the optional external connections built from config.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func (b backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func connectBackends(ctx context.Context, cfg config.Config) (backends, error) {
	var b backends
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return backends{}, err
		}
		b.pool = pool
	}
	return b, nil
}

// quizLoader picks the question source: Postgres, then a YAML file, then the built-in sets.
func quizLoader(cfg config.Config, b backends) (memory.QuizLoader, error) {
	if b.pool != nil {
		return pgloader.NewQuizLoader(b.pool), nil
	}
	if cfg.Quiz.File != "" {
		return memory.NewFileQuizLoader(cfg.Quiz.File)
	}
	return memory.NewStaticQuizLoader(memory.BuiltinQuizzes()), nil
}

func buildService(cfg config.Config, b backends, logger *zap.Logger) (*app.QuizService, error) {
	policy, err := cfg.Policy.Resolve()
	if err != nil {
		return nil, err
	}
	loader, err := quizLoader(cfg, b)
	if err != nil {
		return nil, err
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if b.redis != nil {
		quizRepo = redissession.NewQuizRepository(b.redis, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var store app.SessionRepository
	if b.redis != nil {
		store = redissession.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		store = memory.NewSessionStore()
	}

	logger.Info("quiz service configured",
		zap.Bool("redis", b.redis != nil),
		zap.Bool("postgres", b.pool != nil),
		zap.String("quizFile", cfg.Quiz.File),
		zap.Bool("allowImmediateRetry", policy.AllowImmediateRetry),
		zap.Bool("hintOnIncorrect", policy.HintOnIncorrect),
		zap.Duration("retryDelay", policy.RetryDelay),
	)
	return app.NewQuizService(store, quizRepo, policy, engineOptions(cfg)...), nil
}

func engineOptions(cfg config.Config) []engine.Option {
	popup := config.TTLDuration(cfg.Feedback.PopupDuration, engine.DefaultPopupDuration)
	return []engine.Option{engine.WithPopupDuration(popup)}
}
