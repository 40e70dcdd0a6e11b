package cli

import (
	"context"
	"fmt"
	"time"

	"quiz-engine/internal/config"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/infra/memory"
	pgloader "quiz-engine/internal/infra/postgres"
	redissession "quiz-engine/internal/infra/redis"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd loads question sets into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Validate and upsert question sets into Postgres",
		Long: "Reads quizzes from --file (or quiz.file in the config), falling back to the built-in sets.\n" +
			"Every quiz is validated first; nothing is written if any quiz is malformed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML file with quizzes to seed")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if file == "" {
		file = cfg.Quiz.File
	}
	quizzes, err := seedSource(file)
	if err != nil {
		return err
	}

	db, err := openBunDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := migrateDB(ctx, db, logger); err != nil {
		return err
	}
	if err := pgloader.NewSeeder(db).Upsert(ctx, quizzes); err != nil {
		return fmt.Errorf("seed quizzes: %w", err)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		cache := redissession.NewQuizRepository(client, nil, time.Minute)
		for _, q := range quizzes {
			if err := cache.Invalidate(ctx, q.ID); err != nil {
				logger.Warn("cache invalidation failed", zap.String("quiz", q.ID), zap.Error(err))
			}
		}
	}

	logger.Info("quizzes seeded", zap.Int("count", len(quizzes)))
	return nil
}

func seedSource(file string) ([]domain.Quiz, error) {
	if file != "" {
		return memory.ReadQuizFile(file)
	}
	builtin := memory.BuiltinQuizzes()
	loader := memory.NewStaticQuizLoader(builtin)
	quizzes := make([]domain.Quiz, 0, len(builtin))
	for _, id := range loader.IDs() {
		quizzes = append(quizzes, builtin[id])
	}
	return quizzes, nil
}
