package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"quiz-engine/internal/app"
	"quiz-engine/internal/config"
	transport "quiz-engine/internal/transport/http"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	service, err := buildService(cfg, b, logger)
	if err != nil {
		return err
	}

	defaultQuiz := cfg.Quiz.Default
	if defaultQuiz == "" {
		defaultQuiz = "general"
	}
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, logger, defaultQuiz),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	pruner, err := startPruner(cfg, service, logger)
	if err != nil {
		return err
	}
	defer pruner.Stop()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// startPruner schedules removal of sessions that have gone quiet, e.g. after
// a client vanished without closing its socket.
func startPruner(cfg config.Config, service *app.QuizService, logger *zap.Logger) (*cron.Cron, error) {
	idle := config.TTLDuration(cfg.Session.IdleTTL, 30*time.Minute)
	schedule := cfg.Session.PruneSchedule
	if schedule == "" {
		schedule = "@every 1m"
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if n := service.PruneIdle(context.Background(), idle); n > 0 {
			logger.Info("pruned idle sessions", zap.Int("count", n), zap.Duration("idle", idle))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
