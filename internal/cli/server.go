package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/config"
	"battle-quiz-service/internal/domain"
	"battle-quiz-service/internal/infra/memory"
	pgloader "battle-quiz-service/internal/infra/postgres"
	redisinfra "battle-quiz-service/internal/infra/redis"
	transport "battle-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, envPort string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the battle server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", envPort, "port to listen on (overrides config)")
	return cmd
}

// backends are the stores chosen from config; close releases their connections.
type backends struct {
	quizzes app.QuizRepository
	matches app.MatchRepository
	close   func()
}

func buildBackends(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (backends, error) {
	var closers []func()
	b := backends{close: func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if cfg.Quiz.File != "" {
		fileLoader, err := memory.LoadQuizFile(cfg.Quiz.File)
		if err != nil {
			return b, err
		}
		loader = fileLoader
		log.WithField("file", cfg.Quiz.File).Info("Serving quizzes from file")
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return b, err
		}
		closers = append(closers, pool.Close)
		loader = pgloader.NewQuizLoader(pool)
		log.Info("Serving quizzes from postgres")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr == "" {
		b.quizzes = memory.NewQuizRepository(loader, quizTTL)
		b.matches = memory.NewMatchStore()
		return b, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	closers = append(closers, func() { _ = client.Close() })
	b.quizzes = redisinfra.NewQuizRepository(client, loader, quizTTL, log)
	b.matches = redisinfra.NewMatchStore(client, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute), log)
	return b, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
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

	stores, err := buildBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	board := app.NewLeaderboard()
	service := app.NewBattleService(stores.matches, stores.quizzes, board, app.Settings{
		Rules:  cfg.Battle.Rules(),
		Pacing: cfg.Battle.Pacing(),
	}, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, stores.quizzes, board, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("port", finalPort).Info("Starting battle quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("Shutting down server...")
	case <-ctx.Done():
		log.Info("Context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes is served when neither a quiz file nor postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"slime-arithmetic": {
			ID:         "slime-arithmetic",
			Title:      "Slime of Sums",
			Subject:    "math",
			Difficulty: domain.DifficultyEasy,
			XPReward:   100,
			ItemReward: "Abacus Shield",
			Questions: []domain.Question{
				{
					Prompt:        "What is 7 + 5?",
					Options:       []string{"11", "12", "13", "75"},
					CorrectAnswer: 1,
					Explanation:   "7 + 3 makes 10, and 2 more makes 12.",
				},
				{
					Prompt:        "What is 9 x 3?",
					Options:       []string{"27", "24", "12", "93"},
					CorrectAnswer: 0,
				},
				{
					Prompt:        "What is 100 - 37?",
					Options:       []string{"73", "67", "63", "137"},
					CorrectAnswer: 2,
				},
			},
		},
		"dragon-science": {
			ID:         "dragon-science",
			Title:      "Dragon of the Elements",
			Subject:    "science",
			Difficulty: domain.DifficultyHard,
			XPReward:   300,
			ItemReward: "Periodic Scale Mail",
			Questions: []domain.Question{
				{
					Prompt:        "Which gas do plants absorb for photosynthesis?",
					Options:       []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"},
					CorrectAnswer: 2,
				},
				{
					Prompt:        "What is the chemical symbol for gold?",
					Options:       []string{"Go", "Gd", "Ag", "Au"},
					CorrectAnswer: 3,
					Explanation:   "From the Latin aurum.",
				},
			},
		},
	}
}
