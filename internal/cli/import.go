package cli

import (
	"fmt"
	"sort"

	"battle-quiz-service/internal/infra/memory"
	pgloader "battle-quiz-service/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewImportCmd loads quizzes from a YAML file into postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <quizzes.yaml>",
		Short: "Validate a quiz file and upsert its quizzes into postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			file, err := memory.LoadQuizFile(args[0])
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
				return err
			}

			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			store := pgloader.NewQuizLoader(pool)

			ids := file.IDs()
			sort.Strings(ids)
			for _, id := range ids {
				quiz, err := file.LoadQuiz(ctx, id)
				if err != nil {
					return err
				}
				if err := store.SaveQuiz(ctx, quiz); err != nil {
					return err
				}
				log.WithField("quiz_id", id).Info("Quiz imported")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d quizzes\n", len(ids))
			return nil
		},
	}
}
