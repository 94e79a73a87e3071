package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/battle"
	"battle-quiz-service/internal/domain"
	"battle-quiz-service/internal/infra/memory"
	"github.com/spf13/cobra"
)

// NewPlayCmd runs a single battle in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var (
		quizID string
		name   string
		class  string
		seed   int64
		fast   bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Battle a quiz monster in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			stores, err := buildBackends(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer stores.close()

			settings := app.Settings{Rules: cfg.Battle.Rules(), Pacing: cfg.Battle.Pacing()}
			if fast {
				settings.Pacing = battle.Pacing{}
			}
			if cmd.Flags().Changed("seed") {
				settings.Rollers = func() (battle.Roller, error) {
					return battle.NewSeededRoller(seed), nil
				}
			}
			board := app.NewLeaderboard()
			service := app.NewBattleService(memory.NewMatchStore(), stores.quizzes, board, settings, log)

			player := domain.Player{ID: "local", DisplayName: name, CharacterClass: class}
			_, err = playMatch(ctx, service, quizID, player, cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVar(&quizID, "quiz", "slime-arithmetic", "quiz id to battle")
	cmd.Flags().StringVar(&name, "name", "Hero", "display name")
	cmd.Flags().StringVar(&class, "class", "warrior", "character class")
	cmd.Flags().Int64Var(&seed, "seed", 0, "damage roll seed for a reproducible battle")
	cmd.Flags().BoolVar(&fast, "fast", false, "skip animation pauses")
	return cmd
}

var cueText = map[battle.Cue]string{
	battle.CueAttackWindup: "...",
	battle.CueImpact:       "*CRASH*",
}

// playMatch drives one match from in/out until it ends or input runs out.
func playMatch(ctx context.Context, service *app.BattleService, quizID string, player domain.Player, in io.Reader, out io.Writer) (battle.Outcome, error) {
	view, err := service.Start(ctx, quizID, player)
	if err != nil {
		return battle.Outcome{}, err
	}
	defer service.Exit(context.Background(), view.MatchID)

	fmt.Fprintf(out, "%s the %s faces %s (%s, %s)\n", player.DisplayName, player.CharacterClass, view.Title, view.Subject, view.Difficulty)
	scanner := bufio.NewScanner(in)

	for view.Question != nil {
		q := view.Question
		fmt.Fprintf(out, "\nQuestion %d/%d: %s\n", q.Index+1, q.Total, q.Prompt)
		for i, option := range q.Options {
			fmt.Fprintf(out, "  %d) %s\n", i+1, option)
		}

		result, err := submitFromInput(ctx, service, view.MatchID, scanner, out)
		if err != nil {
			return battle.Outcome{}, err
		}
		err = app.PlaySteps(ctx, result.Steps, func(step battle.Step) error {
			if text, ok := cueText[step.Cue]; ok {
				fmt.Fprintln(out, text)
			}
			return nil
		})
		if err != nil {
			return battle.Outcome{}, err
		}
		printTurn(out, q, result)

		state, err := service.Settle(ctx, view.MatchID)
		if err != nil {
			return battle.Outcome{}, err
		}
		if state.Phase == battle.PhaseMatchOver {
			break
		}
		if view, err = service.Advance(ctx, view.MatchID); err != nil {
			return battle.Outcome{}, err
		}
	}

	outcome, err := service.Finish(ctx, view.MatchID)
	if err != nil {
		return battle.Outcome{}, err
	}
	if outcome.Victory {
		fmt.Fprintln(out, "\nVICTORY!")
	} else {
		fmt.Fprintln(out, "\nDefeated...")
	}
	fmt.Fprintf(out, "Score: %.0f%% (%d/%d)  XP earned: %d\n", outcome.FinalScorePercent, outcome.CorrectCount, outcome.TotalQuestions, outcome.XPEarned)
	if outcome.ItemReward != "" {
		fmt.Fprintf(out, "Item found: %s\n", outcome.ItemReward)
	}
	return outcome, nil
}

// submitFromInput reads lines until one is accepted as an answer.
func submitFromInput(ctx context.Context, service *app.BattleService, matchID string, scanner *bufio.Scanner, out io.Writer) (battle.TurnResult, error) {
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return battle.TurnResult{}, err
			}
			return battle.TurnResult{}, io.ErrUnexpectedEOF
		}
		n, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Fprintln(out, "enter the number of an option")
			continue
		}
		result, err := service.Submit(ctx, matchID, n-1)
		if errors.Is(err, domain.ErrInvalidOption) {
			fmt.Fprintf(out, "choose 1-%d\n", domain.OptionsPerQuestion)
			continue
		}
		return result, err
	}
}

func printTurn(out io.Writer, q *domain.QuestionView, result battle.TurnResult) {
	if result.Correct {
		fmt.Fprintf(out, "Correct! You hit the monster for %d.\n", result.Damage)
	} else {
		fmt.Fprintf(out, "Wrong, the answer was %q. The monster hits you for %d.\n", q.Options[result.CorrectAnswer], result.Damage)
	}
	if result.Explanation != "" {
		fmt.Fprintln(out, result.Explanation)
	}
	s := result.State
	fmt.Fprintf(out, "HP %d/%d | Monster %d/%d\n", s.PlayerHP, s.PlayerMaxHP, s.EnemyHP, s.EnemyMaxHP)
}
