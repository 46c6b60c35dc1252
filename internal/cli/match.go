package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match commands",
	}

	cmd.AddCommand(newMatchStartCmd())
	cmd.AddCommand(newMatchGetCmd())
	cmd.AddCommand(newMatchCancelCmd())
	cmd.AddCommand(newMatchScoresCmd())
	cmd.AddCommand(newMatchResultCmd())
	cmd.AddCommand(newMatchProblemsCmd())
	cmd.AddCommand(newMatchProblemCmd())
	cmd.AddCommand(newMatchSubmitCmd())
	cmd.AddCommand(newMatchNextCmd())

	return cmd
}

func newMatchStartCmd() *cobra.Command {
	var difficulty, language string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a match (joins a waiting opponent if one exists)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"difficulty": difficulty,
				"language":   language,
			}
			var result Match

			if err := client.Post("/api/v1/matches", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&difficulty, "difficulty", "Easy", "Problem difficulty: Easy, Medium, Hard")
	cmd.Flags().StringVar(&language, "language", "python", "Submission language")

	return cmd
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <match-id>",
		Short: "Show match state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Match

			if err := client.Get("/api/v1/matches/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <match-id>",
		Short: "Cancel a waiting match you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/matches/"+args[0]+"/cancel", nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Match cancelled")
			return nil
		},
	}
}

func newMatchScoresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scores <match-id>",
		Short: "Show live match scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Scores

			if err := client.Get("/api/v1/matches/"+args[0]+"/scores", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchResultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "result <match-id>",
		Short: "Show the final match result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchResult

			if err := client.Get("/api/v1/matches/"+args[0]+"/result", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchProblemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "problems <match-id>",
		Short: "List the match's problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ProblemList

			if err := client.Get("/api/v1/matches/"+args[0]+"/problems", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchProblemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "problem <match-id> <problem-id>",
		Short: "Show one problem in full",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Problem

			if err := client.Get("/api/v1/matches/"+args[0]+"/problems/"+args[1], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchSubmitCmd() *cobra.Command {
	var file, language string

	cmd := &cobra.Command{
		Use:   "submit <match-id> <problem-id>",
		Short: "Submit code for judging",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read code file: %w", err)
			}

			req := map[string]string{
				"code":     string(code),
				"language": language,
			}
			var result SubmitResult

			path := "/api/v1/matches/" + args[0] + "/problems/" + args[1] + "/submissions"
			if err := client.Post(path, req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "File containing the code to submit (required)")
	cmd.Flags().StringVar(&language, "language", "python", "Submission language")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newMatchNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <match-id> <problem-id>",
		Short: "Force progression past the given problem (time up)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/matches/" + args[0] + "/problems/" + args[1] + "/next"
			if err := client.Post(path, nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Progression advanced")
			return nil
		},
	}
}
