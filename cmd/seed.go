package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-assessment/internal/app"
)

var seedCmd = &cobra.Command{
	Use:   "seed-questions",
	Short: "Write the question bank into the database",
	Long:  "Write the question bank into the database. Without --file the built-in 12-question bank is used.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = cfg.QuestionBankPath
		}
		n, err := app.SeedQuestions(cmd.Context(), log, cfg, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d questions\n", n)
		return nil
	},
}

func init() {
	seedCmd.Flags().String("file", "", "YAML question bank (defaults to QUESTION_BANK_PATH)")
}
