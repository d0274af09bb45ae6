package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurobridge-assessment/internal/app"
	"github.com/yungbote/neurobridge-assessment/internal/modules/assessment/simulation"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run synthetic learners through the engine and print a summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		students, _ := cmd.Flags().GetInt("students")
		topic, _ := cmd.Flags().GetString("topic")
		seed, _ := cmd.Flags().GetUint64("seed")
		limit, _ := cmd.Flags().GetInt("limit")

		// Per-request logs would drown the summary table.
		quiet, err := logger.New("test")
		if err != nil {
			return err
		}
		out, err := app.Simulate(cmd.Context(), quiet, cfg, simulation.Options{
			Students:    students,
			Topic:       topic,
			Seed:        seed,
			SafetyLimit: limit,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Simulated %d learners on %q\n\n", len(out), topic)
		return simulation.WriteTable(cmd.OutOrStdout(), out)
	},
}

func init() {
	simulateCmd.Flags().Int("students", simulation.DefaultStudents, "number of synthetic learners")
	simulateCmd.Flags().String("topic", "arrays", "topic to assess")
	simulateCmd.Flags().Uint64("seed", 1, "random seed")
	simulateCmd.Flags().Int("limit", simulation.DefaultSafetyLimit, "answers per learner before giving up")
}
