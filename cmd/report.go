package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/internal/submission"
)

var reportCmd = &cobra.Command{
	Use:   "report <user-id>",
	Short: "Print a learner's progress report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := submission.NewService(submission.Deps{
			Tests:     database.NewTestRepository(db),
			Questions: database.NewQuestionRepository(db),
			Results:   database.NewTestResultRepository(db),
			Progress:  database.NewProgressRepository(db),
			Log:       log,
			Location:  cfg.Location(),
		})

		report, err := svc.Report(cmd.Context(), args[0])
		if errors.Is(err, progress.ErrNoData) {
			fmt.Fprintf(cmd.OutOrStdout(), "No test results yet for %s.\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}
