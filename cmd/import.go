package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/excel"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import tests and questions from an .xlsx or .csv question bank",
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

		importConfig := excel.DefaultImportConfig()
		importConfig.FilePath = args[0]
		importConfig.SheetName, _ = cmd.Flags().GetString("sheet")
		importConfig.StartRow, _ = cmd.Flags().GetInt("start-row")

		importer := excel.NewImporter(database.NewTestRepository(db), database.NewQuestionRepository(db), log)
		result, err := importer.Import(cmd.Context(), importConfig)
		if err != nil {
			return fmt.Errorf("import %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Rows processed:    %d\n", result.TotalProcessed)
		fmt.Fprintf(out, "Tests created:     %d\n", result.TestsCreated)
		fmt.Fprintf(out, "Questions created: %d\n", result.QuestionsCreated)
		fmt.Fprintf(out, "Rows skipped:      %d\n", result.Skipped)
		for _, e := range result.Errors {
			fmt.Fprintf(out, "  %s\n", e)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().String("sheet", "Sheet1", "Worksheet to read (xlsx only)")
	importCmd.Flags().Int("start-row", 2, "First data row, 1-based")
}
