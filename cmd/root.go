package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/example/ieltsprep/internal/config"
	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "ieltsprep",
	Short:         "IELTS practice grading and progress service",
	Long:          "ieltsprep grades IELTS practice tests, keeps per-learner progress profiles and reports, and reminds learners to keep their study streak.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (environment variables override it)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(migrateCmd)
}

// setup loads the configuration and builds the logger
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// openDatabase connects to the configured database and brings the schema up to date
func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	dsn := cfg.DBPath
	if cfg.DBType == database.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	db, err := database.Connect(cfg.DBType, dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
