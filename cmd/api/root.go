package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/database"
	"github.com/xpanvictor/parley/pkg/Logger"
	"gorm.io/gorm"
)

// set with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

var configDirs []string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parley",
		Short: "Parley - turn-based voice conversation server",
		Long: `Parley streams microphone audio over a WebSocket, cuts it into utterances,
and answers each one with transcription, retrieval, a language model and speech.

Run 'parley serve' to start the server.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringSliceVar(&configDirs, "config-dir", nil,
		"directories searched for config_<ENV>.yaml (default . and ./config)")

	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newIngestCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// bootstrap loads settings, a logger and a migrated database.
func bootstrap() (*config.Loader, *config.Settings, *Logger.Logger, *gorm.DB, error) {
	loader := config.NewLoader(configDirs...)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger := Logger.New(cfg.Debug)
	if f := loader.ConfigFile(); f != "" {
		logger.Infof("config loaded from %s (env %s)", f, cfg.Env)
	} else {
		logger.Infof("no config file found, running on defaults (env %s)", cfg.Env)
	}

	db, err := database.InitDB(cfg.DB, cfg.Debug)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.MigrateDB(db); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return loader, cfg, logger, db, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "parley %s (%s)\n", version, commit)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			logger.Infof("database migrated (%s)", cfg.DB.Driver)
			return nil
		},
	}
}
