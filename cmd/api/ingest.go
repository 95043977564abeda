package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xpanvictor/parley/internal/app"
	"github.com/xpanvictor/parley/internal/database"
	"github.com/xpanvictor/parley/internal/repository/knowledge"
)

func newIngestCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Chunk, embed and store a text file for retrieval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			_, cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if !cfg.Retrieval.Enabled {
				return fmt.Errorf("retrieval is disabled; set retrieval.enabled to ingest documents")
			}

			ctx := context.Background()
			embedder, err := app.NewProviderFactory(cfg, logger).CreateEmbedder(ctx)
			if err != nil {
				return err
			}
			rc, err := database.NewRedis(cfg.Redis)
			if err != nil {
				logger.Warnf("redis unavailable: %v", err)
				rc = nil
			}
			if rc != nil {
				defer rc.Close()
			}

			svc := knowledge.NewService(knowledge.NewGormKnowledgeRepo(db), embedder,
				knowledge.NewRedisCache(rc), cfg.Retrieval.CacheTTL, logger)

			if title == "" {
				title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			doc, err := svc.Ingest(ctx, title, string(content))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingested %q as %s (%d chunks)\n", doc.Title, doc.ID, doc.Chunks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "document title (default: file name)")
	return cmd
}
