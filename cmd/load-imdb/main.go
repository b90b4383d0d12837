package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mantonx/moviedb/internal/database"
	"github.com/mantonx/moviedb/internal/logger"
	"github.com/mantonx/moviedb/internal/modules/importmodule"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load-imdb <movies.tsv> <ratings.tsv> <database-file>",
		Short: "Load IMDB title and rating dumps into a SQLite catalog",
		Long: `Reads an IMDB movies TSV (tconst, title, year, runtime, genres) and the
title.ratings TSV, and inserts every movie with its rating and genres into the
SQLite database file. The whole run is one transaction: on any error nothing
is written.

Example:
  load-imdb movies.tsv title.ratings.tsv ./data/moviedb.db`,
		Args:         cobra.ExactArgs(3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, args[0], args[1], args[2])
		},
	}
}

func run(ctx context.Context, cmd *cobra.Command, moviesPath, ratingsPath, dbPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Configure(logger.Options{
		Level:  os.Getenv("MOVIEDB_LOG_LEVEL"),
		Format: os.Getenv("MOVIEDB_LOG_FORMAT"),
	})

	db, err := database.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate catalog schema: %w", err)
	}

	stats, err := importmodule.NewLoader(db).LoadFiles(ctx, moviesPath, ratingsPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d movies, %d new categories, %d category links (%d ratings read) in %s\n",
		stats.Movies, stats.Categories, stats.Links, stats.RatingsLoaded, stats.Duration)
	return nil
}
