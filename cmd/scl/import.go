package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/franz/scenelist/internal/catalog"
	"github.com/franz/scenelist/internal/report"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/tilegrid"
	"github.com/franz/scenelist/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import feeds into the catalog database",
}

var importScenesCmd = &cobra.Command{
	Use:   "scenes <feed.csv>...",
	Short: "Import scene metadata feeds",
	Long: `Import one or more scene metadata CSV feeds.

Each feed needs a header row with at least a scene id column. Rows that
cannot be decoded are skipped and logged. When a scene appears more than
once the last record wins, both within a feed and across imports.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImportScenes,
}

var importGridCmd = &cobra.Command{
	Use:   "grid <grid.csv|grid.toml>",
	Short: "Replace the tile grid",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportGrid,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importScenesCmd)
	importCmd.AddCommand(importGridCmd)
}

func runImportScenes(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	setupLogging()

	db, err := openStore(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	logger, err := report.NewEventLogger(viper.GetString("artifacts"), "import", eventLevel())
	if err != nil {
		util.WarnLog("Failed to create event log: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()

	total := 0
	for _, path := range args {
		records, skipped, err := readSceneFeed(ctx, path, logger)
		if err != nil {
			return err
		}

		// Collapse duplicates inside the feed before they reach the database.
		cat := catalog.Ingest(records, &catalog.Config{Logger: logger})
		if err := db.UpsertScenes(cat.Records()); err != nil {
			return err
		}

		logger.LogIngest(path, cat.Len(), len(skipped))
		util.SuccessLog("Imported %s scenes from %s (%d skipped, %d conflicts)",
			humanize.Comma(int64(cat.Len())), path, len(skipped), cat.Conflicts())
		total += cat.Len()
	}

	n, err := db.CountScenes()
	if err != nil {
		return err
	}
	util.InfoLog("Catalog now holds %s scenes (%s imported this run)", humanize.Comma(int64(n)), humanize.Comma(int64(total)))
	return nil
}

// readSceneFeed decodes one CSV feed, logging every skipped row.
func readSceneFeed(ctx context.Context, path string, logger *report.EventLogger) ([]*scene.Record, []error, error) {
	f, err := util.OpenShared(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open feed: %w", err)
	}
	defer f.Close()

	records, skipped, err := catalog.ReadCSV(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	for _, skip := range skipped {
		util.WarnLog("%s: skipping record: %v", path, skip)
		id := ""
		var malformed *catalog.MalformedRecordError
		if errors.As(skip, &malformed) {
			id = malformed.ID
		}
		logger.LogMalformed(id, skip)
	}
	return records, skipped, nil
}

func runImportGrid(cmd *cobra.Command, args []string) error {
	setupLogging()

	cells, err := tilegrid.LoadCells(args[0])
	if err != nil {
		return err
	}
	grid, err := tilegrid.Build(cells)
	if err != nil {
		return err
	}

	db, err := openStore(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.ReplaceGrid(grid.Cells()); err != nil {
		return err
	}
	util.SuccessLog("Imported tile grid: %d paths, %d cells", len(grid.Paths()), len(grid.Cells()))
	return nil
}
