package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/franz/scenelist/internal/catalog"
	"github.com/franz/scenelist/internal/holdings"
	"github.com/franz/scenelist/internal/output"
	"github.com/franz/scenelist/internal/plan"
	"github.com/franz/scenelist/internal/proclist"
	"github.com/franz/scenelist/internal/report"
	"github.com/franz/scenelist/internal/scene"
	"github.com/franz/scenelist/internal/selection"
	"github.com/franz/scenelist/internal/store"
	"github.com/franz/scenelist/internal/tilegrid"
	"github.com/franz/scenelist/internal/util"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Build processing lists of scenes not yet held locally",
	Long: `Select catalog scenes that pass the given criteria and are not held
locally, complete the paths they belong to, and write the result as
processing lists.

Selection rules:
- Known-bad acquisition windows are always excluded
- Scenes already present in --srdir are skipped unless --ignorelocal
- All given criteria must hold (cloud cover, sun elevation, level, dates...)
- With --allinpath, the other tiles of a selected path and date are added,
  followed by every remaining catalog scene not held locally

Day-of-year ranges may wrap the new year: --startdoy 350 --enddoy 10.

Lists are written to --outdir as ESPA_list<timestamp>.txt, or one file
per sensor family with --separate. No file is written for an empty list.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	f := listCmd.Flags()
	f.Int("path", 0, "WRS-2 path")
	f.Int("row", 0, "WRS-2 row, requires --path")
	f.Float64("maxcc", 100, "maximum full-scene cloud cover in percent")
	f.Float64("maxccland", 30, "maximum land cloud cover in percent")
	f.Bool("ccland", true, "use land cloud cover instead of full scene")
	f.String("startdate", "", "first acquisition date, YYYY/MM/DD")
	f.String("enddate", "", "last acquisition date, YYYY/MM/DD")
	f.Int("startdoy", 0, "starting day of year, 1-366")
	f.Int("enddoy", 0, "ending day of year, 1-366; less than --startdoy spans the new year")
	f.Int("startyear", 0, "starting year")
	f.Int("endyear", 0, "ending year; swapped with --startyear if smaller")
	f.Int("landsat", 0, "Landsat mission number (4, 5, 7, 8 or 9)")
	f.String("family", "", "sensor family: L47 or L8")
	f.String("sensor", "", "sensor: TM, ETM, ETM_SLC_OFF, OLI, OLI_TIRS, TIRS")
	f.Float64("minsunel", 15, "minimum sun elevation in degrees")
	f.String("levels", "L1TP", "processing levels: L1TP, L1GT (adds L1GT), L1GS or ALL")
	f.Bool("ignorelocal", false, "ignore presence of local scenes")
	f.Bool("allinpath", true, "complete selected paths and add every missing scene")
	f.Bool("separate", false, "separate output files for Landsat 4-7 and 8")
	f.String("format", "text", "output format: text, html or both")
	f.StringP("outdir", "o", "ESPA_processing_lists", "output directory")
	f.String("feed", "", "read scenes from this CSV feed instead of the database")
	f.String("grid", "", "read the tile grid from this file instead of the database")
	f.String("holdings", "", "read held scene prefixes from this file instead of scanning --srdir")
	f.Int("concurrency", 0, "concurrent path completions (0 = number of CPUs)")
	f.Bool("dry-run", false, "select scenes without writing lists or recording the run")

	for _, key := range []string{
		"path", "row", "maxcc", "maxccland", "ccland", "startdate", "enddate", "startdoy", "enddoy",
		"startyear", "endyear", "landsat", "family", "sensor", "minsunel", "levels", "ignorelocal",
		"allinpath", "separate", "format", "outdir", "concurrency", "dry-run",
	} {
		viper.BindPFlag(key, f.Lookup(key))
	}
}

// listOptions are the selection settings after flag, environment and file
// precedence is applied.
type listOptions struct {
	Path, Row          int
	MaxCC, MaxCCLand   float64
	CCLand             bool
	StartDate, EndDate string
	StartDOY, EndDOY   int
	StartYear, EndYear int
	Landsat            int
	Family, Sensor     string
	MinSunEl           float64
	Levels             string
	IgnoreLocal        bool
}

func listOptionsFromConfig() listOptions {
	return listOptions{
		Path:        viper.GetInt("path"),
		Row:         viper.GetInt("row"),
		MaxCC:       viper.GetFloat64("maxcc"),
		MaxCCLand:   viper.GetFloat64("maxccland"),
		CCLand:      viper.GetBool("ccland"),
		StartDate:   viper.GetString("startdate"),
		EndDate:     viper.GetString("enddate"),
		StartDOY:    viper.GetInt("startdoy"),
		EndDOY:      viper.GetInt("enddoy"),
		StartYear:   viper.GetInt("startyear"),
		EndYear:     viper.GetInt("endyear"),
		Landsat:     viper.GetInt("landsat"),
		Family:      viper.GetString("family"),
		Sensor:      viper.GetString("sensor"),
		MinSunEl:    viper.GetFloat64("minsunel"),
		Levels:      viper.GetString("levels"),
		IgnoreLocal: viper.GetBool("ignorelocal"),
	}
}

const dateLayout = "2006/01/02"

// buildCriteria converts options into selection criteria.
func buildCriteria(o listOptions) (selection.Criteria, error) {
	c := selection.Criteria{
		UseLandCloud:    o.CCLand,
		MinSunElevation: scene.Float(o.MinSunEl),
		Mission:         o.Landsat,
		Path:            o.Path,
		Row:             o.Row,
		StartYear:       o.StartYear,
		EndYear:         o.EndYear,
		StartDOY:        o.StartDOY,
		EndDOY:          o.EndDOY,
		IgnoreLocal:     o.IgnoreLocal,
	}
	if o.CCLand {
		c.MaxCloud = scene.Float(o.MaxCCLand)
	} else {
		c.MaxCloud = scene.Float(o.MaxCC)
	}

	var err error
	if c.Levels, err = selection.LevelsFor(o.Levels); err != nil {
		return c, err
	}
	if c.Instrument, err = selection.ParseInstrument(o.Sensor); err != nil {
		return c, err
	}
	if o.Family != "" {
		fam, err := scene.ParseFamily(o.Family)
		if err != nil {
			return c, util.NewConfigError("family", "%v", err)
		}
		c.Families = []scene.Family{fam}
	}
	if o.StartDate != "" {
		if c.AcquiredFrom, err = time.Parse(dateLayout, o.StartDate); err != nil {
			return c, util.NewConfigError("startdate", "%q is not YYYY/MM/DD", o.StartDate)
		}
	}
	if o.EndDate != "" {
		if c.AcquiredTo, err = time.Parse(dateLayout, o.EndDate); err != nil {
			return c, util.NewConfigError("enddate", "%q is not YYYY/MM/DD", o.EndDate)
		}
		// inclusive of the whole end day
		c.AcquiredTo = c.AcquiredTo.Add(24*time.Hour - time.Nanosecond)
	}

	return c, c.Validate()
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	setupLogging()
	started := time.Now()

	format := strings.ToLower(viper.GetString("format"))
	if format != "text" && format != "html" && format != "both" {
		return util.NewConfigError("format", "%q is not one of text, html, both", format)
	}
	allInPath := viper.GetBool("allinpath")
	dryRun := viper.GetBool("dry-run")

	// Criteria are validated before any input is touched.
	criteria, err := buildCriteria(listOptionsFromConfig())
	if err != nil {
		return err
	}

	dbPath := viper.GetString("db")
	db, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runID := uuid.NewString()
	logger, err := report.NewEventLogger(viper.GetString("artifacts"), "list", eventLevel())
	if err != nil {
		util.WarnLog("Failed to create event log: %v", err)
		logger = report.NullLogger()
	}
	defer logger.Close()
	logger.SetRunID(runID)

	util.InfoLog("Run %s", runID)

	// Step 1: inputs
	cat, feedSkipped, err := loadCatalog(ctx, db, cmd, logger)
	if err != nil {
		return err
	}
	var grid *tilegrid.Grid
	if allInPath {
		if grid, err = loadGrid(db, cmd); err != nil {
			return err
		}
		if criteria.Path != 0 {
			if _, err := grid.RowsFor(criteria.Path); err != nil {
				return util.NewConfigError("path", "%v", err)
			}
		}
	}
	exclusions, err := loadExclusions()
	if err != nil {
		return err
	}
	held, err := loadHoldings(ctx, cmd)
	if err != nil {
		return err
	}

	// Step 2: selection
	planner := plan.New(&plan.Config{
		Workers: viper.GetInt("concurrency"),
		Logger:  logger,
	})
	result, err := planner.Run(ctx, plan.Inputs{
		Catalog:    cat,
		Grid:       grid,
		Exclusions: exclusions,
		Holdings:   held,
		Criteria:   criteria,
		AllInPath:  allInPath,
	})
	if err != nil {
		return err
	}

	summary := &report.SummaryReport{
		RunID:            runID,
		GeneratedAt:      time.Now(),
		CatalogScenes:    cat.Len(),
		FeedSkipped:      feedSkipped,
		FeedConflicts:    cat.Conflicts(),
		HeldScenes:       held.Len(),
		ExclusionVersion: exclusions.Version(),
		Accepted:         result.Accepted,
		Neighbors:        result.Neighbors,
		Missing:          result.Missing,
		Gaps:             result.Gaps,
		Rejected:         result.RejectedByName(),
		Families: []report.FamilyCount{
			{Family: scene.FamilyL47.String(), Count: len(result.Lists.L47)},
			{Family: scene.FamilyL8.String(), Count: len(result.Lists.L8)},
		},
		DatabasePath: dbPath,
		EventLogPath: logger.Path(),
	}
	if grid != nil {
		summary.GridPaths = len(grid.Paths())
	}

	if dryRun {
		util.InfoLog("Dry run: %d scenes selected, nothing written", result.Lists.Len())
		for _, id := range result.Lists.Merged() {
			fmt.Println(id)
		}
		return nil
	}

	// Step 3: output
	outDir := viper.GetString("outdir")
	stamp := started.Format(output.StampLayout)
	var written []output.Written
	if format == "text" || format == "both" {
		files, err := output.WriteText(outDir, result.Lists, output.Options{
			Separate: viper.GetBool("separate"),
			Stamp:    stamp,
		})
		if err != nil {
			logger.LogError(report.EventEmit, "", err)
			return err
		}
		written = append(written, files...)
	}
	if format == "html" || format == "both" {
		page, err := output.WriteHTML(outDir, downloadLinks(cat, result.Lists), output.HTMLOptions{
			LoginURL: output.DefaultLoginURL,
			Stamp:    stamp,
		})
		if err != nil {
			logger.LogError(report.EventEmit, "", err)
			return err
		}
		if page != nil {
			written = append(written, *page)
		}
	}
	for _, w := range written {
		logger.LogEmit(w.Family, w.Path, w.Count)
		summary.OutputFiles = append(summary.OutputFiles, w.Path)
		util.SuccessLog("Wrote %d scenes to %s", w.Count, w.Path)
	}
	if len(written) == 0 {
		util.InfoLog("No scenes to process, no list written")
	}

	// Step 4: history and report
	summary.Duration = time.Since(started)
	if err := db.InsertRun(runRecord(runID, started, criteria, allInPath, result, summary.OutputFiles), runItems(result.Lists)); err != nil {
		util.WarnLog("Failed to record run: %v", err)
	}

	reportPath := filepath.Join(viper.GetString("artifacts"), "reports", stamp, "summary.md")
	if err := report.WriteMarkdownReport(summary, reportPath); err != nil {
		util.WarnLog("Failed to write report: %v", err)
	} else {
		util.InfoLog("Report saved to: %s", reportPath)
	}

	return nil
}

// loadCatalog reads --feed when given, otherwise the imported scenes.
func loadCatalog(ctx context.Context, db *store.Store, cmd *cobra.Command, logger *report.EventLogger) (*catalog.Catalog, int, error) {
	var (
		records []*scene.Record
		skipped []error
		err     error
	)
	feed, _ := cmd.Flags().GetString("feed")
	if feed != "" {
		records, skipped, err = readSceneFeed(ctx, feed, logger)
	} else {
		records, skipped, err = db.LoadScenes()
		for _, skip := range skipped {
			util.WarnLog("Skipping stored scene: %v", skip)
			logger.LogMalformed("", skip)
		}
	}
	if err != nil {
		return nil, 0, err
	}

	cat := catalog.Ingest(records, &catalog.Config{Logger: logger})
	if cat.Len() == 0 {
		util.WarnLog("Scene catalog is empty; import a feed with 'scl import scenes'")
	}
	logger.LogIngest(feed, cat.Len(), len(skipped))
	util.InfoLog("Loaded %d catalog scenes", cat.Len())
	return cat, len(skipped), nil
}

func loadGrid(db *store.Store, cmd *cobra.Command) (*tilegrid.Grid, error) {
	if path, _ := cmd.Flags().GetString("grid"); path != "" {
		return tilegrid.Load(path)
	}
	grid, err := db.LoadGrid()
	if err != nil {
		return nil, fmt.Errorf("%w (import one with 'scl import grid' or pass --grid)", err)
	}
	return grid, nil
}

func loadHoldings(ctx context.Context, cmd *cobra.Command) (*holdings.Index, error) {
	if path, _ := cmd.Flags().GetString("holdings"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open holdings file: %w", err)
		}
		defer f.Close()
		return holdings.ReadPrefixFile(f)
	}

	cfg := holdings.DefaultConfig(viper.GetString("srdir"), viper.GetString("projacronym"))
	idx, _, err := holdings.Scan(ctx, cfg)
	return idx, err
}

func downloadLinks(cat *catalog.Catalog, lists *proclist.Lists) []output.Link {
	var links []output.Link
	for _, f := range scene.Families {
		for _, it := range lists.Family(f) {
			rec, ok := cat.Lookup(it.ID)
			if !ok {
				continue
			}
			links = append(links, output.Link{SceneID: it.ID.String(), URL: rec.DownloadURL})
		}
	}
	return links
}

func runRecord(id string, started time.Time, criteria selection.Criteria, allInPath bool, res *plan.Result, files []string) *store.Run {
	return &store.Run{
		ID:          id,
		StartedAt:   started,
		FinishedAt:  time.Now(),
		Criteria:    criteria.String(),
		AllInPath:   allInPath,
		Accepted:    res.Accepted,
		Neighbors:   res.Neighbors,
		Missing:     res.Missing,
		Gaps:        res.Gaps,
		L47Count:    len(res.Lists.L47),
		L8Count:     len(res.Lists.L8),
		OutputFiles: files,
	}
}

func runItems(lists *proclist.Lists) []store.RunItem {
	var items []store.RunItem
	for _, f := range scene.Families {
		for _, it := range lists.Family(f) {
			items = append(items, store.RunItem{
				Position:  len(items),
				SceneID:   it.ID.String(),
				OutputID:  it.OutputID,
				Family:    it.Family.String(),
				DateKey:   it.DateKey.String(),
				Mechanism: string(it.Mechanism),
			})
		}
	}
	return items
}
