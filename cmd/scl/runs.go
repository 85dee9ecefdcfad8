package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/franz/scenelist/internal/store"
	"github.com/franz/scenelist/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Show the history of list runs",
	Long: `List recorded runs, newest first. With a run id, print the scenes that
run emitted in list order together with how each was selected
(direct, neighbor or missing).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().String("since", "", "only runs started on or after this date (YYYY-MM-DD)")
	runsCmd.Flags().String("scene", "", "only runs that emitted this scene id")
	runsCmd.Flags().Uint64("limit", 20, "maximum number of runs (0 = all)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	setupLogging()

	db, err := openStore(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		return showRunItems(db, args[0])
	}

	filter := store.RunFilter{}
	filter.SceneID, _ = cmd.Flags().GetString("scene")
	filter.Limit, _ = cmd.Flags().GetUint64("limit")
	if since, _ := cmd.Flags().GetString("since"); since != "" {
		t, err := time.Parse("2006-01-02", since)
		if err != nil {
			return util.NewConfigError("since", "%q is not YYYY-MM-DD", since)
		}
		filter.Since = t
	}

	runs, err := db.ListRuns(filter)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		util.InfoLog("No runs recorded")
		return nil
	}

	for _, r := range runs {
		fmt.Printf("%s  %s (%s)\n", r.ID, r.StartedAt.Local().Format("2006-01-02 15:04"), humanize.Time(r.StartedAt))
		fmt.Printf("     Criteria: %s\n", r.Criteria)
		fmt.Printf("     Selected: %d direct, %d neighbor, %d missing (%d gaps)\n", r.Accepted, r.Neighbors, r.Missing, r.Gaps)
		fmt.Printf("     Lists:    L4-7 %d, L8 %d\n", r.L47Count, r.L8Count)
		if len(r.OutputFiles) > 0 {
			fmt.Printf("     Files:    %s\n", strings.Join(r.OutputFiles, ", "))
		}
		fmt.Println()
	}
	return nil
}

func showRunItems(db *store.Store, runID string) error {
	items, err := db.RunItems(runID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		util.InfoLog("Run %s emitted no scenes", runID)
		return nil
	}
	for _, it := range items {
		fmt.Printf("%-4s %-8s %-8s %s\n", it.Family, it.DateKey, it.Mechanism, it.OutputID)
	}
	return nil
}
