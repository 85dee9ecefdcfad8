package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/franz/scenelist/internal/holdings"
	"github.com/franz/scenelist/internal/store"
	"github.com/franz/scenelist/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure scl can build lists.

This command checks:
- SQLite availability
- Database integrity, imported scenes and tile grid
- The surface reflectance directory and how it is mounted
- The output directory is writable
- The exclusion table loads`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().String("outdir", "ESPA_processing_lists", "output directory to check")
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	setupLogging()
	util.InfoLog("=== scl doctor ===")

	outDir, _ := cmd.Flags().GetString("outdir")
	results := []checkResult{
		checkSQLite(),
		checkDatabase(viper.GetString("db")),
		checkSRDirectory(viper.GetString("srdir"), viper.GetString("projacronym")),
		checkOutputDirectory(outDir),
		checkExclusions(),
	}

	hasErrors := false
	for _, r := range results {
		line := r.name
		if r.message != "" {
			line += ": " + r.message
		}
		switch {
		case r.error:
			hasErrors = true
			util.ErrorLog("[x] %s", line)
		case r.warning:
			util.WarnLog("[!] %s", line)
		default:
			util.SuccessLog("[ok] %s", line)
		}
	}

	if hasErrors {
		return fmt.Errorf("diagnostics failed")
	}
	return nil
}

func checkSQLite() checkResult {
	version := store.SQLiteVersion()
	if version == "" {
		return checkResult{name: "SQLite", error: true, message: "driver unavailable"}
	}
	return checkResult{name: "SQLite", message: "version " + version}
}

// checkDatabase verifies the catalog database. A missing file is fine, it is
// created on first import.
func checkDatabase(dbPath string) checkResult {
	info, err := os.Stat(dbPath)
	if os.IsNotExist(err) {
		return checkResult{name: "Database", warning: true, message: fmt.Sprintf("%s does not exist yet, run 'scl import scenes'", dbPath)}
	}
	if err != nil {
		return checkResult{name: "Database", error: true, message: err.Error()}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return checkResult{name: "Database", error: true, message: err.Error()}
	}
	defer db.Close()

	if err := db.CheckIntegrity(); err != nil {
		return checkResult{name: "Database", error: true, message: err.Error()}
	}

	scenes, err := db.CountScenes()
	if err != nil {
		return checkResult{name: "Database", error: true, message: err.Error()}
	}
	msg := fmt.Sprintf("%s (%s, %s scenes", dbPath, humanize.Bytes(uint64(info.Size())), humanize.Comma(int64(scenes)))
	if grid, err := db.LoadGrid(); err == nil {
		msg += fmt.Sprintf(", %d grid paths)", len(grid.Paths()))
		return checkResult{name: "Database", message: msg}
	}
	return checkResult{name: "Database", warning: true, message: msg + ", no tile grid)"}
}

func checkSRDirectory(dir, projection string) checkResult {
	info, err := os.Stat(dir)
	if err != nil {
		return checkResult{name: "SR directory", error: true, message: fmt.Sprintf("cannot access %s: %v", dir, err)}
	}
	if !info.IsDir() {
		return checkResult{name: "SR directory", error: true, message: fmt.Sprintf("%s is not a directory", dir)}
	}

	cfg := holdings.DefaultConfig(dir, projection)
	var matches int
	for _, d := range cfg.Dirs {
		m, _ := filepath.Glob(filepath.Join(d, cfg.Pattern))
		matches += len(m)
	}

	msg := fmt.Sprintf("%s (%d %s files", dir, matches, cfg.Pattern)
	if mount := util.DetectMount(dir); mount.Shared {
		msg += fmt.Sprintf(", %s mount", mount.FSType)
	}
	msg += ")"
	if matches == 0 {
		return checkResult{name: "SR directory", warning: true, message: msg}
	}
	return checkResult{name: "SR directory", message: msg}
}

// checkOutputDirectory verifies the list directory is writable
func checkOutputDirectory(path string) checkResult {
	if err := os.MkdirAll(path, 0755); err != nil {
		return checkResult{name: "Output directory", error: true, message: fmt.Sprintf("cannot create %s: %v", path, err)}
	}

	f, err := os.CreateTemp(path, ".scl_write_test")
	if err != nil {
		return checkResult{name: "Output directory", error: true, message: fmt.Sprintf("cannot write to %s: %v", path, err)}
	}
	f.Close()
	os.Remove(f.Name())

	return checkResult{name: "Output directory", message: fmt.Sprintf("%s (writable)", path)}
}

func checkExclusions() checkResult {
	rules, err := loadExclusions()
	if err != nil {
		return checkResult{name: "Exclusion table", error: true, message: err.Error()}
	}
	return checkResult{name: "Exclusion table", message: fmt.Sprintf("version %s, %d entries", rules.Version(), rules.Len())}
}
