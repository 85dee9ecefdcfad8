package main

import (
	"fmt"

	"github.com/franz/scenelist/internal/exclude"
	"github.com/franz/scenelist/internal/report"
	"github.com/franz/scenelist/internal/store"
	"github.com/franz/scenelist/internal/util"
	"github.com/spf13/viper"
)

// setupLogging applies --verbose and --quiet.
func setupLogging() {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))
	util.SetColors(util.StderrIsTerminal())
}

// eventLevel maps console verbosity onto the audit log threshold.
func eventLevel() report.EventLevel {
	switch {
	case viper.GetBool("quiet"):
		return report.LevelWarning
	case viper.GetBool("verbose"):
		return report.LevelDebug
	}
	return report.LevelInfo
}

// openStore opens the catalog database, tuning it for network mounts.
func openStore(dbPath string) (*store.Store, error) {
	mount := util.DetectMount(dbPath)
	if mount.Shared {
		util.InfoLog("Database on network storage (%s) - applying optimizations", mount.FSType)
	}

	db, err := store.OpenWithOptions(dbPath, &store.OpenOptions{NetworkOptimized: mount.Shared})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// loadExclusions returns the configured exclusion table.
func loadExclusions() (*exclude.Rules, error) {
	path := viper.GetString("exclusions")
	if path == "" {
		return exclude.Default(), nil
	}
	rules, err := exclude.LoadTOML(path)
	if err != nil {
		return nil, err
	}
	util.InfoLog("Loaded exclusion table %s (%d entries) from %s", rules.Version(), rules.Len(), path)
	return rules, nil
}
