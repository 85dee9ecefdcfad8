package main

import (
	"fmt"
	"os"

	"github.com/franz/scenelist/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "scl",
		Short: "Scene List builder - decide which Landsat scenes to order for processing",
		Long: `scl reconciles a Landsat scene catalog against the scenes already held
locally and produces sorted, deduplicated processing lists, one product
identifier per line, ready to submit for surface reflectance processing.

Feeds are imported once into a local database; every list run is recorded
with an audit log.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/scl.yaml)")
	rootCmd.PersistentFlags().String("db", "scenelist.db", "catalog database file")
	rootCmd.PersistentFlags().String("artifacts", "artifacts", "directory for event logs and reports")
	rootCmd.PersistentFlags().String("srdir", ".", "local surface reflectance directory")
	rootCmd.PersistentFlags().String("projacronym", "ITM", "projection acronym in local file names")
	rootCmd.PersistentFlags().String("exclusions", "", "exclusion table (TOML), default is the built-in table")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	for _, key := range []string{"db", "artifacts", "srdir", "projacronym", "exclusions", "verbose", "quiet"} {
		viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key))
	}
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("scl")
		viper.SetConfigType("yaml")
	}

	// Read in environment variables that match
	viper.SetEnvPrefix("SCL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
