package main

import (
	"context"
	"fmt"

	"github.com/franz/scenelist/internal/holdings"
	"github.com/franz/scenelist/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "Show the scenes already held in the surface reflectance directory",
	Long: `Enumerate --srdir and --srdir/L1G for L*_ref_<projacronym>.dat files and
report the scene prefixes they cover. These scenes are never listed for
processing unless 'scl list --ignorelocal' is used.`,
	RunE: runHoldings,
}

func init() {
	rootCmd.AddCommand(holdingsCmd)

	holdingsCmd.Flags().Bool("list", false, "print every held prefix")
}

func runHoldings(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg := holdings.DefaultConfig(viper.GetString("srdir"), viper.GetString("projacronym"))
	idx, res, err := holdings.Scan(context.Background(), cfg)
	if err != nil {
		return err
	}

	util.InfoLog("Held scenes:   %d", idx.Len())
	util.InfoLog("Matched files: %d", res.Matched)
	if res.Unparsable > 0 {
		util.WarnLog("Unrecognised:  %d", res.Unparsable)
	}
	for _, e := range res.Errors {
		util.ErrorLog("%v", e)
	}

	if list, _ := cmd.Flags().GetBool("list"); list {
		for _, p := range idx.Prefixes() {
			fmt.Println(p)
		}
	}
	return nil
}
