package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vasilyturchenko/gerbcompare/configurator"
)

var (
	cfgFile string

	// configuration base
	viperConfig *viper.Viper

	startTime time.Time
)

var rootCmd = &cobra.Command{
	Use:   "gerbcompare",
	Short: "Gerber and NC drill viewer and comparison tool",
	Long: `Parses RS-274X Gerber and Excellon drill files, renders them and compares
two revisions of a board.

Examples:
  gerbcompare parse top.gtl
  gerbcompare render top.gtl -o top.png --crop outline.gm1
  gerbcompare diff rev1/top.gtl rev2/top.gtl --ref-a 10,10 --ref-b 12,8
  gerbcompare match rev1/ rev2/
  gerbcompare snap top.gtl --at 12.5,3`,
	Version:           "0.2.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		printMemUsage("Memory usage at exit:")
		timeInfo(startTime)
	},
}

// Execute runs the root command
func Execute() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.toml)")
	// glog registers -v, -logtostderr and friends on the standard flag set
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	startTime = time.Now()
	// glog reads its flags from the standard set, mark it parsed
	if err := flag.CommandLine.Parse(nil); err != nil {
		return err
	}
	viperConfig = viper.New()
	configurator.SetDefaults(viperConfig)
	if cfgFile != "" {
		viperConfig.SetConfigFile(cfgFile)
	}
	if err := configurator.ProcessConfigFile(viperConfig); err != nil {
		fmt.Println("An error has occured:", err)
		fmt.Println("Using built-in defaults.")
		viperConfig = viper.New()
		configurator.SetDefaults(viperConfig)
	}
	if glog.V(3) {
		configurator.DiagnosticAllCfgPrint(viperConfig)
	}
	return nil
}
