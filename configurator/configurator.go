package configurator

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"
)

const (
	CfgCommonPrintMemoryInfo string = "common.PrintMemoryInfo"
	CfgCommonPrintStatistic  string = "common.PrintStatistic"

	CfgRendererCanvasWidth   string = "renderer.CanvasWidth"
	CfgRendererCanvasHeight  string = "renderer.CanvasHeight"
	CfgRendererMargin        string = "renderer.Margin"
	CfgRendererColor         string = "renderer.Color"
	CfgRendererBackground    string = "renderer.Background"
	CfgRendererOutFile       string = "renderer.OutFile"
	CfgRendererStrokePadding string = "renderer.StrokePadding"

	CfgPlotterNominalStrokeWidth string = "plotter.NominalStrokeWidth"

	CfgSnapThresholdPx   string = "snap.ThresholdPx"
	CfgSnapGridSpacingMM string = "snap.GridSpacingMM"

	CfgWorkerCount string = "worker.Count"
)

func SetDefaults(v *viper.Viper) {
	v.SetConfigName("config") // no need to include file extension
	v.AddConfigPath(".")
	v.SetConfigType("toml")

	// diagnostic messages
	v.SetDefault(CfgCommonPrintMemoryInfo, false)
	v.SetDefault(CfgCommonPrintStatistic, true)

	// raster and SVG output
	v.SetDefault(CfgRendererCanvasWidth, 1024)
	v.SetDefault(CfgRendererCanvasHeight, 768)
	v.SetDefault(CfgRendererMargin, 0.9)
	v.SetDefault(CfgRendererColor, "#cc0000")
	v.SetDefault(CfgRendererBackground, "")
	v.SetDefault(CfgRendererOutFile, "out.png")
	v.SetDefault(CfgRendererStrokePadding, 0.5)

	// 0 means derive from the aperture
	v.SetDefault(CfgPlotterNominalStrokeWidth, 0.0)

	v.SetDefault(CfgSnapThresholdPx, 10.0)
	v.SetDefault(CfgSnapGridSpacingMM, 0.5)

	// 0 means one worker per CPU
	v.SetDefault(CfgWorkerCount, 0)
}

// ProcessConfigFile reads the config file, a missing file is not an error
func ProcessConfigFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return nil
	}
	if err != nil {
		return fmt.Errorf("configuration file error, using defaults: %w", err)
	}
	return nil
}

func DiagnosticAllCfgPrint(v *viper.Viper) {
	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Println(key, ":", v.Get(key))
	}
	fmt.Println()
}
