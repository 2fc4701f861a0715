package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/vasilyturchenko/gerbcompare/configurator"
	"github.com/vasilyturchenko/gerbcompare/gerbparser"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
	"github.com/vasilyturchenko/gerbcompare/layermatch"
	"github.com/vasilyturchenko/gerbcompare/plotter"
	"github.com/vasilyturchenko/gerbcompare/render"
)

func readLayer(fileName string) (layermatch.GerberFile, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return layermatch.GerberFile{}, err
	}
	return layermatch.GerberFile{FileName: fileName, Content: string(data)}, nil
}

func plotOptions() plotter.Options {
	return plotter.Options{NominalStrokeWidth: viperConfig.GetFloat64(configurator.CfgPlotterNominalStrokeWidth)}
}

// loadTree parses and plots a file
func loadTree(fileName string) (*it.ImageTree, *gerbparser.AST, error) {
	f, err := readLayer(fileName)
	if err != nil {
		return nil, nil, err
	}
	ast, err := gerbparser.Parse(f.Content)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", fileName, err)
	}
	tree := plotter.PlotWithOptions(ast, plotOptions())
	for _, w := range tree.Warnings {
		glog.V(1).Infof("%s: %v", fileName, w)
	}
	return tree, ast, nil
}

// parseColor reads #rrggbb, an empty string is nil
func parseColor(s string) (color.Color, error) {
	if s == "" {
		return nil, nil
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(strings.TrimPrefix(s, "#"), "%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.NRGBA{r, g, b, 255}, nil
}

// parsePoint reads "x,y"
func parsePoint(s string) (it.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return it.Point{}, fmt.Errorf("bad point %q, expected x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return it.Point{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return it.Point{}, err
	}
	return it.Point{X: x, Y: y}, nil
}

func canvasSize() (int, int) {
	return viperConfig.GetInt(configurator.CfgRendererCanvasWidth), viperConfig.GetInt(configurator.CfgRendererCanvasHeight)
}

// renderOptions builds the options shared by the render and diff commands
func renderOptions(tr render.Transform) (render.Options, error) {
	fg, err := parseColor(viperConfig.GetString(configurator.CfgRendererColor))
	if err != nil {
		return render.Options{}, err
	}
	bg, err := parseColor(viperConfig.GetString(configurator.CfgRendererBackground))
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Color:         fg,
		Background:    bg,
		Transform:     &tr,
		StrokePadding: viperConfig.GetFloat64(configurator.CfgRendererStrokePadding),
	}, nil
}

func savePNG(img image.Image, fileName string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStatistic(format string, args ...interface{}) {
	if viperConfig.GetBool(configurator.CfgCommonPrintStatistic) {
		fmt.Printf(format, args...)
	}
}

func printMemUsage(header string) {
	if viperConfig == nil || !viperConfig.GetBool(configurator.CfgCommonPrintMemoryInfo) {
		return
	}
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	// For info on each, see: https://golang.org/pkg/runtime/#MemStats
	fmt.Println(header)
	fmt.Printf("Alloc = %v KB", bToKb(memStats.Alloc))
	fmt.Printf("\tTotalAlloc = %v KB", bToKb(memStats.TotalAlloc))
	fmt.Printf("\tSys = %v KB", bToKb(memStats.Sys))
	fmt.Printf("\tNumGC = %v\n", memStats.NumGC)
}

func bToKb(b uint64) uint64 {
	return b / 1024
}

// timeInfo prints "[15:04:05 +2.00001s]"
func timeInfo(prev time.Time) {
	if viperConfig == nil || !viperConfig.GetBool(configurator.CfgCommonPrintStatistic) || prev.IsZero() {
		return
	}
	fmt.Printf("[%s +%v]\n", time.Now().Format("15:04:05"), time.Since(prev))
}
