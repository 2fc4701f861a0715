package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vasilyturchenko/gerbcompare/configurator"
	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	"github.com/vasilyturchenko/gerbcompare/render"
	"github.com/vasilyturchenko/gerbcompare/snappoints"
	"github.com/vasilyturchenko/gerbcompare/xy"
)

var snapAt string

var snapCmd = &cobra.Command{
	Use:   "snap <file>",
	Short: "Find the snap target nearest to a point",
	Args:  cobra.ExactArgs(1),
	RunE:  runSnap,
}

func init() {
	rootCmd.AddCommand(snapCmd)

	snapCmd.Flags().StringVar(&snapAt, "at", "", "query point x,y in file units")
	_ = snapCmd.MarkFlagRequired("at")
}

func runSnap(cmd *cobra.Command, args []string) error {
	at, err := parsePoint(snapAt)
	if err != nil {
		return err
	}
	tree, _, err := loadTree(args[0])
	if err != nil {
		return err
	}
	// the pixel threshold is converted with the scale the render command would use
	w, h := canvasSize()
	tr := render.AutoFit(w, h, tree.Bounds, viperConfig.GetFloat64(configurator.CfgRendererMargin))
	maxDist := viperConfig.GetFloat64(configurator.CfgSnapThresholdPx) / tr.Scale
	grid := viperConfig.GetFloat64(configurator.CfgSnapGridSpacingMM)
	if tree.Units == UnitsInch {
		grid /= xy.InchesToMM
	}

	points := snappoints.ExtractSnapPoints(tree)
	printStatistic("%d snap points, search radius %g %v\n", len(points), maxDist, tree.Units)
	idx := snappoints.NewIndex(points)
	if p := idx.Nearest(at.X, at.Y, maxDist); p != nil {
		fmt.Printf("nearest: %v at (%g, %g)\n", p.Kind, p.X, p.Y)
	} else {
		fmt.Println("nearest: none")
	}
	if s := snappoints.FindBestDrawSnap(at.X, at.Y, points, grid, grid > 0, maxDist); s != nil {
		fmt.Printf("draw snap: %v at (%g, %g)\n", s.Kind, s.X, s.Y)
	}
	return nil
}
