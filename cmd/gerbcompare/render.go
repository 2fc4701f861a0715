package main

import (
	"fmt"
	"image"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/vasilyturchenko/gerbcompare/configurator"
	"github.com/vasilyturchenko/gerbcompare/render"
)

var (
	renderOut  string
	renderSVG  string
	renderCrop string
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render a layer to PNG and optionally SVG",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "PNG output file (default renderer.OutFile)")
	renderCmd.Flags().StringVar(&renderSVG, "svg", "", "also write an SVG file")
	renderCmd.Flags().StringVar(&renderCrop, "crop", "", "outline layer to crop the image to")
}

func runRender(cmd *cobra.Command, args []string) error {
	tree, _, err := loadTree(args[0])
	if err != nil {
		return err
	}
	w, h := canvasSize()
	tr := render.AutoFit(w, h, tree.Bounds, viperConfig.GetFloat64(configurator.CfgRendererMargin))
	opts, err := renderOptions(tr)
	if err != nil {
		return err
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	render.Render(tree, img, opts)

	if renderCrop != "" {
		outline, _, err := loadTree(renderCrop)
		if err != nil {
			return err
		}
		if mask := render.OutlineMask(outline, w, h, opts); mask != nil {
			render.ApplyMask(img, mask)
		} else {
			glog.Warningf("%s has no closed board outline, image not cropped", renderCrop)
		}
	}

	out := renderOut
	if out == "" {
		out = viperConfig.GetString(configurator.CfgRendererOutFile)
	}
	if err := savePNG(img, out); err != nil {
		return err
	}
	fmt.Println("written", out)

	if renderSVG != "" {
		f, err := os.Create(renderSVG)
		if err != nil {
			return err
		}
		if err := render.RenderSVG(tree, f, w, h, opts); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Println("written", renderSVG)
	}
	printStatistic("%d graphics, scale %.3f px/unit\n", len(tree.Children), tr.Scale)
	return nil
}
