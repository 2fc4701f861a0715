package main

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/golang/glog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/vasilyturchenko/gerbcompare/alignment"
	"github.com/vasilyturchenko/gerbcompare/configurator"
	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	"github.com/vasilyturchenko/gerbcompare/layermatch"
	"github.com/vasilyturchenko/gerbcompare/pixeldiff"
	"github.com/vasilyturchenko/gerbcompare/render"
	"github.com/vasilyturchenko/gerbcompare/worker"
)

var (
	diffRefA string
	diffRefB string
	diffOut  string
)

var diffCmd = &cobra.Command{
	Use:   "diff <fileA> <fileB>",
	Short: "Render two revisions of a layer and write their pixel difference",
	Long: `Renders both files into the same viewport and paints every pixel by where it is
present: gray in both, red only in A, green only in B.

Reference points given with --ref-a and --ref-b are moved to the origin before
comparing, so boards with different origins line up.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringVar(&diffRefA, "ref-a", "", "reference point x,y of file A")
	diffCmd.Flags().StringVar(&diffRefB, "ref-b", "", "reference point x,y of file B")
	diffCmd.Flags().StringVarP(&diffOut, "out", "o", "diff.png", "diff image output file")
}

func alignmentFromFlags() (*alignment.Manager, error) {
	m := alignment.NewManager()
	for _, ref := range []struct {
		flag   string
		packet alignment.Packet
	}{{diffRefA, alignment.PacketA}, {diffRefB, alignment.PacketB}} {
		if ref.flag == "" {
			continue
		}
		pt, err := parsePoint(ref.flag)
		if err != nil {
			return nil, err
		}
		if err := m.SetRef(ref.packet, pt); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	var files []layermatch.GerberFile
	for _, name := range args {
		f, err := readLayer(name)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	cache := worker.NewCache(2)
	if err := cache.Prewarm(context.Background(), files); err != nil {
		return err
	}
	ta, okA := cache.Get(files[0])
	tb, okB := cache.Get(files[1])
	if !okA || !okB {
		return fmt.Errorf("could not parse %s", lo.Ternary(!okA, args[0], args[1]))
	}

	m, err := alignmentFromFlags()
	if err != nil {
		return err
	}
	offA, offB, err := m.Offsets()
	if errors.Is(err, ErrAlignmentIncomplete) && (diffRefA != "" || diffRefB != "") {
		glog.Warningln("only one reference point given, comparing without alignment")
	}

	w, h := canvasSize()
	shared := alignment.SharedBounds(ta.Bounds, tb.Bounds, offA, offB)
	tr := render.AutoFit(w, h, shared, viperConfig.GetFloat64(configurator.CfgRendererMargin))
	opts, err := renderOptions(tr)
	if err != nil {
		return err
	}
	// the diff must not see the background
	opts.Background = nil

	imgA := image.NewNRGBA(image.Rect(0, 0, w, h))
	opts.GerberOffset = offA
	render.Render(ta, imgA, opts)
	imgB := image.NewNRGBA(image.Rect(0, 0, w, h))
	opts.GerberOffset = offB
	render.Render(tb, imgB, opts)

	diff, err := pixeldiff.ComputePixelDiff(imgA, imgB)
	if err != nil {
		return err
	}
	if err := savePNG(diff, diffOut); err != nil {
		return err
	}
	stats := pixeldiff.Summarize(diff)
	fmt.Println("written", diffOut)
	fmt.Println(stats)
	printStatistic("changed %.2f%% of painted pixels\n", stats.Changed()*100)
	return nil
}
