package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/golang/glog"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/vasilyturchenko/gerbcompare/configurator"
	"github.com/vasilyturchenko/gerbcompare/layermatch"
	"github.com/vasilyturchenko/gerbcompare/worker"
)

var matchCmd = &cobra.Command{
	Use:   "match <dirA> <dirB>",
	Short: "Pair the layer files of two board packages",
	Args:  cobra.ExactArgs(2),
	RunE:  runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

// readPackage loads every Gerber or drill file of a directory
func readPackage(dir string) ([]layermatch.GerberFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && layermatch.IsGerberFile(e.Name())
	})
	files := make([]layermatch.GerberFile, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		files = append(files, layermatch.GerberFile{FileName: name, Content: string(data)})
	}
	return layermatch.SortByPcbOrder(files), nil
}

// parseAll runs every file through the worker pool and returns the failed keys with their errors
func parseAll(ctx context.Context, files []layermatch.GerberFile) map[string]string {
	pool := worker.NewPool(viperConfig.GetInt(configurator.CfgWorkerCount))
	defer pool.Close()
	tracker := worker.NewTracker()

	go func() {
		for _, f := range files {
			key := worker.CacheKey(f)
			req := worker.Request{ID: tracker.Next(key), Key: key, Content: f.Content}
			if err := pool.Submit(ctx, req); err != nil {
				return
			}
		}
	}()

	failed := make(map[string]string)
	for range files {
		resp := <-pool.Results()
		if !tracker.Accept(resp) {
			continue
		}
		if !resp.OK {
			glog.Errorf("%s: %s", resp.Key, resp.Error)
			failed[resp.Key] = resp.Error
		}
	}
	return failed
}

func runMatch(cmd *cobra.Command, args []string) error {
	filesA, err := readPackage(args[0])
	if err != nil {
		return err
	}
	filesB, err := readPackage(args[1])
	if err != nil {
		return err
	}
	failed := parseAll(context.Background(), append(append([]layermatch.GerberFile{}, filesA...), filesB...))
	status := func(f layermatch.GerberFile) string {
		if msg, ok := failed[worker.CacheKey(f)]; ok {
			return "FAILED: " + msg
		}
		return "ok"
	}

	matches := layermatch.AutoMatch(filesA, filesB)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "A\tB\tTYPE\tSCORE\tIDENTICAL\tPARSE A\tPARSE B")
	for _, m := range matches {
		nameB, statusB := "-", "-"
		if m.FileB != nil {
			nameB, statusB = m.FileB.FileName, status(*m.FileB)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%v\t%s\t%s\n", m.FileA.FileName, nameB, m.Type, m.Score, m.Identical, status(m.FileA), statusB)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, f := range layermatch.Unmatched(matches, filesB) {
		fmt.Println("only in B:", f.FileName)
	}
	printStatistic("%d matched, %d identical, %d failed to parse\n",
		lo.CountBy(matches, func(m layermatch.LayerMatch) bool { return m.FileB != nil }),
		lo.CountBy(matches, func(m layermatch.LayerMatch) bool { return m.Identical }),
		len(failed))
	return nil
}
