package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/vasilyturchenko/gerbcompare/gerbparser"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a Gerber or drill file and print what it contains",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func typeName(v interface{}) string {
	s := fmt.Sprintf("%T", v)
	return s[strings.LastIndex(s, ".")+1:]
}

func printCounts(title string, counts map[string]int) {
	fmt.Println(title)
	keys := lo.Keys(counts)
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-16s %d\n", k, counts[k])
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	tree, ast, err := loadTree(args[0])
	if err != nil {
		return err
	}
	fmt.Println("file:", args[0])
	fmt.Println("type:", ast.FileType, " units:", tree.Units)
	printCounts("AST nodes:", lo.CountValuesBy(ast.Children, func(n gerbparser.Node) string { return typeName(n) }))
	printCounts("graphics:", lo.CountValuesBy(tree.Children, func(g it.Graphic) string {
		return typeName(g) + " " + g.Polarity().String()
	}))
	if tree.Bounds.IsEmpty() {
		fmt.Println("bounds: empty")
	} else {
		b := tree.Bounds
		fmt.Printf("bounds: [%g, %g] - [%g, %g]  size %g x %g\n", b[0], b[1], b[2], b[3], b.Width(), b.Height())
	}
	unimplemented := lo.Filter(ast.Children, func(n gerbparser.Node, _ int) bool {
		_, ok := n.(*gerbparser.Unimplemented)
		return ok
	})
	printStatistic("unimplemented commands: %d\n", len(unimplemented))
	fmt.Println("warnings:", len(tree.Warnings))
	for _, w := range tree.Warnings {
		fmt.Println(" ", w)
	}
	return nil
}
