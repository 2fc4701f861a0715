/*
Package layermatch pairs the layer files of two board packages
*/
package layermatch

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

// GerberFile is a layer file as supplied by the caller
type GerberFile struct {
	FileName string
	Content  string
	// set by the user, overrides detection
	LayerType LayerType
}

// Type returns the user set layer type or the detected one
func (f GerberFile) Type() LayerType {
	if f.LayerType != "" {
		return f.LayerType
	}
	return DetectLayerType(f.FileName)
}

// LayerMatch pairs a file of package A with its counterpart in package B, FileB is nil when nothing scored
type LayerMatch struct {
	FileA     GerberFile
	FileB     *GerberFile
	Identical bool
	Type      LayerType
	Score     int
}

type LayerType string

const (
	Drill            LayerType = "Drill"
	PnPTop           LayerType = "PnP Top"
	TopSilkscreen    LayerType = "Top Silkscreen"
	TopPaste         LayerType = "Top Paste"
	TopSolderMask    LayerType = "Top Solder Mask"
	TopCopper        LayerType = "Top Copper"
	BottomCopper     LayerType = "Bottom Copper"
	BottomSolderMask LayerType = "Bottom Solder Mask"
	BottomPaste      LayerType = "Bottom Paste"
	BottomSilkscreen LayerType = "Bottom Silkscreen"
	PnPBottom        LayerType = "PnP Bottom"
	Outline          LayerType = "Outline"
	KeepOut          LayerType = "Keep-Out"
	Unknown          LayerType = "Unknown"
)

// AllLayerTypes in the board stack order, top to bottom
var AllLayerTypes = []LayerType{
	Drill, PnPTop, TopSilkscreen, TopPaste, TopSolderMask, TopCopper,
	BottomCopper, BottomSolderMask, BottomPaste, BottomSilkscreen, PnPBottom,
	Outline, KeepOut, Unknown,
}

var extensionTypes = map[string]LayerType{
	// KiCad and modern naming
	".gtl": TopCopper,
	".gbl": BottomCopper,
	".gts": TopSolderMask,
	".gbs": BottomSolderMask,
	".gto": TopSilkscreen,
	".gbo": BottomSilkscreen,
	".gtp": TopPaste,
	".gbp": BottomPaste,
	".gm1": Outline,
	".gm2": Outline,
	".gm3": Outline,
	".gko": KeepOut,
	// Protel, Altium, Eagle
	".cmp": TopCopper,
	".sol": BottomCopper,
	".stc": TopSolderMask,
	".sts": BottomSolderMask,
	".plc": TopSilkscreen,
	".pls": BottomSilkscreen,
	".crc": TopPaste,
	".crs": BottomPaste,
	// drill
	".drl": Drill,
	".drd": Drill,
	".xln": Drill,
	".exc": Drill,
	".ncd": Drill,
	// generic
	".gbr": Unknown,
	".ger": Unknown,
	".pho": Unknown,
	".art": Unknown,
}

var keywordRules = []struct {
	re *regexp.Regexp
	lt LayerType
}{
	{regexp.MustCompile(`top.*copper|copper.*top|f\.cu`), TopCopper},
	{regexp.MustCompile(`bottom.*copper|copper.*bottom|b\.cu`), BottomCopper},
	{regexp.MustCompile(`top.*mask|mask.*top`), TopSolderMask},
	{regexp.MustCompile(`bottom.*mask|mask.*bottom`), BottomSolderMask},
	{regexp.MustCompile(`top.*silk|silk.*top`), TopSilkscreen},
	{regexp.MustCompile(`bottom.*silk|silk.*bottom`), BottomSilkscreen},
	{regexp.MustCompile(`top.*paste|paste.*top`), TopPaste},
	{regexp.MustCompile(`bottom.*paste|paste.*bottom`), BottomPaste},
	{regexp.MustCompile(`outline|edge|board|profile|contour`), Outline},
	{regexp.MustCompile(`drill|drl`), Drill},
}

var layerColors = map[LayerType]string{
	TopCopper:        "#FF4444",
	BottomCopper:     "#448AFF",
	TopSolderMask:    "#B388FF",
	BottomSolderMask: "#EA80FC",
	TopSilkscreen:    "#FFFFFF",
	BottomSilkscreen: "#BFFF00",
	TopPaste:         "#FFD700",
	BottomPaste:      "#FFA500",
	Outline:          "#00FFCC",
	KeepOut:          "#FF6B35",
	Drill:            "#00E676",
	PnPTop:           "#FF69B4",
	PnPBottom:        "#DDA0DD",
}

const defaultColor = "#FF80AB"

var gerberExtensions = []string{
	".gtl", ".gbl", ".gts", ".gbs", ".gto", ".gbo", ".gtp", ".gbp",
	".gm1", ".gm2", ".gm3", ".gko", ".gbr", ".ger", ".pho",
	".cmp", ".sol", ".stc", ".sts", ".plc", ".pls", ".crc", ".crs",
	".drl", ".drd", ".xln", ".exc", ".ncd",
	".art", ".phd", ".top", ".bot", ".smt", ".smb",
}

var (
	topLayers    = []LayerType{TopSilkscreen, TopPaste, TopSolderMask, TopCopper, PnPTop}
	bottomLayers = []LayerType{BottomSilkscreen, BottomPaste, BottomSolderMask, BottomCopper, PnPBottom}
	sharedLayers = []LayerType{Outline, KeepOut, Drill}
)

var (
	separatorsRE = regexp.MustCompile(`[_\-\s]+`)
	revisionRE   = regexp.MustCompile(`rev\d+[a-z]*`)
	versionRE    = regexp.MustCompile(`v\d+`)
	copyNumberRE = regexp.MustCompile(`\(\d+\)`)
	bareNameRE   = regexp.MustCompile(`^(drill|drills|outline)$`)
)

// a Caser keeps state, one per call
func lower(s string) string {
	return cases.Fold().String(s)
}

// extension returns the lower-case extension including the dot, "" when there is none
func extension(fileName string) string {
	return lower(path.Ext(fileName))
}

// NormalizeLayerName folds the case and removes separators, revision, version and copy markers
func NormalizeLayerName(fileName string) string {
	s := lower(fileName)
	s = separatorsRE.ReplaceAllString(s, "")
	s = revisionRE.ReplaceAllString(s, "")
	s = versionRE.ReplaceAllString(s, "")
	s = copyNumberRE.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// DetectLayerType guesses the layer type from the extension, then from keywords in the name
func DetectLayerType(fileName string) LayerType {
	name := lower(fileName)
	extType, known := extensionTypes[extension(fileName)]
	if known && extType != Unknown {
		return extType
	}
	for _, r := range keywordRules {
		if r.re.MatchString(name) {
			return r.lt
		}
	}
	return Unknown
}

// IsGerberFile reports whether the file name looks like a Gerber or drill file
func IsGerberFile(fileName string) bool {
	name := lower(fileName)
	switch {
	case strings.HasPrefix(fileName, "._"):
		// macOS resource fork
		return false
	case name == "license" || name == "readme":
		return false
	}
	switch extension(fileName) {
	case ".json", ".txt", ".md", ".csv", ".gbrjob":
		return false
	}
	if lo.Contains(gerberExtensions, extension(fileName)) {
		return true
	}
	return bareNameRE.MatchString(name)
}

// MatchScore rates how likely two files are the same layer: 100 for the same name,
// 80 for the same normalized name, 60 for the same extension, 40 for the same
// detected type and 0 otherwise
func MatchScore(a, b GerberFile) int {
	if a.FileName == b.FileName {
		return 100
	}
	if NormalizeLayerName(a.FileName) == NormalizeLayerName(b.FileName) {
		return 80
	}
	if ext := extension(a.FileName); ext != "" && ext != "." && ext == extension(b.FileName) {
		return 60
	}
	if ta := a.Type(); ta != Unknown && ta == b.Type() {
		return 40
	}
	return 0
}

// AutoMatch finds the best scoring counterpart in filesB for every file of filesA.
// A file of filesB is never matched twice, ties go to the first candidate.
func AutoMatch(filesA, filesB []GerberFile) []LayerMatch {
	used := make([]bool, len(filesB))
	matches := make([]LayerMatch, 0, len(filesA))
	for _, a := range filesA {
		best, bestScore := -1, 0
		for i, b := range filesB {
			if used[i] {
				continue
			}
			if score := MatchScore(a, b); score > bestScore {
				best, bestScore = i, score
			}
		}
		m := LayerMatch{FileA: a, Type: a.Type(), Score: bestScore}
		if best >= 0 {
			used[best] = true
			b := filesB[best]
			m.FileB = &b
			m.Identical = a.Content == b.Content
		}
		glog.V(2).Infof("match %q -> %v (score %d)", a.FileName, lo.Ternary(m.FileB != nil, lo.FromPtr(m.FileB).FileName, "none"), bestScore)
		matches = append(matches, m)
	}
	return matches
}

// Unmatched returns the files of filesB which no match claimed
func Unmatched(matches []LayerMatch, filesB []GerberFile) []GerberFile {
	claimed := lo.FilterMap(matches, func(m LayerMatch, _ int) (string, bool) {
		if m.FileB == nil {
			return "", false
		}
		return m.FileB.FileName, true
	})
	return lo.Reject(filesB, func(f GerberFile, _ int) bool {
		return lo.Contains(claimed, f.FileName)
	})
}

// LayerSortOrder is the position of the type in the board stack, 99 for an unknown type
func LayerSortOrder(t LayerType) int {
	if i := lo.IndexOf(AllLayerTypes, t); i >= 0 {
		return i
	}
	return 99
}

// SortByPcbOrder returns a copy of the files ordered top to bottom
func SortByPcbOrder(files []GerberFile) []GerberFile {
	out := append([]GerberFile(nil), files...)
	sort.SliceStable(out, func(i, j int) bool {
		return LayerSortOrder(out[i].Type()) < LayerSortOrder(out[j].Type())
	})
	return out
}

func IsTopLayer(t LayerType) bool    { return lo.Contains(topLayers, t) }
func IsBottomLayer(t LayerType) bool { return lo.Contains(bottomLayers, t) }
func IsSharedLayer(t LayerType) bool { return lo.Contains(sharedLayers, t) }

// LayerColor is the default display color of a layer type as #RRGGBB
func LayerColor(t LayerType) string {
	if c, ok := layerColors[t]; ok {
		return c
	}
	return defaultColor
}
