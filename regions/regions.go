package regions

import (
	"errors"
	"strconv"

	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

/*####################  regions ##################################
 */
type Region struct {
	contours  [][]it.Segment
	current   []it.Segment
	G36Offset int // source offset of the G36 cmd
	G37Offset int // source offset of the G37 cmd
}

func (region *Region) String() string {
	if region == nil {
		return "<nil>"
	}
	return "Region:\n" +
		"\t\tcontains " + strconv.Itoa(len(region.Contours())) + " contours, " +
		strconv.Itoa(len(region.Segments())) + " segments\n" +
		"\t\tG36 command is at offset " + strconv.Itoa(region.G36Offset) + "\n" +
		"\t\tG37 command is at offset " + strconv.Itoa(region.G37Offset)
}

// creates and initialises a region object
func NewRegion(offset int) *Region {
	retVal := new(Region)
	retVal.G36Offset = offset
	retVal.G37Offset = -1
	return retVal
}

// closes the region
func (region *Region) Close(offset int) error {
	if region == nil {
		return errors.New("can not close the contour referenced by null pointer")
	}
	region.StartContour()
	region.G37Offset = offset
	return nil
}

// StartContour finishes the current contour, the next segment begins a new one
func (region *Region) StartContour() {
	if len(region.current) > 0 {
		region.contours = append(region.contours, region.current)
		region.current = nil
	}
}

func (region *Region) AddSegment(s it.Segment) {
	region.current = append(region.current, s)
}

// returns the finished contours and the one being built
func (region *Region) Contours() [][]it.Segment {
	if len(region.current) == 0 {
		return region.contours
	}
	return append(region.contours[:len(region.contours):len(region.contours)], region.current)
}

// returns all segments of the region
func (region *Region) Segments() []it.Segment {
	var out []it.Segment
	for _, c := range region.Contours() {
		out = append(out, c...)
	}
	return out
}

// returns true if region is opened
func (region *Region) IsRegionOpened() (bool, error) {
	if region == nil {
		return false, errors.New("bad region referenced (by nil ptr)")
	}
	if region.G37Offset == -1 {
		return true, nil
	} else {
		return false, nil
	}
}
