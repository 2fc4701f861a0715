/*
Step and repeat blocks
*/
package srblocks

import (
	"errors"
	"strconv"
	"strings"

	it "github.com/vasilyturchenko/gerbcompare/imagetree"
	. "github.com/vasilyturchenko/gerbcompare/xy"
)

/*
############################## step and repeat blocks #################################
*/
type SRBlock struct {
	srString string
	numX     int
	numY     int
	dX       float64
	dY       float64
	nSteps   int // number of graphics in the SRBlock block
}

func (srblock *SRBlock) String() string {

	if srblock == nil {
		return "<nil>"
	}
	return "Step and repeat block:\n" +
		"\tsource string: " + srblock.srString + "\n" +
		"\tcontains " + strconv.Itoa(srblock.numX) + " repeats along X axis and " + strconv.Itoa(srblock.numY) + " repeats along Y axis\n" +
		"\tnumber of graphics in each repetition: " + strconv.Itoa(srblock.nSteps) + "\n" +
		"\tdX=" + strconv.FormatFloat(srblock.dX, 'f', 5, 64) +
		", dy=" + strconv.FormatFloat(srblock.dY, 'f', 5, 64) + "\n"
}

func (srblock *SRBlock) NumX() int {
	return srblock.numX
}

func (srblock *SRBlock) NumY() int {
	return srblock.numY
}

func (srblock *SRBlock) DX() float64 {
	return srblock.dX
}

func (srblock *SRBlock) DY() float64 {
	return srblock.dY
}

func (srblock *SRBlock) NSteps() int {
	return srblock.nSteps
}

// IsTrivial reports a 1x1 block, which repeats nothing
func (srblock *SRBlock) IsTrivial() bool {
	return srblock.numX == 1 && srblock.numY == 1
}

// Init decodes the SR parameters "X<n>Y<n>I<dx>J<dy>", distances are in file units
func (srblock *SRBlock) Init(ins string) error {
	ins = strings.TrimSpace(ins)
	res, err := ExtractLetterDelimitedFloats(ins, "XYIJ")
	if err != nil {
		return err
	}
	srblock.numX = 1
	srblock.numY = 1
	if v, ok := res['X']; ok {
		srblock.numX = int(v)
	}
	if v, ok := res['Y']; ok {
		srblock.numY = int(v)
	}
	if srblock.numX < 1 {
		return errors.New("SRBlock.Init: X count < 1")
	}
	if srblock.numY < 1 {
		return errors.New("SRBlock.Init: Y count < 1")
	}
	if !srblock.IsTrivial() {
		if _, ok := res['I']; !ok && srblock.numX > 1 {
			return errors.New("SRBlock.Init: missing I step")
		}
		if _, ok := res['J']; !ok && srblock.numY > 1 {
			return errors.New("SRBlock.Init: missing J step")
		}
	}
	srblock.dX = res['I']
	srblock.dY = res['J']
	srblock.srString = ins
	return nil
}

// Offsets lists the block placements, rows along Y outermost
func (srblock *SRBlock) Offsets() []XY {
	out := make([]XY, 0, srblock.numX*srblock.numY)
	for j := 0; j < srblock.numY; j++ {
		addY := float64(j) * srblock.dY
		for i := 0; i < srblock.numX; i++ {
			out = append(out, XY{X: float64(i) * srblock.dX, Y: addY})
		}
	}
	return out
}

// Replay returns the block graphics copied to every placement, in paint order
func (srblock *SRBlock) Replay(graphics []it.Graphic) []it.Graphic {
	srblock.nSteps = len(graphics)
	offsets := srblock.Offsets()
	out := make([]it.Graphic, 0, len(graphics)*len(offsets))
	for _, o := range offsets {
		for _, g := range graphics {
			if o.X == 0 && o.Y == 0 {
				out = append(out, g)
				continue
			}
			out = append(out, it.Translate(g, o.X, o.Y))
		}
	}
	return out
}
