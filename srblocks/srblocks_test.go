package srblocks

import (
	"testing"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
	. "github.com/vasilyturchenko/gerbcompare/xy"
)

func TestSRBlock_Init(t *testing.T) {
	sr := new(SRBlock)
	if err := sr.Init("X3Y2I5.0J4.0"); err != nil {
		t.Fatal(err)
	}
	if sr.NumX() != 3 || sr.NumY() != 2 || sr.DX() != 5 || sr.DY() != 4 {
		t.Error("bad block", sr.String())
	}
	if err := sr.Init("X1Y1I0J0"); err != nil || !sr.IsTrivial() {
		t.Error("1x1 block", err)
	}
	for _, bad := range []string{"X0Y1I1J1", "X2Y-1I1J1", "X2Y1", "X2Y2I1", "XaY1I1J1"} {
		if err := new(SRBlock).Init(bad); err == nil {
			t.Error("Init(\"" + bad + "\") must fail")
		}
	}
}

func TestSRBlock_Offsets(t *testing.T) {
	sr := new(SRBlock)
	if err := sr.Init("X2Y2I1J10"); err != nil {
		t.Fatal(err)
	}
	want := []XY{{0, 0}, {1, 0}, {0, 10}, {1, 10}}
	got := sr.Offsets()
	if len(got) != len(want) {
		t.Fatal("got", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Error("offset", i, "got", got[i], "expected", want[i])
		}
	}
}

func TestSRBlock_Replay(t *testing.T) {
	sr := new(SRBlock)
	if err := sr.Init("X2Y3I2J1"); err != nil {
		t.Fatal(err)
	}
	block := []it.Graphic{
		it.ShapeGraphic{Shape: it.Circle{R: 0.1}, Pol: PolTypeDark},
		it.ShapeGraphic{Shape: it.Circle{R: 0.05}, Pol: PolTypeClear},
	}
	out := sr.Replay(block)
	if len(out) != 12 || sr.NSteps() != 2 {
		t.Fatal("expected 12 graphics, got", len(out))
	}
	// paint order keeps dark/clear alternation for every copy
	for i := range out {
		if out[i].Polarity() != block[i%2].Polarity() {
			t.Error("paint order broken at", i)
		}
	}
	last := out[11].(it.ShapeGraphic).Shape.(it.Circle)
	if last.CX != 2 || last.CY != 2 {
		t.Error("last copy misplaced", last)
	}
}
