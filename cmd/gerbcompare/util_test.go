package main

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/vasilyturchenko/gerbcompare/configurator"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

func TestParsePoint(t *testing.T) {
	p, err := parsePoint(" 12.5, -3")
	if err != nil || p != (it.Point{X: 12.5, Y: -3}) {
		t.Error("got", p, err)
	}
	for _, bad := range []string{"", "1", "1,2,3", "a,1"} {
		if _, err := parsePoint(bad); err == nil {
			t.Error(bad, "accepted")
		}
	}
}

func TestParseColor(t *testing.T) {
	c, err := parseColor("#cc0000")
	if err != nil || c != (color.NRGBA{0xcc, 0, 0, 255}) {
		t.Error("got", c, err)
	}
	if c, err := parseColor(""); c != nil || err != nil {
		t.Error("empty got", c, err)
	}
	if _, err := parseColor("#zz0000"); err == nil {
		t.Error("bad color accepted")
	}
}

func TestReadPackage(t *testing.T) {
	viperConfig = viper.New()
	configurator.SetDefaults(viperConfig)
	dir := t.TempDir()
	for name, content := range map[string]string{
		"board.gtl":  "%FSLAX26Y26*%\n%MOMM*%\n%ADD10C,0.5*%\nD10*\nX0Y0D03*\nM02*",
		"board.gm1":  "%FSLAX26Y26*%\n%MOMM*%\nM02*",
		"readme.txt": "not a layer",
		"broken.gbl": "%FSLAX26Y26*",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := readPackage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 || files[0].FileName != "board.gtl" || files[2].FileName != "board.gm1" {
		t.Error("files", files)
	}
	failed := parseAll(t.Context(), files)
	if len(failed) != 1 {
		t.Error("failed", failed)
	}
}
