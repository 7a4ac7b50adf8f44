package projector

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FocuswithJustin/upfkit/core/errors"
)

func TestNewClampsLogGrid(t *testing.T) {
	p := New([]float64{-40, -16, -2.3}, []float64{0, 0.1, 0.2}, 0)
	x := p.X()
	if x[0] != -16 {
		t.Errorf("x[0] = %v, want clamped to -16", x[0])
	}
	if x[1] != -16 || x[2] != -2.3 {
		t.Errorf("x = %v", x)
	}
}

func TestNewCopiesGrid(t *testing.T) {
	src := []float64{-40, -2.3}
	New(src, []float64{0, 0.1}, 0)
	if src[0] != -40 {
		t.Error("New must not mutate the caller's grid")
	}
}

func TestFromRadial(t *testing.T) {
	p := FromRadial([]float64{1e-9, 1.0, math.E}, []float64{0, 0.5, 0.25}, 1)
	x := p.X()
	if x[0] != -16 {
		t.Errorf("x[0] = %v, want log(1e-9) clamped to -16", x[0])
	}
	if x[1] != 0 {
		t.Errorf("x[1] = %v, want log(1) = 0", x[1])
	}
	if math.Abs(x[2]-1) > 1e-12 {
		t.Errorf("x[2] = %v, want log(e) = 1", x[2])
	}
	if p.L() != 1 {
		t.Errorf("l = %d", p.L())
	}
	r := p.R()
	if math.Abs(r[1]-1.0) > 1e-12 {
		t.Errorf("r[1] = %v", r[1])
	}
}

func TestParse(t *testing.T) {
	text := "3 2\n" +
		"0 1\n" +
		"-16.0 0.0 0.1 0.4\n" +
		"-2.0 0.135 0.2 0.5\n" +
		"-1.0 0.368 0.3 0.6\n"
	ps, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("got %d projectors, want 2", len(ps))
	}
	if ps[0].L() != 0 || ps[1].L() != 1 {
		t.Errorf("l values = %d, %d", ps[0].L(), ps[1].L())
	}
	if y := ps[1].Y(); y[2] != 0.6 {
		t.Errorf("second projector y = %v", y)
	}
	if x := ps[0].X(); x[0] != -16.0 || x[2] != -1.0 {
		t.Errorf("x = %v", x)
	}
}

func TestFromFile(t *testing.T) {
	text := "1 1\n0\n-2.0 0.135 0.2\n"
	path := filepath.Join(t.TempDir(), "proj.dat")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	ps, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if len(ps) != 1 || ps[0].L() != 0 {
		t.Errorf("projectors = %v", ps)
	}
}

func TestRoundTrip(t *testing.T) {
	ps := Projectors{
		New([]float64{-16, -2, -1}, []float64{0.0, 0.25, 0.5}, 0),
		New([]float64{-16, -2, -1}, []float64{0.1, 0.35, 0.6}, 2),
	}
	text, err := ps.Text()
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	back, err := Parse(text)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if len(back) != len(ps) {
		t.Fatalf("got %d projectors back, want %d", len(back), len(ps))
	}
	for i := range ps {
		if back[i].L() != ps[i].L() {
			t.Errorf("projector %d l drifted: %d != %d", i, back[i].L(), ps[i].L())
		}
		for j := range ps[i].Y() {
			if math.Abs(back[i].Y()[j]-ps[i].Y()[j]) > 1e-11 {
				t.Errorf("projector %d value %d drifted: %v != %v",
					i, j, back[i].Y()[j], ps[i].Y()[j])
			}
		}
	}
}

func TestTextLayout(t *testing.T) {
	ps := Projectors{New([]float64{-16, -1}, []float64{0.0, 0.5}, 0)}
	text, err := ps.Text()
	if err != nil {
		t.Fatalf("Text failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + l line + 2 rows", len(lines))
	}
	if lines[0] != "2 1" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "0" {
		t.Errorf("l line = %q", lines[1])
	}
	if fields := strings.Fields(lines[2]); len(fields) != 3 {
		t.Errorf("row has %d columns, want x, r, value", len(fields))
	}
}

func TestParsePointCountMismatch(t *testing.T) {
	text := "3 1\n0\n-2.0 0.135 0.2\n-1.0 0.368 0.3\n"
	_, err := Parse(text)
	if err == nil {
		t.Fatal("expected an error for a short file")
	}
	if !errors.Is(err, errors.ErrFormat) {
		t.Errorf("error should wrap ErrFormat, got %v", err)
	}
}

func TestParseProjectorCountMismatch(t *testing.T) {
	text := "1 2\n0\n-2.0 0.135 0.2 0.4\n"
	_, err := Parse(text)
	if err == nil {
		t.Fatal("expected an error for a short l line")
	}
	if !errors.Is(err, errors.ErrFormat) {
		t.Errorf("error should wrap ErrFormat, got %v", err)
	}
}

func TestParseBadToken(t *testing.T) {
	text := "1 1\n0\n-2.0 0.135 smudge\n"
	_, err := Parse(text)
	if err == nil {
		t.Fatal("expected an error for a non-numeric value")
	}
	if !errors.Is(err, errors.ErrConversion) {
		t.Errorf("error should wrap ErrConversion, got %v", err)
	}
}

func TestTextEmpty(t *testing.T) {
	_, err := Projectors{}.Text()
	if !errors.Is(err, errors.ErrMissingData) {
		t.Errorf("empty set should report missing data, got %v", err)
	}
}

func TestTextMixedGrids(t *testing.T) {
	ps := Projectors{
		New([]float64{-16, -1}, []float64{0, 0.5}, 0),
		New([]float64{-16}, []float64{0}, 1),
	}
	_, err := ps.Text()
	if !errors.Is(err, errors.ErrFormat) {
		t.Errorf("mismatched grids should be a format error, got %v", err)
	}
}
