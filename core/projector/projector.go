// Package projector reads and writes the columnar projector file format
// shared by pw2wannier90 and Wannier90 (conventionally a ".dat" file).
//
// The layout is: one header line with the point and projector counts, one
// line of angular-momentum values, then one row per mesh point holding
// the log-radius, the radius, and each projector's value at that point.
package projector

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/upfkit/core/errors"
	"github.com/FocuswithJustin/upfkit/internal/fileutil"
)

const formatName = "projector dat"

// xFloor is the smallest representable log-radius. Radial grids start at
// (or very near) the origin, where the logarithm diverges; points below
// the floor are clamped when a projector is constructed.
const xFloor = -16

// Projector is a single projector tabulated on a logarithmic radial grid.
type Projector struct {
	x []float64 // log-radius grid, clamped at xFloor
	y []float64 // projector values, co-indexed with x
	l int       // angular momentum
}

// New builds a projector from its log-radius grid, values, and angular
// momentum. The grid is copied and clamped at the floor value instead of
// being mutated in place.
func New(x, y []float64, l int) Projector {
	clamped := make([]float64, len(x))
	for i, v := range x {
		if v < xFloor {
			v = xFloor
		}
		clamped[i] = v
	}
	return Projector{x: clamped, y: y, l: l}
}

// FromRadial builds a projector from a radial (not logarithmic) grid.
func FromRadial(r, y []float64, l int) Projector {
	x := make([]float64, len(r))
	for i, v := range r {
		x[i] = math.Log(v)
	}
	return New(x, y, l)
}

// X returns the logarithmic radial grid.
func (p Projector) X() []float64 { return p.x }

// Y returns the projector values.
func (p Projector) Y() []float64 { return p.y }

// L returns the angular momentum.
func (p Projector) L() int { return p.l }

// R returns the radial grid recovered from the logarithmic one.
func (p Projector) R() []float64 {
	r := make([]float64, len(p.x))
	for i, v := range p.x {
		r[i] = math.Exp(v)
	}
	return r
}

// Projectors is an ordered list of projectors sharing one radial grid.
type Projectors []Projector

// FromFile reads and parses a projector dat file.
func FromFile(path string) (Projectors, error) {
	data, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse reads the dat format. The declared point and projector counts
// must agree with the rows actually present; a disagreement is surfaced
// as a FormatError, never silently truncated.
func Parse(contents string) (Projectors, error) {
	var lines []string
	for _, l := range strings.Split(contents, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 2 {
		return nil, &errors.FormatError{Format: formatName, Detail: "missing header lines"}
	}

	header := strings.Fields(lines[0])
	if len(header) < 2 {
		return nil, &errors.FormatError{Format: formatName, Detail: "header needs point and projector counts"}
	}
	npoints, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, &errors.ConversionError{Field: "npoints", Value: header[0], Err: err}
	}
	nproj, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, &errors.ConversionError{Field: "nproj", Value: header[1], Err: err}
	}

	lvals := strings.Fields(lines[1])
	if len(lvals) != nproj {
		return nil, &errors.FormatError{
			Format: formatName,
			Detail: fmt.Sprintf("header declares %d projectors but %d angular momenta follow", nproj, len(lvals)),
		}
	}
	ls := make([]int, nproj)
	for i, tok := range lvals {
		if ls[i], err = strconv.Atoi(tok); err != nil {
			return nil, &errors.ConversionError{Field: "l", Value: tok, Err: err}
		}
	}

	rows := lines[2:]
	if len(rows) != npoints {
		return nil, &errors.FormatError{
			Format: formatName,
			Detail: fmt.Sprintf("header declares %d points but %d rows follow", npoints, len(rows)),
		}
	}

	x := make([]float64, npoints)
	ys := make([][]float64, nproj)
	for i := range ys {
		ys[i] = make([]float64, npoints)
	}
	for i, row := range rows {
		fields := strings.Fields(row)
		if len(fields) != nproj+2 {
			return nil, &errors.FormatError{
				Format: formatName,
				Detail: fmt.Sprintf("row %d has %d columns, want %d", i+3, len(fields), nproj+2),
			}
		}
		if x[i], err = strconv.ParseFloat(fields[0], 64); err != nil {
			return nil, &errors.ConversionError{Field: "x", Value: fields[0], Err: err}
		}
		// fields[1] is the radius, redundant with exp(x).
		for j := 0; j < nproj; j++ {
			if ys[j][i], err = strconv.ParseFloat(fields[j+2], 64); err != nil {
				return nil, &errors.ConversionError{Field: "value", Value: fields[j+2], Err: err}
			}
		}
	}

	out := make(Projectors, nproj)
	for j := 0; j < nproj; j++ {
		out[j] = New(x, ys[j], ls[j])
	}
	return out, nil
}

// Text renders the projectors back to the dat format.
func (ps Projectors) Text() (string, error) {
	if len(ps) == 0 {
		return "", &errors.MissingDataError{Operation: "dat rendering", Want: "at least one projector"}
	}
	npoints := len(ps[0].x)
	for _, p := range ps {
		if len(p.x) != npoints || len(p.y) != npoints {
			return "", &errors.FormatError{
				Format: formatName,
				Detail: "projectors are not tabulated on a common grid",
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d %d\n", npoints, len(ps))
	lvals := make([]string, len(ps))
	for i, p := range ps {
		lvals[i] = strconv.Itoa(p.l)
	}
	b.WriteString(strings.Join(lvals, " "))
	b.WriteString("\n")

	r := ps[0].R()
	for i := 0; i < npoints; i++ {
		fmt.Fprintf(&b, "%18.12e %18.12e", ps[0].x[i], r[i])
		for _, p := range ps {
			fmt.Fprintf(&b, " %18.12e", p.y[i])
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}
