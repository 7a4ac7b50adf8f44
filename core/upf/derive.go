package upf

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/FocuswithJustin/upfkit/core/errors"
	"github.com/FocuswithJustin/upfkit/core/oncv"
	"github.com/FocuswithJustin/upfkit/core/projector"
	"github.com/FocuswithJustin/upfkit/core/value"
)

// meshFloor is the smallest radius used when taking the logarithm of the
// radial grid: grids that start exactly at the origin would otherwise
// produce log(0) at the first point.
const meshFloor = 1e-8

// Header returns the header block.
func (d *Document) Header() (*value.Map, error) {
	v, ok := d.fields.Get("header")
	if !ok {
		return nil, &errors.MissingDataError{Operation: "header access", Want: "a header block"}
	}
	m, ok := v.AsMap()
	if !ok {
		return nil, &errors.FormatError{Detail: "header block is not a mapping"}
	}
	return m, nil
}

// MeshR returns the radial grid.
func (d *Document) MeshR() ([]float64, error) {
	mesh, ok := d.fields.Get("mesh")
	if !ok {
		return nil, &errors.MissingDataError{Operation: "mesh access", Want: "a radial mesh block"}
	}
	meshMap, ok := mesh.AsMap()
	if !ok {
		return nil, &errors.FormatError{Detail: "mesh block is not a mapping"}
	}
	r, ok := meshMap.Get("r")
	if !ok {
		return nil, &errors.MissingDataError{Operation: "mesh access", Want: "a radial grid (r) array"}
	}
	arr, ok := arrayOf(r)
	if !ok {
		return nil, &errors.FormatError{Detail: "radial grid is not a numeric array"}
	}
	return arr, nil
}

// arrayOf unwraps a numeric array that may be stored bare or nested
// under a content key (v2 elements that carry attributes).
func arrayOf(v value.Value) ([]float64, bool) {
	if arr, ok := v.AsArray(); ok {
		return arr, true
	}
	if m, ok := v.AsMap(); ok {
		if content, ok := m.Get("content"); ok {
			return content.AsArray()
		}
	}
	return nil, false
}

// orbital is one pseudo-wavefunction pulled out of the pswfc block.
type orbital struct {
	l, n    int64
	content []float64
}

// orbitals extracts the chi entries sorted by (angular momentum,
// principal number) ascending.
func (d *Document) orbitals() ([]orbital, error) {
	pswfc, ok := d.fields.Get("pswfc")
	if !ok {
		return nil, &errors.MissingDataError{Operation: "dat rendering", Want: "pseudo-wavefunctions (pswfc)"}
	}
	pswfcMap, ok := pswfc.AsMap()
	if !ok {
		return nil, &errors.FormatError{Detail: "pswfc block is not a mapping"}
	}
	chiValue, ok := pswfcMap.Get("chi")
	if !ok {
		return nil, &errors.MissingDataError{Operation: "dat rendering", Want: "chi wavefunction entries"}
	}
	chis, ok := chiValue.AsList()
	if !ok {
		return nil, &errors.FormatError{Detail: "chi entries are not a sequence"}
	}

	out := make([]orbital, 0, len(chis))
	for i, chi := range chis {
		m, ok := chi.AsMap()
		if !ok {
			return nil, &errors.FormatError{Detail: fmt.Sprintf("chi entry %d is not a mapping", i+1)}
		}
		var orb orbital
		if l, ok := m.Get("l"); ok {
			if orb.l, ok = intOf(l); !ok {
				return nil, &errors.ConversionError{Field: "l", Value: l.Text()}
			}
		}
		if n, ok := m.Get("n"); ok {
			if orb.n, ok = intOf(n); !ok {
				return nil, &errors.ConversionError{Field: "n", Value: n.Text()}
			}
		}
		content, ok := m.Get("content")
		if !ok {
			return nil, &errors.MissingDataError{Operation: "dat rendering", Want: fmt.Sprintf("content array of chi entry %d", i+1)}
		}
		if orb.content, ok = arrayOf(content); !ok {
			return nil, &errors.FormatError{Detail: fmt.Sprintf("chi entry %d content is not a numeric array", i+1)}
		}
		out = append(out, orb)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].l != out[j].l {
			return out[i].l < out[j].l
		}
		return out[i].n < out[j].n
	})
	return out, nil
}

// intOf accepts integer scalars and integral floats.
func intOf(v value.Value) (int64, bool) {
	if i, ok := v.AsInt(); ok {
		return i, true
	}
	if f, ok := v.AsFloat(); ok && f == math.Trunc(f) {
		return int64(f), true
	}
	return 0, false
}

// logMesh returns the radial grid clamped at the floor value and its
// logarithm.
func (d *Document) logMesh() (rmesh, xmesh []float64, err error) {
	r, err := d.MeshR()
	if err != nil {
		return nil, nil, err
	}
	rmesh = make([]float64, len(r))
	xmesh = make([]float64, len(r))
	for i, v := range r {
		if v < meshFloor {
			v = meshFloor
		}
		rmesh[i] = v
		xmesh[i] = math.Log(v)
	}
	return rmesh, xmesh, nil
}

// Dat renders the projector .dat file pw2wannier90 and Wannier90 read:
// a header line with the mesh length and orbital count, a line of
// angular-momentum values, then one fixed-width row per mesh point with
// the log-radius, the radius, and each orbital's value.
func (d *Document) Dat() (string, error) {
	rmesh, xmesh, err := d.logMesh()
	if err != nil {
		return "", err
	}
	orbs, err := d.orbitals()
	if err != nil {
		return "", err
	}
	for i, orb := range orbs {
		if len(orb.content) != len(rmesh) {
			return "", &errors.FormatError{
				Detail: fmt.Sprintf("chi entry %d has %d points but the mesh has %d", i+1, len(orb.content), len(rmesh)),
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d %d\n", len(rmesh), len(orbs))
	lvals := make([]string, len(orbs))
	for i, orb := range orbs {
		lvals[i] = fmt.Sprintf("%d", orb.l)
	}
	b.WriteString(strings.Join(lvals, " "))
	b.WriteString("\n")
	for i := range rmesh {
		fmt.Fprintf(&b, "%20.15f %20.15f ", xmesh[i], rmesh[i])
		row := make([]string, len(orbs))
		for j, orb := range orbs {
			row[j] = fmt.Sprintf("%25.15e", orb.content[i])
		}
		b.WriteString(strings.Join(row, " "))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Projectors returns the pseudo-wavefunctions as a projector list on the
// logarithmic mesh, sorted the same way Dat sorts them.
func (d *Document) Projectors() (projector.Projectors, error) {
	_, xmesh, err := d.logMesh()
	if err != nil {
		return nil, err
	}
	orbs, err := d.orbitals()
	if err != nil {
		return nil, err
	}
	out := make(projector.Projectors, len(orbs))
	for i, orb := range orbs {
		out[i] = projector.New(xmesh, orb.content, int(orb.l))
	}
	return out, nil
}

// InputText extracts the generator input file embedded in the info block.
func (d *Document) InputText() (string, error) {
	info, ok := d.fields.Get("info")
	if !ok {
		return "", &errors.MissingDataError{Operation: "input extraction", Want: "an info block"}
	}
	infoMap, ok := info.AsMap()
	if !ok {
		return "", &errors.FormatError{Detail: "info block is not a mapping"}
	}
	inputFile, ok := infoMap.Get("inputfile")
	if !ok {
		return "", &errors.MissingDataError{Operation: "input extraction", Want: "an embedded input file"}
	}
	text, ok := textOf(inputFile)
	if !ok {
		return "", &errors.FormatError{Detail: "embedded input file is not plain text"}
	}
	return text, nil
}

// textOf coerces the inputfile value to text: v2 stores it as a raw
// string, v1 as the block's collected content lines.
func textOf(v value.Value) (string, bool) {
	if s, ok := v.AsString(); ok {
		return s, true
	}
	if lines, ok := v.StringLines(); ok {
		return strings.Join(lines, "\n"), true
	}
	if m, ok := v.AsMap(); ok {
		if content, ok := m.Get("content"); ok {
			return textOf(content)
		}
	}
	return "", false
}

// ONCVInput extracts and parses the oncvpsp.x input the pseudopotential
// was generated from. Files generated by ld1.x are rejected: their input
// is a Fortran namelist, recognizable by its &input marker.
func (d *Document) ONCVInput() (*oncv.Input, error) {
	text, err := d.InputText()
	if err != nil {
		return nil, err
	}
	if strings.Contains(strings.ToLower(text), "&input") {
		return nil, fmt.Errorf("%w: embedded input file was generated with ld1.x, not oncvpsp.x", errors.ErrUnsupported)
	}
	return oncv.Parse(text)
}

// LD1Input extracts the ld1.x namelist input the pseudopotential was
// generated from, verbatim.
func (d *Document) LD1Input() (string, error) {
	text, err := d.InputText()
	if err != nil {
		return "", err
	}
	if !strings.Contains(strings.ToLower(text), "&input") {
		return "", fmt.Errorf("%w: embedded input file does not appear to be an ld1.x input", errors.ErrUnsupported)
	}
	return text, nil
}
