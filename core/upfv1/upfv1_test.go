package upfv1

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/upfkit/core/errors"
	"github.com/FocuswithJustin/upfkit/core/value"
)

const headerBlock = `<PP_HEADER>
   0                   Version Number
  Si                   Element
   NC                  Norm - Conserving pseudopotential
    F                  Nonlinear Core Correction
 SLA  PZ   NOGX NOGC   PZ   Exchange-Correlation functional
    4.00000000000      Z valence
   -7.23304154809      Total energy
    0.00000    0.50000 Suggested cutoff for wfc and rho
    1                  Max angular momentum component
    3                  Number of points in mesh
    2    2             Number of Wavefunctions, Number of Projectors
</PP_HEADER>`

// TestParseMinimalDocument covers the end-to-end scenario: a header block
// plus a three-point radial mesh.
func TestParseMinimalDocument(t *testing.T) {
	contents := headerBlock + `
<PP_MESH>
<PP_R>
 0.0 0.1 0.2
</PP_R>
</PP_MESH>
`
	dct, err := Parse(contents)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	headerValue, ok := dct.Get("header")
	if !ok {
		t.Fatal("header block missing")
	}
	header, _ := headerValue.AsMap()
	if header == nil {
		t.Fatal("header is not a mapping")
	}

	checks := []struct {
		key  string
		want value.Value
	}{
		{"element", value.String("Si")},
		{"is_ultrasoft", value.Bool(false)},
		{"core_correction", value.Bool(false)},
		{"functional", value.String("SLA PZ NOGX NOGC")},
		{"z_valence", value.Float(4.0)},
		{"total_psenergy", value.Float(-7.23304154809)},
		{"rho_cutoff", value.Float(0.5)},
		{"l_max", value.Int(1)},
		{"mesh_size", value.Int(3)},
		{"number_of_wfc", value.Int(2)},
		{"number_of_proj", value.Int(2)},
	}
	for _, c := range checks {
		got, ok := header.Get(c.key)
		if !ok {
			t.Errorf("header key %q missing", c.key)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("header %s = %#v, want %#v", c.key, got, c.want)
		}
	}

	meshValue, _ := dct.Get("mesh")
	mesh, _ := meshValue.AsMap()
	if mesh == nil {
		t.Fatal("mesh block missing or not a mapping")
	}
	rValue, _ := mesh.Get("r")
	r, ok := rValue.AsArray()
	if !ok {
		t.Fatalf("mesh r is %v, want array", rValue.Kind())
	}
	want := []float64{0.0, 0.1, 0.2}
	if len(r) != len(want) {
		t.Fatalf("r has %d points, want %d", len(r), len(want))
	}
	for i := range want {
		if r[i] != want[i] {
			t.Errorf("r[%d] = %v, want %v", i, r[i], want[i])
		}
	}
}

// TestParseMissingClosingTag verifies the unterminated-block error names
// the missing tag.
func TestParseMissingClosingTag(t *testing.T) {
	_, err := Parse("<PP_MESH>\n 0.0 0.1\n")
	if err == nil {
		t.Fatal("expected an error for an unterminated block")
	}
	if !errors.Is(err, errors.ErrFormat) {
		t.Errorf("error should wrap ErrFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "PP_MESH") {
		t.Errorf("error should name the missing tag, got %q", err)
	}
}

// TestRepeatedSiblingPromotion verifies the collision rule at one level.
func TestRepeatedSiblingPromotion(t *testing.T) {
	contents := `<PP_NONLOCAL>
<PP_BETA>
  1  0             Beta    L
  3
 0.0 0.1 0.2
</PP_BETA>
<PP_BETA>
  2  1             Beta    L
  3
 0.3 0.4 0.5
</PP_BETA>
<PP_DIJ>
  1          Number of nonzero Dij
    2   2   5.0
</PP_DIJ>
</PP_NONLOCAL>
`
	dct, err := Parse(contents)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	nonlocalValue, _ := dct.Get("nonlocal")
	nonlocal, _ := nonlocalValue.AsMap()
	if nonlocal == nil {
		t.Fatal("nonlocal block missing")
	}

	betaValue, _ := nonlocal.Get("beta")
	betas, ok := betaValue.AsList()
	if !ok {
		t.Fatalf("repeated beta should be a list, got %v", betaValue.Kind())
	}
	if len(betas) != 2 {
		t.Fatalf("got %d beta entries, want 2", len(betas))
	}
	first, _ := betas[0].AsMap()
	if v, _ := first.Get("index"); !v.Equal(value.Int(1)) {
		t.Errorf("first beta index = %#v, want 1", v)
	}
	if v, _ := first.Get("angular_momentum"); !v.Equal(value.Int(0)) {
		t.Errorf("first beta l = %#v, want 0", v)
	}
	if v, _ := first.Get("columns"); !v.Equal(value.Int(3)) {
		t.Errorf("first beta columns = %#v, want 3", v)
	}
	content, _ := first.Get("content")
	if arr, _ := content.AsArray(); len(arr) != 3 || arr[2] != 0.2 {
		t.Errorf("first beta content = %v", arr)
	}

	// A tag appearing once stays a bare mapping.
	dijValue, _ := nonlocal.Get("dij")
	if _, ok := dijValue.AsMap(); !ok {
		t.Errorf("single dij should stay a bare mapping, got %v", dijValue.Kind())
	}
}

// TestSanitiseDijZeroDefault verifies dense reconstruction: a lone (2,2)
// entry yields a 2x2 matrix that is zero except at 0-based (1,1).
func TestSanitiseDijZeroDefault(t *testing.T) {
	contents := `<PP_DIJ>
  1          Number of nonzero Dij
    2   2   5.0
</PP_DIJ>
`
	dct, err := Parse(contents)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	dijValue, _ := dct.Get("dij")
	dij, _ := dijValue.AsMap()
	if dij == nil {
		t.Fatal("dij block missing")
	}
	if v, _ := dij.Get("dim"); !v.Equal(value.Int(2)) {
		t.Fatalf("dim = %#v, want 2", v)
	}
	if v, _ := dij.Get("size"); !v.Equal(value.Int(4)) {
		t.Fatalf("size = %#v, want 4", v)
	}
	contentValue, _ := dij.Get("content")
	content, _ := contentValue.AsArray()
	want := []float64{0, 0, 0, 5.0}
	if len(content) != len(want) {
		t.Fatalf("content has %d cells, want %d", len(content), len(want))
	}
	for i := range want {
		if content[i] != want[i] {
			t.Errorf("cell %d = %v, want %v", i, content[i], want[i])
		}
	}
}

// TestSanitisePSWFC verifies per-orbital splitting on the Wavefunction
// marker lines.
func TestSanitisePSWFC(t *testing.T) {
	contents := `<PP_PSWFC>
2S 0 2.00 Wavefunction
 0.1 0.2
 0.3
3P 1 1.50 Wavefunction
 0.4 0.5 0.6
</PP_PSWFC>
`
	dct, err := Parse(contents)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	pswfcValue, _ := dct.Get("pswfc")
	pswfc, _ := pswfcValue.AsMap()
	chiValue, _ := pswfc.Get("chi")
	chis, ok := chiValue.AsList()
	if !ok || len(chis) != 2 {
		t.Fatalf("got %#v, want 2 chi entries", chiValue)
	}

	first, _ := chis[0].AsMap()
	if v, _ := first.Get("label"); !v.Equal(value.String("2S")) {
		t.Errorf("label = %#v", v)
	}
	if v, _ := first.Get("n"); !v.Equal(value.Int(2)) {
		t.Errorf("n = %#v, want 2", v)
	}
	if v, _ := first.Get("l"); !v.Equal(value.Int(0)) {
		t.Errorf("l = %#v, want 0", v)
	}
	if v, _ := first.Get("occupation"); !v.Equal(value.Float(2.0)) {
		t.Errorf("occupation = %#v, want 2.0", v)
	}
	content, _ := first.Get("content")
	if arr, _ := content.AsArray(); len(arr) != 3 || arr[0] != 0.1 || arr[2] != 0.3 {
		t.Errorf("first chi content = %v", arr)
	}

	second, _ := chis[1].AsMap()
	if v, _ := second.Get("n"); !v.Equal(value.Int(3)) {
		t.Errorf("second chi n = %#v, want 3", v)
	}
	content, _ = second.Get("content")
	if arr, _ := content.AsArray(); len(arr) != 3 || arr[2] != 0.6 {
		t.Errorf("second chi content = %v", arr)
	}
}

// TestSanitisePSWFCBadPayload verifies malformed numeric payloads surface
// as conversion errors rather than silently parsing.
func TestSanitisePSWFCBadPayload(t *testing.T) {
	contents := `<PP_PSWFC>
2S 0 2.00 Wavefunction
 0.1 garbage
</PP_PSWFC>
`
	_, err := Parse(contents)
	if err == nil {
		t.Fatal("expected an error for a non-numeric payload")
	}
	if !errors.Is(err, errors.ErrConversion) {
		t.Errorf("error should wrap ErrConversion, got %v", err)
	}
}

// TestSanitiseBetaRejectsForeignRecord verifies the Beta marker check.
func TestSanitiseBetaRejectsForeignRecord(t *testing.T) {
	contents := `<PP_BETA>
  1  0             Gamma   L
  3
 0.0 0.1 0.2
</PP_BETA>
`
	_, err := Parse(contents)
	if err == nil {
		t.Fatal("expected an error for a non-Beta record")
	}
	if !errors.Is(err, errors.ErrFormat) {
		t.Errorf("error should wrap ErrFormat, got %v", err)
	}
}

// TestContentLinesKeptForUnknownTags verifies free text of unsanitised
// blocks stays verbatim.
func TestContentLinesKeptForUnknownTags(t *testing.T) {
	contents := `<PP_INFO>
Generated using ONCVPSP code
Author: anonymous
<PP_INPUTFILE>
Si 14.00 3 2 4 upf
</PP_INPUTFILE>
</PP_INFO>
`
	dct, err := Parse(contents)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	infoValue, _ := dct.Get("info")
	info, _ := infoValue.AsMap()
	contentValue, _ := info.Get("content")
	lines, ok := contentValue.StringLines()
	if !ok || len(lines) != 2 {
		t.Fatalf("info content = %#v, want two lines", contentValue)
	}
	if lines[0] != "Generated using ONCVPSP code" {
		t.Errorf("line 0 = %q", lines[0])
	}

	inputValue, _ := info.Get("inputfile")
	input, _ := inputValue.AsMap()
	if input == nil {
		t.Fatal("nested inputfile block missing")
	}
	inputContent, _ := input.Get("content")
	if lines, ok := inputContent.StringLines(); !ok || len(lines) != 1 {
		t.Errorf("inputfile content = %#v", inputContent)
	}
}
