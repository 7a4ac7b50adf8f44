package oncv

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/FocuswithJustin/upfkit/core/errors"
)

const siInput = `# ATOM AND REFERENCE CONFIGURATION
# atsym  z    nc  nv    iexc   psfile
Si 14.00 3 2 4 upf
#
#   n    l    f
1 0 2.00
2 0 2.00
2 1 6.00
3 0 2.00
3 1 2.00
#
# PSEUDOPOTENTIAL AND OPTIMIZATION
# lmax
1
#
#   l,   rc,     ep,       ncon, nbas, qcut
0 1.60 -0.40 4 8 6.60
1 1.60 -0.15 4 8 6.60
#
# LOCAL POTENTIAL
# lloc, lpopt, rc(5), dvloc0
4 5 1.40 0.00
#
# VANDERBILT-KLEINMAN-BYLANDER PROJECTORs
#   l, nproj, debl
0 2 1.50
1 2 1.50
#
# MODEL CORE CHARGE
# icmod, fcfact
0 0.00
#
# LOG DERIVATIVE ANALYSIS
# epsh1, epsh2, depsh
-2.00 2.00 0.02
#
# OUTPUT GRID
# rlmax, drl
6.00 0.01
#
# TEST CONFIGURATIONS
# ncnf
2
#
#   nvcnf
#   n    l    f
2
3 0 2.00
3 1 1.00
2
3 0 1.00
3 1 0.00
`

func TestParse(t *testing.T) {
	in, err := Parse(siInput)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if in.Atom.Symbol != "Si" || in.Atom.Z != 14.0 {
		t.Errorf("atom = %+v", in.Atom)
	}
	if in.Atom.NC != 3 || in.Atom.NV != 2 {
		t.Errorf("nc/nv = %d/%d", in.Atom.NC, in.Atom.NV)
	}
	if got := len(in.ReferenceConfiguration.Subshells); got != 5 {
		t.Fatalf("reference configuration has %d subshells, want nc+nv=5", got)
	}
	if sub := in.ReferenceConfiguration.Subshells[2]; sub.N != 2 || sub.L != 1 || sub.F != 6.0 {
		t.Errorf("subshell[2] = %+v", sub)
	}
	if in.LMax != 1 {
		t.Errorf("lmax = %d", in.LMax)
	}
	if got := len(in.Optimization); got != 2 {
		t.Fatalf("%d optimization channels, want lmax+1=2", got)
	}
	if ch := in.Optimization[0]; ch.L != 0 || ch.RC != 1.6 || ch.EP != -0.4 || ch.NCon != 4 || ch.NBas != 8 || ch.QCut != 6.6 {
		t.Errorf("optimization[0] = %+v", ch)
	}
	if lp := in.LocalPotential; lp.LLoc != 4 || lp.LpOpt != 5 || lp.RC != 1.4 {
		t.Errorf("local potential = %+v", lp)
	}
	if got := len(in.VKBProjectors); got != 2 {
		t.Fatalf("%d vkb channels, want lmax+1=2", got)
	}
	if in.ModelCoreCharge.ICMod != 0 || in.ModelCoreCharge.RCFact != nil {
		t.Errorf("model core charge = %+v", in.ModelCoreCharge)
	}
	if ld := in.LogDerivativeAnalysis; ld.EPsh1 != -2.0 || ld.EPsh2 != 2.0 || ld.DEPsh != 0.02 {
		t.Errorf("log derivative analysis = %+v", ld)
	}
	if og := in.OutputGrid; og.RLMax != 6.0 || og.DRL != 0.01 {
		t.Errorf("output grid = %+v", og)
	}
	if got := len(in.TestConfigurations); got != 2 {
		t.Fatalf("%d test configurations, want 2", got)
	}
	second := in.TestConfigurations[1]
	if len(second.Subshells) != 2 || second.Subshells[0].F != 1.0 || second.Subshells[1].F != 0.0 {
		t.Errorf("test configuration[1] = %+v", second)
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Si.in")
	if err := os.WriteFile(path, []byte(siInput), 0o644); err != nil {
		t.Fatal(err)
	}
	in, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}
	if in.Atom.Symbol != "Si" {
		t.Errorf("symbol = %q", in.Atom.Symbol)
	}
}

func TestParseOptionalRCFact(t *testing.T) {
	text := strings.Replace(siInput, "# icmod, fcfact\n0 0.00\n", "# icmod, fcfact\n3 5.00 1.30\n", 1)
	in, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if in.ModelCoreCharge.ICMod != 3 || in.ModelCoreCharge.FCFact != 5.0 {
		t.Errorf("model core charge = %+v", in.ModelCoreCharge)
	}
	if in.ModelCoreCharge.RCFact == nil || *in.ModelCoreCharge.RCFact != 1.3 {
		t.Errorf("rcfact = %v, want 1.3", in.ModelCoreCharge.RCFact)
	}
}

// TestRoundTrip serializes a parsed input and reparses it; the two
// inputs must compare equal in every field.
func TestRoundTrip(t *testing.T) {
	first, err := Parse(siInput)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	second, err := Parse(first.Text())
	if err != nil {
		t.Fatalf("reparse of serialized input failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip drifted:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestRoundTripWithRCFact(t *testing.T) {
	text := strings.Replace(siInput, "# icmod, fcfact\n0 0.00\n", "# icmod, fcfact\n3 5.00 1.30\n", 1)
	first, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	second, err := Parse(first.Text())
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("round trip with rcfact drifted")
	}
}

func TestParseTruncated(t *testing.T) {
	// Cut the input off right after the lmax line.
	idx := strings.Index(siInput, "# PSEUDOPOTENTIAL")
	short := siInput[:idx] + "# lmax\n1\n"
	_, err := Parse(short)
	if err == nil {
		t.Fatal("expected an error for truncated input")
	}
	if !errors.Is(err, errors.ErrFormat) {
		t.Errorf("error should wrap ErrFormat, got %v", err)
	}
}

func TestParseBadToken(t *testing.T) {
	text := strings.Replace(siInput, "Si 14.00 3 2 4 upf", "Si fourteen 3 2 4 upf", 1)
	_, err := Parse(text)
	if err == nil {
		t.Fatal("expected an error for non-numeric z")
	}
	if !errors.Is(err, errors.ErrConversion) {
		t.Errorf("error should wrap ErrConversion, got %v", err)
	}
	var conv *errors.ConversionError
	if !errors.As(err, &conv) {
		t.Fatal("error should carry conversion context")
	}
	if conv.Value != "fourteen" {
		t.Errorf("offending token = %q", conv.Value)
	}
}

func TestParseSubshellCountMismatch(t *testing.T) {
	// First test configuration declares 3 subshells but nv is 2.
	text := strings.Replace(siInput, "2\n3 0 2.00\n3 1 1.00\n", "3\n3 0 2.00\n3 1 1.00\n3 2 0.00\n", 1)
	_, err := Parse(text)
	if err == nil {
		t.Fatal("expected an error for nvcnf != nv")
	}
	if !errors.Is(err, errors.ErrFormat) {
		t.Errorf("error should wrap ErrFormat, got %v", err)
	}
}
