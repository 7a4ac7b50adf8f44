package oncv

import (
	"fmt"
	"strconv"
	"strings"
)

// Text renders the input back to the generator's file format: the same
// section ordering the parser walks, comment header lines for each
// section, fixed-width columns for every scalar field, and the item count
// printed before each variable-length block. A parsed input serialized
// with Text and re-parsed compares equal field-for-field.
func (in *Input) Text() string {
	var b strings.Builder

	b.WriteString("# ATOM AND REFERENCE CONFIGURATION\n")
	b.WriteString("# atsym  z    nc  nv    iexc   psfile\n")
	writeRow(&b, in.Atom.Symbol, ff(in.Atom.Z), fi(in.Atom.NC), fi(in.Atom.NV),
		fi(in.Atom.IExc), in.Atom.PSFile)
	b.WriteString("#\n#   n    l    f\n")
	for _, sub := range in.ReferenceConfiguration.Subshells {
		writeRow(&b, fi(sub.N), fi(sub.L), ff(sub.F))
	}

	b.WriteString("#\n# PSEUDOPOTENTIAL AND OPTIMIZATION\n")
	b.WriteString("# lmax\n")
	writeRow(&b, fi(in.LMax))
	b.WriteString("#\n#   l,   rc,     ep,       ncon, nbas, qcut\n")
	for _, ch := range in.Optimization {
		writeRow(&b, fi(ch.L), ff(ch.RC), ff(ch.EP), fi(ch.NCon), fi(ch.NBas), ff(ch.QCut))
	}

	b.WriteString("#\n# LOCAL POTENTIAL\n")
	b.WriteString("# lloc, lpopt, rc(5), dvloc0\n")
	writeRow(&b, fi(in.LocalPotential.LLoc), fi(in.LocalPotential.LpOpt),
		ff(in.LocalPotential.RC), ff(in.LocalPotential.DVLoc0))

	b.WriteString("#\n# VANDERBILT-KLEINMAN-BYLANDER PROJECTORs\n")
	b.WriteString("#   l, nproj, debl\n")
	for _, p := range in.VKBProjectors {
		writeRow(&b, fi(p.L), fi(p.NProj), ff(p.DEBl))
	}

	b.WriteString("#\n# MODEL CORE CHARGE\n")
	b.WriteString("# icmod, fcfact")
	if in.ModelCoreCharge.RCFact != nil {
		b.WriteString(", rcfact")
	}
	b.WriteString("\n")
	if in.ModelCoreCharge.RCFact != nil {
		writeRow(&b, fi(in.ModelCoreCharge.ICMod), ff(in.ModelCoreCharge.FCFact),
			ff(*in.ModelCoreCharge.RCFact))
	} else {
		writeRow(&b, fi(in.ModelCoreCharge.ICMod), ff(in.ModelCoreCharge.FCFact))
	}

	b.WriteString("#\n# LOG DERIVATIVE ANALYSIS\n")
	b.WriteString("# epsh1, epsh2, depsh\n")
	writeRow(&b, ff(in.LogDerivativeAnalysis.EPsh1), ff(in.LogDerivativeAnalysis.EPsh2),
		ff(in.LogDerivativeAnalysis.DEPsh))

	b.WriteString("#\n# OUTPUT GRID\n")
	b.WriteString("# rlmax, drl\n")
	writeRow(&b, ff(in.OutputGrid.RLMax), ff(in.OutputGrid.DRL))

	b.WriteString("#\n# TEST CONFIGURATIONS\n")
	b.WriteString("# ncnf\n")
	writeRow(&b, fi(len(in.TestConfigurations)))
	b.WriteString("#\n#   nvcnf\n#   n    l    f\n")
	for _, cfg := range in.TestConfigurations {
		writeRow(&b, fi(len(cfg.Subshells)))
		for _, sub := range cfg.Subshells {
			writeRow(&b, fi(sub.N), fi(sub.L), ff(sub.F))
		}
	}

	return b.String()
}

// fieldWidth is the column width of every serialized scalar field.
const fieldWidth = 10

// writeRow emits one record with each field right-aligned in a fixed
// column.
func writeRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(b, "%*s", fieldWidth, f)
	}
	b.WriteString("\n")
}

// ff formats a float with the shortest decimal expansion that re-parses
// to the same value, so serialization never loses precision.
func ff(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".00"
	}
	return s
}

func fi(v int) string {
	return strconv.Itoa(v)
}
