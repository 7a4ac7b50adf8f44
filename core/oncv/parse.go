package oncv

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/upfkit/core/errors"
	"github.com/FocuswithJustin/upfkit/internal/fileutil"
)

const formatName = "ONCV input"

// reader walks the comment-stripped lines of an input file in strict
// positional order. Any short or malformed block aborts the whole parse;
// there is no recovery.
type reader struct {
	lines []string
	pos   int
}

func (r *reader) next(section string) ([]string, error) {
	if r.pos >= len(r.lines) {
		return nil, &errors.FormatError{
			Format: formatName,
			Detail: fmt.Sprintf("input ends before the %s section", section),
		}
	}
	fields := strings.Fields(r.lines[r.pos])
	r.pos++
	return fields, nil
}

func fieldInt(section, name, token string) (int, error) {
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, &errors.ConversionError{Field: section + " " + name, Value: token, Err: err}
	}
	return v, nil
}

func fieldFloat(section, name, token string) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, &errors.ConversionError{Field: section + " " + name, Value: token, Err: err}
	}
	return v, nil
}

func short(section string, got, want int) error {
	return &errors.FormatError{
		Format: formatName,
		Detail: fmt.Sprintf("%s record has %d fields, want %d", section, got, want),
	}
}

// FromFile reads and parses an oncvpsp.x input file.
func FromFile(path string) (*Input, error) {
	data, err := fileutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse builds an Input from the text of an oncvpsp.x input file.
func Parse(text string) (*Input, error) {
	var content []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		content = append(content, trimmed)
	}
	r := &reader{lines: content}
	in := &Input{}

	// atom
	fields, err := r.next("atom")
	if err != nil {
		return nil, err
	}
	if len(fields) < 6 {
		return nil, short("atom", len(fields), 6)
	}
	in.Atom.Symbol = fields[0]
	if in.Atom.Z, err = fieldFloat("atom", "z", fields[1]); err != nil {
		return nil, err
	}
	if in.Atom.NC, err = fieldInt("atom", "nc", fields[2]); err != nil {
		return nil, err
	}
	if in.Atom.NV, err = fieldInt("atom", "nv", fields[3]); err != nil {
		return nil, err
	}
	if in.Atom.IExc, err = fieldInt("atom", "iexc", fields[4]); err != nil {
		return nil, err
	}
	in.Atom.PSFile = fields[5]

	// reference configuration: nc+nv subshells
	in.ReferenceConfiguration, err = r.configuration("reference configuration", in.Atom.NC+in.Atom.NV)
	if err != nil {
		return nil, err
	}

	// lmax
	fields, err = r.next("lmax")
	if err != nil {
		return nil, err
	}
	if len(fields) < 1 {
		return nil, short("lmax", len(fields), 1)
	}
	if in.LMax, err = fieldInt("lmax", "lmax", fields[0]); err != nil {
		return nil, err
	}

	// optimization: lmax+1 channels
	for l := 0; l <= in.LMax; l++ {
		fields, err = r.next("optimization")
		if err != nil {
			return nil, err
		}
		if len(fields) < 6 {
			return nil, short("optimization", len(fields), 6)
		}
		var ch OptimizationChannel
		if ch.L, err = fieldInt("optimization", "l", fields[0]); err != nil {
			return nil, err
		}
		if ch.RC, err = fieldFloat("optimization", "rc", fields[1]); err != nil {
			return nil, err
		}
		if ch.EP, err = fieldFloat("optimization", "ep", fields[2]); err != nil {
			return nil, err
		}
		if ch.NCon, err = fieldInt("optimization", "ncon", fields[3]); err != nil {
			return nil, err
		}
		if ch.NBas, err = fieldInt("optimization", "nbas", fields[4]); err != nil {
			return nil, err
		}
		if ch.QCut, err = fieldFloat("optimization", "qcut", fields[5]); err != nil {
			return nil, err
		}
		in.Optimization = append(in.Optimization, ch)
	}

	// local potential
	fields, err = r.next("local potential")
	if err != nil {
		return nil, err
	}
	if len(fields) < 4 {
		return nil, short("local potential", len(fields), 4)
	}
	if in.LocalPotential.LLoc, err = fieldInt("local potential", "lloc", fields[0]); err != nil {
		return nil, err
	}
	if in.LocalPotential.LpOpt, err = fieldInt("local potential", "lpopt", fields[1]); err != nil {
		return nil, err
	}
	if in.LocalPotential.RC, err = fieldFloat("local potential", "rc", fields[2]); err != nil {
		return nil, err
	}
	if in.LocalPotential.DVLoc0, err = fieldFloat("local potential", "dvloc0", fields[3]); err != nil {
		return nil, err
	}

	// VKB projectors: lmax+1 channels
	for l := 0; l <= in.LMax; l++ {
		fields, err = r.next("vkb projectors")
		if err != nil {
			return nil, err
		}
		if len(fields) < 3 {
			return nil, short("vkb projectors", len(fields), 3)
		}
		var p VKBProjector
		if p.L, err = fieldInt("vkb projectors", "l", fields[0]); err != nil {
			return nil, err
		}
		if p.NProj, err = fieldInt("vkb projectors", "nproj", fields[1]); err != nil {
			return nil, err
		}
		if p.DEBl, err = fieldFloat("vkb projectors", "debl", fields[2]); err != nil {
			return nil, err
		}
		in.VKBProjectors = append(in.VKBProjectors, p)
	}

	// model core charge; rcfact is present only in newer inputs
	fields, err = r.next("model core charge")
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 {
		return nil, short("model core charge", len(fields), 2)
	}
	if in.ModelCoreCharge.ICMod, err = fieldInt("model core charge", "icmod", fields[0]); err != nil {
		return nil, err
	}
	if in.ModelCoreCharge.FCFact, err = fieldFloat("model core charge", "fcfact", fields[1]); err != nil {
		return nil, err
	}
	if len(fields) >= 3 {
		rcfact, err := fieldFloat("model core charge", "rcfact", fields[2])
		if err != nil {
			return nil, err
		}
		in.ModelCoreCharge.RCFact = &rcfact
	}

	// log derivative analysis
	fields, err = r.next("log derivative analysis")
	if err != nil {
		return nil, err
	}
	if len(fields) < 3 {
		return nil, short("log derivative analysis", len(fields), 3)
	}
	if in.LogDerivativeAnalysis.EPsh1, err = fieldFloat("log derivative analysis", "epsh1", fields[0]); err != nil {
		return nil, err
	}
	if in.LogDerivativeAnalysis.EPsh2, err = fieldFloat("log derivative analysis", "epsh2", fields[1]); err != nil {
		return nil, err
	}
	if in.LogDerivativeAnalysis.DEPsh, err = fieldFloat("log derivative analysis", "depsh", fields[2]); err != nil {
		return nil, err
	}

	// output grid
	fields, err = r.next("output grid")
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 {
		return nil, short("output grid", len(fields), 2)
	}
	if in.OutputGrid.RLMax, err = fieldFloat("output grid", "rlmax", fields[0]); err != nil {
		return nil, err
	}
	if in.OutputGrid.DRL, err = fieldFloat("output grid", "drl", fields[1]); err != nil {
		return nil, err
	}

	// test configurations: count, then one subshell-count line and nv
	// rows per configuration
	fields, err = r.next("test configurations")
	if err != nil {
		return nil, err
	}
	if len(fields) < 1 {
		return nil, short("test configurations", len(fields), 1)
	}
	ncnf, err := fieldInt("test configurations", "ncnf", fields[0])
	if err != nil {
		return nil, err
	}
	for c := 0; c < ncnf; c++ {
		fields, err = r.next("test configuration")
		if err != nil {
			return nil, err
		}
		if len(fields) < 1 {
			return nil, short("test configuration", len(fields), 1)
		}
		nvcnf, err := fieldInt("test configuration", "nvcnf", fields[0])
		if err != nil {
			return nil, err
		}
		if nvcnf != in.Atom.NV {
			return nil, &errors.FormatError{
				Format: formatName,
				Detail: fmt.Sprintf("test configuration %d declares %d subshells, want nv=%d", c+1, nvcnf, in.Atom.NV),
			}
		}
		cfg, err := r.configuration("test configuration", nvcnf)
		if err != nil {
			return nil, err
		}
		in.TestConfigurations = append(in.TestConfigurations, cfg)
	}

	return in, nil
}

// configuration reads count subshell rows.
func (r *reader) configuration(section string, count int) (Configuration, error) {
	cfg := Configuration{}
	for i := 0; i < count; i++ {
		fields, err := r.next(section)
		if err != nil {
			return cfg, err
		}
		if len(fields) < 3 {
			return cfg, short(section, len(fields), 3)
		}
		var sub Subshell
		if sub.N, err = fieldInt(section, "n", fields[0]); err != nil {
			return cfg, err
		}
		if sub.L, err = fieldInt(section, "l", fields[1]); err != nil {
			return cfg, err
		}
		if sub.F, err = fieldFloat(section, "f", fields[2]); err != nil {
			return cfg, err
		}
		cfg.Subshells = append(cfg.Subshells, sub)
	}
	return cfg, nil
}
