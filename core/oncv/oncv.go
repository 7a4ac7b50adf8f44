// Package oncv models the input file of the ONCVPSP pseudopotential
// generator (oncvpsp.x).
//
// The format is a strict positional sequence of fixed-schema records, not
// a grammar: after comment lines are filtered out, each section is read
// at a known offset, with the record counts cross-referenced between
// sections (the reference configuration has nc+nv subshells, the
// optimization and projector sections have lmax+1 rows each, and every
// test configuration carries nv rows behind its own subshell-count line).
// Serialization re-emits the same section ordering with comment headers
// and fixed-width columns, so a parsed input round-trips.
package oncv

// Atom describes the atom and the exchange-correlation treatment.
type Atom struct {
	Symbol string  // atsym: element symbol
	Z      float64 // z: atomic number
	NC     int     // nc: number of core states
	NV     int     // nv: number of valence states
	IExc   int     // iexc: exchange-correlation functional code
	PSFile string  // psfile: output format (psp8, upf, both)
}

// Subshell is one (n, l, f) row of an electronic configuration.
type Subshell struct {
	N int     // principal quantum number
	L int     // angular momentum
	F float64 // occupation
}

// Configuration is an ordered list of subshells.
type Configuration struct {
	Subshells []Subshell
}

// OptimizationChannel holds the pseudization parameters for one angular
// momentum channel.
type OptimizationChannel struct {
	L    int     // angular momentum
	RC   float64 // core radius
	EP   float64 // energy at which the pseudopotential is constructed
	NCon int     // number of constraints
	NBas int     // number of basis functions
	QCut float64 // wavevector cutoff
}

// LocalPotential describes the local part of the pseudopotential.
type LocalPotential struct {
	LLoc   int     // lloc: angular momentum of the local potential
	LpOpt  int     // lpopt: local-potential construction method
	RC     float64 // rc(5): local-potential core radius
	DVLoc0 float64 // dvloc0: shift at r=0
}

// VKBProjector describes the Vanderbilt-Kleinman-Bylander projectors of
// one channel.
type VKBProjector struct {
	L     int     // angular momentum
	NProj int     // number of projectors
	DEBl  float64 // energy added for the second projector
}

// ModelCoreCharge describes the model core charge used for nonlinear
// core correction. RCFact is absent in older inputs.
type ModelCoreCharge struct {
	ICMod  int      // icmod: core-correction mode
	FCFact float64  // fcfact: scaling factor
	RCFact *float64 // rcfact: radius factor (icmod 3 only)
}

// LogDerivativeAnalysis describes the energy window for the log
// derivative diagnostics.
type LogDerivativeAnalysis struct {
	EPsh1 float64 // epsh1: window lower bound
	EPsh2 float64 // epsh2: window upper bound
	DEPsh float64 // depsh: energy step
}

// OutputGrid describes the linear radial grid of the generator output.
type OutputGrid struct {
	RLMax float64 // rlmax: maximum radius
	DRL   float64 // drl: grid spacing
}

// Input is a complete oncvpsp.x input file.
type Input struct {
	Atom                   Atom
	ReferenceConfiguration Configuration
	LMax                   int
	Optimization           []OptimizationChannel
	LocalPotential         LocalPotential
	VKBProjectors          []VKBProjector
	ModelCoreCharge        ModelCoreCharge
	LogDerivativeAnalysis  LogDerivativeAnalysis
	OutputGrid             OutputGrid
	TestConfigurations     []Configuration
}

// NV returns the valence subshell count every test configuration must have.
func (in *Input) NV() int { return in.Atom.NV }
