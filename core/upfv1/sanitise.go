package upfv1

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/upfkit/core/errors"
	"github.com/FocuswithJustin/upfkit/core/value"
)

// sanitiser normalizes the generically-decomposed map of one tagged block.
// Sanitisers are pure: they consume the raw sub-mapping and return a
// cleaned value without consulting sibling or parent state.
type sanitiser func(*value.Map) (value.Value, error)

// sanitisers dispatches per-tag normalization after generic decomposition.
var sanitisers = map[string]sanitiser{
	"header":  sanitiseHeader,
	"pswfc":   sanitisePSWFC,
	"beta":    sanitiseBeta,
	"dij":     sanitiseDij,
	"r":       sanitiseNumericArray,
	"rab":     sanitiseNumericArray,
	"nlcc":    sanitiseNumericArray,
	"local":   sanitiseNumericArray,
	"rhoatom": sanitiseNumericArray,
}

// contentLines pulls the raw payload lines collected by the decomposer.
func contentLines(dct *value.Map) ([]string, error) {
	v, ok := dct.Get("content")
	if !ok {
		return nil, &errors.FormatError{Format: formatName, Detail: "block has no content lines"}
	}
	lines, ok := v.StringLines()
	if !ok {
		return nil, &errors.FormatError{Format: formatName, Detail: "block content is not plain text"}
	}
	return lines, nil
}

// parseFloat converts one token, reporting the field on failure.
func parseFloat(field, token string) (float64, error) {
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, &errors.ConversionError{Field: field, Value: token, Err: err}
	}
	return f, nil
}

// parseInt converts one token, reporting the field on failure.
func parseInt(field, token string) (int64, error) {
	i, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, &errors.ConversionError{Field: field, Value: token, Err: err}
	}
	return i, nil
}

// floatArray flattens whitespace-separated tokens of lines into one array.
func floatArray(field string, lines []string) ([]float64, error) {
	var out []float64
	for _, line := range lines {
		for _, token := range strings.Fields(line) {
			f, err := parseFloat(field, token)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}

// sanitiseHeader extracts the fixed header fields by line and token
// position. The legacy header layout is:
//
//	line 0   version stamp
//	line 1   element symbol
//	line 2   US|NC flag
//	line 3   core-correction flag (T/F)
//	line 4   exchange-correlation functional (last three tokens are codes)
//	line 5   valence charge
//	line 6   total pseudopotential energy
//	line 7   wavefunction and charge-density cutoffs
//	line 8   maximum angular momentum
//	line 9   mesh size
//	line 10  wavefunction and projector counts
func sanitiseHeader(dct *value.Map) (value.Value, error) {
	lines, err := contentLines(dct)
	if err != nil {
		return value.Value{}, err
	}
	if len(lines) < 11 {
		return value.Value{}, &errors.FormatError{
			Format: formatName,
			Detail: fmt.Sprintf("header block has %d lines, want 11", len(lines)),
		}
	}
	fields := make([][]string, len(lines))
	for i, l := range lines {
		fields[i] = strings.Fields(l)
	}
	for i, min := range map[int]int{1: 1, 2: 1, 3: 1, 4: 4, 5: 1, 6: 1, 7: 2, 8: 1, 9: 1, 10: 2} {
		if len(fields[i]) < min {
			return value.Value{}, &errors.FormatError{
				Format: formatName,
				Detail: fmt.Sprintf("header line %d is short", i),
			}
		}
	}

	out := value.NewMap()
	out.Set("element", value.String(fields[1][0]))
	out.Set("is_ultrasoft", value.Bool(fields[2][0] == "US"))
	out.Set("core_correction", value.Bool(fields[3][0] == "T"))
	out.Set("functional", value.String(strings.Join(fields[4][:len(fields[4])-3], " ")))

	zValence, err := parseFloat("z_valence", fields[5][0])
	if err != nil {
		return value.Value{}, err
	}
	out.Set("z_valence", value.Float(zValence))

	psEnergy, err := parseFloat("total_psenergy", fields[6][0])
	if err != nil {
		return value.Value{}, err
	}
	out.Set("total_psenergy", value.Float(psEnergy))

	rhoCutoff, err := parseFloat("rho_cutoff", fields[7][1])
	if err != nil {
		return value.Value{}, err
	}
	out.Set("rho_cutoff", value.Float(rhoCutoff))

	lMax, err := parseInt("l_max", fields[8][0])
	if err != nil {
		return value.Value{}, err
	}
	out.Set("l_max", value.Int(lMax))

	meshSize, err := parseInt("mesh_size", fields[9][0])
	if err != nil {
		return value.Value{}, err
	}
	out.Set("mesh_size", value.Int(meshSize))

	numWfc, err := parseInt("number_of_wfc", fields[10][0])
	if err != nil {
		return value.Value{}, err
	}
	out.Set("number_of_wfc", value.Int(numWfc))

	numProj, err := parseInt("number_of_proj", fields[10][1])
	if err != nil {
		return value.Value{}, err
	}
	out.Set("number_of_proj", value.Int(numProj))

	return value.MapValue(out), nil
}

// sanitisePSWFC splits the flat wavefunction payload into per-orbital
// records. Lines containing the literal marker "Wavefunction" open a new
// orbital (label, angular momentum, occupation); the lines that follow
// are the orbital's numeric payload, concatenated into one array.
func sanitisePSWFC(dct *value.Map) (value.Value, error) {
	lines, err := contentLines(dct)
	if err != nil {
		return value.Value{}, err
	}

	var chis []value.Value
	var payload []string
	flush := func() error {
		if len(payload) == 0 {
			return nil
		}
		if len(chis) == 0 {
			return &errors.FormatError{
				Format: formatName,
				Detail: "pswfc payload precedes any wavefunction record",
			}
		}
		arr, err := floatArray("chi content", payload)
		if err != nil {
			return err
		}
		chi, _ := chis[len(chis)-1].AsMap()
		chi.Set("content", value.Array(arr))
		payload = nil
		return nil
	}

	for _, line := range lines {
		if !strings.Contains(line, "Wavefunction") {
			payload = append(payload, line)
			continue
		}
		if err := flush(); err != nil {
			return value.Value{}, err
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return value.Value{}, &errors.FormatError{
				Format: formatName,
				Detail: fmt.Sprintf("short wavefunction record %q", strings.TrimSpace(line)),
			}
		}
		label := fields[0]
		n, err := parseInt("n", label[:1])
		if err != nil {
			return value.Value{}, err
		}
		l, err := parseInt("l", fields[1])
		if err != nil {
			return value.Value{}, err
		}
		occupation, err := parseFloat("occupation", fields[2])
		if err != nil {
			return value.Value{}, err
		}
		chi := value.NewMap()
		chi.Set("label", value.String(label))
		chi.Set("n", value.Int(n))
		chi.Set("l", value.Int(l))
		chi.Set("occupation", value.Float(occupation))
		chis = append(chis, value.MapValue(chi))
	}
	if len(chis) == 0 {
		return value.Value{}, &errors.FormatError{
			Format: formatName,
			Detail: "pswfc block has no wavefunction records",
		}
	}
	if err := flush(); err != nil {
		return value.Value{}, err
	}

	out := value.NewMap()
	out.Set("chi", value.List(chis))
	return value.MapValue(out), nil
}

// sanitiseBeta normalizes one nonlocal projector block. The first line
// declares the projector index and angular momentum; the second carries
// the declared point count; the rest is a flat float array whose column
// count is recorded only as metadata, never used for reshaping.
func sanitiseBeta(dct *value.Map) (value.Value, error) {
	lines, err := contentLines(dct)
	if err != nil {
		return value.Value{}, err
	}
	if len(lines) < 3 {
		return value.Value{}, &errors.FormatError{
			Format: formatName,
			Detail: fmt.Sprintf("beta block has %d lines, want at least 3", len(lines)),
		}
	}
	fields := strings.Fields(lines[0])
	if len(fields) < 3 || fields[2] != "Beta" {
		return value.Value{}, &errors.FormatError{
			Format: formatName,
			Detail: fmt.Sprintf("unrecognized beta record %q", strings.TrimSpace(lines[0])),
		}
	}
	index, err := parseInt("index", fields[0])
	if err != nil {
		return value.Value{}, err
	}
	l, err := parseInt("angular_momentum", fields[1])
	if err != nil {
		return value.Value{}, err
	}
	columns := len(strings.Fields(lines[2]))
	arr, err := floatArray("beta content", lines[2:])
	if err != nil {
		return value.Value{}, err
	}

	out := value.NewMap()
	out.Set("type", value.String("real"))
	out.Set("size", value.Int(int64(len(arr))))
	out.Set("columns", value.Int(int64(columns)))
	out.Set("index", value.Int(index))
	out.Set("angular_momentum", value.Int(l))
	out.Set("content", value.Array(arr))
	return value.MapValue(out), nil
}

// sanitiseDij reconstructs the dense coupling matrix from sparse
// (row, column, value) triples. Indices are 1-based in the source; the
// matrix dimension is the largest index referenced by either coordinate,
// and unreferenced cells default to zero. The content array is stored
// flat in row-major order alongside its dimension.
func sanitiseDij(dct *value.Map) (value.Value, error) {
	lines, err := contentLines(dct)
	if err != nil {
		return value.Value{}, err
	}
	if len(lines) < 2 {
		return value.Value{}, &errors.FormatError{
			Format: formatName,
			Detail: "dij block has no entries",
		}
	}

	// First line is the entry-count header; the triples follow.
	type triple struct {
		i, j int64
		v    float64
	}
	triples := make([]triple, 0, len(lines)-1)
	dim := int64(0)
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return value.Value{}, &errors.FormatError{
				Format: formatName,
				Detail: fmt.Sprintf("short dij entry %q", strings.TrimSpace(line)),
			}
		}
		i, err := parseInt("dij row", fields[0])
		if err != nil {
			return value.Value{}, err
		}
		j, err := parseInt("dij column", fields[1])
		if err != nil {
			return value.Value{}, err
		}
		v, err := parseFloat("dij value", fields[2])
		if err != nil {
			return value.Value{}, err
		}
		if i < 1 || j < 1 {
			return value.Value{}, &errors.FormatError{
				Format: formatName,
				Detail: fmt.Sprintf("dij entry (%d, %d) is not 1-based", i, j),
			}
		}
		if i > dim {
			dim = i
		}
		if j > dim {
			dim = j
		}
		triples = append(triples, triple{i, j, v})
	}

	content := make([]float64, dim*dim)
	for _, t := range triples {
		content[(t.i-1)*dim+(t.j-1)] = t.v
	}

	out := value.NewMap()
	out.Set("type", value.String("real"))
	out.Set("size", value.Int(dim*dim))
	out.Set("dim", value.Int(dim))
	out.Set("content", value.Array(content))
	return value.MapValue(out), nil
}

// sanitiseNumericArray flattens a block that holds nothing but numbers
// into one bare float array.
func sanitiseNumericArray(dct *value.Map) (value.Value, error) {
	lines, err := contentLines(dct)
	if err != nil {
		return value.Value{}, err
	}
	arr, err := floatArray("numeric array", lines)
	if err != nil {
		return value.Value{}, err
	}
	return value.Array(arr), nil
}
