// Command upf is the CLI tool for upfkit.
// It inspects UPF pseudopotential files, extracts the derived formats
// (projector .dat files, embedded generator inputs), queries v2 files
// with XPath, and maintains a local catalog of pseudopotentials.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/antchfx/xmlquery"

	"github.com/FocuswithJustin/upfkit/core/upf"
	"github.com/FocuswithJustin/upfkit/core/xmlutil"
	"github.com/FocuswithJustin/upfkit/internal/catalog"
	"github.com/FocuswithJustin/upfkit/internal/fileutil"
	"github.com/FocuswithJustin/upfkit/internal/logging"
)

const version = "0.2.0"

// CLI defines the command-line interface for upf.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format (text, json)"`

	Dat     DatCmd     `cmd:"" help:"Render the Wannier90 projector .dat file from a pseudopotential"`
	Input   InputCmd   `cmd:"" help:"Extract the embedded generator input file"`
	Info    InfoCmd    `cmd:"" help:"Print header metadata for a pseudopotential"`
	Query   QueryCmd   `cmd:"" help:"Run an XPath query against a UPF v2 file"`
	Index   IndexGroup `cmd:"" help:"Catalog operations"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// DatCmd renders the projector .dat derived format.
type DatCmd struct {
	Filename string `arg:"" help:"Path to the .upf file" type:"existingfile"`
}

func (c *DatCmd) Run() error {
	doc, err := upf.FromFile(c.Filename)
	if err != nil {
		return err
	}
	dat, err := doc.Dat()
	if err != nil {
		return err
	}
	fmt.Print(dat)
	return nil
}

// InputCmd extracts the embedded generator input.
type InputCmd struct {
	Filename  string `arg:"" help:"Path to the .upf file" type:"existingfile"`
	Normalize bool   `help:"Re-serialize oncvpsp.x inputs through the structured model"`
}

func (c *InputCmd) Run() error {
	doc, err := upf.FromFile(c.Filename)
	if err != nil {
		return err
	}
	if c.Normalize {
		in, err := doc.ONCVInput()
		if err != nil {
			return err
		}
		fmt.Print(in.Text())
		return nil
	}
	text, err := doc.InputText()
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

// InfoCmd prints the header block.
type InfoCmd struct {
	Filename string `arg:"" help:"Path to the .upf file" type:"existingfile"`
	JSON     bool   `help:"Emit JSON instead of plain text"`
}

func (c *InfoCmd) Run() error {
	doc, err := upf.FromFile(c.Filename)
	if err != nil {
		return err
	}
	header, err := doc.Header()
	if err != nil {
		return err
	}

	if c.JSON {
		out := map[string]json.RawMessage{}
		headerJSON, err := header.MarshalJSON()
		if err != nil {
			return err
		}
		out["header"] = headerJSON
		for _, field := range []struct{ key, val string }{
			{"version", doc.Version()},
			{"filename", doc.Filename()},
			{"checksum", doc.Checksum()},
		} {
			b, _ := json.Marshal(field.val)
			out[field.key] = b
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
		return nil
	}

	fmt.Printf("file:     %s\n", doc.Filename())
	fmt.Printf("version:  %s\n", doc.Version())
	fmt.Printf("checksum: %s\n", doc.Checksum())
	for _, key := range header.Keys() {
		v, _ := header.Get(key)
		fmt.Printf("%-16s %s\n", key+":", v.Text())
	}
	return nil
}

// QueryCmd runs an XPath expression against a v2 file.
type QueryCmd struct {
	Filename string `arg:"" help:"Path to the .upf file" type:"existingfile"`
	XPath    string `arg:"" help:"XPath expression (e.g. //PP_HEADER/@element)"`
}

func (c *QueryCmd) Run() error {
	data, err := fileutil.ReadFile(c.Filename)
	if err != nil {
		return err
	}
	doc, err := xmlutil.Parse(data)
	if err != nil {
		return err
	}
	nodes, err := xmlutil.Query(doc, c.XPath)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		switch n.Type {
		case xmlquery.AttributeNode:
			fmt.Println(n.InnerText())
		default:
			fmt.Println(strings.TrimSpace(n.OutputXML(true)))
		}
	}
	return nil
}

// IndexGroup contains catalog operations.
type IndexGroup struct {
	Add  IndexAddCmd  `cmd:"" help:"Parse and index pseudopotential files"`
	List IndexListCmd `cmd:"" help:"List catalogued pseudopotentials"`
}

// IndexAddCmd indexes files into the catalog database.
type IndexAddCmd struct {
	Database  string   `arg:"" help:"Path to the catalog database"`
	Filenames []string `arg:"" help:"Paths to .upf files" type:"existingfile"`
}

func (c *IndexAddCmd) Run() error {
	ctx := context.Background()
	cat, err := catalog.Open(ctx, c.Database)
	if err != nil {
		return err
	}
	defer cat.Close()

	for _, filename := range c.Filenames {
		doc, err := upf.FromFile(filename)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		entry, err := cat.Add(ctx, doc)
		if err != nil {
			return err
		}
		logging.Info("indexed pseudopotential", "path", entry.Path, "element", entry.Element)
		fmt.Printf("indexed %s (%s)\n", entry.Path, entry.Element)
	}
	return nil
}

// IndexListCmd lists catalogued pseudopotentials.
type IndexListCmd struct {
	Database string `arg:"" help:"Path to the catalog database" type:"existingfile"`
	Element  string `help:"Restrict to one element symbol"`
}

func (c *IndexListCmd) Run() error {
	ctx := context.Background()
	cat, err := catalog.OpenReadOnly(c.Database)
	if err != nil {
		return err
	}
	defer cat.Close()

	var entries []catalog.Entry
	if c.Element != "" {
		entries, err = cat.ByElement(ctx, c.Element)
	} else {
		entries, err = cat.List(ctx)
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%-4s z=%-6g mesh=%-6d %-12s v%-8s %s\n",
			e.Element, e.ZValence, e.MeshSize, e.Functional, e.Version, e.Path)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("upf version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("upf"),
		kong.Description("upfkit - UPF pseudopotential tooling"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.Init(CLI.LogLevel, CLI.LogFormat)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
