// Command topoctl validates, renders and stores topology documents from
// the command line.
//
//	topoctl validate FILE
//	topoctl gen [-o OUT] [-encoding utf-8|cp1251] [-info] FILE
//	topoctl demo [-format json|yaml] [-model ID]
//	topoctl save [-db DB] -name NAME FILE
//	topoctl list [-db DB]
//	topoctl show [-db DB] [-format json|yaml] ID
//
// FILE may be "-" for standard input. Files ending in .yaml or .yml are
// read as YAML.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/satnet-designer/codegen"
	"github.com/signalsfoundry/satnet-designer/core"
	"github.com/signalsfoundry/satnet-designer/internal/config"
	"github.com/signalsfoundry/satnet-designer/internal/logging"
	"github.com/signalsfoundry/satnet-designer/internal/validation"
	"github.com/signalsfoundry/satnet-designer/store"
)

// errInvalid makes run exit with status 1 without printing the error again.
var errInvalid = errors.New("document is invalid")

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type cli struct {
	cfg    config.Config
	log    logging.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cfg, err := config.Load(os.Getenv("SATNET_CONFIG"))
	if err != nil {
		fmt.Fprintf(stderr, "topoctl: %v\n", err)
		return 2
	}
	c := &cli{
		cfg:    cfg,
		log:    logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: stderr}),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	var cmdErr error
	switch args[0] {
	case "validate":
		cmdErr = c.validate(args[1:])
	case "gen":
		cmdErr = c.gen(ctx, args[1:])
	case "demo":
		cmdErr = c.demo(ctx, args[1:])
	case "save":
		cmdErr = c.save(ctx, args[1:])
	case "list":
		cmdErr = c.list(ctx, args[1:])
	case "show":
		cmdErr = c.show(ctx, args[1:])
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "topoctl: unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	switch {
	case cmdErr == nil:
		return 0
	case errors.Is(cmdErr, flag.ErrHelp):
		return 0
	case errors.Is(cmdErr, errInvalid):
		return 1
	default:
		fmt.Fprintf(stderr, "topoctl %s: %v\n", args[0], cmdErr)
		return 1
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: topoctl <command> [flags] [args]

commands:
  validate FILE        check the topology and GPSS settings of a document
  gen FILE             render the GPSS program for a document
  demo                 print a sample constellation document
  save -name NAME FILE store a document in the database
  list                 list stored documents
  show ID              print a stored document`)
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) validate(args []string) error {
	fs := c.flags("validate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one FILE")
	}
	doc, err := c.readDocument(fs.Arg(0))
	if err != nil {
		return err
	}
	de := core.ValidateDocument(doc)
	if de.Valid() {
		fmt.Fprintln(c.stdout, "ok")
		return nil
	}
	printErrors(c.stdout, "topology", de.Topology)
	printErrors(c.stdout, "gpss", de.GPSS)
	return errInvalid
}

func printErrors(w io.Writer, set string, fe validation.FieldErrors) {
	for _, k := range fe.Fields() {
		fmt.Fprintf(w, "%s: %s: %s\n", set, k, fe[k])
	}
}

func (c *cli) gen(ctx context.Context, args []string) error {
	fs := c.flags("gen")
	out := fs.String("o", "", "output file (default stdout)")
	enc := fs.String("encoding", "", "output encoding: utf-8 or cp1251 (default from config for files, utf-8 for stdout)")
	info := fs.Bool("info", c.cfg.Codegen.IncludeGenerationInfo, "include the generation info section")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one FILE")
	}
	doc, err := c.readDocument(fs.Arg(0))
	if err != nil {
		return err
	}
	if fe := core.ValidateTopology(doc.Topology()); fe != nil {
		printErrors(c.stderr, "topology", fe)
		return errInvalid
	}

	res, err := codegen.New(codegen.WithLogger(c.log)).Generate(ctx, doc.Topology(), codegen.Options{IncludeGenerationInfo: *info})
	if err != nil {
		return err
	}

	encoding := *enc
	if encoding == "" {
		encoding = codegen.EncodingUTF8
		if *out != "" {
			encoding = c.cfg.Codegen.Encoding
		}
	}
	data, err := codegen.Encode(res.Code, encoding)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = c.stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	c.log.Info(ctx, "gpss program written",
		logging.String("path", *out),
		logging.String("encoding", encoding),
		logging.Float("gen_time_s", res.GenTime),
	)
	return nil
}

func (c *cli) demo(ctx context.Context, args []string) error {
	fs := c.flags("demo")
	format := fs.String("format", "json", "output format: json or yaml")
	modelID := fs.String("model", "", "model id (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	doc, err := demoDocument(ctx, c.cfg.ModelConfig(*modelID), c.log)
	if err != nil {
		return err
	}
	return writeDocument(c.stdout, doc, *format)
}

func (c *cli) openStore(path string) (*store.Store, error) {
	return store.Open(path, store.WithLogger(c.log))
}

func (c *cli) save(ctx context.Context, args []string) error {
	fs := c.flags("save")
	db := fs.String("db", c.cfg.Store.Path, "SQLite database path")
	name := fs.String("name", "", "record name")
	id := fs.String("id", "", "update this record instead of creating one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one FILE")
	}
	if *name == "" && *id == "" {
		return errors.New("-name is required")
	}
	doc, err := c.readDocument(fs.Arg(0))
	if err != nil {
		return err
	}

	s, err := c.openStore(*db)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var rec store.Record
	if *id != "" {
		var newName *string
		if *name != "" {
			newName = name
		}
		rec, err = s.Update(ctx, *id, doc, newName)
	} else {
		rec, err = s.Create(ctx, *name, doc)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, rec.ID)
	return nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := c.flags("list")
	db := fs.String("db", c.cfg.Store.Path, "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	s, err := c.openStore(*db)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	items, err := s.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMODEL\tNODES\tEDGES\tUPDATED")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			it.ID, it.Name, it.ModelID, it.Nodes, it.Edges, it.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func (c *cli) show(ctx context.Context, args []string) error {
	fs := c.flags("show")
	db := fs.String("db", c.cfg.Store.Path, "SQLite database path")
	format := fs.String("format", "json", "output format: json or yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one ID")
	}
	s, err := c.openStore(*db)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	rec, err := s.Get(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return writeDocument(c.stdout, rec.Document, *format)
}

// readDocument loads a document from path, or from stdin for "-".
func (c *cli) readDocument(path string) (core.Document, error) {
	var r io.Reader
	if path == "-" {
		r = c.stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return core.Document{}, err
		}
		defer f.Close()
		r = f
	}
	if !isYAML(path) {
		return core.ReadDocument(r)
	}
	var doc core.Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return core.Document{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func writeDocument(w io.Writer, doc core.Document, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return core.WriteDocument(w, doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
