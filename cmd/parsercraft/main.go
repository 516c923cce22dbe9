// The parsercraft command parses a source file against a PEG grammar and
// lowers the result through a named backend, per spec.md §6's external
// interface contract. It is a thin shell around the core packages: all
// parsing and lowering logic lives in peg, packrat, and backend; this file
// only wires flags, files, and exit codes together.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	_ "parsercraft/backend/cbackend"
	_ "parsercraft/backend/llvmir"
	_ "parsercraft/backend/wat"

	"parsercraft/backend"
	"parsercraft/backend/transpile"
	"parsercraft/config"
	"parsercraft/internal/errs"
	"parsercraft/packrat"
	"parsercraft/peg"
	"parsercraft/peg/notation"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("parsercraft", flag.ContinueOnError)
	backendName := fs.String("backend", "transpile", "backend to lower the parsed AST through: "+usageNames())
	configPath := fs.String("config", "", "path to a JSON configuration document (spec.md §6)")
	execute := fs.Bool("execute", false, "interpret the assignment statements instead of lowering them")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <grammar.peg> <source>\n", fs.Name())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) != 2 {
		fs.Usage()
		return 2
	}
	grammarPath, sourcePath := rest[0], rest[1]

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parsercraft: %v\n", err)
		return 2
	}

	ctx := context.Background()
	grammar, err := loadGrammar(ctx, grammarPath, cfg)
	if err != nil {
		return reportCoreError(err)
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parsercraft: reading %s: %v\n", sourcePath, err)
		return 2
	}

	root, err := packrat.Parse(ctx, grammar, string(source))
	if err != nil {
		return reportCoreError(err)
	}

	tp := transpile.New(toTranspileOptions(cfg))

	if *execute {
		bindings, err := tp.Execute(root)
		if err != nil {
			return reportCoreError(err)
		}
		for _, name := range sortedKeys(bindings) {
			fmt.Printf("%s = %d\n", name, bindings[name])
		}
		return 0
	}

	var b backend.Backend = tp
	if *backendName != tp.Name() {
		got, ok := backend.Get(*backendName)
		if !ok {
			fmt.Fprintf(os.Stderr, "parsercraft: unknown backend %q (have: %s)\n", *backendName, usageNames())
			return 2
		}
		b = got
	}

	out, err := b.Translate(root)
	if err != nil {
		return reportCoreError(err)
	}
	fmt.Print(out)
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return &config.Config{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config %s: %w", path, err)
	}
	defer f.Close()
	return config.Load(f)
}

// loadGrammar reads the PEG notation document at path, builds it, and
// applies cfg's start_rule override (spec.md §6) before the grammar is
// handed to the packrat interpreter.
func loadGrammar(ctx context.Context, path string, cfg *config.Config) (*peg.Grammar, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grammar %s: %w", path, err)
	}
	grammar, err := notation.Parse(path, string(text))
	if err != nil {
		return nil, err
	}
	if cfg.StartRule != "" {
		grammar.StartRule = cfg.StartRule
	}
	if err := grammar.Build(ctx); err != nil {
		return nil, err
	}
	return grammar, nil
}

func toTranspileOptions(cfg *config.Config) transpile.Options {
	return transpile.Options{
		KeywordMap:  cfg.KeywordMap,
		FunctionMap: cfg.FunctionMap,
		OperatorMap: cfg.OperatorMap,
	}
}

func usageNames() string {
	names := backend.Names()
	if len(names) == 0 {
		return "(none registered)"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}

// reportCoreError prints err and maps it to spec.md §6's exit code
// contract: 1 for any of the three structured core errors, 2 for
// anything else (a bug in the CLI itself, never the core).
func reportCoreError(err error) int {
	switch err.(type) {
	case *errs.Grammar, *errs.Source, *errs.Backend:
		fmt.Fprintf(os.Stderr, "parsercraft: %v\n", err)
		return 1
	default:
		fmt.Fprintf(os.Stderr, "parsercraft: unexpected error: %v\n", err)
		return 2
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
