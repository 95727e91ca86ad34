package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/funvibe/typeobj/internal/config"
	"github.com/funvibe/typeobj/internal/pipeline"
)

const usage = `Usage:
  %[1]s [options] <type> [type...]   print type descriptors
  %[1]s index [options]              build or refresh the stub index
  %[1]s help                         show this message

A type is a qualified name (app.Box) or a super proxy (super(app.Box, app.Base)).
Runtime classes from the snapshot are preferred over declared names.

Options:
  -config <path>   typeobj.yaml to use (default: searched upward from .)
  -dump            dump descriptors as Go values
  -verbose         log loading and cache activity to stderr
  -debug           re-panic on internal errors
`

// options are the flags shared by every command.
type options struct {
	configPath string
	dump       bool
	verbose    bool
	args       []string
}

func parseOptions(args []string) (*options, error) {
	opts := &options{}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-config", "--config":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires a path", arg)
			}
			i++
			opts.configPath = args[i]
		case "-dump", "--dump":
			opts.dump = true
		case "-verbose", "--verbose", "-v":
			opts.verbose = true
		case "-debug", "--debug":
			// handled in main
		default:
			if strings.HasPrefix(arg, "-") {
				return nil, fmt.Errorf("unknown option %s", arg)
			}
			opts.args = append(opts.args, arg)
		}
	}
	if os.Getenv(config.EnvVerbose) == "1" {
		opts.verbose = true
	}
	return opts, nil
}

func handleHelp() bool {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		return true
	}
	switch os.Args[1] {
	case "help", "-help", "--help", "-h":
		fmt.Printf(usage, os.Args[0])
		return true
	}
	return false
}

func handleIndex() bool {
	if len(os.Args) < 2 || os.Args[1] != "index" {
		return false
	}
	opts, err := parseOptions(os.Args[2:])
	if err != nil {
		fail(err)
	}
	ctx, err := runIndex(opts)
	if err != nil {
		fail(err)
	}
	if len(ctx.Errors) > 0 {
		os.Exit(1)
	}
	return true
}

// runIndex builds or refreshes the stub index and prints its size. The
// index is closed before it returns.
func runIndex(opts *options) (*pipeline.PipelineContext, error) {
	ctx := load(opts)
	defer ctx.Close()
	reportErrors(ctx)
	if ctx.Index == nil {
		return ctx, fmt.Errorf("no stub_index configured")
	}
	n, err := ctx.Index.Len(ctx.Context)
	if err != nil {
		return ctx, err
	}
	fmt.Printf("%s: %d types\n", ctx.Index.Path(), n)
	return ctx, nil
}

// load runs the assembly pipeline for opts.
func load(opts *options) *pipeline.PipelineContext {
	cfgPath := opts.configPath
	if cfgPath == "" {
		found, err := config.FindConfig(".")
		if err != nil {
			fail(err)
		}
		cfgPath = found
	}
	config.IsVerbose = opts.verbose

	return pipeline.Default().Run(pipeline.NewContext(context.Background(), cfgPath))
}

func reportErrors(ctx *pipeline.PipelineContext) {
	for _, err := range ctx.Errors {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}

func main() {
	debugMode := false
	for _, arg := range os.Args[1:] {
		if arg == "-debug" || arg == "--debug" {
			debugMode = true
			break
		}
	}

	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if debugMode || os.Getenv(config.EnvDebug) == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if handleHelp() {
		return
	}
	if handleIndex() {
		return
	}

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fail(err)
	}
	if len(opts.args) == 0 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	ctx := load(opts)
	defer ctx.Close()
	reportErrors(ctx)

	p := newPrinter(os.Stdout, colorEnabled(os.Stdout))
	status := 0
	for _, name := range opts.args {
		key, err := parseKey(ctx.Registry, name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			status = 1
			continue
		}
		obj := ctx.Checker.MakeTypeObject(key)
		if opts.dump {
			p.dump(obj)
		} else {
			p.describe(obj)
		}
	}
	if ctx.Verbose {
		s := ctx.Checker.Stats()
		ctx.Logger.Printf("[typeobj %s] %d builds, %d cache hits, %d uncacheable",
			ctx.Checker.ID()[:8], s.Builds, s.Hits, s.Uncacheable)
	}
	if len(ctx.Errors) > 0 {
		status = 1
	}
	if status != 0 {
		ctx.Close()
		os.Exit(status)
	}
}
