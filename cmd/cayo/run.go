package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"text/tabwriter"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/cayo/compiler"
	"github.com/chazu/cayo/manifest"
	"github.com/chazu/cayo/pkg/bytecode"
	"github.com/chazu/cayo/store"
)

// Exit codes follow sysexits(3).
const (
	exitOK       = 0
	exitUsage    = 64
	exitCompile  = 65
	exitSoftware = 70
	exitIO       = 74
)

type options struct {
	disassemble bool
	trace       bool
	keepStack   bool
	verbosity   int
	logFile     string
	configDir   string
	demo        bool
	emitDemo    string
	format      string
	storePath   string
	save        string
	load        string
	list        bool
	deleteName  string

	// set records the flags given explicitly on the command line.
	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{set: map[string]bool{}}

	flags := flag.NewFlagSet("cayo", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVar(&opts.disassemble, "d", false, "Disassemble the chunk instead of running it")
	flags.BoolVar(&opts.trace, "trace", false, "Print the stack and each instruction as it executes")
	flags.BoolVar(&opts.keepStack, "keep-stack", false, "Keep residual stack values between interpretations")
	flags.IntVar(&opts.verbosity, "v", 0, "Log verbosity (-4 quiet .. 2 debug)")
	flags.StringVar(&opts.logFile, "log", "", "Write log output to this file instead of stderr")
	flags.StringVar(&opts.configDir, "config", "", "Directory containing cayo.toml (default: search upward from .)")
	flags.BoolVar(&opts.demo, "demo", false, "Use the built-in (1.2 + 3.6) / 5.8 chunk")
	flags.StringVar(&opts.emitDemo, "emit-demo", "", "Write the built-in chunk to this path and exit")
	flags.StringVar(&opts.format, "format", "", "Chunk file format for -emit-demo: binary or cbor")
	flags.StringVar(&opts.storePath, "store", "", "Chunk database path")
	flags.StringVar(&opts.save, "save", "", "Save the chunk to the database under this name instead of running it")
	flags.StringVar(&opts.load, "load", "", "Use the chunk stored under this name")
	flags.BoolVar(&opts.list, "list", false, "List the chunks in the database and exit")
	flags.StringVar(&opts.deleteName, "delete", "", "Delete the chunk stored under this name and exit")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: cayo [options] [path]\n\n")
		fmt.Fprintf(stderr, "Runs a cayo chunk file, or starts a REPL when no chunk is given.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  cayo                          # Start REPL\n")
		fmt.Fprintf(stderr, "  cayo -demo -trace              # Trace the built-in chunk\n")
		fmt.Fprintf(stderr, "  cayo -emit-demo demo.cbor -format cbor\n")
		fmt.Fprintf(stderr, "  cayo -d demo.cbor              # Disassemble a chunk file\n")
		fmt.Fprintf(stderr, "\nChunk database:\n")
		fmt.Fprintf(stderr, "  cayo -store chunks.db -save demo demo.cbor\n")
		fmt.Fprintf(stderr, "  cayo -store chunks.db -load demo\n")
		fmt.Fprintf(stderr, "  cayo -store chunks.db -list\n")
		fmt.Fprintf(stderr, "  cayo -store chunks.db -delete demo\n")
	}

	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	flags.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, flags.Args(), nil
}

// loadConfig reads cayo.toml and applies command-line overrides.
func loadConfig(opts *options) (*manifest.Manifest, error) {
	var (
		m   *manifest.Manifest
		err error
	)
	if opts.configDir != "" {
		m, err = manifest.Load(opts.configDir)
	} else {
		m, err = manifest.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}

	if opts.set["trace"] {
		m.VM.Trace = opts.trace
	}
	if opts.set["keep-stack"] {
		m.VM.KeepStack = opts.keepStack
	}
	if opts.set["v"] {
		m.Log.Verbosity = opts.verbosity
	}
	if opts.set["log"] {
		m.Log.File = opts.logFile
	}
	if opts.set["format"] {
		if _, err := bytecode.ParseFormat(opts.format); err != nil {
			return nil, err
		}
		m.Output.Format = opts.format
	}
	if opts.set["store"] {
		m.Store.Path = opts.storePath
	}
	return m, nil
}

func configureLogging(m *manifest.Manifest) {
	var path *string
	if m.Log.File != "" {
		path = &m.Log.File
	}
	commonlog.Configure(m.Log.Verbosity, path)
}

// cli holds what one invocation works with.
type cli struct {
	opts   *options
	m      *manifest.Manifest
	store  *store.Store
	stdout io.Writer
	stderr io.Writer
	log    commonlog.Logger
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, paths, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if len(paths) > 1 {
		fmt.Fprintln(stderr, "Usage: cayo [options] [path]")
		return exitUsage
	}

	m, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	configureLogging(m)

	c := &cli{
		opts:   opts,
		m:      m,
		stdout: stdout,
		stderr: stderr,
		log:    commonlog.GetLogger("cayo.cli"),
	}

	if opts.emitDemo != "" {
		format := m.OutputFormat()
		if err := bytecode.WriteChunkFile(opts.emitDemo, demoChunk(), format); err != nil {
			return c.fail(exitIO, err)
		}
		c.log.Infof("wrote demo chunk to %s (%s)", opts.emitDemo, format)
		return exitOK
	}

	if opts.save != "" || opts.load != "" || opts.list || opts.deleteName != "" {
		if m.Store.Path == "" {
			fmt.Fprintln(stderr, "Error: -save, -load, -list and -delete need -store or [store] path in cayo.toml")
			return exitUsage
		}
	}
	if m.Store.Path != "" {
		c.store, err = store.Open(m.Store.Path)
		if err != nil {
			return c.fail(exitIO, err)
		}
		defer c.store.Close()
	}

	if opts.list {
		return c.listChunks()
	}
	if opts.deleteName != "" {
		if err := c.store.Delete(opts.deleteName); err != nil {
			return c.fail(exitIO, err)
		}
		c.log.Infof("deleted %s", opts.deleteName)
		return exitOK
	}

	cfg := m.VMConfig()
	cfg.TraceOutput = stdout
	vm := bytecode.NewVM(cfg)
	vm.UseCompiler(compiler.Compile)

	chunk, label, code := c.chunk(paths)
	if code != exitOK {
		return code
	}
	if chunk == nil {
		if opts.disassemble || opts.save != "" {
			fmt.Fprintln(stderr, "Error: -d and -save need a chunk file, -load or -demo")
			return exitUsage
		}
		newREPL(vm, c.store).run(stdin, stdout)
		return exitOK
	}

	switch {
	case opts.save != "":
		if err := c.store.Put(opts.save, chunk); err != nil {
			return c.fail(exitIO, err)
		}
		c.log.Infof("saved %s as %s", label, opts.save)
		return exitOK
	case opts.disassemble:
		if err := bytecode.DisassembleChunk(stdout, chunk, label); err != nil {
			return c.fail(exitIO, err)
		}
		return exitOK
	}

	c.log.Debugf("running %s", label)
	result, err := vm.Interpret(chunk)
	return report(stdout, stderr, result, err)
}

// chunk returns the chunk selected by -demo, -load or a path argument, or
// nil when none was given.
func (c *cli) chunk(paths []string) (*bytecode.Chunk, string, int) {
	switch {
	case c.opts.demo:
		return demoChunk(), "demo", exitOK
	case c.opts.load != "":
		chunk, err := c.store.Get(c.opts.load)
		if err != nil {
			return nil, "", c.fail(exitIO, err)
		}
		return chunk, c.opts.load, exitOK
	case len(paths) == 1:
		chunk, err := bytecode.ReadChunkFile(paths[0])
		if err != nil {
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				return nil, "", c.fail(exitIO, err)
			}
			return nil, "", c.fail(exitCompile, err)
		}
		return chunk, paths[0], exitOK
	}
	return nil, "", exitOK
}

func (c *cli) listChunks() int {
	entries, err := c.store.List()
	if err != nil {
		return c.fail(exitIO, err)
	}
	printEntries(c.stdout, entries)
	return exitOK
}

func printEntries(out io.Writer, entries []store.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "(no chunks)")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tINSTRUCTIONS\tCONSTANTS\tSAVED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", e.Name, e.Instructions, e.Constants, e.Saved.Format(time.RFC3339))
	}
	tw.Flush()
}

func (c *cli) fail(code int, err error) int {
	fmt.Fprintf(c.stderr, "Error: %v\n", err)
	return code
}

// report prints the outcome of one interpretation and maps it to an exit code.
func report(stdout, stderr io.Writer, result bytecode.Value, err error) int {
	switch bytecode.Status(err) {
	case bytecode.ResultCompileError:
		fmt.Fprintf(stderr, "%v\n", err)
		return exitCompile
	case bytecode.ResultRuntimeError:
		fmt.Fprintf(stderr, "%v\n", err)
		return exitSoftware
	}
	fmt.Fprintln(stdout, result)
	return exitOK
}
