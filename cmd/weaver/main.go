package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/toyz/weaver/internal/cli"
	"github.com/toyz/weaver/internal/config"
	"github.com/toyz/weaver/internal/diagnostics"
)

// stringList is a repeatable flag
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("weaver", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var rulesFiles stringList
	fs.Var(&rulesFiles, "rules", "Rules file to load (repeatable)")
	var (
		configFlag  = fs.String("config", "", "Config file (YAML)")
		moduleFlag  = fs.String("module", "", "Module path for ./ type names (defaults to go.mod module)")
		dirFlag     = fs.String("dir", "", "Directory to load packages from")
		testsFlag   = fs.Bool("tests", false, "Include test packages")
		checkFlag   = fs.Bool("check", false, "Only validate the rules files")
		jsonFlag    = fs.Bool("json", false, "Print the plan as JSON")
		verboseFlag = fs.Bool("verbose", false, "Enable verbose output and debug logging")
		quietFlag   = fs.Bool("quiet", false, "Only show errors")
	)

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: weaver [options] -rules <file> <package-patterns...>\n\n")
		fmt.Fprintf(stderr, "Weaver instrumentation planner\n")
		fmt.Fprintf(stderr, "Loads instrumentation rules and reports which advisors and mixins apply to which types.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  weaver -rules weaver.yaml ./...            # Plan for every package\n")
		fmt.Fprintf(stderr, "  weaver -rules http.yaml -check             # Validate rules only\n")
		fmt.Fprintf(stderr, "  weaver -rules http.yaml -json ./internal/... # Machine-readable plan\n")
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		diagnostics.NewWithWriters(diagnostics.ErrorLevel, stdout, stderr, false).Report(err)
		return 1
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	opts := cli.Options{
		RulesFiles: cfg.Rules.Files,
		Patterns:   cfg.Load.Patterns,
		Dir:        cfg.Load.Dir,
		Module:     cfg.Rules.Module,
		Tests:      cfg.Load.Tests,
		Check:      *checkFlag,
		JSON:       *jsonFlag || strings.EqualFold(cfg.Output.Format, "json"),
	}
	if len(rulesFiles) > 0 {
		opts.RulesFiles = rulesFiles
	}
	if fs.NArg() > 0 {
		opts.Patterns = fs.Args()
	}
	if set["module"] {
		opts.Module = *moduleFlag
	}
	if set["dir"] {
		opts.Dir = *dirFlag
	}
	if set["tests"] {
		opts.Tests = *testsFlag
	}

	level := diagnostics.InfoLevel
	logLevel := cfg.Log.Level
	switch {
	case *quietFlag:
		level = diagnostics.ErrorLevel
	case *verboseFlag:
		level = diagnostics.VerboseLevel
		logLevel = "debug"
	}
	if opts.JSON && level > diagnostics.WarnLevel {
		level = diagnostics.WarnLevel
	}

	diag := diagnostics.NewWithWriters(level, stdout, stderr, colorsFor(stdout))
	logger := config.NewLogger(stderr, logLevel, cfg.Log.Format)

	runner := cli.NewRunner(diag, logger)
	if _, err := runner.Run(ctx, opts); err != nil {
		diag.Report(err)
		return 1
	}
	return 0
}

func colorsFor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
