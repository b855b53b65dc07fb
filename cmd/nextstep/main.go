// cmd/nextstep/main.go
//
// Entry point for the nextstep CLI. One invocation resolves one unit of
// work; the outcome taxonomy is carried in the exit code so wrapping
// scripts can branch without parsing output:
//
//	0  NEXT_WRITTEN  a step was selected and the artifacts published
//	3  BLOCKED       active blockers or unmet dependencies
//	4  EMPTY         no pending work in the requested scope
//	1  FATAL         configuration or I/O failure
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mwhitby/nextstep/internal/config"
	"github.com/mwhitby/nextstep/internal/engine"
	"github.com/mwhitby/nextstep/internal/layout"
	"github.com/mwhitby/nextstep/internal/logbook"
	"github.com/mwhitby/nextstep/internal/mcptools"
	"github.com/mwhitby/nextstep/internal/render"
	"github.com/mwhitby/nextstep/internal/repo"
	"github.com/mwhitby/nextstep/internal/stepid"
	"github.com/mwhitby/nextstep/internal/tui"
)

const (
	exitNextWritten = 0
	exitFatal       = 1
	exitBlocked     = 3
	exitEmpty       = 4
)

// version is set by the linker at build time.
var version = "dev"

const usage = `nextstep resolves the next eligible unit of work from a .nextstep tree.

Usage:
  nextstep init                 create the .nextstep layout in the current project
  nextstep next [phase]         resolve the next step, optionally scoped to a phase or TODO id
  nextstep status               show phases, TODOs, pending counts, and blockers
  nextstep complete <step-id>   mark a step done and cascade promotions
  nextstep watch                live status view, refreshed periodically
  nextstep mcp                  serve the engine over MCP on stdio
  nextstep version              print the version

Exit codes for next: 0 step written, 3 blocked, 4 empty, 1 fatal.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return exitFatal
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fatal(fmt.Errorf("get working directory: %w", err))
	}
	l := layout.New(cwd)

	switch args[0] {
	case "init":
		return cmdInit(l)
	case "next":
		return cmdNext(l, args[1:])
	case "status":
		return cmdStatus(l)
	case "complete":
		return cmdComplete(l, args[1:])
	case "watch":
		return cmdWatch(l, args[1:])
	case "mcp":
		return cmdMCP(l)
	case "version", "-version", "--version":
		fmt.Println(version)
		return exitNextWritten
	case "help", "-h", "--help":
		fmt.Print(usage)
		return exitNextWritten
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitFatal
	}
}

func cmdInit(l layout.Layout) int {
	if err := l.Init(); err != nil {
		return fatal(err)
	}
	if err := config.EnsureDefault(l); err != nil {
		return fatal(err)
	}
	fmt.Printf("initialized %s\n", l.Root)
	return exitNextWritten
}

func cmdNext(l layout.Layout, args []string) int {
	fs := flag.NewFlagSet("next", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	var filter *stepid.ID
	if fs.NArg() > 0 {
		id, ok := stepid.Parse(fs.Arg(0))
		if !ok {
			return fatal(fmt.Errorf("invalid phase filter %q", fs.Arg(0)))
		}
		filter = &id
	}

	e, log, code := buildEngine(l)
	if code != exitNextWritten {
		return code
	}
	defer log.Close()

	res, err := e.ResolveNext(filter)
	if err != nil {
		return fatal(err)
	}
	fmt.Print(render.Resolution(res))
	switch res.Outcome {
	case engine.Blocked:
		return exitBlocked
	case engine.Empty:
		return exitEmpty
	default:
		return exitNextWritten
	}
}

func cmdStatus(l layout.Layout) int {
	e, log, code := buildEngine(l)
	if code != exitNextWritten {
		return code
	}
	defer log.Close()

	st, err := e.Status()
	if err != nil {
		return fatal(err)
	}
	fmt.Print(render.Status(st))
	return exitNextWritten
}

func cmdComplete(l layout.Layout, args []string) int {
	if len(args) != 1 {
		return fatal(fmt.Errorf("usage: nextstep complete <step-id>"))
	}
	id, ok := stepid.Parse(args[0])
	if !ok || id.Depth() < 2 {
		return fatal(fmt.Errorf("invalid step id %q", args[0]))
	}

	e, log, code := buildEngine(l)
	if code != exitNextWritten {
		return code
	}
	defer log.Close()

	if err := e.CompleteStep(id); err != nil {
		return fatal(err)
	}
	fmt.Printf("step %s completed\n", id)
	return exitNextWritten
}

func cmdWatch(l layout.Layout, args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interval := fs.Duration("interval", tui.DefaultRefreshInterval, "refresh interval")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}

	e, log, code := buildEngine(l)
	if code != exitNextWritten {
		return code
	}
	defer log.Close()

	if err := tui.Run(e, *interval); err != nil {
		return fatal(err)
	}
	return exitNextWritten
}

func cmdMCP(l layout.Layout) int {
	e, log, code := buildEngine(l)
	if code != exitNextWritten {
		return code
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server := mcptools.NewServer(e, l)
	if err := mcptools.RunStdio(ctx, server); err != nil && ctx.Err() == nil {
		return fatal(err)
	}
	return exitNextWritten
}

// buildEngine loads the configuration and wires an engine over the tree.
// The returned logbook is open and must be closed by the caller.
func buildEngine(l layout.Layout) (*engine.Engine, *logbook.Logbook, int) {
	if !l.Exists() {
		fatal(fmt.Errorf("%s not found, run `nextstep init` first", l.Root))
		return nil, nil, exitFatal
	}
	cfg, err := config.Load(l)
	if err != nil {
		fatal(err)
		return nil, nil, exitFatal
	}
	log, err := logbook.Open(l.LogPath())
	if err != nil {
		// A broken logbook should not stop resolution; run without one.
		fmt.Fprintf(os.Stderr, "warning: logbook unavailable: %v\n", err)
		log = nil
	}
	log.Info("invoked at %s", time.Now().Format(time.RFC3339))
	return engine.New(repo.NewFS(l), cfg, log), log, exitNextWritten
}

func fatal(err error) int {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return exitFatal
}
