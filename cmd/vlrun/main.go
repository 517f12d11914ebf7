// Copyright 2024 The VitteLight Authors
// This file is part of VitteLight.

// Command vlrun is the VitteLight host: it loads a bytecode image, runs or
// disassembles it, and offers a small interactive shell for inspecting a
// running context.
//
// Usage:
//
//	vlrun [flags] <image.vlbc>
//
// Flags:
//
//	-disasm        Print a disassembly of the image instead of running it
//	-repl          Drop into an interactive shell after loading the image
//	-steps N       Run at most N instructions (0 means unbounded, the default)
//	-config FILE   Load a TOML host configuration file
//	-version       Print version and exit
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/naoina/toml"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"

	"github.com/vitte-lang/vitte-light/bytecode"
	"github.com/vitte-lang/vitte-light/value"
	"github.com/vitte-lang/vitte-light/vlog"
	"github.com/vitte-lang/vitte-light/vm"
)

const version = "0.1.0"

// hostConfig is the TOML-loadable host configuration: everything about
// vlrun's own behaviour that isn't spec.md core semantics (the stack
// capacity, whether natives are pre-registered, etc).
type hostConfig struct {
	InitialStackCapacity int      `toml:"initial_stack_capacity"`
	Natives              []string `toml:"natives"`
}

func loadHostConfig(path string) (hostConfig, error) {
	var cfg hostConfig
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	var (
		disasm     = flag.Bool("disasm", false, "print a disassembly of the image instead of running it")
		repl       = flag.Bool("repl", false, "drop into an interactive shell after loading the image")
		steps      = flag.Int("steps", 0, "run at most N instructions (0 means unbounded)")
		configPath = flag.String("config", "", "TOML host configuration file")
		ver        = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *ver {
		fmt.Printf("vlrun %s\n", version)
		return
	}
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vlrun [flags] <image.vlbc>")
		os.Exit(1)
	}

	stdout := colorable.NewColorableStdout()
	errColor := color.New(color.FgRed, color.Bold)
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		errColor.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *disasm {
		img, err := bytecode.Load(raw)
		if err != nil {
			errColor.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		printDisassembly(stdout, img)
		return
	}

	cfg := hostConfig{}
	if *configPath != "" {
		cfg, err = loadHostConfig(*configPath)
		if err != nil {
			errColor.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	logger := vlog.New(os.Stderr)
	ctx := vm.New(vm.Config{
		InitialStackCapacity: cfg.InitialStackCapacity,
		LogHook:              logger.Hook(),
		Stdout:               stdout,
	})

	for _, name := range cfg.Natives {
		registerBuiltinNative(ctx, name)
	}

	if err := ctx.LoadImage(raw); err != nil {
		errColor.Fprintf(os.Stderr, "load error: %v\n", err)
		os.Exit(1)
	}

	if *repl {
		runRepl(ctx)
		return
	}

	if err := ctx.Run(*steps); err != nil {
		errColor.Fprintf(os.Stderr, "run error: %v\n", err)
		os.Exit(1)
	}
}

// printDisassembly renders an image's code buffer as a table of
// index/opcode/operand rows, alongside its constant-string pool.
func printDisassembly(w io.Writer, img *bytecode.Image) {
	fmt.Fprintln(w, "constants:")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "string"})
	for i, s := range img.Strings {
		table.Append([]string{fmt.Sprintf("%d", i), s.String()})
	}
	table.Render()

	fmt.Fprintln(w, "\ncode:")
	fmt.Fprint(w, vm.Disassemble(img.Code))
}

// registerBuiltinNative wires a small set of always-available natives a
// host config can opt into by name; "len" and "upper" cover common string
// cases without requiring an embedder to write Go. Unknown names are ignored.
func registerBuiltinNative(ctx *vm.Context, name string) {
	switch name {
	case "len":
		ctx.RegisterNative([]byte("len"), func(args []value.Value) (value.Value, error) {
			if len(args) != 1 || args[0].Tag() != value.String {
				return value.NilValue(), fmt.Errorf("len: expected one string argument")
			}
			return value.IntValue(int64(args[0].AsStr().Len())), nil
		}, nil)
	case "upper":
		ctx.RegisterNative([]byte("upper"), func(args []value.Value) (value.Value, error) {
			if len(args) != 1 || args[0].Tag() != value.String {
				return value.NilValue(), fmt.Errorf("upper: expected one string argument")
			}
			up := strings.ToUpper(args[0].AsStr().String())
			return value.StrValue(value.NewString([]byte(up))), nil
		}, nil)
	}
}

// runRepl drops into an interactive shell for single-stepping a loaded
// context: "step" executes one instruction, "run" runs to completion,
// "dump" prints the live stack and bound globals, "quit" exits.
func runRepl(ctx *vm.Context) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("vlrun interactive shell — type 'help' for commands")
	for {
		input, err := line.Prompt("vl> ")
		if err != nil {
			return
		}
		line.AppendHistory(input)
		cmd := strings.TrimSpace(input)

		switch cmd {
		case "help":
			fmt.Println("commands: step, run, dump, quit")
		case "dump":
			fmt.Println(ctx.DebugDump())
		case "step":
			if ctx.Halted() {
				fmt.Println("halted")
				continue
			}
			if err := ctx.Step(); err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("ip=%d sp=%d\n", ctx.IP(), ctx.SP())
		case "run":
			if err := ctx.Run(0); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		case "quit", "exit":
			return
		default:
			if cmd != "" {
				fmt.Printf("unknown command: %q\n", cmd)
			}
		}
	}
}
