// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command hera is the toolchain for the Haverford Educational RISC
// Architecture: an interpreter, debugger, assembler, preprocessor and
// disassembler over HERA source text.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/beevik/term"
	"github.com/spf13/cobra"

	"github.com/herasm/hera/asm"
	"github.com/herasm/hera/data"
	"github.com/herasm/hera/debugger"
	"github.com/herasm/hera/loader"
	"github.com/herasm/hera/op"
	"github.com/herasm/hera/parser"
	"github.com/herasm/hera/vm"
)

const version = "hera 1.0.7 for HERA version 2.4"

const credits = version + "\n\nAn educational toolchain for the Haverford Educational RISC Architecture."

// Exit codes.
const (
	exitOK      = 0
	exitErrors  = 1
	exitUsage   = 2
	exitRuntime = 3
)

var flags struct {
	verbose       bool
	quiet         bool
	noColor       bool
	noDebugOps    bool
	warnOctalOff  bool
	warnReturnOff bool
	bigStack      bool
	throttle      int
	init          string
	credits       bool

	code      bool
	dataOnly  bool
	stdout    bool
	obfuscate bool
}

func main() {
	root := &cobra.Command{
		Use:           "hera [flags] <file>",
		Short:         "An interpreter for the Haverford Educational RISC Architecture",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.credits {
				fmt.Println(credits)
				return nil
			}
			path, err := requirePath(args)
			if err != nil {
				return err
			}
			os.Exit(mainExecute(path))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&flags.verbose, "verbose", false, "set output level to verbose")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "set output level to quiet")
	pf.BoolVar(&flags.noColor, "no-color", false, "do not print colored output")
	pf.BoolVar(&flags.noDebugOps, "no-debug-ops", false, "disallow debugging instructions")
	pf.BoolVar(&flags.warnOctalOff, "warn-octal-off", false, "do not warn about zero-prefixed octal literals")
	pf.BoolVar(&flags.warnReturnOff, "warn-return-off", false, "do not warn about invalid RETURN addresses")
	pf.BoolVar(&flags.bigStack, "big-stack", false, "reserve more space for the stack")
	pf.IntVar(&flags.throttle, "throttle", 0, "exit after this many instructions have been executed")
	pf.StringVar(&flags.init, "init", "", `initialize registers, e.g. "r1=5, r2=7"`)
	root.Flags().BoolVar(&flags.credits, "credits", false, "print the credits for toolchain development")

	debugCmd := &cobra.Command{
		Use:   "debug <file>",
		Short: "Debug a HERA program interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := requirePath(args)
			if err != nil {
				return err
			}
			os.Exit(mainDebug(path))
			return nil
		},
	}

	assembleCmd := &cobra.Command{
		Use:   "assemble <file>",
		Short: "Assemble a HERA program into machine code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := requirePath(args)
			if err != nil {
				return err
			}
			os.Exit(mainAssemble(path))
			return nil
		},
	}
	assembleCmd.Flags().BoolVar(&flags.code, "code", false, "only output the assembled code")
	assembleCmd.Flags().BoolVar(&flags.dataOnly, "data", false, "only output the assembled data")
	assembleCmd.Flags().BoolVar(&flags.stdout, "stdout", false, "print the assembled program to stdout instead of creating files")

	preprocessCmd := &cobra.Command{
		Use:   "preprocess <file>",
		Short: "Print a program with labels, constants and pseudo-ops resolved",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := requirePath(args)
			if err != nil {
				return err
			}
			os.Exit(mainPreprocess(path))
			return nil
		},
	}
	preprocessCmd.Flags().BoolVar(&flags.obfuscate, "obfuscate", false, "rewrite the output as OPCODE words")

	disassembleCmd := &cobra.Command{
		Use:   "disassemble <file>",
		Short: "Reconstruct HERA text from a machine code listing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := requirePath(args)
			if err != nil {
				return err
			}
			os.Exit(mainDisassemble(path))
			return nil
		},
	}

	root.AddCommand(debugCmd, assembleCmd, preprocessCmd, disassembleCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(exitUsage)
	}
}

func requirePath(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("no file path supplied")
	}
	return args[0], nil
}

// newSettings builds the Settings for one invocation from the parsed
// flags.
func newSettings(mode data.Mode, path string) (*data.Settings, error) {
	s := data.NewSettings()
	s.Mode = mode
	s.Path = path
	s.AllowInterrupts = mode == data.ModeAssemble || mode == data.ModePreprocess
	s.NoDebugOps = flags.noDebugOps
	s.WarnOctalOn = !flags.warnOctalOff
	s.WarnReturnOn = !flags.warnReturnOff
	s.Throttle = flags.throttle
	s.Code = flags.code
	s.Data = flags.dataOnly
	s.Stdout = flags.stdout
	s.Obfuscate = flags.obfuscate
	if flags.bigStack {
		s.DataStart = data.BigStackDataStart
	}
	if flags.verbose {
		s.Volume = data.VolumeVerbose
	} else if flags.quiet {
		s.Volume = data.VolumeQuiet
	}
	s.Color = !flags.noColor && term.IsTerminal(int(os.Stderr.Fd()))

	if flags.init != "" {
		init, err := parseInitString(flags.init)
		if err != nil {
			return nil, err
		}
		s.Init = init
	}
	return s, nil
}

// parseInitString parses the --init argument into register
// assignments.
func parseInitString(initstr string) ([]data.RegisterInit, error) {
	initstr = strings.ReplaceAll(initstr, ",", " ")
	var ret []data.RegisterInit
	for _, asgn := range strings.Fields(initstr) {
		lhs, rhs, ok := strings.Cut(asgn, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax for --init argument")
		}
		reg, err := data.RegisterIndex(lhs)
		if err != nil {
			return nil, fmt.Errorf("invalid syntax for --init argument")
		}
		v, err := strconv.ParseInt(rhs, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid syntax for --init argument")
		}
		ret = append(ret, data.RegisterInit{Reg: reg, Value: int(v)})
	}
	return ret, nil
}

func load(mode data.Mode, path string) (*op.Program, *data.Settings, int) {
	settings, err := newSettings(mode, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, exitUsage
	}
	program, msgs := loader.LoadFile(path, settings)
	if settings.Report(msgs) {
		return nil, settings, exitErrors
	}
	return program, settings, exitOK
}

func mainExecute(path string) int {
	program, settings, code := load(data.ModeRun, path)
	if code != exitOK {
		return code
	}

	m := vm.New(settings)

	// An interrupt triggers an orderly halt with diagnostics.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		m.Halted = true
	}()

	op.Run(m, program)

	status := exitOK
	if m.Fault != nil {
		settings.PrintError(m.Fault.Msg, m.Fault.Loc)
		status = exitRuntime
	}
	if m.ErroredInterrupt {
		status = exitRuntime
	}

	if settings.Volume != data.VolumeQuiet {
		dumpState(m, settings)
	}
	return status
}

func mainDebug(path string) int {
	program, settings, code := load(data.ModeDebug, path)
	if code != exitOK {
		return code
	}

	d := debugger.New(program, settings)
	sh := debugger.NewShell(d, settings)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		for range sig {
			sh.Break()
		}
	}()

	sh.Run(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
	return exitOK
}

func mainAssemble(path string) int {
	program, settings, code := load(data.ModeAssemble, path)
	if code != exitOK {
		return code
	}
	if err := asm.WriteListings(program, settings); err != nil {
		settings.PrintError(err.Error(), nil)
		return exitErrors
	}
	return exitOK
}

func mainPreprocess(path string) int {
	program, settings, code := load(data.ModePreprocess, path)
	if code != exitOK {
		return code
	}
	asm.PrintPreprocessed(program, settings)
	return exitOK
}

func mainDisassemble(path string) int {
	settings, err := newSettings(data.ModeDisassemble, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	text, err := parser.ReadFile(path)
	if err != nil {
		settings.PrintError(err.Error(), nil)
		return exitErrors
	}
	asm.Disassemble(text, settings.OutWriter())
	return exitOK
}

// dumpState prints the machine state after execution, to keep the
// program's own output separate on stdout.
func dumpState(m *vm.Machine, settings *data.Settings) {
	w := os.Stderr

	verbose := settings.Volume == data.VolumeVerbose
	last := 15
	if !verbose {
		last = 10
		for last > 0 && m.Reg[last] == 0 {
			last--
		}
	}

	fmt.Fprintln(w, "\nVirtual machine state after execution:")
	for i := 1; i <= last; i++ {
		fmt.Fprintf(w, "    R%-2d = %s\n", i, data.FormatInt(m.Reg[i], data.DefaultSpec))
	}

	if last > 0 {
		fmt.Fprintln(w)
	} else {
		fmt.Fprint(w, "    R1 through R10 are all zero.\n\n")
	}

	on := func(f bool) string {
		if f {
			return "ON"
		}
		return "OFF"
	}
	flagVals := []bool{m.FlagCarryBlock, m.FlagCarry, m.FlagOverflow, m.FlagZero, m.FlagSign}
	allOn, allOff := true, true
	for _, f := range flagVals {
		allOn = allOn && f
		allOff = allOff && !f
	}
	switch {
	case !verbose && allOn:
		fmt.Fprintln(w, "    All flags are ON")
	case !verbose && allOff:
		fmt.Fprintln(w, "    All flags are OFF")
	default:
		fmt.Fprintln(w, "    Carry-block flag is "+on(m.FlagCarryBlock))
		fmt.Fprintln(w, "    Carry flag is "+on(m.FlagCarry))
		fmt.Fprintln(w, "    Overflow flag is "+on(m.FlagOverflow))
		fmt.Fprintln(w, "    Zero flag is "+on(m.FlagZero))
		fmt.Fprintln(w, "    Sign flag is "+on(m.FlagSign))
	}

	if settings.WarningCount > 0 {
		c := settings.WarningCount
		plural := "s"
		if c == 1 {
			plural = ""
		}
		fmt.Fprintf(w, "\n%d warning%s emitted.\n", c, plural)
	}
}
