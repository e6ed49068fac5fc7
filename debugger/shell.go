// Copyright 2019 The HERA toolchain authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/beevik/cmd"
	"github.com/beevik/prefixtree/v2"

	"github.com/herasm/hera/asm"
	"github.com/herasm/hera/data"
	"github.com/herasm/hera/lexer"
	"github.com/herasm/hera/loader"
	"github.com/herasm/hera/op"
	"github.com/herasm/hera/parser"
)

var errQuit = errors.New("quit")

// A Selection is the result of looking up a command in the command tree:
// the matched command along with its remaining whitespace-delimited
// arguments.
type Selection struct {
	Command *cmd.Command
	Args    []string
}

var cmds *cmd.Tree

// usage and description per command, for the help command.
type cmdDoc struct {
	usage       string
	description string
}

var cmdDocs = make(map[string]cmdDoc)

// Commands that must be spelled out in full. Everything else may be
// abbreviated with a unique prefix.
var noAbbrev = map[string]bool{
	"asm": true, "dis": true, "doc": true, "ll": true,
	"off": true, "on": true, "restart": true,
}

// Commands that snapshot the debugger before running, so that undo
// can revert them.
var mutates = map[string]bool{
	"assign": true, "break": true, "clear": true, "continue": true,
	"execute": true, "goto": true, "next": true, "off": true,
	"on": true, "restart": true, "step": true,
}

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "hera"})
	add := func(name, brief, usage, description string, handler func(*Shell, Selection) error) {
		root.AddCommand(cmd.CommandDescriptor{
			Name:        name,
			Brief:       brief,
			Usage:       usage,
			Description: description,
			Data:        handler,
		})
		cmdDocs[name] = cmdDoc{usage: usage, description: description}
	}

	add("asm", "Assemble a HERA operation", "asm <op>",
		"Show the binary machine code that the HERA operation assembles to.",
		(*Shell).cmdAsm)
	add("assign", "Assign a value", "assign <x> <y>",
		"Assign the value of y to x. x may be a register, a memory location,\n"+
			"or the program counter. y may additionally be a symbol or an\n"+
			"integer. \"<x> = <y>\" is an alias with the same meaning.\n\n"+
			"Examples:\n"+
			"  Assign to a register:          R1 = 42\n"+
			"  Assign to a memory location:   @(1000) = R4\n"+
			"  Assign a label to a register:  R1 = some_label\n"+
			"  Arithmetic:                    R7 = R5 * 10",
		(*Shell).cmdAssign)
	add("break", "Set or list breakpoints", "break [<loc>]",
		"Set a breakpoint at the given location: a line number, a\n"+
			"\"path:line\" pair, a label, or \".\" for the current instruction.\n"+
			"With no argument, print all current breakpoints.",
		(*Shell).cmdBreak)
	add("clear", "Clear breakpoints", "clear <loc>|*",
		"Clear a breakpoint at the given location. Location formats are the\n"+
			"same as the break command. \"clear *\" clears all breakpoints.",
		(*Shell).cmdClear)
	add("continue", "Run until breakpoint", "continue",
		"Execute the program until a breakpoint is encountered or the\n"+
			"program terminates.",
		(*Shell).cmdContinue)
	add("dis", "Disassemble a word", "dis [<n>...]",
		"Interpret each 16-bit integer as a HERA machine instruction and\n"+
			"disassemble it. With no argument, disassemble the current OPCODE\n"+
			"instruction.",
		(*Shell).cmdDis)
	add("doc", "Show operation docs", "doc [<op>...]",
		"Print the documentation for each named operation, or for the\n"+
			"current operation with no argument. \"doc branch\" explains the\n"+
			"branching instructions.",
		(*Shell).cmdDoc)
	add("execute", "Execute an ad-hoc op", "execute <op>",
		"Execute a HERA operation. The operation may affect registers and\n"+
			"memory, but may not be a branch, a data statement, or a label.",
		(*Shell).cmdExecute)
	add("goto", "Jump without executing", "goto <loc>",
		"Set the program counter to the given location without executing\n"+
			"any intermediate instructions.",
		(*Shell).cmdGoto)
	add("help", "Show help", "help [<cmd>...]",
		"Print a summary of all debugging commands, or detailed help for\n"+
			"each command listed.",
		(*Shell).cmdHelp)
	add("info", "Show machine state", "info [<aspect>...]",
		"Print information about the current state of the program. Valid\n"+
			"aspects are \"registers\", \"flags\", \"stack\", \"symbols\" and\n"+
			"\"memory\", abbreviable with a unique prefix. Defaults to\n"+
			"registers, flags and stack.",
		(*Shell).cmdInfo)
	add("list", "List source context", "list [<n>]",
		"Print the current line of source and the n previous and next\n"+
			"lines. n defaults to 3.",
		(*Shell).cmdList)
	add("ll", "List whole file", "ll",
		"Print every line of the current file's source code.",
		(*Shell).cmdLL)
	add("next", "Step over", "next [<n>]",
		"Execute the current line. A CALL instruction is executed through\n"+
			"its matching RETURN; use step to enter the call instead. With an\n"+
			"argument, execute the next n instructions.",
		(*Shell).cmdNext)
	add("off", "Turn flags off", "off <flag>...",
		"Turn off the named machine flags. Flags may be given in long form\n"+
			"(carry-block, carry, overflow, sign, zero) or short form (cb, c,\n"+
			"v, s, z).",
		(*Shell).cmdOff)
	add("on", "Turn flags on", "on <flag>...",
		"Turn on the named machine flags. Flags may be given in long form\n"+
			"(carry-block, carry, overflow, sign, zero) or short form (cb, c,\n"+
			"v, s, z).",
		(*Shell).cmdOn)
	add("print", "Evaluate and print", "print <expr>[, <expr>]*",
		"Print the values of the supplied expressions. The first argument\n"+
			"may be a format specifier such as \":xds\": d decimal, x hex, o\n"+
			"octal, b binary, c character, s signed, l location.\n\n"+
			"Examples:\n"+
			"  A register:        print R7\n"+
			"  A memory location: print @1000\n"+
			"  A symbol:          print some_label\n"+
			"  Multiple values:   print R1, R2, R3\n"+
			"  Formatted:         print :bl PC_ret\n"+
			"  Arithmetic:        print @(@(FP+1)) * 7",
		(*Shell).cmdPrint)
	add("restart", "Restart the program", "restart",
		"Restart execution of the program from the beginning. All\n"+
			"registers and memory cells are reset.",
		(*Shell).cmdRestart)
	add("step", "Step into a CALL", "step",
		"Step into the execution of a function. Only valid when the\n"+
			"current instruction is CALL.",
		(*Shell).cmdStep)
	add("undo", "Undo the last command", "undo",
		"Undo the last command that changed the state of the debugger.",
		(*Shell).cmdUndo)
	add("quit", "Exit the debugger", "quit",
		"Exit the debugger.",
		(*Shell).cmdQuit)

	root.AddShortcut("a", "assign")
	root.AddShortcut("b", "break")
	root.AddShortcut("c", "continue")
	root.AddShortcut("e", "execute")
	root.AddShortcut("g", "goto")
	root.AddShortcut("h", "help")
	root.AddShortcut("?", "help")
	root.AddShortcut("i", "info")
	root.AddShortcut("l", "list")
	root.AddShortcut("n", "next")
	root.AddShortcut("p", "print")
	root.AddShortcut("q", "quit")
	root.AddShortcut("s", "step")
	root.AddShortcut("u", "undo")

	cmds = root
}

// Aspect and flag-name expansion. Exact short forms are seeded so
// that the traditional abbreviations win over prefix ambiguity.
var (
	infoAspects = prefixtree.New[string]()
	flagNames   = prefixtree.New[string]()
)

func init() {
	for _, aspect := range []string{"registers", "flags", "stack", "symbols", "memory"} {
		infoAspects.Add(aspect, aspect)
	}
	infoAspects.Add("s", "stack")

	for short, long := range map[string]string{
		"cb": "carry-block", "c": "carry", "v": "overflow", "s": "sign", "z": "zero",
	} {
		flagNames.Add(short, long)
		flagNames.Add(long, long)
	}
}

// A Shell is the interactive command-line interface to the debugger.
type Shell struct {
	debugger *Debugger
	settings *data.Settings

	input       *bufio.Scanner
	out         io.Writer
	interactive bool
	lastLine    string
	argstr      string
	interrupted atomic.Bool
}

// Debug starts an interactive debugging session over standard input.
func Debug(program *op.Program, settings *data.Settings) {
	sh := NewShell(New(program, settings), settings)
	sh.Run(os.Stdin, settings.OutWriter(), true)
}

// NewShell wraps a debugger in a command shell.
func NewShell(d *Debugger, settings *data.Settings) *Shell {
	return &Shell{debugger: d, settings: settings}
}

// Break interrupts a running continue or next command, returning
// control to the prompt. Safe to call from a signal handler.
func (s *Shell) Break() {
	s.interrupted.Store(true)
}

// Run reads commands from r and writes responses to w until quit or
// end of input.
func (s *Shell) Run(r io.Reader, w io.Writer, interactive bool) {
	s.input = bufio.NewScanner(r)
	s.out = w
	s.interactive = interactive

	if s.debugger.Empty() {
		s.println("Cannot debug an empty program.")
		return
	}

	if interactive {
		s.println("HERA debugger. Type \"help\" for a list of commands.")
		s.println()
	}
	s.printCurrentOp()

	for {
		s.prompt()
		if !s.input.Scan() {
			s.println()
			return
		}
		line := strings.TrimSpace(s.input.Text())
		if line == "" {
			line = s.lastLine
			if line == "" {
				continue
			}
		}
		s.lastLine = line
		s.interrupted.Store(false)

		if err := s.handleLine(line); err != nil {
			return
		}
	}
}

func (s *Shell) handleLine(line string) error {
	word := line
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		word = line[:i]
		s.argstr = strings.TrimSpace(line[i+1:])
	} else {
		s.argstr = ""
	}

	matched, args, err := cmds.LookupCommand(line)
	c := Selection{Command: matched, Args: args}
	switch {
	case err == cmd.ErrNotFound, err == cmd.ErrAmbiguous:
		if strings.Contains(line, "=") {
			s.debugger.Save("assign")
			parts := strings.SplitN(line, "=", 2)
			s.assign(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
			return nil
		}
		s.printf("%s is not a recognized command.\n", word)
		return nil
	case err != nil:
		s.printf("Error: %v.\n", err)
		return nil
	}
	if c.Command == nil {
		return nil
	}

	name := c.Command.Name
	if noAbbrev[name] && word != name {
		s.printf("%s is not a recognized command.\n", word)
		return nil
	}
	if mutates[name] {
		s.debugger.Save(name)
	}

	handler := c.Command.Data.(func(*Shell, Selection) error)
	if err := handler(s, c); err != nil {
		if err == errQuit {
			return err
		}
		s.printf("Error: %v.\n", err)
	}
	return nil
}

func (s *Shell) prompt() {
	if s.interactive {
		fmt.Fprint(s.out, ">>> ")
	}
}

func (s *Shell) print(args ...any)                 { fmt.Fprint(s.out, args...) }
func (s *Shell) println(args ...any)               { fmt.Fprintln(s.out, args...) }
func (s *Shell) printf(format string, args ...any) { fmt.Fprintf(s.out, format, args...) }

func (s *Shell) cmdAsm(c Selection) error {
	if strings.TrimSpace(s.argstr) == "" {
		s.println("asm takes one argument.")
		return nil
	}

	// Decide whether the snippet is all code, all data, or a mix.
	ops, _ := parser.Parse(s.argstr, lexer.PathString, s.settings)
	anyCode, anyData := false, false
	for _, o := range ops {
		if d := o.Desc(); d != nil && d.Class == op.Data {
			anyData = true
		} else {
			anyCode = true
		}
	}

	asmSettings := *s.settings
	asmSettings.Mode = data.ModeAssemble
	asmSettings.AllowInterrupts = true
	asmSettings.Stdout = true
	asmSettings.Code = anyCode && !anyData
	asmSettings.Data = anyData && !anyCode
	asmSettings.Output = s.out

	program, msgs := loader.LoadProgram(s.argstr, &asmSettings)
	if s.settings.Report(msgs) {
		return nil
	}
	return asm.WriteListings(program, &asmSettings)
}

func (s *Shell) cmdAssign(c Selection) error {
	if len(c.Args) != 2 {
		s.println("assign takes two arguments.")
		return nil
	}
	s.assign(c.Args[0], c.Args[1])
	return nil
}

func (s *Shell) assign(lhs, rhs string) {
	ltree, err := parseMini(lhs)
	if err == nil {
		var rtree *seqNode
		rtree, err = parseMini(rhs)
		if err == nil {
			s.assignTrees(ltree, rtree)
			return
		}
	}
	s.printf("Parse error: %v.\n", err)
}

func (s *Shell) assignTrees(ltree, rtree *seqNode) {
	if len(ltree.seq) > 1 {
		s.println("Parse error: cannot assign to sequence.")
		return
	}
	if len(rtree.seq) > 1 {
		s.println("Parse error: cannot assign sequence value.")
		return
	}

	m := s.debugger.VM
	value, err := s.debugger.evaluateNode(rtree.seq[0])
	if err != nil {
		s.printf("Eval error: %v.\n", err)
		return
	}
	switch lhs := ltree.seq[0].(type) {
	case *regNode:
		m.StoreRegister(lhs.idx, uint16(value))
	case *memNode:
		addr, err := s.debugger.evaluateNode(lhs.addr)
		if err != nil {
			s.printf("Eval error: %v.\n", err)
			return
		}
		m.StoreMem(addr, uint16(value))
	case *symNode:
		if strings.ToLower(lhs.name) == "pc" {
			m.PC = value
		} else {
			s.println("Eval error: cannot assign to symbol.")
		}
	default:
		s.println("Eval error: cannot assign to arithmetic expression.")
	}
}

func (s *Shell) cmdBreak(c Selection) error {
	if len(c.Args) > 1 {
		s.println("break takes zero or one arguments.")
		return nil
	}

	if len(c.Args) == 0 {
		if len(s.debugger.Breakpoints) == 0 {
			s.println("No breakpoints set.")
			return nil
		}
		for _, brk := range s.debugger.Breakpoints {
			s.println(brk)
		}
		return nil
	}

	b, err := s.debugger.LocationToInstructionNumber(c.Args[0])
	if err != nil {
		s.printf("Error: %v.\n", err)
		return nil
	}
	s.debugger.SetBreakpoint(b)
	loc := s.debugger.Op(b).Loc
	s.printf("Breakpoint set in file %s, line %d.\n", loc.Path, loc.Line)
	return nil
}

func (s *Shell) cmdClear(c Selection) error {
	if len(c.Args) == 0 {
		s.println("clear takes one or more arguments.")
		return nil
	}

	for _, arg := range c.Args {
		if arg == "*" {
			s.debugger.Breakpoints = make(map[int]string)
			s.println("Cleared all breakpoints.")
			return nil
		}
	}
	for _, arg := range c.Args {
		b, err := s.debugger.LocationToInstructionNumber(arg)
		if err != nil {
			s.printf("Error: %v.\n", err)
			continue
		}
		if _, ok := s.debugger.Breakpoints[b]; ok {
			loc := s.debugger.Op(b).Loc
			delete(s.debugger.Breakpoints, b)
			s.printf("Cleared breakpoint in file %s, line %d.\n", loc.Path, loc.Line)
		} else {
			s.println("No breakpoint at that location.")
		}
	}
	return nil
}

func (s *Shell) cmdContinue(c Selection) error {
	if len(c.Args) != 0 {
		s.println("continue takes no arguments.")
		return nil
	}

	s.debugger.Next(true)
	for !s.debugger.Finished() && !s.debugger.AtBreakpoint() && !s.interrupted.Load() {
		s.debugger.Next(true)
	}
	s.printCurrentOp()
	return nil
}

func (s *Shell) cmdDis(c Selection) error {
	if len(c.Args) > 0 {
		for _, a := range c.Args {
			v, err := strconv.ParseInt(a, 0, 32)
			if err != nil || v < 0 || v >= 1<<16 {
				s.printf("Could not parse argument `%s` to dis.\n", a)
				return nil
			}
			o, err := op.Disassemble(uint16(v))
			if err != nil {
				s.printf("Error: %v.\n", err)
				continue
			}
			s.println(o)
		}
		return nil
	}

	if !s.debugger.Finished() && s.debugger.Op().Name == "OPCODE" {
		o, err := op.Disassemble(uint16(s.debugger.Op().Arg(0)))
		if err != nil {
			s.printf("Error: %v.\n", err)
			return nil
		}
		s.println(o)
	} else {
		s.println("Current operation is not an OPCODE.")
	}
	return nil
}

func (s *Shell) cmdDoc(c Selection) error {
	args := c.Args
	if len(args) == 0 {
		if s.debugger.Finished() {
			s.println("Program has finished executing.")
			return nil
		}
		args = []string{s.debugger.Op().Name}
	}

	for _, arg := range args {
		if strings.EqualFold(arg, "branch") {
			s.println(docBranch)
			continue
		}
		d := op.Lookup(arg)
		if d == nil {
			d = op.Lookup(strings.ToUpper(arg))
		}
		if d == nil {
			s.printf("%s is not a HERA operation.\n", arg)
			continue
		}
		if d.Doc == "" {
			s.printf("%s has no documentation.\n", d.Name)
			continue
		}
		s.println(d.Doc)
	}
	return nil
}

func (s *Shell) cmdExecute(c Selection) error {
	if strings.TrimSpace(s.argstr) == "" {
		s.println("execute takes one argument.")
		return nil
	}

	ops, _ := parser.Parse(s.argstr, lexer.PathString, s.settings)
	for _, o := range ops {
		d := o.Desc()
		switch {
		case d != nil && d.IsBranch():
			s.println("execute cannot take branching operations.")
			return nil
		case d != nil && d.Class == op.Data:
			s.println("execute cannot take data statements.")
			return nil
		case o.Name == "LABEL":
			s.println("execute cannot take labels.")
			return nil
		}
	}

	program, msgs := loader.LoadProgram(s.argstr, s.settings)
	if s.settings.Report(msgs) {
		return nil
	}

	m := s.debugger.VM
	opc := m.PC
	for _, o := range program.Code {
		op.Execute(m, o)
	}
	m.PC = opc
	return nil
}

func (s *Shell) cmdGoto(c Selection) error {
	if len(c.Args) != 1 {
		s.println("goto takes one argument.")
		return nil
	}
	pc, err := s.debugger.LocationToInstructionNumber(c.Args[0])
	if err != nil {
		s.printf("Error: %v.\n", err)
		return nil
	}
	s.debugger.VM.PC = pc
	s.printCurrentOp()
	return nil
}

func (s *Shell) cmdHelp(c Selection) error {
	if len(c.Args) == 0 {
		s.println(helpText)
		return nil
	}
	for i, arg := range c.Args {
		selCmd, _, err := cmds.LookupCommand(arg)
		if err != nil || selCmd == nil {
			s.printf("%s is not a recognized command.\n", arg)
		} else {
			doc := cmdDocs[selCmd.Name]
			s.println(doc.usage)
			s.println(indentLines(doc.description, "  "))
		}
		if i != len(c.Args)-1 {
			s.println()
		}
	}
	return nil
}

func (s *Shell) cmdInfo(c Selection) error {
	aspects := []string{"registers", "flags", "stack"}
	if len(c.Args) > 0 {
		aspects = aspects[:0]
		for _, arg := range c.Args {
			full, err := infoAspects.FindValue(strings.ToLower(arg))
			if err != nil {
				s.printf("Error: unrecognized argument `%s`.\n", arg)
				return nil
			}
			aspects = append(aspects, full)
		}
	}

	for i, aspect := range aspects {
		switch aspect {
		case "registers":
			s.infoRegisters()
		case "flags":
			s.infoFlags()
		case "stack":
			s.infoStack()
		case "symbols":
			s.infoSymbols()
		case "memory":
			s.infoMemory()
		}
		if i != len(aspects)-1 {
			s.println()
		}
	}
	return nil
}

func (s *Shell) cmdList(c Selection) error {
	if len(c.Args) > 1 {
		s.println("list takes zero or one arguments.")
		return nil
	}
	context := 3
	if len(c.Args) == 1 {
		v, err := strconv.ParseInt(c.Args[0], 0, 32)
		if err != nil {
			s.println("Could not parse argument to list.")
			return nil
		}
		context = int(v)
	}

	if s.debugger.Finished() {
		s.println("Program has finished executing.")
		return nil
	}
	s.printRangeOfOps(s.debugger.Op().Loc, context)
	return nil
}

func (s *Shell) cmdLL(c Selection) error {
	if len(c.Args) != 0 {
		s.println("ll takes no arguments.")
		return nil
	}
	if s.debugger.Finished() {
		s.println("Program has finished executing.")
		return nil
	}
	s.printRangeOfOps(s.debugger.Op().Loc, -1)
	return nil
}

func (s *Shell) cmdNext(c Selection) error {
	if len(c.Args) > 1 {
		s.println("next takes zero or one arguments.")
		return nil
	}

	if !s.debugger.Finished() {
		n := 1
		if len(c.Args) == 1 {
			v, err := strconv.Atoi(c.Args[0])
			if err != nil {
				s.println("Could not parse argument to next.")
				return nil
			}
			n = v
		}
		for i := 0; i < n && !s.debugger.Finished() && !s.interrupted.Load(); i++ {
			s.debugger.Next(false)
		}
	}
	s.printCurrentOp()
	return nil
}

func (s *Shell) cmdOn(c Selection) error  { return s.toggleFlags(c.Args, true) }
func (s *Shell) cmdOff(c Selection) error { return s.toggleFlags(c.Args, false) }

func (s *Shell) toggleFlags(args []string, value bool) error {
	if len(args) == 0 {
		if value {
			s.println("on takes one or more arguments.")
		} else {
			s.println("off takes one or more arguments.")
		}
		return nil
	}

	flags := make([]string, 0, len(args))
	for _, arg := range args {
		long, err := flagNames.FindValue(strings.ToLower(arg))
		if err != nil {
			s.printf("Unrecognized flag: `%s`.\n", arg)
			return nil
		}
		flags = append(flags, long)
	}
	m := s.debugger.VM
	for _, flag := range flags {
		switch flag {
		case "sign":
			m.FlagSign = value
		case "zero":
			m.FlagZero = value
		case "overflow":
			m.FlagOverflow = value
		case "carry":
			m.FlagCarry = value
		case "carry-block":
			m.FlagCarryBlock = value
		}
	}
	return nil
}

func (s *Shell) cmdPrint(c Selection) error {
	if strings.TrimSpace(s.argstr) == "" {
		s.println("print takes one or more arguments.")
		return nil
	}

	tree, err := parseMini(s.argstr)
	if err != nil {
		s.printf("Parse error: %v.\n", err)
		return nil
	}

	spec := tree.format
	for _, ch := range spec {
		if !strings.ContainsRune("dxobcsl", ch) {
			s.printf("Unknown format specifier `%c`.\n", ch)
			return nil
		}
	}
	// An explicit c or s forces output even for values that are not
	// characters or signed integers.
	spec = strings.ReplaceAll(spec, "c", "C")
	spec = strings.ReplaceAll(spec, "s", "S")

	if len(tree.seq) > 1 {
		for _, arg := range tree.seq {
			if err := s.printOneExpr(arg, spec, true); err != nil {
				s.printf("Eval error: %v.\n", err)
				return nil
			}
		}
		return nil
	}
	if err := s.printOneExpr(tree.seq[0], spec, false); err != nil {
		s.printf("Eval error: %v.\n", err)
	}
	return nil
}

// printOneExpr prints one expression, choosing a default format
// suited to the expression's type.
func (s *Shell) printOneExpr(tree node, spec string, withLHS bool) error {
	switch tree := tree.(type) {
	case *regNode:
		// R13 conventionally holds a return address, so the location
		// format is informative.
		if tree.idx == 13 && spec == "" {
			spec = augmentSpec(spec, "l")
		}
	case *symNode:
		if strings.ToLower(tree.name) == "pc" {
			spec = augmentSpec(spec, "l")
		} else if sym, ok := s.debugger.Program.Symbols[tree.name]; ok && sym.Kind == data.SymLabel {
			spec = augmentSpec(spec, "l")
		}
	case *intNode:
		if spec == "" {
			spec = "d"
		}
	}

	value, err := s.debugger.evaluateNode(tree)
	if err != nil {
		return err
	}
	if withLHS {
		s.printf("%s = %s\n", tree, s.formatInt(value, spec))
	} else {
		s.println(s.formatInt(value, spec))
	}
	return nil
}

func (s *Shell) cmdRestart(c Selection) error {
	if len(c.Args) != 0 {
		s.println("restart takes no arguments.")
		return nil
	}
	s.debugger.Reset()
	s.printCurrentOp()
	return nil
}

func (s *Shell) cmdStep(c Selection) error {
	if len(c.Args) > 0 {
		s.println("step takes no arguments.")
		return nil
	}
	if s.debugger.Finished() || s.debugger.Op().Name != "CALL" {
		s.println("step is only valid when the current instruction is CALL.")
		return nil
	}
	s.debugger.Next(true)
	s.printCurrentOp()
	return nil
}

func (s *Shell) cmdUndo(c Selection) error {
	if len(c.Args) > 0 {
		s.println("undo takes no arguments.")
		return nil
	}
	command, ok := s.debugger.Undo()
	if !ok {
		s.println("Nothing to undo.")
		return nil
	}
	s.printf("Undid %s.\n", command)
	return nil
}

func (s *Shell) cmdQuit(c Selection) error {
	return errQuit
}

func (s *Shell) infoRegisters() {
	nonzero := 0
	for i := 1; i < 16; i++ {
		if r := s.debugger.VM.Reg[i]; r != 0 {
			nonzero++
			end := ", "
			if i == 15 && nonzero == 15 {
				end = ""
			}
			s.printf("R%d = %d%s", i, r, end)
		}
	}
	switch {
	case nonzero == 0:
		s.println("All registers set to zero.")
	case nonzero != 15:
		s.println("all other registers set to zero.")
	default:
		s.println()
	}
}

func (s *Shell) infoFlags() {
	m := s.debugger.VM
	var flags []string
	if m.FlagCarryBlock {
		flags = append(flags, "carry-block flag is on")
	}
	if m.FlagCarry {
		flags = append(flags, "carry flag is on")
	}
	if m.FlagOverflow {
		flags = append(flags, "overflow flag is on")
	}
	if m.FlagZero {
		flags = append(flags, "zero flag is on")
	}
	if m.FlagSign {
		flags = append(flags, "sign flag is on")
	}

	switch len(flags) {
	case 5:
		s.println("All flags are on.")
	case 0:
		s.println("All flags are off.")
	default:
		text := strings.Join(flags, ", ")
		s.println(strings.ToUpper(text[:1]) + text[1:] + ", all other flags are off.")
	}
}

func (s *Shell) infoStack() {
	returns := s.debugger.VM.ExpectedReturns
	if len(returns) == 0 {
		s.println("The call stack is empty.")
		return
	}
	s.println("Call stack (last call at bottom)")
	for _, pair := range returns {
		floc := s.debugger.InstructionNumberToLocation(pair.CallAddress, false)
		rloc := s.debugger.InstructionNumberToLocation(pair.ReturnAddress-1, false)
		if fname, ok := s.debugger.FindLabel(pair.CallAddress); ok {
			s.printf("  %s (%s, called from %s)\n", fname, floc, rloc)
		} else {
			s.printf("  %s (called from %s)\n", floc, rloc)
		}
	}
}

// infoMemory lists the nonzero memory cells, which in practice means
// the data segment and whatever the program has stored.
func (s *Shell) infoMemory() {
	const limit = 64
	count := 0
	for addr, v := range s.debugger.VM.Mem {
		if v == 0 {
			continue
		}
		if count == limit {
			s.println("...")
			break
		}
		s.printf("@0x%04x = %s\n", addr, data.FormatInt(v, "dsc"))
		count++
	}
	if count == 0 {
		s.println("All memory cells are zero.")
	}
}

func (s *Shell) infoSymbols() {
	var constants, labels, dlabels []string
	for name, sym := range s.debugger.Program.Symbols {
		switch sym.Kind {
		case data.SymLabel:
			where := s.debugger.Program.LabelLocs[name]
			if where == "" {
				where = s.debugger.InstructionNumberToLocation(sym.Value, false)
			}
			labels = append(labels, fmt.Sprintf("%s (%s)", name, where))
		case data.SymDataLabel:
			dlabels = append(dlabels, fmt.Sprintf("%s (0x%x)", name, sym.Value))
		default:
			constants = append(constants, fmt.Sprintf("%s (%d)", name, sym.Value))
		}
	}
	if len(constants) > 0 {
		s.println("Constants: " + strings.Join(constants, ", "))
	}
	if len(labels) > 0 {
		s.println("Labels: " + strings.Join(labels, ", "))
	}
	if len(dlabels) > 0 {
		s.println("Data labels: " + strings.Join(dlabels, ", "))
	}
}

// printCurrentOp shows the next operation to be executed, with one
// line of context either side.
func (s *Shell) printCurrentOp() {
	if s.debugger.Finished() {
		s.println("Program has finished executing.")
		return
	}
	s.printRangeOfOps(s.debugger.Op().Loc, 1)
}

// printRangeOfOps prints the source line at loc with context lines on
// either side; a negative context prints the whole file.
func (s *Shell) printRangeOfOps(loc *data.Location, context int) {
	if loc == nil {
		return
	}
	lineno := loc.Line - 1
	lines := loc.FileLines
	width := len(strconv.Itoa(len(lines)))

	lo, hi := 0, len(lines)
	if context >= 0 {
		lo = max(lineno-context, 0)
		hi = min(lineno+context+1, len(lines))
	}

	s.printf("[%s]\n\n", loc.Path)
	for i := lo; i < hi; i++ {
		prefix := "    "
		if i == lineno {
			prefix = "->  "
		}
		line := strings.TrimRight(lines[i], " \t\r")
		if line != "" {
			s.printf("%s%*d  %s\n", prefix, width, i+1, line)
		} else {
			s.printf("%s%*d\n", prefix, width, i+1)
		}
	}
}

// formatInt renders a value per the format spec, resolving the 'l'
// location format against the program's code stream.
func (s *Shell) formatInt(v int, spec string) string {
	if spec == "" {
		spec = defaultSpec
	}

	withLoc := strings.Contains(spec, "l")
	spec = strings.ReplaceAll(spec, "l", "")
	formatted := data.FormatInt(uint16(v), spec)
	if withLoc {
		if label := s.debugger.InstructionNumberToLocation(v, false); label != "" {
			return formatted + " [" + label + "]"
		}
	}
	return formatted
}

const defaultSpec = "dsc"

// augmentSpec appends a format character unless already present.
func augmentSpec(spec, f string) string {
	if spec == "" {
		return augmentSpec(defaultSpec, f)
	}
	if strings.Contains(spec, f) {
		return spec
	}
	return spec + f
}

func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

const docBranch = `
  HERA supports two kinds of branching instructions: register
  branching and relative branching.

  Register branching
    Register branching instructions take a label argument and jump to
    the label if the instruction's condition is met. They may also
    take a register argument, in which case they jump to the n'th
    instruction where n is the contents of the register. In most
    cases you want a label.

  Relative branching
    Every register branching instruction has a relative counterpart
    whose name ends in an extra 'R'. Relative branches take an
    integer argument and jump that many instructions forward or
    backward. They may also take a label, behaving like their
    register counterparts.

  In most cases, HERA programmers should use register branching
  instructions with labels.`

const helpText = `Available commands:
    asm <op>        Show the binary machine code that the HERA
                    operation assembles to.

    assign <x> <y>  Assign the value of y to x.

    break <loc>     Set a breakpoint at the given location. When no
                    arguments are given, all current breakpoints are
                    printed.

    clear <loc>     Clear a breakpoint at the given location.

    continue        Execute the program until a breakpoint is
                    encountered or the program terminates.

    dis <n>         Disassemble the 16-bit integer into a HERA
                    operation.

    doc <op>        Print documentation for an operation.

    execute <op>    Execute a HERA operation.

    goto <loc>      Jump to the given location.

    help            Print this help message.

    info            Print information about the current state of the
                    program.

    list <n>        Print the current line of source code and the n
                    previous and next lines. n defaults to 3.

    ll              Print the entire program.

    next            Execute the current line.

    off <flag>      Turn the given machine flag off.

    on <flag>       Turn the given machine flag on.

    print <x>       Print the value of x.

    restart         Restart the execution of the program from the
                    beginning.

    step            Step into the execution of a function.

    undo            Undo the last operation.

    quit            Exit the debugger.

    <x> = <y>       Alias for "assign <x> <y>".

Command names can generally be abbreviated with a unique prefix,
e.g. "n" for "next".`
