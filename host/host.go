// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host provides an interactive shell around the a15 machine:
// a built-in assembler, an object loader, a disassembler, and a CPU
// that can run and single-step assembled programs.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/cmd"
	"github.com/orens/asm15"
	"github.com/orens/asm15/asm"
	"github.com/orens/asm15/disasm"
)

var errQuit = errors.New("exiting program")

// A Host wraps an a15 machine with an interactive command processor.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	mem         *asm15.Memory
	cpu         *asm15.CPU
	lastCmd     *cmd.Selection
	settings    *settings
	lastResult  *asm.Result
}

// New creates a new a15 host environment.
func New() *Host {
	h := &Host{
		mem:      asm15.NewMemory(),
		settings: newSettings(),
	}
	h.cpu = asm15.NewCPU(h.mem)
	return h
}

// RunCommands accepts host commands from a reader and writes results to
// a writer. If interactive, a prompt is displayed while the host waits
// for the next command.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive
	h.cpu.SetIO(os.Stdin, h.output)

	if interactive {
		h.println("a15 machine host. Type 'help' for a list of commands.")
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}
		if err := h.processCommand(line); err != nil {
			break
		}
	}
	h.flush()
}

func (h *Host) processCommand(line string) error {
	var c cmd.Selection
	if line != "" {
		var err error
		c, err = cmds.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			h.println("Command not found.")
			return nil
		case err == cmd.ErrAmbiguous:
			h.println("Command is ambiguous.")
			return nil
		case err != nil:
			h.printf("ERROR: %v.\n", err)
			return nil
		}
	} else if h.lastCmd != nil {
		c = *h.lastCmd
	}

	if c.Command == nil {
		return nil
	}
	if c.Command.Data == nil && c.Command.Subtree != nil {
		h.displayCommands(c.Command.Subtree, nil)
		return nil
	}

	h.lastCmd = &c

	handler := c.Command.Data.(func(*Host, cmd.Selection) error)
	return handler(h, c)
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
	}
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	switch {
	case len(c.Args) == 0:
		h.displayCommands(cmds, nil)
	default:
		s, err := cmds.Lookup(strings.Join(c.Args, " "))
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		switch {
		case s.Command.Subtree != nil:
			h.displayCommands(s.Command.Subtree, s.Command)
		default:
			if s.Command.Usage != "" {
				h.printf("Usage: %s\n\n", s.Command.Usage)
			}
			switch {
			case s.Command.Description != "":
				h.printf("Description:\n   %s\n\n", s.Command.Description)
			case s.Command.Brief != "":
				h.printf("Description:\n   %s.\n\n", s.Command.Brief)
			}
			if len(s.Command.Shortcuts) > 0 {
				h.printf("Shortcuts: %s\n\n", strings.Join(s.Command.Shortcuts, ", "))
			}
		}
	}
	return nil
}

func (h *Host) cmdAssemble(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c.Command)
		return nil
	}

	name := strings.TrimSuffix(c.Args[0], asm.SourceSuffix)

	var opts asm.Option
	if h.settings.Verbose {
		opts |= asm.Verbose
	}

	rep := &asm.ConsoleReporter{W: h.output}
	res, err := asm.AssembleFile(name, rep, h.output, opts)
	if err != nil {
		h.printf("Failed to assemble '%s%s'.\n", name, asm.SourceSuffix)
		return nil
	}
	h.lastResult = res

	h.printf("Assembled '%s%s' to '%s%s'.\n",
		name, asm.SourceSuffix, name, asm.ObjectSuffix)
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c.Command)
		return nil
	}

	filename := c.Args[0]
	if !strings.HasSuffix(filename, asm.ObjectSuffix) {
		filename += asm.ObjectSuffix
	}

	file, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filename, err)
		return nil
	}
	defer file.Close()

	origin, words, err := asm.ReadObj(file)
	if err != nil {
		h.printf("Failed to load '%s': %v\n", filename, err)
		return nil
	}

	h.mem.Clear()
	h.mem.LoadImage(origin, words)
	h.cpu.Reset()
	h.cpu.PC = origin

	h.printf("Loaded %d words from '%s' at address %d.\n",
		len(words), filename, origin)
	return nil
}

func (h *Host) cmdRun(c cmd.Selection) error {
	err := h.cpu.Run(int64(h.settings.MaxRunSteps))
	switch {
	case err == asm15.ErrStepLimit:
		h.printf("Stopped after %d instructions.\n", h.settings.MaxRunSteps)
	case err != nil:
		h.printf("Execution fault at address %d: %v\n", h.cpu.PC, err)
	default:
		h.printf("Machine halted after %d instructions.\n", h.cpu.Steps())
	}
	return nil
}

func (h *Host) cmdStep(c cmd.Selection) error {
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseInt(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		count = n
	}

	for i := 0; i < count; i++ {
		if err := h.cpu.Step(); err != nil {
			h.printf("%v\n", err)
			break
		}
		if i < h.settings.MaxStepLines {
			h.displayPC()
		}
	}
	return nil
}

func (h *Host) cmdRegisters(c cmd.Selection) error {
	h.printf("%s\n", registerString(h.cpu))
	h.displayPC()
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	addr := h.settings.NextDisasmAddr
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, err := h.parseInt(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.Args) >= 2 {
		n, err := h.parseInt(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = n
	}

	for i := 0; i < lines; i++ {
		text, next := disasm.Disassemble(h.mem, addr)
		h.printf("%04d  %s\n", addr, text)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", strconv.Itoa(lines)}
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	addr := h.settings.NextMemDumpAddr
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, err := h.parseInt(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	words := h.settings.MemDumpWords
	if len(c.Args) >= 2 {
		n, err := h.parseInt(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		words = n
	}

	for i := 0; i < words; i += 8 {
		h.printf("%04d ", addr+i)
		for j := i; j < i+8 && j < words; j++ {
			h.printf(" %05o", uint16(h.mem.ReadWord(addr+j)))
		}
		h.println()
	}

	h.settings.NextMemDumpAddr = addr + words
	h.lastCmd.Args = []string{"$", strconv.Itoa(words)}
	return nil
}

func (h *Host) cmdMemorySet(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c.Command)
		return nil
	}

	addr, err := h.parseInt(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	for i, arg := range c.Args[1:] {
		v, err := h.parseInt(arg)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.mem.WriteWord(addr+i, asm15.DataWord(v))
	}
	return nil
}

func (h *Host) cmdSymbols(c cmd.Selection) error {
	if h.lastResult == nil {
		h.println("No translation unit assembled.")
		return nil
	}

	h.printf("Symbols of '%s':\n", h.lastResult.Name)
	for _, s := range h.lastResult.Symbols {
		if s.Defined {
			h.printf("    %-31s %04d  %s\n", s.Name, s.Addr, s.Kind)
		} else {
			h.printf("    %-31s ....  %s\n", s.Name, s.Kind)
		}
	}
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)

	case 1:
		h.displayUsage(c.Command)

	default:
		key, value := c.Args[0], strings.Join(c.Args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Bool:
			var v bool
			if v, err = stringToBool(value); err == nil {
				err = h.settings.Set(key, v)
			}
		case reflect.Int:
			var v int
			if v, err = strconv.Atoi(value); err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			err = errors.New("invalid setting")
		}
		if err != nil {
			h.printf("Unable to set %s: %v\n", key, err)
			return nil
		}
		h.printf("Set %s to %s.\n", key, value)
	}
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errQuit
}

func (h *Host) displayPC() {
	text, _ := disasm.Disassemble(h.mem, h.cpu.PC)
	h.printf("%04d* %s\n", h.cpu.PC, text)
}

func (h *Host) displayUsage(c *cmd.Command) {
	if c.Usage != "" {
		h.printf("Usage: %s\n", c.Usage)
	}
}

func (h *Host) displayCommands(commands *cmd.Tree, c *cmd.Command) {
	h.printf("%s commands:\n", commands.Title)
	for _, c := range commands.Commands {
		if c.Brief != "" {
			h.printf("    %-15s  %s\n", c.Name, c.Brief)
		}
	}
	h.println()

	if c != nil && len(c.Shortcuts) > 0 {
		h.printf("Shortcuts: %s\n\n", strings.Join(c.Shortcuts, ", "))
	}
}

func (h *Host) parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number '%s'", s)
	}
	return v, nil
}

func registerString(c *asm15.CPU) string {
	var sb strings.Builder
	for i, r := range c.Reg {
		fmt.Fprintf(&sb, "%s=%05o ", asm15.RegisterName(i), uint16(r))
	}
	fmt.Fprintf(&sb, "PC=%04d Z=%v N=%v", c.PC, c.Z, c.N)
	return sb.String()
}
