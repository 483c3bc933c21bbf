// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass macro assembler for the a15
// machine. Assembly of one translation unit expands macros, walks the
// expanded source twice to lay out the code and data images across the
// forward-reference gap, and emits the object, entry and external
// artifacts. Every syntactic and semantic fault is reported with its
// source line number and the pass continues, so a single run surfaces
// as many problems as possible.
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/orens/asm15"
)

var errAssembly = errors.New("assembly failed")

// Source lines are bounded, newline excluded.
const maxLineLength = 80

// maxASCII bounds .string characters.
const maxASCII = 127

// Option holds assembler option flags.
type Option uint8

const (
	// Verbose enables pass-by-pass trace output.
	Verbose Option = 1 << iota
)

// A Result is the outcome of a successful assembly.
type Result struct {
	Name     string       // translation unit name
	Origin   int          // address of the first code word
	Code     []asm15.Word // code image, fully resolved
	Data     []asm15.Word // data image
	Expanded []string     // macro-expanded source lines
	Symbols  []Symbol     // symbol table in insertion order
	Entries  []Site       // .entry definition sites
	Externs  []Site       // external reference sites
}

// The assembler is the state object owned by a single translation
// unit's run. Nothing survives it.
type assembler struct {
	name    string
	scanner *bufio.Scanner
	rep     Reporter
	out     io.Writer
	opts    Option

	macros   *macroTable
	expanded []string

	symbols *symbolTable
	code    []asm15.Word
	data    []asm15.Word
	pending []pendingRef
	entries []Site
	externs []Site
	icEnd   int
	failed  bool
	seen    map[Diagnostic]bool
}

func newAssembler(r io.Reader, name string, rep Reporter, out io.Writer, opts Option) *assembler {
	if out == nil {
		out = io.Discard
	}
	return &assembler{
		name:    name,
		scanner: bufio.NewScanner(r),
		rep:     rep,
		out:     out,
		opts:    opts,
		macros:  newMacroTable(),
		symbols: newSymbolTable(),
	}
}

// Assemble reads a15 assembly source from r and assembles it into a
// Result, rendering diagnostics to out as "line <N>: <message>" lines.
func Assemble(r io.Reader, name string, out io.Writer, opts Option) (*Result, error) {
	if out == nil {
		out = io.Discard
	}
	return AssembleWith(r, name, &ConsoleReporter{W: out}, out, opts)
}

// AssembleWith is Assemble with an injected diagnostic reporter. The
// returned error is non-nil when any diagnostic was recorded; the
// Result is nil in that case.
func AssembleWith(r io.Reader, name string, rep Reporter, out io.Writer, opts Option) (*Result, error) {
	a := newAssembler(r, name, rep, out, opts)

	if err := a.preprocess(); err != nil {
		return nil, err
	}
	if a.failed {
		return nil, errAssembly
	}

	steps := []func(a *assembler) error{
		(*assembler).passOne,
		(*assembler).passTwo,
	}
	for _, step := range steps {
		if err := step(a); err != nil {
			return nil, err
		}
	}
	if a.failed {
		return nil, errAssembly
	}
	return a.result(), nil
}

func (a *assembler) result() *Result {
	return &Result{
		Name:     a.name,
		Origin:   asm15.CodeOrigin,
		Code:     a.code,
		Data:     a.data,
		Expanded: a.expanded,
		Symbols:  a.symbols.all(),
		Entries:  a.entries,
		Externs:  a.externs,
	}
}

// AssembleFile assembles the translation unit named by path, which
// carries no extension: the source is read from path+".as", the
// expanded source is written to path+".am", and a clean run emits
// path+".ob" plus the non-empty auxiliary artifacts. A failed run
// leaves no artifacts behind.
func AssembleFile(path string, rep Reporter, out io.Writer, opts Option) (*Result, error) {
	if len(filepath.Base(path)) >= maxNameLength {
		if rep != nil {
			rep.Report(0, FileLengthExceed)
		}
		return nil, errAssembly
	}

	src, err := os.Open(path + SourceSuffix)
	if err != nil {
		if rep != nil {
			rep.Report(0, FailedToOpenFile)
		}
		return nil, err
	}
	defer src.Close()

	a := newAssembler(src, path, rep, out, opts)
	if err := a.preprocess(); err != nil {
		return nil, err
	}
	if a.failed {
		return nil, errAssembly
	}

	amName := path + ExpandedSuffix
	am, err := os.Create(amName)
	if err != nil {
		a.report(0, FailedToOpenFile)
		return nil, err
	}
	err = writeExpanded(am, a.expanded)
	am.Close()
	if err != nil {
		return nil, err
	}

	if err := a.passOne(); err != nil {
		return nil, a.discard(amName, err)
	}
	if err := a.passTwo(); err != nil {
		return nil, a.discard(amName, err)
	}
	if a.failed {
		return nil, a.discard(amName, errAssembly)
	}

	r := a.result()
	return r, a.writeArtifacts(path, r)
}

// discard removes the expanded-source artifact of a failed run.
func (a *assembler) discard(amName string, err error) error {
	if rmerr := os.Remove(amName); rmerr != nil && !os.IsNotExist(rmerr) {
		a.report(0, FailedToRemoveFile)
	}
	return err
}

// In verbose mode, log a string to the trace writer.
func (a *assembler) log(format string, args ...any) {
	if a.opts&Verbose != 0 {
		fmt.Fprintf(a.out, format, args...)
		fmt.Fprintln(a.out)
	}
}

// In verbose mode, log a string and its associated line of source.
func (a *assembler) logLine(line fstring, format string, args ...any) {
	if a.opts&Verbose != 0 {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(a.out, "%-3d | %-30s | %s\n", line.row, detail, line.full)
	}
}

// In verbose mode, log a section header to the trace writer.
func (a *assembler) logSection(name string) {
	if a.opts&Verbose != 0 {
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(a.out, "-- %s --\n", name)
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
	}
}
