// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// The macro pre-processor performs single-level textual expansion: a
// macr/endmacr definition is collected into the macro table, and a later
// line holding the bare macro name is replaced by the body, verbatim and
// with no re-scan for further calls.

// A macro is a named, ordered sequence of raw body lines.
type macro struct {
	name string
	body []string
}

// A macroTable collects macro definitions in insertion order.
type macroTable struct {
	list   []*macro
	byName map[string]*macro
}

func newMacroTable() *macroTable {
	return &macroTable{byName: make(map[string]*macro)}
}

func (t *macroTable) add(m *macro) {
	t.list = append(t.list, m)
	t.byName[m.name] = m
}

func (t *macroTable) lookup(name string) *macro {
	return t.byName[name]
}

// Pre-processor states.
const (
	outsideMacro = iota
	insideMacro
)

// preprocess runs the macro pre-processor over the raw source lines,
// producing the expanded source. Diagnostics mark the run failed but do
// not stop the scan.
func (a *assembler) preprocess() error {
	a.logSection("Expanding macros")

	state := outsideMacro
	var cur *macro

	row := 0
	for a.scanner.Scan() {
		row++
		text := a.scanner.Text()
		if len(text) > maxLineLength {
			a.report(row, FileLengthExceed)
		}
		line := trimLine(row, text)

		if state == insideMacro {
			word, rest := line.consumeWord()
			if word.str != "endmacr" {
				cur.body = append(cur.body, line.str)
				continue
			}
			if !rest.isEmpty() {
				a.report(row, ExtraneousTextAfterEndmacr)
			}
			if cur.name != "" {
				a.macros.add(cur)
				a.log("macro %s: %d lines", cur.name, len(cur.body))
			}
			cur, state = nil, outsideMacro
			continue
		}

		word, rest := line.consumeWord()
		switch {
		case word.str == "macr":
			name, extra := rest.consumeWord()
			if kind, ok := a.macros.checkMacroName(name.str); !ok {
				a.report(row, kind)
				name.str = ""
			}
			if !extra.isEmpty() {
				a.report(row, ExtraneousTextAfterMacroCall)
			}
			cur = &macro{name: name.str}
			state = insideMacro

		case word.str == "endmacr":
			// Stray endmacr outside a definition; never emitted by
			// well-formed input.

		case a.macros.lookup(word.str) != nil:
			if !rest.isEmpty() {
				a.report(row, ExtraneousTextAfterMacroCall)
			}
			a.expanded = append(a.expanded, a.macros.lookup(word.str).body...)

		default:
			a.expanded = append(a.expanded, line.str)
		}
	}

	if err := a.scanner.Err(); err != nil {
		return err
	}
	return nil
}
