// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strconv"

	"github.com/orens/asm15"
)

// An operandPos distinguishes the two operand positions of an
// instruction word.
type operandPos byte

const (
	srcPos operandPos = iota
	destPos
)

// A pendingRef marks a partially filled instruction word whose symbol
// reference is completed in pass two.
type pendingRef struct {
	addr int     // address of the extension word to complete
	name fstring // referenced symbol
	pos  operandPos
}

// passOne walks the expanded source, growing the code and data images,
// registering labels, and queueing a pending reference for every direct
// operand. Line numbering restarts at 1 for the expanded source.
func (a *assembler) passOne() error {
	a.logSection("First pass")
	for i, text := range a.expanded {
		a.parseLine(newFstring(i+1, text))
	}

	// Data addresses become absolute only once the code size is known.
	a.icEnd = asm15.CodeOrigin + len(a.code)
	a.symbols.rebaseData(a.icEnd)
	return nil
}

// parseLine processes one expanded-source line: an optional label
// prefix, then an opcode or directive.
func (a *assembler) parseLine(line fstring) {
	if line.isEmpty() {
		return
	}

	// A label prefix is a colon inside the first token. The label is
	// validated here but committed only once the line's directive has
	// been identified.
	var label fstring
	labeled, labelOK := false, false
	if colon := line.scanUntilChar(':'); colon < line.scanUntil(whitespace) {
		label = line.trunc(colon)
		line = line.consume(colon + 1).consumeWhitespace()
		labeled = true
		switch kind, ok := a.checkLabelName(label.str); {
		case ok:
			labelOK = true
		case kind == MissingLabel:
			a.report(label.row, NotALabel)
		default:
			a.report(label.row, kind)
		}
	}

	word, rest := line.consumeWord()
	switch {
	case word.isEmpty():
		if labeled {
			a.report(label.row, UndefinedInstruction)
		}

	case word.str == ".data":
		a.parseData(word.row, label, labelOK, rest)

	case word.str == ".string":
		a.parseString(word.row, label, labelOK, rest)

	case word.str == ".entry":
		// A label prefix on an .entry/.extern line has no effect.
		a.parseMarker(word.row, rest, true)

	case word.str == ".extern":
		a.parseMarker(word.row, rest, false)

	default:
		inst := asm15.GetInstruction(word.str)
		if inst == nil {
			a.report(word.row, UndefinedInstruction)
			return
		}
		a.parseInstruction(word.row, inst, label, labelOK, rest)
	}
}

// commitLabel defines a validated label at the given address.
func (a *assembler) commitLabel(label fstring, ok bool, addr int, kind SymbolKind) {
	if label.isEmpty() || !ok {
		return
	}
	if k, defined := a.symbols.define(label.str, addr, kind, label.row); !defined {
		a.report(label.row, k)
		return
	}
	a.logLine(label, "label=%s addr=%d", label.str, addr)
}

// parseInstruction assembles one opcode line: operand split, mode
// legality, word allocation.
func (a *assembler) parseInstruction(row int, inst *asm15.Instruction, label fstring, labelOK bool, rest fstring) {
	a.commitLabel(label, labelOK, asm15.CodeOrigin+len(a.code), CodeSymbol)

	if inst.Operands == 0 {
		if !rest.isEmpty() {
			if inst.Opcode == asm15.RTS {
				a.report(row, ExtraneousTextAfterRts)
			} else {
				a.report(row, ExtraneousTextAfterStop)
			}
			return
		}
		a.append(asm15.InstructionWord(inst.Opcode, 0, 0))
		return
	}

	fields, ok := a.splitOperands(row, rest)
	if !ok {
		return
	}
	switch {
	case len(fields) < inst.Operands:
		a.report(row, MissingOperand)
		return
	case len(fields) > inst.Operands:
		a.report(row, IllegalComma)
		return
	}

	var src, dest operand
	if inst.Operands == 2 {
		if src, ok = a.classifyOperand(fields[0]); !ok {
			return
		}
		if dest, ok = a.classifyOperand(fields[1]); !ok {
			return
		}
		if !inst.Src.Contains(src.mode) || !inst.Dest.Contains(dest.mode) {
			a.report(row, IllegalOperand)
			return
		}
	} else {
		if dest, ok = a.classifyOperand(fields[0]); !ok {
			return
		}
		if !inst.Dest.Contains(dest.mode) {
			a.report(row, IllegalOperand)
			return
		}
	}

	a.encodeInstruction(inst, src, dest)
}

// encodeInstruction emits the opcode word and its extension words.
// Direct operands leave a zero-bodied slot and a pending reference.
func (a *assembler) encodeInstruction(inst *asm15.Instruction, src, dest operand) {
	var srcMask, destMask asm15.Word
	if src.present {
		srcMask = src.mode.Mask()
	}
	if dest.present {
		destMask = dest.mode.Mask()
	}
	a.append(asm15.InstructionWord(inst.Opcode, srcMask, destMask))

	if src.present && dest.present &&
		src.mode.Register() && dest.mode.Register() {
		a.append(asm15.RegisterPairWord(src.value, dest.value))
		return
	}
	if src.present {
		a.appendOperand(src, srcPos)
	}
	if dest.present {
		a.appendOperand(dest, destPos)
	}
}

func (a *assembler) append(w asm15.Word) {
	a.code = append(a.code, w)
}

func (a *assembler) appendOperand(o operand, pos operandPos) {
	addr := asm15.CodeOrigin + len(a.code)
	switch o.mode {
	case asm15.Immediate:
		a.append(asm15.ImmediateWord(o.value))
	case asm15.Direct:
		a.pending = append(a.pending, pendingRef{addr: addr, name: o.name, pos: pos})
		a.append(0)
	case asm15.RegIndirect, asm15.RegDirect:
		if pos == srcPos {
			a.append(asm15.RegisterPairWord(o.value, 0))
		} else {
			a.append(asm15.RegisterPairWord(0, o.value))
		}
	}
}

// splitOperands splits a comma-separated operand list, reporting stray
// commas. Fields arrive already whitespace-collapsed.
func (a *assembler) splitOperands(row int, rest fstring) ([]fstring, bool) {
	if rest.isEmpty() {
		return nil, true
	}
	if rest.startsWithChar(',') {
		a.report(row, IllegalComma)
		return nil, false
	}

	var fields []fstring
	for {
		field, remain := rest.consumeUntilChar(',')
		field = trimField(field)
		if field.isEmpty() {
			a.report(row, InvalidComma)
			return nil, false
		}
		fields = append(fields, field)
		if remain.isEmpty() {
			return fields, true
		}
		rest = remain.consume(1).consumeWhitespace()
		if rest.isEmpty() {
			a.report(row, InvalidComma)
			return nil, false
		}
	}
}

// trimField drops the single trailing space a comma split can leave on
// a collapsed field.
func trimField(f fstring) fstring {
	n := len(f.str)
	for n > 0 && whitespace(f.str[n-1]) {
		n--
	}
	return f.trunc(n)
}

// parseData assembles a .data directive: comma-separated signed
// decimals, one data word each.
func (a *assembler) parseData(row int, label fstring, labelOK bool, rest fstring) {
	a.commitLabel(label, labelOK, len(a.data), DataSymbol)

	if rest.isEmpty() {
		a.report(row, MissingParameter)
		return
	}
	if rest.startsWithChar(',') {
		a.report(row, IllegalComma)
		return
	}

	for {
		field, remain := rest.consumeUntilChar(',')
		field = trimField(field)
		if field.isEmpty() {
			a.report(row, InvalidComma)
			return
		}

		v, err := strconv.Atoi(field.str)
		switch {
		case err != nil && numericLooking(field.str):
			a.report(row, InvalidNumber)
			return
		case err != nil:
			a.report(row, IsNotANumber)
			return
		case v < asm15.MinDataValue || v > asm15.MaxDataValue:
			a.report(row, NumberOutOfBound)
			return
		}
		a.data = append(a.data, asm15.DataWord(v))

		if remain.isEmpty() {
			return
		}
		rest = remain.consume(1).consumeWhitespace()
		if rest.isEmpty() {
			a.report(row, MissingNumber)
			return
		}
	}
}

// parseString assembles a .string directive: one data word per 7-bit
// ASCII character, then a zero terminator.
func (a *assembler) parseString(row int, label fstring, labelOK bool, rest fstring) {
	a.commitLabel(label, labelOK, len(a.data), DataSymbol)

	if rest.isEmpty() {
		a.report(row, MissingString)
		return
	}
	first := rest.scanUntilChar('"')
	if first == len(rest.str) {
		a.report(row, MissingString)
		return
	}
	last := -1
	for i := len(rest.str) - 1; i > first; i-- {
		if rest.str[i] == '"' {
			last = i
			break
		}
	}
	if last < 0 {
		a.report(row, MissingQuote)
		return
	}
	if first > 0 || last != len(rest.str)-1 {
		a.report(row, InvalidCharacter)
		return
	}

	for i := first + 1; i < last; i++ {
		c := rest.str[i]
		if c > maxASCII {
			a.report(row, InvalidCharacter)
			return
		}
		a.data = append(a.data, asm15.Word(c))
	}
	a.data = append(a.data, 0)
}

// parseMarker records an .entry or .extern declaration.
func (a *assembler) parseMarker(row int, rest fstring, entry bool) {
	name, extra := rest.consumeWord()
	if name.isEmpty() {
		a.report(row, MissingLabel)
		return
	}
	if !extra.isEmpty() {
		a.report(row, IllegalOperand)
		return
	}
	if kind, ok := a.checkLabelName(name.str); !ok {
		a.report(row, kind)
		return
	}

	var kind Kind
	var ok bool
	if entry {
		kind, ok = a.symbols.declareEntry(name.str, row)
	} else {
		kind, ok = a.symbols.declareExtern(name.str, row)
	}
	if !ok {
		a.report(row, kind)
	}
}
