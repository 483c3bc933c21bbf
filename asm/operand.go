// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strconv"

	"github.com/orens/asm15"
)

// An operand is the classified form of one operand token.
type operand struct {
	present bool
	mode    asm15.Mode
	value   int     // immediate value or register number
	name    fstring // referenced label, direct mode only
}

// classifyOperand identifies the addressing mode of an operand token.
// A token starting with '#' must be a signed decimal immediate; '*rN'
// is register-indirect; 'rN' is register-direct; anything else is a
// direct symbol reference and must be a plausible label name.
func (a *assembler) classifyOperand(tok fstring) (operand, bool) {
	switch {
	case tok.startsWithChar('#'):
		rest := tok.consume(1)
		v, kind, ok := parseImmediate(rest.str)
		if !ok {
			a.report(tok.row, kind)
			return operand{}, false
		}
		return operand{present: true, mode: asm15.Immediate, value: v}, true

	case tok.startsWithChar('*'):
		r := asm15.RegisterNumber(tok.consume(1).str)
		if r < 0 {
			a.report(tok.row, InvalidOperandName)
			return operand{}, false
		}
		return operand{present: true, mode: asm15.RegIndirect, value: r}, true

	default:
		if r := asm15.RegisterNumber(tok.str); r >= 0 {
			return operand{present: true, mode: asm15.RegDirect, value: r}, true
		}
		if kind, ok := a.checkLabelName(tok.str); !ok {
			if kind == MissingLabel {
				kind = MissingOperand
			} else {
				kind = InvalidOperandName
			}
			a.report(tok.row, kind)
			return operand{}, false
		}
		return operand{present: true, mode: asm15.Direct, name: tok}, true
	}
}

// parseImmediate parses the signed decimal that follows '#'.
func parseImmediate(s string) (int, Kind, bool) {
	if s == "" {
		return 0, MissingNumber, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		if numericLooking(s) {
			return 0, InvalidNumber, false
		}
		return 0, IsNotANumber, false
	}
	if v < asm15.MinImmediate || v > asm15.MaxImmediate {
		return 0, NumberOutOfBound, false
	}
	return v, 0, true
}

// numericLooking reports whether a token that failed to parse at least
// resembles a number, distinguishing InvalidNumber from IsNotANumber.
func numericLooking(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	return i < len(s) && decimal(s[i])
}

// extensionWords returns the number of extension words an operand pair
// occupies: zero when both are absent, one when both are register form,
// else one per present operand.
func extensionWords(src, dest operand) int {
	if src.present && dest.present &&
		src.mode.Register() && dest.mode.Register() {
		return 1
	}
	n := 0
	if src.present {
		n++
	}
	if dest.present {
		n++
	}
	return n
}
