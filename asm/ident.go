// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "github.com/orens/asm15"

// maxNameLength bounds label and macro names; names must be shorter.
const maxNameLength = 32

// reservedWords holds every name the machine claims for itself: the 16
// mnemonics, the 8 registers, the 4 directives, and the macro keywords.
var reservedWords = make(map[string]bool)

func init() {
	for i := range asm15.Instructions {
		reservedWords[asm15.Instructions[i].Name] = true
	}
	for i := 0; i < asm15.NumRegisters; i++ {
		reservedWords[asm15.RegisterName(i)] = true
	}
	for _, w := range []string{
		".data", ".string", ".entry", ".extern", "macr", "endmacr",
	} {
		reservedWords[w] = true
	}
}

func reserved(name string) bool {
	return reservedWords[name]
}

// checkLabelName validates a label name: non-empty, a leading ASCII
// letter, letters and digits only, shorter than 32 characters, not a
// reserved word, and not the name of a macro. It returns the diagnostic
// kind describing the first rule violated.
func (a *assembler) checkLabelName(name string) (Kind, bool) {
	switch {
	case name == "":
		return MissingLabel, false
	case !alpha(name[0]):
		return InvalidLabel, false
	case len(name) >= maxNameLength:
		return IllegalLabelNameLength, false
	case reserved(name):
		return CannotBeReservedWord, false
	}
	for i := 1; i < len(name); i++ {
		if !alnum(name[i]) {
			return InvalidLabel, false
		}
	}
	if a.macros != nil && a.macros.lookup(name) != nil {
		return InvalidLabel, false
	}
	return 0, true
}

// checkMacroName validates a macro name: the label rules, except that
// underscores are accepted and the name must not duplicate an earlier
// macro.
func (t *macroTable) checkMacroName(name string) (Kind, bool) {
	switch {
	case name == "":
		return MissingMacroName, false
	case !alpha(name[0]):
		return InvalidMacroName, false
	case len(name) >= maxNameLength:
		return ExceededMacroNameLength, false
	case reserved(name):
		return InvalidMacroName, false
	}
	for i := 1; i < len(name); i++ {
		if !macroNameChar(name[i]) {
			return InvalidMacroName, false
		}
	}
	if t.lookup(name) != nil {
		return MacroNameAlreadyDefined, false
	}
	return 0, true
}
