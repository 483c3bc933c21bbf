// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// A SymbolKind classifies a symbol table record.
type SymbolKind byte

const (
	CodeSymbol   SymbolKind = iota // label on an instruction line
	DataSymbol                     // label on a .data/.string line
	EntrySymbol                    // .entry marker, address resolved late
	ExternSymbol                   // .extern marker, defined elsewhere
)

var symbolKindNames = []string{"code", "data", "entry", "extern"}

func (k SymbolKind) String() string {
	return symbolKindNames[k]
}

// A Symbol is one symbol table record. Entry and extern markers carry no
// address of their own; definitions do.
type Symbol struct {
	Name    string
	Addr    int
	Kind    SymbolKind
	Defined bool
	Line    int // expanded-source line of the declaration
}

// A symbolTable holds definitions and entry/extern markers in insertion
// order, with an index for O(1) lookup by name. A definition and a
// marker may coexist as separate records: an entry is a promise the name
// is defined here, an extern a promise it is defined elsewhere.
type symbolTable struct {
	syms  []Symbol
	index map[string][]int
}

func newSymbolTable() *symbolTable {
	return &symbolTable{index: make(map[string][]int)}
}

func (t *symbolTable) append(s Symbol) {
	t.index[s.Name] = append(t.index[s.Name], len(t.syms))
	t.syms = append(t.syms, s)
}

// define records a label definition. Defining a name twice, or defining
// a name declared extern, is a diagnostic.
func (t *symbolTable) define(name string, addr int, kind SymbolKind, line int) (Kind, bool) {
	for _, i := range t.index[name] {
		switch {
		case t.syms[i].Defined:
			return LabelAlreadyDefined, false
		case t.syms[i].Kind == ExternSymbol:
			return AlreadyDefinedAsExtern, false
		}
	}
	t.append(Symbol{Name: name, Addr: addr, Kind: kind, Defined: true, Line: line})
	return 0, true
}

// declareEntry records an entry marker. Declaring entry for a name also
// declared extern is a diagnostic.
func (t *symbolTable) declareEntry(name string, line int) (Kind, bool) {
	for _, i := range t.index[name] {
		if t.syms[i].Kind == ExternSymbol {
			return AlreadyDefinedAsExtern, false
		}
	}
	t.append(Symbol{Name: name, Kind: EntrySymbol, Line: line})
	return 0, true
}

// declareExtern records an extern marker. Declaring extern for a name
// that is defined locally or marked entry is a diagnostic.
func (t *symbolTable) declareExtern(name string, line int) (Kind, bool) {
	for _, i := range t.index[name] {
		switch {
		case t.syms[i].Defined:
			return LabelAlreadyDefined, false
		case t.syms[i].Kind == EntrySymbol:
			return AlreadyDefinedAsEntry, false
		}
	}
	t.append(Symbol{Name: name, Kind: ExternSymbol, Line: line})
	return 0, true
}

// lookup returns the definition record for the name, if any, plus every
// marker record.
func (t *symbolTable) lookup(name string) (def *Symbol, markers []*Symbol) {
	for _, i := range t.index[name] {
		if t.syms[i].Defined {
			def = &t.syms[i]
		} else {
			markers = append(markers, &t.syms[i])
		}
	}
	return def, markers
}

// rebaseData rewrites every data-segment definition from its DC offset
// to an absolute address following the code segment.
func (t *symbolTable) rebaseData(icEnd int) {
	for i := range t.syms {
		if t.syms[i].Defined && t.syms[i].Kind == DataSymbol {
			t.syms[i].Addr += icEnd
		}
	}
}

// all returns the table's records in insertion order.
func (t *symbolTable) all() []Symbol {
	return t.syms
}
