// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "github.com/orens/asm15"

// A Site is one resolved entry definition or external reference,
// recorded per occurrence address.
type Site struct {
	Name string
	Addr int
}

// passTwo completes every pending symbol reference left by pass one and
// collects the .entry and external reference sites.
func (a *assembler) passTwo() error {
	a.logSection("Second pass")

	for _, p := range a.pending {
		def, markers := a.symbols.lookup(p.name.str)
		switch {
		case def != nil:
			a.code[p.addr-asm15.CodeOrigin] = asm15.RelocWord(def.Addr)
			a.logLine(p.name, "resolved %s -> %d", p.name.str, def.Addr)
		case hasExtern(markers):
			a.code[p.addr-asm15.CodeOrigin] = asm15.ExternWord()
			a.externs = append(a.externs, Site{Name: p.name.str, Addr: p.addr})
			a.logLine(p.name, "external %s @ %d", p.name.str, p.addr)
		default:
			a.report(p.name.row, MissingLabel)
		}
	}

	// One entry site per defined symbol matching a marker, in marker
	// declaration order.
	for _, s := range a.symbols.all() {
		if s.Kind != EntrySymbol {
			continue
		}
		def, _ := a.symbols.lookup(s.Name)
		if def == nil {
			a.report(s.Line, MissingLabel)
			continue
		}
		a.entries = append(a.entries, Site{Name: def.Name, Addr: def.Addr})
	}
	return nil
}

func hasExtern(markers []*Symbol) bool {
	for _, m := range markers {
		if m.Kind == ExternSymbol {
			return true
		}
	}
	return false
}
