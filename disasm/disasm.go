// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm decodes a15 machine words back into assembly text.
package disasm

import (
	"fmt"

	"github.com/orens/asm15"
)

func modeOf(mask asm15.Word) (asm15.Mode, bool) {
	for m := asm15.Immediate; m <= asm15.RegDirect; m++ {
		if mask == m.Mask() {
			return m, true
		}
	}
	return 0, false
}

// operandString renders one operand from its extension word.
func operandString(mode asm15.Mode, ext asm15.Word, srcField bool) string {
	switch mode {
	case asm15.Immediate:
		return fmt.Sprintf("#%d", ext.SignedPayload())
	case asm15.Direct:
		if ext.ARE() == asm15.TagE {
			return "<ext>"
		}
		return fmt.Sprintf("%d", ext.Payload())
	case asm15.RegIndirect:
		if srcField {
			return "*" + asm15.RegisterName(ext.SrcReg())
		}
		return "*" + asm15.RegisterName(ext.DestReg())
	default:
		if srcField {
			return asm15.RegisterName(ext.SrcReg())
		}
		return asm15.RegisterName(ext.DestReg())
	}
}

// Disassemble decodes the instruction at addr in memory m. It returns
// the assembly text and the address of the following instruction. A
// word that does not decode is rendered as data.
func Disassemble(m *asm15.Memory, addr int) (line string, next int) {
	w := m.ReadWord(addr)
	inst := &asm15.Instructions[w.Opcode()]

	switch inst.Operands {
	case 0:
		if w.SrcMask() != 0 || w.DestMask() != 0 {
			break
		}
		return inst.Name, addr + 1

	case 1:
		mode, ok := modeOf(w.DestMask())
		if !ok || w.SrcMask() != 0 {
			break
		}
		ext := m.ReadWord(addr + 1)
		return fmt.Sprintf("%s %s", inst.Name, operandString(mode, ext, false)), addr + 2

	case 2:
		srcMode, srcOK := modeOf(w.SrcMask())
		destMode, destOK := modeOf(w.DestMask())
		if !srcOK || !destOK {
			break
		}
		n := asm15.ExtensionWords(inst, srcMode, destMode)
		srcExt := m.ReadWord(addr + 1)
		destExt := m.ReadWord(addr + n)
		return fmt.Sprintf("%s %s, %s", inst.Name,
			operandString(srcMode, srcExt, true),
			operandString(destMode, destExt, false)), addr + 1 + n
	}

	return fmt.Sprintf(".data %d", w.Signed()), addr + 1
}
