// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm15

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Execution faults surfaced by Step and Run.
var (
	ErrHalted        = errors.New("cpu halted")
	ErrBadWord       = errors.New("not an instruction word")
	ErrExternalRef   = errors.New("unresolved external reference")
	ErrReturnEmpty   = errors.New("rts with empty return stack")
	ErrStepLimit     = errors.New("step limit exceeded")
	errBadOperand    = errors.New("malformed operand extension")
	errReadExhausted = errors.New("red: input exhausted")
)

// CPU interprets a15 machine code out of an attached Memory. The prn and
// red instructions are wired to the In and Out streams.
type CPU struct {
	Reg    [NumRegisters]Word // general registers
	PC     int                // address of the next instruction word
	Z      bool               // zero flag, set by arithmetic and cmp
	N      bool               // negative flag
	Halted bool               // set by stop
	Mem    *Memory

	in      *bufio.Reader
	out     io.Writer
	retaddr []int // jsr/rts return stack
	steps   int64 // instructions executed since reset
}

// NewCPU creates a CPU attached to the given memory, with the program
// counter placed at the code origin.
func NewCPU(mem *Memory) *CPU {
	c := &CPU{Mem: mem, PC: CodeOrigin}
	c.SetIO(nil, io.Discard)
	return c
}

// SetIO attaches the streams used by the red and prn instructions. A nil
// reader causes red to fault.
func (c *CPU) SetIO(in io.Reader, out io.Writer) {
	if in == nil {
		c.in = nil
	} else {
		c.in = bufio.NewReader(in)
	}
	c.out = out
}

// Reset places the CPU back at the code origin with cleared registers,
// flags and return stack. Memory contents are untouched.
func (c *CPU) Reset() {
	c.Reg = [NumRegisters]Word{}
	c.PC = CodeOrigin
	c.Z, c.N = false, false
	c.Halted = false
	c.retaddr = c.retaddr[:0]
	c.steps = 0
}

// Steps returns the number of instructions executed since the last reset.
func (c *CPU) Steps() int64 {
	return c.steps
}

// An opref is a decoded operand: its addressing mode, its current value,
// and where a result must be written back.
type opref struct {
	mode Mode
	val  Word
	addr int // memory write-back address (Direct, RegIndirect)
	reg  int // register write-back index (RegDirect)
}

func maskToMode(mask Word) (Mode, bool) {
	switch mask {
	case 1 << Immediate:
		return Immediate, true
	case 1 << Direct:
		return Direct, true
	case 1 << RegIndirect:
		return RegIndirect, true
	case 1 << RegDirect:
		return RegDirect, true
	}
	return 0, false
}

// ExtensionWords returns the number of operand extension words that
// follow an instruction word with the given operand modes. Register
// operands share a single extension word.
func ExtensionWords(inst *Instruction, src, dest Mode) int {
	switch inst.Operands {
	case 0:
		return 0
	case 1:
		return 1
	default:
		if src.Register() && dest.Register() {
			return 1
		}
		return 2
	}
}

// decodeOperand reads one operand. ext is the address of the operand's
// extension word; srcField selects the register field of a shared word.
func (c *CPU) decodeOperand(mode Mode, ext int, srcField bool) (opref, error) {
	o := opref{mode: mode}
	w := c.Mem.ReadWord(ext)
	switch mode {
	case Immediate:
		o.val = DataWord(w.SignedPayload())
	case Direct:
		switch w.ARE() {
		case TagE:
			return o, ErrExternalRef
		case TagR, TagA:
			o.addr = w.Payload()
			o.val = c.Mem.ReadWord(o.addr)
		default:
			return o, errBadOperand
		}
	case RegIndirect:
		if srcField {
			o.reg = w.SrcReg()
		} else {
			o.reg = w.DestReg()
		}
		o.addr = int(c.Reg[o.reg])
		o.val = c.Mem.ReadWord(o.addr)
	case RegDirect:
		if srcField {
			o.reg = w.SrcReg()
		} else {
			o.reg = w.DestReg()
		}
		o.val = c.Reg[o.reg]
	}
	return o, nil
}

// writeback stores a result through an operand reference and updates the
// flags from the stored value.
func (c *CPU) writeback(o *opref, v Word) {
	v &= WordMask
	switch o.mode {
	case RegDirect:
		c.Reg[o.reg] = v
	case Direct, RegIndirect:
		c.Mem.WriteWord(o.addr, v)
	}
	c.setFlags(v)
}

func (c *CPU) setFlags(v Word) {
	c.Z = v == 0
	c.N = v.Signed() < 0
}

// target returns the jump destination held by a jmp/bne/jsr operand:
// the symbol address for direct operands, the register contents for
// register-indirect ones. Both land in the operand's addr field.
func target(o *opref) int {
	return o.addr
}

// Step executes the instruction at PC. It returns ErrHalted once the
// machine has executed stop.
func (c *CPU) Step() error {
	if c.Halted {
		return ErrHalted
	}

	w := c.Mem.ReadWord(c.PC)
	inst := &Instructions[w.Opcode()]

	var src, dest opref
	var err error

	srcMode, srcOK := maskToMode(w.SrcMask())
	destMode, destOK := maskToMode(w.DestMask())

	switch inst.Operands {
	case 2:
		if !srcOK || !destOK {
			return ErrBadWord
		}
		shared := srcMode.Register() && destMode.Register()
		src, err = c.decodeOperand(srcMode, c.PC+1, true)
		if err != nil {
			return err
		}
		destExt := c.PC + 2
		if shared {
			destExt = c.PC + 1
		}
		dest, err = c.decodeOperand(destMode, destExt, false)
		if err != nil {
			return err
		}
	case 1:
		if !destOK {
			return ErrBadWord
		}
		dest, err = c.decodeOperand(destMode, c.PC+1, false)
		if err != nil {
			return err
		}
	}

	next := c.PC
	if inst.Operands == 0 {
		next++
	} else {
		next += 1 + ExtensionWords(inst, src.mode, dest.mode)
	}

	switch inst.Opcode {
	case MOV:
		c.writeback(&dest, src.val)
	case CMP:
		d := src.val.Signed() - dest.val.Signed()
		c.Z = d == 0
		c.N = d < 0
	case ADD:
		c.writeback(&dest, DataWord(dest.val.Signed()+src.val.Signed()))
	case SUB:
		c.writeback(&dest, DataWord(dest.val.Signed()-src.val.Signed()))
	case LEA:
		c.writeback(&dest, Word(src.addr)&WordMask)
	case CLR:
		c.writeback(&dest, 0)
	case NOT:
		c.writeback(&dest, dest.val^WordMask)
	case INC:
		c.writeback(&dest, DataWord(dest.val.Signed()+1))
	case DEC:
		c.writeback(&dest, DataWord(dest.val.Signed()-1))
	case JMP:
		next = target(&dest)
	case BNE:
		if !c.Z {
			next = target(&dest)
		}
	case RED:
		var b byte
		b, err = c.readByte()
		if err != nil {
			return err
		}
		c.writeback(&dest, Word(b))
	case PRN:
		fmt.Fprintf(c.out, "%d\n", dest.val.Signed())
	case JSR:
		c.retaddr = append(c.retaddr, next)
		next = target(&dest)
	case RTS:
		if len(c.retaddr) == 0 {
			return ErrReturnEmpty
		}
		next = c.retaddr[len(c.retaddr)-1]
		c.retaddr = c.retaddr[:len(c.retaddr)-1]
	case STOP:
		c.Halted = true
	}

	c.PC = next
	c.steps++
	return nil
}

func (c *CPU) readByte() (byte, error) {
	if c.in == nil {
		return 0, errReadExhausted
	}
	b, err := c.in.ReadByte()
	if err != nil {
		return 0, errReadExhausted
	}
	return b, nil
}

// Run executes instructions until the machine halts or maxSteps
// instructions have been executed. A maxSteps of 0 removes the limit.
func (c *CPU) Run(maxSteps int64) error {
	for n := int64(0); !c.Halted; n++ {
		if maxSteps > 0 && n >= maxSteps {
			return ErrStepLimit
		}
		if err := c.Step(); err != nil {
			if err == ErrHalted {
				return nil
			}
			return err
		}
	}
	return nil
}
