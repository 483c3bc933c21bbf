// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/orens/asm15"
)

// assemble runs the assembler over in-memory source, capturing
// diagnostics. The result is nil when any diagnostic was recorded.
func assemble(code string) (*Result, *Recorder) {
	rec := &Recorder{}
	r, _ := AssembleWith(strings.NewReader(code), "test", rec, io.Discard, 0)
	return r, rec
}

func checkClean(t *testing.T, r *Result, rec *Recorder) {
	t.Helper()
	if r == nil {
		t.Fatalf("assembly failed, diagnostics: %v", rec.Diags)
	}
	if len(rec.Diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", rec.Diags)
	}
}

func checkWords(t *testing.T, got, want []asm15.Word) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("word image mismatch (-want +got):\n%s", diff)
	}
}

func checkDiags(t *testing.T, rec *Recorder, want ...Diagnostic) {
	t.Helper()
	if diff := cmp.Diff(want, rec.Diags); diff != "" {
		t.Errorf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestMinimalProgram(t *testing.T) {
	r, rec := assemble("MAIN: mov #3, r4\nstop\n")
	checkClean(t, r, rec)

	want := []asm15.Word{
		asm15.InstructionWord(asm15.MOV, asm15.Immediate.Mask(), asm15.RegDirect.Mask()),
		asm15.TagA | 3<<asm15.PayloadShift,
		asm15.TagA | 4<<asm15.DestRegShift,
		asm15.InstructionWord(asm15.STOP, 0, 0),
	}
	checkWords(t, r.Code, want)

	if len(r.Data) != 0 {
		t.Errorf("data image has %d words, want 0", len(r.Data))
	}
	if r.Origin != 100 {
		t.Errorf("origin = %d, want 100", r.Origin)
	}
}

func TestRegisterPairSharesExtension(t *testing.T) {
	r, rec := assemble("mov r1, r2\nmov *r1, r2\nstop\n")
	checkClean(t, r, rec)

	want := []asm15.Word{
		asm15.InstructionWord(asm15.MOV, asm15.RegDirect.Mask(), asm15.RegDirect.Mask()),
		asm15.RegisterPairWord(1, 2),
		asm15.InstructionWord(asm15.MOV, asm15.RegIndirect.Mask(), asm15.RegDirect.Mask()),
		asm15.RegisterPairWord(1, 2),
		asm15.InstructionWord(asm15.STOP, 0, 0),
	}
	checkWords(t, r.Code, want)
}

func TestForwardReferenceAndExtern(t *testing.T) {
	r, rec := assemble(".extern EXT\nmov EXT, r1\nstop\n")
	checkClean(t, r, rec)

	want := []asm15.Word{
		asm15.InstructionWord(asm15.MOV, asm15.Direct.Mask(), asm15.RegDirect.Mask()),
		asm15.ExternWord(),
		asm15.TagA | 1<<asm15.DestRegShift,
		asm15.InstructionWord(asm15.STOP, 0, 0),
	}
	checkWords(t, r.Code, want)

	if diff := cmp.Diff([]Site{{Name: "EXT", Addr: 101}}, r.Externs); diff != "" {
		t.Errorf("extern sites mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalLabelResolution(t *testing.T) {
	r, rec := assemble("jmp END\nEND: stop\n")
	checkClean(t, r, rec)

	// END is defined at address 102, after the 2-word jmp.
	want := []asm15.Word{
		asm15.InstructionWord(asm15.JMP, 0, asm15.Direct.Mask()),
		asm15.RelocWord(102),
		asm15.InstructionWord(asm15.STOP, 0, 0),
	}
	checkWords(t, r.Code, want)
}

func TestDataAndStringLayout(t *testing.T) {
	r, rec := assemble("A: .data 5,-3\nB: .string \"ab\"\nstop\n")
	checkClean(t, r, rec)

	if len(r.Code) != 1 || len(r.Data) != 5 {
		t.Fatalf("lengths = %d code, %d data, want 1 and 5", len(r.Code), len(r.Data))
	}
	wantData := []asm15.Word{5, asm15.DataWord(-3), 'a', 'b', 0}
	checkWords(t, r.Data, wantData)

	addrs := map[string]int{}
	for _, s := range r.Symbols {
		if s.Defined {
			addrs[s.Name] = s.Addr
		}
	}
	if addrs["A"] != 101 || addrs["B"] != 103 {
		t.Errorf("data symbols at A=%d B=%d, want 101 and 103", addrs["A"], addrs["B"])
	}
}

func TestEntrySites(t *testing.T) {
	r, rec := assemble(".entry MAIN\nMAIN: stop\n")
	checkClean(t, r, rec)
	if diff := cmp.Diff([]Site{{Name: "MAIN", Addr: 100}}, r.Entries); diff != "" {
		t.Errorf("entry sites mismatch (-want +got):\n%s", diff)
	}
}

func TestIllegalLeaSource(t *testing.T) {
	r, rec := assemble("lea #5, r1\nstop\n")
	if r != nil {
		t.Fatal("assembly succeeded, want failure")
	}
	checkDiags(t, rec, Diagnostic{Line: 1, Kind: IllegalOperand})
}

func TestLabelRedefinition(t *testing.T) {
	r, rec := assemble("X: mov r1, r2\nX: stop\n")
	if r != nil {
		t.Fatal("assembly succeeded, want failure")
	}
	checkDiags(t, rec, Diagnostic{Line: 2, Kind: LabelAlreadyDefined})
}

func TestUndefinedSymbol(t *testing.T) {
	r, rec := assemble("mov NOPE, r1\nstop\n")
	if r != nil {
		t.Fatal("assembly succeeded, want failure")
	}
	checkDiags(t, rec, Diagnostic{Line: 1, Kind: MissingLabel})
}

func TestEntryExternConflicts(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want Diagnostic
	}{
		{
			"extern then entry",
			".extern X\n.entry X\nstop\n",
			Diagnostic{Line: 2, Kind: AlreadyDefinedAsExtern},
		},
		{
			"entry then extern",
			".entry X\n.extern X\nX: stop\n",
			Diagnostic{Line: 2, Kind: AlreadyDefinedAsEntry},
		},
		{
			"extern then definition",
			".extern X\nX: stop\n",
			Diagnostic{Line: 2, Kind: AlreadyDefinedAsExtern},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, rec := assemble(c.src)
			if r != nil {
				t.Fatal("assembly succeeded, want failure")
			}
			checkDiags(t, rec, c.want)
		})
	}
}

func TestOperandLegalityMatrix(t *testing.T) {
	legal := []string{
		"mov #1, r1",
		"mov r1, X",
		"cmp #1, #2",
		"lea X, r1",
		"clr r1",
		"not *r2",
		"inc X",
		"jmp X",
		"bne *r3",
		"red r1",
		"prn #-5",
		"jsr X",
	}
	for _, src := range legal {
		t.Run(src, func(t *testing.T) {
			r, rec := assemble("X: .data 1\n" + src + "\nstop\n")
			checkClean(t, r, rec)
		})
	}

	illegal := []string{
		"mov r1, #2",
		"add r1, #2",
		"sub r1, #2",
		"lea r1, r2",
		"lea #1, r2",
		"clr #1",
		"inc #3",
		"jmp #1",
		"jmp r1",
		"bne r1",
		"jsr r1",
		"red #1",
	}
	for _, src := range illegal {
		t.Run(src, func(t *testing.T) {
			r, rec := assemble(src + "\nstop\n")
			if r != nil {
				t.Fatal("assembly succeeded, want failure")
			}
			checkDiags(t, rec, Diagnostic{Line: 1, Kind: IllegalOperand})
		})
	}
}

func TestOperandCountErrors(t *testing.T) {
	cases := []struct {
		src  string
		want Kind
	}{
		{"mov #1", MissingOperand},
		{"mov #1, r1, r2", IllegalComma},
		{"clr", MissingOperand},
		{"clr r1, r2", IllegalComma},
		{"stop r1", ExtraneousTextAfterStop},
		{"rts r1", ExtraneousTextAfterRts},
		{"mov , r1", IllegalComma},
		{"mov #1,, r1", InvalidComma},
		{"mov #1, r1,", InvalidComma},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			r, rec := assemble(c.src + "\nstop\n")
			if r != nil {
				t.Fatal("assembly succeeded, want failure")
			}
			checkDiags(t, rec, Diagnostic{Line: 1, Kind: c.want})
		})
	}
}

func TestNumericBounds(t *testing.T) {
	cases := []struct {
		src  string
		want Kind
	}{
		{"mov #2048, r1", NumberOutOfBound},
		{"mov #-2048, r1", NumberOutOfBound},
		{"mov #, r1", MissingNumber},
		{"mov #abc, r1", IsNotANumber},
		{"mov #12x, r1", InvalidNumber},
		{".data 32768", NumberOutOfBound},
		{".data -16385", NumberOutOfBound},
		{".data foo", IsNotANumber},
		{".data", MissingParameter},
		{".data 1,", MissingNumber},
		{".data 1,,2", InvalidComma},
		{".data ,1", IllegalComma},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			r, rec := assemble(c.src + "\nstop\n")
			if r != nil {
				t.Fatal("assembly succeeded, want failure")
			}
			checkDiags(t, rec, Diagnostic{Line: 1, Kind: c.want})
		})
	}
}

func TestImmediateEdgeValues(t *testing.T) {
	r, rec := assemble("prn #2047\nprn #-2047\nstop\n")
	checkClean(t, r, rec)
	if got := r.Code[1].SignedPayload(); got != 2047 {
		t.Errorf("payload = %d, want 2047", got)
	}
	if got := r.Code[3].SignedPayload(); got != -2047 {
		t.Errorf("payload = %d, want -2047", got)
	}
}

func TestStringDiagnostics(t *testing.T) {
	cases := []struct {
		src  string
		want Kind
	}{
		{".string", MissingString},
		{".string abc", MissingString},
		{".string \"abc", MissingQuote},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			r, rec := assemble(c.src + "\nstop\n")
			if r != nil {
				t.Fatal("assembly succeeded, want failure")
			}
			checkDiags(t, rec, Diagnostic{Line: 1, Kind: c.want})
		})
	}
}

func TestStringPreservesInteriorWhitespace(t *testing.T) {
	r, rec := assemble("S: .string \"a  b\"\nstop\n")
	checkClean(t, r, rec)
	want := []asm15.Word{'a', ' ', ' ', 'b', 0}
	checkWords(t, r.Data, want)
}

func TestUndefinedInstruction(t *testing.T) {
	r, rec := assemble("frobnicate r1\nstop\n")
	if r != nil {
		t.Fatal("assembly succeeded, want failure")
	}
	checkDiags(t, rec, Diagnostic{Line: 1, Kind: UndefinedInstruction})
}

func TestDiagnosticsAccumulate(t *testing.T) {
	// Three independent faults in one run; the pass never
	// short-circuits.
	r, rec := assemble("lea #1, r1\nmov #9999, r2\nbogus\nstop\n")
	if r != nil {
		t.Fatal("assembly succeeded, want failure")
	}
	checkDiags(t, rec,
		Diagnostic{Line: 1, Kind: IllegalOperand},
		Diagnostic{Line: 2, Kind: NumberOutOfBound},
		Diagnostic{Line: 3, Kind: UndefinedInstruction},
	)
}

func TestSameDefectTwiceReportedTwice(t *testing.T) {
	r, rec := assemble("lea #1, r1\nlea #1, r1\nstop\n")
	if r != nil {
		t.Fatal("assembly succeeded, want failure")
	}
	checkDiags(t, rec,
		Diagnostic{Line: 1, Kind: IllegalOperand},
		Diagnostic{Line: 2, Kind: IllegalOperand},
	)
}

func TestReservedWordLabel(t *testing.T) {
	r, rec := assemble("mov: stop\n")
	if r != nil {
		t.Fatal("assembly succeeded, want failure")
	}
	checkDiags(t, rec, Diagnostic{Line: 1, Kind: CannotBeReservedWord})
}

func TestEntryLabelPrefixIgnored(t *testing.T) {
	// A label prefix on an .entry line has no effect: the label is not
	// defined, only the marker is recorded.
	r, rec := assemble("IGNORED: .entry MAIN\nMAIN: stop\n")
	checkClean(t, r, rec)
	for _, s := range r.Symbols {
		if s.Name == "IGNORED" {
			t.Error("label prefix on .entry was committed")
		}
	}
	if diff := cmp.Diff([]Site{{Name: "MAIN", Addr: 100}}, r.Entries); diff != "" {
		t.Errorf("entry sites mismatch (-want +got):\n%s", diff)
	}
}

// Every opcode's instruction word carries its table code and an
// Absolute tag.
func TestOpcodeBitsInvariant(t *testing.T) {
	sources := map[string]string{
		"mov":  "mov #1, r1",
		"cmp":  "cmp #1, r1",
		"add":  "add #1, r1",
		"sub":  "sub #1, r1",
		"lea":  "X: .data 1\nlea X, r1",
		"clr":  "clr r1",
		"not":  "not r1",
		"inc":  "inc r1",
		"dec":  "dec r1",
		"jmp":  "X: .data 1\njmp X",
		"bne":  "X: .data 1\nbne X",
		"red":  "red r1",
		"prn":  "prn r1",
		"jsr":  "X: .data 1\njsr X",
		"rts":  "rts",
		"stop": "",
	}
	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			r, rec := assemble(src + "\nstop\n")
			checkClean(t, r, rec)

			inst := asm15.GetInstruction(name)
			// The opcode under test emits the first code word; a
			// preceding .data line fills only the data image.
			w := r.Code[0]
			if w.Opcode() != inst.Opcode {
				t.Errorf("opcode bits = %d, want %d", w.Opcode(), inst.Opcode)
			}
			if w.ARE() != asm15.TagA {
				t.Errorf("ARE = %d, want %d", w.ARE(), asm15.TagA)
			}
		})
	}
}

// Every emitted code word carries exactly one A/R/E bit.
func TestAREOneHotInvariant(t *testing.T) {
	src := ".extern EXT\nMAIN: mov #3, r4\nlea STR, r1\nmov EXT, r2\n" +
		"STR: .string \"hi\"\nstop\n"
	r, rec := assemble(src)
	checkClean(t, r, rec)

	for i, w := range r.Code {
		are := w.ARE()
		if are != asm15.TagA && are != asm15.TagR && are != asm15.TagE {
			t.Errorf("code word %d has ARE %03b", i, are)
		}
	}
}

// The number of extension words follows the register-pair rule.
func TestExtensionWordCounts(t *testing.T) {
	cases := []struct {
		src   string
		words int // total code words for the first instruction
	}{
		{"stop", 1},
		{"clr r1", 2},
		{"prn #3", 2},
		{"mov r1, r2", 2},
		{"mov *r1, *r2", 2},
		{"mov r1, *r2", 2},
		{"mov #1, r2", 3},
		{"mov X, r2", 3},
		{"mov X, X", 3},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			r, rec := assemble("X: .data 1\n" + c.src + "\nstop\n")
			checkClean(t, r, rec)
			// Total = first instruction + trailing stop.
			if got := len(r.Code) - 1; got != c.words {
				t.Errorf("instruction occupies %d words, want %d", got, c.words)
			}
		})
	}
}

func TestExtensionWordRule(t *testing.T) {
	imm := operand{present: true, mode: asm15.Immediate}
	dir := operand{present: true, mode: asm15.Direct}
	reg := operand{present: true, mode: asm15.RegDirect}
	ind := operand{present: true, mode: asm15.RegIndirect}
	none := operand{}

	cases := []struct {
		src, dest operand
		want      int
	}{
		{none, none, 0},
		{none, reg, 1},
		{none, imm, 1},
		{reg, reg, 1},
		{ind, ind, 1},
		{reg, ind, 1},
		{imm, reg, 2},
		{dir, dir, 2},
		{imm, dir, 2},
	}
	for _, c := range cases {
		if got := extensionWords(c.src, c.dest); got != c.want {
			t.Errorf("extensionWords(%v, %v) = %d, want %d", c.src.mode, c.dest.mode, got, c.want)
		}
	}
}

// Round-trip: parsing then re-encoding an immediate recovers the value
// after sign extension.
func TestImmediateRoundTrip(t *testing.T) {
	for _, k := range []int{-2047, -1024, -1, 0, 1, 1024, 2047} {
		w := asm15.ImmediateWord(k)
		if got := w.SignedPayload(); got != k {
			t.Errorf("round trip of %d gives %d", k, got)
		}
	}
}

// A direct use of a code label resolves to R | addr<<3.
func TestRelocatableResolutionInvariant(t *testing.T) {
	r, rec := assemble("MAIN: mov #1, r1\njsr MAIN\nstop\n")
	checkClean(t, r, rec)

	// jsr's extension word is the fifth code word, at index 4 (mov
	// occupies 3).
	want := asm15.TagR | asm15.Word(100)<<asm15.PayloadShift
	if r.Code[4] != want {
		t.Errorf("resolved word = %06o, want %06o", r.Code[4], want)
	}
}
