// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/orens/asm15"
)

// Artifact suffixes.
const (
	SourceSuffix   = ".as"
	ExpandedSuffix = ".am"
	ObjectSuffix   = ".ob"
	EntrySuffix    = ".ent"
	ExternSuffix   = ".ext"
)

// WriteObj writes the object image: a header line with the code and
// data lengths, then one line per word, the address in decimal with a
// leading zero and the word in five octal digits. The container's sign
// bit is masked off here; the word encoders of package asm15 and
// Memory.WriteWord also keep words within 15 bits.
func (r *Result) WriteObj(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\t%d %d\n", len(r.Code), len(r.Data))
	for i, word := range r.Code {
		writeWord(bw, r.Origin+i, word)
	}
	for i, word := range r.Data {
		writeWord(bw, r.Origin+len(r.Code)+i, word)
	}
	return bw.Flush()
}

func writeWord(w io.Writer, addr int, word asm15.Word) {
	fmt.Fprintf(w, "0%d\t%05o\n", addr, uint16(word&asm15.WordMask))
}

// writeSites writes one record per entry or external reference site.
func writeSites(w io.Writer, sites []Site) error {
	bw := bufio.NewWriter(w)
	for _, s := range sites {
		fmt.Fprintf(bw, "%s\t0%d \n", s.Name, s.Addr)
	}
	return bw.Flush()
}

// ReadObj parses a textual object file back into a word image. It
// returns the image's origin address and the code and data words in
// address order.
func ReadObj(r io.Reader) (origin int, words []asm15.Word, err error) {
	sc := bufio.NewScanner(r)

	// Header: code and data lengths.
	var icLen, dcLen int
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if _, err := fmt.Sscanf(line, "%d %d", &icLen, &dcLen); err != nil {
			return 0, nil, fmt.Errorf("malformed object header %q", line)
		}
		break
	}

	origin = asm15.CodeOrigin
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var addr int
		var value uint64
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return 0, nil, fmt.Errorf("malformed object record %q", line)
		}
		if addr, err = strconv.Atoi(fields[0]); err != nil {
			return 0, nil, fmt.Errorf("malformed object address %q", fields[0])
		}
		if value, err = strconv.ParseUint(fields[1], 8, 16); err != nil {
			return 0, nil, fmt.Errorf("malformed object word %q", fields[1])
		}
		if first {
			origin, first = addr, false
		}
		words = append(words, asm15.Word(value)&asm15.WordMask)
	}
	if err := sc.Err(); err != nil {
		return 0, nil, err
	}
	if len(words) != icLen+dcLen {
		return 0, nil, fmt.Errorf("object image holds %d words, header says %d",
			len(words), icLen+dcLen)
	}
	return origin, words, nil
}

// writeExpanded writes the macro-expanded source.
func writeExpanded(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		fmt.Fprintln(bw, l)
	}
	return bw.Flush()
}

// writeArtifacts emits the .ob, .ent and .ext files for a clean run.
// Auxiliary files with no sites are removed rather than left empty.
func (a *assembler) writeArtifacts(prefix string, r *Result) error {
	obj, err := os.Create(prefix + ObjectSuffix)
	if err != nil {
		a.report(0, FailedToOpenFile)
		return err
	}
	defer obj.Close()
	if err := r.WriteObj(obj); err != nil {
		return err
	}

	if err := a.writeSiteFile(prefix+EntrySuffix, r.Entries); err != nil {
		return err
	}
	return a.writeSiteFile(prefix+ExternSuffix, r.Externs)
}

// writeSiteFile writes a .ent/.ext artifact, or removes a stale one
// when there are no sites to record. Removal is idempotent.
func (a *assembler) writeSiteFile(name string, sites []Site) error {
	if len(sites) == 0 {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			a.report(0, FailedToRemoveFile)
			return err
		}
		return nil
	}

	f, err := os.Create(name)
	if err != nil {
		a.report(0, FailedToOpenFile)
		return err
	}
	defer f.Close()
	return writeSites(f, sites)
}
