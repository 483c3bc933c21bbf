// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/beevik/term"
	"github.com/orens/asm15/asm"
	"github.com/orens/asm15/host"
)

var (
	interactive bool
	verbose     bool
)

func init() {
	flag.BoolVar(&interactive, "i", false, "start the interactive host")
	flag.BoolVar(&verbose, "v", false, "verbose assembler output")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: asm15 [options] file ...\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	args := flag.Args()

	if !interactive && len(args) == 0 {
		flag.CommandLine.Usage()
		return
	}

	// Assemble each translation unit named on the command line. Each
	// argument names a source without its extension. Diagnostics are
	// printed to standard output and never affect the exit code.
	rep := &asm.ConsoleReporter{W: os.Stdout}
	var opts asm.Option
	if verbose {
		opts |= asm.Verbose
	}
	for _, name := range args {
		if _, err := asm.AssembleFile(name, rep, os.Stdout, opts); err != nil {
			fmt.Printf("Failed to assemble %s%s.\n", name, asm.SourceSuffix)
		}
	}

	if interactive {
		h := host.New()
		h.RunCommands(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
	}
}
