// Copyright 2026 Oren Segal. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// An fstring is a string that keeps track of its position within the
// source from which it was read.
type fstring struct {
	row    int    // 1-based line number of the substring
	column int    // 0-based column of the start of the substring
	str    string // the substring of interest
	full   string // the full line as read from the source
}

func newFstring(row int, str string) fstring {
	return fstring{row, 0, str, str}
}

func (l fstring) String() string {
	return l.str
}

func (l fstring) consume(n int) fstring {
	return fstring{l.row, l.column + n, l.str[n:], l.full}
}

func (l fstring) trunc(n int) fstring {
	return fstring{l.row, l.column, l.str[:n], l.full}
}

func (l *fstring) isEmpty() bool {
	return len(l.str) == 0
}

func (l *fstring) startsWithChar(c byte) bool {
	return len(l.str) > 0 && l.str[0] == c
}

func (l *fstring) scanWhile(fn func(c byte) bool) int {
	i := 0
	for ; i < len(l.str) && fn(l.str[i]); i++ {
	}
	return i
}

func (l *fstring) scanUntil(fn func(c byte) bool) int {
	i := 0
	for ; i < len(l.str) && !fn(l.str[i]); i++ {
	}
	return i
}

func (l *fstring) scanUntilChar(c byte) int {
	i := 0
	for ; i < len(l.str) && l.str[i] != c; i++ {
	}
	return i
}

func (l fstring) consumeWhitespace() fstring {
	return l.consume(l.scanWhile(whitespace))
}

func (l *fstring) consumeUntil(fn func(c byte) bool) (consumed, remain fstring) {
	i := l.scanUntil(fn)
	consumed, remain = l.trunc(i), l.consume(i)
	return
}

func (l *fstring) consumeUntilChar(c byte) (consumed, remain fstring) {
	i := l.scanUntilChar(c)
	consumed, remain = l.trunc(i), l.consume(i)
	return
}

// consumeWord consumes a whitespace-delimited token and the whitespace
// that follows it.
func (l fstring) consumeWord() (word, remain fstring) {
	word, remain = l.consumeUntil(whitespace)
	remain = remain.consumeWhitespace()
	return
}

// stripComment truncates the line at the first ';' that appears outside
// a string literal.
func (l fstring) stripComment() fstring {
	inString := false
	for i := 0; i < len(l.str); i++ {
		switch {
		case l.str[i] == '"':
			inString = !inString
		case l.str[i] == ';' && !inString:
			return l.trunc(i)
		}
	}
	return l
}

// collapse squeezes every run of spaces and tabs into a single space,
// except between the first and last '"' of the line, where interior
// whitespace belongs to the string literal. Leading and trailing
// whitespace is removed. The result is idempotent.
func (l fstring) collapse() fstring {
	first := l.scanUntilChar('"')
	last := -1
	if first < len(l.str) {
		for i := len(l.str) - 1; i > first; i-- {
			if l.str[i] == '"' {
				last = i
				break
			}
		}
	}

	out := make([]byte, 0, len(l.str))
	space := false
	for i := 0; i < len(l.str); i++ {
		c := l.str[i]
		if whitespace(c) && (last < 0 || i < first || i > last) {
			space = len(out) > 0
			continue
		}
		if space {
			out = append(out, ' ')
			space = false
		}
		out = append(out, c)
	}
	return fstring{l.row, l.column, string(out), l.full}
}

// trimLine produces the trimmed logical line for a raw source line:
// comments stripped, whitespace collapsed outside string literals. A
// line that was entirely comment or whitespace becomes empty.
func trimLine(row int, text string) fstring {
	return newFstring(row, text).stripComment().collapse()
}

//
// character helper functions
//

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func alpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func alnum(c byte) bool {
	return alpha(c) || decimal(c)
}

func macroNameChar(c byte) bool {
	return alnum(c) || c == '_'
}
