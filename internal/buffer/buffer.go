// Package buffer implements the line-addressed text buffer edited by the
// annotator. Lines are 1-based; every mutation is recorded in an undo group.
package buffer

import (
	"fmt"
	"strings"
)

// Region is an inclusive range of 1-based line numbers.
type Region struct {
	First int
	Last  int
}

// Len returns the number of lines covered by the region.
func (r Region) Len() int {
	if r.Last < r.First {
		return 0
	}
	return r.Last - r.First + 1
}

type edit struct {
	line        int
	removed     []string
	removedEnds []string
	inserted    []string
}

// Buffer holds the text of one open file. Each line keeps the ending it was
// read with; inserted lines use the most common one.
type Buffer struct {
	lines    []string
	ends     []string
	newline  string
	trailing bool
	original string

	undo  [][]edit
	open  []edit
	depth int
}

// New splits text into lines. Line endings and a trailing newline are
// remembered so that String returns the text byte for byte when nothing
// changed.
func New(text string) *Buffer {
	b := &Buffer{newline: "\n", original: text}
	if text == "" {
		return b
	}
	pieces := strings.Split(text, "\n")
	if pieces[len(pieces)-1] == "" {
		pieces = pieces[:len(pieces)-1]
		b.trailing = true
	}

	crlf := 0
	b.lines = make([]string, len(pieces))
	b.ends = make([]string, len(pieces))
	for i, piece := range pieces {
		b.ends[i] = "\n"
		terminated := i < len(pieces)-1 || b.trailing
		if terminated && strings.HasSuffix(piece, "\r") {
			piece = strings.TrimSuffix(piece, "\r")
			b.ends[i] = "\r\n"
			crlf++
		}
		b.lines[i] = piece
	}
	if crlf*2 > len(pieces) {
		b.newline = "\r\n"
	}
	if !b.trailing {
		b.ends[len(b.ends)-1] = b.newline
	}
	return b
}

// String returns the current text.
func (b *Buffer) String() string {
	var sb strings.Builder
	for i, line := range b.lines {
		sb.WriteString(line)
		if i < len(b.lines)-1 || b.trailing {
			sb.WriteString(b.ends[i])
		}
	}
	return sb.String()
}

// Modified reports whether the text differs from what New received.
func (b *Buffer) Modified() bool {
	return b.String() != b.original
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Line returns the text of line n without its newline, or "" when n is out
// of range.
func (b *Buffer) Line(n int) string {
	if n < 1 || n > len(b.lines) {
		return ""
	}
	return b.lines[n-1]
}

// Lines returns a copy of all lines.
func (b *Buffer) Lines() []string {
	return append([]string(nil), b.lines...)
}

// Replace substitutes count lines starting at line with text. line may be
// LineCount()+1 to append.
func (b *Buffer) Replace(line int, count int, text ...string) error {
	if line < 1 || line > len(b.lines)+1 {
		return fmt.Errorf("line %d out of range [1, %d]", line, len(b.lines)+1)
	}
	if count < 0 || line-1+count > len(b.lines) {
		return fmt.Errorf("cannot replace %d lines at line %d of %d", count, line, len(b.lines))
	}
	if len(b.lines) == 0 && len(text) > 0 {
		b.trailing = true
	}

	removed := append([]string(nil), b.lines[line-1:line-1+count]...)
	removedEnds := append([]string(nil), b.ends[line-1:line-1+count]...)
	ends := make([]string, len(text))
	for i := range ends {
		ends[i] = b.newline
	}
	b.splice(line, count, text, ends)
	b.record(edit{
		line:        line,
		removed:     removed,
		removedEnds: removedEnds,
		inserted:    append([]string(nil), text...),
	})
	return nil
}

// Insert places text above line.
func (b *Buffer) Insert(line int, text ...string) error {
	return b.Replace(line, 0, text...)
}

// Delete removes count lines starting at line.
func (b *Buffer) Delete(line int, count int) error {
	return b.Replace(line, count)
}

func (b *Buffer) splice(line int, count int, text []string, ends []string) {
	tail := append([]string(nil), b.lines[line-1+count:]...)
	b.lines = append(append(b.lines[:line-1], text...), tail...)
	endsTail := append([]string(nil), b.ends[line-1+count:]...)
	b.ends = append(append(b.ends[:line-1], ends...), endsTail...)
}

func (b *Buffer) record(e edit) {
	b.open = append(b.open, e)
	if b.depth == 0 {
		b.flush()
	}
}

func (b *Buffer) flush() {
	if len(b.open) > 0 {
		b.undo = append(b.undo, b.open)
	}
	b.open = nil
}

// Group opens an undo group. Every edit made until the returned function is
// called is undone as one step. Groups nest; only the outermost one counts.
func (b *Buffer) Group() (end func()) {
	b.depth++
	closed := false
	return func() {
		if closed {
			return
		}
		closed = true
		b.depth--
		if b.depth == 0 {
			b.flush()
		}
	}
}

// UndoSteps returns the number of groups that Undo can revert.
func (b *Buffer) UndoSteps() int {
	return len(b.undo)
}

// Undo reverts the most recent closed group. It returns false when there is
// nothing to undo.
func (b *Buffer) Undo() bool {
	if len(b.undo) == 0 {
		return false
	}
	last := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]
	for i := len(last) - 1; i >= 0; i-- {
		e := last[i]
		b.splice(e.line, len(e.inserted), e.removed, e.removedEnds)
	}
	return true
}
