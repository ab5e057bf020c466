package comment

import "fmt"

// UnknownFile is the file name used when a buffer has no path on disk.
const UnknownFile = "<unknown file>"

// Comment is one checker diagnostic or synthesized line to be inserted
// immediately above Line in File.
type Comment struct {
	File      string
	Line      int
	Contents  string
	Column    int
	LineEnd   int
	ColumnEnd int
}

// New constructs a single-line Comment without column information.
func New(file string, line int, contents string) Comment {
	return Comment{
		File:     file,
		Line:     line,
		Contents: contents,
		LineEnd:  line,
	}
}

// String formats the comment with its location, mirroring checker output.
func (c Comment) String() string {
	location := c.File
	if c.Line > 0 {
		location = fmt.Sprintf("%s:%d", c.File, c.Line)
		if c.Column > 0 {
			location = fmt.Sprintf("%s:%d", location, c.Column)
		}
	}
	return fmt.Sprintf("%s: %s", location, c.Contents)
}

// End returns the last line and column covered by the comment span.
func (c Comment) End() (int, int) {
	line, col := c.LineEnd, c.ColumnEnd
	if line < c.Line {
		line = c.Line
	}
	if line == c.Line && col < c.Column {
		col = c.Column
	}
	return line, col
}
