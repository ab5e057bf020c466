package comment

import (
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

const separator = ": "

var errorCode = regexp.MustCompile(`  \[([a-z\-]+)\]\s*$`)

// Files groups parsed comments by file, keeping encounter order.
type Files struct {
	order  []string
	byFile map[string][]Comment
}

// Add appends c to the group of its file.
func (f *Files) Add(c Comment) {
	if f.byFile == nil {
		f.byFile = map[string][]Comment{}
	}
	if _, ok := f.byFile[c.File]; !ok {
		f.order = append(f.order, c.File)
	}
	f.byFile[c.File] = append(f.byFile[c.File], c)
}

// Names returns file names in the order they were first seen.
func (f Files) Names() []string {
	return append([]string(nil), f.order...)
}

// Get returns the comments recorded for file.
func (f Files) Get(file string) []Comment {
	return f.byFile[file]
}

// Has reports whether any comment refers to file.
func (f Files) Has(file string) bool {
	return len(f.byFile[file]) > 0
}

// Len returns the total number of comments over all files.
func (f Files) Len() int {
	n := 0
	for _, group := range f.byFile {
		n += len(group)
	}
	return n
}

// Parser turns a checker's textual report into comments.
type Parser struct {
	// DriveLetters keeps a leading "X:" with the path instead of reading it
	// as a location field.
	DriveLetters bool
}

// NewParser returns a parser configured for the running platform.
func NewParser() Parser {
	return Parser{DriveLetters: runtime.GOOS == "windows"}
}

// Parse parses report with the platform default parser.
func Parse(report string, defaultFile string, defaultLine int) Files {
	return NewParser().Parse(report, defaultFile, defaultLine)
}

// Parse splits report into lines and converts each non-blank line into a
// Comment. Lines without a location are attached to defaultFile at
// defaultLine.
func (p Parser) Parse(report string, defaultFile string, defaultLine int) Files {
	var files Files
	for _, raw := range strings.Split(report, "\n") {
		raw = strings.TrimRight(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		files.Add(p.ParseLine(raw, defaultFile, defaultLine))
	}
	return files
}

// ParseLine converts one report line.
func (p Parser) ParseLine(raw string, defaultFile string, defaultLine int) Comment {
	c := New(defaultFile, defaultLine, raw)
	if strings.Count(raw, separator) < 2 {
		return c
	}

	parts := strings.SplitN(raw, separator, 3)
	where, severity, text := parts[0], parts[1], parts[2]
	p.parseLocation(where, &c)

	if m := errorCode.FindStringSubmatchIndex(text); m != nil {
		severity = "[" + text[m[2]:m[3]] + "] " + severity
		text = text[:m[0]]
	}
	c.Contents = severity + separator + text
	return c
}

// parseLocation reads path[:line[:col[:line_end:col_end]]] into c.
func (p Parser) parseLocation(where string, c *Comment) {
	drive := ""
	if p.DriveLetters && hasDrivePrefix(where) {
		drive, where = where[:2], where[2:]
	}

	fields := strings.Split(where, ":")
	n := 0
	for n < 4 && n < len(fields)-1 && isNumber(fields[len(fields)-1-n]) {
		n++
	}
	c.File = drive + strings.Join(fields[:len(fields)-n], ":")

	nums := make([]int, n)
	for i, field := range fields[len(fields)-n:] {
		nums[i], _ = strconv.Atoi(field)
	}
	if n > 0 {
		c.Line = nums[0]
		c.LineEnd = c.Line
	}
	if n > 1 {
		c.Column = nums[1]
		c.ColumnEnd = c.Column
	}
	if n > 3 {
		c.LineEnd = nums[2]
		c.ColumnEnd = nums[3]
	}
}

func hasDrivePrefix(s string) bool {
	if len(s) < 2 || s[1] != ':' {
		return false
	}
	ch := s[0]
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
