// Package annotate maps checker diagnostics onto comment lines of a buffer.
//
// Comments are written above the line they refer to, at that line's
// indentation, behind a fixed marker prefix. The marker is what later
// removal and navigation look for, so an Annotator must be built with the
// same prefix for every operation on a buffer.
package annotate

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/CoolCat467/idletypecheck/internal/buffer"
	"github.com/CoolCat467/idletypecheck/internal/comment"
)

// Options configures an Annotator.
type Options struct {
	// Prefix marks every inserted line, e.g. "# typecheck: ".
	Prefix string
	// Ignore lists doublestar globs; other files matching one of them are
	// not summarized in "Another file has errors" notices.
	Ignore []string
	// Parser parses checker reports. The zero value uses comment.NewParser.
	Parser *comment.Parser
}

// Annotator edits one buffer whose absolute path is file.
type Annotator struct {
	buf    *buffer.Buffer
	file   string
	prefix string
	ignore []string
	parser comment.Parser
}

// New returns an Annotator for buf.
func New(buf *buffer.Buffer, file string, opts Options) *Annotator {
	parser := comment.NewParser()
	if opts.Parser != nil {
		parser = *opts.Parser
	}
	return &Annotator{
		buf:    buf,
		file:   file,
		prefix: opts.Prefix,
		ignore: append([]string(nil), opts.Ignore...),
		parser: parser,
	}
}

// Result lists, per file, the target lines that received at least one new
// comment.
type Result struct {
	Lines map[string][]int
}

func (r *Result) add(file string, line int) {
	if r.Lines == nil {
		r.Lines = map[string][]int{}
	}
	for _, l := range r.Lines[file] {
		if l == line {
			return
		}
	}
	r.Lines[file] = append(r.Lines[file], line)
	sort.Ints(r.Lines[file])
}

// Count returns the number of modified target lines over all files.
func (r Result) Count() int {
	n := 0
	for _, lines := range r.Lines {
		n += len(lines)
	}
	return n
}

// IsComment reports whether line is one of ours.
func (a *Annotator) IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), a.prefix)
}

// Render returns the text of a comment line at the given indentation.
func (a *Annotator) Render(indent string, contents string) string {
	return indent + a.prefix + contents
}

// codeLine returns the first line at or below line that is not a comment.
func (a *Annotator) codeLine(line int) string {
	n := line
	for n <= a.buf.LineCount() && a.IsComment(a.buf.Line(n)) {
		n++
	}
	return a.buf.Line(n)
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// AddComments inserts comments for the annotator's file, adding a caret
// pointer line under every group that carries column information. Comments
// for other files are skipped. All edits form one undo step.
func (a *Annotator) AddComments(comments []comment.Comment) (Result, error) {
	end := a.buf.Group()
	defer end()

	byLine := map[int][]comment.Comment{}
	for _, c := range comments {
		if c.File != a.file {
			slog.Debug("skipping comment for another file", "comment", c.String())
			continue
		}
		c.Line = a.clamp(c.Line)
		byLine[c.Line] = append(byLine[c.Line], c)
	}

	lines := make([]int, 0, len(byLine))
	total := 0
	for line, group := range byLine {
		if p, ok := a.Pointer(group); ok {
			byLine[line] = append(group, p)
		}
		lines = append(lines, line)
		total += len(byLine[line])
	}
	sort.Sort(sort.Reverse(sort.IntSlice(lines)))

	// Filter against the buffer as it was before this batch so comments
	// inserted for one line never hide those of a neighbour.
	for _, line := range lines {
		byLine[line] = a.missing(line, byLine[line], total)
	}

	var result Result
	for _, line := range lines {
		added, err := a.insertGroup(line, byLine[line])
		if err != nil {
			return result, err
		}
		if added > 0 {
			result.add(a.file, line)
		}
	}
	return result, nil
}

// clamp keeps a reported line inside the editable range.
func (a *Annotator) clamp(line int) int {
	if line < 1 {
		return 1
	}
	if last := a.buf.LineCount() + 1; line > last {
		return last
	}
	return line
}

// missing drops the comments of group that are already present around
// line, along with repeats inside group.
func (a *Annotator) missing(line int, group []comment.Comment, window int) []comment.Comment {
	seen := make(map[string]struct{}, len(group))
	kept := group[:0:0]
	for _, c := range group {
		if _, dup := seen[c.Contents]; dup {
			continue
		}
		seen[c.Contents] = struct{}{}
		if a.Exists(line, c.Contents, window) {
			slog.Debug("comment already present", "comment", c.String())
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// insertGroup writes group above line so that group[0] ends up on top.
func (a *Annotator) insertGroup(line int, group []comment.Comment) (int, error) {
	added := 0
	for i := len(group) - 1; i >= 0; i-- {
		c := group[i]
		text := a.Render(indentOf(a.codeLine(line)), c.Contents)
		if err := a.buf.Insert(line, text); err != nil {
			return added, fmt.Errorf("insert comment at line %d: %w", line, err)
		}
		added++
	}
	return added, nil
}

// AddMessages parses a checker report and annotates the buffer with the
// diagnostics of its own file. Unlocated lines land on startLine. Every
// other reporting file gets one notice on the first annotated line, or on
// startLine when the buffer's file has no diagnostics.
func (a *Annotator) AddMessages(report string, startLine int) (Result, error) {
	if a.file == comment.UnknownFile {
		return Result{}, nil
	}
	files := a.parser.Parse(report, a.file, startLine)

	current := append([]comment.Comment(nil), files.Get(a.file)...)
	noticeLine := startLine
	for i, c := range current {
		if i == 0 || c.Line < noticeLine {
			noticeLine = c.Line
		}
	}

	for _, name := range files.Names() {
		if name == a.file || name == comment.UnknownFile {
			continue
		}
		if a.ignored(name) {
			slog.Debug("ignoring diagnostics of another file", "file", name)
			continue
		}
		current = append(current, comment.New(a.file, noticeLine, fmt.Sprintf("Another file has errors: '%s'", name)))
	}
	return a.AddComments(current)
}

func (a *Annotator) ignored(name string) bool {
	path := filepath.ToSlash(name)
	for _, pattern := range a.ignore {
		if ok, _ := doublestar.Match(filepath.ToSlash(pattern), path); ok {
			return true
		}
	}
	return false
}

// AddBlock inserts lines as consecutive comments above startLine, the
// first one carrying prefix. It returns how many lines were attempted and
// the target lines that changed.
func (a *Annotator) AddBlock(startLine int, lines []string, prefix string) (int, []int, error) {
	if len(lines) == 0 {
		return 0, nil, nil
	}
	end := a.buf.Group()
	defer end()

	line := a.clamp(startLine)
	group := make([]comment.Comment, len(lines))
	for i, text := range lines {
		if i == 0 {
			text = prefix + text
		}
		group[i] = comment.New(a.file, line, text)
	}

	added, err := a.insertGroup(line, a.missing(line, group, len(group)))
	if err != nil || added == 0 {
		return len(lines), nil, err
	}
	return len(lines), []int{line}, nil
}
