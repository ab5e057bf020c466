package annotate

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/CoolCat467/idletypecheck/internal/comment"
)

// Exists reports whether the comment rendering of contents is already near
// line. It looks upward from line-1 through the attached block of comment
// lines and downward over line..line+window, past code lines, since comments
// inserted lower in the file push earlier ones down. Each direction looks at
// no more than window lines.
func (a *Annotator) Exists(line int, contents string, window int) bool {
	want := strings.TrimSpace(a.prefix + contents)
	if window < 1 {
		window = 1
	}
	matches := func(n int) bool {
		return strings.TrimSpace(a.buf.Line(n)) == want
	}

	for n, seen := line-1, 0; n >= 1 && seen < window && a.IsComment(a.buf.Line(n)); n, seen = n-1, seen+1 {
		if matches(n) {
			return true
		}
	}
	for n := line; n <= a.buf.LineCount() && n <= line+window; n++ {
		if matches(n) {
			return true
		}
	}
	return false
}

// Pointer builds the caret line marking the columns of messages, which all
// target the same line. Columns refer to the code line below any comments
// already sitting at the target. The caret line is itself a comment, so
// columns left of where the comment text starts cannot be marked. It returns
// false when no column can be marked.
func (a *Annotator) Pointer(messages []comment.Comment) (comment.Comment, bool) {
	if len(messages) == 0 {
		return comment.Comment{}, false
	}
	target := messages[0].Line
	code := a.codeLine(target)
	width := utf8.RuneCountInString(code)

	covered := map[int]struct{}{}
	for _, m := range messages {
		endLine, end := m.End()
		if endLine > m.Line || end > width {
			end = width
		}
		for col := m.Column; col <= end; col++ {
			covered[col] = struct{}{}
		}
	}
	cols := make([]int, 0, len(covered))
	for col := range covered {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	lastcol := utf8.RuneCountInString(a.prefix) + utf8.RuneCountInString(indentOf(code)) + 1
	var carets strings.Builder
	for _, col := range cols {
		if col < lastcol || col > width {
			continue
		}
		carets.WriteString(strings.Repeat(" ", col-lastcol))
		carets.WriteByte('^')
		lastcol = col + 1
	}

	if strings.TrimSpace(carets.String()) == "" {
		return comment.Comment{}, false
	}
	return comment.New(messages[0].File, target, carets.String()), true
}
