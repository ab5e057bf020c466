package annotate

import (
	"fmt"

	"github.com/CoolCat467/idletypecheck/internal/buffer"
)

// RemoveAll deletes every comment line from the buffer as one undo step.
// It returns the number of lines removed.
func (a *Annotator) RemoveAll() (int, error) {
	return a.removeIn(buffer.Region{First: 1, Last: a.buf.LineCount()})
}

// RemoveSelected deletes the comment lines inside region and returns the
// region shrunk by the removed lines.
func (a *Annotator) RemoveSelected(region buffer.Region) (buffer.Region, int, error) {
	if region.First < 1 {
		region.First = 1
	}
	if region.Last > a.buf.LineCount() {
		region.Last = a.buf.LineCount()
	}
	removed, err := a.removeIn(region)
	region.Last -= removed
	return region, removed, err
}

func (a *Annotator) removeIn(region buffer.Region) (int, error) {
	end := a.buf.Group()
	defer end()

	removed := 0
	for n := region.Last; n >= region.First; n-- {
		if !a.IsComment(a.buf.Line(n)) {
			continue
		}
		if err := a.buf.Delete(n, 1); err != nil {
			return removed, fmt.Errorf("remove comment at line %d: %w", n, err)
		}
		removed++
	}
	return removed, nil
}

// FindNext returns the first comment line after line. With wrap the search
// continues from the top of the buffer up to line itself.
func (a *Annotator) FindNext(line int, wrap bool) (int, bool) {
	for n := line + 1; n <= a.buf.LineCount(); n++ {
		if a.IsComment(a.buf.Line(n)) {
			return n, true
		}
	}
	if !wrap {
		return 0, false
	}
	for n := 1; n <= line && n <= a.buf.LineCount(); n++ {
		if a.IsComment(a.buf.Line(n)) {
			return n, true
		}
	}
	return 0, false
}

// Comments returns the line numbers of all comment lines.
func (a *Annotator) Comments() []int {
	var lines []int
	for n := 1; n <= a.buf.LineCount(); n++ {
		if a.IsComment(a.buf.Line(n)) {
			lines = append(lines, n)
		}
	}
	return lines
}
