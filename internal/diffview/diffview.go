// Package diffview renders buffer edits as a unified diff.
package diffview

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Unified returns the unified diff turning before into after, or "" when
// they are equal. Line endings are compared as "\n".
func Unified(path string, before string, after string) string {
	before = strings.ReplaceAll(before, "\r\n", "\n")
	after = strings.ReplaceAll(after, "\r\n", "\n")
	if before == after {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(path), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(path, path, before, edits))
}

var (
	addColor  = forced(color.FgGreen)
	delColor  = forced(color.FgRed)
	hunkColor = forced(color.FgCyan)
)

// forced ignores color.NoColor; callers decide through Colorize.
func forced(attr color.Attribute) *color.Color {
	c := color.New(attr)
	c.EnableColor()
	return c
}

// Colorize highlights added, removed and hunk header lines of diff.
func Colorize(diff string, enabled bool) string {
	if !enabled || diff == "" {
		return diff
	}
	lines := strings.SplitAfter(diff, "\n")
	var sb strings.Builder
	for _, line := range lines {
		body := strings.TrimSuffix(line, "\n")
		nl := line[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			sb.WriteString(line)
			continue
		case strings.HasPrefix(body, "@@"):
			body = hunkColor.Sprint(body)
		case strings.HasPrefix(body, "+"):
			body = addColor.Sprint(body)
		case strings.HasPrefix(body, "-"):
			body = delColor.Sprint(body)
		}
		sb.WriteString(body)
		sb.WriteString(nl)
	}
	return sb.String()
}
