package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/CoolCat467/idletypecheck/internal/comment"
)

// CommentItem is the report-friendly representation of one diagnostic.
type CommentItem struct {
	File      string `json:"file" yaml:"file"`
	Line      int    `json:"line" yaml:"line"`
	Column    int    `json:"column,omitempty" yaml:"column,omitempty"`
	LineEnd   int    `json:"line_end,omitempty" yaml:"line_end,omitempty"`
	ColumnEnd int    `json:"column_end,omitempty" yaml:"column_end,omitempty"`
	Contents  string `json:"contents" yaml:"contents"`
}

// ToCommentItem converts a parsed diagnostic.
func ToCommentItem(c comment.Comment) CommentItem {
	item := CommentItem{
		File:      c.File,
		Line:      c.Line,
		Column:    c.Column,
		ColumnEnd: c.ColumnEnd,
		Contents:  c.Contents,
	}
	if c.LineEnd != c.Line {
		item.LineEnd = c.LineEnd
	}
	return item
}

// FromFiles flattens parsed diagnostics in file encounter order.
func FromFiles(files comment.Files) []CommentItem {
	var items []CommentItem
	for _, name := range files.Names() {
		for _, c := range files.Get(name) {
			items = append(items, ToCommentItem(c))
		}
	}
	return items
}

// Summary contains aggregate results of one command.
type Summary struct {
	Command      string `json:"command" yaml:"command"`
	Dispatch     string `json:"dispatch" yaml:"dispatch"`
	Status       int    `json:"checker_status" yaml:"checker_status"`
	Comments     int    `json:"comments" yaml:"comments"`
	OtherFiles   int    `json:"other_files" yaml:"other_files"`
	LinesChanged int    `json:"lines_changed" yaml:"lines_changed"`
	Removed      int    `json:"removed" yaml:"removed"`
	Saved        bool   `json:"saved" yaml:"saved"`
	Failed       bool   `json:"failed" yaml:"failed"`
	Unavailable  bool   `json:"unavailable" yaml:"unavailable"`
}

// RunReport is the structured report persisted by --report-json and
// --report-yaml.
type RunReport struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	GeneratedAt  string        `json:"generated_at" yaml:"generated_at"`
	File         string        `json:"file" yaml:"file"`
	Summary      Summary       `json:"summary" yaml:"summary"`
	ChangedLines []int         `json:"changed_lines,omitempty" yaml:"changed_lines,omitempty"`
	Comments     []CommentItem `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// NewRunReport builds a report payload with RFC3339 generation timestamp.
func NewRunReport(runID string, file string, summary Summary, changed []int, comments []CommentItem) RunReport {
	lines := append([]int(nil), changed...)
	sort.Ints(lines)
	return RunReport{
		RunID:        runID,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		File:         file,
		Summary:      summary,
		ChangedLines: lines,
		Comments:     comments,
	}
}

func prepare(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// WriteJSON writes the full JSON report if path is non-empty.
func WriteJSON(path string, report RunReport) error {
	if path == "" {
		return nil
	}
	if err := prepare(path); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	return os.WriteFile(path, raw, 0o644)
}

// WriteYAML writes the full YAML report if path is non-empty.
func WriteYAML(path string, report RunReport) error {
	if path == "" {
		return nil
	}
	if err := prepare(path); err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	enc := yaml.NewEncoder(fh)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

// WriteCSV writes one row per diagnostic if path is non-empty.
func WriteCSV(path string, report RunReport) error {
	if path == "" {
		return nil
	}
	if err := prepare(path); err != nil {
		return err
	}

	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	defer w.Flush()

	header := []string{
		"run_id",
		"file",
		"line",
		"column",
		"line_end",
		"column_end",
		"contents",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	copied := append([]CommentItem(nil), report.Comments...)
	sort.SliceStable(copied, func(i, j int) bool {
		if copied[i].File != copied[j].File {
			return copied[i].File < copied[j].File
		}
		return copied[i].Line < copied[j].Line
	})

	for _, item := range copied {
		row := []string{
			report.RunID,
			item.File,
			strconv.Itoa(item.Line),
			strconv.Itoa(item.Column),
			strconv.Itoa(item.LineEnd),
			strconv.Itoa(item.ColumnEnd),
			item.Contents,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
