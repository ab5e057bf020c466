package logging

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var levelColors = []struct {
	level string
	color *color.Color
}{
	{"ERROR", forcedColor(color.FgRed)},
	{"WARN", forcedColor(color.FgYellow)},
	{"INFO", forcedColor(color.FgGreen)},
	{"DEBUG", forcedColor(color.FgCyan)},
}

// forcedColor ignores color.NoColor; the caller decides whether to colorize.
func forcedColor(attr color.Attribute) *color.Color {
	c := color.New(attr)
	c.EnableColor()
	return c
}

// Configure sets a default slog logger with colorized levels on interactive terminals.
func Configure(verbose bool) {
	slog.SetDefault(New(os.Stderr, verbose, ColorEnabled(os.Stderr)))
}

// New builds a text logger writing to out.
func New(out io.Writer, verbose bool, colored bool) *slog.Logger {
	if colored {
		out = colorizingWriter{out: out}
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

type colorizingWriter struct {
	out io.Writer
}

func (w colorizingWriter) Write(p []byte) (int, error) {
	colored := p
	for _, lc := range levelColors {
		colored = bytes.ReplaceAll(colored, []byte("level="+lc.level), []byte("level="+lc.color.Sprint(lc.level)))
	}

	if _, err := w.out.Write(colored); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ColorEnabled reports whether f should receive ANSI colors.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("CLICOLOR_FORCE") == "1" {
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return IsTerminal(f)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
