package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/CoolCat467/idletypecheck/internal/buffer"
	"github.com/CoolCat467/idletypecheck/internal/config"
)

const defaultWidth = 100

var (
	lineColor  = color.New(color.FgHiBlack)
	errorColor = color.New(color.FgRed)
	noteColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
)

func newNextCmd(a *app) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "next FILE",
		Short: "Print the line of the next inserted comment after --line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd, args[0])
			if err != nil {
				return err
			}
			if _, err := ws.sess.FindNext(); err != nil {
				return classify(err)
			}
			found := ws.sess.Outcome().Found
			out := cmd.OutOrStdout()

			if list {
				listComments(out, ws.buf, ws.sess.Comments(), found, ws.sess.Config())
				return nil
			}
			if found == 0 {
				return newExitError(ExitCodeNotFound, fmt.Errorf("no comment after line %d", ws.cfg.Line))
			}
			_, err = fmt.Fprintln(out, found)
			return err
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "List every inserted comment, marking the next one")
	return cmd
}

// listComments prints one row per comment line, cut to the terminal width.
func listComments(w io.Writer, buf *buffer.Buffer, lines []int, next int, cfg config.Config) {
	colored := colorFor(w)
	width := terminalWidth(w)
	for _, n := range lines {
		marker := "  "
		if n == next {
			marker = "> "
		}
		head := fmt.Sprintf("%s%5d  ", marker, n)
		text := strings.TrimPrefix(strings.TrimSpace(buf.Line(n)), cfg.Prefix)
		text = runewidth.Truncate(text, width-runewidth.StringWidth(head), "…")
		if colored {
			head = lineColor.Sprint(head)
			text = severityColor(text).Sprint(text)
		}
		fmt.Fprintln(w, head+text)
	}
}

func severityColor(text string) *color.Color {
	switch {
	case strings.Contains(text, "error:"), strings.HasPrefix(text, "Error running"):
		return errorColor
	case strings.Contains(text, "warning:"):
		return warnColor
	case strings.Contains(text, "note:"):
		return noteColor
	}
	return color.New(color.Reset)
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
