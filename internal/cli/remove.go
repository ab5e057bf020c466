package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoolCat467/idletypecheck/internal/buffer"
	"github.com/CoolCat467/idletypecheck/internal/session"
)

func newRemoveCmd(a *app) *cobra.Command {
	var (
		all      bool
		from, to int
	)
	cmd := &cobra.Command{
		Use:   "remove FILE",
		Short: "Remove inserted comments from FILE",
		Long: "Remove inserted comments from FILE. Without --all or a --from/--to " +
			"range only the cursor line given by --line is considered.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && (cmd.Flags().Changed("from") || cmd.Flags().Changed("to")) {
				return newExitError(ExitCodeInvalidUsage, errors.New("--all cannot be combined with --from/--to"))
			}
			ws, err := a.open(cmd, args[0])
			if err != nil {
				return err
			}

			var d session.Dispatch
			if all {
				d, err = ws.sess.RemoveAll()
			} else {
				region, rerr := selection(ws.cfg.Line, from, to)
				if rerr != nil {
					return newExitError(ExitCodeInvalidUsage, rerr)
				}
				d, err = ws.sess.RemoveSelected(region)
			}
			if err != nil {
				return classify(err)
			}

			if _, err := ws.finish(cmd); err != nil {
				return err
			}
			if err := writeReports(ws.sess.Config(), ws.sess.Outcome(), d); err != nil {
				return fmt.Errorf("write reports: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove every inserted comment")
	cmd.Flags().IntVar(&from, "from", 0, "First line of the selection")
	cmd.Flags().IntVar(&to, "to", 0, "Last line of the selection (defaults to --from)")
	return cmd
}

// selection resolves the --from/--to flags, falling back to the cursor line.
func selection(cursor int, from int, to int) (buffer.Region, error) {
	if from == 0 && to == 0 {
		return buffer.Region{First: cursor, Last: cursor}, nil
	}
	if from == 0 {
		from = cursor
	}
	if to == 0 {
		to = from
	}
	if from < 1 || to < from {
		return buffer.Region{}, fmt.Errorf("invalid selection %d-%d", from, to)
	}
	return buffer.Region{First: from, Last: to}, nil
}
