package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/CoolCat467/idletypecheck/internal/fswalk"
	"github.com/CoolCat467/idletypecheck/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Check FILE now and again every time it is saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Stdin {
				return newExitError(ExitCodeInvalidUsage, errors.New("watch reads FILE from disk; --stdin is not supported"))
			}
			if a.cfg.DryRun {
				slog.Info("dry run: edits are never written")
			}

			var lastWritten string
			check := func(context.Context) error {
				if lastWritten != "" {
					if text, err := fswalk.ReadText(args[0]); err == nil && text == lastWritten {
						slog.Debug("skipping our own write", "file", args[0])
						return nil
					}
				}
				written, err := a.runCheck(cmd, args[0])
				if written {
					if text, rerr := fswalk.ReadText(args[0]); rerr == nil {
						lastWritten = text
					}
				}
				return err
			}

			ctx := commandContext(cmd)
			if err := check(ctx); err != nil {
				var exitErr *ExitError
				if errors.As(err, &exitErr) && exitErr.Code == ExitCodeInvalidUsage {
					return err
				}
				slog.Error("initial check failed", "error", err)
			}

			w, err := watch.New(watch.Config{Path: args[0], Debounce: debounce}, slog.Default())
			if err != nil {
				return err
			}
			return w.Run(ctx, check)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period after a save before checking")
	return cmd
}
