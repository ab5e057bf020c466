package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/CoolCat467/idletypecheck/internal/fswalk"
	"github.com/CoolCat467/idletypecheck/internal/session"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Type check FILE and insert the diagnostics as comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runCheck(cmd, args[0])
			return err
		},
	}
}

// runCheck checks file once and writes the result. It reports whether the
// file on disk was rewritten.
func (a *app) runCheck(cmd *cobra.Command, file string) (bool, error) {
	ws, err := a.open(cmd, file)
	if err != nil {
		return false, err
	}
	if err := fswalk.EnsureDir(ws.cfg.CacheDir); err != nil {
		slog.Warn("could not create checker cache dir", "dir", ws.cfg.CacheDir, "error", err)
	}

	d, err := ws.sess.TypeCheck(commandContext(cmd))
	if err != nil {
		return false, classify(err)
	}
	if d == session.Continue {
		slog.Info("nothing to do", "file", ws.cfg.File)
	}

	written, err := ws.finish(cmd)
	if err != nil {
		return written, err
	}
	cfg := ws.sess.Config()
	out := ws.sess.Outcome()
	if err := writeReports(cfg, out, d); err != nil {
		return written, fmt.Errorf("write reports: %w", err)
	}

	switch {
	case out.Unavailable:
		return written, newExitError(ExitCodeCheckFailed, fmt.Errorf("checker %q not found", cfg.Checker))
	case out.Failed:
		return written, newExitError(ExitCodeCheckFailed, fmt.Errorf("checker failed with exit status %d", out.Result.Status))
	}
	return written, nil
}
