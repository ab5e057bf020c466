package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CoolCat467/idletypecheck/internal/buffer"
	"github.com/CoolCat467/idletypecheck/internal/checker"
	"github.com/CoolCat467/idletypecheck/internal/comment"
	"github.com/CoolCat467/idletypecheck/internal/config"
	"github.com/CoolCat467/idletypecheck/internal/diffview"
	"github.com/CoolCat467/idletypecheck/internal/fswalk"
	"github.com/CoolCat467/idletypecheck/internal/logging"
	"github.com/CoolCat467/idletypecheck/internal/report"
	"github.com/CoolCat467/idletypecheck/internal/session"
)

// workspace is one opened buffer and the session editing it.
type workspace struct {
	cfg      config.Config
	disk     string
	original string
	buf      *buffer.Buffer
	sess     *session.Session
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// store returns the settings store, or nil when no location is known.
func (a *app) store() *config.Store {
	if a.configPath != "" {
		return &config.Store{Path: a.configPath}
	}
	path, err := config.DefaultStorePath()
	if err != nil {
		slog.Debug("settings store disabled", "error", err)
		return nil
	}
	return &config.Store{Path: path}
}

// open reads the buffer for file and builds its session.
func (a *app) open(cmd *cobra.Command, file string) (*workspace, error) {
	cfg := a.cfg
	cfg.File = file
	if err := cfg.Validate(); err != nil {
		return nil, newExitError(ExitCodeInvalidUsage, err)
	}

	disk, err := fswalk.ReadText(cfg.File)
	if err != nil && !(cfg.Stdin && errors.Is(err, os.ErrNotExist)) {
		return nil, newExitError(ExitCodeInvalidUsage, fmt.Errorf("read %q: %w", cfg.File, err))
	}
	text := disk
	if cfg.Stdin {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read buffer from stdin: %w", err)
		}
		text = string(raw)
	}

	dir, err := fswalk.ProjectRoot(cfg.File, fswalk.ProjectMarkers)
	if err != nil {
		slog.Debug("project root lookup failed", "file", cfg.File, "error", err)
		dir = filepath.Dir(cfg.File)
	}

	buf := buffer.New(text)
	sess := session.New(session.Options{
		Config: cfg,
		Buffer: buf,
		Disk:   disk,
		Runner: &checker.ExecRunner{Command: cfg.Checker, Dir: dir, Logger: slog.Default()},
		Store:  a.store(),
		Explicit: func(name string) bool {
			return cmd.Flags().Changed(name)
		},
		Prompter: a.prompter,
		Save: func(path string, text string) error {
			return fswalk.WriteFileAtomic(path, []byte(text))
		},
		Bell:   bellWriter(cmd.ErrOrStderr()),
		Logger: slog.Default(),
	})
	return &workspace{cfg: cfg, disk: disk, original: text, buf: buf, sess: sess}, nil
}

func bellWriter(w io.Writer) io.Writer {
	if f, ok := w.(*os.File); ok && logging.IsTerminal(f) {
		return f
	}
	return nil
}

func colorFor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && logging.ColorEnabled(f)
}

// finish prints the requested diff and writes the edited buffer back:
// to stdout with --stdin, otherwise over the file. It reports whether the
// file on disk was rewritten.
func (ws *workspace) finish(cmd *cobra.Command) (bool, error) {
	cfg := ws.sess.Config()
	after := ws.buf.String()

	if cfg.Diff {
		out := cmd.OutOrStdout()
		if cfg.Stdin {
			out = cmd.ErrOrStderr()
		}
		diff := diffview.Unified(cfg.File, ws.original, after)
		if _, err := fmt.Fprint(out, diffview.Colorize(diff, colorFor(out))); err != nil {
			return false, err
		}
	}
	if cfg.DryRun {
		return false, nil
	}
	if cfg.Stdin {
		_, err := io.WriteString(cmd.OutOrStdout(), after)
		return false, err
	}
	if !ws.buf.Modified() {
		return false, nil
	}

	if cfg.Backup {
		if err := fswalk.CopyFile(cfg.File, fswalk.BackupPath(cfg.File)); err != nil {
			return false, fmt.Errorf("backup %q: %w", cfg.File, err)
		}
	}
	if err := fswalk.WriteFileAtomic(cfg.File, []byte(after)); err != nil {
		return false, fmt.Errorf("write %q: %w", cfg.File, err)
	}
	return true, nil
}

func writeReports(cfg config.Config, out session.Outcome, d session.Dispatch) error {
	if cfg.ReportJSON == "" && cfg.ReportCSV == "" && cfg.ReportYAML == "" {
		return nil
	}

	files := comment.Parse(out.Result.Normal, cfg.File, cfg.Line)
	other := 0
	for _, name := range files.Names() {
		if name != cfg.File && name != comment.UnknownFile {
			other++
		}
	}
	summary := report.Summary{
		Command:      out.Command,
		Dispatch:     d.String(),
		Status:       out.Result.Status,
		Comments:     len(files.Get(cfg.File)),
		OtherFiles:   other,
		LinesChanged: out.Added.Count(),
		Removed:      out.Removed,
		Saved:        out.Saved,
		Failed:       out.Failed,
		Unavailable:  out.Unavailable,
	}
	rep := report.NewRunReport(out.RunID, cfg.File, summary, out.Added.Lines[cfg.File], report.FromFiles(files))

	if err := report.WriteJSON(cfg.ReportJSON, rep); err != nil {
		return err
	}
	if err := report.WriteCSV(cfg.ReportCSV, rep); err != nil {
		return err
	}
	return report.WriteYAML(cfg.ReportYAML, rep)
}
