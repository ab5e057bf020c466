// Package session implements the user-facing commands of the extension on
// top of one open buffer. Handlers report whether they consumed the command
// through a Dispatch value instead of a sentinel string.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/CoolCat467/idletypecheck/internal/annotate"
	"github.com/CoolCat467/idletypecheck/internal/buffer"
	"github.com/CoolCat467/idletypecheck/internal/checker"
	"github.com/CoolCat467/idletypecheck/internal/comment"
	"github.com/CoolCat467/idletypecheck/internal/config"
)

// Dispatch tells the caller whether a handler consumed the command.
type Dispatch int

const (
	// Continue means the command was not handled and should be passed on.
	Continue Dispatch = iota
	// Handled means the command was consumed.
	Handled
)

func (d Dispatch) String() string {
	if d == Handled {
		return "handled"
	}
	return "continue"
}

// ErrNotSaved is returned when the user declined to save a modified buffer.
var ErrNotSaved = errors.New("buffer has unsaved changes")

const errorBlockPrefix = "Error running mypy: "

// Prompter asks the user to confirm saving the buffer before checking.
type Prompter interface {
	ConfirmSave(file string) (bool, error)
}

// Options wires a Session to its collaborators.
type Options struct {
	Config config.Config
	Buffer *buffer.Buffer
	// Disk is the content of Config.File on disk. The buffer is unsaved
	// when its text differs from it.
	Disk   string
	Runner checker.Runner
	// Store, when set, is reloaded before every command. Explicit names
	// the options set on the command line, which win over the store.
	Store    *config.Store
	Explicit func(name string) bool
	Prompter Prompter
	// Save writes the buffer text to the file on disk.
	Save   func(path string, text string) error
	Bell   io.Writer
	Logger *slog.Logger
}

// Outcome describes what the last command did.
type Outcome struct {
	RunID       string
	Command     string
	File        string
	Result      checker.Result
	Added       annotate.Result
	Removed     int
	Region      buffer.Region
	Found       int
	Saved       bool
	Unavailable bool
	Failed      bool
}

// Session runs commands against one buffer.
type Session struct {
	cfg      config.Config
	buf      *buffer.Buffer
	disk     string
	runner   checker.Runner
	store    *config.Store
	explicit func(string) bool
	prompt   Prompter
	save     func(string, string) error
	bell     io.Writer
	logger   *slog.Logger
	outcome  Outcome
}

// New returns a Session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		cfg:      opts.Config,
		buf:      opts.Buffer,
		disk:     opts.Disk,
		runner:   opts.Runner,
		store:    opts.Store,
		explicit: opts.Explicit,
		prompt:   opts.Prompter,
		save:     opts.Save,
		bell:     opts.Bell,
		logger:   logger,
	}
}

// Config returns the configuration in effect after the last reload.
func (s *Session) Config() config.Config { return s.cfg }

// Outcome returns what the last command did.
func (s *Session) Outcome() Outcome { return s.outcome }

// Buffer returns the edited buffer.
func (s *Session) Buffer() *buffer.Buffer { return s.buf }

func (s *Session) begin(command string) (*slog.Logger, error) {
	if s.store != nil {
		cfg, err := s.store.Reload(s.cfg, s.explicit)
		if err != nil {
			return s.logger, fmt.Errorf("reload settings: %w", err)
		}
		s.cfg = cfg
	}
	if r, ok := s.runner.(*checker.ExecRunner); ok {
		r.Command = s.cfg.Checker
	}
	s.outcome = Outcome{RunID: uuid.NewString(), Command: command, File: s.cfg.File}
	return s.logger.With("run_id", s.outcome.RunID, "command", command), nil
}

func (s *Session) annotator() *annotate.Annotator {
	return annotate.New(s.buf, s.cfg.File, annotate.Options{
		Prefix: s.cfg.Prefix,
		Ignore: s.cfg.Ignore,
	})
}

func (s *Session) ring() {
	if !s.cfg.Bell || s.bell == nil {
		return
	}
	_, _ = io.WriteString(s.bell, "\a")
}

func (s *Session) unsaved() bool {
	return s.buf.String() != s.disk
}

// TypeCheck runs the checker on the file and inserts its diagnostics at
// their lines. Problems running the checker become comments at the cursor
// line.
func (s *Session) TypeCheck(ctx context.Context) (Dispatch, error) {
	logger, err := s.begin("check")
	if err != nil {
		return Handled, err
	}
	if !s.cfg.Enabled {
		logger.Info("type checking is disabled in settings")
		return Continue, nil
	}
	defer s.ring()

	a := s.annotator()
	if avail, ok := s.runner.(interface{ Available() (string, error) }); ok {
		if _, err := avail.Available(); err != nil {
			return s.unavailable(logger, a, err)
		}
	}

	if s.unsaved() {
		if err := s.saveBuffer(logger); err != nil {
			return Handled, err
		}
	}

	res, err := s.runner.Run(ctx, s.cfg.File, s.cfg.CheckerFlags())
	if errors.Is(err, checker.ErrUnavailable) {
		return s.unavailable(logger, a, err)
	}
	if err != nil {
		return Handled, fmt.Errorf("run checker: %w", err)
	}
	s.outcome.Result = res
	logger.Debug("checker report", "status", res.Status, "normal", res.Normal, "errors", res.Errors)

	steps := s.buf.UndoSteps()
	if strings.TrimSpace(res.Normal) != "" {
		added, err := a.AddMessages(res.Normal, s.cfg.Line)
		if err != nil {
			s.rollback(steps)
			return Handled, fmt.Errorf("add diagnostics: %w", err)
		}
		s.outcome.Added = added
	}

	if res.Failed() {
		s.outcome.Failed = true
		lines := failureLines(res)
		attempted, added, err := a.AddBlock(s.cfg.Line, lines, errorBlockPrefix)
		if err != nil {
			s.rollback(steps)
			return Handled, fmt.Errorf("add checker errors: %w", err)
		}
		for _, line := range added {
			s.outcome.Added.Lines = mergeLine(s.outcome.Added.Lines, s.cfg.File, line)
		}
		logger.Warn("checker failed", "status", res.Status, "lines", attempted)
	}

	logger.Info("type check finished", "status", res.Status, "lines_changed", s.outcome.Added.Count())
	return Handled, nil
}

func (s *Session) unavailable(logger *slog.Logger, a *annotate.Annotator, cause error) (Dispatch, error) {
	s.outcome.Unavailable = true
	logger.Warn("checker unavailable", "checker", s.cfg.Checker, "error", cause)
	name := strings.Fields(s.cfg.Checker)
	program := config.DefaultChecker
	if len(name) > 0 {
		program = name[0]
	}
	msg := fmt.Sprintf("Could not find %s. Please install %s to use this extension.", program, program)
	added, err := a.AddComments([]comment.Comment{comment.New(s.cfg.File, s.cfg.Line, msg)})
	if err != nil {
		return Handled, fmt.Errorf("add unavailable notice: %w", err)
	}
	s.outcome.Added = added
	return Handled, nil
}

func (s *Session) saveBuffer(logger *slog.Logger) error {
	if !s.cfg.Save {
		if s.prompt == nil {
			return ErrNotSaved
		}
		ok, err := s.prompt.ConfirmSave(s.cfg.File)
		if err != nil {
			return fmt.Errorf("confirm save: %w", err)
		}
		if !ok {
			logger.Info("not checking an unsaved buffer")
			return ErrNotSaved
		}
	}
	if s.save == nil {
		return ErrNotSaved
	}
	text := s.buf.String()
	if err := s.save(s.cfg.File, text); err != nil {
		return fmt.Errorf("save %s: %w", s.cfg.File, err)
	}
	s.disk = text
	s.outcome.Saved = true
	logger.Debug("saved buffer before checking", "file", s.cfg.File)
	return nil
}

func (s *Session) rollback(steps int) {
	for s.buf.UndoSteps() > steps {
		if !s.buf.Undo() {
			return
		}
	}
}

func failureLines(res checker.Result) []string {
	text := strings.TrimRight(res.Errors, "\r\n")
	if strings.TrimSpace(text) == "" {
		return []string{fmt.Sprintf("exited with status %d", res.Status)}
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func mergeLine(lines map[string][]int, file string, line int) map[string][]int {
	if lines == nil {
		lines = map[string][]int{}
	}
	for _, n := range lines[file] {
		if n == line {
			return lines
		}
	}
	lines[file] = append(lines[file], line)
	return lines
}

// RemoveAll deletes every comment line in the buffer.
func (s *Session) RemoveAll() (Dispatch, error) {
	logger, err := s.begin("remove-all")
	if err != nil {
		return Handled, err
	}
	removed, err := s.annotator().RemoveAll()
	if err != nil {
		return Handled, err
	}
	s.outcome.Removed = removed
	if removed == 0 {
		s.ring()
	}
	logger.Info("removed comments", "count", removed)
	return Handled, nil
}

// RemoveSelected deletes the comment lines inside region.
func (s *Session) RemoveSelected(region buffer.Region) (Dispatch, error) {
	logger, err := s.begin("remove")
	if err != nil {
		return Handled, err
	}
	shrunk, removed, err := s.annotator().RemoveSelected(region)
	if err != nil {
		return Handled, err
	}
	s.outcome.Removed = removed
	s.outcome.Region = shrunk
	if removed == 0 {
		s.ring()
	}
	logger.Info("removed comments", "count", removed, "first", shrunk.First, "last", shrunk.Last)
	return Handled, nil
}

// FindNext locates the first comment line after the cursor line.
func (s *Session) FindNext() (Dispatch, error) {
	logger, err := s.begin("next")
	if err != nil {
		return Handled, err
	}
	line, ok := s.annotator().FindNext(s.cfg.Line, s.cfg.SearchWrap)
	if !ok {
		s.ring()
		logger.Info("no comment found", "from", s.cfg.Line, "wrap", s.cfg.SearchWrap)
		return Handled, nil
	}
	s.outcome.Found = line
	logger.Debug("found comment", "line", line)
	return Handled, nil
}

// Comments returns the line numbers of every comment line in the buffer.
func (s *Session) Comments() []int {
	return s.annotator().Comments()
}
