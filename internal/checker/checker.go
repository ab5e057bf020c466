package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ErrUnavailable is returned when the checker program cannot be found.
var ErrUnavailable = errors.New("checker unavailable")

// Result is what one checker run printed and how it exited.
type Result struct {
	Normal string
	Errors string
	Status int
}

// Failed reports whether the run did not produce a usable report. The
// checker exits 1 when it found problems, so only higher statuses and
// output on the error stream count as failures.
func (r Result) Failed() bool {
	return strings.TrimSpace(r.Errors) != "" || r.Status > 1
}

// Runner runs the checker against one file.
type Runner interface {
	Run(ctx context.Context, file string, flags []string) (Result, error)
}

// ExecRunner runs Command as a child process. Command may carry leading
// arguments, as in "python -m mypy".
type ExecRunner struct {
	Command string
	Dir     string
	Logger  *slog.Logger
}

// Available resolves the program of the configured command.
func (r ExecRunner) Available() (string, error) {
	fields := strings.Fields(r.Command)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty command", ErrUnavailable)
	}
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, fields[0], err)
	}
	return path, nil
}

// Run executes the checker with flags followed by file.
func (r ExecRunner) Run(ctx context.Context, file string, flags []string) (Result, error) {
	program, err := r.Available()
	if err != nil {
		return Result{}, err
	}
	fields := strings.Fields(r.Command)
	args := append(append(append([]string{}, fields[1:]...), flags...), file)

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("running checker", "program", program, "args", args)

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	runErr := cmd.Run()
	res.Normal = stdout.String()
	res.Errors = stderr.String()
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return res, fmt.Errorf("run %s: %w", fields[0], runErr)
		}
		res.Status = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("run %s: %w", fields[0], ctxErr)
	}

	logger.Debug("checker finished", "status", res.Status, "stdout_bytes", len(res.Normal), "stderr_bytes", len(res.Errors))
	return res, nil
}
