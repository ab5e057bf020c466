package session

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoolCat467/idletypecheck/internal/buffer"
	"github.com/CoolCat467/idletypecheck/internal/checker"
	"github.com/CoolCat467/idletypecheck/internal/config"
)

const testFile = "/proj/app.py"

type fakeRunner struct {
	res   checker.Result
	err   error
	avail error
	calls int
	flags []string
}

func (f *fakeRunner) Run(_ context.Context, file string, flags []string) (checker.Result, error) {
	f.calls++
	f.flags = append([]string{}, flags...)
	return f.res, f.err
}

type availRunner struct {
	fakeRunner
}

func (a *availRunner) Available() (string, error) {
	return "", a.avail
}

type fakePrompt struct {
	answer bool
	err    error
	asked  int
}

func (p *fakePrompt) ConfirmSave(string) (bool, error) {
	p.asked++
	return p.answer, p.err
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.File = testFile
	cfg.CacheDir = "/cache"
	return cfg
}

type harness struct {
	sess  *Session
	buf   *buffer.Buffer
	bell  *bytes.Buffer
	saved []string
}

func newHarness(text string, runner checker.Runner, mutate func(*Options)) *harness {
	h := &harness{buf: buffer.New(text), bell: &bytes.Buffer{}}
	opts := Options{
		Config: testConfig(),
		Buffer: h.buf,
		Disk:   text,
		Runner: runner,
		Save: func(_ string, text string) error {
			h.saved = append(h.saved, text)
			return nil
		},
		Bell: h.bell,
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.sess = New(opts)
	return h
}

func TestTypeCheckAddsDiagnostics(t *testing.T) {
	runner := &fakeRunner{res: checker.Result{
		Normal: testFile + ":2:5: error: Name \"y\" is not defined  [name-defined]\n",
		Status: 1,
	}}
	h := newHarness("x = 1\nprint(y)\n", runner, nil)

	d, err := h.sess.TypeCheck(context.Background())
	require.NoError(t, err)
	require.Equal(t, Handled, d)
	require.Equal(t, 1, runner.calls)
	require.Equal(t, "--cache-dir=/cache", runner.flags[0])

	require.Equal(t, []string{
		"x = 1",
		"# typecheck: [name-defined] error: Name \"y\" is not defined",
		"print(y)",
	}, h.buf.Lines())

	out := h.sess.Outcome()
	require.NotEmpty(t, out.RunID)
	require.Equal(t, "check", out.Command)
	require.Equal(t, 1, out.Added.Count())
	require.False(t, out.Failed)
	require.Equal(t, "\a", h.bell.String())
}

func TestTypeCheckCleanRunLeavesBuffer(t *testing.T) {
	runner := &fakeRunner{}
	h := newHarness("x = 1\n", runner, nil)

	d, err := h.sess.TypeCheck(context.Background())
	require.NoError(t, err)
	require.Equal(t, Handled, d)
	require.False(t, h.buf.Modified())
	require.Zero(t, h.buf.UndoSteps())
	require.Equal(t, "\a", h.bell.String())
}

func TestTypeCheckFailureBlock(t *testing.T) {
	runner := &fakeRunner{res: checker.Result{
		Errors: "Traceback (most recent call last):\n  File \"x\", line 1\nKeyError: 'k'\n",
		Status: 2,
	}}
	h := newHarness("a\nb\nc\n", runner, func(o *Options) { o.Config.Line = 2 })

	_, err := h.sess.TypeCheck(context.Background())
	require.NoError(t, err)
	require.True(t, h.sess.Outcome().Failed)
	require.Equal(t, []string{
		"a",
		"# typecheck: Error running mypy: Traceback (most recent call last):",
		"# typecheck:   File \"x\", line 1",
		"# typecheck: KeyError: 'k'",
		"b",
		"c",
	}, h.buf.Lines())
}

func TestTypeCheckFailureWithoutStderr(t *testing.T) {
	runner := &fakeRunner{res: checker.Result{Status: 2}}
	h := newHarness("a\n", runner, nil)

	_, err := h.sess.TypeCheck(context.Background())
	require.NoError(t, err)
	require.Equal(t, "# typecheck: Error running mypy: exited with status 2\na\n", h.buf.String())
}

func TestTypeCheckUnavailable(t *testing.T) {
	runner := &availRunner{fakeRunner{avail: checker.ErrUnavailable}}
	h := newHarness("a\nb\n", runner, func(o *Options) { o.Config.Line = 2 })

	d, err := h.sess.TypeCheck(context.Background())
	require.NoError(t, err)
	require.Equal(t, Handled, d)
	require.Zero(t, runner.calls)
	require.True(t, h.sess.Outcome().Unavailable)
	require.Equal(t, "a\n# typecheck: Could not find mypy. Please install mypy to use this extension.\nb\n", h.buf.String())
	require.Equal(t, "\a", h.bell.String())
}

func TestTypeCheckUnavailableFromRun(t *testing.T) {
	runner := &fakeRunner{err: checker.ErrUnavailable}
	h := newHarness("a\n", runner, func(o *Options) { o.Config.Checker = "python3 -m mypy" })

	_, err := h.sess.TypeCheck(context.Background())
	require.NoError(t, err)
	require.Equal(t, "# typecheck: Could not find python3. Please install python3 to use this extension.\na\n", h.buf.String())
}

func TestTypeCheckRunErrorIsReturned(t *testing.T) {
	runner := &fakeRunner{err: errors.New("boom")}
	h := newHarness("a\n", runner, nil)

	_, err := h.sess.TypeCheck(context.Background())
	require.ErrorContains(t, err, "boom")
	require.Equal(t, "\a", h.bell.String())
}

func TestTypeCheckUnsavedBuffer(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		runner := &fakeRunner{}
		prompt := &fakePrompt{answer: false}
		h := newHarness("edited\n", runner, func(o *Options) {
			o.Disk = "original\n"
			o.Prompter = prompt
		})

		_, err := h.sess.TypeCheck(context.Background())
		require.ErrorIs(t, err, ErrNotSaved)
		require.Equal(t, 1, prompt.asked)
		require.Zero(t, runner.calls)
		require.Empty(t, h.saved)
		require.Equal(t, "\a", h.bell.String())
	})

	t.Run("confirmed", func(t *testing.T) {
		runner := &fakeRunner{}
		prompt := &fakePrompt{answer: true}
		h := newHarness("edited\n", runner, func(o *Options) {
			o.Disk = "original\n"
			o.Prompter = prompt
		})

		_, err := h.sess.TypeCheck(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"edited\n"}, h.saved)
		require.Equal(t, 1, runner.calls)
		require.True(t, h.sess.Outcome().Saved)
	})

	t.Run("save flag skips prompt", func(t *testing.T) {
		runner := &fakeRunner{}
		prompt := &fakePrompt{}
		h := newHarness("edited\n", runner, func(o *Options) {
			o.Disk = "original\n"
			o.Prompter = prompt
			o.Config.Save = true
		})

		_, err := h.sess.TypeCheck(context.Background())
		require.NoError(t, err)
		require.Zero(t, prompt.asked)
		require.Equal(t, []string{"edited\n"}, h.saved)
	})

	t.Run("no prompter", func(t *testing.T) {
		runner := &fakeRunner{}
		h := newHarness("edited\n", runner, func(o *Options) { o.Disk = "" })

		_, err := h.sess.TypeCheck(context.Background())
		require.ErrorIs(t, err, ErrNotSaved)
	})
}

func TestTypeCheckDisabledContinues(t *testing.T) {
	runner := &fakeRunner{}
	h := newHarness("a\n", runner, func(o *Options) { o.Config.Enabled = false })

	d, err := h.sess.TypeCheck(context.Background())
	require.NoError(t, err)
	require.Equal(t, Continue, d)
	require.Zero(t, runner.calls)
	require.Empty(t, h.bell.String())
}

func TestTypeCheckReloadsStore(t *testing.T) {
	dir := t.TempDir()
	store := &config.Store{Path: filepath.Join(dir, "config.toml")}
	require.NoError(t, os.WriteFile(store.Path, []byte(`
[typecheck]
enable = true
enable_editor = true
extra_args = "--strict"
bell = false
`), 0o644))

	runner := &fakeRunner{}
	h := newHarness("a\n", runner, func(o *Options) { o.Store = store })

	_, err := h.sess.TypeCheck(context.Background())
	require.NoError(t, err)
	require.Contains(t, runner.flags, "--strict")
	require.False(t, h.sess.Config().Bell)
	require.Empty(t, h.bell.String())
}

func TestRemoveAndFindNext(t *testing.T) {
	text := "a\n# typecheck: one\nb\n# typecheck: two\nc\n"
	h := newHarness(text, &fakeRunner{}, func(o *Options) { o.Config.Line = 2 })

	d, err := h.sess.FindNext()
	require.NoError(t, err)
	assert.Equal(t, Handled, d)
	assert.Equal(t, 4, h.sess.Outcome().Found)
	assert.Equal(t, []int{2, 4}, h.sess.Comments())

	_, err = h.sess.RemoveSelected(buffer.Region{First: 1, Last: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, h.sess.Outcome().Removed)
	assert.Equal(t, buffer.Region{First: 1, Last: 2}, h.sess.Outcome().Region)

	_, err = h.sess.RemoveAll()
	require.NoError(t, err)
	assert.Equal(t, 1, h.sess.Outcome().Removed)
	assert.Equal(t, "a\nb\nc\n", h.buf.String())
	assert.Empty(t, h.bell.String())

	_, err = h.sess.RemoveAll()
	require.NoError(t, err)
	assert.Zero(t, h.sess.Outcome().Removed)
	assert.Equal(t, "\a", h.bell.String())

	_, err = h.sess.FindNext()
	require.NoError(t, err)
	assert.Zero(t, h.sess.Outcome().Found)
	assert.Equal(t, "\a\a", h.bell.String())
}

func TestDispatchString(t *testing.T) {
	require.Equal(t, "handled", Handled.String())
	require.Equal(t, "continue", Continue.String())
}
