package annotate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CoolCat467/idletypecheck/internal/buffer"
	"github.com/CoolCat467/idletypecheck/internal/comment"
)

const (
	testFile   = "/src/app.py"
	testPrefix = "# typecheck: "
)

func newAnnotator(text string, opts Options) (*Annotator, *buffer.Buffer) {
	if opts.Prefix == "" {
		opts.Prefix = testPrefix
	}
	buf := buffer.New(text)
	return New(buf, testFile, opts), buf
}

func numbered(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		sb.WriteString("line")
		sb.WriteString(strings.Repeat("x", i))
		sb.WriteString("\n")
	}
	return sb.String()
}

func TestAddMessagesInsertsAtIndentation(t *testing.T) {
	a, buf := newAnnotator("def f(x: int) -> str:\n    return x\n", Options{})
	report := testFile + `:2:12: error: Incompatible return value type (got "int", expected "str")  [return-value]` + "\n"

	res, err := a.AddMessages(report, 1)
	require.NoError(t, err)
	require.Equal(t, map[string][]int{testFile: {2}}, res.Lines)

	want := "def f(x: int) -> str:\n" +
		`    # typecheck: [return-value] error: Incompatible return value type (got "int", expected "str")` + "\n" +
		"    return x\n"
	require.Equal(t, want, buf.String())
	require.Equal(t, 1, buf.UndoSteps())
}

func TestAddMessagesEmptyReport(t *testing.T) {
	a, buf := newAnnotator("x = 1\n", Options{})

	res, err := a.AddMessages("", 1)
	require.NoError(t, err)
	require.Zero(t, res.Count())
	require.False(t, buf.Modified())
	require.Zero(t, buf.UndoSteps())
}

func TestAddMessagesUnknownFileIsSkipped(t *testing.T) {
	buf := buffer.New("x = 1\n")
	a := New(buf, comment.UnknownFile, Options{Prefix: testPrefix})

	res, err := a.AddMessages("some text", 1)
	require.NoError(t, err)
	require.Zero(t, res.Count())
	require.False(t, buf.Modified())
}

func TestAddMessagesOnlyOtherFiles(t *testing.T) {
	a, buf := newAnnotator("import mod\nmod.run()\n", Options{})

	res, err := a.AddMessages("/lib/mod.py:3: error: boom\n/lib/mod.py:9: error: bang\n", 2)
	require.NoError(t, err)
	require.Equal(t, map[string][]int{testFile: {2}}, res.Lines)
	require.Equal(t, "import mod\n# typecheck: Another file has errors: '/lib/mod.py'\nmod.run()\n", buf.String())
}

func TestAddMessagesIgnoredOtherFiles(t *testing.T) {
	a, buf := newAnnotator("import mod\n", Options{Ignore: []string{"**/site-packages/**"}})

	res, err := a.AddMessages("/venv/lib/site-packages/mod.py:3: error: boom\n", 1)
	require.NoError(t, err)
	require.Zero(t, res.Count())
	require.False(t, buf.Modified())
}

func TestAddMessagesNoticeGoesToFirstCommentedLine(t *testing.T) {
	a, buf := newAnnotator(numbered(4), Options{})
	report := testFile + ":3: error: late\n/lib/other.py:1: error: elsewhere\n" + testFile + ":2: error: early\n"

	_, err := a.AddMessages(report, 4)
	require.NoError(t, err)
	require.Equal(t, []string{
		"linex",
		"# typecheck: error: early",
		"# typecheck: Another file has errors: '/lib/other.py'",
		"linexx",
		"# typecheck: error: late",
		"linexxx",
		"linexxxx",
	}, buf.Lines())
}

func TestAddMessagesUnlocatedLinesUseStartLine(t *testing.T) {
	a, buf := newAnnotator(numbered(3), Options{})

	_, err := a.AddMessages("mypy crashed unexpectedly\nnote: see docs\n", 3)
	require.NoError(t, err)
	require.Equal(t, []string{
		"linex",
		"linexx",
		"# typecheck: mypy crashed unexpectedly",
		"# typecheck: note: see docs",
		"linexxx",
	}, buf.Lines())
}

func TestAddCommentsDescendingLineOrder(t *testing.T) {
	a, buf := newAnnotator(numbered(10), Options{})
	comments := []comment.Comment{
		comment.New(testFile, 5, "error: five"),
		comment.New(testFile, 10, "error: ten"),
	}

	res, err := a.AddComments(comments)
	require.NoError(t, err)
	require.Equal(t, []int{5, 10}, res.Lines[testFile])

	lines := buf.Lines()
	require.Equal(t, "# typecheck: error: five", lines[4])
	require.Equal(t, "linexxxxx", lines[5])
	require.Equal(t, "# typecheck: error: ten", lines[10])
	require.Equal(t, strings.Repeat("x", 10), strings.TrimPrefix(lines[11], "line"))
}

func TestAddCommentsKeepsDisplayOrderWithinLine(t *testing.T) {
	a, buf := newAnnotator("a\nb\n", Options{})
	comments := []comment.Comment{
		comment.New(testFile, 2, "error: first"),
		comment.New(testFile, 2, "note: second"),
		comment.New(testFile, 2, "note: third"),
	}

	_, err := a.AddComments(comments)
	require.NoError(t, err)
	require.Equal(t, []string{
		"a",
		"# typecheck: error: first",
		"# typecheck: note: second",
		"# typecheck: note: third",
		"b",
	}, buf.Lines())
}

func TestAddCommentsSkipsOtherFilesAndClampsLines(t *testing.T) {
	a, buf := newAnnotator("a\n", Options{})
	comments := []comment.Comment{
		comment.New("/elsewhere.py", 1, "error: foreign"),
		comment.New(testFile, 99, "error: past the end"),
		comment.New(testFile, 0, "error: before the start"),
	}

	res, err := a.AddComments(comments)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, res.Lines[testFile])
	require.Equal(t, "# typecheck: error: before the start\na\n# typecheck: error: past the end\n", buf.String())
}

func TestAddMessagesTwiceInsertsOnce(t *testing.T) {
	text := "def f() -> None:\n    value: int = compute_the_first_value(alpha, beta)\n"
	report := testFile + ":2:39:2:43: error: Name \"alpha\" is not defined  [name-defined]\n" +
		testFile + ":2:46:2:49: error: Name \"beta\" is not defined  [name-defined]\n"

	a, buf := newAnnotator(text, Options{})
	first, err := a.AddMessages(report, 1)
	require.NoError(t, err)
	require.Equal(t, 1, first.Count())
	once := buf.String()
	require.Len(t, buf.Lines(), 5)

	second, err := a.AddMessages(report, 1)
	require.NoError(t, err)
	require.Zero(t, second.Count())
	require.Equal(t, once, buf.String())
}

func TestAddMessagesTwiceWithSeveralLinesInsertsOnce(t *testing.T) {
	report := testFile + ":5: error: five\n" + testFile + ":10: error: ten\n"

	a, buf := newAnnotator(numbered(10), Options{})
	first, err := a.AddMessages(report, 1)
	require.NoError(t, err)
	require.Equal(t, 2, first.Count())
	once := buf.String()
	require.Equal(t, "# typecheck: error: five", buf.Line(5))
	require.Equal(t, "# typecheck: error: ten", buf.Line(11))

	second, err := a.AddMessages(report, 1)
	require.NoError(t, err)
	require.Zero(t, second.Count())
	require.Equal(t, once, buf.String())
}

func TestAddMessagesSameMessageOnAdjacentLines(t *testing.T) {
	report := testFile + ":2: error: same\n" + testFile + ":3: error: same\n"

	a, buf := newAnnotator(numbered(3), Options{})
	res, err := a.AddMessages(report, 1)
	require.NoError(t, err)
	require.Equal(t, 2, res.Count())
	require.Equal(t, []string{
		"linex",
		"# typecheck: error: same",
		"linexx",
		"# typecheck: error: same",
		"linexxx",
	}, buf.Lines())
}

func TestAddMessagesRerunOnAnnotatedBufferInsertsNothing(t *testing.T) {
	a, buf := newAnnotator(numbered(3), Options{})
	_, err := a.AddMessages(testFile+":2: error: one\n"+testFile+":2: note: two\n", 1)
	require.NoError(t, err)
	annotated := buf.String()

	// The checker now sees the comments, so the code line moved down by two.
	res, err := a.AddMessages(testFile+":4: error: one\n"+testFile+":4: note: two\n", 1)
	require.NoError(t, err)
	require.Zero(t, res.Count())
	require.Equal(t, annotated, buf.String())
}

func TestAddThenRemoveAllRestoresBuffer(t *testing.T) {
	text := "import os\n\n\ndef main() -> None:\n    print(os.getcwd(1))\n    return 5\n"
	a, buf := newAnnotator(text, Options{})
	report := testFile + ":5:11:5:22: error: Too many arguments for \"getcwd\"  [call-arg]\n" +
		testFile + ":6:5: error: No return value expected  [return-value]\n" +
		"/lib/x.py:1: error: other\n"

	res, err := a.AddMessages(report, 1)
	require.NoError(t, err)
	require.Equal(t, 2, res.Count())
	require.True(t, buf.Modified())

	removed, err := a.RemoveAll()
	require.NoError(t, err)
	require.Equal(t, 4, removed)
	require.Equal(t, text, buf.String())
	require.False(t, buf.Modified())
}

func TestRemoveAllWithoutComments(t *testing.T) {
	a, buf := newAnnotator("a\n# regular comment\n", Options{})
	removed, err := a.RemoveAll()
	require.NoError(t, err)
	require.Zero(t, removed)
	require.Zero(t, buf.UndoSteps())
}

func TestRemoveSelected(t *testing.T) {
	text := "a\n  # typecheck: one\nb\nc\n# typecheck: two\nd\n"
	a, buf := newAnnotator(text, Options{})

	region, removed, err := a.RemoveSelected(buffer.Region{First: 1, Last: 3})
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.Equal(t, buffer.Region{First: 1, Last: 2}, region)
	require.Equal(t, "a\nb\nc\n# typecheck: two\nd\n", buf.String())

	region, removed, err = a.RemoveSelected(buffer.Region{First: 0, Last: 40})
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.Equal(t, buffer.Region{First: 1, Last: 4}, region)
	require.Equal(t, "a\nb\nc\nd\n", buf.String())
}

func TestFindNext(t *testing.T) {
	a, _ := newAnnotator("a\n# typecheck: one\nb\nc\n    # typecheck: two\nd\n", Options{})

	line, ok := a.FindNext(0, false)
	require.True(t, ok)
	require.Equal(t, 2, line)

	line, ok = a.FindNext(2, false)
	require.True(t, ok)
	require.Equal(t, 5, line)

	_, ok = a.FindNext(5, false)
	require.False(t, ok)

	line, ok = a.FindNext(5, true)
	require.True(t, ok)
	require.Equal(t, 2, line)

	require.Equal(t, []int{2, 5}, a.Comments())
}

func TestAddBlock(t *testing.T) {
	a, buf := newAnnotator("a\nb\n", Options{})

	attempted, added, err := a.AddBlock(2, []string{"Traceback (most recent call last):", "  boom"}, "Error running mypy: ")
	require.NoError(t, err)
	require.Equal(t, 2, attempted)
	require.Equal(t, []int{2}, added)
	require.Equal(t, []string{
		"a",
		"# typecheck: Error running mypy: Traceback (most recent call last):",
		"# typecheck:   boom",
		"b",
	}, buf.Lines())

	attempted, added, err = a.AddBlock(2, []string{"Traceback (most recent call last):", "  boom"}, "Error running mypy: ")
	require.NoError(t, err)
	require.Equal(t, 2, attempted)
	require.Empty(t, added)
	require.Len(t, buf.Lines(), 4)

	attempted, added, err = a.AddBlock(1, nil, "x")
	require.NoError(t, err)
	require.Zero(t, attempted)
	require.Empty(t, added)
}
