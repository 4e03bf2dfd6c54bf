package approval

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"ghost/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestPolicy_Default(t *testing.T) {
	p := NewPolicy()

	for _, name := range []string{"create_file", "write_file", "move_file", "copy_file", "delete_file", "create_directory"} {
		assert.True(t, p.RequiresApproval(name), name)
	}
	for _, name := range []string{"read_file_content", "list_directory", "get_file_info", "web_search", "fetch_webpage", "open_url_in_browser", "search_web", "unknown"} {
		assert.False(t, p.RequiresApproval(name), name)
	}
}

func TestPolicy_Extra(t *testing.T) {
	p := NewPolicy("open_url_in_browser", "  ", "")
	assert.True(t, p.RequiresApproval("open_url_in_browser"))
	assert.Len(t, p.Gated(), len(DefaultGated)+1)
	assert.IsIncreasing(t, p.Gated())
}

func TestSummary(t *testing.T) {
	got := Summary("delete_file", tools.Params{
		"path":                   `C:\x.txt`,
		"force":                  true,
		tools.AttachedProcessKey: &tools.AttachedProcess{PID: 1},
	})
	want := "Ghost wants to use tool: 'delete_file'.\n" +
		"\nParameters:\n" +
		"- force: true\n" +
		"- path: \"C:\\\\x.txt\"\n" +
		"\nDo you approve?"
	assert.Equal(t, want, got)

	assert.Equal(t, "Ghost wants to use tool: 'get_attached_process'.\n\nDo you approve?",
		Summary("get_attached_process", tools.Params{}))
}

func TestGate_RequestApproval(t *testing.T) {
	var seen Request
	gate := NewGate(NewPolicy(), Func(func(ctx context.Context, req Request) (bool, error) {
		seen = req
		return true, nil
	}))

	ok, err := gate.RequestApproval(context.Background(), "write_file", tools.Params{"path": "a"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "write_file", seen.Tool)
	assert.Contains(t, seen.Summary, "- path: \"a\"")
}

func TestGate_FailuresDecline(t *testing.T) {
	boom := errors.New("dialog closed")
	gate := NewGate(nil, Func(func(ctx context.Context, req Request) (bool, error) {
		return true, boom
	}))

	ok, err := gate.RequestApproval(context.Background(), "write_file", nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err = gate.RequestApproval(ctx, "write_file", nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGate_NilApproverDeclines(t *testing.T) {
	ok, err := NewGate(nil, nil).RequestApproval(context.Background(), "delete_file", nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTerminalApprover(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			a := NewTerminalApprover(strings.NewReader(tt.input), &out)

			got, err := a.RequestApproval(context.Background(), Request{Summary: "Do you approve?"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Do you approve? [y/N]: ")
		})
	}
}

func TestTerminalApprover_EOF(t *testing.T) {
	a := NewTerminalApprover(strings.NewReader(""), &bytes.Buffer{})
	ok, err := a.RequestApproval(context.Background(), Request{})
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestTerminalApprover_SequentialAnswers(t *testing.T) {
	a := NewTerminalApprover(strings.NewReader("y\nn\n"), &bytes.Buffer{})

	first, err := a.RequestApproval(context.Background(), Request{})
	require.NoError(t, err)
	second, err := a.RequestApproval(context.Background(), Request{})
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestTerminalApprover_CancelledRequestKeepsNextAnswer(t *testing.T) {
	defer goleak.VerifyNone(t)

	pr, pw := io.Pipe()
	a := NewTerminalApprover(pr, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err := a.RequestApproval(ctx, Request{})
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)

	go func() {
		pw.Write([]byte("y\n"))
		pw.Close()
	}()

	ok, err = a.RequestApproval(context.Background(), Request{})
	require.NoError(t, err)
	assert.True(t, ok, "the answer typed after a cancelled prompt goes to the next prompt")

	_, err = a.RequestApproval(context.Background(), Request{})
	assert.ErrorIs(t, err, io.EOF)
	_, err = a.RequestApproval(context.Background(), Request{})
	assert.ErrorIs(t, err, io.EOF)
}
