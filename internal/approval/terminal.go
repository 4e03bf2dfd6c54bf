package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type answer struct {
	line string
	err  error
}

// TerminalApprover prompts on Out and reads a y/n answer from In.
// A single reader goroutine owns In from the first request until In is
// exhausted, so a cancelled request never leaves a second reader behind.
type TerminalApprover struct {
	In  io.Reader
	Out io.Writer

	once    sync.Once
	answers chan answer
}

// NewTerminalApprover creates an approver reading from in and writing to out.
func NewTerminalApprover(in io.Reader, out io.Writer) *TerminalApprover {
	return &TerminalApprover{In: in, Out: out}
}

func (a *TerminalApprover) start() {
	a.once.Do(func() {
		a.answers = make(chan answer, 1)
		go a.read()
	})
}

// read forwards every line of In, then the terminal error, and closes the channel.
func (a *TerminalApprover) read() {
	defer close(a.answers)
	scanner := bufio.NewScanner(a.In)
	for scanner.Scan() {
		a.answers <- answer{line: scanner.Text()}
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	a.answers <- answer{err: err}
}

func (a *TerminalApprover) RequestApproval(ctx context.Context, req Request) (bool, error) {
	a.start()
	fmt.Fprintf(a.Out, "\n%s [y/N]: ", req.Summary)

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case ans, ok := <-a.answers:
		if !ok {
			ans.err = io.EOF
		}
		if ans.err != nil {
			return false, fmt.Errorf("reading confirmation: %w", ans.err)
		}
		switch strings.ToLower(strings.TrimSpace(ans.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
