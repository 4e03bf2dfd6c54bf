package tui

import (
	"context"

	"ghost/internal/approval"

	tea "github.com/charmbracelet/bubbletea"
)

// approvalRequestMsg asks the UI to confirm a pending tool call.
type approvalRequestMsg struct {
	req   approval.Request
	reply chan<- bool
}

// noticeMsg carries a status line from the orchestrator.
type noticeMsg string

// Bridge carries blocking orchestrator callbacks (approvals, notices) into
// the Bubble Tea event loop. It implements approval.Approver.
type Bridge struct {
	events chan tea.Msg
}

// NewBridge creates a bridge.
func NewBridge() *Bridge {
	return &Bridge{events: make(chan tea.Msg, 32)}
}

// RequestApproval blocks until the user answers in the UI or ctx is done.
func (b *Bridge) RequestApproval(ctx context.Context, req approval.Request) (bool, error) {
	reply := make(chan bool, 1)
	select {
	case b.events <- approvalRequestMsg{req: req, reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Notify forwards a status notice. Notices are dropped if the UI falls behind.
func (b *Bridge) Notify(notice string) {
	select {
	case b.events <- noticeMsg(notice):
	default:
	}
}

// listen waits for the next bridged event.
func (b *Bridge) listen() tea.Cmd {
	return func() tea.Msg {
		return <-b.events
	}
}
