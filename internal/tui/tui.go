package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ghost/internal/llm"
	"ghost/internal/storage"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const maxNotices = 3

// Custom messages for Bubble Tea
type turnDoneMsg struct {
	result llm.TurnResult
	err    error
}

var (
	helpStyle      = lipgloss.NewStyle().Foreground(dimColor)
	noticeStyle    = lipgloss.NewStyle().Foreground(dimColor).Italic(true)
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("70"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("66"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// model is the state of our TUI application.
type model struct {
	ctx      context.Context
	viewport viewport.Model
	textarea textarea.Model
	orch     *llm.Orchestrator
	store    storage.Store
	bridge   *Bridge

	messages []llm.Message
	pending  string
	notices  []string
	info     string
	status   string
	loading  bool
	confirm  *confirmState
	width    int
	height   int
	renderer *glamour.TermRenderer
}

// NewModel creates the initial model for the TUI. The bridge must be the
// approver and notice handler of orch.
func NewModel(ctx context.Context, orch *llm.Orchestrator, store storage.Store, bridge *Bridge) tea.Model {
	ti := textarea.New()
	ti.Placeholder = "Ask your Ghost..."
	ti.ShowLineNumbers = false
	ti.SetHeight(3)
	ti.Focus()

	// The viewport will be initialized with the correct size via a WindowSizeMsg.
	vp := viewport.New(0, 0)
	m := model{
		ctx:      ctx,
		orch:     orch,
		store:    store,
		bridge:   bridge,
		textarea: ti,
		viewport: vp,
		messages: orch.Transcript(),
	}
	m.refresh()
	return m
}

// Init is the first command that is run when the program starts.
func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.bridge.listen())
}

// sendTurn runs one orchestrator turn off the UI loop.
func (m model) sendTurn(text string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.orch.Send(m.ctx, text)
		return turnDoneMsg{result: res, err: err}
	}
}

// Update handles incoming messages and updates the model accordingly.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-m.textarea.Height()-lipgloss.Height(m.footerView()), 1)
		m.textarea.SetWidth(msg.Width)
		m.renderer = nil
		m.refresh()
		return m, nil

	case turnDoneMsg:
		m.loading = false
		m.pending = ""
		switch {
		case errors.Is(msg.err, llm.ErrTurnInProgress):
			m.status = "Ghost is still working on the previous message."
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
		default:
			m.status = ""
		}
		m.messages = m.orch.Transcript()
		m.refresh()
		return m, nil

	case noticeMsg:
		m.notices = append(m.notices, string(msg))
		if len(m.notices) > maxNotices {
			m.notices = m.notices[len(m.notices)-maxNotices:]
		}
		m.refresh()
		return m, m.bridge.listen()

	case approvalRequestMsg:
		m.confirm = &confirmState{tool: msg.req.Tool, summary: msg.req.Summary, reply: msg.reply}
		return m, m.bridge.listen()

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.handleConfirmKey(msg)
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlN:
			m.runCommand("/new")
			return m, nil
		case tea.KeyEnter:
			// Get the value, but trim the newline that the component adds by default.
			prompt := strings.TrimSpace(m.textarea.Value())
			if prompt == "" || m.loading {
				return m, nil
			}
			m.textarea.Reset()
			if strings.HasPrefix(prompt, "/") {
				m.runCommand(prompt)
				return m, nil
			}
			m.loading = true
			m.pending = prompt
			m.notices = nil
			m.info = ""
			m.status = ""
			m.refresh()
			return m, m.sendTurn(prompt)
		}
	}

	// Pass all messages to child components.
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var decision, quit bool
	switch {
	case msg.String() == "y" || msg.String() == "Y":
		decision = true
	case msg.String() == "n" || msg.String() == "N" || msg.Type == tea.KeyEsc:
		decision = false
	case msg.Type == tea.KeyCtrlC:
		quit = true
	default:
		return m, nil
	}

	m.confirm.reply <- decision
	m.confirm = nil
	if quit {
		return m, tea.Quit
	}
	return m, nil
}

// View renders the UI based on the model's state.
func (m model) View() string {
	if m.confirm != nil {
		return renderConfirmModal(m.confirm, m.width, m.height)
	}
	// lipgloss.JoinVertical arranges strings vertically.
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		m.textarea.View(),
		m.footerView(),
	)
}

// footerView renders the status line and help text at the bottom.
func (m model) footerView() string {
	help := helpStyle.Render(fmt.Sprintf("model: %s | enter: send | ctrl+n: new chat | /help | ctrl+c: quit", m.orch.Model()))
	if m.status == "" {
		return help
	}
	return lipgloss.JoinVertical(lipgloss.Left, errorStyle.Render(m.status), help)
}

func (m *model) refresh() {
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

func (m *model) markdown(s string) string {
	if m.renderer == nil {
		opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
		if m.width > 0 {
			opts = append(opts, glamour.WithWordWrap(m.width-4))
		}
		r, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return s
		}
		m.renderer = r
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s
	}
	return out
}

// renderConversation renders the entire message history into a single string.
func (m *model) renderConversation() string {
	var b strings.Builder

	for _, msg := range m.messages {
		switch msg.Sender {
		case llm.SenderUser:
			b.WriteString(userStyle.Render("You") + ":\n")
			b.WriteString(msg.Content + "\n\n")
		case llm.SenderSystem:
			b.WriteString(errorStyle.Render(msg.Content) + "\n\n")
		default:
			b.WriteString(assistantStyle.Render("Ghost") + ":\n")
			b.WriteString(m.markdown(msg.Content) + "\n")
		}
	}

	if m.pending != "" {
		b.WriteString(userStyle.Render("You") + ":\n")
		b.WriteString(m.pending + "\n\n")
	}
	if m.info != "" {
		b.WriteString(noticeStyle.Render(m.info) + "\n\n")
	}
	for _, n := range m.notices {
		b.WriteString(noticeStyle.Render(n) + "\n")
	}
	if m.loading {
		b.WriteString("Ghost: ...\n")
	}

	return b.String()
}
