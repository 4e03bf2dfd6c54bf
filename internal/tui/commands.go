package tui

import (
	"errors"
	"fmt"
	"strings"

	"ghost/internal/storage"
)

const maxSuggestions = 5

const commandHelp = `Commands:
  /new            start a new chat
  /save <name>    save the current chat
  /load <name>    load a saved chat
  /chats [query]  list saved chats
  /model [id]     show or change the model
  /help           show this help`

// runCommand executes a slash command. Output goes to the info area; errors
// to the status line.
func (m *model) runCommand(line string) {
	m.status = ""
	m.info = ""
	fields := strings.Fields(line)
	name := fields[0]
	arg := strings.TrimSpace(strings.TrimPrefix(line, name))

	var err error
	switch name {
	case "/new":
		err = m.newChat()
	case "/save":
		err = m.saveChat(arg)
	case "/load":
		err = m.loadChat(arg)
	case "/chats":
		err = m.listChats(arg)
	case "/model":
		if arg == "" {
			m.info = "Current model: " + m.orch.Model()
			break
		}
		m.orch.SetModel(arg)
		m.info = "Model set to " + arg
	case "/help":
		m.info = commandHelp
	default:
		err = fmt.Errorf("unknown command %s (try /help)", name)
	}
	if err != nil {
		m.status = "Error: " + err.Error()
	}
	m.refresh()
}

func (m *model) newChat() error {
	if _, err := m.orch.NewChat(); err != nil {
		return err
	}
	m.messages = m.orch.Transcript()
	m.notices = nil
	return nil
}

func (m *model) saveChat(name string) error {
	if m.store == nil {
		return errors.New("chat storage is not configured")
	}
	if err := m.store.Save(m.ctx, name, m.orch.Transcript()); err != nil {
		return err
	}
	m.info = fmt.Sprintf("Chat saved as %q.", name)
	return nil
}

func (m *model) loadChat(name string) error {
	if m.store == nil {
		return errors.New("chat storage is not configured")
	}
	msgs, err := m.store.Load(m.ctx, name)
	if errors.Is(err, storage.ErrChatNotFound) {
		if hint := m.suggest(name); hint != "" {
			return fmt.Errorf("%w: %q. Did you mean: %s?", storage.ErrChatNotFound, name, hint)
		}
		return err
	}
	if err != nil {
		return err
	}
	if err := m.orch.LoadTranscript(msgs); err != nil {
		return err
	}
	m.messages = m.orch.Transcript()
	m.notices = nil
	m.info = fmt.Sprintf("Loaded chat %q.", name)
	return nil
}

func (m *model) listChats(query string) error {
	if m.store == nil {
		return errors.New("chat storage is not configured")
	}
	chats, err := m.store.List(m.ctx)
	if err != nil {
		return err
	}
	chats = storage.Filter(chats, query)
	if len(chats) == 0 {
		m.info = "No saved chats."
		return nil
	}
	var b strings.Builder
	b.WriteString("Saved chats:")
	for _, c := range chats {
		fmt.Fprintf(&b, "\n  %s (%d messages, %s)", c.Name, c.MessageCount, c.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	m.info = b.String()
	return nil
}

// suggest returns up to maxSuggestions saved chat names close to name.
func (m *model) suggest(name string) string {
	chats, err := m.store.List(m.ctx)
	if err != nil {
		return ""
	}
	matches := storage.Filter(chats, name)
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	names := make([]string, 0, len(matches))
	for _, c := range matches {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
