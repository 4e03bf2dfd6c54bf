package llm

import (
	_ "embed"
	"strings"
	"text/template"

	"ghost/internal/tools"
)

// DefaultPersona opens the system prompt unless a custom persona is configured.
const DefaultPersona = "You are a helpful Ghost assistant, the loyal companion of a Guardian. Answer clearly and concisely, and keep a friendly, upbeat tone."

// WelcomeMessage greets the user at the start of every new chat.
const WelcomeMessage = "Welcome, Guardian! Ghost at your service. How can I assist you today?"

//go:embed prompt.md
var systemPromptContent string

var systemPromptTmpl = template.Must(template.New("system").Parse(systemPromptContent))

// BuildSystemPrompt renders the instructions sent as the system entry.
// An empty persona selects DefaultPersona; the tool catalog is always appended.
func BuildSystemPrompt(persona string, catalog []tools.Info) (string, error) {
	persona = strings.TrimSpace(persona)
	if persona == "" {
		persona = DefaultPersona
	}

	var b strings.Builder
	err := systemPromptTmpl.Execute(&b, struct {
		Persona string
		Tools   []tools.Info
	}{persona, catalog})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
