package llm

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode"

	"ghost/internal/tools"
)

const fence = "```"

// Call is a tool invocation decoded from a model reply.
type Call struct {
	Name   string
	Params tools.Params
}

type wireCall struct {
	ToolName   json.RawMessage `json:"tool_name"`
	Parameters json.RawMessage `json:"parameters"`
}

// ExtractCall reports whether reply encodes a tool call of the form
//
//	{"tool_name": "<name>", "parameters": {...}}
//
// optionally wrapped in a fenced code block. Anything else, including prose
// around an otherwise valid object, is ordinary chat text.
func ExtractCall(reply string) (Call, bool) {
	text := strings.TrimSpace(reply)
	if text == "" {
		return Call{}, false
	}
	text = strings.TrimSpace(stripFence(text))
	if text == "" || text[0] != '{' {
		return Call{}, false
	}

	var wc wireCall
	if err := json.Unmarshal([]byte(text), &wc); err != nil {
		return Call{}, false
	}

	var name string
	if len(wc.ToolName) == 0 || json.Unmarshal(wc.ToolName, &name) != nil {
		return Call{}, false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Call{}, false
	}

	params, ok := decodeParams(wc.Parameters)
	if !ok {
		return Call{}, false
	}
	return Call{Name: name, Params: params}, true
}

// decodeParams accepts only a JSON object; numbers stay json.Number.
func decodeParams(raw json.RawMessage) (tools.Params, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	params := tools.Params{}
	if err := dec.Decode(&params); err != nil {
		return nil, false
	}
	return params, true
}

// stripFence removes a surrounding ``` block and its optional language tag.
func stripFence(text string) string {
	if len(text) < 2*len(fence) || !strings.HasPrefix(text, fence) || !strings.HasSuffix(text, fence) {
		return text
	}
	inner := text[len(fence) : len(text)-len(fence)]

	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		if first := strings.TrimSpace(inner[:nl]); first == "" || isLangTag(first) {
			return inner[nl+1:]
		}
		return inner
	}

	// Single line: ```json {...}```
	trimmed := strings.TrimSpace(inner)
	if i := strings.IndexAny(trimmed, "{[ \t"); i > 0 && isLangTag(trimmed[:i]) {
		return strings.TrimSpace(trimmed[i:])
	}
	return inner
}

func isLangTag(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("-_+.#", r) {
			return false
		}
	}
	return true
}
