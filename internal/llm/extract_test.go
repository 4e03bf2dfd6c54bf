package llm

import (
	"encoding/json"
	"testing"

	"ghost/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCall_Recognized(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Call
	}{
		{
			name:  "bare object",
			reply: `{"tool_name":"read_file_content","parameters":{"path":"a.txt"}}`,
			want:  Call{Name: "read_file_content", Params: tools.Params{"path": "a.txt"}},
		},
		{
			name:  "surrounding whitespace",
			reply: "\n\t  {\"tool_name\": \"list_directory\", \"parameters\": {\"path\": \".\"}}  \n",
			want:  Call{Name: "list_directory", Params: tools.Params{"path": "."}},
		},
		{
			name:  "fenced with language tag",
			reply: "```json\n{\"tool_name\":\"read_file_content\",\"parameters\":{\"path\":\"C:\\\\x.txt\"}}\n```",
			want:  Call{Name: "read_file_content", Params: tools.Params{"path": `C:\x.txt`}},
		},
		{
			name:  "fenced without tag",
			reply: "```\n{\"tool_name\":\"get_attached_process\",\"parameters\":{}}\n```",
			want:  Call{Name: "get_attached_process", Params: tools.Params{}},
		},
		{
			name:  "single line fence",
			reply: "```json {\"tool_name\":\"web_search\",\"parameters\":{\"query\":\"go\"}}```",
			want:  Call{Name: "web_search", Params: tools.Params{"query": "go"}},
		},
		{
			name:  "empty parameters",
			reply: `{"tool_name":"unsupported_tool","parameters":{}}`,
			want:  Call{Name: "unsupported_tool", Params: tools.Params{}},
		},
		{
			name:  "numbers and booleans",
			reply: `{"tool_name":"x","parameters":{"n":3,"ok":true}}`,
			want:  Call{Name: "x", Params: tools.Params{"n": json.Number("3"), "ok": true}},
		},
		{
			name:  "extra fields ignored",
			reply: `{"tool_name":"x","parameters":{},"reason":"because"}`,
			want:  Call{Name: "x", Params: tools.Params{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractCall(tt.reply)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractCall_NotACall(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t "},
		{"plain text", "Hi there"},
		{"empty fence", "```\n```"},
		{"empty fence with tag", "```json\n\n```"},
		{"malformed json", `{"tool_name":"x","parameters":{`},
		{"missing name", `{"parameters":{}}`},
		{"blank name", `{"tool_name":"  ","parameters":{}}`},
		{"null name", `{"tool_name":null,"parameters":{}}`},
		{"numeric name", `{"tool_name":7,"parameters":{}}`},
		{"missing parameters", `{"tool_name":"x"}`},
		{"null parameters", `{"tool_name":"x","parameters":null}`},
		{"scalar parameters", `{"tool_name":"x","parameters":"path"}`},
		{"array parameters", `{"tool_name":"x","parameters":["a"]}`},
		{"array top level", `[{"tool_name":"x","parameters":{}}]`},
		{"leading prose", `Sure! {"tool_name":"x","parameters":{}}`},
		{"trailing prose", `{"tool_name":"x","parameters":{}} Done.`},
		{"unterminated fence", "```json\n{\"tool_name\":\"x\",\"parameters\":{}}"},
		{"two objects", `{"tool_name":"x","parameters":{}}{"tool_name":"y","parameters":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ExtractCall(tt.reply)
			assert.False(t, ok)
		})
	}
}

func TestExtractCall_RoundTrip(t *testing.T) {
	calls := []Call{
		{Name: "read_file_content", Params: tools.Params{"path": "/tmp/a b.txt"}},
		{Name: "move_file", Params: tools.Params{"source": "a", "destination": "b"}},
		{Name: "get_attached_process", Params: tools.Params{}},
		{Name: "write_file", Params: tools.Params{"path": "x", "content": "line1\nline2 \"quoted\" ```"}},
	}
	for _, c := range calls {
		raw, err := json.Marshal(map[string]any{"tool_name": c.Name, "parameters": c.Params})
		require.NoError(t, err)

		for _, rendered := range []string{string(raw), "```json\n" + string(raw) + "\n```", "```\n" + string(raw) + "\n```"} {
			got, ok := ExtractCall(rendered)
			require.True(t, ok, rendered)
			assert.Equal(t, c, got)
		}
	}
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, "{}\n", stripFence("```json\n{}\n```"))
	assert.Equal(t, "plain", stripFence("plain"))
	assert.Equal(t, "{}", stripFence("```go {}```"))
	assert.Equal(t, "not a tag\n{}\n", stripFence("```not a tag\n{}\n```"))
}
