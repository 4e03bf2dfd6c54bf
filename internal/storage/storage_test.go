package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ghost/internal/llm"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	valid := []string{"raid notes", "Vault of Glass", "chat-1", "ghost_2025.01", "ünïcödé"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{"", "   ", " padded", ".", "..", "a/b", `a\b`, "a:b", "what?", "star*", "pipe|", `"quoted"`, "<tag>", "tab\tname", "trailing.", string(make([]byte, maxNameBytes+1))}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidChatName, "%q", name)
	}
}

func TestFilter(t *testing.T) {
	chats := []ChatInfo{{Name: "raid notes"}, {Name: "grocery list"}, {Name: "raid loot"}}

	assert.Equal(t, chats, Filter(chats, ""))

	var names []string
	for _, c := range Filter(chats, "raid") {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"raid notes", "raid loot"}, names)
	assert.Empty(t, Filter(chats, "xyz"))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("json", dir)
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open("sqlite", dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("floppy", dir)
	assert.Error(t, err)
}

// tickingClock returns a time source that advances a minute per call.
func tickingClock() func() time.Time {
	next := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		next = next.Add(time.Minute)
		return next
	}
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T, dir string) Store{
		"json": func(t *testing.T, dir string) Store {
			s, err := NewJSONStore(dir)
			require.NoError(t, err)
			s.now = tickingClock()
			return s
		},
		"sqlite": func(t *testing.T, dir string) Store {
			s, err := NewSQLiteStore(dir)
			require.NoError(t, err)
			s.now = tickingClock()
			return s
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t, t.TempDir())
			defer s.Close()

			ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
			msgs := []llm.Message{
				{Sender: llm.SenderAssistant, Content: llm.WelcomeMessage, Timestamp: ts},
				{Sender: llm.SenderUser, Content: "hello", Timestamp: ts.Add(time.Second)},
				{Sender: llm.SenderSystem, Content: "Error: offline", Timestamp: ts.Add(2 * time.Second)},
			}

			require.NoError(t, s.Save(ctx, "first", msgs))
			got, err := s.Load(ctx, "first")
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(msgs, got))

			require.NoError(t, s.Save(ctx, "first", msgs[:1]))
			got, err = s.Load(ctx, "first")
			require.NoError(t, err)
			assert.Len(t, got, 1, "saving again replaces the transcript")

			require.NoError(t, s.Save(ctx, "second", nil))
			got, err = s.Load(ctx, "second")
			require.NoError(t, err)
			assert.Empty(t, got)

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "second", list[0].Name, "most recent first")
			assert.Equal(t, 1, list[1].MessageCount)
			assert.NotEmpty(t, list[0].ID)

			_, err = s.Load(ctx, "missing")
			assert.ErrorIs(t, err, ErrChatNotFound)

			assert.ErrorIs(t, s.Save(ctx, "bad/name", msgs), ErrInvalidChatName)
			_, err = s.Load(ctx, "../escape")
			assert.ErrorIs(t, err, ErrInvalidChatName)

			require.NoError(t, s.Delete(ctx, "first"))
			assert.ErrorIs(t, s.Delete(ctx, "first"), ErrChatNotFound)
			list, err = s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, list, 1)
		})
	}
}

func TestJSONStore_KeepsIDAndPermissions(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "chats")
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "chat", nil))
	first, err := s.List(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "chat", []llm.Message{{Sender: llm.SenderUser, Content: "x"}}))
	second, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)

	info, err := os.Stat(filepath.Join(dir, "chat.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestJSONStore_ListSkipsCorruptFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "good", nil))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].Name)
}
