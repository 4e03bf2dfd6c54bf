package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ghost/internal/llm"

	"github.com/google/uuid"
)

// chatFile is the on-disk shape of a saved chat.
type chatFile struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	SavedAt  time.Time     `json:"saved_at"`
	Messages []llm.Message `json:"messages"`
}

// JSONStore keeps one <name>.json file per chat in a directory.
type JSONStore struct {
	dir string
	now func() time.Time
}

// NewJSONStore creates the directory (0700) if needed.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create chats directory: %w", err)
	}
	return &JSONStore{dir: dir, now: time.Now}, nil
}

func (s *JSONStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes the transcript atomically, keeping the chat's ID across saves.
func (s *JSONStore) Save(ctx context.Context, name string, msgs []llm.Message) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	cf := chatFile{ID: uuid.NewString(), Name: name, SavedAt: s.now(), Messages: msgs}
	if existing, err := s.read(name); err == nil && existing.ID != "" {
		cf.ID = existing.ID
	}
	if cf.Messages == nil {
		cf.Messages = []llm.Message{}
	}

	data, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chat: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".chat-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write chat: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write chat: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("failed to save chat %q: %w", name, err)
	}
	return nil
}

func (s *JSONStore) read(name string) (*chatFile, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrChatNotFound, name)
		}
		return nil, fmt.Errorf("failed to read chat %q: %w", name, err)
	}
	var cf chatFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse chat %q: %w", name, err)
	}
	return &cf, nil
}

// Load returns the saved transcript.
func (s *JSONStore) Load(ctx context.Context, name string) ([]llm.Message, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	cf, err := s.read(name)
	if err != nil {
		return nil, err
	}
	return cf.Messages, nil
}

// List returns saved chats, most recently saved first. Unreadable files are skipped.
func (s *JSONStore) List(ctx context.Context) ([]ChatInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read chats directory: %w", err)
	}

	var chats []ChatInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		cf, err := s.read(name)
		if err != nil {
			continue
		}
		chats = append(chats, ChatInfo{ID: cf.ID, Name: name, SavedAt: cf.SavedAt, MessageCount: len(cf.Messages)})
	}
	sortChats(chats)
	return chats, nil
}

// Delete removes a saved chat.
func (s *JSONStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrChatNotFound, name)
		}
		return fmt.Errorf("failed to delete chat %q: %w", name, err)
	}
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func sortChats(chats []ChatInfo) {
	sort.SliceStable(chats, func(i, j int) bool {
		if !chats[i].SavedAt.Equal(chats[j].SavedAt) {
			return chats[i].SavedAt.After(chats[j].SavedAt)
		}
		return chats[i].Name < chats[j].Name
	})
}
