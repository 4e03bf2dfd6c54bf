// Package storage persists chat transcripts under user-chosen names.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"ghost/internal/llm"

	"github.com/sahilm/fuzzy"
)

const maxNameBytes = 200

var (
	// ErrInvalidChatName is returned for names that cannot be used as file names.
	ErrInvalidChatName = errors.New("invalid chat name")

	// ErrChatNotFound is returned when loading or deleting a chat that does not exist.
	ErrChatNotFound = errors.New("chat not found")
)

// ChatInfo describes a saved chat.
type ChatInfo struct {
	ID           string
	Name         string
	SavedAt      time.Time
	MessageCount int
}

// Store saves and loads chat transcripts.
type Store interface {
	Save(ctx context.Context, name string, msgs []llm.Message) error
	Load(ctx context.Context, name string) ([]llm.Message, error)
	List(ctx context.Context) ([]ChatInfo, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// ValidateName rejects names containing characters that are invalid in file
// names on common filesystems.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidChatName)
	case trimmed != name:
		return fmt.Errorf("%w: %q has leading or trailing spaces", ErrInvalidChatName, name)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidChatName, name)
	case len(name) > maxNameBytes:
		return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidChatName, maxNameBytes)
	case strings.HasSuffix(name, "."):
		return fmt.Errorf("%w: %q ends with a dot", ErrInvalidChatName, name)
	}
	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidChatName, name, r)
		}
	}
	return nil
}

// Open returns the store for backend ("json" or "sqlite") rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "json":
		return NewJSONStore(dir)
	case "sqlite":
		return NewSQLiteStore(dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

type chatNames []ChatInfo

func (c chatNames) String(i int) string { return c[i].Name }
func (c chatNames) Len() int            { return len(c) }

// Filter fuzzy-matches chats by name, best match first. An empty query
// returns chats unchanged.
func Filter(chats []ChatInfo, query string) []ChatInfo {
	if strings.TrimSpace(query) == "" {
		return chats
	}
	matches := fuzzy.FindFrom(query, chatNames(chats))
	out := make([]ChatInfo, 0, len(matches))
	for _, m := range matches {
		out = append(out, chats[m.Index])
	}
	return out
}
