package llm

const (
	// DefaultHistoryLimit is the default maximum number of log entries.
	DefaultHistoryLimit = 20
	// MinHistoryLimit leaves room for the system entry and the latest message.
	MinHistoryLimit = 2
)

// Log is the bounded, role-tagged conversation sent to the completion
// endpoint. Entry 0 is the system entry and is never evicted.
// A Log is not safe for concurrent use.
type Log struct {
	entries []Entry
	limit   int
}

// NewLog creates a log seeded with the system entry. Limits below
// MinHistoryLimit are raised to it.
func NewLog(system Entry, limit int) *Log {
	l := &Log{limit: clampLimit(limit)}
	l.Reset(system)
	return l
}

func clampLimit(limit int) int {
	if limit < MinHistoryLimit {
		return MinHistoryLimit
	}
	return limit
}

// Reset discards every entry and re-seeds the system entry.
func (l *Log) Reset(system Entry) {
	system.Role = RoleSystem
	l.entries = []Entry{system}
}

// Append adds an entry. System entries are only ever seeded through Reset.
func (l *Log) Append(e Entry) {
	if e.Role == RoleSystem {
		return
	}
	l.entries = append(l.entries, e)
}

// Truncate drops the oldest entries after index 0 until the log fits its limit.
// It returns the number of entries removed.
func (l *Log) Truncate() int {
	excess := len(l.entries) - l.limit
	if excess <= 0 {
		return 0
	}
	if excess > len(l.entries)-1 {
		excess = len(l.entries) - 1
	}
	l.entries = append(l.entries[:1], l.entries[1+excess:]...)
	return excess
}

// Entries returns a copy of the log.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Limit returns the configured maximum size.
func (l *Log) Limit() int {
	return l.limit
}

// System returns the pinned system entry.
func (l *Log) System() Entry {
	return l.entries[0]
}
