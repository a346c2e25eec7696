package msglog

import (
	"sync"
	"time"

	"lab-radar.klederson.com/internal/geo"
)

// Message is a single timestamped diagnostic line.
type Message struct {
	Timestamp int64 // Unix milliseconds
	Text      string
}

// Row is a display-ready message.
type Row struct {
	Time string
	Text string
}

// Log is a bounded, newest-first buffer of messages. Entries beyond the
// capacity are dropped silently.
type Log struct {
	mu    sync.RWMutex
	buf   []Message
	limit int
	now   func() time.Time
}

// New creates a log holding at most capacity messages.
func New(capacity int) *Log {
	if capacity < 1 {
		capacity = 1
	}
	return &Log{
		buf:   make([]Message, 0, capacity),
		limit: capacity,
		now:   time.Now,
	}
}

// Append prepends text stamped with the current time.
func (l *Log) Append(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := Message{Timestamp: l.now().UnixMilli(), Text: text}
	if len(l.buf) < l.limit {
		l.buf = append(l.buf, Message{})
	}
	copy(l.buf[1:], l.buf[:len(l.buf)-1])
	l.buf[0] = msg
}

// Messages returns a copy of the stored messages, newest first.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.buf))
	copy(out, l.buf)
	return out
}

// Render returns display rows, newest first.
func (l *Log) Render() []Row {
	msgs := l.Messages()
	rows := make([]Row, len(msgs))
	for i, m := range msgs {
		rows[i] = Row{Time: geo.FormatTimestamp(m.Timestamp), Text: m.Text}
	}
	return rows
}

// Latest returns the newest message text, or "" if empty.
func (l *Log) Latest() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.buf) == 0 {
		return ""
	}
	return l.buf[0].Text
}

// Len returns the number of stored messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buf)
}

// Cap returns the configured capacity.
func (l *Log) Cap() int {
	return l.limit
}
