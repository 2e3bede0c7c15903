// Package logger keeps a bounded, in-memory history of tagged messages from
// the machine and its hosts. Consecutive identical messages share one entry.
package logger

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Permission gates a log call. Components that can be silenced, such as a
// quiet Machine, implement it.
type Permission interface {
	AllowLogging() bool
}

type always struct{}

func (always) AllowLogging() bool { return true }

// Allow is the Permission for callers that always log.
var Allow Permission = always{}

// Entry is one line of history. Count is the number of consecutive times
// the same tag and detail were logged.
type Entry struct {
	Timestamp time.Time
	Tag       string
	Detail    string
	Count     int
}

func (e Entry) String() string {
	var sb strings.Builder
	sb.WriteString(e.Tag)
	sb.WriteString(": ")
	sb.WriteString(e.Detail)
	if e.Count > 1 {
		sb.WriteString(" (x")
		sb.WriteString(strconv.Itoa(e.Count))
		sb.WriteByte(')')
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Logger is a fixed-size ring of entries, safe for concurrent use.
type Logger struct {
	mu    sync.Mutex
	ring  []Entry
	start int // index of the oldest entry
	size  int
	echo  io.Writer
	now   func() time.Time
}

// NewLogger returns a Logger that remembers at most capacity entries.
func NewLogger(capacity int) *Logger {
	if capacity < 1 {
		capacity = 1
	}
	return &Logger{ring: make([]Entry, capacity), now: time.Now}
}

// at returns the i'th oldest entry.
func (l *Logger) at(i int) *Entry {
	return &l.ring[(l.start+i)%len(l.ring)]
}

func (l *Logger) Log(perm Permission, tag, detail string) {
	if !perm.AllowLogging() {
		return
	}
	tag = strings.ReplaceAll(tag, "\n", "")
	detail = strings.ReplaceAll(detail, "\n", "")

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size > 0 {
		if last := l.at(l.size - 1); last.Tag == tag && last.Detail == detail {
			last.Count++
			last.Timestamp = l.now()
			l.echoEntry(*last)
			return
		}
	}

	e := Entry{Timestamp: l.now(), Tag: tag, Detail: detail, Count: 1}
	if l.size < len(l.ring) {
		*l.at(l.size) = e
		l.size++
	} else {
		l.ring[l.start] = e
		l.start = (l.start + 1) % len(l.ring)
	}
	l.echoEntry(e)
}

func (l *Logger) echoEntry(e Entry) {
	if l.echo != nil {
		io.WriteString(l.echo, e.String())
	}
}

func (l *Logger) Logf(perm Permission, tag, format string, args ...any) {
	if !perm.AllowLogging() {
		return
	}
	l.Log(Allow, tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start, l.size = 0, 0
}

// Write writes the whole history to output, oldest first.
func (l *Logger) Write(output io.Writer) {
	l.Tail(output, -1)
}

// Tail writes the newest n entries to output. A negative n writes all of
// them.
func (l *Logger) Tail(output io.Writer, n int) {
	for _, e := range l.last(n) {
		io.WriteString(output, e.String())
	}
}

// SetEcho copies every new or repeated entry to output. nil stops echoing.
func (l *Logger) SetEcho(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.echo = output
}

// Entries returns a copy of the history, oldest first.
func (l *Logger) Entries() []Entry {
	return l.last(-1)
}

func (l *Logger) last(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n < 0 || n > l.size {
		n = l.size
	}
	out := make([]Entry, 0, n)
	for i := l.size - n; i < l.size; i++ {
		out = append(out, *l.at(i))
	}
	return out
}

const centralCapacity = 256

var central = NewLogger(centralCapacity)

// Log records an entry in the process-wide history.
func Log(perm Permission, tag, detail string) { central.Log(perm, tag, detail) }

// Logf is Log with formatting.
func Logf(perm Permission, tag, format string, args ...any) {
	central.Logf(perm, tag, format, args...)
}

func Clear() { central.Clear() }
func Write(output io.Writer) { central.Write(output) }
func Tail(output io.Writer, n int) { central.Tail(output, n) }
func SetEcho(output io.Writer) { central.SetEcho(output) }
func Entries() []Entry { return central.Entries() }
