package jllog

import "sync"

// Entry is one recorded call to RecordingSink.Log.
type Entry struct {
	Level         Level
	Message       string
	KeysAndValues []interface{}
}

// RecordingSink is a Sink that records every call for assertions in tests,
// in the spirit of go.viam.com/rdk/logging's zaptest/observer-backed test
// logger.
type RecordingSink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecordingSink returns an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Log implements Sink.
func (r *RecordingSink) Log(level Level, msg string, keysAndValues ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg, KeysAndValues: keysAndValues})
}

// Entries returns a copy of every call recorded so far.
func (r *RecordingSink) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
