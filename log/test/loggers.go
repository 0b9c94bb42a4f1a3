package test

import (
	"fmt"
	"sync"
	"testing"
)

// TestLogger forwards records to the test log.
type TestLogger struct {
	mtx sync.Mutex
	T   *testing.T
}

func (t *TestLogger) Debug(msg string, keyvals ...interface{}) {
	t.T.Helper()
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.T.Log(append([]interface{}{"DEBUG: " + msg}, keyvals...)...)
}

func (t *TestLogger) Info(msg string, keyvals ...interface{}) {
	t.T.Helper()
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.T.Log(append([]interface{}{"INFO:  " + msg}, keyvals...)...)
}

func (t *TestLogger) Error(msg string, keyvals ...interface{}) {
	t.T.Helper()
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.T.Log(append([]interface{}{"ERROR: " + msg}, keyvals...)...)
}

// MockLogger records every line so tests can assert on what was logged.
// Safe for concurrent use.
type MockLogger struct {
	mtx                             sync.Mutex
	DebugLines, InfoLines, ErrLines []string
}

func (t *MockLogger) Debug(msg string, keyvals ...interface{}) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.DebugLines = append(t.DebugLines, fmt.Sprint(append([]interface{}{msg}, keyvals...)...))
}

func (t *MockLogger) Info(msg string, keyvals ...interface{}) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.InfoLines = append(t.InfoLines, fmt.Sprint(append([]interface{}{msg}, keyvals...)...))
}

func (t *MockLogger) Error(msg string, keyvals ...interface{}) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.ErrLines = append(t.ErrLines, fmt.Sprint(append([]interface{}{msg}, keyvals...)...))
}

// Errors returns a copy of the error lines recorded so far.
func (t *MockLogger) Errors() []string {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return append([]string(nil), t.ErrLines...)
}

// All returns a copy of every recorded line, regardless of level.
func (t *MockLogger) All() []string {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	lines := make([]string, 0, len(t.DebugLines)+len(t.InfoLines)+len(t.ErrLines))
	lines = append(lines, t.DebugLines...)
	lines = append(lines, t.InfoLines...)
	return append(lines, t.ErrLines...)
}
