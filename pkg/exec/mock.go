package exec

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// MockCommandExecutor is a configurable CommandExecutor for testing
// CLI-backed adapters. Responses are keyed by the space-joined command
// line; patterns match by prefix, so registering "bws secret list"
// answers any invocation that starts with those tokens.
type MockCommandExecutor struct {
	mu sync.Mutex

	responses map[string]MockResponse
	missing   map[string]bool

	// Calls records every Execute/ExecuteInput invocation in order.
	Calls []RecordedCall

	// Strict causes Execute to fail on commands with no registered
	// response instead of returning empty success.
	Strict bool
}

// MockResponse defines the mocked output for a command pattern.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// RecordedCall stores one command execution for later verification.
type RecordedCall struct {
	Name  string
	Args  []string
	Input []byte
}

// NewMock creates an empty mock executor.
func NewMock() *MockCommandExecutor {
	return &MockCommandExecutor{
		responses: make(map[string]MockResponse),
		missing:   make(map[string]bool),
	}
}

// Respond registers stdout for a command pattern.
func (m *MockCommandExecutor) Respond(pattern, stdout string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[pattern] = MockResponse{Stdout: []byte(stdout)}
}

// Fail registers a failing response for a command pattern.
func (m *MockCommandExecutor) Fail(pattern, stderr string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[pattern] = MockResponse{Stderr: []byte(stderr), Err: err}
}

// MarkMissing makes LookPath fail for the named binary.
func (m *MockCommandExecutor) MarkMissing(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.missing[name] = true
}

// Execute implements CommandExecutor.
func (m *MockCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return m.ExecuteInput(ctx, nil, name, args...)
}

// ExecuteInput implements CommandExecutor.
func (m *MockCommandExecutor) ExecuteInput(_ context.Context, input []byte, name string, args ...string) ([]byte, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, RecordedCall{Name: name, Args: args, Input: input})

	key := name
	if len(args) > 0 {
		key = name + " " + strings.Join(args, " ")
	}
	if resp, ok := m.responses[key]; ok {
		return resp.Stdout, resp.Stderr, resp.Err
	}
	for pattern, resp := range m.responses {
		if strings.HasPrefix(key, pattern) {
			return resp.Stdout, resp.Stderr, resp.Err
		}
	}
	if m.Strict {
		return nil, nil, fmt.Errorf("mock: no response configured for %q", key)
	}
	return []byte{}, []byte{}, nil
}

// LookPath implements CommandExecutor.
func (m *MockCommandExecutor) LookPath(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missing[name] {
		return fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return nil
}

// AssertCalled fails the test unless the named binary was executed.
func (m *MockCommandExecutor) AssertCalled(t *testing.T, name string) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.Calls {
		if call.Name == name {
			return
		}
	}
	t.Errorf("expected a call to %q, got %d other calls", name, len(m.Calls))
}

var _ CommandExecutor = (*MockCommandExecutor)(nil)
