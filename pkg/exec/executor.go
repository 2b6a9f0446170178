// Package exec abstracts external command execution so that CLI-backed
// secret backends (bws, passbolt) can be exercised in tests without the
// real binaries installed.
package exec

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// CommandExecutor runs external commands on behalf of a backend adapter.
type CommandExecutor interface {
	// Execute runs a command and returns its stdout and stderr. A non-zero
	// exit status is reported through err (as *exec.ExitError in the real
	// implementation).
	Execute(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)

	// ExecuteInput is Execute with data piped to the command's stdin.
	ExecuteInput(ctx context.Context, input []byte, name string, args ...string) (stdout []byte, stderr []byte, err error)

	// LookPath reports whether the named binary is available.
	LookPath(name string) error
}

// RealCommandExecutor executes actual commands using os/exec.
type RealCommandExecutor struct{}

// Execute runs the command and captures both output streams.
func (r *RealCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return r.run(ctx, nil, name, args...)
}

// ExecuteInput runs the command with input on stdin.
func (r *RealCommandExecutor) ExecuteInput(ctx context.Context, input []byte, name string, args ...string) ([]byte, []byte, error) {
	return r.run(ctx, bytes.NewReader(input), name, args...)
}

// LookPath reports whether name resolves on PATH.
func (r *RealCommandExecutor) LookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}

func (r *RealCommandExecutor) run(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Default returns the standard production executor.
func Default() CommandExecutor {
	return &RealCommandExecutor{}
}
