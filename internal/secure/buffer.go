// Package secure keeps secret values read from the user (stdin, prompts,
// arguments) in protected memory between input and the backend call.
// Values are encrypted at rest via memguard and mlocked where the OS
// allows it; nsm never writes secret material to disk.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer holds one transient secret value.
type Buffer struct {
	mu        sync.Mutex
	enclave   *memguard.Enclave
	destroyed bool
}

// NewBuffer seals data into a protected buffer. The caller should stop
// using (and ideally zero) the input slice afterwards; memguard wipes the
// copy it takes.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// NewBufferFromString seals a string value.
func NewBufferFromString(value string) *Buffer {
	return NewBuffer([]byte(value))
}

// WithValue decrypts the buffer and passes the plaintext to fn. The
// plaintext is wiped when fn returns; fn must not retain the string
// beyond the call.
func (b *Buffer) WithValue(fn func(value string) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed || b.enclave == nil {
		return fn("")
	}

	locked, err := b.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.String())
}

// Destroy marks the buffer unusable. Idempotent; WithValue after Destroy
// sees an empty value.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = true
	b.enclave = nil
}

// Purge wipes all memguard-managed memory. main defers this so secrets do
// not outlive the process.
func Purge() {
	memguard.Purge()
}
