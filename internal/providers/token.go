package providers

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zalando/go-keyring"
)

// TokenStore abstracts the OS credential store that holds backend access
// tokens. The production implementation talks to the platform keychain
// (macOS Keychain, Linux Secret Service, Windows Credential Manager).
type TokenStore interface {
	GetToken(key string) (string, error)
	SetToken(key, value string) error
}

// keychainAccount mirrors the original keychain layout, which filed every
// token under a single throwaway account name.
const keychainAccount = "none"

// ErrTokenNotFound is returned when no token is stored under a key.
var ErrTokenNotFound = fmt.Errorf("access token not found in keychain")

// KeyringTokenStore stores tokens in the OS keychain.
type KeyringTokenStore struct{}

// GetToken retrieves the token stored under key.
func (s *KeyringTokenStore) GetToken(key string) (string, error) {
	value, err := keyring.Get(key, keychainAccount)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("keychain query for %s failed: %w", key, err)
	}
	return strings.TrimRight(value, "\n"), nil
}

// SetToken stores the token under key, replacing any previous value.
func (s *KeyringTokenStore) SetToken(key, value string) error {
	if err := keyring.Set(key, keychainAccount, value); err != nil {
		return fmt.Errorf("keychain update for %s failed: %w", key, err)
	}
	return nil
}

// MemoryTokenStore is an in-memory TokenStore for tests.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

// GetToken implements TokenStore.
func (s *MemoryTokenStore) GetToken(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.tokens[key]
	if !ok {
		return "", ErrTokenNotFound
	}
	return value, nil
}

// SetToken implements TokenStore.
func (s *MemoryTokenStore) SetToken(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		s.tokens = make(map[string]string)
	}
	s.tokens[key] = value
	return nil
}

// AccessTokenName computes the keychain entry that holds the bws access
// token for an organization: bws-<org>-<hostname>-<year>. Rotating the
// token yearly gets a fresh entry for free.
func AccessTokenName(org string) (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to determine hostname: %w", err)
	}
	return accessTokenName(org, host, time.Now().Year()), nil
}

func accessTokenName(org, hostname string, year int) string {
	hostname = strings.TrimSuffix(hostname, ".local")
	return fmt.Sprintf("bws-%s-%s-%d", org, hostname, year)
}
