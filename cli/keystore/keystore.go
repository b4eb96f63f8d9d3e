// Package keystore provides secure storage for bearer tokens.
package keystore

import (
	"os"
	"path/filepath"
	"runtime"
)

// Keystore defines the interface for secure token storage.
type Keystore interface {
	// Set stores a name-token pair.
	Set(name, value string) error
	// Get retrieves a token by name. Returns error if not found.
	Get(name string) (string, error)
	// Delete removes a token by name.
	Delete(name string) error
	// List returns all stored token names.
	List() ([]string, error)
}

// MasterKeySource supplies the master key material used for encryption.
type MasterKeySource interface {
	GetMasterKey() ([]byte, error)
}

// StaticKeySource is a MasterKeySource backed by a fixed byte slice.
type StaticKeySource []byte

// GetMasterKey returns the static key material.
func (s StaticKeySource) GetMasterKey() ([]byte, error) {
	return []byte(s), nil
}

// ErrKeyNotFound is returned when a requested token does not exist.
type ErrKeyNotFound struct {
	Name string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Name
}

// DefaultKeystorePath returns the default keystore file path.
// - macOS/Linux: ~/.brook/keys.enc
// - Windows: %USERPROFILE%\.brook\keys.enc
func DefaultKeystorePath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "keys.enc"
	}

	return filepath.Join(homeDir, ".brook", "keys.enc")
}

// NewKeystore creates a new keystore using file-based encrypted storage.
func NewKeystore() (Keystore, error) {
	return NewFileKeystore(DefaultKeystorePath())
}
