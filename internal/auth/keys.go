// Package auth provides password hashing, access tokens and external sign-in.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PASETO v4.local requires a 256-bit symmetric key.
const keyLength = 32

// LoadOrGenerateKey reads the hex-encoded token key at keyPath, creating a
// fresh random key there when the file does not exist.
func LoadOrGenerateKey(keyPath string) ([]byte, error) {
	raw, err := os.ReadFile(keyPath) //#nosec G304 -- path comes from configuration
	switch {
	case err == nil:
		key, decodeErr := hex.DecodeString(strings.TrimSpace(string(raw)))
		if decodeErr != nil {
			return nil, fmt.Errorf("invalid auth key format: not valid hex: %w", decodeErr)
		}
		if len(key) != keyLength {
			return nil, fmt.Errorf("invalid auth key length: expected %d bytes, got %d", keyLength, len(key))
		}
		return key, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}

	return key, nil
}
