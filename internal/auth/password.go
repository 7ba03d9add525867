package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Passwords longer than this are rejected before hashing.
const maxPasswordLength = 1024

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// ErrPasswordEmpty is returned when hashing an empty password.
var ErrPasswordEmpty = errors.New("password cannot be empty")

// ErrPasswordTooLong is returned when a password exceeds maxPasswordLength.
var ErrPasswordTooLong = errors.New("password exceeds maximum length")

// PasswordHasher hashes and verifies argon2id passwords in PHC string format.
type PasswordHasher struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  int
	KeyLength   uint32
}

// DefaultPasswordHasher returns the production argon2id parameters.
func DefaultPasswordHasher() *PasswordHasher {
	return &PasswordHasher{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hash returns the encoded argon2id hash of password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordEmpty
	}
	if len(password) > maxPasswordLength {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, h.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.Iterations, h.Memory, h.Parallelism, h.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Memory, h.Iterations, h.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches encoded. The parameters stored in
// encoded are used, so hashes made with other settings still verify.
// Malformed hashes never match.
func (h *PasswordHasher) Verify(encoded, password string) bool {
	if password == "" || len(password) > maxPasswordLength {
		return false
	}

	p, err := decodeHash(encoded)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), p.salt, p.iterations, p.memory, p.parallelism, uint32(len(p.key))) //nolint:gosec // key length comes from our own encoder
	return subtle.ConstantTimeCompare(p.key, candidate) == 1
}

type decodedHash struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func decodeHash(encoded string) (*decodedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("incompatible version: %d", version)
	}

	d := &decodedHash{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.memory, &d.iterations, &d.parallelism); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("invalid salt encoding: %w", err)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("invalid hash encoding: %w", err)
	}
	if len(d.key) == 0 {
		return nil, errors.New("empty hash")
	}

	return d, nil
}
