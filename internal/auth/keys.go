// Package auth provides password hashing, session tokens and password reset tokens.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeyLength is the size of the master key (PASETO v4 needs 256 bits).
	KeyLength = 32
	// keyHexLength is the hex-encoded size of the master key.
	keyHexLength = 64
	keyFileName  = "auth.key"
)

// Key purposes for DeriveKey. Each yields an independent subkey.
const (
	PurposeResetToken = "bookbuddy/password-reset"
	PurposeCookieHash = "bookbuddy/cookie-hash"
	PurposeCookieEnc  = "bookbuddy/cookie-encrypt"
)

// LoadOrGenerateKey loads the master key from <dataPath>/auth.key, creating
// a random one on first start. The file holds the key hex-encoded.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	//#nosec G304 -- key path is derived from the configured data path
	if keyBytes, err := os.ReadFile(keyPath); err == nil {
		keyHex := strings.TrimSpace(string(keyBytes))
		if len(keyHex) != keyHexLength {
			return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
		}

		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid auth key format: not valid hex: %w", err)
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to save auth key: %w", err)
	}

	return key, nil
}

// DeriveKey derives a length-byte subkey of master for purpose using HKDF-SHA256.
func DeriveKey(master []byte, purpose string, length int) ([]byte, error) {
	if len(master) != KeyLength {
		return nil, fmt.Errorf("master key must be %d bytes, got %d", KeyLength, len(master))
	}
	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(purpose)), out); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return out, nil
}
