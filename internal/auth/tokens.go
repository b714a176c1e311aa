package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

// sessionTokenSize is the entropy of an opaque session token.
const sessionTokenSize = 32

// NewSessionToken returns a random opaque session token, base64url encoded.
// Only HashToken(token) is ever persisted.
func NewSessionToken() (string, error) {
	b := make([]byte, sessionTokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken returns the hex SHA-256 of a token for storage and lookup.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

const (
	resetIssuer   = "bookbuddy"
	resetAudience = "bookbuddy-password-reset"
)

// Reset token verification errors.
var (
	ErrTokenMalformed = errors.New("reset token is malformed or was not issued by this server")
	ErrTokenExpired   = errors.New("reset token has expired")
)

// ResetClaims are the claims carried by a password reset token.
type ResetClaims struct {
	ResetID   string
	UserID    string
	ExpiresAt time.Time
}

// ResetTokens issues and opens PASETO v4.local password reset tokens.
// The token is encrypted, so the reset and user ids are not visible in
// emailed links.
type ResetTokens struct {
	key      paseto.V4SymmetricKey
	implicit []byte
	now      func() time.Time
}

// NewResetTokens creates a reset token codec from the server master key.
func NewResetTokens(master []byte) (*ResetTokens, error) {
	sub, err := DeriveKey(master, PurposeResetToken, KeyLength)
	if err != nil {
		return nil, err
	}
	key, err := paseto.V4SymmetricKeyFromBytes(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &ResetTokens{
		key:      key,
		implicit: []byte(PurposeResetToken),
		now:      time.Now,
	}, nil
}

// SetClock replaces the time source used for issued-at and expiry checks.
func (r *ResetTokens) SetClock(now func() time.Time) {
	r.now = now
}

// Issue encrypts claims into a token string.
func (r *ResetTokens) Issue(c ResetClaims) string {
	now := r.now()

	token := paseto.NewToken()
	token.SetIssuer(resetIssuer)
	token.SetAudience(resetAudience)
	token.SetSubject(c.UserID)
	token.SetJti(c.ResetID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(c.ExpiresAt)

	return token.V4Encrypt(r.key, r.implicit)
}

// Open decrypts and checks a token. Tokens that fail decryption or carry
// the wrong issuer/audience return ErrTokenMalformed. Tokens past their
// expiry return the claims together with ErrTokenExpired, so callers can
// still tell which reset they referred to.
func (r *ResetTokens) Open(tokenString string) (*ResetClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.IssuedBy(resetIssuer))
	parser.AddRule(paseto.ForAudience(resetAudience))

	token, err := parser.ParseV4Local(r.key, tokenString, r.implicit)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	resetID, err := token.GetJti()
	if err != nil || resetID == "" {
		return nil, ErrTokenMalformed
	}
	userID, err := token.GetSubject()
	if err != nil || userID == "" {
		return nil, ErrTokenMalformed
	}
	exp, err := token.GetExpiration()
	if err != nil {
		return nil, ErrTokenMalformed
	}

	claims := &ResetClaims{ResetID: resetID, UserID: userID, ExpiresAt: exp}
	if !r.now().Before(exp) {
		return claims, ErrTokenExpired
	}
	return claims, nil
}
