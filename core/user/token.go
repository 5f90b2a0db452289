package user

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"time"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrInvalidResetToken = errors.New("invalid password reset token")
	ErrResetTokenExpired = errors.New("password reset token expired")
)

// makeResetToken generates a random password reset token.
// Only its hash is persisted; the raw token travels in the reset link.
func makeResetToken() (string, []byte, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	return token, hashResetToken(token), nil
}

func hashResetToken(token string) []byte {
	h := sha256.Sum256([]byte(token))
	return h[:]
}

// verifyResetToken checks a raw token against the user's stored hash and expiry.
func (u User) verifyResetToken(token string) error {
	if token == "" || len(u.ResetTokenHash) == 0 {
		return ErrInvalidResetToken
	}
	if subtle.ConstantTimeCompare(hashResetToken(token), u.ResetTokenHash) == 0 {
		return ErrInvalidResetToken
	}
	if u.ResetExpiry.IsZero() || NowFunc().After(u.ResetExpiry) {
		return ErrResetTokenExpired
	}
	return nil
}
