package user

import (
	"bytes"
	"testing"
	"time"
)

func Test_makeResetToken(t *testing.T) {
	token, hash, err := makeResetToken()
	if err != nil {
		t.Fatalf("makeResetToken(): %v", err)
	}
	if token == "" {
		t.Error("expected a non-empty token")
	}
	if !bytes.Equal(hash, hashResetToken(token)) {
		t.Error("returned hash does not match the token's hash")
	}

	token2, _, err := makeResetToken()
	if err != nil {
		t.Fatalf("makeResetToken(): %v", err)
	}
	if token == token2 {
		t.Error("expected unique tokens")
	}
}

func Test_verifyResetToken(t *testing.T) {
	token, hash, err := makeResetToken()
	if err != nil {
		t.Fatalf("makeResetToken(): %v", err)
	}
	expiry := time.Now().Add(15 * time.Minute)

	tests := []struct {
		name    string
		usr     User
		token   string
		now     time.Time
		wantErr error
	}{
		{
			name:    "no token",
			usr:     User{ResetTokenHash: hash, ResetExpiry: expiry},
			wantErr: ErrInvalidResetToken,
		},
		{
			name:    "no stored hash",
			usr:     User{ResetExpiry: expiry},
			token:   token,
			wantErr: ErrInvalidResetToken,
		},
		{
			name:    "wrong token",
			usr:     User{ResetTokenHash: hash, ResetExpiry: expiry},
			token:   "n0t-the-t0ken",
			wantErr: ErrInvalidResetToken,
		},
		{
			name:    "expired",
			usr:     User{ResetTokenHash: hash, ResetExpiry: expiry},
			token:   token,
			now:     expiry.Add(time.Minute),
			wantErr: ErrResetTokenExpired,
		},
		{
			name:    "no expiry set",
			usr:     User{ResetTokenHash: hash},
			token:   token,
			wantErr: ErrResetTokenExpired,
		},
		{
			name:  "valid",
			usr:   User{ResetTokenHash: hash, ResetExpiry: expiry},
			token: token,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.now.IsZero() {
				NowFunc = func() time.Time { return tt.now }
				defer func() { NowFunc = time.Now }()
			}

			if err := tt.usr.verifyResetToken(tt.token); err != tt.wantErr {
				t.Errorf("verifyResetToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
