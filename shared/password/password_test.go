package password_test

import (
	"strings"
	"tahaworld/shared/password"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "regular password", input: "s3cret-pass"},
		{name: "arabic password", input: "كلمةالمرور٢٠٢٤"},
		{name: "empty", input: "", wantErr: password.ErrEmptyPassword},
		{name: "longer than bcrypt limit", input: strings.Repeat("a", password.MaxLength+1), wantErr: password.ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := password.Hash(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, tt.input, hash)
			assert.NoError(t, password.Verify(tt.input, hash))
		})
	}
}

func TestVerify(t *testing.T) {
	hash, err := password.Hash("correct-horse")
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{name: "match", password: "correct-horse", hash: hash},
		{name: "mismatch", password: "battery-staple", hash: hash, wantErr: true},
		{name: "empty password", password: "", hash: hash, wantErr: true},
		{name: "empty hash", password: "correct-horse", hash: "", wantErr: true},
		{name: "malformed hash", password: "correct-horse", hash: "not-a-hash", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := password.Verify(tt.password, tt.hash)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHashIsSalted(t *testing.T) {
	first, err := password.Hash("same-input")
	require.NoError(t, err)

	second, err := password.Hash("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
