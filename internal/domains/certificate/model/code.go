package model

import (
	"crypto/rand"
	"fmt"
)

const (
	// CodeAlphabet omits 0, 1, I and O.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	CodeLength   = 10

	// CodeTag validates a code supplied by a verifier. len must follow CodeLength.
	CodeTag = "required,alphanum,len=10"
)

// NewVerificationCode draws CodeLength characters from CodeAlphabet. The alphabet has 32 symbols,
// so masking a random byte to five bits keeps every symbol equally likely.
func NewVerificationCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	for i, b := range buf {
		buf[i] = CodeAlphabet[b&31]
	}

	return string(buf), nil
}
