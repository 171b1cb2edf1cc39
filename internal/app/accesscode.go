package app

import (
	"crypto/rand"
	"fmt"
)

const (
	// accessCodeAlphabet omits I, O, 0 and 1 to avoid misreads.
	accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	accessCodeLength   = 6
	maxCodeAttempts    = 10
)

// CodeGenerator produces candidate access codes.
type CodeGenerator func() (string, error)

// GenerateAccessCode draws a random code from accessCodeAlphabet. The
// alphabet has 32 symbols, so reducing a byte modulo 32 is unbiased.
func GenerateAccessCode() (string, error) {
	buf := make([]byte, accessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	for i, b := range buf {
		buf[i] = accessCodeAlphabet[int(b)%len(accessCodeAlphabet)]
	}
	return string(buf), nil
}
