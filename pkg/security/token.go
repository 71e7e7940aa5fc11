package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const tokenCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// SessionTokenLength is the length of opaque bearer session tokens.
	SessionTokenLength = 60
	// ResetTokenLength is the length of one-time attempt-reset tokens.
	ResetTokenLength = 40
)

// GenerateToken returns an opaque alphanumeric string of length n drawn
// from crypto/rand. Tokens carry no embedded structure.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)

	// Rejection sampling keeps the charset distribution uniform.
	for i := 0; i < n; {
		var raw [1]byte
		if _, err := rand.Read(raw[:]); err != nil {
			return "", err
		}
		if int(raw[0]) < len(tokenCharset)*4 {
			b[i] = tokenCharset[int(raw[0])%len(tokenCharset)]
			i++
		}
	}

	return string(b), nil
}

// GeneratePIN returns a zero-padded 4-digit verification code in [0000, 9999].
func GeneratePIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
