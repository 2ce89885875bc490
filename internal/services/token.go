package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// verificationTokenBytes gives 256 bits of entropy; hex encoding fits the 64 char column.
const verificationTokenBytes = 32

func newVerificationToken() (string, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
