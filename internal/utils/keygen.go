package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateRandomHex returns n random bytes hex-encoded.
func GenerateRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateReceipt builds a gateway receipt id: rcpt_<ref>, or rcpt_<random>
// when no reference is given. Gateway receipts are capped at 40 characters.
func GenerateReceipt(ref string) (string, error) {
	if ref == "" {
		r, err := GenerateRandomHex(8)
		if err != nil {
			return "", err
		}
		ref = r
	}
	receipt := fmt.Sprintf("rcpt_%s", ref)
	if len(receipt) > 40 {
		receipt = receipt[:40]
	}
	return receipt, nil
}
