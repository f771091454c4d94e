package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// maxCodeAttempts bounds the collision retry loop of code generation
const maxCodeAttempts = 10

// TicketCode returns "T-" followed by 6 uppercase hex characters
func TicketCode() (string, error) {
	return hexCode("T-")
}

// CharterCode returns "F-" followed by 6 uppercase hex characters
func CharterCode() (string, error) {
	return hexCode("F-")
}

// ParcelCode returns "P-" followed by 6 decimal digits
func ParcelCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("P-%06d", n.Int64()), nil
}

func hexCode(prefix string) (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return prefix + strings.ToUpper(hex.EncodeToString(b)), nil
}

// UniqueCode draws codes from gen until exists reports one as unused
func UniqueCode(ctx context.Context, gen func() (string, error), exists func(context.Context, string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := gen()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique code after %d attempts", maxCodeAttempts)
}
