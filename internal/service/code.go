package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

var alphabetSize = big.NewInt(int64(len(codeAlphabet)))

// generateCode draws a session code from crypto/rand.
func generateCode() (string, error) {
	b := make([]byte, codeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// uniqueCode draws codes until one is not used by any session.
func (s *Service) uniqueCode(ctx context.Context) (string, error) {
	for {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		exists, err := s.store.SessionCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check session code: %w", err)
		}
		if !exists {
			return code, nil
		}
		s.logger.Debug("session code collision", "code", code)
	}
}
