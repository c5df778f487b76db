package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	tokenMin = 100000
	tokenMax = 999999
)

// NumericCodeGenerator implements ports.CodeGenerator with 6-digit codes
// drawn uniformly from [100000, 999999].
type NumericCodeGenerator struct{}

func NewNumericCodeGenerator() *NumericCodeGenerator {
	return &NumericCodeGenerator{}
}

func (g *NumericCodeGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(tokenMax-tokenMin+1))
	if err != nil {
		return "", fmt.Errorf("reading random source: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+tokenMin), nil
}
