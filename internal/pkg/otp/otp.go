package otp

import (
	"crypto/rand"
	"io"
	"math/big"

	"github.com/pquerna/otp"
)

// Generator produces one-time codes.
type Generator interface {
	Generate() (string, error)
}

// Code generates uniformly distributed numeric codes.
type Code struct {
	digits otp.Digits
	max    *big.Int
	rand   io.Reader
}

// NewCode returns a generator for codes of the given length. Anything other
// than six or eight digits falls back to six.
func NewCode(digits otp.Digits) *Code {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	limit := big.NewInt(1)
	for range digits.Length() {
		limit.Mul(limit, big.NewInt(10))
	}

	return &Code{digits: digits, max: limit, rand: rand.Reader}
}

// Generate returns a fresh zero-padded code.
func (c *Code) Generate() (string, error) {
	n, err := rand.Int(c.rand, c.max)
	if err != nil {
		return "", err
	}

	return c.digits.Format(int32(n.Int64())), nil
}
