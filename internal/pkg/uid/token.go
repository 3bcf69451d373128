package uid

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenBytes is the entropy of a generated token; the hex form is twice as long.
const tokenBytes = 32

// Token generates opaque random tokens encoded as lowercase hex.
type Token struct{}

// NewToken returns a Token generator.
func NewToken() *Token {
	return &Token{}
}

// Generate returns a 64-char hex string made of crypto-random bytes.
//
// It panics when the system random source fails, the same way crypto/rand
// itself treats that condition as unrecoverable.
func (*Token) Generate() string {
	var raw [tokenBytes]byte
	if _, err := rand.Read(raw[:]); err != nil {
		panic("uid: crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(raw[:])
}
