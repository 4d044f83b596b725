package pkguid

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenBytes is the entropy of a Token: 128 bits.
const tokenBytes = 16

// Token generates opaque, unguessable string identifiers.
//
// Unlike UUID (version 7, time ordered) tokens carry no ordering or timestamp
// information, so they are suitable for handles that must not be predictable.
type Token struct{}

// NewToken returns a random token generator.
func NewToken() *Token {
	return &Token{}
}

// Generate returns 32 lowercase hex characters read from crypto/rand.
func (t *Token) Generate() string {
	var b [tokenBytes]byte
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
