package random

import (
	crand "crypto/rand"
	"math/rand/v2"
)

// CryptoRand returns a generator seeded from crypto/rand. Not safe for concurrent use
func CryptoRand() (r *rand.Rand) {
	var seed [32]byte
	crand.Reader.Read(seed[:])
	return rand.New(rand.NewChaCha8(seed))
}

// Bytes fills a new slice of length n using r
func Bytes(r *rand.Rand, n int) (b []byte) {
	b = make([]byte, n)
	for index := range b {
		b[index] = byte(r.UintN(256))
	}
	return b
}
