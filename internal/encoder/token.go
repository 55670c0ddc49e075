package encoder

import (
	"math/rand/v2"
	"strings"
)

const (
	// TokenLength is the length of the backtick substitution token
	TokenLength = 16

	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// maxTokenDraws bounds the redraw loop
const maxTokenDraws = 8

func (e *Encoder) newToken(code string) string {
	var token string
	for i := 0; i < maxTokenDraws; i++ {
		token = e.drawToken()
		if !strings.Contains(code, token) {
			break
		}
	}
	return token
}

func (e *Encoder) drawToken() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	buf := make([]byte, TokenLength)
	for i := range buf {
		if e.rng != nil {
			buf[i] = tokenAlphabet[e.rng.IntN(len(tokenAlphabet))]
		} else {
			buf[i] = tokenAlphabet[rand.IntN(len(tokenAlphabet))]
		}
	}
	return string(buf)
}
