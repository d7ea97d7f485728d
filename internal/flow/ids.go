package flow

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRandomID returns a 16-hex-char random identifier, used for worlds and
// streamers created without an explicit ID.
func NewRandomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
