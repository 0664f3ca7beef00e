package util

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewID returns a 24-character lowercase hex identifier. The length
// matters: request ids are embedded verbatim in the outbound subject
// marker, which the inbox matcher expects to be exactly 24 hex chars.
func NewID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%024x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }
