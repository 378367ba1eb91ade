package services

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"strconv"
)

// IDGenerator produces a short identifier for a new link.
type IDGenerator func() (string, error)

// GenerateID draws a random uint32 and encodes its decimal form with the
// unpadded URL-safe base64 alphabet. Uniqueness is not checked; a collision
// fails at insert time on the primary key.
func GenerateID() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return EncodeID(binary.BigEndian.Uint32(b[:])), nil
}

// EncodeID is the deterministic half of GenerateID.
func EncodeID(n uint32) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(n), 10)))
}
