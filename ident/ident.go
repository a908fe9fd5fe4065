// Package ident generates unique task identifiers.
package ident

import (
	"crypto/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const fallbackLength = 16

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// New returns a globally unique id string. It prefers a random UUID and
// falls back to a fixed-length base-36 string when UUID generation fails.
// Uniqueness per call is the only guarantee; ids are never reproducible.
func New() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return fallbackID()
}

func fallbackID() string {
	buf := make([]byte, fallbackLength)
	if _, err := rand.Read(buf); err != nil {
		// No randomness at all; a nanosecond clock still keeps single
		// process collisions unlikely for a personal task list.
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	for i, b := range buf {
		buf[i] = base36[int(b)%len(base36)]
	}
	return string(buf)
}
