package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"sync/atomic"
	"time"
)

// Object ids are 12 bytes rendered as 24 hex characters:
// 4-byte big-endian unix seconds, 5 process-random bytes, 3-byte counter.
var (
	processUnique  = randomBytes(5)
	objectIDCount  = newCounter()
	objectIDRegexp = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
)

// NewObjectID returns a fresh 24-hex-character identifier.
func NewObjectID() string {
	return objectIDAt(time.Now())
}

func objectIDAt(t time.Time) string {
	var b [12]byte
	binary.BigEndian.PutUint32(b[0:4], uint32(t.Unix()))
	copy(b[4:9], processUnique)
	c := objectIDCount.Add(1)
	b[9] = byte(c >> 16)
	b[10] = byte(c >> 8)
	b[11] = byte(c)
	return hex.EncodeToString(b[:])
}

// IsObjectID reports whether s has the object id shape, case-insensitively.
func IsObjectID(s string) bool {
	return objectIDRegexp.MatchString(s)
}

func randomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

func newCounter() *atomic.Uint32 {
	var c atomic.Uint32
	seed := randomBytes(4)
	c.Store(binary.BigEndian.Uint32(seed) & 0x00ffffff)
	return &c
}
