package utils

import (
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"
)

var entropyLock sync.Mutex

// NewULID generates a new ULID with mutex protection so two concurrent
// callers never observe the same value.
func NewULID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()

	return ulid.Make()
}

// NewULIDString generates a new ULID as a string
func NewULIDString() string {
	return NewULID().String()
}

// TempFilePath returns a collision-resistant path inside dir. The ULID
// embeds a millisecond timestamp plus 80 bits of randomness, which keeps
// concurrent buffer ingests from colliding on the same name.
func TempFilePath(dir, prefix, ext string) string {
	return filepath.Join(dir, prefix+"-"+NewULIDString()+ext)
}

// ParseULID parses a ULID string
func ParseULID(s string) (ulid.ULID, error) {
	return ulid.Parse(s)
}
