package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Digest is the hex SHA-256 of an uploaded file
type Digest string

// DigestOf hashes data
func DigestOf(data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest(hex.EncodeToString(sum[:]))
}

// Short is the 12-character prefix used in stored file names
func (d Digest) Short() string {
	if len(d) < 12 {
		return string(d)
	}
	return string(d[:12])
}

func (d Digest) String() string {
	return string(d)
}

// Bucket maps data onto [0, n) stably
func Bucket(data []byte, n int) int {
	if n <= 0 {
		return 0
	}
	sum := sha256.Sum256(data)
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(n))
}
