package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Name returns the hex-encoded MD5 digest of a decoded link name. Hash-named
// assets use it as their basename, so the same name always maps to the
// same file.
func Name(name string) string {
	h := md5.Sum([]byte(name))
	return hex.EncodeToString(h[:])
}
