package cache

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/rotisserie/eris"
)

const sealHeaderLen = 8

// errCorrupt marks a stored value whose checksum does not match.
var errCorrupt = eris.New("cache: checksum mismatch")

// seal prefixes val with its xxhash64 digest.
func seal(val []byte) []byte {
	out := make([]byte, sealHeaderLen+len(val))
	binary.BigEndian.PutUint64(out, xxhash.Sum64(val))
	copy(out[sealHeaderLen:], val)
	return out
}

// unseal verifies and strips the digest added by seal.
func unseal(sealed []byte) ([]byte, error) {
	if len(sealed) < sealHeaderLen {
		return nil, errCorrupt
	}
	val := sealed[sealHeaderLen:]
	if binary.BigEndian.Uint64(sealed) != xxhash.Sum64(val) {
		return nil, errCorrupt
	}
	return val, nil
}
