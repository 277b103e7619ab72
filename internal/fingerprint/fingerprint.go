// SPDX-License-Identifier: Unlicense OR MIT

// Package fingerprint computes a cheap content hash of rune contents.
// It is not part of the public API, and no package or test in this
// module imports it.
package fingerprint

import (
	"encoding/binary"

	farm "github.com/dgryski/go-farm"
)

// Of hashes text's contents. Two equal []rune contents always hash
// equal; a hash collision is possible but vanishingly unlikely for the
// buffer sizes this library targets, so Of is a sound (if not airtight)
// stand-in for a full content comparison in large-buffer tests.
func Of(text []rune) uint64 {
	b := make([]byte, len(text)*4)
	for i, r := range text {
		binary.LittleEndian.PutUint32(b[i*4:], uint32(r))
	}
	return farm.Hash64WithSeed(b, uint64(len(text)))
}
