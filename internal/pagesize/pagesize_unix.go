// SPDX-License-Identifier: Unlicense OR MIT

//go:build unix

package pagesize

import "golang.org/x/sys/unix"

// Size returns the host page size, expressed in runes (4 bytes each)
// rather than bytes, since callers round a rune count.
func Size() int {
	return unix.Getpagesize() / 4
}
