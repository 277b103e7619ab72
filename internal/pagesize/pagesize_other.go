// SPDX-License-Identifier: Unlicense OR MIT

//go:build !unix

package pagesize

// Size returns a conservative fallback page size (in runes) on
// platforms without golang.org/x/sys/unix.Getpagesize.
func Size() int {
	return 4096 / 4
}
