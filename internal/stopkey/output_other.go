//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd
// +build !linux,!darwin,!dragonfly,!freebsd,!netbsd,!openbsd

package stopkey

// keepOutputProcessing is a no-op where raw mode leaves output untouched
func keepOutputProcessing(fd int) error {
	return nil
}
