//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd
// +build linux darwin dragonfly freebsd netbsd openbsd

package stopkey

import "golang.org/x/sys/unix"

// keepOutputProcessing turns OPOST back on after term.MakeRaw so log lines
// written while the key is watched still start at column zero
func keepOutputProcessing(fd int) error {
	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return err
	}

	termios.Oflag |= unix.OPOST
	return unix.IoctlSetTermios(fd, ioctlWriteTermios, termios)
}
