package server

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Alive reports whether conn's peer is still connected. The check is
// non-destructive: a zero-timeout poll inspects the hang-up flag
// without consuming any buffered data, so it is safe to call while a
// command is mid-flight.
//
// Connections that do not expose a raw descriptor (pipes in tests) are
// assumed alive.
func Alive(conn net.Conn) bool {
	syscallConn, ok := conn.(syscall.Conn)
	if !ok {
		return true
	}

	raw, err := syscallConn.SyscallConn()
	if err != nil {
		return false
	}

	alive := true
	controlErr := raw.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(fds, 0); err != nil {
			// EINTR and friends: inconclusive, keep the session going.
			return
		}
		alive = fds[0].Revents&unix.POLLHUP == 0
	})

	return alive && controlErr == nil
}
