//go:build linux
// +build linux

// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: listener_linux.go — loopback telemetry listener (epoll-powered)
//
// Purpose:
//   - Accepts connections on a loopback TCP port and, on each one, writes a
//     single JSON stats.Snapshot and closes. A host-side tooling surface
//     alongside the UART-style console line, not part of the decode core.
//
// Notes:
//   - Epoll-driven accept loop, following the teacher's EPOLLIN dispatch
//     for its client read loop, applied here to a listening socket's accept
//     readiness instead of a connected socket's read readiness. The socket
//     is registered level-triggered (plain EPOLLIN, no EPOLLET).
// ─────────────────────────────────────────────────────────────────────────────

package console

import (
	"net"
	"syscall"

	"qecd/debug"
	"qecd/stats"
)

// Listener serves one JSON stats.Snapshot per accepted connection on a
// loopback TCP port, via an epoll accept-readiness loop.
type Listener struct {
	ln   *net.TCPListener
	efd  int
	fd   int
	done chan struct{}
}

// NewListener binds a loopback TCP listener on port (0 picks any free port)
// and registers its socket with epoll.
func NewListener(port int) (*Listener, error) {
	ln, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	if err != nil {
		return nil, err
	}

	rs, err := ln.SyscallConn()
	if err != nil {
		ln.Close()
		return nil, err
	}
	var fd int
	rs.Control(func(f uintptr) { fd = int(f) })
	if err := syscall.SetNonblock(fd, true); err != nil {
		ln.Close()
		return nil, err
	}

	efd, err := syscall.EpollCreate1(0)
	if err != nil {
		ln.Close()
		return nil, err
	}
	ev := syscall.EpollEvent{Events: syscall.EPOLLIN, Fd: int32(fd)}
	if err := syscall.EpollCtl(efd, syscall.EPOLL_CTL_ADD, fd, &ev); err != nil {
		syscall.Close(efd)
		ln.Close()
		return nil, err
	}

	return &Listener{ln: ln, efd: efd, fd: fd, done: make(chan struct{})}, nil
}

// Addr returns the bound loopback address, useful when port 0 was requested.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Serve runs the epoll accept loop until Close is called. snapshot is
// invoked fresh for each accepted connection so the reported figures are
// always current. Intended to run in its own goroutine.
func (l *Listener) Serve(snapshot func() stats.Snapshot) {
	events := [1]syscall.EpollEvent{}
	for {
		_, err := syscall.EpollWait(l.efd, events[:], -1)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			select {
			case <-l.done:
				return
			default:
				debug.DropError("telemetry epoll wait", err)
				return
			}
		}

		conn, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.done:
				return
			default:
				debug.DropError("telemetry accept", err)
				continue
			}
		}

		body, err := EncodeSnapshot(snapshot())
		if err != nil {
			debug.DropError("telemetry encode", err)
			conn.Close()
			continue
		}
		if _, err := conn.Write(body); err != nil {
			debug.DropError("telemetry write", err)
		}
		conn.Close()
	}
}

// Close stops Serve and releases the listener's sockets.
func (l *Listener) Close() error {
	close(l.done)
	syscall.Close(l.efd)
	return l.ln.Close()
}
