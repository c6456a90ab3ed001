// Package server drives one accepted connection: decode a frame,
// dispatch it, write the reply, and handle the QUIT and MONITOR
// transitions.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/codecrafters-io/blueis-go/handler"
	"github.com/codecrafters-io/blueis-go/monitor"
	"github.com/codecrafters-io/blueis-go/protocol"
	"github.com/codecrafters-io/blueis-go/store"
)

// Session is the per-connection state machine. Each session runs on its
// own goroutine and is strictly sequential: commands on one connection
// execute in the order they arrive.
type Session struct {
	conn       net.Conn
	dispatcher *handler.Dispatcher
	bus        *monitor.Monitor
	log        *logrus.Entry
}

// New wires a session over conn against the shared store, notifier and
// monitor bus.
func New(conn net.Conn, st *store.Store, notifier *store.PushNotifier, bus *monitor.Monitor) *Session {
	ctx := &handler.Context{
		Store:      st,
		Notifier:   notifier,
		CommandLog: bus,
		Alive:      func() bool { return Alive(conn) },
	}

	return &Session{
		conn:       conn,
		dispatcher: handler.NewDispatcher(ctx),
		bus:        bus,
		log:        logrus.WithField("remote", conn.RemoteAddr().String()),
	}
}

// Run loops until the peer goes away, the client QUITs, or the session
// promotes itself to a monitor. It owns the connection and closes it on
// exit.
func (s *Session) Run() {
	defer s.conn.Close()

	reader := bufio.NewReader(s.conn)
	buffered := bufio.NewWriter(s.conn)
	parser := protocol.NewParser(reader)
	writer := protocol.NewWriter(buffered)

	for {
		frame, err := parser.Parse()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.WithError(err).Debug("decode failed, closing session")
			}
			return
		}

		reply, action, err := s.dispatcher.Dispatch(frame)
		if err != nil {
			// Anything the dispatcher could not turn into an -ERR reply
			// is a storage failure; the session cannot continue.
			s.log.WithError(err).Error("storage failure, closing session")
			return
		}

		if err := writeReply(writer, reply); err != nil {
			return
		}
		if err := buffered.Flush(); err != nil {
			return
		}

		switch action {
		case handler.HangUp:
			return
		case handler.StartMonitor:
			s.runMonitor(writer, buffered)
			return
		}
	}
}

// runMonitor forwards command-log messages until a write fails, which
// is the only way a monitoring client leaves.
func (s *Session) runMonitor(writer *protocol.Writer, buffered *bufio.Writer) {
	listener := s.bus.Listen()

	for {
		payload := listener.Recv()

		if err := writer.WriteSimpleString(payload); err != nil {
			return
		}
		if err := buffered.Flush(); err != nil {
			return
		}
	}
}

// writeReply renders a dispatcher reply as the RESP type its Go type
// implies.
func writeReply(w *protocol.Writer, reply interface{}) error {
	switch v := reply.(type) {
	case handler.StatusReply:
		return w.WriteSimpleString(string(v))
	case error:
		return w.WriteError("ERR " + v.Error())
	case int64:
		return w.WriteInteger(v)
	case []byte:
		return w.WriteBulk(v)
	case [][]byte:
		return w.WriteBulkArray(v)
	case handler.NullArray:
		return w.WriteNullArray()
	case nil:
		return w.WriteNullBulk()
	default:
		return fmt.Errorf("unencodable reply type %T", reply)
	}
}
