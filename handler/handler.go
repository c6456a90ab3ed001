// Package handler implements the command layer: a registry mapping
// command names to handlers, and a dispatcher that validates incoming
// frames, feeds the command log, and runs the matching handler.
package handler

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/codecrafters-io/blueis-go/monitor"
	"github.com/codecrafters-io/blueis-go/store"
)

// Action tells the session loop what to do after writing the reply.
type Action int

const (
	// Continue keeps the session in its normal decode/dispatch loop.
	Continue Action = iota
	// HangUp closes the session once the reply has been flushed.
	HangUp
	// StartMonitor switches the session into monitor mode: from here on
	// it only forwards command-log messages until the peer goes away.
	StartMonitor
)

// Context carries the shared collaborators a handler may need.
type Context struct {
	Store    *store.Store
	Notifier *store.PushNotifier
	// CommandLog is the monitor bus; the dispatcher writes to it, and
	// handlers never need to.
	CommandLog *monitor.Monitor
	// Alive reports whether the session's peer is still connected.
	// Blocking handlers poll it so an abandoned BLPOP does not wait
	// forever. Nil means "assume alive".
	Alive func() bool
}

// CommandHandler executes one command. args excludes the command name.
//
// The reply value is rendered by the session according to its type:
// int64 becomes an Integer, []byte a Bulk (nil for Null), [][]byte an
// Array of Bulks, StatusReply a Simple String, NullArray a null array.
//
// A returned error that satisfies CommandError becomes an -ERR reply
// and the session continues; any other error is a storage failure and
// terminates the session.
type CommandHandler interface {
	Execute(args [][]byte, ctx *Context) (interface{}, error)
}

// StatusReply renders as a RESP Simple String.
type StatusReply string

// NullArray renders as *-1, the RESP null array.
type NullArray struct{}

type commandSettings struct {
	handler CommandHandler
	// arity is the expected argument count: n >= 0 means exactly n,
	// n < 0 means at least -n.
	arity int
}

// CommandRegistry maps case-folded command names to their settings.
type CommandRegistry struct {
	handlers map[string]commandSettings
}

// NewCommandRegistry creates a registry with the full list-command
// family registered.
func NewCommandRegistry() *CommandRegistry {
	r := &CommandRegistry{handlers: make(map[string]commandSettings)}

	r.Register("LLEN", 1, &LLenHandler{})
	r.Register("LPOP", 1, &PopHandler{Direction: store.Left})
	r.Register("RPOP", 1, &PopHandler{Direction: store.Right})
	r.Register("LPUSH", -2, &PushHandler{Direction: store.Left})
	r.Register("LPUSHX", -2, &PushHandler{Direction: store.Left, RequireExisting: true})
	r.Register("RPUSH", -2, &PushHandler{Direction: store.Right})
	r.Register("RPUSHX", -2, &PushHandler{Direction: store.Right, RequireExisting: true})
	r.Register("LRANGE", 3, &LRangeHandler{})
	r.Register("LTRIM", 3, &LTrimHandler{})
	r.Register("RPOPLPUSH", 2, &RPopLPushHandler{})
	r.Register("LINDEX", 2, &LIndexHandler{})
	r.Register("LSET", 3, &LSetHandler{})
	r.Register("BLPOP", -2, &BlockingPopHandler{Direction: store.Left})
	r.Register("BRPOP", -2, &BlockingPopHandler{Direction: store.Right})

	return r
}

// Register adds or replaces a command. The name is case-folded so
// lookups are case-insensitive.
func (r *CommandRegistry) Register(cmd string, arity int, handler CommandHandler) {
	r.handlers[strings.ToUpper(cmd)] = commandSettings{handler: handler, arity: arity}
}

func (s commandSettings) validArgumentCount(n int) bool {
	if s.arity < 0 {
		return n >= -s.arity
	}
	return n == s.arity
}

// Dispatcher drives command execution for one session.
type Dispatcher struct {
	registry *CommandRegistry
	ctx      *Context
}

// NewDispatcher creates a dispatcher over the default registry.
func NewDispatcher(ctx *Context) *Dispatcher {
	return &Dispatcher{registry: NewCommandRegistry(), ctx: ctx}
}

// Dispatch handles one decoded frame and returns the reply value, the
// session action, and a session-fatal error. Protocol, arity, and
// command errors come back as the reply (an error value the session
// renders as -ERR); only storage failures populate the error return.
func (d *Dispatcher) Dispatch(frame interface{}) (interface{}, Action, error) {
	name, args, err := parseCommand(frame)
	if err != nil {
		return err, Continue, nil
	}

	switch strings.ToUpper(name) {
	case "QUIT":
		return StatusReply("OK"), HangUp, nil
	case "MONITOR":
		return StatusReply("OK"), StartMonitor, nil
	}

	settings, registered := d.registry.handlers[strings.ToUpper(name)]
	if !registered {
		return &UnknownCommandError{}, Continue, nil
	}
	if !settings.validArgumentCount(len(args)) {
		return &WrongNumberOfArgumentsError{}, Continue, nil
	}

	// Observers see commands in dispatch order, so the log line goes
	// out before the handler runs.
	d.ctx.CommandLog.Send(FormatLogLine(time.Now().UTC(), name, args))

	reply, err := settings.handler.Execute(args, d.ctx)
	if err != nil {
		var commandErr CommandError
		if errors.As(err, &commandErr) {
			return commandErr, Continue, nil
		}
		return nil, Continue, err
	}

	return reply, Continue, nil
}

// parseCommand splits a decoded frame into a command name and its
// arguments. Commands arrive as arrays of bulk strings; the name must
// be valid UTF-8, the arguments stay opaque bytes.
func parseCommand(frame interface{}) (string, [][]byte, error) {
	array, isArray := frame.([]interface{})
	if !isArray || len(array) == 0 {
		return "", nil, &ProtocolError{Message: "expected array"}
	}

	elements := make([][]byte, len(array))
	for i, element := range array {
		switch v := element.(type) {
		case []byte:
			elements[i] = v
		case string:
			elements[i] = []byte(v)
		default:
			return "", nil, &ProtocolError{Message: "all arguments should be strings"}
		}
	}

	if !utf8.Valid(elements[0]) {
		return "", nil, &ProtocolError{Message: "invalid command name"}
	}

	return string(elements[0]), elements[1:], nil
}
