package handler

// CommandError marks errors that translate into an -ERR reply and
// leave the session running. Errors without this marker (storage
// failures) terminate the session instead.
type CommandError interface {
	error
	commandError()
}

// ProtocolError reports a frame the dispatcher cannot treat as a
// command: not an array, or containing non-string elements.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string { return e.Message }
func (e *ProtocolError) commandError() {}

// UnknownCommandError reports a command name outside the registry.
type UnknownCommandError struct{}

func (e *UnknownCommandError) Error() string { return "unsupported" }
func (e *UnknownCommandError) commandError() {}

// WrongNumberOfArgumentsError reports an arity mismatch.
type WrongNumberOfArgumentsError struct{}

func (e *WrongNumberOfArgumentsError) Error() string { return "wrong number of arguments" }
func (e *WrongNumberOfArgumentsError) commandError() {}

// NotAnIntegerError reports an argument that should have been a
// decimal integer and was not.
type NotAnIntegerError struct{}

func (e *NotAnIntegerError) Error() string { return "argument must be an integer" }
func (e *NotAnIntegerError) commandError() {}

// IndexOutOfRangeError reports an LSET index outside the list.
type IndexOutOfRangeError struct{}

func (e *IndexOutOfRangeError) Error() string { return "index out of range" }
func (e *IndexOutOfRangeError) commandError() {}

// NegativeTimeoutError reports a blocking pop with a negative timeout.
type NegativeTimeoutError struct{}

func (e *NegativeTimeoutError) Error() string { return "timeout is negative" }
func (e *NegativeTimeoutError) commandError() {}
