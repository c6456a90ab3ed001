package handler

import (
	"strconv"

	"github.com/codecrafters-io/blueis-go/store"
)

// LLenHandler implements LLEN key.
type LLenHandler struct{}

func (h *LLenHandler) Execute(args [][]byte, ctx *Context) (interface{}, error) {
	ctx.Store.Lock()
	defer ctx.Store.Unlock()

	return ctx.Store.Count(args[0])
}

// PushHandler implements LPUSH/RPUSH and, with RequireExisting set,
// their LPUSHX/RPUSHX variants which refuse to create a new list.
type PushHandler struct {
	Direction       store.Direction
	RequireExisting bool
}

func (h *PushHandler) Execute(args [][]byte, ctx *Context) (interface{}, error) {
	key := args[0]

	ctx.Store.Lock()
	count, err := h.push(key, args[1:], ctx)
	ctx.Store.Unlock()
	if err != nil {
		return nil, err
	}

	// Waiters re-check their keys themselves, so a notify after an
	// X-variant refused to push is harmless, but skip it anyway.
	if count > 0 {
		ctx.Notifier.Notify()
	}

	return count, nil
}

func (h *PushHandler) push(key []byte, values [][]byte, ctx *Context) (int64, error) {
	if h.RequireExisting {
		count, err := ctx.Store.Count(key)
		if err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, nil
		}
	}

	if err := ctx.Store.Push(key, h.Direction, values); err != nil {
		return 0, err
	}

	return ctx.Store.Count(key)
}

// PopHandler implements LPOP/RPOP.
type PopHandler struct {
	Direction store.Direction
}

func (h *PopHandler) Execute(args [][]byte, ctx *Context) (interface{}, error) {
	ctx.Store.Lock()
	defer ctx.Store.Unlock()

	value, ok, err := ctx.Store.Pop(args[0], h.Direction)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return value, nil
}

// RPopLPushHandler implements RPOPLPUSH source destination: the tail of
// source becomes the head of destination, atomically under the store
// lock.
type RPopLPushHandler struct{}

func (h *RPopLPushHandler) Execute(args [][]byte, ctx *Context) (interface{}, error) {
	source, destination := args[0], args[1]

	ctx.Store.Lock()
	value, ok, err := ctx.Store.Pop(source, store.Right)
	if err == nil && ok {
		err = ctx.Store.Push(destination, store.Left, [][]byte{value})
	}
	ctx.Store.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	ctx.Notifier.Notify()
	return value, nil
}

// LIndexHandler implements LINDEX key index.
type LIndexHandler struct{}

func (h *LIndexHandler) Execute(args [][]byte, ctx *Context) (interface{}, error) {
	index, err := parseInteger(args[1])
	if err != nil {
		return nil, err
	}

	ctx.Store.Lock()
	defer ctx.Store.Unlock()

	first, last, ok, err := ctx.Store.Boundaries(args[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	value, ok, err := ctx.Store.ValueAt(args[0], store.Translate(first, last, index))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return value, nil
}

// LSetHandler implements LSET key index value. The index is parsed
// before the store lock is taken; as in Redis, two racing LSETs
// interleaved with pops may land on a shifted element.
type LSetHandler struct{}

func (h *LSetHandler) Execute(args [][]byte, ctx *Context) (interface{}, error) {
	index, err := parseInteger(args[1])
	if err != nil {
		return nil, err
	}

	ctx.Store.Lock()
	defer ctx.Store.Unlock()

	first, last, ok, err := ctx.Store.Boundaries(args[0])
	if err != nil {
		return nil, err
	}

	position := store.Translate(first, last, index)
	if !ok || position < first || position > last {
		return nil, &IndexOutOfRangeError{}
	}

	if err := ctx.Store.SetValueAt(args[0], position, args[2]); err != nil {
		return nil, err
	}
	return StatusReply("OK"), nil
}

// LRangeHandler implements LRANGE key start stop.
type LRangeHandler struct{}

func (h *LRangeHandler) Execute(args [][]byte, ctx *Context) (interface{}, error) {
	start, err := parseInteger(args[1])
	if err != nil {
		return nil, err
	}
	stop, err := parseInteger(args[2])
	if err != nil {
		return nil, err
	}

	ctx.Store.Lock()
	defer ctx.Store.Unlock()

	key := args[0]

	// The whole-list and head-prefix shapes read without consulting
	// boundaries at all.
	if start == 0 && stop == -1 {
		return ctx.Store.RangeAll(key)
	}
	if start == 0 && stop >= 0 {
		return ctx.Store.RangeHead(key, stop+1)
	}

	first, last, ok, err := ctx.Store.Boundaries(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return [][]byte{}, nil
	}

	lo := store.Translate(first, last, start)
	hi := store.Translate(first, last, stop)
	if lo > hi {
		return [][]byte{}, nil
	}

	return ctx.Store.RangeBetween(key, lo, hi)
}

// LTrimHandler implements LTRIM key start stop.
type LTrimHandler struct{}

func (h *LTrimHandler) Execute(args [][]byte, ctx *Context) (interface{}, error) {
	start, err := parseInteger(args[1])
	if err != nil {
		return nil, err
	}
	stop, err := parseInteger(args[2])
	if err != nil {
		return nil, err
	}

	// LTRIM key 0 -1 keeps everything.
	if start == 0 && stop == -1 {
		return StatusReply("OK"), nil
	}

	ctx.Store.Lock()
	defer ctx.Store.Unlock()

	first, last, ok, err := ctx.Store.Boundaries(args[0])
	if err != nil {
		return nil, err
	}
	// Boundaries are undefined for an empty list; there is nothing to
	// trim either way.
	if !ok {
		return StatusReply("OK"), nil
	}

	lo := store.Translate(first, last, start)
	hi := store.Translate(first, last, stop)
	if err := ctx.Store.DeleteOutside(args[0], lo, hi); err != nil {
		return nil, err
	}

	return StatusReply("OK"), nil
}

func parseInteger(arg []byte) (int64, error) {
	n, err := strconv.ParseInt(string(arg), 10, 64)
	if err != nil {
		return 0, &NotAnIntegerError{}
	}
	return n, nil
}
