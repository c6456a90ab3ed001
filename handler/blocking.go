package handler

import (
	"time"

	"github.com/codecrafters-io/blueis-go/store"
)

// maxNotifierWait bounds each wait on the push notifier. The periodic
// wake-up is what lets an infinite-timeout blocking pop notice that its
// peer hung up, at the cost of up to a second of latency on exit.
const maxNotifierWait = time.Second

// BlockingPopHandler implements BLPOP and BRPOP: keys are scanned in
// argument order under the store lock, and when all are empty the
// handler waits on the push notifier until something is pushed, the
// timeout expires, or the client disappears.
type BlockingPopHandler struct {
	Direction store.Direction
}

func (h *BlockingPopHandler) Execute(args [][]byte, ctx *Context) (interface{}, error) {
	keys := args[:len(args)-1]

	timeout, err := parseInteger(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	if timeout < 0 {
		return nil, &NegativeTimeoutError{}
	}

	deadline := time.Now().Add(time.Duration(timeout) * time.Second)

	for h.alive(ctx) && (timeout == 0 || time.Now().Before(deadline)) {
		reply, popped, err := h.tryPop(keys, ctx)
		if err != nil {
			return nil, err
		}
		if popped {
			return reply, nil
		}

		// A notifier wake is advisory: it may be spurious or another
		// client may beat us to the element, so the loop re-checks
		// every key regardless of why the wait returned.
		wait := maxNotifierWait
		if timeout != 0 {
			if remaining := time.Until(deadline); remaining < wait {
				wait = remaining
			}
		}
		if wait > 0 {
			ctx.Notifier.Wait(wait)
		}
	}

	return NullArray{}, nil
}

func (h *BlockingPopHandler) tryPop(keys [][]byte, ctx *Context) (interface{}, bool, error) {
	ctx.Store.Lock()
	defer ctx.Store.Unlock()

	for _, key := range keys {
		value, ok, err := ctx.Store.Pop(key, h.Direction)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return [][]byte{key, value}, true, nil
		}
	}

	return nil, false, nil
}

func (h *BlockingPopHandler) alive(ctx *Context) bool {
	if ctx.Alive == nil {
		return true
	}
	return ctx.Alive()
}
