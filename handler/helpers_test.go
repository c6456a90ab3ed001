package handler

import (
	"testing"

	"github.com/codecrafters-io/blueis-go/monitor"
	"github.com/codecrafters-io/blueis-go/store"
)

// newTestContext builds a Context over an in-memory store, a fresh
// notifier and a small monitor bus.
func newTestContext(t *testing.T) *Context {
	t.Helper()

	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory store failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.Setup(); err != nil {
		t.Fatalf("store setup failed: %v", err)
	}

	return &Context{
		Store:      st,
		Notifier:   store.NewPushNotifier(),
		CommandLog: monitor.New(100),
	}
}

// dispatch runs one command through the dispatcher, failing the test on
// a session-fatal error.
func dispatch(t *testing.T, d *Dispatcher, words ...string) (interface{}, Action) {
	t.Helper()

	frame := make([]interface{}, len(words))
	for i, word := range words {
		frame[i] = []byte(word)
	}

	reply, action, err := d.Dispatch(frame)
	if err != nil {
		t.Fatalf("dispatch of %v failed: %v", words, err)
	}
	return reply, action
}

// listKey reads the full list via LRANGE and flattens it to strings.
func listKey(t *testing.T, d *Dispatcher, key string) []string {
	t.Helper()

	reply, _ := dispatch(t, d, "LRANGE", key, "0", "-1")
	values, ok := reply.([][]byte)
	if !ok {
		t.Fatalf("expected [][]byte from LRANGE, got %T", reply)
	}

	result := make([]string, len(values))
	for i, value := range values {
		result[i] = string(value)
	}
	return result
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func expectList(t *testing.T, d *Dispatcher, key string, expected []string) {
	t.Helper()

	if actual := listKey(t, d, key); !equalStringSlices(actual, expected) {
		t.Errorf("expected %s to hold %v, got %v", key, expected, actual)
	}
}

func expectInteger(t *testing.T, reply interface{}, expected int64) {
	t.Helper()

	n, ok := reply.(int64)
	if !ok {
		t.Fatalf("expected int64 reply, got %T (%v)", reply, reply)
	}
	if n != expected {
		t.Errorf("expected %d, got %d", expected, n)
	}
}

func expectBulk(t *testing.T, reply interface{}, expected string) {
	t.Helper()

	b, ok := reply.([]byte)
	if !ok {
		t.Fatalf("expected []byte reply, got %T (%v)", reply, reply)
	}
	if string(b) != expected {
		t.Errorf("expected %q, got %q", expected, b)
	}
}

func expectNullBulk(t *testing.T, reply interface{}) {
	t.Helper()

	if reply != nil {
		t.Errorf("expected null bulk (nil reply), got %T (%v)", reply, reply)
	}
}

func expectOK(t *testing.T, reply interface{}) {
	t.Helper()

	status, ok := reply.(StatusReply)
	if !ok {
		t.Fatalf("expected StatusReply, got %T (%v)", reply, reply)
	}
	if status != "OK" {
		t.Errorf("expected OK, got %q", status)
	}
}
