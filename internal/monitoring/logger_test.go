package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLoggerCaptures(t *testing.T) {
	defer SetLogger(nil)

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})

	Logf("tick %d complete", 4)
	if got != "tick 4 complete" {
		t.Errorf("captured %q, want %q", got, "tick 4 complete")
	}
}

func TestSetLoggerNilIsNoop(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("dropped %s", "message")
	SetLogger(func(format string, v ...interface{}) {})
}
