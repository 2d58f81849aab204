package monitoring

import "testing"

func TestSetLoggerCapturesOutput(t *testing.T) {
	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = format
	})
	defer SetLogger(nil)

	Logf("retry %d", 1)
	if got != "retry %d" {
		t.Errorf("expected format to be captured, got %q", got)
	}
}

func TestSetLoggerNilIsNoOp(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Logf("ignored %s", "message")
}
