package fusion

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetLogWriters(t *testing.T) {
	defer SetLogWriters(LogWriters{})

	var ops, diag bytes.Buffer
	SetLogWriters(LogWriters{Ops: &ops, Diag: &diag})

	Opsf("run started: %d rows", 3)
	Diagf("lag=%d", 2)
	Tracef("should go nowhere")

	if !strings.Contains(ops.String(), "run started: 3 rows") {
		t.Errorf("ops output = %q, want run-started line", ops.String())
	}
	if !strings.Contains(diag.String(), "[fusion] ") {
		t.Errorf("diag output = %q, want [fusion] prefix", diag.String())
	}

	// Disabling a stream must not panic and must stop output.
	SetLogWriters(LogWriters{})
	ops.Reset()
	Opsf("after disable")
	if ops.Len() > 0 {
		t.Errorf("ops output after disable = %q, want empty", ops.String())
	}
}
