package vm

import (
	"bytes"
	"testing"

	"github.com/fedehuguet/compiler/pkg/memory"
	"github.com/fedehuguet/compiler/pkg/quad"
	"github.com/fedehuguet/compiler/pkg/runtime"
)

const none = quad.None

func constants(t *testing.T, values map[int]runtime.Value) *memory.Segment {
	t.Helper()
	seg := memory.NewRegionSegment(memory.RegionConstant)
	for addr, val := range values {
		if err := seg.Set(addr, val); err != nil {
			t.Fatalf("constant %d: %v", addr, err)
		}
	}
	return seg
}

func newEngine(t *testing.T, consts map[int]runtime.Value, opts Options, quads ...quad.Quadruple) (*Engine, *bytes.Buffer) {
	t.Helper()
	program, err := quad.Decode(quads)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var out bytes.Buffer
	if opts.Output == nil {
		opts.Output = &out
	}
	engine, err := New(program, constants(t, consts), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine, &out
}

func runProgram(t *testing.T, consts map[int]runtime.Value, quads ...quad.Quadruple) (string, error) {
	t.Helper()
	engine, out := newEngine(t, consts, Options{}, quads...)
	err := engine.Run()
	return out.String(), err
}

func mustRun(t *testing.T, consts map[int]runtime.Value, quads ...quad.Quadruple) string {
	t.Helper()
	out, err := runProgram(t, consts, quads...)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return out
}

func expectFault(t *testing.T, err error, kind ErrorKind, ip int) *RuntimeError {
	t.Helper()
	fault, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T (%v)", err, err)
	}
	if fault.Kind != kind {
		t.Fatalf("fault kind = %s, want %s (%v)", fault.Kind, kind, err)
	}
	if fault.IP != ip {
		t.Fatalf("fault IP = %d, want %d (%v)", fault.IP, ip, err)
	}
	return fault
}

func ival(v int64) runtime.Value   { return runtime.IntValue{Val: v} }
func fval(v float64) runtime.Value { return runtime.FloatValue{Val: v} }
func sval(v string) runtime.Value  { return runtime.StringValue{Val: v} }
func bval(v bool) runtime.Value    { return runtime.BoolValue{Val: v} }
func cval(v rune) runtime.Value    { return runtime.CharValue{Val: v} }
