package driver

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fedehuguet/compiler/pkg/quad"
	"github.com/fedehuguet/compiler/pkg/runtime"
)

const doublerImage = `
name: doubler
constants:
  - {address: 10000, type: int, value: 21}
  - {address: 10001, type: float, value: 2.5}
  - {address: 10002, type: char, value: "x"}
  - {address: 10003, type: string, value: "hi there"}
  - {address: 10004, type: bool, value: true}
quadruples:
  - [GOTO, -1, -1, 3]
  - {op: "+", left: 30000, right: 30000, result: 20000}
  - [RETURN, 20000, -1, 0]
  - [ERA, -1, -1, -1]
  - [PARAM, 10000, -1, 30000]
  - [GOSUB, 1, -1, -1]
  - [PRINT, "-", 0, "-"]
  - {op: END}
`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doubler.yml")
	writeFile(t, path, doublerImage)

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage returned error: %v", err)
	}
	if img.Name != "doubler" {
		t.Fatalf("name = %q, want doubler", img.Name)
	}
	if img.Path != path {
		t.Fatalf("path = %q, want %q", img.Path, path)
	}
	if got := img.Constants.Len(); got != 5 {
		t.Fatalf("constants = %d, want 5", got)
	}

	wantConsts := map[int]runtime.Value{
		10000: runtime.IntValue{Val: 21},
		10001: runtime.FloatValue{Val: 2.5},
		10002: runtime.CharValue{Val: 'x'},
		10003: runtime.StringValue{Val: "hi there"},
		10004: runtime.BoolValue{Val: true},
	}
	for addr, want := range wantConsts {
		got, kind, err := img.Constants.Get(addr)
		if err != nil {
			t.Fatalf("Get(%d): %v", addr, err)
		}
		if !runtime.Equal(got, want) || kind != want.Kind() {
			t.Fatalf("constant %d = %#v (%s), want %#v", addr, got, kind, want)
		}
	}

	wantQuads := []quad.Quadruple{
		quad.Q(quad.OpGoto, quad.None, quad.None, 3),
		quad.Q(quad.OpAdd, 30000, 30000, 20000),
		quad.Q(quad.OpReturn, 20000, quad.None, 0),
		quad.Q(quad.OpEra, quad.None, quad.None, quad.None),
		quad.Q(quad.OpParam, 10000, quad.None, 30000),
		quad.Q(quad.OpGosub, 1, quad.None, quad.None),
		quad.Q(quad.OpPrint, quad.None, 0, quad.None),
		quad.Q(quad.OpEnd, quad.None, quad.None, quad.None),
	}
	if len(img.Quadruples) != len(wantQuads) {
		t.Fatalf("quadruples = %d, want %d", len(img.Quadruples), len(wantQuads))
	}
	for idx, want := range wantQuads {
		if img.Quadruples[idx] != want {
			t.Fatalf("quadruple %d = %s, want %s", idx, img.Quadruples[idx], want)
		}
	}

	program, err := img.Program()
	if err != nil {
		t.Fatalf("Program: %v", err)
	}
	if _, ok := program[5].(quad.Gosub); !ok {
		t.Fatalf("instruction 5 = %T, want quad.Gosub", program[5])
	}
}

func TestParseImageRejectsBadConstants(t *testing.T) {
	src := `
constants:
  - {address: 5, type: int, value: 1}
  - {address: 10000, type: char, value: "ab"}
  - {address: 10001, type: decimal, value: 1}
  - {address: 10002, type: int, value: "seven"}
  - {address: 10003, type: int, value: 1}
  - {address: 10003, type: int, value: 2}
quadruples: []
`
	_, err := ParseImage(strings.NewReader(src), "bad.yml")
	if err == nil {
		t.Fatalf("expected error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T (%v)", err, err)
	}
	if len(verr.Issues) != 5 {
		t.Fatalf("issues = %d, want 5: %v", len(verr.Issues), verr.Issues)
	}
	for _, want := range []string{"outside", "exactly one character", "unknown type", "int constant", "defined twice"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestParseImageRejectsBadQuadruples(t *testing.T) {
	cases := map[string]string{
		"unknown operator": "quadruples:\n  - [JUMP, -1, -1, 0]\n",
		"needs 4 fields":   "quadruples:\n  - [GOTO, 0]\n",
		"not an integer":   "quadruples:\n  - [GOTO, -1, -1, x]\n",
		"sequence or map":  "quadruples:\n  - GOTO\n",
	}
	for want, src := range cases {
		t.Run(want, func(t *testing.T) {
			_, err := ParseImage(strings.NewReader(src), "bad.yml")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), want) {
				t.Fatalf("error %q missing %q", err.Error(), want)
			}
		})
	}
}

func TestParseImageRejectsUnknownFields(t *testing.T) {
	_, err := ParseImage(strings.NewReader("quadruples: []\nentry: 3\n"), "bad.yml")
	if err == nil || !strings.Contains(err.Error(), "entry") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestParseImageEmpty(t *testing.T) {
	_, err := ParseImage(strings.NewReader(""), "empty.yml")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected empty image error, got %v", err)
	}
}

func TestWriteImageRoundTrip(t *testing.T) {
	img, err := ParseImage(strings.NewReader(doublerImage), "doubler.yml")
	if err != nil {
		t.Fatalf("ParseImage: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out", "doubler.yml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := WriteImage(img, path); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	again, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage after write: %v", err)
	}
	if again.Name != img.Name || again.Constants.Len() != img.Constants.Len() {
		t.Fatalf("round trip changed image: %+v", again)
	}
	for idx := range img.Quadruples {
		if again.Quadruples[idx] != img.Quadruples[idx] {
			t.Fatalf("quadruple %d = %s, want %s", idx, again.Quadruples[idx], img.Quadruples[idx])
		}
	}
	for _, addr := range img.Constants.Addresses() {
		want, _, _ := img.Constants.Get(addr)
		got, _, err := again.Constants.Get(addr)
		if err != nil || !runtime.Equal(got, want) {
			t.Fatalf("constant %d = %v (%v), want %v", addr, got, err, want)
		}
	}
}

func TestEncodeImageQuotesOperators(t *testing.T) {
	img := &Image{Quadruples: []quad.Quadruple{
		quad.Q(quad.OpMul, 10000, 10001, 20000),
		quad.Q(quad.OpAnd, 20000, 20001, 20002),
	}}
	var buf bytes.Buffer
	if err := EncodeImage(&buf, img); err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}
	again, err := ParseImage(&buf, "encoded.yml")
	if err != nil {
		t.Fatalf("ParseImage: %v\n%s", err, buf.String())
	}
	if again.Quadruples[0].Op != quad.OpMul || again.Quadruples[1].Op != quad.OpAnd {
		t.Fatalf("operators = %s, %s", again.Quadruples[0].Op, again.Quadruples[1].Op)
	}
}
