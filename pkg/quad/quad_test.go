package quad

import (
	"errors"
	"strings"
	"testing"
)

func TestParseOperatorTags(t *testing.T) {
	for op, tag := range operatorTags {
		got, err := ParseOperator(tag)
		if err != nil {
			t.Fatalf("ParseOperator(%q) returned error: %v", tag, err)
		}
		if got != op {
			t.Fatalf("ParseOperator(%q) = %s, want %s", tag, got, op)
		}
	}
	if got, err := ParseOperator("gosub"); err != nil || got != OpGosub {
		t.Fatalf("lowercase tag: got=%s err=%v", got, err)
	}
	if _, err := ParseOperator("HALT"); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
}

func TestDecodeAssignsFieldsPerOperator(t *testing.T) {
	program, err := Decode([]Quadruple{
		Q(OpPrint, None, 10000, None),
		Q(OpVerify, 20000, 0, 9),
		Q(OpIndex, 20000, 5, 20001),
		Q(OpGosub, 7, None, None),
		Q(OpReturn, 20002, None, 0),
		Q(OpGotoF, 20003, None, 2),
		Q(OpMul, 30000, 10001, 20000),
	})
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if got, ok := program[0].(Print); !ok || got.Src != 10000 {
		t.Fatalf("PRINT decoded as %#v", program[0])
	}
	if got, ok := program[1].(Verify); !ok || got.Index != 20000 || got.Lower != 0 || got.Upper != 9 {
		t.Fatalf("VER decoded as %#v", program[1])
	}
	if got, ok := program[2].(IndexLoad); !ok || got.Shift != 20000 || got.Base != 5 || got.Dst != 20001 {
		t.Fatalf("++ decoded as %#v", program[2])
	}
	if got, ok := program[3].(Gosub); !ok || got.Entry != 7 {
		t.Fatalf("GOSUB decoded as %#v", program[3])
	}
	if got, ok := program[4].(Return); !ok || got.Src != 20002 || got.Dst != 0 {
		t.Fatalf("RETURN decoded as %#v", program[4])
	}
	if got, ok := program[5].(GotoF); !ok || got.Cond != 20003 || got.Target != 2 {
		t.Fatalf("GOTOF decoded as %#v", program[5])
	}
	if got, ok := program[6].(Binary); !ok || got.Op != OpMul || got.Result != 20000 {
		t.Fatalf("* decoded as %#v", program[6])
	}
}

func TestDecodeRejectsUnknownOperator(t *testing.T) {
	_, err := Decode([]Quadruple{Q(OpEra, None, None, None), {Op: OpInvalid}})
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if decodeErr.Index != 1 {
		t.Fatalf("DecodeError.Index = %d, want 1", decodeErr.Index)
	}
}

func TestEncodeRestoresQuadruples(t *testing.T) {
	quads := []Quadruple{
		Q(OpEra, None, None, None),
		Q(OpParam, 10000, None, 30000),
		Q(OpGosub, 5, None, None),
		Q(OpPrint, None, 0, None),
		Q(OpGoto, None, None, 9),
		Q(OpAdd, 10000, 10001, 0),
	}
	program := MustDecode(quads...)
	got := program.Encode()
	for idx := range quads {
		if got[idx] != quads[idx] {
			t.Fatalf("quadruple %d: got=%v want=%v", idx, got[idx], quads[idx])
		}
	}
}

func TestQuadrupleString(t *testing.T) {
	got := Q(OpAdd, 10000, 10001, 0).String()
	if got != "+ 10000 10001 0" {
		t.Fatalf("String() = %q", got)
	}
	if got := Q(OpEra, None, None, None).String(); got != "ERA - - -" {
		t.Fatalf("String() = %q", got)
	}
}

func TestFormatShowsUsedFields(t *testing.T) {
	cases := []struct {
		q    Quadruple
		want string
	}{
		{Q(OpPrint, None, 20000, None), "PRINT 20000"},
		{Q(OpLessEq, 30000, 10001, 20000), "<= 30000 10001 -> 20000"},
		{Q(OpVerify, 30000, 0, 9), "VER 30000 [0, 9]"},
		{Q(OpIndex, 30000, 5000, 20001), "++ 30000 + 5000 -> 20001"},
		{Q(OpGosub, 12, None, None), "GOSUB 12"},
		{Q(OpEndProc, None, None, None), "ENDPROC"},
	}
	for _, tc := range cases {
		instr, err := DecodeOne(tc.q)
		if err != nil {
			t.Fatalf("DecodeOne(%s): %v", tc.q, err)
		}
		if got := Format(instr); got != tc.want {
			t.Fatalf("Format(%s): got=%q want=%q", tc.q, got, tc.want)
		}
	}
}

func TestValidateReportsDefects(t *testing.T) {
	program := MustDecode(
		Q(OpGoto, None, None, 99),
		Q(OpVerify, 20000, 5, 1),
		Q(OpAssign, 0, None, 10003),
		Q(OpParam, 10000, None, 4),
		Q(OpGosub, 12, None, None),
	)
	err := Validate(program)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validationErr.Issues) != 5 {
		t.Fatalf("expected 5 issues, got %d: %v", len(validationErr.Issues), validationErr.Issues)
	}
	if !strings.Contains(err.Error(), "constant range") {
		t.Fatalf("expected constant-range issue in %q", err.Error())
	}
}

func TestValidateAcceptsWellFormedProgram(t *testing.T) {
	program := MustDecode(
		Q(OpAssign, 10000, None, 0),
		Q(OpGotoF, 20000, None, 3),
		Q(OpPrint, None, 0, None),
		Q(OpEnd, None, None, None),
	)
	if err := Validate(program); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
}
