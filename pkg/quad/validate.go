package quad

import (
	"fmt"
	"strings"

	"github.com/fedehuguet/compiler/pkg/memory"
)

// ValidationError aggregates static program defects.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "program: invalid"
	}
	var b strings.Builder
	b.WriteString("program validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Validate checks a program for defects that can be found without running
// it: jump and call targets, bounds ordering, and operand addresses.
func Validate(p Program) error {
	var errs ValidationError
	add := func(idx int, instr Instruction, format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		errs.Issues = append(errs.Issues, fmt.Sprintf("%d (%s): %s", idx, instr.Operator(), msg))
	}
	readable := func(idx int, instr Instruction, role string, addr int) {
		if addr < 0 {
			add(idx, instr, "%s address %d is negative", role, addr)
		}
	}
	writable := func(idx int, instr Instruction, role string, addr int) {
		switch memory.RegionOf(addr) {
		case memory.RegionNone:
			add(idx, instr, "%s address %d is negative", role, addr)
		case memory.RegionConstant:
			add(idx, instr, "%s address %d is in the constant range", role, addr)
		}
	}

	for idx, instr := range p {
		switch in := instr.(type) {
		case Print:
			readable(idx, instr, "value", in.Src)
		case Binary:
			readable(idx, instr, "left", in.Left)
			readable(idx, instr, "right", in.Right)
			writable(idx, instr, "result", in.Result)
		case Assign:
			readable(idx, instr, "source", in.Src)
			writable(idx, instr, "destination", in.Dst)
		case Param:
			readable(idx, instr, "argument", in.Src)
			if r := memory.RegionOf(in.Dst); r != memory.RegionLocal && r != memory.RegionTemporary {
				add(idx, instr, "parameter address %d is not local or temporary", in.Dst)
			}
		case Goto:
			if in.Target < 0 || in.Target > len(p) {
				add(idx, instr, "target %d outside program of length %d", in.Target, len(p))
			}
		case GotoF:
			readable(idx, instr, "condition", in.Cond)
			if in.Target < 0 || in.Target > len(p) {
				add(idx, instr, "target %d outside program of length %d", in.Target, len(p))
			}
		case Verify:
			readable(idx, instr, "index", in.Index)
			if in.Lower > in.Upper {
				add(idx, instr, "lower bound %d exceeds upper bound %d", in.Lower, in.Upper)
			}
		case IndexLoad:
			readable(idx, instr, "shift", in.Shift)
			readable(idx, instr, "base", in.Base)
			writable(idx, instr, "destination", in.Dst)
		case Gosub:
			if in.Entry < 0 || in.Entry >= len(p) {
				add(idx, instr, "entry %d outside program of length %d", in.Entry, len(p))
			}
		case Return:
			readable(idx, instr, "value", in.Src)
			writable(idx, instr, "destination", in.Dst)
		case Era, EndProc, End:
		default:
			add(idx, instr, "unsupported instruction %T", instr)
		}
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}
