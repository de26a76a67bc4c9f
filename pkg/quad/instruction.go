// Package quad models the quadruple instructions executed by the virtual
// machine.
//
// The compiler emits flat four-field records whose operand fields mean
// different things per operator. Decode turns each record into a typed
// Instruction so the executor only ever reads the fields that are
// meaningful for that operator:
//
//	PRINT         right = value address
//	+ - * / ...   left, right = operands, result = destination
//	=             left = source, result = destination
//	PARAM         left = argument, result = callee parameter address
//	GOTO          result = target index
//	GOTOF         left = condition, result = target index
//	VER           left = index address, right = lower bound, result = upper bound
//	++            left = shift address, right = array base, result = destination
//	GOSUB         left = entry index
//	RETURN        left = callee value, result = caller destination
//	ERA ENDPROC END  no operands
package quad

import "fmt"

// None marks an unused operand field.
const None = -1

// Quadruple is the flat record produced by the compiler.
type Quadruple struct {
	Op     Operator
	Left   int
	Right  int
	Result int
}

func (q Quadruple) String() string {
	return fmt.Sprintf("%s %s %s %s", q.Op, operandString(q.Left), operandString(q.Right), operandString(q.Result))
}

func operandString(v int) string {
	if v == None {
		return "-"
	}
	return fmt.Sprintf("%d", v)
}

// Instruction is a decoded quadruple. The implementations below are the
// complete set.
type Instruction interface {
	Operator() Operator
	Encode() Quadruple
	isInstruction()
}

// Print writes the value at Src to the program output.
type Print struct {
	Src int
}

// Binary covers arithmetic, relational, equality and logical operators.
type Binary struct {
	Op     Operator
	Left   int
	Right  int
	Result int
}

type Assign struct {
	Src int
	Dst int
}

// Param copies Src into the pending activation's parameter slot Dst.
type Param struct {
	Src int
	Dst int
}

type Goto struct {
	Target int
}

// GotoF jumps to Target when the bool at Cond is false.
type GotoF struct {
	Cond   int
	Target int
}

// Verify checks that the int at Index lies within [Lower, Upper].
type Verify struct {
	Index int
	Lower int
	Upper int
}

// IndexLoad reads the value at Base plus the int stored at Shift into Dst.
type IndexLoad struct {
	Shift int
	Base  int
	Dst   int
}

// Era prepares empty parameter segments for the next call.
type Era struct{}

type Gosub struct {
	Entry int
}

// Return copies Src from the callee frame to Dst and returns to the caller.
type Return struct {
	Src int
	Dst int
}

type EndProc struct{}

// End discards the outermost frame.
type End struct{}

func (Print) Operator() Operator     { return OpPrint }
func (b Binary) Operator() Operator  { return b.Op }
func (Assign) Operator() Operator    { return OpAssign }
func (Param) Operator() Operator     { return OpParam }
func (Goto) Operator() Operator      { return OpGoto }
func (GotoF) Operator() Operator     { return OpGotoF }
func (Verify) Operator() Operator    { return OpVerify }
func (IndexLoad) Operator() Operator { return OpIndex }
func (Era) Operator() Operator       { return OpEra }
func (Gosub) Operator() Operator     { return OpGosub }
func (Return) Operator() Operator    { return OpReturn }
func (EndProc) Operator() Operator   { return OpEndProc }
func (End) Operator() Operator       { return OpEnd }

func (i Print) Encode() Quadruple { return Quadruple{Op: OpPrint, Left: None, Right: i.Src, Result: None} }
func (i Binary) Encode() Quadruple {
	return Quadruple{Op: i.Op, Left: i.Left, Right: i.Right, Result: i.Result}
}
func (i Assign) Encode() Quadruple { return Quadruple{Op: OpAssign, Left: i.Src, Right: None, Result: i.Dst} }
func (i Param) Encode() Quadruple  { return Quadruple{Op: OpParam, Left: i.Src, Right: None, Result: i.Dst} }
func (i Goto) Encode() Quadruple   { return Quadruple{Op: OpGoto, Left: None, Right: None, Result: i.Target} }
func (i GotoF) Encode() Quadruple {
	return Quadruple{Op: OpGotoF, Left: i.Cond, Right: None, Result: i.Target}
}
func (i Verify) Encode() Quadruple {
	return Quadruple{Op: OpVerify, Left: i.Index, Right: i.Lower, Result: i.Upper}
}
func (i IndexLoad) Encode() Quadruple {
	return Quadruple{Op: OpIndex, Left: i.Shift, Right: i.Base, Result: i.Dst}
}
func (Era) Encode() Quadruple      { return Quadruple{Op: OpEra, Left: None, Right: None, Result: None} }
func (i Gosub) Encode() Quadruple  { return Quadruple{Op: OpGosub, Left: i.Entry, Right: None, Result: None} }
func (i Return) Encode() Quadruple { return Quadruple{Op: OpReturn, Left: i.Src, Right: None, Result: i.Dst} }
func (EndProc) Encode() Quadruple  { return Quadruple{Op: OpEndProc, Left: None, Right: None, Result: None} }
func (End) Encode() Quadruple      { return Quadruple{Op: OpEnd, Left: None, Right: None, Result: None} }

func (Print) isInstruction()     {}
func (Binary) isInstruction()    {}
func (Assign) isInstruction()    {}
func (Param) isInstruction()     {}
func (Goto) isInstruction()      {}
func (GotoF) isInstruction()     {}
func (Verify) isInstruction()    {}
func (IndexLoad) isInstruction() {}
func (Era) isInstruction()       {}
func (Gosub) isInstruction()     {}
func (Return) isInstruction()    {}
func (EndProc) isInstruction()   {}
func (End) isInstruction()       {}

// Program is an immutable, 0-indexed instruction sequence.
type Program []Instruction

// Encode converts the program back to flat quadruples.
func (p Program) Encode() []Quadruple {
	out := make([]Quadruple, len(p))
	for idx, instr := range p {
		out[idx] = instr.Encode()
	}
	return out
}

// DecodeError reports a quadruple that cannot be turned into an instruction.
type DecodeError struct {
	Index  int
	Op     Operator
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("quadruple %d (%s): %s", e.Index, e.Op, e.Reason)
}

// DecodeOne converts a single flat quadruple.
func DecodeOne(q Quadruple) (Instruction, error) {
	switch q.Op {
	case OpPrint:
		return Print{Src: q.Right}, nil
	case OpAssign:
		return Assign{Src: q.Left, Dst: q.Result}, nil
	case OpParam:
		return Param{Src: q.Left, Dst: q.Result}, nil
	case OpGoto:
		return Goto{Target: q.Result}, nil
	case OpGotoF:
		return GotoF{Cond: q.Left, Target: q.Result}, nil
	case OpVerify:
		return Verify{Index: q.Left, Lower: q.Right, Upper: q.Result}, nil
	case OpIndex:
		return IndexLoad{Shift: q.Left, Base: q.Right, Dst: q.Result}, nil
	case OpEra:
		return Era{}, nil
	case OpGosub:
		return Gosub{Entry: q.Left}, nil
	case OpReturn:
		return Return{Src: q.Left, Dst: q.Result}, nil
	case OpEndProc:
		return EndProc{}, nil
	case OpEnd:
		return End{}, nil
	}
	if q.Op.IsBinary() {
		return Binary{Op: q.Op, Left: q.Left, Right: q.Right, Result: q.Result}, nil
	}
	return nil, fmt.Errorf("unexpected operator %s", q.Op)
}

// Decode converts a compiled quadruple sequence into a Program.
func Decode(quads []Quadruple) (Program, error) {
	program := make(Program, 0, len(quads))
	for idx, q := range quads {
		instr, err := DecodeOne(q)
		if err != nil {
			return nil, &DecodeError{Index: idx, Op: q.Op, Reason: err.Error()}
		}
		program = append(program, instr)
	}
	return program, nil
}

// MustDecode is Decode for statically known programs; it panics on error.
func MustDecode(quads ...Quadruple) Program {
	program, err := Decode(quads)
	if err != nil {
		panic(err)
	}
	return program
}

// Q builds a flat quadruple.
func Q(op Operator, left, right, result int) Quadruple {
	return Quadruple{Op: op, Left: left, Right: right, Result: result}
}

// Format renders an instruction showing only the fields it uses, for
// disassembly listings.
func Format(instr Instruction) string {
	switch in := instr.(type) {
	case Print:
		return fmt.Sprintf("PRINT %d", in.Src)
	case Binary:
		return fmt.Sprintf("%s %d %d -> %d", in.Op, in.Left, in.Right, in.Result)
	case Assign:
		return fmt.Sprintf("= %d -> %d", in.Src, in.Dst)
	case Param:
		return fmt.Sprintf("PARAM %d -> %d", in.Src, in.Dst)
	case Goto:
		return fmt.Sprintf("GOTO %d", in.Target)
	case GotoF:
		return fmt.Sprintf("GOTOF %d %d", in.Cond, in.Target)
	case Verify:
		return fmt.Sprintf("VER %d [%d, %d]", in.Index, in.Lower, in.Upper)
	case IndexLoad:
		return fmt.Sprintf("++ %d + %d -> %d", in.Shift, in.Base, in.Dst)
	case Gosub:
		return fmt.Sprintf("GOSUB %d", in.Entry)
	case Return:
		return fmt.Sprintf("RETURN %d -> %d", in.Src, in.Dst)
	case nil:
		return "<nil>"
	}
	return instr.Operator().String()
}
