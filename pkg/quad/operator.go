package quad

import (
	"fmt"
	"strings"
)

// Operator is the tag of a quadruple.
type Operator int

const (
	OpInvalid Operator = iota
	OpPrint
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpAssign
	OpGreater
	OpLess
	OpGreaterEq
	OpLessEq
	OpNotEqual
	OpEqual
	OpAnd
	OpOr
	OpGoto
	OpGotoF
	OpVerify
	OpIndex
	OpEra
	OpGosub
	OpParam
	OpReturn
	OpEndProc
	OpEnd
)

var operatorTags = map[Operator]string{
	OpPrint:     "PRINT",
	OpAdd:       "+",
	OpSub:       "-",
	OpMul:       "*",
	OpDiv:       "/",
	OpAssign:    "=",
	OpGreater:   ">",
	OpLess:      "<",
	OpGreaterEq: ">=",
	OpLessEq:    "<=",
	OpNotEqual:  "!=",
	OpEqual:     "==",
	OpAnd:       "&&",
	OpOr:        "||",
	OpGoto:      "GOTO",
	OpGotoF:     "GOTOF",
	OpVerify:    "VER",
	OpIndex:     "++",
	OpEra:       "ERA",
	OpGosub:     "GOSUB",
	OpParam:     "PARAM",
	OpReturn:    "RETURN",
	OpEndProc:   "ENDPROC",
	OpEnd:       "END",
}

var operatorsByTag = func() map[string]Operator {
	out := make(map[string]Operator, len(operatorTags))
	for op, tag := range operatorTags {
		out[tag] = op
	}
	return out
}()

// ParseOperator maps a compiler tag such as "GOSUB" or ">=" to its Operator.
// Word tags are matched case-insensitively.
func ParseOperator(tag string) (Operator, error) {
	tag = strings.TrimSpace(tag)
	if op, ok := operatorsByTag[tag]; ok {
		return op, nil
	}
	if op, ok := operatorsByTag[strings.ToUpper(tag)]; ok {
		return op, nil
	}
	return OpInvalid, fmt.Errorf("unknown operator %q", tag)
}

func (op Operator) String() string {
	if tag, ok := operatorTags[op]; ok {
		return tag
	}
	return fmt.Sprintf("op_%d", int(op))
}

// IsBinary reports whether op reads two operands and writes one result
// after a semantic cube check.
func (op Operator) IsBinary() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv,
		OpGreater, OpLess, OpGreaterEq, OpLessEq,
		OpNotEqual, OpEqual, OpAnd, OpOr:
		return true
	}
	return false
}

func (op Operator) IsArithmetic() bool {
	return op == OpAdd || op == OpSub || op == OpMul || op == OpDiv
}

func (op Operator) IsRelational() bool {
	return op == OpGreater || op == OpLess || op == OpGreaterEq || op == OpLessEq
}

func (op Operator) IsEquality() bool {
	return op == OpEqual || op == OpNotEqual
}

func (op Operator) IsLogical() bool {
	return op == OpAnd || op == OpOr
}
