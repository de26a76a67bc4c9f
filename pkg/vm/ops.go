package vm

import (
	"math"

	"github.com/fedehuguet/compiler/pkg/cube"
	"github.com/fedehuguet/compiler/pkg/quad"
	"github.com/fedehuguet/compiler/pkg/runtime"
)

func (e *Engine) execBinary(in quad.Binary) error {
	left, err := e.load(in.Left)
	if err != nil {
		return err
	}
	right, err := e.load(in.Right)
	if err != nil {
		return err
	}
	if _, ok := cube.Check(in.Op, left.Kind(), right.Kind()); !ok {
		return typeMismatch(in.Op, left.Kind(), right.Kind())
	}
	result, err := applyBinaryOperator(in.Op, left, right)
	if err != nil {
		if fault, ok := err.(*RuntimeError); ok && fault.Operands == nil {
			fault.Operands = []runtime.Kind{left.Kind(), right.Kind()}
		}
		return err
	}
	if err := e.store(in.Result, result); err != nil {
		return err
	}
	e.ip++
	return nil
}

// applyBinaryOperator computes op over operands already accepted by the
// semantic cube.
func applyBinaryOperator(op quad.Operator, left, right runtime.Value) (runtime.Value, error) {
	switch l := left.(type) {
	case runtime.BoolValue:
		r, ok := right.(runtime.BoolValue)
		if !ok {
			break
		}
		switch op {
		case quad.OpAnd:
			return runtime.BoolValue{Val: l.Val && r.Val}, nil
		case quad.OpOr:
			return runtime.BoolValue{Val: l.Val || r.Val}, nil
		case quad.OpEqual:
			return runtime.BoolValue{Val: l.Val == r.Val}, nil
		case quad.OpNotEqual:
			return runtime.BoolValue{Val: l.Val != r.Val}, nil
		}
	case runtime.CharValue:
		r, ok := right.(runtime.CharValue)
		if !ok {
			break
		}
		switch op {
		case quad.OpEqual:
			return runtime.BoolValue{Val: l.Val == r.Val}, nil
		case quad.OpNotEqual:
			return runtime.BoolValue{Val: l.Val != r.Val}, nil
		}
	case runtime.StringValue:
		r, ok := right.(runtime.StringValue)
		if !ok {
			break
		}
		switch op {
		case quad.OpAdd:
			return runtime.StringValue{Val: l.Val + r.Val}, nil
		case quad.OpEqual:
			return runtime.BoolValue{Val: l.Val == r.Val}, nil
		case quad.OpNotEqual:
			return runtime.BoolValue{Val: l.Val != r.Val}, nil
		}
	case runtime.IntValue:
		switch r := right.(type) {
		case runtime.IntValue:
			return intOperation(op, l.Val, r.Val)
		case runtime.FloatValue:
			return floatOperation(op, float64(l.Val), r.Val)
		}
	case runtime.FloatValue:
		switch r := right.(type) {
		case runtime.IntValue:
			return floatOperation(op, l.Val, float64(r.Val))
		case runtime.FloatValue:
			return floatOperation(op, l.Val, r.Val)
		}
	}
	return nil, typeMismatch(op, runtime.KindOf(left), runtime.KindOf(right))
}

func intOperation(op quad.Operator, a, b int64) (runtime.Value, error) {
	switch op {
	case quad.OpAdd:
		sum := a + b
		if (sum > a) != (b > 0) {
			return nil, newFault(KindOverflow, "%d + %d overflows int", a, b)
		}
		return runtime.IntValue{Val: sum}, nil
	case quad.OpSub:
		diff := a - b
		if (diff < a) != (b > 0) {
			return nil, newFault(KindOverflow, "%d - %d overflows int", a, b)
		}
		return runtime.IntValue{Val: diff}, nil
	case quad.OpMul:
		if a == 0 || b == 0 {
			return runtime.IntValue{Val: 0}, nil
		}
		product := a * b
		if product/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return nil, newFault(KindOverflow, "%d * %d overflows int", a, b)
		}
		return runtime.IntValue{Val: product}, nil
	case quad.OpDiv:
		if b == 0 {
			return nil, newFault(KindDivisionByZero, "division by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return nil, newFault(KindOverflow, "%d / %d overflows int", a, b)
		}
		return runtime.IntValue{Val: a / b}, nil
	case quad.OpGreater:
		return runtime.BoolValue{Val: a > b}, nil
	case quad.OpLess:
		return runtime.BoolValue{Val: a < b}, nil
	case quad.OpGreaterEq:
		return runtime.BoolValue{Val: a >= b}, nil
	case quad.OpLessEq:
		return runtime.BoolValue{Val: a <= b}, nil
	case quad.OpEqual:
		return runtime.BoolValue{Val: a == b}, nil
	case quad.OpNotEqual:
		return runtime.BoolValue{Val: a != b}, nil
	}
	return nil, typeMismatch(op, runtime.KindInt, runtime.KindInt)
}

func floatOperation(op quad.Operator, a, b float64) (runtime.Value, error) {
	switch op {
	case quad.OpAdd:
		return runtime.FloatValue{Val: a + b}, nil
	case quad.OpSub:
		return runtime.FloatValue{Val: a - b}, nil
	case quad.OpMul:
		return runtime.FloatValue{Val: a * b}, nil
	case quad.OpDiv:
		if b == 0 {
			return nil, newFault(KindDivisionByZero, "division by zero")
		}
		return runtime.FloatValue{Val: a / b}, nil
	case quad.OpGreater:
		return runtime.BoolValue{Val: a > b}, nil
	case quad.OpLess:
		return runtime.BoolValue{Val: a < b}, nil
	case quad.OpGreaterEq:
		return runtime.BoolValue{Val: a >= b}, nil
	case quad.OpLessEq:
		return runtime.BoolValue{Val: a <= b}, nil
	case quad.OpEqual:
		return runtime.BoolValue{Val: a == b}, nil
	case quad.OpNotEqual:
		return runtime.BoolValue{Val: a != b}, nil
	}
	return nil, typeMismatch(op, runtime.KindFloat, runtime.KindFloat)
}
