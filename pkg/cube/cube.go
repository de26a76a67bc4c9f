// Package cube holds the operator/type compatibility table.
package cube

import (
	"github.com/fedehuguet/compiler/pkg/quad"
	"github.com/fedehuguet/compiler/pkg/runtime"
)

type key struct {
	op    quad.Operator
	left  runtime.Kind
	right runtime.Kind
}

var table = build()

func build() map[key]runtime.Kind {
	t := make(map[key]runtime.Kind)
	numeric := []runtime.Kind{runtime.KindInt, runtime.KindFloat}

	for _, op := range []quad.Operator{quad.OpAdd, quad.OpSub, quad.OpMul, quad.OpDiv} {
		for _, l := range numeric {
			for _, r := range numeric {
				result := runtime.KindInt
				if l == runtime.KindFloat || r == runtime.KindFloat {
					result = runtime.KindFloat
				}
				t[key{op, l, r}] = result
			}
		}
	}
	t[key{quad.OpAdd, runtime.KindString, runtime.KindString}] = runtime.KindString

	for _, op := range []quad.Operator{quad.OpGreater, quad.OpLess, quad.OpGreaterEq, quad.OpLessEq, quad.OpEqual, quad.OpNotEqual} {
		for _, l := range numeric {
			for _, r := range numeric {
				t[key{op, l, r}] = runtime.KindBool
			}
		}
	}
	for _, op := range []quad.Operator{quad.OpEqual, quad.OpNotEqual} {
		for _, k := range []runtime.Kind{runtime.KindString, runtime.KindChar, runtime.KindBool} {
			t[key{op, k, k}] = runtime.KindBool
		}
	}
	for _, op := range []quad.Operator{quad.OpAnd, quad.OpOr} {
		t[key{op, runtime.KindBool, runtime.KindBool}] = runtime.KindBool
	}
	return t
}

// Check returns the result kind of applying op to operands of the given
// kinds. ok is false when the combination is invalid.
func Check(op quad.Operator, left, right runtime.Kind) (result runtime.Kind, ok bool) {
	result, ok = table[key{op, left, right}]
	if !ok {
		return runtime.KindInvalid, false
	}
	return result, true
}
