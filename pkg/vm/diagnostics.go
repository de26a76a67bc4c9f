package vm

import (
	"errors"
	"fmt"
	"strings"
)

const maxCallNotes = 8

// DescribeError renders a fault for humans: the failing instruction, the
// operand kinds involved, and up to eight callers.
func DescribeError(err error) string {
	if err == nil {
		return ""
	}
	var fault *RuntimeError
	if !errors.As(err, &fault) {
		message := strings.TrimSpace(err.Error())
		if !strings.HasPrefix(message, "runtime:") {
			message = "runtime: " + message
		}
		return message
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", fault.Kind, fault.Error())
	if len(fault.Operands) > 0 {
		kinds := make([]string, len(fault.Operands))
		for idx, kind := range fault.Operands {
			kinds[idx] = kind.String()
		}
		fmt.Fprintf(&b, "\nnote: operand types %s", strings.Join(kinds, ", "))
	}
	for idx, ret := range fault.CallStack {
		if idx == maxCallNotes {
			fmt.Fprintf(&b, "\nnote: ... %d more callers", len(fault.CallStack)-maxCallNotes)
			break
		}
		fmt.Fprintf(&b, "\nnote: called from instruction %d", ret-1)
	}
	return b.String()
}
