package vm

import (
	"fmt"

	"github.com/fedehuguet/compiler/pkg/quad"
	"github.com/fedehuguet/compiler/pkg/runtime"
)

func (e *Engine) execPrint(in quad.Print) error {
	val, err := e.load(in.Src)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(e.out, runtime.Format(val)); err != nil {
		return wrapFault(KindOutput, err, "write output: %v", err)
	}
	e.ip++
	return nil
}

func (e *Engine) execAssign(in quad.Assign) error {
	val, err := e.load(in.Src)
	if err != nil {
		return err
	}
	if err := e.store(in.Dst, val); err != nil {
		return err
	}
	e.ip++
	return nil
}

// jump moves to target; the program length itself is a valid target and
// ends the run.
func (e *Engine) jump(target int) error {
	if target < 0 || target > len(e.program) {
		return newFault(KindInvalidOperand, "jump target %d outside program of length %d", target, len(e.program))
	}
	e.ip = target
	return nil
}

func (e *Engine) execGotoF(in quad.GotoF) error {
	cond, err := e.loadBool(in.Cond, "GOTOF condition")
	if err != nil {
		return err
	}
	if !cond {
		return e.jump(in.Target)
	}
	e.ip++
	return nil
}

func (e *Engine) execVerify(in quad.Verify) error {
	index, err := e.loadInt(in.Index, "array index")
	if err != nil {
		return err
	}
	if index < int64(in.Lower) || index > int64(in.Upper) {
		return newFault(KindOutOfBounds, "array index %d outside [%d, %d]", index, in.Lower, in.Upper)
	}
	e.ip++
	return nil
}

// execIndexLoad reads the element at Base plus the runtime shift.
func (e *Engine) execIndexLoad(in quad.IndexLoad) error {
	shift, err := e.loadInt(in.Shift, "array shift")
	if err != nil {
		return err
	}
	effective := shift + int64(in.Base)
	if effective < 0 || effective > int64(maxAddress) {
		return newFault(KindAddressRouting, "effective address %d is outside every segment", effective)
	}
	val, err := e.load(int(effective))
	if err != nil {
		return err
	}
	if err := e.store(in.Dst, val); err != nil {
		return err
	}
	e.ip++
	return nil
}

const maxAddress = int(^uint32(0) >> 1)
