package vm

import (
	"github.com/fedehuguet/compiler/pkg/memory"
	"github.com/fedehuguet/compiler/pkg/quad"
)

func (e *Engine) execEra() error {
	e.paramLocal = memory.NewRegionSegment(memory.RegionLocal)
	e.paramTemp = memory.NewRegionSegment(memory.RegionTemporary)
	e.ip++
	return nil
}

func (e *Engine) execParam(in quad.Param) error {
	val, err := e.load(in.Src)
	if err != nil {
		return err
	}
	if err := e.storeParam(in.Dst, val); err != nil {
		return err
	}
	e.ip++
	return nil
}

// execGosub turns the staged parameter segments into the callee's frame.
func (e *Engine) execGosub(in quad.Gosub) error {
	if !e.paramLocal.Bound() || !e.paramTemp.Bound() {
		return newFault(KindActivation, "GOSUB without a pending ERA")
	}
	if in.Entry < 0 || in.Entry >= len(e.program) {
		return newFault(KindInvalidOperand, "call entry %d outside program of length %d", in.Entry, len(e.program))
	}
	if e.maxCallDepth > 0 && e.CallDepth() >= e.maxCallDepth {
		return newFault(KindStackOverflow, "call depth exceeds %d", e.maxCallDepth)
	}
	e.frames = append(e.frames, frame{
		locals:   e.paramLocal,
		temps:    e.paramTemp,
		returnIP: e.ip + 1,
	})
	e.paramLocal = memory.NewSegment(memory.Unbound)
	e.paramTemp = memory.NewSegment(memory.Unbound)
	e.log.Debug().Int("entry", in.Entry).Int("return", e.ip+1).Int("depth", len(e.frames)).Msg("call")
	e.ip = in.Entry
	return nil
}

// popCall discards the callee frame and returns the caller's resume index.
func (e *Engine) popCall() (int, error) {
	if len(e.frames) == 0 {
		return 0, newFault(KindStackUnderflow, "return with no active frame")
	}
	top := e.frames[len(e.frames)-1]
	if top.returnIP == noReturn {
		return 0, newFault(KindStackUnderflow, "return with an empty return-address stack")
	}
	e.frames = e.frames[:len(e.frames)-1]
	e.log.Debug().Int("return", top.returnIP).Int("depth", len(e.frames)).Msg("return")
	return top.returnIP, nil
}

// execReturn reads the result in the callee frame and stores it after the
// pop, so Local and Temporary destinations land in the caller's frame.
func (e *Engine) execReturn(in quad.Return) error {
	val, err := e.load(in.Src)
	if err != nil {
		return err
	}
	resume, err := e.popCall()
	if err != nil {
		return err
	}
	e.ip = resume
	return e.store(in.Dst, val)
}

func (e *Engine) execEndProc() error {
	resume, err := e.popCall()
	if err != nil {
		return err
	}
	e.ip = resume
	return nil
}

// execEnd discards the top frame and falls through; the run ends when the
// instruction pointer passes the last instruction.
func (e *Engine) execEnd() error {
	if len(e.frames) == 0 {
		return newFault(KindStackUnderflow, "END with no active frame")
	}
	e.frames = e.frames[:len(e.frames)-1]
	e.ip++
	return nil
}
