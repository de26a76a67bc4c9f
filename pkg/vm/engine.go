package vm

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/fedehuguet/compiler/pkg/memory"
	"github.com/fedehuguet/compiler/pkg/quad"
)

// noReturn marks the outermost frame, which has no caller.
const noReturn = -1

// frame is one activation: its Local and Temporary segments and the
// instruction index to resume at in the caller. Bundling the three keeps the
// segment stacks and the return-address stack at the same depth.
type frame struct {
	locals   *memory.Segment
	temps    *memory.Segment
	returnIP int
}

// Options tune an Engine. The zero value writes output nowhere, logs nothing
// (a zero zerolog.Logger has no writer) and imposes no limits.
type Options struct {
	Output       io.Writer
	Logger       zerolog.Logger
	MaxSteps     int
	MaxCallDepth int
}

// Engine executes one decoded program. It owns every memory segment and
// is not safe for concurrent use.
type Engine struct {
	program   quad.Program
	ip        int
	steps     int
	global    *memory.Segment
	constants *memory.Segment
	frames    []frame

	paramLocal *memory.Segment
	paramTemp  *memory.Segment

	out          io.Writer
	log          zerolog.Logger
	maxSteps     int
	maxCallDepth int
	fault        error
}

// New builds an engine for program with the given constant table. A nil
// constants segment is treated as empty.
func New(program quad.Program, constants *memory.Segment, opts Options) (*Engine, error) {
	if constants == nil {
		constants = memory.NewRegionSegment(memory.RegionConstant)
	}
	if constants.Region() != memory.RegionConstant {
		return nil, fmt.Errorf("constant table based at %d is not in the constant range", constants.Base())
	}
	out := opts.Output
	if out == nil {
		out = io.Discard
	}
	e := &Engine{
		program:      program,
		global:       memory.NewRegionSegment(memory.RegionGlobal),
		constants:    constants,
		paramLocal:   memory.NewSegment(memory.Unbound),
		paramTemp:    memory.NewSegment(memory.Unbound),
		out:          out,
		log:          opts.Logger,
		maxSteps:     opts.MaxSteps,
		maxCallDepth: opts.MaxCallDepth,
		frames:       make([]frame, 0, 8),
	}
	e.frames = append(e.frames, frame{
		locals:   memory.NewRegionSegment(memory.RegionLocal),
		temps:    memory.NewRegionSegment(memory.RegionTemporary),
		returnIP: noReturn,
	})
	return e, nil
}

// Run executes instructions until the instruction pointer reaches the end
// of the program or a fault occurs.
func (e *Engine) Run() error {
	for !e.Halted() {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes a single instruction. It is a no-op once the program has
// finished and keeps returning the first fault after one occurred.
func (e *Engine) Step() error {
	if e.fault != nil {
		return e.fault
	}
	if e.ip < 0 || e.ip >= len(e.program) {
		return nil
	}
	ip := e.ip
	instr := e.program[ip]
	e.steps++
	if e.maxSteps > 0 && e.steps > e.maxSteps {
		e.fault = e.attachContext(newFault(KindStepLimit, "exceeded %d steps", e.maxSteps), ip, instr.Operator())
		return e.fault
	}

	e.log.Trace().
		Int("ip", ip).
		Str("op", instr.Operator().String()).
		Int("depth", len(e.frames)).
		Msg("step")

	if err := e.dispatch(instr); err != nil {
		e.fault = e.attachContext(err, ip, instr.Operator())
		e.log.Debug().Err(e.fault).Int("ip", ip).Msg("fault")
		return e.fault
	}
	return nil
}

func (e *Engine) dispatch(instr quad.Instruction) error {
	switch in := instr.(type) {
	case quad.Print:
		return e.execPrint(in)
	case quad.Binary:
		return e.execBinary(in)
	case quad.Assign:
		return e.execAssign(in)
	case quad.Param:
		return e.execParam(in)
	case quad.Goto:
		return e.jump(in.Target)
	case quad.GotoF:
		return e.execGotoF(in)
	case quad.Verify:
		return e.execVerify(in)
	case quad.IndexLoad:
		return e.execIndexLoad(in)
	case quad.Era:
		return e.execEra()
	case quad.Gosub:
		return e.execGosub(in)
	case quad.Return:
		return e.execReturn(in)
	case quad.EndProc:
		return e.execEndProc()
	case quad.End:
		return e.execEnd()
	default:
		return newFault(KindInvalidOperation, "unexpected instruction %T", instr)
	}
}

// Halted reports whether execution has finished or faulted.
func (e *Engine) Halted() bool {
	return e.fault != nil || e.ip < 0 || e.ip >= len(e.program)
}

// Err returns the fault that stopped the engine, if any.
func (e *Engine) Err() error { return e.fault }

func (e *Engine) IP() int { return e.ip }

// Steps returns the number of instructions dispatched so far.
func (e *Engine) Steps() int { return e.steps }

// FrameDepth returns the number of live Local/Temporary frame pairs,
// including the outermost one while it exists.
func (e *Engine) FrameDepth() int { return len(e.frames) }

// CallDepth returns the number of pending return addresses.
func (e *Engine) CallDepth() int {
	depth := 0
	for _, f := range e.frames {
		if f.returnIP != noReturn {
			depth++
		}
	}
	return depth
}

// Global exposes the global segment for inspection.
func (e *Engine) Global() *memory.Segment { return e.global }

func (e *Engine) returnAddresses() []int {
	out := make([]int, 0, len(e.frames))
	for idx := len(e.frames) - 1; idx >= 0; idx-- {
		if e.frames[idx].returnIP != noReturn {
			out = append(out, e.frames[idx].returnIP)
		}
	}
	return out
}
