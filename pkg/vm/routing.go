package vm

import (
	"errors"

	"github.com/fedehuguet/compiler/pkg/memory"
	"github.com/fedehuguet/compiler/pkg/runtime"
)

func (e *Engine) top() (*frame, error) {
	if len(e.frames) == 0 {
		return nil, newFault(KindStackUnderflow, "no active frame")
	}
	return &e.frames[len(e.frames)-1], nil
}

// segmentFor routes an address to the segment that currently owns it. Local
// and Temporary addresses always resolve to the top frame.
func (e *Engine) segmentFor(address int) (*memory.Segment, error) {
	switch memory.RegionOf(address) {
	case memory.RegionLocal:
		f, err := e.top()
		if err != nil {
			return nil, err
		}
		return f.locals, nil
	case memory.RegionTemporary:
		f, err := e.top()
		if err != nil {
			return nil, err
		}
		return f.temps, nil
	case memory.RegionConstant:
		return e.constants, nil
	case memory.RegionGlobal:
		return e.global, nil
	default:
		return nil, newFault(KindAddressRouting, "address %d is outside every segment", address)
	}
}

func (e *Engine) load(address int) (runtime.Value, error) {
	seg, err := e.segmentFor(address)
	if err != nil {
		return nil, err
	}
	val, _, err := seg.Get(address)
	if err != nil {
		return nil, segmentFault(err, address)
	}
	return val, nil
}

func (e *Engine) store(address int, value runtime.Value) error {
	if memory.RegionOf(address) == memory.RegionConstant {
		return newFault(KindAddressRouting, "address %d is in the read-only constant segment", address)
	}
	seg, err := e.segmentFor(address)
	if err != nil {
		return err
	}
	if err := seg.Set(address, value); err != nil {
		return segmentFault(err, address)
	}
	return nil
}

// storeParam writes into the staging segments filled between ERA and GOSUB
// instead of the live frame.
func (e *Engine) storeParam(address int, value runtime.Value) error {
	var seg *memory.Segment
	switch memory.RegionOf(address) {
	case memory.RegionLocal:
		seg = e.paramLocal
	case memory.RegionTemporary:
		seg = e.paramTemp
	default:
		return newFault(KindAddressRouting, "parameter address %d is not local or temporary", address)
	}
	if !seg.Bound() {
		return newFault(KindActivation, "PARAM without a pending ERA")
	}
	if err := seg.Set(address, value); err != nil {
		return segmentFault(err, address)
	}
	return nil
}

func segmentFault(err error, address int) error {
	switch {
	case errors.Is(err, memory.ErrUnset):
		return wrapFault(KindUninitialized, err, "address %d was read before it was written", address)
	case errors.Is(err, memory.ErrUnbound):
		return wrapFault(KindActivation, err, "address %d belongs to an unbound segment", address)
	default:
		return wrapFault(KindAddressRouting, err, "%v", err)
	}
}

func (e *Engine) loadInt(address int, role string) (int64, error) {
	val, err := e.load(address)
	if err != nil {
		return 0, err
	}
	iv, ok := val.(runtime.IntValue)
	if !ok {
		fault := newFault(KindTypeMismatch, "%s must be int, got %s", role, val.Kind())
		fault.Operands = []runtime.Kind{val.Kind()}
		return 0, fault
	}
	return iv.Val, nil
}

func (e *Engine) loadBool(address int, role string) (bool, error) {
	val, err := e.load(address)
	if err != nil {
		return false, err
	}
	bv, ok := val.(runtime.BoolValue)
	if !ok {
		fault := newFault(KindTypeMismatch, "%s must be bool, got %s", role, val.Kind())
		fault.Operands = []runtime.Kind{val.Kind()}
		return false, fault
	}
	return bv.Val, nil
}
