// Package memory stores typed values by virtual address.
package memory

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fedehuguet/compiler/pkg/runtime"
)

// ErrUnbound is returned when a parameter segment is used before an
// activation has bound it.
var ErrUnbound = errors.New("segment is unbound")

// ErrUnset is returned when reading an address that was never stored.
var ErrUnset = errors.New("address holds no value")

// OutOfRangeError reports an address that does not belong to a segment.
type OutOfRangeError struct {
	Base    int
	Address int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("address %d outside segment based at %d", e.Address, e.Base)
}

// Segment is an address-indexed store anchored at a base address.
type Segment struct {
	base   int
	region Region
	values map[int]runtime.Value
}

// NewSegment creates an empty segment for the region starting at base.
// A base of Unbound produces a segment that rejects every access.
func NewSegment(base int) *Segment {
	region := RegionNone
	if base != Unbound {
		region = RegionOf(base)
	}
	return &Segment{
		base:   base,
		region: region,
		values: make(map[int]runtime.Value),
	}
}

// NewRegionSegment creates an empty segment covering region.
func NewRegionSegment(region Region) *Segment {
	return NewSegment(region.Base())
}

func (s *Segment) Base() int { return s.base }

func (s *Segment) Region() Region { return s.region }

// Bound reports whether the segment accepts accesses.
func (s *Segment) Bound() bool { return s != nil && s.base != Unbound }

// Len returns the number of stored addresses.
func (s *Segment) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

func (s *Segment) check(address int) error {
	if !s.Bound() {
		return ErrUnbound
	}
	if address < s.base || RegionOf(address) != s.region {
		return &OutOfRangeError{Base: s.base, Address: address}
	}
	return nil
}

// Get returns the value stored at address together with its kind.
func (s *Segment) Get(address int) (runtime.Value, runtime.Kind, error) {
	if err := s.check(address); err != nil {
		return nil, runtime.KindInvalid, err
	}
	val, ok := s.values[address]
	if !ok {
		return nil, runtime.KindInvalid, fmt.Errorf("%s address %d: %w", s.region, address, ErrUnset)
	}
	return val, val.Kind(), nil
}

// Set stores value at address, replacing any previous value.
func (s *Segment) Set(address int, value runtime.Value) error {
	if err := s.check(address); err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("%s address %d: cannot store nil value", s.region, address)
	}
	s.values[address] = value
	return nil
}

// Addresses returns the stored addresses in ascending order.
func (s *Segment) Addresses() []int {
	if s == nil {
		return nil
	}
	out := make([]int, 0, len(s.values))
	for addr := range s.values {
		out = append(out, addr)
	}
	sort.Ints(out)
	return out
}
