package memory

import "fmt"

// Region names one of the disjoint address ranges assigned by the compiler.
type Region int

const (
	RegionNone Region = iota
	RegionGlobal
	RegionConstant
	RegionTemporary
	RegionLocal
)

// Base addresses of each range. Local is open-ended upward.
const (
	GlobalBase    = 0
	ConstantBase  = 10000
	TemporaryBase = 20000
	LocalBase     = 30000

	// Unbound is the base of a parameter segment that has no pending call.
	Unbound = -1
)

func (r Region) String() string {
	switch r {
	case RegionGlobal:
		return "global"
	case RegionConstant:
		return "constant"
	case RegionTemporary:
		return "temporary"
	case RegionLocal:
		return "local"
	case RegionNone:
		return "none"
	default:
		return fmt.Sprintf("region_%d", int(r))
	}
}

// Base returns the first address of the region.
func (r Region) Base() int {
	switch r {
	case RegionGlobal:
		return GlobalBase
	case RegionConstant:
		return ConstantBase
	case RegionTemporary:
		return TemporaryBase
	case RegionLocal:
		return LocalBase
	default:
		return Unbound
	}
}

// Contains reports whether address lies within the region.
func (r Region) Contains(address int) bool {
	return RegionOf(address) == r
}

// RegionOf routes an address to its range. Ranges are checked from the
// highest base down because Local has no upper bound.
func RegionOf(address int) Region {
	switch {
	case address >= LocalBase:
		return RegionLocal
	case address >= TemporaryBase:
		return RegionTemporary
	case address >= ConstantBase:
		return RegionConstant
	case address >= GlobalBase:
		return RegionGlobal
	default:
		return RegionNone
	}
}
