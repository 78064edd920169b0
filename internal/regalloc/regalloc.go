// Package regalloc implements the linear-scan register allocator (spec
// §4.7): given a VCode function's instructions in program order and a set
// of allocatable physical registers, it produces a mapping from virtual
// registers to physical registers or spill slots.
package regalloc

import (
	"fmt"
	"sort"
)

// Kind distinguishes the three forms a VReg can take. Go has no tagged
// union, so VReg carries its own discriminant, mirroring the sealed
// Operation/Type interfaces in internal/ir.
type Kind int

const (
	Virtual Kind = iota
	Real
	Spilled
)

// VReg is a virtual register, a physical register, or a spill slot,
// addressed by a dense index within its kind.
type VReg struct {
	Kind  Kind
	Index int
}

func VirtualReg(n int) VReg { return VReg{Kind: Virtual, Index: n} }
func RealReg(n int) VReg    { return VReg{Kind: Real, Index: n} }
func SpilledReg(n int) VReg { return VReg{Kind: Spilled, Index: n} }

func (v VReg) String() string {
	switch v.Kind {
	case Virtual:
		return fmt.Sprintf("v%d", v.Index)
	case Real:
		return fmt.Sprintf("r%d", v.Index)
	case Spilled:
		return fmt.Sprintf("s%d", v.Index)
	default:
		return "?"
	}
}

// Regalloc is the collector interface a target's VCodeInstr.CollectRegisters
// implementation calls to report the registers an instruction defines and
// uses, and to hint at profitable move coalescing. NextInstr/Reset let the
// caller drive one collector across a whole function: NextInstr advances
// the program point between instructions, Reset starts a fresh function.
type Regalloc interface {
	AddDef(v VReg)
	AddUse(v VReg)
	CoalesceMove(src, dst VReg)
	NextInstr()
	Reset()
}

// ApplyAlloc rewrites v in place using the allocation map, leaving v
// untouched if it has no entry (Real registers are never remapped).
func ApplyAlloc(v *VReg, allocs map[VReg]VReg) {
	if r, ok := allocs[*v]; ok {
		*v = r
	}
}

type interval struct {
	reg        VReg
	start, end int
}

// collector is the concrete Regalloc implementation LinearScan drives over
// a function's instructions to build one live interval per virtual
// register touched, plus move-coalescing hints.
type collector struct {
	point     int
	intervals map[VReg]*interval
	order     []VReg
	coalesce  map[VReg]VReg
}

func newCollector() *collector {
	return &collector{
		intervals: make(map[VReg]*interval),
		coalesce:  make(map[VReg]VReg),
	}
}

func (c *collector) touch(v VReg) {
	if v.Kind != Virtual {
		return
	}
	iv, ok := c.intervals[v]
	if !ok {
		iv = &interval{reg: v, start: c.point, end: c.point}
		c.intervals[v] = iv
		c.order = append(c.order, v)
		return
	}
	if c.point < iv.start {
		iv.start = c.point
	}
	if c.point > iv.end {
		iv.end = c.point
	}
}

func (c *collector) AddDef(v VReg)         { c.touch(v) }
func (c *collector) AddUse(v VReg)         { c.touch(v) }
func (c *collector) CoalesceMove(src, dst VReg) {
	if dst.Kind == Virtual {
		c.coalesce[dst] = src
	}
}
func (c *collector) NextInstr() { c.point++ }
func (c *collector) Reset() {
	c.point = 0
	c.intervals = make(map[VReg]*interval)
	c.order = nil
	c.coalesce = make(map[VReg]VReg)
}

// LinearScan runs the collector over a sequence of instructions (via
// collectFn, which should call collect.AddDef/AddUse/CoalesceMove then
// collect.NextInstr for each instruction in program order) and returns the
// virtual-to-physical-or-spill mapping.
//
// usable lists the allocatable physical registers in preference order.
func LinearScan(usable []VReg, collectFn func(collect Regalloc)) map[VReg]VReg {
	c := newCollector()
	collectFn(c)

	intervals := make([]*interval, len(c.order))
	for i, v := range c.order {
		intervals[i] = c.intervals[v]
	}
	sortIntervalsByStart(intervals)

	free := append([]VReg(nil), usable...)
	var active []*activeEntry
	allocs := make(map[VReg]VReg)
	nextSpill := 0

	for _, iv := range intervals {
		free, active = expire(free, active, iv.start)

		if pref, ok := c.coalesce[iv.reg]; ok {
			if prefPhys, ok := allocs[pref]; ok {
				if idx := indexOfVReg(free, prefPhys); idx >= 0 {
					free = append(free[:idx], free[idx+1:]...)
					allocs[iv.reg] = prefPhys
					active = append(active, &activeEntry{interval: iv, phys: prefPhys})
					continue
				}
			}
		}

		if len(free) > 0 {
			phys := free[0]
			free = free[1:]
			allocs[iv.reg] = phys
			active = append(active, &activeEntry{interval: iv, phys: phys})
			continue
		}

		// No free physical: spill the longest-living of active ∪ {current}.
		victimIdx := -1
		victimEnd := iv.end
		for i, a := range active {
			if a.interval.end > victimEnd {
				victimEnd = a.interval.end
				victimIdx = i
			}
		}

		if victimIdx < 0 {
			allocs[iv.reg] = SpilledReg(nextSpill)
			nextSpill++
			continue
		}

		victim := active[victimIdx]
		allocs[iv.reg] = victim.phys
		active[victimIdx] = &activeEntry{interval: iv, phys: victim.phys}
		allocs[victim.interval.reg] = SpilledReg(nextSpill)
		nextSpill++
	}

	return allocs
}

type activeEntry struct {
	interval *interval
	phys     VReg
}

func expire(free []VReg, active []*activeEntry, start int) ([]VReg, []*activeEntry) {
	kept := active[:0]
	for _, a := range active {
		if a.interval.end < start {
			free = append(free, a.phys)
			continue
		}
		kept = append(kept, a)
	}
	return free, kept
}

func indexOfVReg(list []VReg, v VReg) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}

func sortIntervalsByStart(intervals []*interval) {
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].start < intervals[j].start })
}
