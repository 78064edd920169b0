// Package phi removes phi nodes, turning each one into a parallel copy
// scheduled into ordinary moves at the end of the block that defines each
// incoming value (spec §4.4). It is only sound once critical-edge
// splitting has run; Remove panics via internal/diag otherwise.
package phi

import (
	"kanso/internal/diag"
	"kanso/internal/ir"
	"kanso/internal/parmove"
)

// Remove eliminates every phi in m, in place.
func Remove(m *ir.Module) {
	if !m.HasRun(ir.PassCriticalEdgeSplitting) {
		diag.Raise(diag.CodeMissingPrerequisite,
			"phi removal requires critical-edge splitting to have already run on module %q", m.Name)
	}

	for _, f := range m.Functions {
		collectParMoves(f)
	}
	m.MarkRun(ir.PassPhiRemoval)

	for _, f := range m.Functions {
		scheduleParMoves(f)
	}
}

// collectParMoves turns every phi instruction into a set of ParMove
// entries recorded on the block that defines each incoming value (not
// necessarily the phi's direct predecessor — it may be a dominator
// ancestor that never redefines the variable on that path), then deletes
// the phi instructions. Critical-edge splitting guarantees this block has
// only one successor, so appending the copy there is safe regardless of
// which arm of a branch was taken. This is a deliberate choice, not an
// approximation of "the predecessor": it is exactly where
// original_source/src/algos/phi_removal.rs schedules the copy.
func collectParMoves(f *ir.Function) {
	for _, b := range f.Blocks {
		kept := b.Instructions[:0]
		for _, instr := range b.Instructions {
			phi, ok := instr.Operation.(ir.PhiOp)
			if !ok {
				kept = append(kept, instr)
				continue
			}
			for _, val := range phi.Incoming {
				owner := f.Values[val].Owner
				target := f.Block(owner)
				target.ParMoves = append(target.ParMoves, ir.ParMove{Dst: *instr.Yielded, Src: val})
			}
		}
		b.Instructions = kept
	}
}

func scheduleParMoves(f *ir.Function) {
	for bi, b := range f.Blocks {
		if len(b.ParMoves) == 0 {
			continue
		}
		pairs := make([]parmove.Pair[ir.ValueID], len(b.ParMoves))
		for i, pm := range b.ParMoves {
			pairs[i] = parmove.Pair[ir.ValueID]{Dst: pm.Dst, Src: pm.Src}
		}

		owner := ir.BlockID(bi)
		seq := parmove.Schedule(pairs, func(dst, _ ir.ValueID) ir.ValueID {
			return f.PushValue(f.Values[dst].Type, owner)
		})

		for _, mv := range seq {
			dst := mv.Dst
			b.Instructions = append(b.Instructions, ir.Instruction{
				Yielded:   &dst,
				Operation: ir.BinOpOp{Op: ir.BinOpMove, Lhs: mv.Src, Rhs: mv.Src},
			})
		}
		b.ParMoves = nil
	}
}
