// Package cfgedit implements critical-edge splitting (spec §4.2): for
// every edge (p -> s) where p has more than one successor and s has more
// than one predecessor, a fresh block is spliced in so that the edge is no
// longer critical. This is a precondition for correct phi placement and
// phi removal.
package cfgedit

import "kanso/internal/ir"

// Split applies critical-edge splitting to every function in m, in place.
// It is idempotent: running it twice is equivalent to running it once,
// since after the first run no edge is critical anymore.
func Split(m *ir.Module) {
	for _, f := range m.Functions {
		splitFunction(f)
	}
	m.MarkRun(ir.PassCriticalEdgeSplitting)
}

func splitFunction(f *ir.Function) {
	ir.RecomputePredecessors(f)

	// Snapshot the block count: newly inserted blocks are never themselves
	// sources of a critical edge (they have exactly one successor), so it
	// is safe to iterate only over the blocks that existed going in.
	n := len(f.Blocks)
	for i := 0; i < n; i++ {
		p := f.Blocks[i]
		succs := ir.Successors(p.Terminator)
		if len(succs) <= 1 {
			continue
		}
		for si, s := range succs {
			sBlock := f.Block(s)
			if len(sBlock.Preds) <= 1 {
				continue
			}
			fresh := f.PushBlock()
			f.Block(fresh).Terminator = ir.JumpTerm{Target: s}

			rewriteSuccessor(p, si, fresh)

			// s no longer has p as a direct predecessor; fresh does.
			removePred(sBlock, p.ID)
			sBlock.Preds = append(sBlock.Preds, fresh)
			f.Block(fresh).Preds = []ir.BlockID{p.ID}
		}
	}
}

func rewriteSuccessor(b *ir.BasicBlock, successorIndex int, newTarget ir.BlockID) {
	switch t := b.Terminator.(type) {
	case ir.BranchTerm:
		if successorIndex == 0 {
			t.True = newTarget
		} else {
			t.False = newTarget
		}
		b.Terminator = t
	default:
		// A block with <=1 successor never reaches here (callers filter on
		// len(succs) > 1), so only Branch needs a positional rewrite.
	}
}

func removePred(b *ir.BasicBlock, p ir.BlockID) {
	out := b.Preds[:0]
	for _, x := range b.Preds {
		if x != p {
			out = append(out, x)
		}
	}
	b.Preds = out
}
