// Package ssalower eliminates variable load/store operations in favor of
// phi nodes and direct value references (spec §4.3): it places phis at the
// iterated dominance frontier of each variable's assigning blocks, then
// renames every load/store into single-assignment form by walking the
// dominator tree.
package ssalower

import "kanso/internal/ir"

// Lower applies SSA construction to every function in m, in place.
// Precondition: critical-edge splitting has already run (phi placement is
// only sound on a CFG with no critical edges).
func Lower(m *ir.Module) {
	for _, f := range m.Functions {
		lowerFunction(f)
	}
	m.MarkRun(ir.PassSSALowering)
}

const entry ir.BlockID = 0

func lowerFunction(f *ir.Function) {
	if len(f.Blocks) == 0 {
		return
	}
	dom := computeDominance(f)

	phis := placePhis(f, dom)
	rename(f, dom, phis)

	deleteLoadsAndStores(f)
	f.Variables = nil
}

// blockPhi records the phi instruction placed for one variable in one
// block: its yielded value id, and a pointer back into the block's
// instruction slice so renaming can fill its Incoming slots in place.
type blockPhi struct {
	block   ir.BlockID
	yielded ir.ValueID
}

// placePhis computes, for every variable, the iterated dominance frontier
// of its assigning blocks (spec §4.3 step 3) and inserts one phi per
// (variable, block) pair, with one operand slot per predecessor.
func placePhis(f *ir.Function, dom *domInfo) map[ir.VariableID]map[ir.BlockID]blockPhi {
	result := make(map[ir.VariableID]map[ir.BlockID]blockPhi)

	for vid := range f.Variables {
		v := ir.VariableID(vid)
		variable := f.Variables[vid]
		if len(variable.AssigningBlocks) == 0 {
			continue
		}

		hasPhi := make(map[ir.BlockID]bool)
		worklist := make([]ir.BlockID, 0, len(variable.AssigningBlocks))
		for b := range variable.AssigningBlocks {
			worklist = append(worklist, b)
		}

		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, df := range dom.frontier[b] {
				if hasPhi[df] {
					continue
				}
				hasPhi[df] = true

				blk := f.Block(df)
				yielded := f.PushValue(variable.Type, df)
				incoming := make([]ir.ValueID, len(blk.Preds))
				blk.Instructions = append([]ir.Instruction{{
					Yielded:   valueIDPtr(yielded),
					Operation: ir.PhiOp{Incoming: incoming},
				}}, blk.Instructions...)

				if result[v] == nil {
					result[v] = make(map[ir.BlockID]blockPhi)
				}
				result[v][df] = blockPhi{block: df, yielded: yielded}

				worklist = append(worklist, df)
			}
		}
	}

	return result
}

func valueIDPtr(v ir.ValueID) *ir.ValueID { return &v }

// renameState is one variable's stack of reaching definitions.
type renameState struct {
	stacks map[ir.VariableID][]ir.ValueID
}

func (s *renameState) push(v ir.VariableID, val ir.ValueID) {
	s.stacks[v] = append(s.stacks[v], val)
}

func (s *renameState) pop(v ir.VariableID) {
	st := s.stacks[v]
	s.stacks[v] = st[:len(st)-1]
}

func (s *renameState) top(v ir.VariableID) (ir.ValueID, bool) {
	st := s.stacks[v]
	if len(st) == 0 {
		return 0, false
	}
	return st[len(st)-1], true
}

func rename(f *ir.Function, dom *domInfo, phis map[ir.VariableID]map[ir.BlockID]blockPhi) {
	children := dom.children(entry)
	state := &renameState{stacks: make(map[ir.VariableID][]ir.ValueID)}

	var visit func(b ir.BlockID)
	visit = func(b ir.BlockID) {
		pushedVars := renameBlock(f, b, state, phis)

		for _, succ := range ir.Successors(f.Block(b).Terminator) {
			predIndex := indexOf(f.Block(succ).Preds, b)
			if predIndex < 0 {
				continue
			}
			for vid, perBlock := range phis {
				bp, ok := perBlock[succ]
				if !ok {
					continue
				}
				val, ok := state.top(vid)
				if !ok {
					continue
				}
				fillPhiOperand(f, bp, predIndex, val)
			}
		}

		for _, c := range children[b] {
			visit(c)
		}

		for _, vid := range pushedVars {
			state.pop(vid)
		}
	}
	visit(entry)
}

func indexOf(preds []ir.BlockID, b ir.BlockID) int {
	for i, p := range preds {
		if p == b {
			return i
		}
	}
	return -1
}

func fillPhiOperand(f *ir.Function, bp blockPhi, predIndex int, val ir.ValueID) {
	blk := f.Block(bp.block)
	for i := range blk.Instructions {
		instr := &blk.Instructions[i]
		if instr.Yielded == nil || *instr.Yielded != bp.yielded {
			continue
		}
		phi, ok := instr.Operation.(ir.PhiOp)
		if !ok {
			continue
		}
		phi.Incoming[predIndex] = val
		instr.Operation = phi
		return
	}
}

// renameBlock renames this block's own loads and stores in place and
// returns the list of variables whose stack this block pushed onto, so
// the caller can pop exactly that many entries once the block's entire
// dominator subtree has been visited.
func renameBlock(f *ir.Function, b ir.BlockID, state *renameState, phis map[ir.VariableID]map[ir.BlockID]blockPhi) []ir.VariableID {
	var pushed []ir.VariableID

	for vid, perBlock := range phis {
		if bp, ok := perBlock[b]; ok {
			state.push(vid, bp.yielded)
			pushed = append(pushed, vid)
		}
	}

	blk := f.Block(b)
	for i := range blk.Instructions {
		instr := &blk.Instructions[i]
		switch op := instr.Operation.(type) {
		case ir.LoadVarOp:
			if val, ok := state.top(op.Var); ok {
				f.ReplaceValue(*instr.Yielded, val)
			} else {
				// No reaching definition on this path: deterministically
				// fill with the variable's type's zero literal instead of
				// failing (spec §4.3, §9).
				instr.Operation = ir.IntegerOp{Value: 0}
				state.push(op.Var, *instr.Yielded)
				pushed = append(pushed, op.Var)
			}
		case ir.StoreVarOp:
			state.push(op.Var, op.Value)
			pushed = append(pushed, op.Var)
		}
	}

	return pushed
}

// deleteLoadsAndStores removes every LoadVarOp/StoreVarOp left after
// renaming. A load survives renaming only if it was turned into a zero
// literal above (and so is no longer a LoadVarOp); every remaining
// LoadVarOp had its value replaced and is now dead, exactly like every
// StoreVarOp.
func deleteLoadsAndStores(f *ir.Function) {
	for _, b := range f.Blocks {
		kept := b.Instructions[:0]
		for _, instr := range b.Instructions {
			switch instr.Operation.(type) {
			case ir.LoadVarOp, ir.StoreVarOp:
				continue
			}
			kept = append(kept, instr)
		}
		b.Instructions = kept
	}
}
