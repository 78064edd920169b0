// Package opt holds the module's local optimization passes (spec §4.8).
package opt

import "kanso/internal/ir"

// FoldConstants runs a single-pass, per-function constant fold: integer
// literals are recorded, binary ops whose operands are both known
// constants are evaluated and rewritten to a literal, and any other
// operation clears recorded knowledge for its own destination. It does
// not assume SSA form, so it is safe to run before or after SSA lowering.
func FoldConstants(m *ir.Module) {
	for _, f := range m.Functions {
		foldFunction(f)
	}
}

func foldFunction(f *ir.Function) {
	known := make(map[ir.ValueID]int64)

	for _, b := range f.Blocks {
		for i := range b.Instructions {
			instr := &b.Instructions[i]
			switch op := instr.Operation.(type) {
			case ir.IntegerOp:
				if instr.Yielded != nil {
					known[*instr.Yielded] = op.Value
				}
			case ir.BinOpOp:
				av, aok := known[op.Lhs]
				bv, bok := known[op.Rhs]
				if !aok || !bok {
					if instr.Yielded != nil {
						delete(known, *instr.Yielded)
					}
					continue
				}
				result, ok := op.Op.Operate(av, bv)
				if !ok {
					if instr.Yielded != nil {
						delete(known, *instr.Yielded)
					}
					continue
				}
				known[*instr.Yielded] = result
				instr.Operation = ir.IntegerOp{Value: result}
			default:
				if instr.Yielded != nil {
					delete(known, *instr.Yielded)
				}
			}
		}
	}
}
