package irtext

import (
	"fmt"
	"strings"

	"kanso/internal/ir"
)

var passText = map[ir.PassKind]string{
	ir.PassCriticalEdgeSplitting: "@edges_split",
	ir.PassSSALowering:           "@ssa",
	ir.PassPhiRemoval:            "@phis_removed",
}

// Print renders m in the format Parse accepts. Every value carries its
// type explicitly (unlike ir.Value's own debug Stringer methods, which
// omit it), so Parse(Print(m)) reconstructs m exactly: this is what backs
// the pretty-print/parse/pretty-print round-trip law.
func Print(m *ir.Module) string {
	var b strings.Builder
	b.WriteString("module " + m.Name + "\n")
	if len(m.PassesRun) > 0 {
		b.WriteString("passes")
		for _, p := range m.PassesRun {
			b.WriteString(" " + passText[p])
		}
		b.WriteString("\n")
	}
	for _, f := range m.Functions {
		b.WriteString("\n")
		printFunction(&b, f)
	}
	return b.String()
}

func printFunction(b *strings.Builder, f *ir.Function) {
	fmt.Fprintf(b, "$%d: %s fn %s(", int(f.ID), f.Linkage, f.Name)
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%s: %s", p.Name, p.Type)
	}
	fmt.Fprintf(b, ") %s {\n", f.ReturnType)

	if len(f.Variables) > 0 {
		b.WriteString("vars ")
		for i := range f.Variables {
			v := &f.Variables[i]
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "#%d: %s %s", i, v.Type, v.Name)
		}
		b.WriteString("\n")
	}

	for _, block := range f.Blocks {
		printBlock(b, f, block)
	}
	b.WriteString("}\n")
}

func printBlock(b *strings.Builder, f *ir.Function, block *ir.BasicBlock) {
	fmt.Fprintf(b, "%s: preds", block.ID)
	for i, p := range block.Preds {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" " + p.String())
	}
	b.WriteString("\n")

	for _, instr := range block.Instructions {
		b.WriteString("    ")
		if instr.Yielded != nil {
			fmt.Fprintf(b, "%s: %s = ", *instr.Yielded, f.Values[*instr.Yielded].Type)
		}
		b.WriteString(printOperation(instr.Operation))
		b.WriteString("\n")
	}

	if len(block.ParMoves) > 0 {
		dsts := make([]string, len(block.ParMoves))
		srcs := make([]string, len(block.ParMoves))
		for i, mv := range block.ParMoves {
			dsts[i] = mv.Dst.String()
			srcs[i] = mv.Src.String()
		}
		fmt.Fprintf(b, "    [%s] <- [%s]\n", strings.Join(dsts, ", "), strings.Join(srcs, ", "))
	}

	term := "noterm"
	if block.Terminator != nil {
		term = printTerminator(block.Terminator)
	}
	b.WriteString("    " + term + "\n")
}

func printOperation(op ir.Operation) string {
	switch o := op.(type) {
	case ir.IntegerOp:
		return fmt.Sprintf("%d", o.Value)
	case ir.BinOpOp:
		return fmt.Sprintf("%s %s %s", o.Op, o.Lhs, o.Rhs)
	case ir.CallOp:
		args := make([]string, len(o.Args))
		for i, a := range o.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("call $%d(%s)", int(o.Callee), strings.Join(args, ", "))
	case ir.LoadVarOp:
		return fmt.Sprintf("load %s", o.Var)
	case ir.StoreVarOp:
		return fmt.Sprintf("store %s %s", o.Var, o.Value)
	case ir.PhiOp:
		vals := make([]string, len(o.Incoming))
		for i, v := range o.Incoming {
			vals[i] = v.String()
		}
		return fmt.Sprintf("Φ %s", strings.Join(vals, ", "))
	default:
		return op.String()
	}
}

func printTerminator(t ir.Terminator) string {
	switch v := t.(type) {
	case ir.ReturnTerm:
		return fmt.Sprintf("ret %s", v.Value)
	case ir.JumpTerm:
		return fmt.Sprintf("jmp %s", v.Target)
	case ir.BranchTerm:
		return fmt.Sprintf("br %s, %s, %s", v.Cond, v.True, v.False)
	case ir.NoTerm:
		return "noterm"
	default:
		return t.String()
	}
}
