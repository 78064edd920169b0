package irtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"kanso/internal/ir"
)

var passNames = map[string]ir.PassKind{
	"@edges_split":  ir.PassCriticalEdgeSplitting,
	"@ssa":          ir.PassSSALowering,
	"@phis_removed": ir.PassPhiRemoval,
}

// Parse parses src (in the format Print produces) into a Module. name is
// used only for diagnostic positions.
func Parse(name, src string) (*ir.Module, error) {
	parser, err := participle.Build[ModuleAST](
		participle.Lexer(IRLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build irtext parser: %w", err)
	}

	ast, err := parser.ParseString(name, src)
	if err != nil {
		reportParseError(src, err)
		return nil, err
	}

	return astToModule(ast)
}

func astToModule(ast *ModuleAST) (*ir.Module, error) {
	m := ir.NewModule(ast.Name)
	for _, p := range ast.Passes {
		kind, ok := passNames[p]
		if !ok {
			return nil, fmt.Errorf("unknown pass marker %q", p)
		}
		m.MarkRun(kind)
	}

	for _, fa := range ast.Functions {
		f, err := astToFunction(fa)
		if err != nil {
			return nil, err
		}
		f.ID = ir.FunctionID(len(m.Functions))
		m.Functions = append(m.Functions, f)
	}
	return m, nil
}

func astToFunction(fa *FunctionAST) (*ir.Function, error) {
	linkage, err := parseLinkage(fa.Linkage)
	if err != nil {
		return nil, err
	}

	params := make([]ir.Param, len(fa.Params))
	for i, p := range fa.Params {
		params[i] = ir.Param{Name: p.Name, Type: toType(p.Type)}
	}

	f := &ir.Function{
		Name:       fa.Name,
		ReturnType: toType(fa.Return),
		Params:     params,
		Linkage:    linkage,
	}

	for i := range params {
		f.Values = append(f.Values, ir.Value{Type: params[i].Type, Owner: ir.BlockID(0)})
	}

	for _, vd := range fa.Body.Vars {
		id, err := parseVarRef(vd.ID)
		if err != nil {
			return nil, err
		}
		growVariables(f, id)
		f.Variables[id] = ir.Variable{Name: vd.Name, Type: toType(vd.Type), AssigningBlocks: map[ir.BlockID]bool{}}
	}

	maxValue := -1
	for _, ba := range fa.Body.Blocks {
		for _, ia := range ba.Instructions {
			if ia.Yielded != nil {
				id, err := parseValueRef(ia.Yielded.ID)
				if err != nil {
					return nil, err
				}
				if int(id) > maxValue {
					maxValue = int(id)
				}
			}
		}
	}
	if maxValue+1 > len(f.Values) {
		grown := make([]ir.Value, maxValue+1)
		copy(grown, f.Values)
		f.Values = grown
	}

	for bi, ba := range fa.Body.Blocks {
		blockID, err := parseBlockRef(ba.ID)
		if err != nil {
			return nil, err
		}
		if int(blockID) != bi {
			return nil, fmt.Errorf("block %s is not in positional order (expected $%d)", ba.ID, bi)
		}
		block := &ir.BasicBlock{ID: blockID}

		for _, p := range ba.Preds {
			pid, err := parseBlockRef(p)
			if err != nil {
				return nil, err
			}
			block.Preds = append(block.Preds, pid)
		}

		for _, ia := range ba.Instructions {
			instr, err := astToInstruction(f, blockID, ia)
			if err != nil {
				return nil, err
			}
			block.Instructions = append(block.Instructions, instr)
		}

		if ba.ParMove != nil {
			for i := range ba.ParMove.Dsts {
				dst, err := parseValueRef(ba.ParMove.Dsts[i])
				if err != nil {
					return nil, err
				}
				src, err := parseValueRef(ba.ParMove.Srcs[i])
				if err != nil {
					return nil, err
				}
				block.ParMoves = append(block.ParMoves, ir.ParMove{Dst: dst, Src: src})
			}
		}

		term, err := astToTerminator(ba.Terminator)
		if err != nil {
			return nil, err
		}
		block.Terminator = term

		f.Blocks = append(f.Blocks, block)
	}

	return f, nil
}

func astToInstruction(f *ir.Function, owner ir.BlockID, ia *InstructionAST) (ir.Instruction, error) {
	var yielded *ir.ValueID
	if ia.Yielded != nil {
		id, err := parseValueRef(ia.Yielded.ID)
		if err != nil {
			return ir.Instruction{}, err
		}
		f.Values[id] = ir.Value{Type: toType(&ia.Yielded.Type), Owner: owner}
		yielded = &id
	}

	op, err := astToOperation(ia.Op)
	if err != nil {
		return ir.Instruction{}, err
	}
	return ir.Instruction{Yielded: yielded, Operation: op}, nil
}

func astToOperation(op OperationAST) (ir.Operation, error) {
	switch {
	case op.Integer != nil:
		v, err := strconv.ParseInt(*op.Integer, 10, 64)
		if err != nil {
			return nil, err
		}
		return ir.IntegerOp{Value: v}, nil
	case op.BinOp != nil:
		binOp, err := parseBinOp(op.BinOp.Op)
		if err != nil {
			return nil, err
		}
		lhs, err := parseValueRef(op.BinOp.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := parseValueRef(op.BinOp.Rhs)
		if err != nil {
			return nil, err
		}
		return ir.BinOpOp{Op: binOp, Lhs: lhs, Rhs: rhs}, nil
	case op.Call != nil:
		callee, err := parseBlockRef(op.Call.Callee)
		if err != nil {
			return nil, err
		}
		args := make([]ir.ValueID, len(op.Call.Args))
		for i, a := range op.Call.Args {
			v, err := parseValueRef(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return ir.CallOp{Callee: ir.FunctionID(callee), Args: args}, nil
	case op.Load != nil:
		v, err := parseVarRef(op.Load.Var)
		if err != nil {
			return nil, err
		}
		return ir.LoadVarOp{Var: v}, nil
	case op.Store != nil:
		v, err := parseVarRef(op.Store.Var)
		if err != nil {
			return nil, err
		}
		val, err := parseValueRef(op.Store.Value)
		if err != nil {
			return nil, err
		}
		return ir.StoreVarOp{Var: v, Value: val}, nil
	case op.Phi != nil:
		incoming := make([]ir.ValueID, len(op.Phi.Incoming))
		for i, v := range op.Phi.Incoming {
			id, err := parseValueRef(v)
			if err != nil {
				return nil, err
			}
			incoming[i] = id
		}
		return ir.PhiOp{Incoming: incoming}, nil
	default:
		return nil, fmt.Errorf("empty operation")
	}
}

func astToTerminator(ta *TerminatorAST) (ir.Terminator, error) {
	switch {
	case ta.Ret != nil:
		v, err := parseValueRef(*ta.Ret)
		if err != nil {
			return nil, err
		}
		return ir.ReturnTerm{Value: v}, nil
	case ta.Jmp != nil:
		b, err := parseBlockRef(*ta.Jmp)
		if err != nil {
			return nil, err
		}
		return ir.JumpTerm{Target: b}, nil
	case ta.Br != nil:
		cond, err := parseValueRef(ta.Br.Cond)
		if err != nil {
			return nil, err
		}
		trueB, err := parseBlockRef(ta.Br.True)
		if err != nil {
			return nil, err
		}
		falseB, err := parseBlockRef(ta.Br.False)
		if err != nil {
			return nil, err
		}
		return ir.BranchTerm{Cond: cond, True: trueB, False: falseB}, nil
	case ta.NoTerm:
		return ir.NoTerm{}, nil
	default:
		return nil, fmt.Errorf("empty terminator")
	}
}

func growVariables(f *ir.Function, id ir.VariableID) {
	if int(id)+1 > len(f.Variables) {
		grown := make([]ir.Variable, int(id)+1)
		copy(grown, f.Variables)
		f.Variables = grown
	}
}

func parseLinkage(s string) (ir.Linkage, error) {
	switch s {
	case "public":
		return ir.Public, nil
	case "private":
		return ir.Private, nil
	case "external":
		return ir.External, nil
	default:
		return 0, fmt.Errorf("unknown linkage %q", s)
	}
}

func parseBinOp(s string) (ir.BinOp, error) {
	for i, name := range binOpTextNames {
		if name == s {
			return ir.BinOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown binop %q", s)
}

var binOpTextNames = [...]string{
	"add", "sub", "mul", "div", "mod", "and", "or", "xor",
	"shl", "shr", "eq", "ne", "lt", "le", "gt", "ge",
}

func toType(t *TypeAST) ir.Type {
	var base ir.Type
	switch {
	case t.Name == "void":
		base = ir.VoidType{}
	case len(t.Name) >= 2 && (t.Name[0] == 'u' || t.Name[0] == 's'):
		width, err := strconv.Atoi(t.Name[1:])
		if err != nil {
			base = ir.VoidType{}
			break
		}
		base = ir.IntegerType{Width: width, Signed: t.Name[0] == 's'}
	default:
		base = ir.VoidType{}
	}
	for range t.Stars {
		base = ir.PointerType{Inner: base}
	}
	return base
}

func parseValueRef(s string) (ir.ValueID, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "%"))
	return ir.ValueID(n), err
}

func parseBlockRef(s string) (ir.BlockID, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "$"))
	return ir.BlockID(n), err
}

func parseVarRef(s string) (ir.VariableID, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	return ir.VariableID(n), err
}

// reportParseError prints a friendly caret-style parse error message, same
// shape as grammar.reportParseError.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("Unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("Syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("❌ Syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}
