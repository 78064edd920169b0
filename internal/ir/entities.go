package ir

import "fmt"

// ParMove is a single pending parallel copy introduced during phi removal:
// Dst and Src are both values owned by the function; the copy is meant to
// execute as-if-simultaneously with every other ParMove on the same block.
type ParMove struct {
	Dst ValueID
	Src ValueID
}

// Value is an entry in a Function's dense value table: its type, the block
// that owns (defines) it, and the values derived from it, kept so rewrites
// (e.g. SSA renaming, phi removal) can repoint every reference in one pass.
type Value struct {
	Type     Type
	Owner    BlockID
	Children []ValueID
}

// Variable is a named, typed mutable cell used by pre-SSA code. Builder
// populates AssigningBlocks as a precondition for phi placement.
type Variable struct {
	Name            string
	Type            Type
	AssigningBlocks map[BlockID]bool
}

// Param is a function parameter: a name plus type. Parameters occupy the
// first N entries of the function's value table.
type Param struct {
	Name string
	Type Type
}

// BasicBlock owns an ordered instruction list, a terminator, an ordered
// predecessor list, and the parallel copies phi removal places on it.
type BasicBlock struct {
	ID           BlockID
	Instructions []Instruction
	Terminator   Terminator
	Preds        []BlockID
	ParMoves     []ParMove
}

func (b *BasicBlock) String() string {
	preds := ""
	for i, p := range b.Preds {
		if i > 0 {
			preds += ", "
		}
		preds += p.String()
	}
	s := fmt.Sprintf("%s: ; preds = %s\n", b.ID, preds)
	for _, instr := range b.Instructions {
		s += "    " + instr.String() + "\n"
	}
	if len(b.ParMoves) > 0 {
		dsts, srcs := "", ""
		for i, m := range b.ParMoves {
			if i > 0 {
				dsts += ", "
				srcs += ", "
			}
			dsts += m.Dst.String()
			srcs += m.Src.String()
		}
		s += fmt.Sprintf("    [%s] <- [%s]\n", dsts, srcs)
	}
	term := "noterm"
	if b.Terminator != nil {
		term = b.Terminator.String()
	}
	s += "    " + term + "\n"
	return s
}

// Function owns a function's return type, parameters, blocks, and its flat
// value/variable tables. Param value ids occupy indices [0, len(Params)).
type Function struct {
	ID        FunctionID
	Name      string
	ReturnType Type
	Params    []Param
	Linkage   Linkage
	Blocks    []*BasicBlock
	Values    []Value
	Variables []Variable
}

// NewFunction creates a function with its parameter values pre-populated
// in the value table (they occupy indices [0, len(params))).
func NewFunction(id FunctionID, name string, ret Type, params []Param, linkage Linkage) (*Function, []ValueID) {
	f := &Function{
		ID:         id,
		Name:       name,
		ReturnType: ret,
		Params:     params,
		Linkage:    linkage,
	}
	ids := make([]ValueID, len(params))
	for i, p := range params {
		ids[i] = f.pushValueOwnedBy(p.Type, BlockID(0))
	}
	return f, ids
}

func (f *Function) pushValueOwnedBy(t Type, owner BlockID) ValueID {
	id := ValueID(len(f.Values))
	f.Values = append(f.Values, Value{Type: t, Owner: owner})
	return id
}

// PushValue appends a fresh value to the function's value table, owned by
// the given block, and returns its id. Used by passes that synthesize new
// values (SSA renaming's zero-fill, phi removal's scratch values).
func (f *Function) PushValue(t Type, owner BlockID) ValueID {
	return f.pushValueOwnedBy(t, owner)
}

// PushBlock appends a new, empty block and returns its id.
func (f *Function) PushBlock() BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, &BasicBlock{ID: id, Terminator: NoTerm{}})
	return id
}

// Block returns the block with the given id.
func (f *Function) Block(id BlockID) *BasicBlock {
	return f.Blocks[id]
}

// DeclareVariable appends a new variable and returns its id.
func (f *Function) DeclareVariable(name string, t Type) VariableID {
	id := VariableID(len(f.Variables))
	f.Variables = append(f.Variables, Variable{Name: name, Type: t, AssigningBlocks: map[BlockID]bool{}})
	return id
}

// ReplaceValue repoints every use of `original` at `replacement` across
// every instruction and terminator in the function, and merges
// `original`'s children list into `replacement`'s. This is the rewrite
// primitive SSA renaming and phi removal both need when a use must be
// redirected to a different definition; ported from the original source's
// Function::replace_children_with.
func (f *Function) ReplaceValue(original, replacement ValueID) {
	for _, b := range f.Blocks {
		for i := range b.Instructions {
			instr := &b.Instructions[i]
			switch op := instr.Operation.(type) {
			case BinOpOp:
				if op.Lhs == original {
					op.Lhs = replacement
				}
				if op.Rhs == original {
					op.Rhs = replacement
				}
				instr.Operation = op
			case CallOp:
				for j, a := range op.Args {
					if a == original {
						op.Args[j] = replacement
					}
				}
				instr.Operation = op
			case StoreVarOp:
				if op.Value == original {
					op.Value = replacement
				}
				instr.Operation = op
			case PhiOp:
				for j, v := range op.Incoming {
					if v == original {
						op.Incoming[j] = replacement
					}
				}
				instr.Operation = op
			}
		}
		switch t := b.Terminator.(type) {
		case ReturnTerm:
			if t.Value == original {
				t.Value = replacement
				b.Terminator = t
			}
		case BranchTerm:
			if t.Cond == original {
				t.Cond = replacement
				b.Terminator = t
			}
		}
	}
	children := f.Values[original].Children
	f.Values[replacement].Children = append(f.Values[replacement].Children, children...)
	f.Values[original].Children = nil
}

func (f *Function) String() string {
	args := ""
	for i, p := range f.Params {
		if i > 0 {
			args += ", "
		}
		args += fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	s := fmt.Sprintf("$%d: %s fn %s(%s) %s {\n", int(f.ID), f.Linkage, f.Name, args, f.ReturnType)
	for _, b := range f.Blocks {
		s += b.String()
	}
	s += "}"
	return s
}
