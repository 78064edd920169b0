// Package vcode holds the target-agnostic virtual-code representation
// (spec §4.6): functions made of block instruction streams plus optional
// prologue/epilogue streams, built by a generic VCodeGenerator that any
// target's InstrSelector can drive.
package vcode

import (
	"fmt"

	"kanso/internal/ir"
	"kanso/internal/regalloc"
)

// VCodeInstr is the contract every target instruction type must satisfy
// so the generator, register allocator and printer can operate on it
// without knowing its concrete shape.
type VCodeInstr interface {
	fmt.Stringer
	CollectRegisters(collect regalloc.Regalloc)
	ApplyAllocs(allocs map[regalloc.VReg]regalloc.VReg)
}

// InstrSelector is implemented once per target. It translates one IR
// instruction or terminator at a time into target instructions pushed
// through the generator, and emits frame setup/teardown.
type InstrSelector[I VCodeInstr] interface {
	Select(gen *VCodeGenerator[I], instr *ir.Instruction, fn *ir.Function)
	SelectTerminator(gen *VCodeGenerator[I], term ir.Terminator, fn *ir.Function)
	SelectPrologue(gen *VCodeGenerator[I], fn *ir.Function)
	SelectEpilogue(gen *VCodeGenerator[I], fn *ir.Function)
}

// LabelDest names a jump or call target in VCode: either a block within
// the current function, another function, or the prologue/epilogue
// pseudo-blocks.
type LabelDest struct {
	kind labelKind
	id   int
}

type labelKind int

const (
	labelBlock labelKind = iota
	labelFunction
	labelPrologue
	labelEpilogue
)

func BlockDest(id int) LabelDest    { return LabelDest{kind: labelBlock, id: id} }
func FunctionDest(id int) LabelDest { return LabelDest{kind: labelFunction, id: id} }
func PrologueDest() LabelDest       { return LabelDest{kind: labelPrologue} }
func EpilogueDest() LabelDest       { return LabelDest{kind: labelEpilogue} }

// String renders the label the way it appears in textual VCode; callers
// that need the function's real name for a FunctionDest should use
// ResolveLabel instead.
func (l LabelDest) String() string {
	switch l.kind {
	case labelBlock:
		return fmt.Sprintf(".L%d", l.id)
	case labelFunction:
		return fmt.Sprintf(".fn_%d", l.id)
	case labelPrologue:
		return ".prologue"
	case labelEpilogue:
		return ".epilogue"
	default:
		return "?"
	}
}

// ResolveLabel renders l against vc, substituting the target function's
// real name for a FunctionDest (spec §6's assembly text format names
// functions by their function name, not a synthetic label).
func ResolveLabel[I VCodeInstr](l LabelDest, vc *VCode[I]) string {
	if l.kind == labelFunction {
		return vc.Functions[l.id].Name
	}
	return l.String()
}

// LabelledInstructions is one block's (or one prologue/epilogue's)
// straight-line instruction stream.
type LabelledInstructions[I VCodeInstr] struct {
	Instrs []I
}

// VCodeFunction is one function lowered to target instructions: a
// prologue stream, one stream per IR block, and an epilogue stream.
type VCodeFunction[I VCodeInstr] struct {
	Name     string
	Linkage  ir.Linkage
	ArgCount int
	Blocks   []LabelledInstructions[I]
	Prologue LabelledInstructions[I]
	Epilogue LabelledInstructions[I]
}

// VCode is a whole module lowered to target instructions.
type VCode[I VCodeInstr] struct {
	Functions []VCodeFunction[I]
}

type cursor int

const (
	cursorNone cursor = iota
	cursorBody
	cursorPrologue
	cursorEpilogue
)

// VCodeGenerator is the target-agnostic builder a selector drives: it
// owns insertion cursors (current function, current block/prologue/
// epilogue) and the virtual register counter.
type VCodeGenerator[I VCodeInstr] struct {
	vcode        VCode[I]
	currentFunc  int
	currentBlock int
	cursor       cursor
	vregCount    int
}

func NewGenerator[I VCodeInstr]() *VCodeGenerator[I] {
	return &VCodeGenerator[I]{currentFunc: -1}
}

// PushVReg allocates a fresh virtual register.
func (g *VCodeGenerator[I]) PushVReg() regalloc.VReg {
	v := regalloc.VirtualReg(g.vregCount)
	g.vregCount++
	return v
}

// PushFunction creates a new VCode function and switches the function
// cursor to it.
func (g *VCodeGenerator[I]) PushFunction(name string, linkage ir.Linkage, argCount int) int {
	g.vcode.Functions = append(g.vcode.Functions, VCodeFunction[I]{Name: name, Linkage: linkage, ArgCount: argCount})
	g.currentFunc = len(g.vcode.Functions) - 1
	return g.currentFunc
}

// SwitchToFunc moves the function cursor to id.
func (g *VCodeGenerator[I]) SwitchToFunc(id int) { g.currentFunc = id }

// PushBlock appends a new, empty block to the current function and
// switches the block cursor to it.
func (g *VCodeGenerator[I]) PushBlock() int {
	fn := &g.vcode.Functions[g.currentFunc]
	fn.Blocks = append(fn.Blocks, LabelledInstructions[I]{})
	g.currentBlock = len(fn.Blocks) - 1
	g.cursor = cursorBody
	return g.currentBlock
}

// SwitchToBlock moves the block cursor to id.
func (g *VCodeGenerator[I]) SwitchToBlock(id int) {
	g.currentBlock = id
	g.cursor = cursorBody
}

// Prologue moves the insertion cursor to the current function's prologue
// stream.
func (g *VCodeGenerator[I]) Prologue() { g.cursor = cursorPrologue }

// Epilogue moves the insertion cursor to the current function's epilogue
// stream.
func (g *VCodeGenerator[I]) Epilogue() { g.cursor = cursorEpilogue }

// PushInstr appends instr at the current insertion point.
func (g *VCodeGenerator[I]) PushInstr(instr I) {
	fn := &g.vcode.Functions[g.currentFunc]
	switch g.cursor {
	case cursorBody:
		fn.Blocks[g.currentBlock].Instrs = append(fn.Blocks[g.currentBlock].Instrs, instr)
	case cursorPrologue:
		fn.Prologue.Instrs = append(fn.Prologue.Instrs, instr)
	case cursorEpilogue:
		fn.Epilogue.Instrs = append(fn.Epilogue.Instrs, instr)
	}
}

// Build returns the VCode under construction.
func (g *VCodeGenerator[I]) Build() VCode[I] { return g.vcode }

// Lower drives selector over every function and block of m, implementing
// the IR -> VCode algorithm of spec §4.6.
func Lower[I VCodeInstr](m *ir.Module, selector InstrSelector[I]) VCode[I] {
	gen := NewGenerator[I]()

	for _, f := range m.Functions {
		gen.PushFunction(f.Name, f.Linkage, len(f.Params))

		gen.Prologue()
		selector.SelectPrologue(gen, f)

		for _, b := range f.Blocks {
			gen.PushBlock()
			for i := range b.Instructions {
				selector.Select(gen, &b.Instructions[i], f)
			}
			selector.SelectTerminator(gen, b.Terminator, f)
		}

		gen.Epilogue()
		selector.SelectEpilogue(gen, f)
	}

	return gen.Build()
}
