// Package builder offers the imperative, cursor-based API used to
// construct an ir.Module: create functions and blocks, declare variables,
// emit value-producing operations, and set terminators. It does not
// validate SSA — the output is straight-line imperative IR using
// variable-cell load/store, exactly as spec'd for the pre-SSA builder.
package builder

import "kanso/internal/ir"

// ModuleBuilder maintains insertion cursors (current function, current
// block) over the module it is building.
type ModuleBuilder struct {
	module       *ir.Module
	currentFunc  *ir.Function
	currentBlock ir.BlockID
}

// New creates a builder for a fresh, empty module.
func New(name string) *ModuleBuilder {
	return &ModuleBuilder{module: ir.NewModule(name)}
}

// Build returns the module under construction.
func (b *ModuleBuilder) Build() *ir.Module {
	return b.module
}

// AddFunction creates a new function in the module and switches the
// builder's function cursor to it. It returns the function and the value
// ids of its parameters.
func (b *ModuleBuilder) AddFunction(name string, ret ir.Type, params []ir.Param, linkage ir.Linkage) (*ir.Function, []ir.ValueID) {
	f, paramIDs := b.module.AddFunction(name, ret, params, linkage)
	b.currentFunc = f
	return f, paramIDs
}

// SwitchToFunction moves the function cursor to f.
func (b *ModuleBuilder) SwitchToFunction(f *ir.Function) {
	b.currentFunc = f
}

// AddBlock appends a block to the current function and switches the block
// cursor to it.
func (b *ModuleBuilder) AddBlock() ir.BlockID {
	id := b.currentFunc.PushBlock()
	b.currentBlock = id
	return id
}

// SwitchToBlock moves the block cursor to id.
func (b *ModuleBuilder) SwitchToBlock(id ir.BlockID) {
	b.currentBlock = id
}

// DeclareVariable declares a new mutable cell in the current function.
func (b *ModuleBuilder) DeclareVariable(name string, t ir.Type) ir.VariableID {
	return b.currentFunc.DeclareVariable(name, t)
}

func (b *ModuleBuilder) block() *ir.BasicBlock {
	return b.currentFunc.Block(b.currentBlock)
}

func (b *ModuleBuilder) emit(t ir.Type, op ir.Operation) ir.ValueID {
	id := b.currentFunc.PushValue(t, b.currentBlock)
	blk := b.block()
	blk.Instructions = append(blk.Instructions, ir.Instruction{Yielded: &id, Operation: op})
	return id
}

// BuildInteger emits an integer literal of the given type.
func (b *ModuleBuilder) BuildInteger(value int64, t ir.Type) ir.ValueID {
	return b.emit(t, ir.IntegerOp{Value: value})
}

// BuildBinOp emits a binary operation over two values.
func (b *ModuleBuilder) BuildBinOp(op ir.BinOp, lhs, rhs ir.ValueID, t ir.Type) ir.ValueID {
	return b.emit(t, ir.BinOpOp{Op: op, Lhs: lhs, Rhs: rhs})
}

// BuildCall emits a call to callee with the given argument values.
func (b *ModuleBuilder) BuildCall(callee ir.FunctionID, args []ir.ValueID, t ir.Type) ir.ValueID {
	return b.emit(t, ir.CallOp{Callee: callee, Args: args})
}

// BuildLoad emits a load from a variable cell.
func (b *ModuleBuilder) BuildLoad(v ir.VariableID) ir.ValueID {
	return b.emit(b.currentFunc.Variables[v].Type, ir.LoadVarOp{Var: v})
}

// BuildStore writes value into variable v. The owning block is recorded as
// one of v's assigning blocks — a precondition for phi placement.
func (b *ModuleBuilder) BuildStore(v ir.VariableID, value ir.ValueID) {
	blk := b.block()
	blk.Instructions = append(blk.Instructions, ir.Instruction{Operation: ir.StoreVarOp{Var: v, Value: value}})
	b.currentFunc.Variables[v].AssigningBlocks[b.currentBlock] = true
}

// SetTerminator sets the current block's terminator. Setting a terminator
// on a block that already has one is allowed; last-writer-wins is the
// documented semantics (spec §7).
func (b *ModuleBuilder) SetTerminator(t ir.Terminator) {
	b.block().Terminator = t
}
