package ir

import (
	"fmt"
	"strings"
)

// Operation is the payload of an Instruction. It is a closed set of
// variants (integer literal, binary op, call, variable load/store, phi);
// Go has no sum type, so the variants are modeled as an interface with a
// sealed marker, the same pattern internal/ir.Type uses.
type Operation interface {
	String() string
	operationSealed()
}

// IntegerOp yields a known i64 literal.
type IntegerOp struct {
	Value int64
}

func (o IntegerOp) String() string { return fmt.Sprintf("%d", o.Value) }
func (IntegerOp) operationSealed() {}

// BinOpOp yields the result of applying Op to two value ids.
type BinOpOp struct {
	Op   BinOp
	Lhs  ValueID
	Rhs  ValueID
}

func (o BinOpOp) String() string { return fmt.Sprintf("%s %s %s", o.Op, o.Lhs, o.Rhs) }
func (BinOpOp) operationSealed() {}

// CallOp invokes a callee with the given argument value ids.
type CallOp struct {
	Callee FunctionID
	Args   []ValueID
}

func (o CallOp) String() string {
	args := make([]string, len(o.Args))
	for i, a := range o.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("call $%d(%s)", int(o.Callee), strings.Join(args, ", "))
}
func (CallOp) operationSealed() {}

// LoadVarOp reads the current value of a variable cell. Only present
// before SSA lowering; the SSA pass deletes every LoadVarOp.
type LoadVarOp struct {
	Var VariableID
}

func (o LoadVarOp) String() string { return fmt.Sprintf("load %s", o.Var) }
func (LoadVarOp) operationSealed() {}

// StoreVarOp writes a value into a variable cell. Only present before SSA
// lowering; the SSA pass deletes every StoreVarOp.
type StoreVarOp struct {
	Var   VariableID
	Value ValueID
}

func (o StoreVarOp) String() string { return fmt.Sprintf("store %s %s", o.Var, o.Value) }
func (StoreVarOp) operationSealed() {}

// PhiOp yields one of several incoming values, positionally aligned with
// the owning block's predecessor list.
type PhiOp struct {
	Incoming []ValueID
}

func (o PhiOp) String() string {
	vals := make([]string, len(o.Incoming))
	for i, v := range o.Incoming {
		vals[i] = v.String()
	}
	return fmt.Sprintf("Φ %s", strings.Join(vals, ", "))
}
func (PhiOp) operationSealed() {}

// Instruction pairs an optional yielded value id with an Operation. A nil
// Yielded means the instruction has no result (e.g. a store).
type Instruction struct {
	Yielded   *ValueID
	Operation Operation
}

func (i Instruction) String() string {
	if i.Yielded != nil {
		return fmt.Sprintf("%s = %s", *i.Yielded, i.Operation)
	}
	return i.Operation.String()
}

// IsMove reports whether this instruction is the parallel-move placeholder
// phi removal emits: a BinOp And of a value with itself. See BinOpMove.
func (i Instruction) IsMove() (dst, src ValueID, ok bool) {
	if i.Yielded == nil {
		return 0, 0, false
	}
	b, ok := i.Operation.(BinOpOp)
	if !ok || b.Op != BinOpAnd || b.Lhs != b.Rhs {
		return 0, 0, false
	}
	return *i.Yielded, b.Lhs, true
}
