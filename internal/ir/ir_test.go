package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModulePassLog(t *testing.T) {
	m := NewModule("test")
	assert.False(t, m.HasRun(PassCriticalEdgeSplitting))

	m.MarkRun(PassCriticalEdgeSplitting)
	assert.True(t, m.HasRun(PassCriticalEdgeSplitting))
	assert.False(t, m.HasRun(PassPhiRemoval))
}

func TestFunctionParamsOccupyLeadingValueSlots(t *testing.T) {
	f, ids := NewFunction(0, "main", VoidType{}, []Param{
		{Name: "a", Type: IntegerType{Width: 32, Signed: false}},
		{Name: "b", Type: IntegerType{Width: 32, Signed: false}},
	}, Public)

	require.Len(t, ids, 2)
	assert.Equal(t, ValueID(0), ids[0])
	assert.Equal(t, ValueID(1), ids[1])
	assert.Len(t, f.Values, 2)
}

func TestPushValueAndBlockAreDense(t *testing.T) {
	f, _ := NewFunction(0, "f", VoidType{}, nil, Private)
	b0 := f.PushBlock()
	b1 := f.PushBlock()
	assert.Equal(t, BlockID(0), b0)
	assert.Equal(t, BlockID(1), b1)

	v0 := f.PushValue(IntegerType{Width: 64, Signed: true}, b0)
	v1 := f.PushValue(IntegerType{Width: 64, Signed: true}, b0)
	assert.Equal(t, ValueID(0), v0)
	assert.Equal(t, ValueID(1), v1)
}

func TestReplaceValueRewritesEveryUse(t *testing.T) {
	f, _ := NewFunction(0, "f", IntegerType{Width: 32, Signed: true}, nil, Private)
	b := f.PushBlock()
	INT := IntegerType{Width: 32, Signed: true}

	a := f.PushValue(INT, b)
	c := f.PushValue(INT, b)
	repl := f.PushValue(INT, b)

	yielded := c
	f.Block(b).Instructions = append(f.Block(b).Instructions, Instruction{
		Yielded:   &yielded,
		Operation: BinOpOp{Op: BinOpAdd, Lhs: a, Rhs: a},
	})
	f.Block(b).Terminator = ReturnTerm{Value: a}

	f.ReplaceValue(a, repl)

	got := f.Block(b).Instructions[0].Operation.(BinOpOp)
	assert.Equal(t, repl, got.Lhs)
	assert.Equal(t, repl, got.Rhs)
	assert.Equal(t, ReturnTerm{Value: repl}, f.Block(b).Terminator)
}

func TestInstructionIsMoveDetectsLegacyEncoding(t *testing.T) {
	dst := ValueID(2)
	src := ValueID(1)
	instr := Instruction{Yielded: &dst, Operation: BinOpOp{Op: BinOpAnd, Lhs: src, Rhs: src}}

	d, s, ok := instr.IsMove()
	require.True(t, ok)
	assert.Equal(t, dst, d)
	assert.Equal(t, src, s)

	notMove := Instruction{Yielded: &dst, Operation: BinOpOp{Op: BinOpAdd, Lhs: src, Rhs: src}}
	_, _, ok = notMove.IsMove()
	assert.False(t, ok)
}
