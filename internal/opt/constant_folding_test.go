package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kanso/internal/builder"
	"kanso/internal/ir"
)

var u64 = ir.IntegerType{Width: 64, Signed: false}

func TestFoldConstantsEvaluatesChainedBinOps(t *testing.T) {
	b := builder.New("m")
	f, _ := b.AddFunction("f", u64, nil, ir.Public)
	e := b.AddBlock()
	b.SwitchToBlock(e)
	two := b.BuildInteger(2, u64)
	three := b.BuildInteger(3, u64)
	sum := b.BuildBinOp(ir.BinOpAdd, two, three, u64)
	ten := b.BuildInteger(10, u64)
	product := b.BuildBinOp(ir.BinOpMul, sum, ten, u64)
	b.SetTerminator(ir.ReturnTerm{Value: product})
	m := b.Build()

	FoldConstants(m)

	sumInstr := f.Blocks[0].Instructions[2]
	assert.Equal(t, ir.IntegerOp{Value: 5}, sumInstr.Operation)
	productInstr := f.Blocks[0].Instructions[4]
	assert.Equal(t, ir.IntegerOp{Value: 50}, productInstr.Operation)
}

func TestFoldConstantsLeavesNonConstantOperandUnfolded(t *testing.T) {
	b := builder.New("m")
	f, params := b.AddFunction("f", u64, []ir.Param{{Name: "n", Type: u64}}, ir.Public)
	n := params[0]
	e := b.AddBlock()
	b.SwitchToBlock(e)
	one := b.BuildInteger(1, u64)
	sum := b.BuildBinOp(ir.BinOpAdd, n, one, u64)
	b.SetTerminator(ir.ReturnTerm{Value: sum})
	m := b.Build()

	FoldConstants(m)

	sumInstr := f.Blocks[0].Instructions[1]
	_, isBinOp := sumInstr.Operation.(ir.BinOpOp)
	assert.True(t, isBinOp, "operand n is not a known constant, so the add must stay a BinOp")
}

func TestFoldConstantsSkipsDivisionByKnownZero(t *testing.T) {
	b := builder.New("m")
	f, _ := b.AddFunction("f", u64, nil, ir.Public)
	e := b.AddBlock()
	b.SwitchToBlock(e)
	ten := b.BuildInteger(10, u64)
	zero := b.BuildInteger(0, u64)
	div := b.BuildBinOp(ir.BinOpDiv, ten, zero, u64)
	b.SetTerminator(ir.ReturnTerm{Value: div})
	m := b.Build()

	FoldConstants(m)

	divInstr := f.Blocks[0].Instructions[2]
	_, isBinOp := divInstr.Operation.(ir.BinOpOp)
	assert.True(t, isBinOp, "division by a known-zero constant must be left intact, not folded")
}
