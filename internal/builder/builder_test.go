package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/ir"
)

var u16 = ir.IntegerType{Width: 16, Signed: false}

func TestConstantFoldingScenario(t *testing.T) {
	b := New("main")
	b.AddFunction("main", ir.VoidType{}, nil, ir.Public)
	b.AddBlock()

	v0 := b.BuildInteger(1, u16)
	v1 := b.BuildInteger(2, u16)
	v2 := b.BuildInteger(3, u16)
	v3 := b.BuildBinOp(ir.BinOpAdd, v0, v1, u16)
	v4 := b.BuildBinOp(ir.BinOpAdd, v3, v2, u16)
	b.SetTerminator(ir.ReturnTerm{Value: v4})

	m := b.Build()
	require.Len(t, m.Functions, 1)
	f := m.Functions[0]
	require.Len(t, f.Blocks, 1)
	require.Len(t, f.Blocks[0].Instructions, 5)
	assert.Equal(t, ir.ReturnTerm{Value: v4}, f.Blocks[0].Terminator)
}

func TestStoreRecordsAssigningBlock(t *testing.T) {
	b := New("test")
	b.AddFunction("main", ir.VoidType{}, nil, ir.Private)
	entry := b.AddBlock()

	x := b.DeclareVariable("x", ir.IntegerType{Width: 32, Signed: true})
	three := b.BuildInteger(3, ir.IntegerType{Width: 32, Signed: true})
	b.BuildStore(x, three)
	ldX := b.BuildLoad(x)
	b.SetTerminator(ir.ReturnTerm{Value: ldX})

	f := b.Build().Functions[0]
	assert.True(t, f.Variables[x].AssigningBlocks[entry])
}

func TestSetTerminatorIsLastWriterWins(t *testing.T) {
	b := New("test")
	b.AddFunction("main", ir.VoidType{}, nil, ir.Private)
	blk := b.AddBlock()
	other := b.AddBlock()

	b.SwitchToBlock(blk)
	b.SetTerminator(ir.JumpTerm{Target: other})
	b.SetTerminator(ir.JumpTerm{Target: blk})

	assert.Equal(t, ir.JumpTerm{Target: blk}, b.Build().Functions[0].Blocks[blk].Terminator)
}

func TestFibLikeLoopBuilds(t *testing.T) {
	b := New("fib")
	b.AddFunction("main", ir.VoidType{}, nil, ir.Public)

	initBB := b.AddBlock()
	loopBB := b.AddBlock()
	endBB := b.AddBlock()

	x := b.DeclareVariable("x", u16)
	y := b.DeclareVariable("y", u16)
	cnt := b.DeclareVariable("cnt", u16)

	b.SwitchToBlock(initBB)
	one := b.BuildInteger(1, u16)
	b.BuildStore(x, one)
	zero := b.BuildInteger(0, u16)
	b.BuildStore(y, zero)
	nth := b.BuildInteger(10, u16)
	b.BuildStore(cnt, nth)
	b.SetTerminator(ir.JumpTerm{Target: loopBB})

	b.SwitchToBlock(loopBB)
	xv := b.BuildLoad(x)
	yv := b.BuildLoad(y)
	nx := b.BuildBinOp(ir.BinOpAdd, xv, yv, u16)
	b.BuildStore(x, nx)
	ny := b.BuildBinOp(ir.BinOpSub, nx, yv, u16)
	b.BuildStore(y, ny)
	c := b.BuildLoad(cnt)
	nc := b.BuildBinOp(ir.BinOpSub, c, one, u16)
	b.BuildStore(cnt, nc)
	b.SetTerminator(ir.BranchTerm{Cond: nc, True: loopBB, False: endBB})

	b.SwitchToBlock(endBB)
	b.SetTerminator(ir.ReturnTerm{Value: zero})

	f := b.Build().Functions[0]
	require.Len(t, f.Blocks, 3)

	ir.RecomputePredecessors(f)
	assert.Equal(t, []ir.BlockID{initBB, loopBB}, f.Blocks[loopBB].Preds)
	assert.Equal(t, []ir.BlockID{loopBB}, f.Blocks[endBB].Preds)
}
