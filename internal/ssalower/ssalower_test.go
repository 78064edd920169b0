package ssalower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/builder"
	"kanso/internal/cfgedit"
	"kanso/internal/ir"
)

var u64 = ir.IntegerType{Width: 64, Signed: false}

func countPhis(blk *ir.BasicBlock) int {
	n := 0
	for _, instr := range blk.Instructions {
		if _, ok := instr.Operation.(ir.PhiOp); ok {
			n++
		}
	}
	return n
}

func hasLoadOrStore(f *ir.Function) bool {
	for _, b := range f.Blocks {
		for _, instr := range b.Instructions {
			switch instr.Operation.(type) {
			case ir.LoadVarOp, ir.StoreVarOp:
				return true
			}
		}
	}
	return false
}

// buildLoop builds a fib-like loop:
//
//	entry: x := 0; y := 1; cnt := n; jump header
//	header: if load(cnt) != 0 goto body else exit
//	body: t := load(x) + load(y); store x load(y); store y t;
//	      store cnt load(cnt) - 1; jump header
//	exit: return load(x)
func buildLoop(t *testing.T) (*ir.Module, *ir.Function) {
	t.Helper()
	b := builder.New("loop")
	f, params := b.AddFunction("fib", u64, []ir.Param{{Name: "n", Type: u64}}, ir.Public)
	n := params[0]

	x := b.DeclareVariable("x", u64)
	y := b.DeclareVariable("y", u64)
	cnt := b.DeclareVariable("cnt", u64)

	entry := b.AddBlock()
	header := b.AddBlock()
	body := b.AddBlock()
	exit := b.AddBlock()

	b.SwitchToBlock(entry)
	zero := b.BuildInteger(0, u64)
	one := b.BuildInteger(1, u64)
	b.BuildStore(x, zero)
	b.BuildStore(y, one)
	b.BuildStore(cnt, n)
	b.SetTerminator(ir.JumpTerm{Target: header})

	b.SwitchToBlock(header)
	cntLoad := b.BuildLoad(cnt)
	cond := b.BuildBinOp(ir.BinOpNe, cntLoad, zero, ir.IntegerType{Width: 1, Signed: false})
	b.SetTerminator(ir.BranchTerm{Cond: cond, True: body, False: exit})

	b.SwitchToBlock(body)
	xLoad := b.BuildLoad(x)
	yLoad := b.BuildLoad(y)
	sum := b.BuildBinOp(ir.BinOpAdd, xLoad, yLoad, u64)
	b.BuildStore(x, yLoad)
	b.BuildStore(y, sum)
	cntLoad2 := b.BuildLoad(cnt)
	decOne := b.BuildInteger(1, u64)
	dec := b.BuildBinOp(ir.BinOpSub, cntLoad2, decOne, u64)
	b.BuildStore(cnt, dec)
	b.SetTerminator(ir.JumpTerm{Target: header})

	b.SwitchToBlock(exit)
	xLoadExit := b.BuildLoad(x)
	b.SetTerminator(ir.ReturnTerm{Value: xLoadExit})

	m := b.Build()
	return m, f
}

func TestLowerLoopPlacesPhisAtHeaderAndClearsLoadsStores(t *testing.T) {
	m, f := buildLoop(t)
	cfgedit.Split(m)
	Lower(m)

	assert.True(t, m.HasRun(ir.PassSSALowering))
	assert.False(t, hasLoadOrStore(f))
	assert.Empty(t, f.Variables)

	header := f.Block(ir.BlockID(1))
	assert.Equal(t, 3, countPhis(header), "x, y, cnt each need a phi at the loop header")

	for _, instr := range header.Instructions {
		phi, ok := instr.Operation.(ir.PhiOp)
		if !ok {
			continue
		}
		require.Len(t, phi.Incoming, len(header.Preds))
		for _, in := range phi.Incoming {
			assert.NotZero(t, in)
		}
	}
}

// buildDiamondSwap builds entry -> {a, b} -> join where a and b assign
// different values to the same variable, so join needs one phi whose two
// operands differ depending on the arm taken.
func buildDiamondSwap(t *testing.T) (*ir.Module, *ir.Function) {
	t.Helper()
	b := builder.New("diamond")
	f, _ := b.AddFunction("pick", u64, nil, ir.Public)
	v := b.DeclareVariable("v", u64)

	entry := b.AddBlock()
	a := b.AddBlock()
	bb := b.AddBlock()
	join := b.AddBlock()

	b.SwitchToBlock(entry)
	cond := b.BuildInteger(1, ir.IntegerType{Width: 1, Signed: false})
	b.SetTerminator(ir.BranchTerm{Cond: cond, True: a, False: bb})

	b.SwitchToBlock(a)
	ten := b.BuildInteger(10, u64)
	b.BuildStore(v, ten)
	b.SetTerminator(ir.JumpTerm{Target: join})

	b.SwitchToBlock(bb)
	twenty := b.BuildInteger(20, u64)
	b.BuildStore(v, twenty)
	b.SetTerminator(ir.JumpTerm{Target: join})

	b.SwitchToBlock(join)
	loaded := b.BuildLoad(v)
	b.SetTerminator(ir.ReturnTerm{Value: loaded})

	m := b.Build()
	return m, f
}

func TestLowerDiamondPlacesSinglePhiAtJoin(t *testing.T) {
	m, f := buildDiamondSwap(t)
	cfgedit.Split(m)
	Lower(m)

	assert.False(t, hasLoadOrStore(f))

	var joinBlock *ir.BasicBlock
	for _, blk := range f.Blocks {
		if countPhis(blk) > 0 {
			joinBlock = blk
			break
		}
	}
	require.NotNil(t, joinBlock)
	require.Len(t, joinBlock.Preds, 2)

	phi := joinBlock.Instructions[0].Operation.(ir.PhiOp)
	require.Len(t, phi.Incoming, 2)
	assert.NotEqual(t, phi.Incoming[0], phi.Incoming[1])

	ret := joinBlock.Terminator.(ir.ReturnTerm)
	assert.Equal(t, *joinBlock.Instructions[0].Yielded, ret.Value)
}

func TestLowerOnEmptyFunctionIsNoop(t *testing.T) {
	b := builder.New("empty")
	b.AddFunction("noop", ir.VoidType{}, nil, ir.Public)
	m := b.Build()

	assert.NotPanics(t, func() { Lower(m) })
	assert.True(t, m.HasRun(ir.PassSSALowering))
}
