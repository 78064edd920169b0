package cfgedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/builder"
	"kanso/internal/ir"
)

// buildDiamond builds entry -> {a, b} -> join, a diamond with a critical
// edge on both branches of entry (join has two preds, entry has two succs).
func buildDiamond(t *testing.T) (*ir.Module, *ir.Function, ir.BlockID, ir.BlockID, ir.BlockID, ir.BlockID) {
	t.Helper()
	b := builder.New("diamond")
	b.AddFunction("main", ir.VoidType{}, nil, ir.Public)

	entry := b.AddBlock()
	a := b.AddBlock()
	bb := b.AddBlock()
	join := b.AddBlock()

	cond := b.BuildInteger(1, ir.IntegerType{Width: 1, Signed: false})
	b.SwitchToBlock(entry)
	b.SetTerminator(ir.BranchTerm{Cond: cond, True: a, False: bb})

	b.SwitchToBlock(a)
	b.SetTerminator(ir.JumpTerm{Target: join})

	b.SwitchToBlock(bb)
	b.SetTerminator(ir.JumpTerm{Target: join})

	b.SwitchToBlock(join)
	b.SetTerminator(ir.ReturnTerm{Value: cond})

	m := b.Build()
	return m, m.Functions[0], entry, a, bb, join
}

func TestSplitInsertsBlockOnCriticalEdge(t *testing.T) {
	m, f, entry, a, bb, join := buildDiamond(t)
	require.Len(t, f.Blocks, 4)

	Split(m)

	assert.True(t, m.HasRun(ir.PassCriticalEdgeSplitting))
	// entry -> a and entry -> b are the critical edges (entry has 2 succs,
	// join has 2 preds); a -> join and b -> join are not critical (a and b
	// each have exactly one successor).
	require.Len(t, f.Blocks, 6)

	entryTerm := f.Block(entry).Terminator.(ir.BranchTerm)
	assert.NotEqual(t, a, entryTerm.True)
	assert.NotEqual(t, bb, entryTerm.False)

	trueSplit := f.Block(entryTerm.True)
	assert.Equal(t, ir.JumpTerm{Target: join}, trueSplit.Terminator)
	falseSplit := f.Block(entryTerm.False)
	assert.Equal(t, ir.JumpTerm{Target: join}, falseSplit.Terminator)
}

func TestSplitIsIdempotent(t *testing.T) {
	m, f, _, _, _, _ := buildDiamond(t)
	Split(m)
	blockCountAfterOne := len(f.Blocks)

	Split(m)
	assert.Equal(t, blockCountAfterOne, len(f.Blocks))
}

func TestNoCriticalEdgeLeavesFunctionUnchanged(t *testing.T) {
	b := builder.New("line")
	b.AddFunction("main", ir.VoidType{}, nil, ir.Public)
	e := b.AddBlock()
	j := b.AddBlock()
	b.SwitchToBlock(e)
	b.SetTerminator(ir.JumpTerm{Target: j})
	b.SwitchToBlock(j)
	b.SetTerminator(ir.ReturnTerm{Value: 0})

	m := b.Build()
	f := m.Functions[0]
	before := len(f.Blocks)

	Split(m)
	assert.Equal(t, before, len(f.Blocks))
}
