package irtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/builder"
	"kanso/internal/cfgedit"
	"kanso/internal/ir"
	"kanso/internal/opt"
	"kanso/internal/phi"
	"kanso/internal/ssalower"
)

var u64 = ir.IntegerType{Width: 64, Signed: false}
var u16 = ir.IntegerType{Width: 16, Signed: false}

// buildFib mirrors spec Scenario B: Init stores 1,1,nth; Loop computes
// nx=x+y, ny=nx-y, cnt=cnt-1 and branches back to itself or to End; End
// returns nx.
func buildFib(t *testing.T) *ir.Module {
	t.Helper()
	b := builder.New("fib")
	_, params := b.AddFunction("fib", u16, []ir.Param{{Name: "nth", Type: u16}}, ir.Public)
	nth := params[0]

	x := b.DeclareVariable("x", u16)
	y := b.DeclareVariable("y", u16)
	cnt := b.DeclareVariable("cnt", u16)

	init := b.AddBlock()
	loop := b.AddBlock()
	end := b.AddBlock()

	b.SwitchToBlock(init)
	one := b.BuildInteger(1, u16)
	b.BuildStore(x, one)
	one2 := b.BuildInteger(1, u16)
	b.BuildStore(y, one2)
	b.BuildStore(cnt, nth)
	b.SetTerminator(ir.JumpTerm{Target: loop})

	b.SwitchToBlock(loop)
	lx := b.BuildLoad(x)
	ly := b.BuildLoad(y)
	lcnt := b.BuildLoad(cnt)
	nx := b.BuildBinOp(ir.BinOpAdd, lx, ly, u16)
	ny := b.BuildBinOp(ir.BinOpSub, nx, ly, u16)
	ncnt := b.BuildBinOp(ir.BinOpSub, lcnt, b.BuildInteger(1, u16), u16)
	b.BuildStore(x, nx)
	b.BuildStore(y, ny)
	b.BuildStore(cnt, ncnt)
	b.SetTerminator(ir.BranchTerm{Cond: ncnt, True: loop, False: end})

	b.SwitchToBlock(end)
	lnx := b.BuildLoad(x)
	b.SetTerminator(ir.ReturnTerm{Value: lnx})

	return b.Build()
}

func TestRoundTripPreSSAModule(t *testing.T) {
	m := buildFib(t)
	text := Print(m)

	parsed, err := Parse("fib.ir", text)
	require.NoError(t, err)

	assert.Equal(t, text, Print(parsed))
}

func TestRoundTripAfterMandatoryTransforms(t *testing.T) {
	m := buildFib(t)
	cfgedit.Split(m)
	ssalower.Lower(m)
	phi.Remove(m)
	opt.FoldConstants(m)

	text := Print(m)
	parsed, err := Parse("fib.ir", text)
	require.NoError(t, err)

	assert.Equal(t, text, Print(parsed))
	require.Len(t, parsed.Functions, 1)
	assert.Equal(t, m.Functions[0].Name, parsed.Functions[0].Name)
	assert.Equal(t, len(m.Functions[0].Blocks), len(parsed.Functions[0].Blocks))
	assert.Equal(t, m.PassesRun, parsed.PassesRun)
}

func TestRoundTripPreservesConstantFoldedValues(t *testing.T) {
	b := builder.New("m")
	b.AddFunction("f", u64, nil, ir.Public)
	e := b.AddBlock()
	b.SwitchToBlock(e)
	v0 := b.BuildInteger(1, u64)
	v1 := b.BuildInteger(2, u64)
	v2 := b.BuildInteger(3, u64)
	v3 := b.BuildBinOp(ir.BinOpAdd, v0, v1, u64)
	v4 := b.BuildBinOp(ir.BinOpAdd, v3, v2, u64)
	b.SetTerminator(ir.ReturnTerm{Value: v4})
	m := b.Build()

	opt.FoldConstants(m)

	parsed, err := Parse("m.ir", Print(m))
	require.NoError(t, err)

	instr := parsed.Functions[0].Blocks[0].Instructions[3]
	assert.Equal(t, ir.IntegerOp{Value: 6}, instr.Operation)
}

func TestParseRejectsMalformedText(t *testing.T) {
	_, err := Parse("bad.ir", "module m\n\n$0: public fn f() void {\n$0: preds\n    ret %0\n}\n")
	assert.Error(t, err, "function header must use the \"fn\" keyword before the linkage, not after")
}
