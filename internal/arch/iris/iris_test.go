package iris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanso/internal/builder"
	"kanso/internal/cfgedit"
	"kanso/internal/ir"
	"kanso/internal/phi"
	"kanso/internal/regalloc"
	"kanso/internal/ssalower"
	"kanso/internal/vcode"
)

var u64 = ir.IntegerType{Width: 64, Signed: false}

func buildAddOne(t *testing.T) *ir.Module {
	t.Helper()
	b := builder.New("m")
	b.AddFunction("addOne", u64, []ir.Param{{Name: "n", Type: u64}}, ir.Public)
	e := b.AddBlock()
	b.SwitchToBlock(e)
	one := b.BuildInteger(1, u64)
	sum := b.BuildBinOp(ir.BinOpAdd, ir.ValueID(0), one, u64)
	b.SetTerminator(ir.ReturnTerm{Value: sum})
	return b.Build()
}

func TestSelectLowersBinOpAndReturn(t *testing.T) {
	m := buildAddOne(t)
	cfgedit.Split(m)
	ssalower.Lower(m)
	phi.Remove(m)

	vc := vcode.Lower[*Instr](m, Selector{})
	require.Len(t, vc.Functions, 1)
	fn := vc.Functions[0]
	require.Len(t, fn.Blocks, 1)

	var sawAlu, sawMov, sawRet bool
	for _, instr := range fn.Blocks[0].Instrs {
		switch instr.kind {
		case kindAluOp:
			sawAlu = true
			assert.Equal(t, Add, instr.aluOp)
		case kindMov:
			sawMov = true
			assert.Equal(t, regalloc.RealReg(Reg1), instr.dst)
		case kindRet:
			sawRet = true
		}
	}
	assert.True(t, sawAlu)
	assert.True(t, sawMov)
	assert.True(t, sawRet)
}

func TestAllocateAssignsPhysicalRegisters(t *testing.T) {
	m := buildAddOne(t)
	cfgedit.Split(m)
	ssalower.Lower(m)
	phi.Remove(m)

	vc := vcode.Lower[*Instr](m, Selector{})
	vcode.Allocate(&vc.Functions[0], UsableRegs())

	for _, instr := range vc.Functions[0].Blocks[0].Instrs {
		if instr.kind == kindAluOp {
			assert.NotEqual(t, regalloc.Virtual, instr.dst.Kind)
			assert.NotEqual(t, regalloc.Virtual, instr.src1.Kind)
			assert.NotEqual(t, regalloc.Virtual, instr.src2.Kind)
		}
	}
}
