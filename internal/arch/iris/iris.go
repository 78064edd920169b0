// Package iris targets the Iris custom ISA (spec §6): R0 is the zero
// register, R1 holds return values, R1-R8 are argument/caller-save
// registers, and R9-R29 are scratch. Grounded on the original source's
// src/arch/iris.rs selector and instruction set.
package iris

import (
	"fmt"
	"strings"

	"kanso/internal/diag"
	"kanso/internal/ir"
	"kanso/internal/regalloc"
	"kanso/internal/vcode"
)

const (
	RegZero = 0
	Reg1    = 1
	Reg2    = 2
	Reg3    = 3
	Reg4    = 4
	Reg5    = 5
	Reg6    = 6
	Reg7    = 7
	Reg8    = 8
)

const lastScratchReg = 29

// UsableRegs lists the allocatable physical registers in preference
// order: the caller-save argument/return registers first, then scratch.
func UsableRegs() []regalloc.VReg {
	regs := make([]regalloc.VReg, 0, lastScratchReg)
	for r := Reg1; r <= lastScratchReg; r++ {
		regs = append(regs, regalloc.RealReg(r))
	}
	return regs
}

// AluOp is Iris's ALU opcode set, one per BinOp plus the comparison set
// ops encode via a distinct mnemonic (Ssete.. rather than a flags
// register), matching the original arch/iris.rs IrisAluOp enum.
type AluOp int

const (
	Add AluOp = iota
	Sub
	Mul
	Div
	Mod
	And
	Or
	Xor
	Shl
	Shr
	Ssete
	Ssetne
	Ssetl
	Ssetle
	Ssetg
	Ssetge
)

var aluOpNames = [...]string{
	"add", "sub", "mul", "div", "mod", "and", "or", "xor",
	"lsh", "rsh", "ssete", "ssetne", "ssetl", "ssetle", "ssetg", "ssetge",
}

func (op AluOp) String() string { return aluOpNames[op] }

func aluOpFromBinOp(op ir.BinOp) AluOp {
	switch op {
	case ir.BinOpAdd:
		return Add
	case ir.BinOpSub:
		return Sub
	case ir.BinOpMul:
		return Mul
	case ir.BinOpDiv:
		return Div
	case ir.BinOpMod:
		return Mod
	case ir.BinOpAnd:
		return And
	case ir.BinOpOr:
		return Or
	case ir.BinOpXor:
		return Xor
	case ir.BinOpShl:
		return Shl
	case ir.BinOpShr:
		return Shr
	case ir.BinOpEq:
		return Ssete
	case ir.BinOpNe:
		return Ssetne
	case ir.BinOpLt:
		return Ssetl
	case ir.BinOpLe:
		return Ssetle
	case ir.BinOpGt:
		return Ssetg
	case ir.BinOpGe:
		return Ssetge
	default:
		diag.Raise(diag.CodeUnsupportedOp, "iris: no ALU op for BinOp %s", op)
		panic("unreachable")
	}
}

type instrKind int

const (
	kindPhiPlaceholder instrKind = iota
	kindAluOp
	kindJmp
	kindBeq
	kindImm
	kindMov
	kindCal
	kindRet
)

// Instr is Iris's single VCode instruction type: a tagged union over the
// variants of the original IrisInstr enum, since Go has no enum with
// per-variant payloads.
type Instr struct {
	kind instrKind

	aluOp  AluOp
	dst    regalloc.VReg
	src1   regalloc.VReg
	src2   regalloc.VReg
	val    int64
	label  vcode.LabelDest
	phiOps []regalloc.VReg
}

func AluOpInstr(op AluOp, dst, src1, src2 regalloc.VReg) *Instr {
	return &Instr{kind: kindAluOp, aluOp: op, dst: dst, src1: src1, src2: src2}
}
func JmpInstr(dst vcode.LabelDest) *Instr { return &Instr{kind: kindJmp, label: dst} }
func BeqInstr(src1 regalloc.VReg, dst vcode.LabelDest) *Instr {
	return &Instr{kind: kindBeq, src1: src1, label: dst}
}
func ImmInstr(dst regalloc.VReg, val int64) *Instr { return &Instr{kind: kindImm, dst: dst, val: val} }
func MovInstr(dst, src regalloc.VReg) *Instr       { return &Instr{kind: kindMov, dst: dst, src1: src} }
func CalInstr(dst vcode.LabelDest) *Instr          { return &Instr{kind: kindCal, label: dst} }
func RetInstr() *Instr                             { return &Instr{kind: kindRet} }
func PhiPlaceholderInstr(dst regalloc.VReg, ops []regalloc.VReg) *Instr {
	return &Instr{kind: kindPhiPlaceholder, dst: dst, phiOps: ops}
}

func (i *Instr) String() string {
	switch i.kind {
	case kindAluOp:
		return fmt.Sprintf("%s %s %s %s", i.aluOp, i.dst, i.src1, i.src2)
	case kindJmp:
		return fmt.Sprintf("jmp %s", i.label)
	case kindBeq:
		return fmt.Sprintf("bnz %s %s", i.label, i.src1)
	case kindImm:
		return fmt.Sprintf("imm %s %d", i.dst, i.val)
	case kindMov:
		return fmt.Sprintf("mov %s %s", i.dst, i.src1)
	case kindCal:
		return fmt.Sprintf("cal %s", i.label)
	case kindRet:
		return "ret"
	case kindPhiPlaceholder:
		ops := make([]string, len(i.phiOps))
		for j, o := range i.phiOps {
			ops[j] = o.String()
		}
		return fmt.Sprintf("phi %s %s", i.dst, strings.Join(ops, " "))
	default:
		return "?"
	}
}

func (i *Instr) CollectRegisters(collect regalloc.Regalloc) {
	switch i.kind {
	case kindAluOp:
		collect.AddDef(i.dst)
		collect.AddUse(i.src1)
		collect.AddUse(i.src2)
	case kindBeq:
		collect.AddUse(i.src1)
	case kindImm:
		collect.AddDef(i.dst)
	case kindMov:
		collect.AddDef(i.dst)
		collect.AddUse(i.src1)
		collect.CoalesceMove(i.src1, i.dst)
	case kindPhiPlaceholder:
		collect.AddDef(i.dst)
		for _, op := range i.phiOps {
			collect.AddUse(op)
			collect.CoalesceMove(op, i.dst)
		}
	}
}

func (i *Instr) ApplyAllocs(allocs map[regalloc.VReg]regalloc.VReg) {
	switch i.kind {
	case kindAluOp:
		regalloc.ApplyAlloc(&i.dst, allocs)
		regalloc.ApplyAlloc(&i.src1, allocs)
		regalloc.ApplyAlloc(&i.src2, allocs)
	case kindBeq:
		regalloc.ApplyAlloc(&i.src1, allocs)
	case kindImm:
		regalloc.ApplyAlloc(&i.dst, allocs)
	case kindMov:
		regalloc.ApplyAlloc(&i.dst, allocs)
		regalloc.ApplyAlloc(&i.src1, allocs)
	case kindPhiPlaceholder:
		regalloc.ApplyAlloc(&i.dst, allocs)
		for j := range i.phiOps {
			regalloc.ApplyAlloc(&i.phiOps[j], allocs)
		}
	}
}

// Selector implements vcode.InstrSelector for Iris.
type Selector struct{}

func (Selector) getVReg(val ir.ValueID) regalloc.VReg {
	return regalloc.VirtualReg(int(val))
}

func (s Selector) Select(gen *vcode.VCodeGenerator[*Instr], instr *ir.Instruction, fn *ir.Function) {
	dst := regalloc.RealReg(RegZero)
	if instr.Yielded != nil {
		dst = s.getVReg(*instr.Yielded)
	}

	switch op := instr.Operation.(type) {
	case ir.BinOpOp:
		gen.PushInstr(AluOpInstr(aluOpFromBinOp(op.Op), dst, s.getVReg(op.Lhs), s.getVReg(op.Rhs)))
	case ir.IntegerOp:
		gen.PushInstr(ImmInstr(dst, op.Value))
	case ir.CallOp:
		// Iris has no register calling convention defined for arguments
		// beyond R1-R8 in spec's own register table, and this module has
		// no multi-function call sites to exercise it against; callers
		// are expected to arrange arguments before emitting Cal.
		gen.PushInstr(CalInstr(vcode.FunctionDest(int(op.Callee))))
		gen.PushInstr(MovInstr(dst, regalloc.RealReg(Reg1)))
	case ir.LoadVarOp, ir.StoreVarOp:
		// Never reached: both are removed by SSA lowering before this
		// selector ever runs.
	case ir.PhiOp:
		ops := make([]regalloc.VReg, len(op.Incoming))
		for i, v := range op.Incoming {
			ops[i] = s.getVReg(v)
		}
		gen.PushInstr(PhiPlaceholderInstr(dst, ops))
	}
}

func (s Selector) SelectTerminator(gen *vcode.VCodeGenerator[*Instr], term ir.Terminator, fn *ir.Function) {
	switch t := term.(type) {
	case ir.BranchTerm:
		gen.PushInstr(BeqInstr(s.getVReg(t.Cond), vcode.BlockDest(int(t.True))))
		gen.PushInstr(JmpInstr(vcode.BlockDest(int(t.False))))
	case ir.JumpTerm:
		gen.PushInstr(JmpInstr(vcode.BlockDest(int(t.Target))))
	case ir.ReturnTerm:
		gen.PushInstr(MovInstr(regalloc.RealReg(Reg1), s.getVReg(t.Value)))
		gen.PushInstr(RetInstr())
	case ir.NoTerm:
		// A block left without a terminator is a builder precondition
		// violation elsewhere; here it simply emits nothing.
	}
}

func (Selector) SelectPrologue(gen *vcode.VCodeGenerator[*Instr], fn *ir.Function) {
	// Iris has no callee-saved register set in spec's register table, so
	// there is nothing to spill on entry.
}

func (Selector) SelectEpilogue(gen *vcode.VCodeGenerator[*Instr], fn *ir.Function) {
	// Nothing to restore; Return already emits the function's Ret.
}
