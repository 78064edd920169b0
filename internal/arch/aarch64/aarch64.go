// Package aarch64 targets an AArch64-style ISA (spec §6): xzr is the zero
// register, sp the stack pointer, x0-x7 hold arguments/return, a subset
// of x9-x28 is allocatable, and a fixed callee-saved list (including the
// frame pointer and link register) is spilled in the prologue and
// restored in the epilogue. Grounded on the original source's
// src/arch/aarch64.rs selector and instruction set.
package aarch64

import (
	"fmt"

	"kanso/internal/diag"
	"kanso/internal/ir"
	"kanso/internal/regalloc"
	"kanso/internal/vcode"
)

const (
	RegZero = 0
	RegX0   = 1
	RegX1   = 2
	RegX2   = 3
	RegX3   = 4
	RegX4   = 5
	RegX5   = 6
	RegX6   = 7
	RegX7   = 8
	RegX8   = 9
	RegX9   = 10
	RegX10  = 11
	RegX11  = 12
	RegX12  = 13
	RegX13  = 14
	RegX14  = 15
	RegX15  = 16
	RegIP0  = 17
	RegIP1  = 18
	RegX18  = 19
	RegX19  = 20
	RegX20  = 21
	RegX21  = 22
	RegX22  = 23
	RegX23  = 24
	RegX24  = 25
	RegX25  = 26
	RegX26  = 27
	RegX27  = 28
	RegX28  = 29
	RegFP   = 30
	RegLR   = 31
	RegSP   = 32
)

// Callee is the fixed callee-saved register list spilled in the prologue
// and restored in the epilogue, frame pointer and link register first.
var Callee = []int{
	RegFP, RegLR,
	RegX19, RegX20, RegX21, RegX22, RegX23, RegX24, RegX25, RegX26, RegX27, RegX28,
}

// UsableRegs lists the allocatable physical registers: x9-x15, x18, and
// x19-x28 (the IP0/IP1 scratch pair is reserved, matching the original
// target's commented-out entries).
func UsableRegs() []regalloc.VReg {
	ids := []int{
		RegX9, RegX10, RegX11, RegX12, RegX13, RegX14, RegX15,
		RegX18, RegX19, RegX20, RegX21, RegX22, RegX23, RegX24, RegX25, RegX26, RegX27, RegX28,
	}
	regs := make([]regalloc.VReg, len(ids))
	for i, id := range ids {
		regs[i] = regalloc.RealReg(id)
	}
	return regs
}

// AluOp is AArch64's ALU opcode set.
type AluOp int

const (
	Add AluOp = iota
	Sub
	Mul
	Div
	Lsl
	Lsr
	And
	Orr
	Eor
	Udiv
)

var aluOpNames = [...]string{"add", "sub", "mul", "div", "lsl", "lsr", "and", "orr", "eor", "udiv"}

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
	case ir.BinOpShl:
		return Lsl
	case ir.BinOpShr:
		return Lsr
	case ir.BinOpAnd:
		return And
	case ir.BinOpOr:
		return Orr
	case ir.BinOpXor:
		return Eor
	default:
		diag.Raise(diag.CodeUnsupportedOp, "aarch64: no single-instruction ALU op for BinOp %s", op)
		panic("unreachable")
	}
}

type instrKind int

const (
	kindPhiPlaceholder instrKind = iota
	kindAluOp
	kindAluImm
	kindMsub
	kindB
	kindCbnz
	kindMovImm
	kindMovReg
	kindBl
	kindRet
	kindLoadSp
	kindStoreSp
	kindAutibsp
)

// Instr is AArch64's single VCode instruction type: a tagged union over
// the variants of the original Aarch64Instr enum.
type Instr struct {
	kind instrKind

	aluOp  AluOp
	dst    regalloc.VReg
	src1   regalloc.VReg
	src2   regalloc.VReg
	src3   regalloc.VReg
	imm    int64
	offset int64
	label  vcode.LabelDest
	phiOps []regalloc.VReg
}

func AluOpInstr(op AluOp, dst, src1, src2 regalloc.VReg) *Instr {
	return &Instr{kind: kindAluOp, aluOp: op, dst: dst, src1: src1, src2: src2}
}
func AluImmInstr(op AluOp, dst, src1 regalloc.VReg, imm int64) *Instr {
	return &Instr{kind: kindAluImm, aluOp: op, dst: dst, src1: src1, imm: imm}
}
func MsubInstr(dst, src1, src2, src3 regalloc.VReg) *Instr {
	return &Instr{kind: kindMsub, dst: dst, src1: src1, src2: src2, src3: src3}
}
func BInstr(dst vcode.LabelDest) *Instr { return &Instr{kind: kindB, label: dst} }
func CbnzInstr(src1 regalloc.VReg, dst vcode.LabelDest) *Instr {
	return &Instr{kind: kindCbnz, src1: src1, label: dst}
}
func MovImmInstr(dst regalloc.VReg, val int64) *Instr {
	return &Instr{kind: kindMovImm, dst: dst, imm: val}
}
func MovRegInstr(dst, src regalloc.VReg) *Instr { return &Instr{kind: kindMovReg, dst: dst, src1: src} }
func BlInstr(dst vcode.LabelDest) *Instr        { return &Instr{kind: kindBl, label: dst} }
func RetInstr() *Instr                          { return &Instr{kind: kindRet} }
func LoadSpInstr(dst regalloc.VReg, offset int64) *Instr {
	return &Instr{kind: kindLoadSp, dst: dst, offset: offset}
}
func StoreSpInstr(src regalloc.VReg, offset int64) *Instr {
	return &Instr{kind: kindStoreSp, src1: src, offset: offset}
}
func AutibspInstr() *Instr { return &Instr{kind: kindAutibsp} }
func PhiPlaceholderInstr(dst regalloc.VReg, ops []regalloc.VReg) *Instr {
	return &Instr{kind: kindPhiPlaceholder, dst: dst, phiOps: ops}
}

func formatVReg(v regalloc.VReg) string {
	switch {
	case v.Kind == regalloc.Virtual:
		return fmt.Sprintf("v%d", v.Index)
	case v.Kind == regalloc.Real && v.Index == RegZero:
		return "xzr"
	case v.Kind == regalloc.Real && v.Index == RegSP:
		return "sp"
	case v.Kind == regalloc.Real:
		return fmt.Sprintf("x%d", v.Index-1)
	case v.Kind == regalloc.Spilled:
		return fmt.Sprintf("s%d", v.Index)
	default:
		return "?"
	}
}

func (i *Instr) String() string {
	switch i.kind {
	case kindAluOp:
		return fmt.Sprintf("%s %s, %s, %s", i.aluOp, formatVReg(i.dst), formatVReg(i.src1), formatVReg(i.src2))
	case kindAluImm:
		return fmt.Sprintf("%s %s, %s, #%d", i.aluOp, formatVReg(i.dst), formatVReg(i.src1), i.imm)
	case kindMsub:
		return fmt.Sprintf("msub %s, %s, %s, %s", formatVReg(i.dst), formatVReg(i.src1), formatVReg(i.src2), formatVReg(i.src3))
	case kindB:
		return fmt.Sprintf("b %s", i.label)
	case kindCbnz:
		return fmt.Sprintf("cbnz %s, %s", formatVReg(i.src1), i.label)
	case kindMovImm:
		return fmt.Sprintf("mov %s, %d", formatVReg(i.dst), i.imm)
	case kindMovReg:
		return fmt.Sprintf("mov %s, %s", formatVReg(i.dst), formatVReg(i.src1))
	case kindBl:
		return fmt.Sprintf("bl %s", i.label)
	case kindRet:
		return "ret"
	case kindLoadSp:
		return fmt.Sprintf("ldr %s, [sp, #%d]", formatVReg(i.dst), i.offset)
	case kindStoreSp:
		return fmt.Sprintf("str %s, [sp, #%d]", formatVReg(i.src1), i.offset)
	case kindAutibsp:
		return "autibsp"
	case kindPhiPlaceholder:
		ops := ""
		for j, o := range i.phiOps {
			if j > 0 {
				ops += " "
			}
			ops += formatVReg(o)
		}
		return fmt.Sprintf("// phi %s %s", formatVReg(i.dst), ops)
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
	case kindAluImm:
		collect.AddDef(i.dst)
		collect.AddUse(i.src1)
	case kindMsub:
		collect.AddDef(i.dst)
		collect.AddUse(i.src1)
		collect.AddUse(i.src2)
		collect.AddUse(i.src3)
	case kindMovImm:
		collect.AddDef(i.dst)
	case kindCbnz:
		collect.AddUse(i.src1)
	case kindMovReg:
		collect.AddDef(i.dst)
		collect.AddUse(i.src1)
		collect.CoalesceMove(i.src1, i.dst)
	case kindLoadSp:
		collect.AddDef(i.dst)
	case kindStoreSp:
		collect.AddUse(i.src1)
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
	case kindAluImm:
		regalloc.ApplyAlloc(&i.dst, allocs)
		regalloc.ApplyAlloc(&i.src1, allocs)
	case kindMsub:
		regalloc.ApplyAlloc(&i.dst, allocs)
		regalloc.ApplyAlloc(&i.src1, allocs)
		regalloc.ApplyAlloc(&i.src2, allocs)
		regalloc.ApplyAlloc(&i.src3, allocs)
	case kindMovImm:
		regalloc.ApplyAlloc(&i.dst, allocs)
	case kindCbnz:
		regalloc.ApplyAlloc(&i.src1, allocs)
	case kindMovReg:
		regalloc.ApplyAlloc(&i.dst, allocs)
		regalloc.ApplyAlloc(&i.src1, allocs)
	case kindLoadSp:
		regalloc.ApplyAlloc(&i.dst, allocs)
	case kindStoreSp:
		regalloc.ApplyAlloc(&i.src1, allocs)
	case kindPhiPlaceholder:
		regalloc.ApplyAlloc(&i.dst, allocs)
		for j := range i.phiOps {
			regalloc.ApplyAlloc(&i.phiOps[j], allocs)
		}
	}
}

// Selector implements vcode.InstrSelector for AArch64. It keeps its own
// value-to-vreg map, since AArch64 values are allocated lazily (a value
// only gets a virtual register the first time it is referenced).
type Selector struct {
	virtualMap map[ir.ValueID]regalloc.VReg
}

func (s *Selector) getVReg(val ir.ValueID, gen *vcode.VCodeGenerator[*Instr]) regalloc.VReg {
	if s.virtualMap == nil {
		s.virtualMap = make(map[ir.ValueID]regalloc.VReg)
	}
	if v, ok := s.virtualMap[val]; ok {
		return v
	}
	v := gen.PushVReg()
	s.virtualMap[val] = v
	return v
}

func (s *Selector) Select(gen *vcode.VCodeGenerator[*Instr], instr *ir.Instruction, fn *ir.Function) {
	dst := regalloc.RealReg(RegZero)
	if instr.Yielded != nil {
		dst = s.getVReg(*instr.Yielded, gen)
	}

	switch op := instr.Operation.(type) {
	case ir.BinOpOp:
		src1 := s.getVReg(op.Lhs, gen)
		src2 := s.getVReg(op.Rhs, gen)
		if op.Op == ir.BinOpMod {
			tmp := gen.PushVReg()
			gen.PushInstr(AluOpInstr(Udiv, tmp, src1, src2))
			gen.PushInstr(MsubInstr(dst, tmp, src2, src1))
			return
		}
		gen.PushInstr(AluOpInstr(aluOpFromBinOp(op.Op), dst, src1, src2))
	case ir.IntegerOp:
		gen.PushInstr(MovImmInstr(dst, op.Value))
	case ir.CallOp:
		for i, a := range op.Args {
			if i > 7 {
				diag.Raise(diag.CodeUnsupportedOp, "aarch64: call with more than 8 arguments is unsupported (got %d)", len(op.Args))
			}
			src := s.getVReg(a, gen)
			gen.PushInstr(MovRegInstr(regalloc.RealReg(RegX0+i), src))
		}
		gen.PushInstr(BlInstr(vcode.FunctionDest(int(op.Callee))))
		gen.PushInstr(MovRegInstr(dst, regalloc.RealReg(RegX0)))
	case ir.LoadVarOp, ir.StoreVarOp:
		// Never reached: removed by SSA lowering before this selector runs.
	case ir.PhiOp:
		ops := make([]regalloc.VReg, len(op.Incoming))
		for i, v := range op.Incoming {
			ops[i] = s.getVReg(v, gen)
		}
		gen.PushInstr(PhiPlaceholderInstr(dst, ops))
	}
}

func (s *Selector) SelectTerminator(gen *vcode.VCodeGenerator[*Instr], term ir.Terminator, fn *ir.Function) {
	switch t := term.(type) {
	case ir.BranchTerm:
		gen.PushInstr(CbnzInstr(s.getVReg(t.Cond, gen), vcode.BlockDest(int(t.True))))
		gen.PushInstr(BInstr(vcode.BlockDest(int(t.False))))
	case ir.JumpTerm:
		gen.PushInstr(BInstr(vcode.BlockDest(int(t.Target))))
	case ir.ReturnTerm:
		gen.PushInstr(MovRegInstr(regalloc.RealReg(RegX0), s.getVReg(t.Value, gen)))
		gen.PushInstr(BInstr(vcode.EpilogueDest()))
	case ir.NoTerm:
	}
}

func (*Selector) SelectPrologue(gen *vcode.VCodeGenerator[*Instr], fn *ir.Function) {
	gen.PushInstr(AluImmInstr(Sub, regalloc.RealReg(RegSP), regalloc.RealReg(RegSP), int64(len(Callee)*16)))
	for i, r := range Callee {
		gen.PushInstr(StoreSpInstr(regalloc.RealReg(r), int64(i*16)))
	}
	gen.PushInstr(MovRegInstr(regalloc.RealReg(RegFP), regalloc.RealReg(RegSP)))
}

func (*Selector) SelectEpilogue(gen *vcode.VCodeGenerator[*Instr], fn *ir.Function) {
	for i, r := range Callee {
		gen.PushInstr(LoadSpInstr(regalloc.RealReg(r), int64(i*16)))
	}
	gen.PushInstr(AluImmInstr(Add, regalloc.RealReg(RegSP), regalloc.RealReg(RegSP), int64(len(Callee)*16)))
	gen.PushInstr(AutibspInstr())
	gen.PushInstr(RetInstr())
}
