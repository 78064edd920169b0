// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"kanso/internal/arch/aarch64"
	"kanso/internal/arch/iris"
	"kanso/internal/builder"
	"kanso/internal/cfgedit"
	"kanso/internal/ir"
	"kanso/internal/irtext"
	"kanso/internal/opt"
	"kanso/internal/phi"
	"kanso/internal/ssalower"
	"kanso/internal/vcode"
)

func main() {
	target := flag.String("target", "iris", "lowering target: iris or aarch64")
	printIR := flag.Bool("print-ir", false, "print the SSA IR before lowering")
	flag.Parse()

	m := buildFib()

	cfgedit.Split(m)
	ssalower.Lower(m)
	phi.Remove(m)
	opt.FoldConstants(m)

	if *printIR {
		fmt.Print(irtext.Print(m))
	}

	asm, err := lower(m, *target)
	if err != nil {
		color.Red("❌ %s", err)
		os.Exit(1)
	}

	fmt.Print(asm)
	color.Green("✅ lowered fib() for target %s", *target)
}

// lower selects a target's instruction selector, drives the IR through
// vcode.Lower, runs linear-scan allocation, and prints the result.
func lower(m *ir.Module, target string) (string, error) {
	switch target {
	case "iris":
		vc := vcode.Lower[*iris.Instr](m, iris.Selector{})
		for i := range vc.Functions {
			vcode.Allocate(&vc.Functions[i], iris.UsableRegs())
		}
		return vc.String(), nil
	case "aarch64":
		vc := vcode.Lower[*aarch64.Instr](m, &aarch64.Selector{})
		for i := range vc.Functions {
			vcode.Allocate(&vc.Functions[i], aarch64.UsableRegs())
		}
		return vc.String(), nil
	default:
		return "", fmt.Errorf("unknown target %q (want iris or aarch64)", target)
	}
}

// buildFib constructs the fib-like module: Init stores 1, 1, nth; Loop
// computes nx=x+y, ny=nx-y, cnt=cnt-1 and branches back to itself or to
// End; End returns nx. The same program original_source/examples/fib.rs
// builds through the Rust builder API.
func buildFib() *ir.Module {
	u16 := ir.IntegerType{Width: 16, Signed: false}

	b := builder.New("fib")
	_, params := b.AddFunction("fib", u16, []ir.Param{{Name: "nth", Type: u16}}, ir.Public)
	nth := params[0]

	x := b.DeclareVariable("x", u16)
	y := b.DeclareVariable("y", u16)
	cnt := b.DeclareVariable("cnt", u16)

	initBlock := b.AddBlock()
	loop := b.AddBlock()
	end := b.AddBlock()

	b.SwitchToBlock(initBlock)
	b.BuildStore(x, b.BuildInteger(1, u16))
	b.BuildStore(y, b.BuildInteger(1, u16))
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
	b.SetTerminator(ir.ReturnTerm{Value: b.BuildLoad(x)})

	return b.Build()
}
