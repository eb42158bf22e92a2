// Generates an AVX2 float64 dot-product kernel matching the shape of the
// weight-patch inner loop (source span against one contiguous selector row).
//
// The pure-Go kernel in graph/forward.go stays the wired implementation:
// its ascending summation order is part of the engine's observable
// contract, and the vectorized reduction below reassociates the sum.  Emit
// this only for embedders who opt into that deviation.
//
// Run with `go run ./graph/asm-generators/patch-dot-slice -out patch_dot.s`.
package main

import (
	. "github.com/mmcloughlin/avo/build"
	. "github.com/mmcloughlin/avo/operand"
	. "github.com/mmcloughlin/avo/reg"
)

var unroll = 6

func main() {
	TEXT("patchDot", NOSPLIT,
		"func(n int, src []float64, srcBase int, row []float64, rowBase int) float64")

	n := Load(Param("n"), GP64())

	src := Mem{Base: Load(Param("src").Base(), GP64())}
	srcBase := Load(Param("srcBase"), GP64())
	ADDQ(srcBase, src.Base)

	row := Mem{Base: Load(Param("row").Base(), GP64())}
	rowBase := Load(Param("rowBase"), GP64())
	ADDQ(rowBase, row.Base)

	// Allocate accumulation registers.
	acc := make([]VecVirtual, unroll)
	for i := 0; i < unroll; i++ {
		acc[i] = YMM()
	}

	// Zero initialization.
	for i := 0; i < unroll; i++ {
		VXORPD(acc[i], acc[i], acc[i])
	}

	// Loop over blocks and process them with vector instructions.  Four
	// doubles per YMM register.
	blockitems := 4 * unroll
	blocksize := 8 * blockitems
	Label("blockloop")
	CMPQ(n, U32(blockitems))
	JL(LabelRef("tail"))

	xs := make([]VecVirtual, unroll)
	for i := 0; i < unroll; i++ {
		xs[i] = YMM()
	}

	for i := 0; i < unroll; i++ {
		VMOVUPD(src.Offset(32*i), xs[i])
	}
	for i := 0; i < unroll; i++ {
		VFMADD231PD(row.Offset(32*i), xs[i], acc[i])
	}

	ADDQ(U32(blocksize), src.Base)
	ADDQ(U32(blocksize), row.Base)

	SUBQ(U32(blockitems), n)

	JMP(LabelRef("blockloop"))

	// Process any trailing entries.
	Label("tail")
	tailAccumulator := XMM()
	VXORPD(tailAccumulator, tailAccumulator, tailAccumulator)

	Label("tailloop")
	CMPQ(n, U32(0))
	JE(LabelRef("reduce"))

	tailElement := XMM()
	VMOVSD(src, tailElement)
	VFMADD231SD(row, tailElement, tailAccumulator)

	ADDQ(U32(8), src.Base)
	ADDQ(U32(8), row.Base)
	DECQ(n)
	JMP(LabelRef("tailloop"))

	// Reduce the lanes to one.
	Label("reduce")
	for i := 1; i < unroll; i++ {
		VADDPD(acc[0], acc[i], acc[0])
	}

	result := acc[0].AsX()
	top := XMM()
	VEXTRACTF128(U8(1), acc[0], top)
	VADDPD(result, top, result)
	VADDPD(result, tailAccumulator, result)
	VHADDPD(result, result, result)
	Store(result, ReturnIndex(0))

	RET()

	Generate()
}
