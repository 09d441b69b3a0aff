// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stencil

import (
	"testing"

	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/SophT-Team/sopht-mpi/ghost"
	"github.com/SophT-Team/sopht-mpi/subarray"
	"github.com/SophT-Team/sopht-mpi/topo"
	"github.com/cpmech/gosl/chk"
)

// copyKernel is a trivial support-1 stencil: outs[0][c] = ins[0][c] for
// every cell c in bounds, used to isolate the wrapper's interior/boundary
// overlap bookkeeping from any real numerical kernel.
var copyKernel = Kernel{
	Support: 1,
	Fn: func(outs []*field.Scalar, ins []*field.Scalar, bounds subarray.Descriptor, _ interface{}) {
		bounds.ForEach(func(_ []int, idx int) {
			outs[0].Data[idx] = ins[0].Data[idx]
		})
	},
}

func TestInvokeMatchesDirectKernelOnSingleRank(tst *testing.T) {
	chk.PrintTitle("stencil wrapper: single-rank K_mpi == K equivalence")

	topo_ := topo.NewConstruct([]int{8, 8}, nil, []bool{false, false}, topo.Double)
	ghostComm := ghost.NewCommunicator(topo_, 1, false)

	in := field.NewScalar(topo_, 1)
	inner := in.InnerDescriptor()
	inner.ForEach(func(coord []int, idx int) {
		in.Data[idx] = float64(coord[0]*10 + coord[1] + 1)
	})

	wrapped := field.NewScalar(topo_, 1)
	w := NewWrapper(copyKernel, ghostComm)
	w.Invoke([]*field.Scalar{wrapped}, []*field.Scalar{in}, nil)

	direct := field.NewScalar(topo_, 1)
	copyKernel.Fn([]*field.Scalar{direct}, []*field.Scalar{in}, in.InnerDescriptor(), nil)

	chk.Array(tst, "wrapped interior matches direct single-rank invocation", 1e-12, wrapped.Data, direct.Data)
}

func TestNewWrapperRejectsNarrowGhost(tst *testing.T) {
	chk.PrintTitle("stencil wrapper: ghost-width-vs-support validation")

	defer func() {
		if r := recover(); r == nil {
			tst.Fatalf("expected a panic when ghost width is narrower than kernel support")
		}
	}()
	topo_ := topo.NewConstruct([]int{8, 8}, nil, []bool{false, false}, topo.Double)
	ghostComm := ghost.NewCommunicator(topo_, 1, false)
	wideKernel := Kernel{Support: 2, Fn: copyKernel.Fn}
	NewWrapper(wideKernel, ghostComm)
}

func TestKernelSupportAccessor(tst *testing.T) {
	chk.PrintTitle("stencil wrapper: KernelSupport accessor")

	topo_ := topo.NewConstruct([]int{8, 8}, nil, []bool{false, false}, topo.Double)
	ghostComm := ghost.NewCommunicator(topo_, 1, false)
	w := NewWrapper(copyKernel, ghostComm)
	chk.IntAssert(w.KernelSupport(), 1)
}

func TestInvokePropagatesPanicAfterFinalise(tst *testing.T) {
	chk.PrintTitle("stencil wrapper: interior panic still finalises halo exchange")

	topo_ := topo.NewConstruct([]int{8, 8}, nil, []bool{false, false}, topo.Double)
	ghostComm := ghost.NewCommunicator(topo_, 1, false)
	panicKernel := Kernel{
		Support: 1,
		Fn: func(outs []*field.Scalar, ins []*field.Scalar, bounds subarray.Descriptor, _ interface{}) {
			panic("boom")
		},
	}
	w := NewWrapper(panicKernel, ghostComm)
	in := field.NewScalar(topo_, 1)
	out := field.NewScalar(topo_, 1)

	defer func() {
		if r := recover(); r == nil {
			tst.Fatalf("expected the interior kernel panic to propagate")
		}
	}()
	w.Invoke([]*field.Scalar{out}, []*field.Scalar{in}, nil)
}
