// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stencil implements the MPIStencilWrapper of §4.4: the generic
// adapter that overlaps an interior pointwise-stencil computation with
// halo exchange, then patches the kernel_support-wide boundary strips once
// the halo has landed.
package stencil

import (
	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/SophT-Team/sopht-mpi/ghost"
	"github.com/SophT-Team/sopht-mpi/subarray"
	"github.com/cpmech/gosl/chk"
)

// Func is a pointwise stencil kernel K of declared Support s: it writes
// every cell of bounds in outs and reads ins up to s cells beyond bounds
// along each axis. All out/in fields share the same
// full shape and the same bounds on a given invocation; a vector quantity
// is simply multiple Scalar components in outs/ins.
type Func func(outs []*field.Scalar, ins []*field.Scalar, bounds subarray.Descriptor, params interface{})

// Kernel is the {invoke, kernel_support} value type of design note §9:
// the support is attached once at construction, never mutated afterward.
type Kernel struct {
	Support      int
	Fn           Func
	ReadsOutputs bool // true if Fn also reads from outs (needs their halo too)
}

// Wrapper is the MPIStencilWrapper of §4.4.
type Wrapper struct {
	kernel Kernel
	ghost  *ghost.Communicator
}

// NewWrapper adapts kernel into an MPI-aware kernel driven by ghostComm.
// Fails fast (CapacityError) if the halo width is narrower than the
// kernel's declared support.
func NewWrapper(kernel Kernel, ghostComm *ghost.Communicator) *Wrapper {
	if ghostComm.GhostWidth() < kernel.Support {
		chk.Panic("stencil: ghost width %d is smaller than kernel_support %d", ghostComm.GhostWidth(), kernel.Support)
	}
	return &Wrapper{kernel: kernel, ghost: ghostComm}
}

// KernelSupport returns the wrapped kernel's support.
func (w *Wrapper) KernelSupport() int { return w.kernel.Support }

// Invoke runs the interior-then-boundary overlap pattern of §4.4:
//  1. launch init-halo-exchange on every input field (and outputs, if the
//     kernel reads them back);
//  2. invoke the kernel on the strict interior, inset by h on every side;
//  3. await the exchange finalise;
//  4. invoke the kernel on each kernel_support-wide boundary strip.
//
// If the kernel panics during step 2, Invoke still finalises the pending
// exchange before propagating the panic, so no rank leaves a peer
// deadlocked waiting on a halo transfer that will never complete.
func (w *Wrapper) Invoke(outs []*field.Scalar, ins []*field.Scalar, params interface{}) {
	for _, f := range ins {
		w.ghost.ExchangeScalarInit(f)
	}
	if w.kernel.ReadsOutputs {
		for _, f := range outs {
			w.ghost.ExchangeScalarInit(f)
		}
	}

	shape := ins[0].Shape
	h := w.ghost.GhostWidth()
	interior := interiorBounds(shape, h)

	s := w.kernel.Support
	// call hands the kernel a read region inset by s: a kernel writes every
	// cell of the bounds it receives and reads up to s cells beyond them.
	call := func(read subarray.Descriptor) {
		for i := range read.Starts {
			read.Starts[i] += s
			read.Subsizes[i] -= 2 * s
		}
		w.kernel.Fn(outs, ins, read, params)
	}

	var interiorPanic interface{}
	func() {
		defer func() {
			interiorPanic = recover()
		}()
		call(interior)
	}()

	if err := w.ghost.Finalise(); err != nil && interiorPanic == nil {
		chk.Panic("stencil: halo exchange finalise failed: %v", err)
	}
	if interiorPanic != nil {
		panic(interiorPanic)
	}

	dim := len(shape)
	for axis := 0; axis < dim; axis++ {
		call(boundaryStrip(shape, h, s, axis, false))
		call(boundaryStrip(shape, h, s, axis, true))
	}
}

// interiorBounds is the read region of the interior pass: the sub-region
// inset by h on every side, which holds only locally-owned data.
func interiorBounds(shape []int, h int) subarray.Descriptor {
	dim := len(shape)
	starts := make([]int, dim)
	sub := make([]int, dim)
	for i, s := range shape {
		starts[i] = h
		sub[i] = s - 2*h
	}
	return subarray.Descriptor{Sizes: append([]int(nil), shape...), Starts: starts, Subsizes: sub}
}

// boundaryStrip builds the 3s-wide read slab starting at h-s along axis,
// on the lower (upper=false) or upper (upper=true) side; Invoke insets it
// by s, so the kernel writes the s-thick boundary of the inner region.
// Axes processed earlier than `axis` keep their full extent (so corner
// cells of the strips already computed along them get recomputed with
// fresh halo data); axes processed later are restricted to the inner
// range — see the Open Question in DESIGN.md about this generalizing
// beyond support==1 kernels.
func boundaryStrip(shape []int, h, s, axis int, upper bool) subarray.Descriptor {
	dim := len(shape)
	starts := make([]int, dim)
	sub := make([]int, dim)
	for i, sz := range shape {
		switch {
		case i == axis && !upper:
			starts[i] = h - s
			sub[i] = 3 * s
		case i == axis && upper:
			starts[i] = sz - (h + 2*s)
			sub[i] = 3 * s
		case i < axis:
			starts[i] = 0
			sub[i] = sz
		default: // i > axis
			starts[i] = h
			sub[i] = sz - 2*h
		}
	}
	return subarray.Descriptor{Sizes: append([]int(nil), shape...), Starts: starts, Subsizes: sub}
}
