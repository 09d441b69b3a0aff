// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vboundary

import (
	"testing"

	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/cpmech/gosl/chk"
)

func newTestScalar(shape []int) *field.Scalar {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &field.Scalar{Shape: append([]int(nil), shape...), Ghost: 2, Data: make([]float64, n)}
}

func TestSpreadInterpolateConservesTotal(tst *testing.T) {
	chk.PrintTitle("delta kernel conservation")

	dx := 1.0
	f := newTestScalar([]int{12, 12})
	kern := DeltaKernel{HalfWidth: 2}
	coord := []float64{6.3, 5.7}
	kern.Spread(f, coord, 10.0, dx, 2)

	var total float64
	for _, v := range f.Data {
		total += v * dx * dx
	}
	chk.Scalar(tst, "conserved total", 1e-9, total, 10.0)
}

func TestInterpolateRecoversConstantField(tst *testing.T) {
	chk.PrintTitle("delta kernel interpolate constant field")

	f := newTestScalar([]int{10, 10})
	for i := range f.Data {
		f.Data[i] = 3.5
	}
	kern := DeltaKernel{HalfWidth: 2}
	got := kern.Interpolate(f, []float64{4.2, 5.8})
	chk.Scalar(tst, "interpolated constant", 1e-9, got, 3.5)
}

func TestInterpolateIsTransposeOfSpread(tst *testing.T) {
	chk.PrintTitle("delta kernel interpolate/spread transpose")

	dx := 1.0
	kern := DeltaKernel{HalfWidth: 2}
	a := newTestScalar([]int{14, 14})
	b := newTestScalar([]int{14, 14})
	coordA := []float64{6.1, 7.4}
	coordB := []float64{8.2, 5.9}

	// spread a unit impulse at A onto field X, interpolate at B: should
	// equal spreading a unit impulse at B onto field Y, interpolated at A
	// (both equal phi(A,B)/dx^d by symmetry of the kernel's product form).
	kern.Spread(a, coordA, 1.0, dx, 2)
	viaA := kern.Interpolate(a, coordB)

	kern.Spread(b, coordB, 1.0, dx, 2)
	viaB := kern.Interpolate(b, coordA)

	chk.Scalar(tst, "interpolate(spread) symmetry", 1e-9, viaA, viaB)
}
