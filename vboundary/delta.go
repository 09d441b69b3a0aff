// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vboundary implements the virtual-boundary penalty coupling of
// §4.6 and the interpolation/spreading machinery of §4.7.
package vboundary

import (
	"math"

	"github.com/SophT-Team/sopht-mpi/field"
)

// DeltaKernel is the fixed-support regularized delta δ_h of §4.7: a
// cosine-windowed kernel of half-width w cells along each axis,
// normalized to a discrete partition of unity over its support. w is the
// kernel_support in the MPIStencilWrapper sense, so the owning ghost
// width must be >= w (§4.6, §4.7).
type DeltaKernel struct {
	HalfWidth int
}

// weight1D evaluates the 1D cosine-windowed delta at signed cell offset r
// from the kernel center.
func (d DeltaKernel) weight1D(r float64) float64 {
	w := float64(d.HalfWidth)
	if math.Abs(r) >= w {
		return 0
	}
	return (1 + math.Cos(math.Pi*r/w)) / (2 * w)
}

// Support returns the kernel's half-width, doubling as its kernel_support
// for MPIStencilWrapper-style ghost-width checks.
func (d DeltaKernel) Support() int { return d.HalfWidth }

// cellRange returns the inclusive [lo, hi] integer cell range within
// HalfWidth of center along one axis.
func (d DeltaKernel) cellRange(center float64) (lo, hi int) {
	w := d.HalfWidth
	lo = int(math.Floor(center)) - w + 1
	hi = int(math.Floor(center)) + w
	return
}

// Interpolate samples scalar field f at localCoord (floating cell
// coordinates in f's own index space, ghost included) via a weighted
// average over the kernel's support, implementing the Eulerian->
// Lagrangian half of §4.7. It is the transpose of Spread up to dx^d.
func (d DeltaKernel) Interpolate(f *field.Scalar, localCoord []float64) float64 {
	dim := len(localCoord)
	los := make([]int, dim)
	his := make([]int, dim)
	for axis, c := range localCoord {
		los[axis], his[axis] = d.cellRange(c)
	}
	strides := stridesOf(f.Shape)
	var sum float64
	forEachInBox(los, his, func(cell []int) {
		w := 1.0
		inBounds := true
		idx := 0
		for axis, c := range cell {
			if c < 0 || c >= f.Shape[axis] {
				inBounds = false
				break
			}
			w *= d.weight1D(localCoord[axis] - float64(c))
			idx += c * strides[axis]
		}
		if inBounds {
			sum += f.Data[idx] * w
		}
	})
	return sum
}

// InterpolateVector interpolates every component of a vector field at
// localCoord, returning one value per component.
func (d DeltaKernel) InterpolateVector(v *field.Vector, localCoord []float64) []float64 {
	out := make([]float64, len(v.Comp))
	for i, c := range v.Comp {
		out[i] = d.Interpolate(c, localCoord)
	}
	return out
}

// Spread is the Lagrangian->Eulerian half of §4.7: it adds
// value*phi(cell)/dx^dim into every cell within the kernel's support of
// localCoord, which is precisely the relation that makes the
// conservation invariant of §8 (Σ_marker f == Σ_cell spread(f)*dx^dim)
// hold, since Σ_cell phi == 1 over the support.
//
// Near a subdomain boundary this legitimately writes into both the inner
// region and the halo of f; the caller is responsible for running a halo
// sum-back (ghost.Communicator.HaloAddScalarInit/FinaliseHaloAdd) before
// any further halo exchange reads f, per §4.7's ordering rule.
func (d DeltaKernel) Spread(f *field.Scalar, localCoord []float64, value float64, dx float64, dim int) {
	los := make([]int, dim)
	his := make([]int, dim)
	for axis, c := range localCoord {
		los[axis], his[axis] = d.cellRange(c)
	}
	strides := stridesOf(f.Shape)
	cellVolume := math.Pow(dx, float64(dim))
	forEachInBox(los, his, func(cell []int) {
		w := 1.0
		inBounds := true
		idx := 0
		for axis, c := range cell {
			if c < 0 || c >= f.Shape[axis] {
				inBounds = false
				break
			}
			w *= d.weight1D(localCoord[axis] - float64(c))
			idx += c * strides[axis]
		}
		if inBounds {
			f.Data[idx] += value * w / cellVolume
		}
	})
}

// SpreadVector spreads every component of a vector value onto v.
func (d DeltaKernel) SpreadVector(v *field.Vector, localCoord []float64, value []float64, dx float64, dim int) {
	for i, c := range v.Comp {
		d.Spread(c, localCoord, value[i], dx, dim)
	}
}

func stridesOf(shape []int) []int {
	s := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= shape[i]
	}
	return s
}

func forEachInBox(los, his []int, fn func(cell []int)) {
	dim := len(los)
	cell := make([]int, dim)
	var rec func(axis int)
	rec = func(axis int) {
		if axis == dim {
			fn(append([]int(nil), cell...))
			return
		}
		for c := los[axis]; c <= his[axis]; c++ {
			cell[axis] = c
			rec(axis + 1)
		}
	}
	rec(0)
}
