// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package field holds the local-field data model (§3) and the
// FieldCommunicator master/worker scatter-gather component (§4.3).
package field

import (
	"github.com/SophT-Team/sopht-mpi/subarray"
	"github.com/SophT-Team/sopht-mpi/topo"
	"github.com/cpmech/gosl/chk"
)

// Scalar is a local field of shape LocalGridSize + 2*Ghost along every
// spatial axis: one float64 per cell, halo included.
type Scalar struct {
	Shape []int // [Dim], L + 2h per axis
	Ghost int
	Data  []float64 // row-major, len = product(Shape)
}

// NewScalar allocates a zeroed local scalar field for the given topology
// and ghost width.
func NewScalar(topo_ *topo.Construct, ghost int) *Scalar {
	shape := make([]int, topo_.Dim)
	n := 1
	for i, l := range topo_.LocalGridSize {
		shape[i] = l + 2*ghost
		n *= shape[i]
	}
	return &Scalar{Shape: shape, Ghost: ghost, Data: make([]float64, n)}
}

// InnerDescriptor returns the subarray descriptor of the central,
// ghost-free inner region.
func (f *Scalar) InnerDescriptor() subarray.Descriptor {
	starts := make([]int, len(f.Shape))
	subsizes := make([]int, len(f.Shape))
	for i, s := range f.Shape {
		starts[i] = f.Ghost
		subsizes[i] = s - 2*f.Ghost
	}
	return subarray.Descriptor{Sizes: append([]int(nil), f.Shape...), Starts: starts, Subsizes: subsizes}
}

// Vector is a local vector field: d leading components, each an
// independent Scalar-shaped block sharing one ghost width.
type Vector struct {
	Dim   int
	Ghost int
	Shape []int
	Comp  []*Scalar // len Dim
}

// NewVector allocates a zeroed local vector field.
func NewVector(topo_ *topo.Construct, ghost int) *Vector {
	comp := make([]*Scalar, topo_.Dim)
	var shape []int
	for c := range comp {
		comp[c] = NewScalar(topo_, ghost)
		shape = comp[c].Shape
	}
	return &Vector{Dim: topo_.Dim, Ghost: ghost, Shape: shape, Comp: comp}
}

// CheckShape panics with a StateError-style message if f's shape does not
// match want.
func CheckShape(name string, got, want []int) {
	if len(got) != len(want) {
		chk.Panic("field: %s has rank %d, want %d", name, len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			chk.Panic("field: %s has shape %v, want %v", name, got, want)
		}
	}
}
