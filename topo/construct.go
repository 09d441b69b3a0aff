// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package topo builds the Cartesian process-grid topology that every other
// package in this module is laid out on: the global-to-local block
// decomposition, per-axis neighbor ranks, and the scalar precision
// setting (ghost and field communication always move float64 buffers).
package topo

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/mpi"
)

// Precision selects the scalar element type carried by the grid.
type Precision int

// supported precisions
const (
	Single Precision = iota
	Double
)

// Construct holds the Cartesian process-grid topology for one simulator
// instance. It is built once, lives for the lifetime of the simulator, and
// is never mutated after NewConstruct returns.
type Construct struct {
	Dim    int  // 2 or 3
	Prec   Precision
	Comm   *mpi.Communicator // world communicator; the Cartesian layout is computed by this package
	Rank   int               // this process' rank within Comm
	Size   int               // number of ranks in Comm

	GlobalGridSize []int // [Dim] G
	ProcessTopology []int // [Dim] T, G mod T == 0
	LocalGridSize  []int // [Dim] L = G / T

	Periodic []bool // [Dim] periodic wrap flag per axis
	Coords   []int  // [Dim] this rank's coordinates in the process grid

	PrevNeighbor []int // [Dim] rank of the previous neighbor along each axis
	NextNeighbor []int // [Dim] rank of the next neighbor along each axis
}

// NoNeighbor marks a missing neighbor on a non-periodic domain boundary,
// mirroring MPI_PROC_NULL: sends/receives addressed to it are no-ops.
const NoNeighbor = -1

// NewConstruct builds the Cartesian topology for a dim-dimensional grid of
// globalGridSize cells, distributed across mpi.Size() ranks.
//
// rankDistribution may be nil or all-zero to request full auto-sizing; a
// zero entry means "let this axis be auto-sized", a positive entry pins the
// process count along that axis. In 3D at least one axis of the resulting
// ProcessTopology must equal 1, because the Poisson solver downstream relies
// on a slab-decomposed FFT along an uncut axis (see DESIGN.md §Open
// Questions): an explicit rankDistribution with no unit axis is rejected
// immediately rather than silently corrected.
func NewConstruct(globalGridSize []int, rankDistribution []int, periodic []bool, prec Precision) *Construct {
	dim := len(globalGridSize)
	if dim != 2 && dim != 3 {
		chk.Panic("topo: grid dimension must be 2 or 3; got %d", dim)
	}
	if !mpi.IsOn() {
		mpi.Start()
	}
	world := mpi.NewCommunicator(nil)
	size := world.Size()
	rank := world.Rank()

	distr := make([]int, dim)
	if rankDistribution == nil {
		// auto-distribute every axis, except force the last axis to 1 in 3D
		// so the global Poisson FFT can slab-decompose along it.
		if dim == 3 {
			distr[dim-1] = 1
		}
	} else {
		if len(rankDistribution) != dim {
			chk.Panic("topo: rank_distribution length %d does not match grid dimension %d", len(rankDistribution), dim)
		}
		copy(distr, rankDistribution)
		// an all-zero distribution is full auto-sizing, same as nil.
		allZero := true
		for _, d := range distr {
			if d != 0 {
				allZero = false
			}
		}
		if dim == 3 && allZero {
			distr[dim-1] = 1
		}
	}
	if dim == 3 && !hasUnitAxis(distr) {
		chk.Panic("topo: rank_distribution %v needs at least one axis equal to 1 for the 3D FFT Poisson solve", distr)
	}

	topology := computeDims(size, distr)

	localSize := make([]int, dim)
	for i := 0; i < dim; i++ {
		if globalGridSize[i]%topology[i] != 0 {
			chk.Panic("topo: cannot divide global grid %v evenly across process topology %v along axis %d", globalGridSize, topology, i)
		}
		localSize[i] = globalGridSize[i] / topology[i]
	}

	per := make([]bool, dim)
	if periodic != nil {
		copy(per, periodic)
	}

	o := &Construct{
		Dim:             dim,
		Prec:            prec,
		Comm:            world,
		Rank:            rank,
		Size:            size,
		GlobalGridSize:  append([]int(nil), globalGridSize...),
		ProcessTopology: topology,
		LocalGridSize:   localSize,
		Periodic:        per,
	}
	o.Coords = coordsOf(rank, topology)
	o.PrevNeighbor = make([]int, dim)
	o.NextNeighbor = make([]int, dim)
	for axis := 0; axis < dim; axis++ {
		o.PrevNeighbor[axis], o.NextNeighbor[axis] = o.shift(axis, 1)
	}
	return o
}

func hasUnitAxis(distr []int) bool {
	for _, d := range distr {
		if d == 1 {
			return true
		}
	}
	return false
}

// computeDims mimics MPI_Dims_create: fills zero entries of distr with a
// factorization of size that respects the already-pinned (non-zero) axes.
func computeDims(size int, distr []int) []int {
	dims := append([]int(nil), distr...)
	fixed := 1
	free := 0
	for _, d := range dims {
		if d > 0 {
			fixed *= d
		} else {
			free++
		}
	}
	if free == 0 {
		if fixed != size {
			chk.Panic("topo: rank_distribution %v does not multiply to the communicator size %d", distr, size)
		}
		return dims
	}
	remaining := size / fixed
	if remaining*fixed != size {
		chk.Panic("topo: rank_distribution %v is not compatible with communicator size %d", distr, size)
	}
	// Greedily factor `remaining` into the free axes, largest-first, so the
	// grid stays as close to square/cubic as the caller's pinned axes allow.
	factors := primeFactors(remaining)
	assign := make([]int, len(dims))
	for i := range assign {
		assign[i] = 1
	}
	freeIdx := freeAxes(dims)
	for i := len(factors) - 1; i >= 0; i-- {
		// place each factor on the currently-smallest free axis
		best := freeIdx[0]
		for _, ax := range freeIdx {
			if assign[ax] < assign[best] {
				best = ax
			}
		}
		assign[best] *= factors[i]
	}
	for _, ax := range freeIdx {
		dims[ax] = assign[ax]
	}
	return dims
}

func freeAxes(distr []int) []int {
	var out []int
	for i, d := range distr {
		if d <= 0 {
			out = append(out, i)
		}
	}
	return out
}

func primeFactors(n int) []int {
	var out []int
	for n%2 == 0 {
		out = append(out, 2)
		n /= 2
	}
	for p := 3; p*p <= n; p += 2 {
		for n%p == 0 {
			out = append(out, p)
			n /= p
		}
	}
	if n > 1 {
		out = append(out, n)
	}
	return out
}

// coordsOf converts a flat rank into Cartesian coordinates, row-major
// (last axis varies fastest), matching the layout used by
// FieldCommunicator's flattened global-array offset arithmetic.
func coordsOf(rank int, topology []int) []int {
	dim := len(topology)
	coords := make([]int, dim)
	rem := rank
	for axis := dim - 1; axis >= 0; axis-- {
		coords[axis] = rem % topology[axis]
		rem /= topology[axis]
	}
	return coords
}

func rankOf(coords, topology []int) int {
	rank := 0
	for axis := 0; axis < len(topology); axis++ {
		rank = rank*topology[axis] + coords[axis]
	}
	return rank
}

// shift computes the previous/next neighbor rank along axis, honoring the
// periodic flag; returns NoNeighbor when the shift runs off a non-periodic
// boundary, mirroring MPI_Cart_shift/MPI_PROC_NULL semantics.
func (o *Construct) shift(axis, disp int) (prev, next int) {
	n := o.ProcessTopology[axis]
	c := o.Coords[axis]
	prevCoord := c - disp
	nextCoord := c + disp
	prev = o.neighborRank(axis, prevCoord, n)
	next = o.neighborRank(axis, nextCoord, n)
	return
}

func (o *Construct) neighborRank(axis, coord, n int) int {
	if coord < 0 || coord >= n {
		if !o.Periodic[axis] {
			return NoNeighbor
		}
		coord = ((coord % n) + n) % n
	}
	coords := append([]int(nil), o.Coords...)
	coords[axis] = coord
	return rankOf(coords, o.ProcessTopology)
}

// InnerBlockOrigin returns this rank's zero-origin offset (in global-cell
// coordinates) of its inner region, i.e. coords[i] * LocalGridSize[i].
func (o *Construct) InnerBlockOrigin() []int {
	origin := make([]int, o.Dim)
	for i := range origin {
		origin[i] = o.Coords[i] * o.LocalGridSize[i]
	}
	return origin
}

// CoordsOfRank exposes coordsOf for other packages (FieldCommunicator needs
// every rank's coordinates, not just its own, to address the flattened
// global array during gather/scatter).
func (o *Construct) CoordsOfRank(rank int) []int {
	return coordsOf(rank, o.ProcessTopology)
}
