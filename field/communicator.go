// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"github.com/SophT-Team/sopht-mpi/subarray"
	"github.com/SophT-Team/sopht-mpi/topo"
	"github.com/cpmech/gosl/chk"
)

// Communicator is the FieldCommunicator of §4.3: master<->worker
// scatter/gather of scalar and vector fields, ghost-aware so only inner
// regions are ever read from or written to.
type Communicator struct {
	topo_      *topo.Construct
	ghost      int
	masterRank int
	// inner addresses this rank's inner region inside its own (L+2h) local
	// array; globalBlock addresses the matching zero-origin L-sized slab
	// inside the G-sized global array, valid only on the master.
	inner       subarray.Descriptor
	globalBlock subarray.Descriptor
}

// NewCommunicator builds the FieldCommunicator for the given topology,
// ghost width, and master rank.
func NewCommunicator(topo_ *topo.Construct, ghost, masterRank int) *Communicator {
	if ghost < 0 {
		chk.Panic("field: ghost width must be >= 0; got %d", ghost)
	}
	localShape := make([]int, topo_.Dim)
	for i, l := range topo_.LocalGridSize {
		localShape[i] = l + 2*ghost
	}
	innerStarts := make([]int, topo_.Dim)
	innerSub := make([]int, topo_.Dim)
	for i := range innerStarts {
		innerStarts[i] = ghost
		innerSub[i] = topo_.LocalGridSize[i]
	}
	return &Communicator{
		topo_:       topo_,
		ghost:       ghost,
		masterRank:  masterRank,
		inner:       subarray.Descriptor{Sizes: localShape, Starts: innerStarts, Subsizes: innerSub},
		globalBlock: subarray.Descriptor{Sizes: append([]int(nil), topo_.GlobalGridSize...), Subsizes: append([]int(nil), topo_.LocalGridSize...)},
	}
}

// blockOrigin returns the zero-origin global start index of rank's block.
func (o *Communicator) blockOrigin(rank int) []int {
	coords := o.topo_.CoordsOfRank(rank)
	origin := make([]int, o.topo_.Dim)
	for i, c := range coords {
		origin[i] = c * o.topo_.LocalGridSize[i]
	}
	return origin
}

// comm exposes the minimal Send/Recv surface this communicator needs from
// the underlying gosl/mpi.Communicator.
type comm interface {
	Send(vals []float64, toID int)
	Recv(vals []float64, fromID int)
}

// GatherScalar is the gather_local_scalar_field operation of §4.3:
// executed collectively, it assembles the inner regions of every rank's
// local field into the master's global field.
func (o *Communicator) GatherScalar(global *GlobalScalar, local *Scalar) {
	var c comm = o.topo_.Comm
	if o.topo_.Rank == o.masterRank {
		origin := o.blockOrigin(o.masterRank)
		block := o.globalBlock
		block.Starts = origin
		block.Unpack(global.Data, o.inner.Pack(local.Data))
		for rank := 0; rank < o.topo_.Size; rank++ {
			if rank == o.masterRank {
				continue
			}
			buf := make([]float64, o.globalBlock.Count())
			c.Recv(buf, rank)
			rblock := o.globalBlock
			rblock.Starts = o.blockOrigin(rank)
			rblock.Unpack(global.Data, buf)
		}
	} else {
		c.Send(o.inner.Pack(local.Data), o.masterRank)
	}
}

// ScatterScalar is the scatter_global_scalar_field operation of §4.3: the
// mirror of GatherScalar.
func (o *Communicator) ScatterScalar(local *Scalar, global *GlobalScalar) {
	var c comm = o.topo_.Comm
	if o.topo_.Rank == o.masterRank {
		origin := o.blockOrigin(o.masterRank)
		block := o.globalBlock
		block.Starts = origin
		o.inner.Unpack(local.Data, block.Pack(global.Data))
		for rank := 0; rank < o.topo_.Size; rank++ {
			if rank == o.masterRank {
				continue
			}
			rblock := o.globalBlock
			rblock.Starts = o.blockOrigin(rank)
			c.Send(rblock.Pack(global.Data), rank)
		}
	} else {
		buf := make([]float64, o.globalBlock.Count())
		c.Recv(buf, o.masterRank)
		o.inner.Unpack(local.Data, buf)
	}
}

// GatherVector / ScatterVector iterate GatherScalar / ScatterScalar per
// component.
func (o *Communicator) GatherVector(global *GlobalVector, local *Vector) {
	for i := range local.Comp {
		o.GatherScalar(global.Comp[i], local.Comp[i])
	}
}

func (o *Communicator) ScatterVector(local *Vector, global *GlobalVector) {
	for i := range local.Comp {
		o.ScatterScalar(local.Comp[i], global.Comp[i])
	}
}

// GlobalScalar is the master-only, full-G-sized counterpart of Scalar.
// Non-master ranks may leave Data nil; it is never read on workers.
type GlobalScalar struct {
	Shape []int
	Data  []float64
}

// NewGlobalScalar allocates a zeroed G-sized field for use on the master.
func NewGlobalScalar(topo_ *topo.Construct) *GlobalScalar {
	n := 1
	for _, g := range topo_.GlobalGridSize {
		n *= g
	}
	return &GlobalScalar{Shape: append([]int(nil), topo_.GlobalGridSize...), Data: make([]float64, n)}
}

// GlobalVector is the vector counterpart of GlobalScalar.
type GlobalVector struct {
	Comp []*GlobalScalar
}

// NewGlobalVector allocates a zeroed G-sized vector field.
func NewGlobalVector(topo_ *topo.Construct) *GlobalVector {
	comp := make([]*GlobalScalar, topo_.Dim)
	for i := range comp {
		comp[i] = NewGlobalScalar(topo_)
	}
	return &GlobalVector{Comp: comp}
}
