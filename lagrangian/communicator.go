// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lagrangian implements the LagrangianFieldCommunicator of §4.5:
// given a set of marker positions, it determines which rank owns each
// marker this step, and routes scatter/gather of per-marker quantities
// accordingly. Ownership is recomputed every coupling step (§3, §5):
// nothing marker-keyed survives across a RankAndMap call.
package lagrangian

import (
	"github.com/SophT-Team/sopht-mpi/topo"
	"github.com/cpmech/gosl/chk"
)

// Reduction selects how Gather combines duplicate contributions to the
// same global marker index. Markers are uniquely owned in this module
// (§4.5), so Assign and Sum are observationally identical today; Sum is
// kept for forward-compatibility with a future overlapping-support
// coupling kernel, per the spec's own rationale.
type Reduction int

const (
	Assign Reduction = iota
	Sum
)

// bcaster is the minimal collective surface this package needs from the
// underlying gosl/mpi.Communicator.
type bcaster interface {
	Bcast(vals []float64, root int)
	Send(vals []float64, toID int)
	Recv(vals []float64, fromID int)
}

// Communicator is the LagrangianFieldCommunicator of §4.5, scoped to one
// body's marker set.
type Communicator struct {
	topo_      *topo.Construct
	masterRank int
	n          int
	dx         float64
	origin     []int // this rank's inner-region lower cell index per axis, i.e. coords*L

	// localIndices are the global indices of markers owned by this rank as
	// of the most recent RankAndMap call.
	localIndices []int
	// perRankIndices is populated on the master only, after gathering every
	// rank's localIndices, establishing this step's deterministic scatter
	// map.
	perRankIndices [][]int
}

// NewCommunicator builds the communicator for a body with n global
// markers, cell spacing dx, on the given topology.
func NewCommunicator(topo_ *topo.Construct, masterRank, n int, dx float64) *Communicator {
	if n < 0 {
		chk.Panic("lagrangian: marker count must be >= 0; got %d", n)
	}
	if dx <= 0 {
		chk.Panic("lagrangian: cell spacing dx must be > 0; got %g", dx)
	}
	return &Communicator{
		topo_:      topo_,
		masterRank: masterRank,
		n:          n,
		dx:         dx,
		origin:     topo_.InnerBlockOrigin(),
	}
}

// LocalIndices returns the global indices of markers currently owned by
// this rank (valid until the next RankAndMap call).
func (o *Communicator) LocalIndices() []int { return o.localIndices }

// RankAndMap executes one rank_and_map step (§4.5), collectively:
//   - the master broadcasts positionsGlobal (flattened, dim-major, i.e.
//     positionsGlobal[axis*n+i] is marker i's coordinate along axis) to
//     every rank;
//   - each rank classifies every marker by owning coordinates;
//   - local index sets are gathered to the master to fix this step's
//     deterministic scatter map.
func (o *Communicator) RankAndMap(positionsGlobal []float64) {
	dim := o.topo_.Dim
	flat := positionsGlobal
	if o.topo_.Rank == o.masterRank {
		if len(flat) != dim*o.n {
			chk.Panic("lagrangian: positionsGlobal has length %d, want %d", len(flat), dim*o.n)
		}
	} else {
		flat = make([]float64, dim*o.n)
	}
	var b bcaster = o.topo_.Comm
	b.Bcast(flat, o.masterRank)

	o.localIndices = o.localIndices[:0]
	for i := 0; i < o.n; i++ {
		if o.owns(flat, i) {
			o.localIndices = append(o.localIndices, i)
		}
	}

	o.gatherIndexSets(b)
}

// owns implements the ownership predicate of §4.5: marker i is owned by
// this rank iff floor(pos_i/dx) falls inside this rank's inner cell
// range along every axis. Upper boundaries belong to the next rank
// (half-open interval), except at the global upper boundary, where the
// floor-division result is clamped into the last rank's range.
func (o *Communicator) owns(flat []float64, i int) bool {
	dim := o.topo_.Dim
	for axis := 0; axis < dim; axis++ {
		pos := flat[axis*o.n+i]
		cell := int(pos / o.dx)
		if cell < 0 {
			cell = 0
		}
		if g := o.topo_.GlobalGridSize[axis]; cell >= g {
			cell = g - 1
		}
		lo := o.origin[axis]
		hi := lo + o.topo_.LocalGridSize[axis]
		if cell < lo || cell >= hi {
			return false
		}
	}
	return true
}

// gatherIndexSets gathers every rank's localIndices to the master as a
// flat (count, index...) stream per rank, establishing perRankIndices.
func (o *Communicator) gatherIndexSets(b bcaster) {
	if o.topo_.Rank == o.masterRank {
		o.perRankIndices = make([][]int, o.topo_.Size)
		o.perRankIndices[o.masterRank] = append([]int(nil), o.localIndices...)
		for rank := 0; rank < o.topo_.Size; rank++ {
			if rank == o.masterRank {
				continue
			}
			countBuf := make([]float64, 1)
			b.Recv(countBuf, rank)
			count := int(countBuf[0])
			idxBuf := make([]float64, count)
			if count > 0 {
				b.Recv(idxBuf, rank)
			}
			indices := make([]int, count)
			for i, v := range idxBuf {
				indices[i] = int(v)
			}
			o.perRankIndices[rank] = indices
		}
	} else {
		b.Send([]float64{float64(len(o.localIndices))}, o.masterRank)
		if len(o.localIndices) > 0 {
			buf := make([]float64, len(o.localIndices))
			for i, v := range o.localIndices {
				buf[i] = float64(v)
			}
			b.Send(buf, o.masterRank)
		}
	}
}

// ScatterScalar routes a master-held, N-length global array down to each
// rank's locally-owned subset, ordered to match LocalIndices().
func (o *Communicator) ScatterScalar(globalValues []float64) []float64 {
	var b bcaster = o.topo_.Comm
	if o.topo_.Rank == o.masterRank {
		var own []float64
		for rank := 0; rank < o.topo_.Size; rank++ {
			indices := o.perRankIndices[rank]
			buf := make([]float64, len(indices))
			for i, gi := range indices {
				buf[i] = globalValues[gi]
			}
			if rank == o.masterRank {
				own = buf
				continue
			}
			if len(buf) > 0 {
				b.Send(buf, rank)
			}
		}
		return own
	}
	buf := make([]float64, len(o.localIndices))
	if len(buf) > 0 {
		b.Recv(buf, o.masterRank)
	}
	return buf
}

// ScatterVector scatters a dim-major [dim*N]float64 global array,
// returning a dim-major [dim*len(local)]float64 local array.
func (o *Communicator) ScatterVector(globalValues []float64) []float64 {
	dim := o.topo_.Dim
	out := make([]float64, 0, dim*len(o.localIndices))
	for axis := 0; axis < dim; axis++ {
		out = append(out, o.ScatterScalar(globalValues[axis*o.n:(axis+1)*o.n])...)
	}
	return out
}

// GatherScalar reduces each rank's locally-owned contributions back into
// a master-held, N-length global array. Only the master's return value is
// meaningful; workers return nil.
func (o *Communicator) GatherScalar(localValues []float64, reduction Reduction) []float64 {
	if len(localValues) != len(o.localIndices) {
		chk.Panic("lagrangian: localValues has length %d, want %d", len(localValues), len(o.localIndices))
	}
	var b bcaster = o.topo_.Comm
	if o.topo_.Rank == o.masterRank {
		out := make([]float64, o.n)
		apply := func(indices []int, vals []float64) {
			for i, gi := range indices {
				switch reduction {
				case Sum:
					out[gi] += vals[i]
				default:
					out[gi] = vals[i]
				}
			}
		}
		apply(o.localIndices, localValues)
		for rank := 0; rank < o.topo_.Size; rank++ {
			if rank == o.masterRank {
				continue
			}
			indices := o.perRankIndices[rank]
			if len(indices) == 0 {
				continue
			}
			buf := make([]float64, len(indices))
			b.Recv(buf, rank)
			apply(indices, buf)
		}
		return out
	}
	if len(localValues) > 0 {
		b.Send(localValues, o.masterRank)
	}
	return nil
}

// GatherVector is the vector counterpart of GatherScalar, dim-major in
// both the local and global layouts.
func (o *Communicator) GatherVector(localValues []float64, reduction Reduction) []float64 {
	dim := o.topo_.Dim
	nLocal := len(o.localIndices)
	var out []float64
	if o.topo_.Rank == o.masterRank {
		out = make([]float64, dim*o.n)
	}
	for axis := 0; axis < dim; axis++ {
		g := o.GatherScalar(localValues[axis*nLocal:(axis+1)*nLocal], reduction)
		if g != nil {
			copy(out[axis*o.n:(axis+1)*o.n], g)
		}
	}
	return out
}
