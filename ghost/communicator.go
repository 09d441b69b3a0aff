// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ghost implements the non-blocking halo exchange of §4.2: faces
// in every dimension, plus edges and corners in 3D when full exchange is
// requested. Subarray descriptors for every direction are built once at
// construction and reused every step, avoiding per-step pack/unpack
// allocation churn beyond the transfer buffers themselves.
package ghost

import (
	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/SophT-Team/sopht-mpi/mpix"
	"github.com/SophT-Team/sopht-mpi/subarray"
	"github.com/SophT-Team/sopht-mpi/topo"
	"github.com/cpmech/gosl/chk"
)

// direction identifies one neighbor to exchange with: a combination of
// per-axis offsets in {-1, 0, +1}, not all zero. A single nonzero offset is
// a face; two nonzero offsets (3D only) is an edge; three is a corner.
type direction struct {
	offsets []int
	send    subarray.Descriptor
	recv    subarray.Descriptor
	// neighborRank is resolved once per direction at construction from the
	// per-axis prev/next neighbor ranks, composing the axis shifts.
	neighborRank int
}

// Communicator is the GhostCommunicator of §4.2. One instance is built per
// (topology, ghost width) pair and kept for the simulator's lifetime.
type Communicator struct {
	topo_          *topo.Construct
	ghost          int
	dirs           []direction
	opposite       []int
	queue          mpix.Queue
	pendingUnpacks []pendingUnpack
	pendingAdds    []pendingUnpack
	transport
}

// transport adapts topo.Construct.Comm's blocking Send/Recv to the
// mpix.Transport interface that drives non-blocking posting; gosl/mpi does
// not expose MPI_Isend/Irecv directly (see mpix package doc), so every
// non-blocking request here is a goroutine wrapping a blocking call.
type transport struct {
	comm interface {
		Send(vals []float64, toID int)
		Recv(vals []float64, fromID int)
	}
}

func (t transport) Send(vals []float64, toRank int) { t.comm.Send(vals, toRank) }
func (t transport) Recv(vals []float64, fromRank int) { t.comm.Recv(vals, fromRank) }

// NewCommunicator builds the face (and, if fullExchange, edge/corner)
// subarray descriptor pairs for topo_ and the given ghost width h.
//
// h must be >= 1, enforced as a ConfigError (fatal at construction, per
// §7) since a halo exchange with zero width is a caller bug, not a
// degenerate no-op.
func NewCommunicator(topo_ *topo.Construct, h int, fullExchange bool) *Communicator {
	if h < 1 {
		chk.Panic("ghost: ghost width must be >= 1; got %d", h)
	}
	o := &Communicator{
		topo_:     topo_,
		ghost:     h,
		transport: transport{comm: topo_.Comm},
	}
	var offsets [][]int
	if topo_.Dim == 2 || !fullExchange {
		offsets = faceOffsets(topo_.Dim)
	} else {
		offsets = append(faceOffsets(topo_.Dim), edgeAndCornerOffsets(topo_.Dim)...)
	}
	for _, off := range offsets {
		o.dirs = append(o.dirs, o.buildDirection(off))
	}
	o.opposite = make([]int, len(o.dirs))
	for i, d := range o.dirs {
		o.opposite[i] = findOpposite(o.dirs, d.offsets)
	}
	return o
}

// findOpposite returns the index of the direction whose offsets are the
// negation of off, used by the halo-add pass to pair each halo slab with
// the neighbor's matching inner slab.
func findOpposite(dirs []direction, off []int) int {
	for i, d := range dirs {
		match := true
		for axis := range off {
			if d.offsets[axis] != -off[axis] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// faceOffsets returns the 2*dim face directions: +/-1 along exactly one
// axis.
func faceOffsets(dim int) [][]int {
	var out [][]int
	for axis := 0; axis < dim; axis++ {
		for _, s := range []int{-1, 1} {
			off := make([]int, dim)
			off[axis] = s
			out = append(out, off)
		}
	}
	return out
}

// edgeAndCornerOffsets returns the 12 edge directions (two nonzero axes)
// and 8 corner directions (three nonzero axes) for a 3D full exchange.
func edgeAndCornerOffsets(dim int) [][]int {
	if dim != 3 {
		return nil
	}
	var out [][]int
	signs := []int{-1, 1}
	// edges: pick 2 of 3 axes nonzero
	for a := 0; a < 3; a++ {
		for b := a + 1; b < 3; b++ {
			for _, sa := range signs {
				for _, sb := range signs {
					off := make([]int, 3)
					off[a], off[b] = sa, sb
					out = append(out, off)
				}
			}
		}
	}
	// corners: all 3 axes nonzero
	for _, sx := range signs {
		for _, sy := range signs {
			for _, sz := range signs {
				out = append(out, []int{sx, sy, sz})
			}
		}
	}
	return out
}

// buildDirection resolves the neighbor rank and (send, recv) descriptor
// pair for one offset vector, composing per-axis shifts: a face uses a
// single axis's prev/next neighbor directly, while an edge/corner composes
// the coordinate shift across every nonzero axis and maps back to a rank.
func (o *Communicator) buildDirection(offsets []int) direction {
	dim := o.topo_.Dim
	coords := append([]int(nil), o.topo_.Coords...)
	outOfDomain := false
	for axis, s := range offsets {
		if s == 0 {
			continue
		}
		n := o.topo_.ProcessTopology[axis]
		c := coords[axis] + s
		if c < 0 || c >= n {
			if !o.topo_.Periodic[axis] {
				outOfDomain = true
				continue
			}
			c = ((c % n) + n) % n
		}
		coords[axis] = c
	}
	rank := topo.NoNeighbor
	if !outOfDomain {
		rank = rankOf(coords, o.topo_.ProcessTopology)
	}

	fieldShape := make([]int, dim)
	for i, l := range o.topo_.LocalGridSize {
		fieldShape[i] = l + 2*o.ghost
	}

	sendStarts := make([]int, dim)
	recvStarts := make([]int, dim)
	subsizes := make([]int, dim)
	for axis, s := range offsets {
		switch s {
		case 0:
			subsizes[axis] = fieldShape[axis]
			sendStarts[axis] = 0
			recvStarts[axis] = 0
		case 1: // send to next: outgoing inner slab at the upper edge, incoming into the upper halo
			subsizes[axis] = o.ghost
			sendStarts[axis] = fieldShape[axis] - 2*o.ghost
			recvStarts[axis] = fieldShape[axis] - o.ghost
		case -1: // send to previous: outgoing inner slab at the lower edge, incoming into the lower halo
			subsizes[axis] = o.ghost
			sendStarts[axis] = o.ghost
			recvStarts[axis] = 0
		}
	}
	return direction{
		offsets:      offsets,
		neighborRank: rank,
		send:         subarray.Descriptor{Sizes: fieldShape, Subsizes: subsizes, Starts: sendStarts},
		recv:         subarray.Descriptor{Sizes: fieldShape, Subsizes: subsizes, Starts: recvStarts},
	}
}

func rankOf(coords, topology []int) int {
	rank := 0
	for axis := 0; axis < len(topology); axis++ {
		rank = rank*topology[axis] + coords[axis]
	}
	return rank
}

// ExchangeScalarInit posts, for every direction, a non-blocking receive
// into the incoming halo and a non-blocking send from the opposing inner
// slab. Must be paired with a later Finalise call before f's halo or inner
// region is touched again.
func (o *Communicator) ExchangeScalarInit(f *field.Scalar) {
	for _, d := range o.dirs {
		recvBuf := make([]float64, d.recv.Count())
		o.queue.Post(mpix.IRecv(o.transport, recvBuf, d.neighborRank))
		if d.neighborRank != topo.NoNeighbor {
			o.pendingUnpacks = append(o.pendingUnpacks, pendingUnpack{field: f.Data, desc: d.recv, buf: recvBuf})
		}

		sendBuf := d.send.Pack(f.Data)
		o.queue.Post(mpix.ISend(o.transport, sendBuf, d.neighborRank))
	}
}

// ExchangeVectorInit calls ExchangeScalarInit for every component.
func (o *Communicator) ExchangeVectorInit(v *field.Vector) {
	for _, c := range v.Comp {
		o.ExchangeScalarInit(c)
	}
}

// pendingUnpack defers writing a received buffer into its field until
// Finalise has confirmed the transfer landed, so a field is never
// partially overwritten by an in-flight receive.
type pendingUnpack struct {
	field []float64
	desc  subarray.Descriptor
	buf   []float64
}

// Finalise waits on every queued request, unpacks completed receives into
// their destination halos, and clears the queue. Correctness requires that
// between Init and Finalise the caller writes into neither the inner
// slabs being sent nor the halo being received.
func (o *Communicator) Finalise() error {
	err := o.queue.WaitAll()
	for _, u := range o.pendingUnpacks {
		u.desc.Unpack(u.field, u.buf)
	}
	o.pendingUnpacks = o.pendingUnpacks[:0]
	return err
}

// GhostWidth returns the halo thickness this communicator was built for.
func (o *Communicator) GhostWidth() int { return o.ghost }

// HaloAddScalarInit posts the "halo sum-back" pass of §4.7: each rank
// ships the spreading contributions it wrote into its own halo to the
// neighbor that owns those cells as inner region, to be added (not
// overwritten) there. Must be paired with a later FinaliseHaloAdd.
func (o *Communicator) HaloAddScalarInit(f *field.Scalar) {
	for i, d := range o.dirs {
		j := o.opposite[i]
		if j < 0 {
			continue
		}
		sendBuf := d.recv.Pack(f.Data)
		o.queue.Post(mpix.ISend(o.transport, sendBuf, d.neighborRank))

		recvBuf := make([]float64, o.dirs[j].send.Count())
		o.queue.Post(mpix.IRecv(o.transport, recvBuf, o.dirs[j].neighborRank))
		o.pendingAdds = append(o.pendingAdds, pendingUnpack{field: f.Data, desc: o.dirs[j].send, buf: recvBuf})
	}
}

// HaloAddVectorInit calls HaloAddScalarInit for every component.
func (o *Communicator) HaloAddVectorInit(v *field.Vector) {
	for _, c := range v.Comp {
		o.HaloAddScalarInit(c)
	}
}

// FinaliseHaloAdd waits on every queued halo-add request and adds each
// completed receive into its destination inner slab.
func (o *Communicator) FinaliseHaloAdd() error {
	err := o.queue.WaitAll()
	for _, u := range o.pendingAdds {
		u.desc.Add(u.field, u.buf)
	}
	o.pendingAdds = o.pendingAdds[:0]
	return err
}
