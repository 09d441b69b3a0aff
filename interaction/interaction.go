// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package interaction implements ImmersedBodyFlowInteraction (§4.8): it
// composes lagrangian, vboundary, and a body-specific forcinggrid.Grid
// into the per-step coupling between one immersed body and the Eulerian
// flow fields it shares a subdomain decomposition with.
package interaction

import (
	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/SophT-Team/sopht-mpi/forcinggrid"
	"github.com/SophT-Team/sopht-mpi/ghost"
	"github.com/SophT-Team/sopht-mpi/lagrangian"
	"github.com/SophT-Team/sopht-mpi/topo"
	"github.com/SophT-Team/sopht-mpi/vboundary"
	"github.com/cpmech/gosl/chk"
)

// ExternalForceSink is the write-only half of §6's rigid body / rod state
// contract: the accumulators a body exposes for a flow interaction to
// deposit its net force and torque into every step. Reading body state
// (position, velocity, director, omega) is forcinggrid.RigidBody's job;
// writing forcing back is this one's. It is fed through ApplyTo, not
// Step, matching the original's separate FlowForces adapter (§12).
type ExternalForceSink interface {
	AccumulateExternalForce(force []float64)
	AccumulateExternalTorque(torque []float64)
}

// FlowInteraction is ImmersedBodyFlowInteraction (§4.8): one instance
// couples one body's forcing grid to the Eulerian velocity and forcing
// fields shared by the enclosing FlowSimulator.
type FlowInteraction struct {
	topo_ *topo.Construct
	dim   int
	dx    float64

	grid forcinggrid.Grid
	lag  *lagrangian.Communicator
	kern vboundary.DeltaKernel
	law  *vboundary.Forcing

	ghostVel *ghost.Communicator // used for the halo sum-back after spreading

	// master-held, N-length (dim-major) per-marker state that survives
	// ownership churn across RankAndMap calls, per §5.
	virtualPos []float64
	z          []float64
	sigmaZdt   []float64

	isMaster bool
}

// Config bundles FlowInteraction's construction-time parameters.
type Config struct {
	Dx           float64
	MasterRank   int
	Stiffness    float64
	Damping      float64
	IntegralGain float64
}

// NewFlowInteraction builds a FlowInteraction for one body, given its
// forcinggrid.Grid, the Eulerian topology/ghost communicator it couples
// against, and the penalty-law gains of §4.6.
//
// A dimension mismatch between grid.Dim() and topo_.Dim is a ConfigError,
// fatal at construction per §4.8's "3D forcing grid against 2D topology
// is fatal".
func NewFlowInteraction(topo_ *topo.Construct, ghostVel *ghost.Communicator, grid forcinggrid.Grid, cfg Config) *FlowInteraction {
	if grid.Dim() != topo_.Dim {
		chk.Panic("interaction: forcing grid dimension %d does not match topology dimension %d", grid.Dim(), topo_.Dim)
	}
	n := grid.NumLagNodes()
	o := &FlowInteraction{
		topo_:      topo_,
		dim:        topo_.Dim,
		dx:         cfg.Dx,
		grid:       grid,
		lag:        lagrangian.NewCommunicator(topo_, cfg.MasterRank, n, cfg.Dx),
		kern:       vboundary.DeltaKernel{HalfWidth: requireSupport(ghostVel, grid)},
		law:        vboundary.NewForcing(topo_.Dim, cfg.Stiffness, cfg.Damping, cfg.IntegralGain),
		ghostVel:   ghostVel,
		virtualPos: make([]float64, topo_.Dim*n),
		z:          make([]float64, topo_.Dim*n),
		sigmaZdt:   make([]float64, topo_.Dim*n),
		isMaster:   topo_.Rank == cfg.MasterRank,
	}
	return o
}

// requireSupport returns the delta kernel's half-width, fixed at 2 cells
// (the grid's marker spacing is not consulted), and checks it against the ghost communicator's width (§4.7: "ghost width h
// must be >= w"), raising a CapacityError otherwise.
func requireSupport(ghostVel *ghost.Communicator, grid forcinggrid.Grid) int {
	support := 2
	if ghostVel.GhostWidth() < support {
		chk.Panic("interaction: ghost width %d is smaller than delta-kernel support %d", ghostVel.GhostWidth(), support)
	}
	_ = grid
	return support
}

// Step executes one ImmersedBodyFlowInteraction coupling step (§4.8):
//
//	update forcing_grid
//	rank-map markers
//	scatter positions/velocities to owners
//	sample Eulerian velocity
//	apply virtual-boundary law
//	spread marker force onto eulForcing with halo-add
//	gather marker forces to master
//	reduce to body forces/torques, returned (the caller feeds them to ApplyTo)
//
// eulVel is read-only (already halo-exchanged by the caller this step);
// eulForcing is zeroed by the caller before Step and accumulated into via
// spreading; the caller is responsible for running
// ghost.Communicator.ExchangeVectorInit/Finalise on eulForcing afterward
// if any downstream stencil reads its halo (§4.7 ordering rule).
//
// Step returns the body's net force and torque, shaped by the grid's
// ForceLen/TorqueLen (3 and 3 for a rigid body; 3*(NumElements()+1) and
// 3*NumElements() for a rod, per §4.8's "split each element's
// marker-force equally to its two endpoint nodes"), and whether they are
// meaningful on this rank — only the master rank reduces a complete
// marker-force gather, so ok is false elsewhere. The caller feeds a true
// result into ApplyTo.
func (o *FlowInteraction) Step(dt float64, eulVel, eulForcing *field.Vector) (force, torque []float64, ok bool) {
	o.grid.ComputeLagGridPositionField()
	o.grid.ComputeLagGridVelocityField()

	posGlobal := o.grid.PositionField()
	velGlobal := o.grid.VelocityField()
	o.lag.RankAndMap(posGlobal)

	localPos := o.lag.ScatterVector(posGlobal)
	localVel := o.lag.ScatterVector(velGlobal)
	nLocal := len(o.lag.LocalIndices())

	localCoords := make([][]float64, nLocal)
	for i := range localCoords {
		coord := make([]float64, o.dim)
		for a := 0; a < o.dim; a++ {
			coord[a] = localPos[a*nLocal+i] / o.dx
		}
		localCoords[i] = o.toLocalCellCoord(coord)
	}

	localFlowVel := make([]float64, o.dim*nLocal)
	for i, coord := range localCoords {
		sampled := o.kern.InterpolateVector(eulVel, coord)
		for a := 0; a < o.dim; a++ {
			localFlowVel[a*nLocal+i] = sampled[a]
		}
	}

	localVirtualPos := o.lag.ScatterVector(o.virtualPos)
	localZ := o.lag.ScatterVector(o.z)
	localSigmaZdt := o.lag.ScatterVector(o.sigmaZdt)

	localForce := o.law.Step(dt, nLocal, localPos, localVel, localFlowVel, localVirtualPos, localZ, localSigmaZdt)

	for i, coord := range localCoords {
		value := make([]float64, o.dim)
		for a := 0; a < o.dim; a++ {
			value[a] = localForce[a*nLocal+i]
		}
		o.kern.SpreadVector(eulForcing, coord, value, o.dx, o.dim)
	}

	o.ghostVel.HaloAddVectorInit(eulForcing)
	if err := o.ghostVel.FinaliseHaloAdd(); err != nil {
		chk.Panic("interaction: halo sum-back failed: %v", err)
	}

	globalVirtualPos := o.lag.GatherVector(localVirtualPos, lagrangian.Assign)
	globalZ := o.lag.GatherVector(localZ, lagrangian.Assign)
	globalSigmaZdt := o.lag.GatherVector(localSigmaZdt, lagrangian.Assign)
	if o.isMaster {
		copy(o.virtualPos, globalVirtualPos)
		copy(o.z, globalZ)
		copy(o.sigmaZdt, globalSigmaZdt)
	}

	globalForce := o.lag.GatherVector(localForce, lagrangian.Sum)
	if !o.isMaster {
		return nil, nil, false
	}

	force = make([]float64, o.grid.ForceLen())
	torque = make([]float64, o.grid.TorqueLen())
	o.grid.TransferForcingFromGridToBody(force, torque, globalForce)
	return force, torque, true
}

// toLocalCellCoord converts a global cell coordinate (in units of dx) into
// this rank's local, ghost-included index space by subtracting the inner
// block's origin and adding the ghost width.
func (o *FlowInteraction) toLocalCellCoord(globalCoord []float64) []float64 {
	origin := o.topo_.InnerBlockOrigin()
	out := make([]float64, o.dim)
	for a := range out {
		out[a] = globalCoord[a] - float64(origin[a]) + float64(o.ghostVel.GhostWidth())
	}
	return out
}

// GridDeviationErrorL2Norm returns the master-held Z array's L2 norm,
// valid only on the master rank.
func (o *FlowInteraction) GridDeviationErrorL2Norm() float64 {
	return vboundary.GridDeviationErrorL2Norm(o.z, o.dim, o.grid.NumLagNodes())
}

// ApplyTo is the FlowForces adapter of §12: it copies a Step result into
// sink's accumulators, matching the original's standalone per-step "copy
// forces onto the body" adapter rather than folding that responsibility
// into Step itself.
func ApplyTo(sink ExternalForceSink, force, torque []float64) {
	sink.AccumulateExternalForce(force)
	sink.AccumulateExternalTorque(torque)
}
