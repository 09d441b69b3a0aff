// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package forcinggrid implements the body-specific ForcingGrid family of
// §4.8: the arrangement of Lagrangian marker points over an immersed
// body's surface, and the two operations that connect marker kinematics
// and marker forcing back to the body's rigid-body or rod state.
//
// The body itself (director/omega/position collections driven by a rigid
// body or Cosserat-rod mechanics library) is the read-only external
// collaborator of §6; ForcingGrid only ever reads it and writes into the
// force/torque accumulators it is handed.
package forcinggrid

// RigidBody is the read-only per-step rigid-body state contract of §6:
// position, velocity, director (rotation), and angular velocity,
// regardless of whether the body geometrically lives in a 2D or 3D flow
// (the underlying mechanics library keeps these as 3-vectors/3x3 matrices
// even for a 2D cylinder, consistent with how the collaborator library
// represents every body).
type RigidBody interface {
	Position() [3]float64
	Velocity() [3]float64
	Director() [3][3]float64 // rows are the local frame's basis vectors, expressed in the global frame
	Omega() [3]float64
	Radius() float64
}

// Grid is the ForcingGrid of §4.8: a body-specific arrangement of
// Lagrangian markers plus the two operations that move information
// between marker space and body space.
type Grid interface {
	Dim() int
	NumLagNodes() int

	// PositionField and VelocityField return dim-major arrays of length
	// dim*NumLagNodes(): component axis varies slowest.
	PositionField() []float64
	VelocityField() []float64

	// ComputeLagGridPositionField and ComputeLagGridVelocityField are
	// compute_lag_grid_position_field/compute_lag_grid_velocity_field of
	// §4.8: they refresh PositionField/VelocityField from the current body
	// state.
	ComputeLagGridPositionField()
	ComputeLagGridVelocityField()

	// TransferForcingFromGridToBody is transfer_forcing_from_grid_to_body
	// of §4.8: it reduces a dim-major marker forcing field (length
	// dim*NumLagNodes()) into the body's force/torque accumulators.
	// bodyFlowForces has length ForceLen(), bodyFlowTorques has length
	// TorqueLen(); both are written, never read.
	TransferForcingFromGridToBody(bodyFlowForces, bodyFlowTorques, lagGridForcing []float64)

	// ForceLen and TorqueLen size the bodyFlowForces/bodyFlowTorques
	// arrays TransferForcingFromGridToBody expects, so a caller can
	// allocate a reduction shaped for this grid's body representation: 3
	// and 3 for a rigid body, 3*(NumElements()+1) and 3*NumElements() for
	// a rod (§4.8: "split each element's marker-force equally to its two
	// endpoint nodes").
	ForceLen() int
	TorqueLen() int

	// MaxLagrangianGridSpacing returns the largest spacing between
	// adjacent markers.
	MaxLagrangianGridSpacing() float64
}

// Empty is the EmptyForcingGrid stand-in of §4.8/scenario S5: a
// zero-marker Grid used on every rank that is not a body's master rank,
// so call sites never need to branch on rank identity to decide whether a
// forcing grid exists.
type Empty struct {
	GridDim int
}

func (e Empty) Dim() int                       { return e.GridDim }
func (e Empty) NumLagNodes() int                { return 0 }
func (e Empty) PositionField() []float64        { return nil }
func (e Empty) VelocityField() []float64        { return nil }
func (e Empty) ComputeLagGridPositionField()     {}
func (e Empty) ComputeLagGridVelocityField()     {}
func (e Empty) TransferForcingFromGridToBody(bodyFlowForces, bodyFlowTorques, lagGridForcing []float64) {
	for i := range bodyFlowForces {
		bodyFlowForces[i] = 0
	}
	for i := range bodyFlowTorques {
		bodyFlowTorques[i] = 0
	}
}
func (e Empty) ForceLen() int                     { return 3 }
func (e Empty) TorqueLen() int                    { return 3 }
func (e Empty) MaxLagrangianGridSpacing() float64 { return 0 }
