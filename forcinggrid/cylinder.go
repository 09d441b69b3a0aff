// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package forcinggrid

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// CircularCylinderGrid is the CircularCylinderForcingGrid of §4.8: a ring
// of markers evenly spaced around a 2D circular cylinder's boundary.
type CircularCylinderGrid struct {
	body     RigidBody
	numNodes int

	localFrameRelPos [][2]float64 // fixed, set once at construction
	globalFrameRelPos [][2]float64
	position         []float64 // dim-major, length 2*numNodes
	velocity         []float64
}

// NewCircularCylinderGrid builds the ring of numForcingPoints markers
// around rigidBody's boundary, in the XY plane (§4.8: "cylinder surface
// ring").
func NewCircularCylinderGrid(rigidBody RigidBody, numForcingPoints int) *CircularCylinderGrid {
	if numForcingPoints < 3 {
		chk.Panic("forcinggrid: cylinder forcing grid needs at least 3 points; got %d", numForcingPoints)
	}
	o := &CircularCylinderGrid{
		body:     rigidBody,
		numNodes: numForcingPoints,
	}
	dtheta := 2 * math.Pi / float64(numForcingPoints)
	o.localFrameRelPos = make([][2]float64, numForcingPoints)
	for i := 0; i < numForcingPoints; i++ {
		theta := dtheta/2 + float64(i)*dtheta
		o.localFrameRelPos[i] = [2]float64{
			rigidBody.Radius() * math.Cos(theta),
			rigidBody.Radius() * math.Sin(theta),
		}
	}
	o.globalFrameRelPos = make([][2]float64, numForcingPoints)
	o.position = make([]float64, 2*numForcingPoints)
	o.velocity = make([]float64, 2*numForcingPoints)
	o.ComputeLagGridPositionField()
	o.ComputeLagGridVelocityField()
	return o
}

func (o *CircularCylinderGrid) Dim() int          { return 2 }
func (o *CircularCylinderGrid) NumLagNodes() int  { return o.numNodes }
func (o *CircularCylinderGrid) PositionField() []float64 { return o.position }
func (o *CircularCylinderGrid) VelocityField() []float64 { return o.velocity }

func (o *CircularCylinderGrid) ForceLen() int  { return 3 }
func (o *CircularCylinderGrid) TorqueLen() int { return 3 }

func (o *CircularCylinderGrid) MaxLagrangianGridSpacing() float64 {
	return o.body.Radius() * (2 * math.Pi / float64(o.numNodes))
}

// ComputeLagGridPositionField rotates the fixed local-frame relative
// positions into the global frame using the body's in-plane director
// block, then offsets by the body's center, matching the original's
// director_collection[:2,:2,0].T @ local_frame_relative_position_field.
func (o *CircularCylinderGrid) ComputeLagGridPositionField() {
	d := o.body.Director()
	pos := o.body.Position()
	for i, rel := range o.localFrameRelPos {
		gx := d[0][0]*rel[0] + d[1][0]*rel[1]
		gy := d[0][1]*rel[0] + d[1][1]*rel[1]
		o.globalFrameRelPos[i] = [2]float64{gx, gy}
		o.position[0*o.numNodes+i] = pos[0] + gx
		o.position[1*o.numNodes+i] = pos[1] + gy
	}
}

// ComputeLagGridVelocityField adds the rigid rotation's ω×r contribution
// to the body's translational velocity; d3 (the out-of-plane axis) is
// aligned with global Z for a 2D cylinder, so ω is effectively scalar.
func (o *CircularCylinderGrid) ComputeLagGridVelocityField() {
	d := o.body.Director()
	v := o.body.Velocity()
	omega := o.body.Omega()
	omegaZ := d[2][2] * omega[2]
	for i, rel := range o.globalFrameRelPos {
		o.velocity[0*o.numNodes+i] = v[0] - omegaZ*rel[1]
		o.velocity[1*o.numNodes+i] = v[1] + omegaZ*rel[0]
	}
}

// TransferForcingFromGridToBody reduces marker forcing into net force and
// torque on the cylinder: force is minus the sum of marker forces
// (Newton's third law), torque is likewise minus the out-of-plane
// component of Σ r × f, projected back through the director.
func (o *CircularCylinderGrid) TransferForcingFromGridToBody(bodyFlowForces, bodyFlowTorques, lagGridForcing []float64) {
	var fx, fy, torque float64
	for i := 0; i < o.numNodes; i++ {
		fxi := lagGridForcing[0*o.numNodes+i]
		fyi := lagGridForcing[1*o.numNodes+i]
		fx += fxi
		fy += fyi
		rel := o.globalFrameRelPos[i]
		torque += -rel[0]*fyi + rel[1]*fxi
	}
	bodyFlowForces[0] = -fx
	bodyFlowForces[1] = -fy
	bodyFlowForces[2] = 0
	d := o.body.Director()
	bodyFlowTorques[0] = 0
	bodyFlowTorques[1] = 0
	bodyFlowTorques[2] = d[2][2] * torque
}
