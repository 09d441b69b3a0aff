// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package forcinggrid

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// SphereGrid is the SphereForcingGrid of §4.8: a spherical lattice of
// markers, with more points per latitude near the equator and fewer
// toward the poles (num_forcing_points_along_latitude scaled by
// sin(polar_angle)).
type SphereGrid struct {
	body RigidBody

	globalFrameRelPos [][3]float64 // copied unrotated from localFrameRelPos (a sphere is rotationally symmetric)
	localFrameRelPos  [][3]float64 // body-frame relative position, fixed for the sphere's lifetime
	position          []float64
	velocity          []float64
	numEquator        int
}

// NewSphereGrid builds a lattice with numForcingPointsAlongEquator points
// around the equator, thinning toward the poles.
func NewSphereGrid(rigidBody RigidBody, numForcingPointsAlongEquator int) *SphereGrid {
	if numForcingPointsAlongEquator < 4 {
		chk.Panic("forcinggrid: sphere forcing grid needs at least 4 equatorial points; got %d", numForcingPointsAlongEquator)
	}
	o := &SphereGrid{body: rigidBody, numEquator: numForcingPointsAlongEquator}
	nPolar := numForcingPointsAlongEquator / 2
	for p := 0; p < nPolar; p++ {
		polar := float64(p) * math.Pi / float64(nPolar-1)
		nLat := int(math.Round(float64(numForcingPointsAlongEquator)*math.Sin(polar))) + 1
		for a := 0; a < nLat; a++ {
			azimuth := 2 * math.Pi * float64(a) / float64(nLat)
			rel := [3]float64{
				rigidBody.Radius() * math.Sin(polar) * math.Cos(azimuth),
				rigidBody.Radius() * math.Sin(polar) * math.Sin(azimuth),
				rigidBody.Radius() * math.Cos(polar),
			}
			o.localFrameRelPos = append(o.localFrameRelPos, rel)
		}
	}
	n := len(o.localFrameRelPos)
	o.globalFrameRelPos = make([][3]float64, n)
	o.position = make([]float64, 3*n)
	o.velocity = make([]float64, 3*n)
	o.ComputeLagGridPositionField()
	o.ComputeLagGridVelocityField()
	return o
}

func (o *SphereGrid) Dim() int                  { return 3 }
func (o *SphereGrid) NumLagNodes() int          { return len(o.localFrameRelPos) }
func (o *SphereGrid) PositionField() []float64  { return o.position }
func (o *SphereGrid) VelocityField() []float64  { return o.velocity }

func (o *SphereGrid) ForceLen() int  { return 3 }
func (o *SphereGrid) TorqueLen() int { return 3 }

func (o *SphereGrid) MaxLagrangianGridSpacing() float64 {
	return o.body.Radius() * (2 * math.Pi / float64(o.numEquator))
}

func matVec3T(d [3][3]float64, v [3]float64) [3]float64 {
	// d^T @ v, matching director_collection[:, :, 0].T @ relative_position
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += d[j][i] * v[j]
		}
	}
	return out
}

func (o *SphereGrid) ComputeLagGridPositionField() {
	pos := o.body.Position()
	n := o.NumLagNodes()
	for i, rel := range o.localFrameRelPos {
		o.globalFrameRelPos[i] = rel // sphere is rotationally symmetric: local == global relative frame
		for a := 0; a < 3; a++ {
			o.position[a*n+i] = pos[a] + rel[a]
		}
	}
}

func (o *SphereGrid) ComputeLagGridVelocityField() {
	d := o.body.Director()
	v := o.body.Velocity()
	omega := matVec3T(d, o.body.Omega())
	n := o.NumLagNodes()
	for i, rel := range o.globalFrameRelPos {
		cross := cross3(omega, rel)
		for a := 0; a < 3; a++ {
			o.velocity[a*n+i] = v[a] + cross[a]
		}
	}
}

func (o *SphereGrid) TransferForcingFromGridToBody(bodyFlowForces, bodyFlowTorques, lagGridForcing []float64) {
	n := o.NumLagNodes()
	var force, torqueRaw [3]float64
	for i := 0; i < n; i++ {
		var f [3]float64
		for a := 0; a < 3; a++ {
			f[a] = lagGridForcing[a*n+i]
			force[a] += f[a]
		}
		t := cross3(o.globalFrameRelPos[i], f)
		for a := 0; a < 3; a++ {
			torqueRaw[a] += t[a]
		}
	}
	d := o.body.Director()
	for a := 0; a < 3; a++ {
		bodyFlowForces[a] = -force[a]
	}
	for a := 0; a < 3; a++ {
		var t float64
		for b := 0; b < 3; b++ {
			t += d[a][b] * torqueRaw[b]
		}
		bodyFlowTorques[a] = -t
	}
}

func cross3(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
