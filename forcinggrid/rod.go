// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package forcinggrid

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// RodState is the read-only per-step Cosserat-rod state contract of §6,
// carried here as a supplemented feature (SPEC_FULL.md §12): the rod
// mechanics themselves stay an external collaborator, but the forcing
// grid needs to read element centers/velocities/directors/radius to lay
// markers down and to split forces back onto the rod's two-node elements.
type RodState interface {
	NumElements() int
	ElementPosition(i int) [3]float64
	ElementVelocity(i int) [3]float64
	ElementDirector(i int) [3][3]float64
	ElementOmega(i int) [3]float64
	ElementRadius(i int) float64
}

// RodElementGrid places one marker per rod element center — the coarsest
// forcing grid in §4.8's "rod element centers" description, typically
// used for line forces rather than surface coupling.
type RodElementGrid struct {
	rod      RodState
	position []float64
	velocity []float64
}

// NewRodElementGrid builds a one-marker-per-element grid over rod.
func NewRodElementGrid(rod RodState) *RodElementGrid {
	n := rod.NumElements()
	o := &RodElementGrid{rod: rod, position: make([]float64, 3*n), velocity: make([]float64, 3*n)}
	o.ComputeLagGridPositionField()
	o.ComputeLagGridVelocityField()
	return o
}

func (o *RodElementGrid) Dim() int                 { return 3 }
func (o *RodElementGrid) NumLagNodes() int         { return o.rod.NumElements() }
func (o *RodElementGrid) PositionField() []float64 { return o.position }
func (o *RodElementGrid) VelocityField() []float64 { return o.velocity }

func (o *RodElementGrid) ForceLen() int  { return 3 * (o.rod.NumElements() + 1) }
func (o *RodElementGrid) TorqueLen() int { return 3 * o.rod.NumElements() }

func (o *RodElementGrid) MaxLagrangianGridSpacing() float64 {
	n := o.rod.NumElements()
	if n < 2 {
		return 0
	}
	p0 := o.rod.ElementPosition(0)
	p1 := o.rod.ElementPosition(1)
	return dist3(p0, p1)
}

func (o *RodElementGrid) ComputeLagGridPositionField() {
	n := o.rod.NumElements()
	for i := 0; i < n; i++ {
		p := o.rod.ElementPosition(i)
		for a := 0; a < 3; a++ {
			o.position[a*n+i] = p[a]
		}
	}
}

func (o *RodElementGrid) ComputeLagGridVelocityField() {
	n := o.rod.NumElements()
	for i := 0; i < n; i++ {
		v := o.rod.ElementVelocity(i)
		for a := 0; a < 3; a++ {
			o.velocity[a*n+i] = v[a]
		}
	}
}

// TransferForcingFromGridToBody splits each element's marker force
// equally onto its two endpoint nodes (§4.8: "split each element's
// marker-force equally to its two endpoint nodes"), and sets every element
// torque to zero, since each marker sits at its element's center.
// bodyFlowForces has length 3*(NumElements()+1) (one 3-vector per node);
// bodyFlowTorques has length 3*NumElements() (one 3-vector per element).
func (o *RodElementGrid) TransferForcingFromGridToBody(bodyFlowForces, bodyFlowTorques, lagGridForcing []float64) {
	n := o.rod.NumElements()
	nNodes := n + 1
	for i := range bodyFlowForces {
		bodyFlowForces[i] = 0
	}
	for i := 0; i < n; i++ {
		var f [3]float64
		for a := 0; a < 3; a++ {
			f[a] = -lagGridForcing[a*n+i]
		}
		for a := 0; a < 3; a++ {
			bodyFlowForces[a*nNodes+i] += f[a] / 2
			bodyFlowForces[a*nNodes+i+1] += f[a] / 2
		}
		// no moment arm at an element-center grid (the force acts at the
		// center), so the element torque is zero.
		for a := 0; a < 3; a++ {
			bodyFlowTorques[a*n+i] = 0
		}
	}
}

func dist3(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// RodSurfaceGrid lays a ring of surface markers around each rod element,
// with the per-element ring point count scaling with that element's local
// radius (§4.8: "rod surface lattice with per-element surface-point
// counts that scale with local radius"). Moment arms (the surface point's
// offset from its element's centerline) are retained so torques can be
// reconstructed.
type RodSurfaceGrid struct {
	rod              RodState
	basePointsPerUnit float64 // surface points per unit circumference
	ringStart        []int    // marker index of each element's first ring point
	ringCount        []int    // number of ring points for each element
	localFrameMomentArm [][3]float64 // body-frame moment arm, fixed per marker
	globalMomentArm  [][3]float64
	position         []float64
	velocity         []float64
}

// NewRodSurfaceGrid builds the surface lattice, allocating
// round(2*pi*radius_i*basePointsPerUnit) markers for element i, at least 3.
func NewRodSurfaceGrid(rod RodState, basePointsPerUnit float64) *RodSurfaceGrid {
	if basePointsPerUnit <= 0 {
		chk.Panic("forcinggrid: basePointsPerUnit must be > 0; got %g", basePointsPerUnit)
	}
	n := rod.NumElements()
	o := &RodSurfaceGrid{rod: rod, basePointsPerUnit: basePointsPerUnit, ringStart: make([]int, n), ringCount: make([]int, n)}
	total := 0
	for i := 0; i < n; i++ {
		count := int(math.Round(2 * math.Pi * rod.ElementRadius(i) * basePointsPerUnit))
		if count < 3 {
			count = 3
		}
		o.ringStart[i] = total
		o.ringCount[i] = count
		total += count
	}
	o.localFrameMomentArm = make([][3]float64, total)
	o.globalMomentArm = make([][3]float64, total)
	for i := 0; i < n; i++ {
		radius := rod.ElementRadius(i)
		count := o.ringCount[i]
		for k := 0; k < count; k++ {
			theta := 2 * math.Pi * float64(k) / float64(count)
			o.localFrameMomentArm[o.ringStart[i]+k] = [3]float64{radius * math.Cos(theta), radius * math.Sin(theta), 0}
		}
	}
	o.position = make([]float64, 3*total)
	o.velocity = make([]float64, 3*total)
	o.ComputeLagGridPositionField()
	o.ComputeLagGridVelocityField()
	return o
}

func (o *RodSurfaceGrid) Dim() int                 { return 3 }
func (o *RodSurfaceGrid) NumLagNodes() int         { return len(o.localFrameMomentArm) }
func (o *RodSurfaceGrid) PositionField() []float64 { return o.position }
func (o *RodSurfaceGrid) VelocityField() []float64 { return o.velocity }

func (o *RodSurfaceGrid) ForceLen() int  { return 3 * (o.rod.NumElements() + 1) }
func (o *RodSurfaceGrid) TorqueLen() int { return 3 * o.rod.NumElements() }

func (o *RodSurfaceGrid) MaxLagrangianGridSpacing() float64 {
	n := o.rod.NumElements()
	var maxSpacing float64
	for i := 0; i < n; i++ {
		radius := o.rod.ElementRadius(i)
		count := o.ringCount[i]
		spacing := 2 * math.Pi * radius / float64(count)
		if spacing > maxSpacing {
			maxSpacing = spacing
		}
	}
	return maxSpacing
}

func (o *RodSurfaceGrid) ComputeLagGridPositionField() {
	n := o.rod.NumElements()
	total := o.NumLagNodes()
	for i := 0; i < n; i++ {
		center := o.rod.ElementPosition(i)
		d := o.rod.ElementDirector(i)
		for k := 0; k < o.ringCount[i]; k++ {
			idx := o.ringStart[i] + k
			local := o.localFrameMomentArm[idx]
			var global [3]float64
			for a := 0; a < 3; a++ {
				for b := 0; b < 3; b++ {
					global[a] += d[b][a] * local[b]
				}
			}
			o.globalMomentArm[idx] = global
			for a := 0; a < 3; a++ {
				o.position[a*total+idx] = center[a] + global[a]
			}
		}
	}
}

func (o *RodSurfaceGrid) ComputeLagGridVelocityField() {
	n := o.rod.NumElements()
	total := o.NumLagNodes()
	for i := 0; i < n; i++ {
		v := o.rod.ElementVelocity(i)
		d := o.rod.ElementDirector(i)
		omega := matVec3T(d, o.rod.ElementOmega(i))
		for k := 0; k < o.ringCount[i]; k++ {
			idx := o.ringStart[i] + k
			cross := cross3(omega, o.globalMomentArm[idx])
			for a := 0; a < 3; a++ {
				o.velocity[a*total+idx] = v[a] + cross[a]
			}
		}
	}
}

// TransferForcingFromGridToBody sums each element's ring of marker forces
// into that element's force, and accumulates Σ(momentArm × f) into the
// element's torque, expressed in the element's local frame.
func (o *RodSurfaceGrid) TransferForcingFromGridToBody(bodyFlowForces, bodyFlowTorques, lagGridForcing []float64) {
	n := o.rod.NumElements()
	nNodes := n + 1
	total := o.NumLagNodes()
	for i := range bodyFlowForces {
		bodyFlowForces[i] = 0
	}
	for i := 0; i < n; i++ {
		var f, torqueGlobal [3]float64
		for k := 0; k < o.ringCount[i]; k++ {
			idx := o.ringStart[i] + k
			var fk [3]float64
			for a := 0; a < 3; a++ {
				fk[a] = -lagGridForcing[a*total+idx]
				f[a] += fk[a]
			}
			t := cross3(o.globalMomentArm[idx], fk)
			for a := 0; a < 3; a++ {
				torqueGlobal[a] += t[a]
			}
		}
		for a := 0; a < 3; a++ {
			bodyFlowForces[a*nNodes+i] += f[a] / 2
			bodyFlowForces[a*nNodes+i+1] += f[a] / 2
		}
		d := o.rod.ElementDirector(i)
		for a := 0; a < 3; a++ {
			var t float64
			for b := 0; b < 3; b++ {
				t += d[a][b] * torqueGlobal[b]
			}
			bodyFlowTorques[a*n+i] = t
		}
	}
}
