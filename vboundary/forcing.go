// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vboundary

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"
)

// Forcing is the VirtualBoundaryForcing penalty law of §4.6. It is
// stateless: the lag-deviation state (Z, ΣZ·dt, and the virtual
// flow-advected counterpart position) lives in master-held, N-length
// arrays that the caller (interaction.FlowInteraction) scatters to owning
// ranks and gathers back every step, exactly like marker position,
// velocity, and force (§3). This keeps Forcing itself reusable across the
// ownership churn a rank_and_map call introduces (§5): it never holds a
// per-marker slot tied to "whichever rank happened to own marker i last
// step".
type Forcing struct {
	Dim int
	// Stiffness (k) and Damping (c) are negative by the sign convention of
	// §4.6: the coupling acts against deviation.
	Stiffness    fun.Prm
	Damping      fun.Prm
	IntegralGain fun.Prm // k_I; zero value disables the integral term
}

// NewForcing validates the penalty-law gains and returns a Forcing. k and
// c must be negative per §4.6's sign convention; a positive gain would
// amplify rather than suppress the no-slip deviation, which is a
// ConfigError worth catching at construction rather than a silently
// diverging simulation.
func NewForcing(dim int, stiffness, damping, integralGain float64) *Forcing {
	if stiffness >= 0 {
		chk.Panic("vboundary: stiffness (k) must be negative; got %g", stiffness)
	}
	if damping >= 0 {
		chk.Panic("vboundary: damping (c) must be negative; got %g", damping)
	}
	return &Forcing{
		Dim:          dim,
		Stiffness:    fun.Prm{N: "k", V: stiffness},
		Damping:      fun.Prm{N: "c", V: damping},
		IntegralGain: fun.Prm{N: "kI", V: integralGain},
	}
}

// Step applies the penalty law to n owned markers, all arrays dim-major
// (component axis varies slowest, length dim*n). virtualPos, z, and
// sigmaZdt are updated in place; the returned force is freshly allocated.
//
//	virtualPos ← virtualPos + flowVel*dt        (advect the virtual counterpart)
//	Z          ← markerPos − virtualPos
//	ΣZ·dt      ← ΣZ·dt + Z*dt
//	force      ← k·Z + c·(markerVel − flowVel) + k_I·ΣZ·dt
func (o *Forcing) Step(dt float64, n int, markerPos, markerVel, flowVel, virtualPos, z, sigmaZdt []float64) []float64 {
	force := make([]float64, o.Dim*n)
	k, c, kI := o.Stiffness.V, o.Damping.V, o.IntegralGain.V
	for a := 0; a < o.Dim; a++ {
		for i := 0; i < n; i++ {
			idx := a*n + i
			virtualPos[idx] += flowVel[idx] * dt
			z[idx] = markerPos[idx] - virtualPos[idx]
			sigmaZdt[idx] += z[idx] * dt
			force[idx] = k*z[idx] + c*(markerVel[idx]-flowVel[idx]) + kI*sigmaZdt[idx]
		}
	}
	return force
}

// GridDeviationErrorL2Norm returns sqrt(mean(‖Z‖²)) over all n markers,
// computed on the master from the gathered, dim-major global Z array —
// the get_grid_deviation_error_l2_norm() operation of §4.6.
func GridDeviationErrorL2Norm(zGlobal []float64, dim, n int) float64 {
	if n == 0 {
		return 0
	}
	markerVec := make([]float64, dim)
	var sumSq float64
	for i := 0; i < n; i++ {
		for a := 0; a < dim; a++ {
			markerVec[a] = zGlobal[a*n+i]
		}
		sumSq += la.VecDot(markerVec, markerVec)
	}
	return math.Sqrt(sumSq / float64(n))
}

// ClampToDomain enforces the non-fatal DomainError policy of §4.6 and
// §7: if a marker's position (dim-major, n markers) lies outside
// [0, G*dx) along any axis, it is clamped in place and the marker's index
// recorded as out-of-range. Returns the (possibly empty) list of clamped
// marker indices; the caller logs a single warning per step on the master
// rank via ReportDomainWarning.
func ClampToDomain(positions []float64, dim, n int, globalSize []int, dx float64) []int {
	var clamped []int
	for i := 0; i < n; i++ {
		hit := false
		for a := 0; a < dim; a++ {
			idx := a*n + i
			lo, hi := 0.0, float64(globalSize[a])*dx
			if positions[idx] < lo {
				positions[idx] = lo
				hit = true
			} else if positions[idx] >= hi {
				positions[idx] = math.Nextafter(hi, lo)
				hit = true
			}
		}
		if hit {
			clamped = append(clamped, i)
		}
	}
	return clamped
}

// ReportDomainWarning logs the non-fatal DomainError exactly once per
// step, master-rank only, per §7's "reported via the logger on the
// master rank only".
func ReportDomainWarning(isMaster bool, clamped []int) {
	if !isMaster || len(clamped) == 0 {
		return
	}
	io.Pfyel("warning: %d marker(s) left the global domain and were clamped: %v\n", len(clamped), clamped)
}
