// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flowsim implements FlowSimulator (§2 component 8, §6 config):
// the thin driver that composes topo, ghost, field, stencil, lagrangian,
// vboundary, and interaction into one advection-diffusion-Poisson time
// step, in the style of fem.FEM composing ele/mdl/inp into one FE run.
package flowsim

import (
	"github.com/SophT-Team/sopht-mpi/topo"
	"github.com/cpmech/gosl/chk"
)

// FlowType selects the governing equation FlowSimulator advances, per §6's
// configuration contract.
type FlowType int

const (
	NavierStokes FlowType = iota
	NavierStokesWithForcing
	PassiveScalar
)

// Config is the per-simulator-instance configuration of §6, populated by
// the caller the way inp.Simulation holds everything fem.NewFEM needs.
type Config struct {
	GridSize           []int     // G, dim-length
	XRange             []float64 // domain extent per axis, dim-length
	KinematicViscosity float64
	CFL                float64
	FlowType           FlowType
	WithFreeStreamFlow bool
	FreeStreamVelocity []float64 // dim-length, read only if WithFreeStreamFlow
	Precision          topo.Precision
	RankDistribution   []int // nil/zero entries auto-size, per topo.NewConstruct
	PeriodicFlag       []bool
	GhostSize          int // derived from max(kernel_support, interpolation support) by the caller

	// MasterRank is the rank that holds global fields and every body's
	// authoritative marker set.
	MasterRank int
}

// Dx returns the (assumed isotropic) cell spacing implied by GridSize and
// XRange.
func (c Config) Dx() float64 {
	return c.XRange[0] / float64(c.GridSize[0])
}

// Validate performs the construction-time ConfigError checks of §7 that
// are specific to FlowSimulator's own configuration, beyond what
// topo.NewConstruct already enforces (indivisible grid, missing 3D unit
// axis): a non-positive viscosity or CFL number is a caller bug, not a
// degenerate simulation.
func (c Config) Validate() {
	if c.KinematicViscosity <= 0 {
		chk.Panic("flowsim: kinematic viscosity must be > 0; got %g", c.KinematicViscosity)
	}
	if c.CFL <= 0 || c.CFL > 1 {
		chk.Panic("flowsim: CFL number must be in (0, 1]; got %g", c.CFL)
	}
	if c.GhostSize < 1 {
		chk.Panic("flowsim: ghost_size must be >= 1; got %d", c.GhostSize)
	}
}

// Timestep is the CFL-driven dt of §10: the minimum of the advective and
// diffusive stability limits, reevaluated from the current maximum
// velocity magnitude every step.
func (c Config) Timestep(maxVelMag float64) float64 {
	dx := c.Dx()
	diffusive := c.CFL * dx * dx / c.KinematicViscosity
	if maxVelMag <= 0 {
		return diffusive
	}
	advective := c.CFL * dx / maxVelMag
	if advective < diffusive {
		return advective
	}
	return diffusive
}
