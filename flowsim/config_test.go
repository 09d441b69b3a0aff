// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flowsim

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func baseConfig() Config {
	return Config{
		GridSize:           []int{16, 16},
		XRange:             []float64{1.0, 1.0},
		KinematicViscosity: 0.01,
		CFL:                0.5,
		GhostSize:          2,
	}
}

func TestDxFromGridSizeAndXRange(tst *testing.T) {
	chk.PrintTitle("flowsim config: Dx")

	c := baseConfig()
	chk.Scalar(tst, "dx", 1e-12, c.Dx(), 1.0/16.0)
}

func TestTimestepPicksTheSmallerStabilityLimit(tst *testing.T) {
	chk.PrintTitle("flowsim config: CFL-driven Timestep")

	c := baseConfig()
	dx := c.Dx()
	diffusive := c.CFL * dx * dx / c.KinematicViscosity

	// zero velocity: only the diffusive limit applies.
	chk.Scalar(tst, "diffusive-only dt", 1e-12, c.Timestep(0), diffusive)

	// a very large velocity makes the advective limit the binding one.
	got := c.Timestep(1e6)
	advective := c.CFL * dx / 1e6
	chk.Scalar(tst, "advective-limited dt", 1e-12, got, advective)
}

func TestValidateRejectsNonPositiveViscosity(tst *testing.T) {
	chk.PrintTitle("flowsim config: viscosity validation")

	defer func() {
		if r := recover(); r == nil {
			tst.Fatalf("expected a panic for a non-positive viscosity")
		}
	}()
	c := baseConfig()
	c.KinematicViscosity = 0
	c.Validate()
}

func TestValidateRejectsOutOfRangeCFL(tst *testing.T) {
	chk.PrintTitle("flowsim config: CFL validation")

	defer func() {
		if r := recover(); r == nil {
			tst.Fatalf("expected a panic for a CFL number outside (0, 1]")
		}
	}()
	c := baseConfig()
	c.CFL = 1.5
	c.Validate()
}

func TestValidateRejectsTooSmallGhostSize(tst *testing.T) {
	chk.PrintTitle("flowsim config: ghost_size validation")

	defer func() {
		if r := recover(); r == nil {
			tst.Fatalf("expected a panic for ghost_size < 1")
		}
	}()
	c := baseConfig()
	c.GhostSize = 0
	c.Validate()
}
