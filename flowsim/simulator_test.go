// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flowsim

import (
	"testing"

	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/cpmech/gosl/chk"
)

type stubPoissonSolver struct{ called int }

func (o *stubPoissonSolver) Solve(vorticity, streamfunction *field.Scalar) { o.called++ }

func TestNewSimulatorRejects3DTopology(tst *testing.T) {
	chk.PrintTitle("flowsim simulator: 2D-only guard")

	defer func() {
		if r := recover(); r == nil {
			tst.Fatalf("expected a panic for a 3D topology")
		}
	}()
	cfg := baseConfig()
	cfg.GridSize = []int{8, 8, 8}
	cfg.XRange = []float64{1, 1, 1}
	NewSimulator(cfg, &stubPoissonSolver{})
}

func TestStepOnPassiveScalarDiffusesAQuadraticField(tst *testing.T) {
	chk.PrintTitle("flowsim simulator: passive-scalar diffusion step")

	cfg := baseConfig()
	cfg.FlowType = PassiveScalar
	sim := NewSimulator(cfg, &stubPoissonSolver{})

	dx := cfg.Dx()
	inner := sim.Vorticity().InnerDescriptor()
	inner.ForEach(func(coord []int, idx int) {
		x := float64(coord[1]) * dx
		y := float64(coord[0]) * dx
		sim.Vorticity().Data[idx] = x*x + y*y
	})
	before := append([]float64(nil), sim.Vorticity().Data...)

	dt := sim.Step()
	if dt <= 0 {
		tst.Fatalf("expected a positive time step, got %g", dt)
	}

	prefactor := cfg.KinematicViscosity / (dx * dx)
	laplacian := 4.0 * dx * dx // 5-point sum of x^2+y^2 at spacing dx
	expectedDelta := dt * prefactor * laplacian

	// this single rank is non-periodic, so the halo stays zero and cells
	// next to it do not see the quadratic; cells at least ghost+2*support
	// away from the field's edge on every axis read only real inner data,
	// so that is the band the analytic discrete Laplacian applies to.
	shape := sim.Vorticity().Shape
	h := sim.Vorticity().Ghost
	s := 1 // kernels.ScalarDiffusionFlux2D's declared support
	margin := h + 2*s
	stride0 := shape[1]
	for i0 := margin; i0 < shape[0]-margin; i0++ {
		for i1 := margin; i1 < shape[1]-margin; i1++ {
			idx := i0*stride0 + i1
			got := sim.Vorticity().Data[idx] - before[idx]
			chk.Scalar(tst, "diffusion step delta matches the analytic discrete Laplacian", 1e-9, got, expectedDelta)
		}
	}
}

func TestStepDoesNotCallPoissonSolverOnPassiveScalar(tst *testing.T) {
	chk.PrintTitle("flowsim simulator: passive-scalar skips the Poisson solve")

	cfg := baseConfig()
	cfg.FlowType = PassiveScalar
	poisson := &stubPoissonSolver{}
	sim := NewSimulator(cfg, poisson)
	sim.Step()
	chk.IntAssert(poisson.called, 0)
}

func TestStepCallsPoissonSolverOnNavierStokes(tst *testing.T) {
	chk.PrintTitle("flowsim simulator: Navier-Stokes calls the Poisson solve")

	cfg := baseConfig()
	cfg.FlowType = NavierStokes
	poisson := &stubPoissonSolver{}
	sim := NewSimulator(cfg, poisson)
	sim.Step()
	chk.IntAssert(poisson.called, 1)
}
