// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"testing"

	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/SophT-Team/sopht-mpi/subarray"
	"github.com/cpmech/gosl/chk"
)

func TestScalarDiffusionFlux2DOfQuadraticField(tst *testing.T) {
	chk.PrintTitle("diffusion2d kernel on a quadratic field")

	shape := []int{8, 8}
	n := shape[0] * shape[1]
	data := make([]float64, n)
	// f(y,x) = x^2 + y^2: discrete Laplacian (dx=1) is exactly 4
	// everywhere, independent of position.
	for y := 0; y < shape[0]; y++ {
		for x := 0; x < shape[1]; x++ {
			fx := float64(x)
			fy := float64(y)
			data[y*shape[1]+x] = fx*fx + fy*fy
		}
	}
	f := &field.Scalar{Shape: shape, Ghost: 1, Data: data}
	flux := &field.Scalar{Shape: shape, Ghost: 1, Data: make([]float64, n)}

	bounds := subarray.Descriptor{Sizes: shape, Subsizes: []int{6, 6}, Starts: []int{1, 1}}
	ScalarDiffusionFlux2D.Fn([]*field.Scalar{flux}, []*field.Scalar{f}, bounds, DiffusionFluxPrefactor{Value: 1.0})

	bounds.ForEach(func(_ []int, idx int) {
		chk.Scalar(tst, "laplacian of x^2+y^2", 1e-9, flux.Data[idx], 4.0)
	})
}

func TestScalarDiffusionFlux3DOfQuadraticField(tst *testing.T) {
	chk.PrintTitle("diffusion3d kernel on a quadratic field")

	shape := []int{6, 6, 6}
	n := shape[0] * shape[1] * shape[2]
	data := make([]float64, n)
	strideY, strideX := shape[2], 1
	for z := 0; z < shape[0]; z++ {
		for y := 0; y < shape[1]; y++ {
			for x := 0; x < shape[2]; x++ {
				fz, fy, fx := float64(z), float64(y), float64(x)
				data[z*shape[1]*strideY+y*strideY+x*strideX] = fx*fx + fy*fy + fz*fz
			}
		}
	}
	f := &field.Scalar{Shape: shape, Ghost: 1, Data: data}
	flux := &field.Scalar{Shape: shape, Ghost: 1, Data: make([]float64, n)}

	bounds := subarray.Descriptor{Sizes: shape, Subsizes: []int{4, 4, 4}, Starts: []int{1, 1, 1}}
	ScalarDiffusionFlux3D.Fn([]*field.Scalar{flux}, []*field.Scalar{f}, bounds, DiffusionFluxPrefactor{Value: 1.0})

	bounds.ForEach(func(_ []int, idx int) {
		chk.Scalar(tst, "laplacian of x^2+y^2+z^2", 1e-9, flux.Data[idx], 6.0)
	})
}
