// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/SophT-Team/sopht-mpi/stencil"
	"github.com/SophT-Team/sopht-mpi/subarray"
)

// ScalarDiffusionFlux2D is the 5-point Laplacian flux counterpart of
// ScalarDiffusionFlux3D, used by flowsim.Simulator's 2D
// streamfunction-vorticity formulation. kernel_support is 1.
//
// Layout: ins[0] is the scalar field (shape [Y, X]); outs[0] is the
// diffusion flux field (same shape).
var ScalarDiffusionFlux2D = stencil.Kernel{
	Support: 1,
	Fn: func(outs []*field.Scalar, ins []*field.Scalar, bounds subarray.Descriptor, params interface{}) {
		prefactor := params.(DiffusionFluxPrefactor).Value
		fieldData := ins[0].Data
		flux := outs[0].Data
		strides := bounds.Strides() // [strideY, strideX]
		sy, sx := strides[0], strides[1]

		bounds.ForEach(func(_ []int, idx int) {
			center := fieldData[idx]
			sum := fieldData[idx+sy] + fieldData[idx-sy] +
				fieldData[idx+sx] + fieldData[idx-sx] -
				4*center
			flux[idx] = prefactor * sum
		})
	},
}
