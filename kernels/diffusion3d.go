// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernels

import (
	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/SophT-Team/sopht-mpi/stencil"
	"github.com/SophT-Team/sopht-mpi/subarray"
)

// DiffusionFluxPrefactor mirrors the original's nu/dx^2 prefactor for the
// scalar diffusion flux kernel.
type DiffusionFluxPrefactor struct {
	Value float64
}

// ScalarDiffusionFlux3D computes the 7-point Laplacian flux of a 3D scalar
// field: kernel_support is 1, matching scenario S2's expectation.
//
// Layout: ins[0] is the scalar field (shape [Z, Y, X]); outs[0] is the
// diffusion flux field (same shape).
var ScalarDiffusionFlux3D = stencil.Kernel{
	Support: 1,
	Fn: func(outs []*field.Scalar, ins []*field.Scalar, bounds subarray.Descriptor, params interface{}) {
		prefactor := params.(DiffusionFluxPrefactor).Value
		fieldData := ins[0].Data
		flux := outs[0].Data
		strides := bounds.Strides() // [strideZ, strideY, strideX]
		sz, sy, sx := strides[0], strides[1], strides[2]

		bounds.ForEach(func(_ []int, idx int) {
			center := fieldData[idx]
			sum := fieldData[idx+sz] + fieldData[idx-sz] +
				fieldData[idx+sy] + fieldData[idx-sy] +
				fieldData[idx+sx] + fieldData[idx-sx] -
				6*center
			flux[idx] = prefactor * sum
		})
	},
}
