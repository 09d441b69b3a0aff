// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernels provides the concrete, single-node stencil kernels the
// spec treats as external collaborators (§1, §6): the core only
// constrains the interface they present (kernel_support, an explicit
// out/in/bounds/params signature) and the halo width they demand. These
// kernels exist so the MPIStencilWrapper and the end-to-end scenarios of
// §8 (S1, S2) have something concrete to wrap and test against; they are
// deliberately minimal single-rank implementations, not a production
// numerics library.
package kernels

import (
	"github.com/SophT-Team/sopht-mpi/field"
	"github.com/SophT-Team/sopht-mpi/stencil"
	"github.com/SophT-Team/sopht-mpi/subarray"
)

// CurlPrefactor is the scalar multiplier applied by OutplaneFieldCurl2D,
// mirroring the original gen_outplane_field_curl_pyst_kernel_2d's
// `prefactor` argument (e.g. 1/(2*dx) for a centered difference).
type CurlPrefactor struct {
	Value float64
}

// OutplaneFieldCurl2D computes the curl of a scalar out-of-plane field
// (e.g. a streamfunction) into a 2-component in-plane vector field, via a
// second-order centered difference. kernel_support is 1: it reads one
// cell on either side along each axis.
//
// Layout: ins[0] is the scalar field (shape [Y, X]); outs[0], outs[1] are
// curl_y, curl_x (shape [Y, X] each), i.e. a 2D vector field laid out as
// two independent Scalar components, matching field.Vector.
var OutplaneFieldCurl2D = stencil.Kernel{
	Support: 1,
	Fn: func(outs []*field.Scalar, ins []*field.Scalar, bounds subarray.Descriptor, params interface{}) {
		prefactor := params.(CurlPrefactor).Value
		fieldData := ins[0].Data
		curlY := outs[0].Data
		curlX := outs[1].Data
		strides := bounds.Strides() // [strideY, strideX]
		sy, sx := strides[0], strides[1]

		bounds.ForEach(func(_ []int, idx int) {
			// curl_y = d(field)/dx ; curl_x = -d(field)/dy (outplane curl of a
			// scalar streamfunction into an inplane velocity field).
			curlY[idx] = prefactor * (fieldData[idx+sx] - fieldData[idx-sx])
			curlX[idx] = -prefactor * (fieldData[idx+sy] - fieldData[idx-sy])
		})
	},
}
