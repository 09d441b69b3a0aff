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

// linearStreamfunction returns a scalar field psi(y,x) = 2x + 3y over a
// shape[0] x shape[1] grid, whose curl is the constant vector (2, -3).
func linearStreamfunction(shape []int) *field.Scalar {
	n := shape[0] * shape[1]
	data := make([]float64, n)
	for y := 0; y < shape[0]; y++ {
		for x := 0; x < shape[1]; x++ {
			data[y*shape[1]+x] = 2*float64(x) + 3*float64(y)
		}
	}
	return &field.Scalar{Shape: shape, Ghost: 1, Data: data}
}

func TestOutplaneFieldCurl2DOfLinearField(tst *testing.T) {
	chk.PrintTitle("curl2d kernel on a linear field")

	shape := []int{6, 6}
	psi := linearStreamfunction(shape)
	curlY := &field.Scalar{Shape: shape, Ghost: 1, Data: make([]float64, 36)}
	curlX := &field.Scalar{Shape: shape, Ghost: 1, Data: make([]float64, 36)}

	bounds := subarray.Descriptor{Sizes: shape, Subsizes: []int{4, 4}, Starts: []int{1, 1}}
	OutplaneFieldCurl2D.Fn([]*field.Scalar{curlY, curlX}, []*field.Scalar{psi}, bounds, CurlPrefactor{Value: 0.5})

	bounds.ForEach(func(_ []int, idx int) {
		chk.Scalar(tst, "curl_y", 1e-12, curlY.Data[idx], 2.0)
		chk.Scalar(tst, "curl_x", 1e-12, curlX.Data[idx], -3.0)
	})
}

func TestOutplaneFieldCurl2DSupportIsOne(tst *testing.T) {
	chk.PrintTitle("curl2d kernel support")
	chk.IntAssert(OutplaneFieldCurl2D.Support, 1)
}
