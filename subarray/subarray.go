// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package subarray addresses strided sub-blocks of flattened row-major
// fields without copying the whole field, the way a (sizes, subsizes,
// starts) MPI derived datatype would. Go has no fancy-indexing equivalent
// of numpy slicing, so every stencil, ghost-exchange, and scatter/gather
// operation in this module goes through the explicit
// (base pointer, shape, starts, subsizes) descriptors built here, per the
// "polymorphic grid kernels" design note: a single function taking
// explicit shape/stride tuples, not host-language slicing tricks.
package subarray

// Descriptor addresses a contiguous-in-memory, strided-on-disk sub-block of
// a row-major field of the given full Sizes. It plays the role an MPI
// Create_subarray derived datatype plays in the original implementation,
// but is plain data: Pack/Unpack walk it explicitly instead of relying on
// the MPI runtime to (de)serialize it.
type Descriptor struct {
	Sizes    []int // shape of the full field this descriptor addresses into
	Subsizes []int // shape of the addressed sub-block
	Starts   []int // zero-origin start index of the sub-block along each axis
}

// Count returns the number of scalar elements in the sub-block.
func (d Descriptor) Count() int {
	n := 1
	for _, s := range d.Subsizes {
		n *= s
	}
	return n
}

// strides returns the row-major strides for Sizes (last axis fastest).
func strides(sizes []int) []int {
	s := make([]int, len(sizes))
	acc := 1
	for i := len(sizes) - 1; i >= 0; i-- {
		s[i] = acc
		acc *= sizes[i]
	}
	return s
}

// Pack copies the sub-block addressed by d out of field (flattened,
// row-major, shape d.Sizes) into a freshly allocated contiguous buffer,
// suitable for handing to a point-to-point send.
func (d Descriptor) Pack(field []float64) []float64 {
	out := make([]float64, d.Count())
	d.walk(func(srcIdx, dstIdx int) {
		out[dstIdx] = field[srcIdx]
	})
	return out
}

// Unpack scatters a contiguous buffer (as produced by a matching Pack, or
// received over the wire) back into the sub-block addressed by d inside
// field.
func (d Descriptor) Unpack(field []float64, buf []float64) {
	d.walk(func(dstIdx, srcIdx int) {
		field[dstIdx] = buf[srcIdx]
	})
}

// Add scatter-adds a contiguous buffer into the sub-block addressed by d,
// used by the spreading halo-sum-back pass (§4.7): halo contributions are
// added into the neighbor's inner region, never overwritten.
func (d Descriptor) Add(field []float64, buf []float64) {
	d.walk(func(dstIdx, srcIdx int) {
		field[dstIdx] += buf[srcIdx]
	})
}

// ForEach calls fn(localCoord, fieldFlatIndex) once per scalar element of
// the sub-block addressed by d, in row-major order. localCoord is the
// element's position relative to d.Starts (0-based within the sub-block);
// fieldFlatIndex is its flat row-major offset into the full field this
// descriptor addresses into. Kernels use this to read/write neighboring
// elements by offsetting fieldFlatIndex with the full field's strides.
func (d Descriptor) ForEach(fn func(localCoord []int, fieldFlatIndex int)) {
	dim := len(d.Sizes)
	fieldStrides := strides(d.Sizes)
	bufStrides := strides(d.Subsizes)
	idx := make([]int, dim)
	total := d.Count()
	for linear := 0; linear < total; linear++ {
		rem := linear
		fieldIdx := 0
		for axis := 0; axis < dim; axis++ {
			idx[axis] = rem / bufStrides[axis]
			rem %= bufStrides[axis]
			fieldIdx += (d.Starts[axis] + idx[axis]) * fieldStrides[axis]
		}
		fn(idx, fieldIdx)
	}
}

// Strides returns the row-major strides of the full field this descriptor
// addresses into (d.Sizes), exported for kernels that need to offset a
// flat index by +/-1 along a given axis.
func (d Descriptor) Strides() []int {
	return strides(d.Sizes)
}

// walk calls fn(fieldIndex, bufIndex) once per scalar element of the
// sub-block, in row-major buffer order.
func (d Descriptor) walk(fn func(fieldIdx, bufIdx int)) {
	dim := len(d.Sizes)
	fieldStrides := strides(d.Sizes)
	bufStrides := strides(d.Subsizes)
	idx := make([]int, dim)
	total := d.Count()
	for linear := 0; linear < total; linear++ {
		rem := linear
		fieldIdx := 0
		for axis := 0; axis < dim; axis++ {
			idx[axis] = rem / bufStrides[axis]
			rem %= bufStrides[axis]
			fieldIdx += (d.Starts[axis] + idx[axis]) * fieldStrides[axis]
		}
		fn(fieldIdx, linear)
	}
}
