// Copyright 2025 go-pipeliner Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pipeliner

import (
	"slices"

	"github.com/ajroetker/go-pipeliner/dialect"
	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/ajroetker/go-pipeliner/layout"
	"github.com/samber/lo"
	"k8s.io/klog/v2"
)

// CreateAlloc allocates a mutable shared memory buffer holding distance
// copies of a tensor of type ty, right before forOp, and frees it right
// after forOp. The buffer shape is [distance, ty.Shape...].
//
// It panics if forOp is not in a block.
func CreateAlloc(forOp dialect.ForOp, ty *ir.TensorType, loc ir.Location, sharedEnc layout.SharedEncoding, distance int) *ir.Value {
	b := ir.NewBuilderBefore(forOp.Op)
	b.SetLoc(loc)
	shape := slices.Concat([]int64{int64(distance)}, ty.Shape)
	var enc ir.Attribute
	if sharedEnc != nil {
		enc = sharedEnc
	}
	memTy := ir.NewMemDescType(shape, ty.Elem, enc, layout.SharedMemorySpace{}, true)
	alloc := dialect.LocalAlloc(b, memTy, nil)

	b.SetInsertionPointAfter(forOp.Op)
	b.SetLoc(forOp.Loc())
	dialect.LocalDealloc(b, alloc)
	klog.V(3).Infof("pipeliner: allocated %s around %s", memTy, forOp.Op)
	return alloc
}

// CreateScalarAlloc allocates a mutable 1-D shared memory buffer of
// numBuffers elements of type elem at b's insertion point. The buffer is
// split across the CTAs of the enclosing module.
func CreateScalarAlloc(b *ir.Builder, elem ir.Type, numBuffers int) *ir.Value {
	numCTAs := 1
	if blk := b.InsertionBlock(); blk != nil && blk.ParentOp() != nil {
		numCTAs = dialect.NumCTAs(blk.ParentOp())
	}
	cta := layout.CTALayout{CTAsPerCGA: []int{numCTAs}, CTASplitNum: []int{1}, CTAOrder: []int{0}}
	enc := layout.NewSwizzledSharedEncoding(1, 1, 1, []int{0}, cta)
	memTy := ir.NewMemDescType([]int64{int64(numBuffers)}, elem, enc, layout.SharedMemorySpace{}, true)
	return dialect.LocalAlloc(b, memTy, nil)
}

// CreateBarrierAlloc allocates n mbarriers for forOp. Each barrier is
// initialized with an arrival count of 1 before the loop. After the loop
// the barriers are invalidated in index order and the allocation is freed.
func CreateBarrierAlloc(forOp dialect.ForOp, n int) *ir.Value {
	b := ir.NewBuilderBefore(forOp.Op)
	alloc := CreateScalarAlloc(b, ir.I64, n)
	for i := range n {
		dialect.InitBarrier(b, CreateSingleBufferView(b, alloc, i), 1)
	}

	b.SetInsertionPointAfter(forOp.Op)
	for i := range n {
		dialect.InvalBarrier(b, CreateSingleBufferView(b, alloc, i))
	}
	dialect.LocalDealloc(b, alloc)
	klog.V(3).Infof("pipeliner: allocated %d barriers around %s", n, forOp.Op)
	return alloc
}

// CreateSingleBufferView returns a view of stage idx of the multi-stage
// buffer alloc.
func CreateSingleBufferView(b *ir.Builder, alloc *ir.Value, idx int) *ir.Value {
	return CreateSingleBufferViewAt(b, alloc, dialect.ConstantInt(b, int64(idx), ir.I32))
}

// CreateSingleBufferViewAt returns a view of the stage of alloc selected by
// the i32 value idx. The view drops the leading stage dimension; views of
// 1-D buffers have shape [1].
func CreateSingleBufferViewAt(b *ir.Builder, alloc, idx *ir.Value) *ir.Value {
	allocTy := alloc.Type().(*ir.MemDescType)
	shape := []int64{1}
	offsets := []*ir.Value{idx}
	if allocTy.Rank() > 1 {
		shape = slices.Clone(allocTy.Shape[1:])
		zero := dialect.ConstantInt(b, 0, ir.I32)
		offsets = append(offsets, lo.Times(allocTy.Rank()-1, func(int) *ir.Value { return zero })...)
	}
	viewTy := &ir.MemDescType{
		Shape:       shape,
		Elem:        allocTy.Elem,
		Encoding:    allocTy.Encoding,
		MemorySpace: allocTy.MemorySpace,
		Mutable:     allocTy.Mutable,
		AllocShape:  slices.Clone(allocTy.AllocShape),
	}
	return dialect.MemDescSubview(b, viewTy, alloc, offsets)
}

// BufferViewType returns the type of one stage of a buffer of type allocTy:
// the leading dimension is dropped and the alloc shape kept.
func BufferViewType(allocTy *ir.MemDescType) *ir.MemDescType {
	return &ir.MemDescType{
		Shape:       slices.Clone(allocTy.Shape[1:]),
		Elem:        allocTy.Elem,
		Encoding:    allocTy.Encoding,
		MemorySpace: layout.SharedMemorySpace{},
		Mutable:     true,
		AllocShape:  slices.Clone(allocTy.AllocShape),
	}
}
