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

// Package layout defines the encodings that describe how tensors map onto
// threads (register encodings) and onto on-chip memory (shared encodings).
// All encodings are ir.Attribute values and compare with ir.AttrEqual.
package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/samber/lo"
)

// CTALayout describes how a tensor is split across the CTAs of a cluster.
type CTALayout struct {
	CTAsPerCGA  []int
	CTASplitNum []int
	CTAOrder    []int
}

// DefaultCTALayout returns the single-CTA layout for a tensor of the given rank.
func DefaultCTALayout(rank int) CTALayout {
	return CTALayout{
		CTAsPerCGA:  lo.Times(rank, func(int) int { return 1 }),
		CTASplitNum: lo.Times(rank, func(int) int { return 1 }),
		CTAOrder:    DefaultOrder(rank),
	}
}

func (c CTALayout) String() string {
	return fmt.Sprintf("CTAsPerCGA = %s, CTASplitNum = %s, CTAOrder = %s",
		ints(c.CTAsPerCGA), ints(c.CTASplitNum), ints(c.CTAOrder))
}

// ShapePerCTA divides shape by the CTA split factors.
func (c CTALayout) ShapePerCTA(shape []int64) []int64 {
	out := make([]int64, len(shape))
	for i, d := range shape {
		split := int64(1)
		if i < len(c.CTASplitNum) && c.CTASplitNum[i] > 0 {
			split = int64(c.CTASplitNum[i])
		}
		out[i] = max(d/split, 1)
	}
	return out
}

// Encoding is implemented by every layout attribute.
type Encoding interface {
	ir.Attribute

	// CTA returns the cluster split of the layout.
	CTA() CTALayout
}

// SharedEncoding is implemented by layouts of on-chip shared memory.
type SharedEncoding interface {
	Encoding

	// SharedOrder returns the dimensions from fastest to slowest varying
	// in memory for a buffer of the given rank.
	SharedOrder(rank int) []int
}

// DistributedEncoding is implemented by register layouts.
type DistributedEncoding interface {
	Encoding

	// Order returns the dimensions from fastest to slowest varying across
	// consecutive registers of a thread.
	Order(rank int) []int
}

// DefaultOrder returns [rank-1, ..., 0], the row-major order.
func DefaultOrder(rank int) []int {
	return lo.Times(rank, func(i int) int { return rank - 1 - i })
}

// BlockedEncoding distributes a tensor over threads and warps in
// contiguous per-thread chunks.
type BlockedEncoding struct {
	SizePerThread  []int
	ThreadsPerWarp []int
	WarpsPerCTA    []int
	Ord            []int
	CTALayout      CTALayout
}

func (e *BlockedEncoding) String() string {
	return fmt.Sprintf("#ttg.blocked<{sizePerThread = %s, threadsPerWarp = %s, warpsPerCTA = %s, order = %s}>",
		ints(e.SizePerThread), ints(e.ThreadsPerWarp), ints(e.WarpsPerCTA), ints(e.Ord))
}

// CTA implements Encoding.
func (e *BlockedEncoding) CTA() CTALayout { return e.CTALayout }

// Order implements DistributedEncoding.
func (e *BlockedEncoding) Order(int) []int { return e.Ord }

// NvidiaMmaEncoding is the accumulator layout of the tensor-core MMA
// instructions. VersionMajor 2 is Ampere mma.sync, 3 is Hopper wgmma.
type NvidiaMmaEncoding struct {
	VersionMajor int
	VersionMinor int
	WarpsPerCTA  []int
	InstrShape   []int
	CTALayout    CTALayout
}

func (e *NvidiaMmaEncoding) String() string {
	return fmt.Sprintf("#ttg.nvidia_mma<{versionMajor = %d, versionMinor = %d, warpsPerCTA = %s, instrShape = %s}>",
		e.VersionMajor, e.VersionMinor, ints(e.WarpsPerCTA), ints(e.InstrShape))
}

// CTA implements Encoding.
func (e *NvidiaMmaEncoding) CTA() CTALayout { return e.CTALayout }

// Order implements DistributedEncoding.
func (e *NvidiaMmaEncoding) Order(rank int) []int { return DefaultOrder(rank) }

// DotOperandEncoding is the register layout of operand OpIdx (0 for A,
// 1 for B) of a dot whose accumulator has layout Parent. KWidth is the
// number of consecutive K elements each thread holds.
type DotOperandEncoding struct {
	OpIdx  int
	Parent Encoding
	KWidth int
}

func (e *DotOperandEncoding) String() string {
	return fmt.Sprintf("#ttg.dot_op<{opIdx = %d, parent = %s, kWidth = %d}>", e.OpIdx, e.Parent, e.KWidth)
}

// CTA implements Encoding. A dot operand without a parent is assumed to
// live on a single CTA.
func (e *DotOperandEncoding) CTA() CTALayout {
	if e.Parent == nil {
		return DefaultCTALayout(2)
	}
	return e.Parent.CTA()
}

// Order implements DistributedEncoding. K is the fastest dimension: the last
// dimension for A and the second to last for B, batch dimensions slowest.
func (e *DotOperandEncoding) Order(rank int) []int {
	kDim := rank - 1
	nonK := rank - 2
	if e.OpIdx == 1 {
		kDim, nonK = rank-2, rank-1
	}
	order := []int{kDim, nonK}
	for d := rank - 3; d >= 0; d-- {
		order = append(order, d)
	}
	return order
}

// SwizzledSharedEncoding is the generic shared layout: Vec consecutive
// elements are kept together, and rows are XOR-swizzled every PerPhase rows
// with MaxPhase distinct phases.
type SwizzledSharedEncoding struct {
	Vec       int
	PerPhase  int
	MaxPhase  int
	Ord       []int
	CTALayout CTALayout
}

// NewSwizzledSharedEncoding returns a swizzled shared encoding.
func NewSwizzledSharedEncoding(vec, perPhase, maxPhase int, order []int, cta CTALayout) *SwizzledSharedEncoding {
	return &SwizzledSharedEncoding{Vec: vec, PerPhase: perPhase, MaxPhase: maxPhase, Ord: order, CTALayout: cta}
}

func (e *SwizzledSharedEncoding) String() string {
	return fmt.Sprintf("#ttg.swizzled_shared<{vec = %d, perPhase = %d, maxPhase = %d, order = %s, %s}>",
		e.Vec, e.PerPhase, e.MaxPhase, ints(e.Ord), e.CTALayout)
}

// CTA implements Encoding.
func (e *SwizzledSharedEncoding) CTA() CTALayout { return e.CTALayout }

// SharedOrder implements SharedEncoding.
func (e *SwizzledSharedEncoding) SharedOrder(int) []int { return e.Ord }

// NVMMASharedEncoding is the shared layout consumed directly by wgmma,
// tcgen05 and TMA: 128-bit chunks swizzled within SwizzlingByteWidth rows.
type NVMMASharedEncoding struct {
	SwizzlingByteWidth int
	TransposeFlag      bool
	ElementBitWidth    int
	FP4Padded          bool
	CTALayout          CTALayout
}

func (e *NVMMASharedEncoding) String() string {
	return fmt.Sprintf("#ttg.nvmma_shared<{swizzlingByteWidth = %d, transposed = %t, elementBitWidth = %d, fp4Padded = %t, %s}>",
		e.SwizzlingByteWidth, e.TransposeFlag, e.ElementBitWidth, e.FP4Padded, e.CTALayout)
}

// CTA implements Encoding.
func (e *NVMMASharedEncoding) CTA() CTALayout { return e.CTALayout }

// SharedOrder implements SharedEncoding. Transposed layouts have the second
// to last dimension fastest.
func (e *NVMMASharedEncoding) SharedOrder(rank int) []int {
	order := DefaultOrder(rank)
	if e.TransposeFlag && rank >= 2 {
		order[0], order[1] = order[1], order[0]
	}
	return order
}

// SharedMemorySpace marks memory descriptors living in shared memory.
type SharedMemorySpace struct{}

func (SharedMemorySpace) String() string { return "#ttg.shared_memory" }

// TensorMemorySpace marks memory descriptors living in tensor memory.
type TensorMemorySpace struct{}

func (TensorMemorySpace) String() string { return "#ttng.tensor_memory" }

// CTALayoutOf returns the CTA split of enc, or the single-CTA layout when
// enc carries none.
func CTALayoutOf(enc ir.Attribute, rank int) CTALayout {
	if dot, ok := enc.(*DotOperandEncoding); ok && dot.Parent == nil {
		return DefaultCTALayout(rank)
	}
	if e, ok := enc.(Encoding); ok {
		return e.CTA()
	}
	return DefaultCTALayout(rank)
}

// OrderOf returns the register order of a tensor type, defaulting to
// row-major for tensors without a distributed encoding.
func OrderOf(t *ir.TensorType) []int {
	if e, ok := t.Encoding.(DistributedEncoding); ok {
		return e.Order(t.Rank())
	}
	return DefaultOrder(t.Rank())
}

// OrderForMemory returns the order a tensor should keep once stored in
// shared memory.
func OrderForMemory(t ir.Type) []int {
	switch tt := t.(type) {
	case *ir.TensorType:
		return OrderOf(tt)
	case *ir.MemDescType:
		if e, ok := tt.Encoding.(SharedEncoding); ok {
			return e.SharedOrder(tt.Rank())
		}
		return DefaultOrder(tt.Rank())
	default:
		return nil
	}
}

func ints(vals []int) string {
	return "[" + strings.Join(lo.Map(vals, func(v int, _ int) string { return strconv.Itoa(v) }), ", ") + "]"
}
