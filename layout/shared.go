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

package layout

import (
	"slices"

	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/samber/lo"
)

// SwizzledForDotOperand returns the swizzled shared layout from which an
// mma.sync or wgmma operand with encoding dot can be loaded without bank
// conflicts. Parents other than NVIDIA MMA v2/v3 get the unswizzled layout.
func SwizzledForDotOperand(dot *DotOperandEncoding, shape []int64, order []int, cta CTALayout, bitWidth int) *SwizzledSharedEncoding {
	unswizzled := NewSwizzledSharedEncoding(1, 1, 1, order, cta)
	mma, ok := dot.Parent.(*NvidiaMmaEncoding)
	if !ok || (mma.VersionMajor != 2 && mma.VersionMajor != 3) || bitWidth <= 0 || dot.KWidth <= 0 {
		return unswizzled
	}
	rank := len(shape)
	if rank < 2 || len(order) != rank {
		return unswizzled
	}
	shapePerCTA := cta.ShapePerCTA(shape)

	// K is the innermost dimension of A and the second innermost of B.
	inner := rank - 1
	if dot.OpIdx == 1 {
		inner = rank - 2
	}
	// Transposed narrow-type operands are loaded unswizzled.
	if 32/bitWidth != dot.KWidth && order[0] == inner {
		return unswizzled
	}

	rowElems := int(shapePerCTA[order[0]]) * 4 / dot.KWidth
	perPhase := 1
	if rowElems > 0 {
		perPhase = max(128/rowElems, 1)
	}
	matM, matN, matK := 8, 8, 4*dot.KWidth

	var vec, mmaStride int
	if dot.OpIdx == 0 {
		vec, mmaStride = matM, matK
		if order[0] == rank-1 {
			vec, mmaStride = matK, matM
		}
	} else {
		vec, mmaStride = matK, matN
		if order[0] == rank-1 {
			vec, mmaStride = matN, matK
		}
	}
	return NewSwizzledSharedEncoding(vec, perPhase, max(mmaStride/perPhase, 1), order, cta)
}

// NVMMASharedFor returns the NVMMA shared layout for a tile of the given
// shape: the swizzle width is the largest of 128, 64 and 32 bytes that
// evenly divides the contiguous row.
func NVMMASharedFor(shape []int64, order []int, cta CTALayout, elemBits int) *NVMMASharedEncoding {
	rank := len(shape)
	enc := &NVMMASharedEncoding{ElementBitWidth: elemBits, CTALayout: cta}
	if rank == 0 || len(order) != rank {
		return enc
	}
	contigBytes := int(cta.ShapePerCTA(shape)[order[0]]) * elemBits / 8
	for _, w := range []int{128, 64, 32} {
		if contigBytes >= w && contigBytes%w == 0 {
			enc.SwizzlingByteWidth = w
			break
		}
	}
	enc.TransposeFlag = rank >= 2 && order[0] != rank-1
	return enc
}

// PermuteShared returns the shared layout of a buffer viewed through the
// dimension permutation perm, where result dimension i is input dimension
// perm[i].
func PermuteShared(enc ir.Attribute, perm []int) ir.Attribute {
	switch e := enc.(type) {
	case *SwizzledSharedEncoding:
		if len(e.Ord) != len(perm) {
			return enc
		}
		return NewSwizzledSharedEncoding(e.Vec, e.PerPhase, e.MaxPhase, permuteOrder(e.Ord, perm), permuteCTA(e.CTALayout, perm))
	case *NVMMASharedEncoding:
		if len(e.CTALayout.CTAOrder) != len(perm) {
			return enc
		}
		c := *e
		c.CTALayout = permuteCTA(e.CTALayout, perm)
		if slices.Equal(perm, []int{1, 0}) {
			c.TransposeFlag = !e.TransposeFlag
		}
		return &c
	default:
		return enc
	}
}

// permuteOrder renames the dimensions listed in order after a permutation.
func permuteOrder(order, perm []int) []int {
	return lo.Map(order, func(d int, _ int) int { return slices.Index(perm, d) })
}

func permuteCTA(c CTALayout, perm []int) CTALayout {
	if len(c.CTAsPerCGA) != len(perm) {
		return c
	}
	return CTALayout{
		CTAsPerCGA:  lo.Map(perm, func(d int, _ int) int { return c.CTAsPerCGA[d] }),
		CTASplitNum: lo.Map(perm, func(d int, _ int) int { return c.CTASplitNum[d] }),
		CTAOrder:    permuteOrder(c.CTAOrder, perm),
	}
}

// ContiguousElements returns how many consecutive elements a thread holding
// a tensor of type reg can write to consecutive shared addresses when
// storing into a buffer with layout shared.
func ContiguousElements(reg *ir.TensorType, shared SharedEncoding) int {
	rank := reg.Rank()
	if rank == 0 {
		return 1
	}
	fast := OrderOf(reg)[0]
	if shared.SharedOrder(rank)[0] != fast {
		return 1
	}
	n := 1
	if b, ok := reg.Encoding.(*BlockedEncoding); ok && fast < len(b.SizePerThread) {
		n = b.SizePerThread[fast]
	}
	switch s := shared.(type) {
	case *SwizzledSharedEncoding:
		if s.MaxPhase > 1 {
			n = min(n, s.Vec)
		}
	case *NVMMASharedEncoding:
		// Swizzling permutes 16-byte chunks.
		if s.SwizzlingByteWidth > 0 && s.ElementBitWidth > 0 {
			n = min(n, 128/s.ElementBitWidth)
		}
	}
	return max(min(n, int(reg.Shape[fast])), 1)
}
