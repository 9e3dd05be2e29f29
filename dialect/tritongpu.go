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

package dialect

import (
	"fmt"
	"slices"

	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/ajroetker/go-pipeliner/layout"
	"github.com/samber/lo"
)

// TritonGPU op kinds.
const (
	AsyncCopyGlobalToLocalOpName = "ttg.async_copy_global_to_local"
	AsyncCommitGroupOpName       = "ttg.async_commit_group"
	AsyncWaitOpName              = "ttg.async_wait"
	LocalAllocOpName             = "ttg.local_alloc"
	LocalDeallocOpName           = "ttg.local_dealloc"
	LocalLoadOpName              = "ttg.local_load"
	LocalStoreOpName             = "ttg.local_store"
	MemDescSubviewOpName         = "ttg.memdesc_subview"
	MemDescTransOpName           = "ttg.memdesc_trans"
	ConvertLayoutOpName          = "ttg.convert_layout"
)

// AsyncTokenType orders asynchronous copies with their waits.
var AsyncTokenType = ir.TokenType{Name: "ttg.async.token"}

func init() {
	register(
		ir.OpDef{Name: AsyncCopyGlobalToLocalOpName, Segments: []string{SegSrc, SegResult, SegMask, SegOther}, Effects: ir.EffectsReadWrite},
		ir.OpDef{Name: AsyncCommitGroupOpName, Effects: ir.EffectsReadWrite},
		ir.OpDef{Name: AsyncWaitOpName, Effects: ir.EffectsReadWrite},
		ir.OpDef{Name: LocalAllocOpName, Segments: []string{SegSrc}, Effects: ir.EffectsWrite},
		ir.OpDef{Name: LocalDeallocOpName, Segments: []string{SegSrc}, Effects: ir.EffectsWrite},
		ir.OpDef{Name: LocalLoadOpName, Segments: []string{SegSrc, SegToken}, Effects: ir.EffectsRead},
		ir.OpDef{Name: LocalStoreOpName, Segments: []string{SegSrc, SegDst}, Effects: ir.EffectsWrite},
		ir.OpDef{Name: MemDescSubviewOpName, Segments: []string{SegSrc, SegOffsets}},
		ir.OpDef{Name: MemDescTransOpName, Segments: []string{SegSrc}},
		ir.OpDef{Name: ConvertLayoutOpName, Segments: []string{SegSrc}},
	)
}

// AsyncCopyGlobalToLocal starts copying the tensor of pointers src into the
// buffer dst. mask and other may be nil. The op yields an async token.
func AsyncCopyGlobalToLocal(b *ir.Builder, src, dst, mask, other *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:        AsyncCopyGlobalToLocalOpName,
		Segments:    [][]*ir.Value{{src}, {dst}, {mask}, {other}},
		ResultTypes: []ir.Type{AsyncTokenType},
	})
}

// AsyncCommitGroup closes the current group of async copies.
func AsyncCommitGroup(b *ir.Builder, tokens ...*ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:        AsyncCommitGroupOpName,
		Operands:    tokens,
		ResultTypes: []ir.Type{AsyncTokenType},
	})
}

// AsyncWait waits until at most num async copy groups are in flight.
func AsyncWait(b *ir.Builder, tokens []*ir.Value, num int) *ir.Op {
	return b.Create(ir.OpState{
		Name:        AsyncWaitOpName,
		Operands:    tokens,
		ResultTypes: []ir.Type{AsyncTokenType},
		Attrs:       map[string]ir.Attribute{"num": ir.NewI32Attr(int64(num))},
	})
}

// LocalAlloc allocates a shared memory buffer of type t, optionally
// initialized from the register tensor src.
func LocalAlloc(b *ir.Builder, t *ir.MemDescType, src *ir.Value) *ir.Value {
	return b.Create(ir.OpState{
		Name:        LocalAllocOpName,
		Segments:    [][]*ir.Value{{src}},
		ResultTypes: []ir.Type{t},
	}).Result(0)
}

// LocalDealloc frees a buffer created by LocalAlloc.
func LocalDealloc(b *ir.Builder, alloc *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     LocalDeallocOpName,
		Segments: [][]*ir.Value{{alloc}},
	})
}

// LocalLoad reads the buffer src into registers of type t. token may be nil.
func LocalLoad(b *ir.Builder, t ir.Type, src, token *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:        LocalLoadOpName,
		Segments:    [][]*ir.Value{{src}, {token}},
		ResultTypes: []ir.Type{t},
	})
}

// LocalStore writes the register tensor src into the buffer dst.
func LocalStore(b *ir.Builder, src, dst *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     LocalStoreOpName,
		Segments: [][]*ir.Value{{src}, {dst}},
	})
}

// MemDescSubview creates a view of type t into src at offsets.
func MemDescSubview(b *ir.Builder, t *ir.MemDescType, src *ir.Value, offsets []*ir.Value) *ir.Value {
	return b.Create(ir.OpState{
		Name:        MemDescSubviewOpName,
		Segments:    [][]*ir.Value{{src}, offsets},
		ResultTypes: []ir.Type{t},
	}).Result(0)
}

// MemDescTransType returns the type of src viewed through the dimension
// permutation order. Mutability follows src.
func MemDescTransType(src *ir.MemDescType, order []int) *ir.MemDescType {
	if len(order) != src.Rank() {
		panic(fmt.Sprintf("dialect: transposing rank %d buffer with order %v", src.Rank(), order))
	}
	permute := func(shape []int64) []int64 {
		if len(shape) != len(order) {
			return slices.Clone(shape)
		}
		return lo.Map(order, func(d int, _ int) int64 { return shape[d] })
	}
	return &ir.MemDescType{
		Shape:       permute(src.Shape),
		Elem:        src.Elem,
		Encoding:    layout.PermuteShared(src.Encoding, order),
		MemorySpace: src.MemorySpace,
		Mutable:     src.Mutable,
		AllocShape:  permute(src.AllocShape),
	}
}

// MemDescTrans views src with its dimensions permuted by order.
func MemDescTrans(b *ir.Builder, src *ir.Value, order []int) *ir.Value {
	return b.Create(ir.OpState{
		Name:        MemDescTransOpName,
		Segments:    [][]*ir.Value{{src}},
		ResultTypes: []ir.Type{MemDescTransType(src.Type().(*ir.MemDescType), order)},
		Attrs:       map[string]ir.Attribute{"order": ir.NewDenseI32ArrayAttr(order)},
	}).Result(0)
}

// TransOrder returns the permutation of a memdesc_trans op.
func TransOrder(op *ir.Op) []int {
	if a, ok := op.Attr("order").(ir.DenseI32ArrayAttr); ok {
		return a.Ints()
	}
	return nil
}

// ConvertLayout converts the register tensor src to type t.
func ConvertLayout(b *ir.Builder, t ir.Type, src *ir.Value) *ir.Value {
	return b.Create(ir.OpState{
		Name:        ConvertLayoutOpName,
		Segments:    [][]*ir.Value{{src}},
		ResultTypes: []ir.Type{t},
	}).Result(0)
}
