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

import "github.com/ajroetker/go-pipeliner/ir"

// Module-level and Triton op kinds.
const (
	ModuleOpName           = "builtin.module"
	FuncOpName             = "tt.func"
	ReturnOpName           = "tt.return"
	SplatOpName            = "tt.splat"
	LoadOpName             = "tt.load"
	StoreOpName            = "tt.store"
	AtomicRMWOpName        = "tt.atomic_rmw"
	DescriptorLoadOpName   = "tt.descriptor_load"
	DescriptorGatherOpName = "tt.descriptor_gather"
	DotOpName              = "tt.dot"
	PrintOpName            = "tt.print"
	AssumeOpName           = "llvm.intr.assume"
)

// Operand segments of Triton ops.
const (
	SegIndices  = "indices"
	SegXOffsets = "xOffsets"
	SegYOffset  = "yOffset"
	SegA        = "a"
	SegB        = "b"
	SegC        = "c"
)

// NumCTAsAttrName is the module attribute holding the number of CTAs per
// cluster.
const NumCTAsAttrName = "ttg.num-ctas"

func init() {
	register(
		ir.OpDef{Name: ModuleOpName, NumRegions: 1},
		ir.OpDef{Name: FuncOpName, Effects: ir.EffectsRecursive, NumRegions: 1, Terminator: ReturnOpName},
		ir.OpDef{Name: ReturnOpName, IsTerminator: true},
		ir.OpDef{Name: SplatOpName},
		ir.OpDef{Name: LoadOpName, Segments: []string{SegPtr, SegMask, SegOther}, Effects: ir.EffectsRead},
		ir.OpDef{Name: StoreOpName, Segments: []string{SegPtr, SegValue, SegMask}, Effects: ir.EffectsWrite},
		ir.OpDef{Name: AtomicRMWOpName, Segments: []string{SegPtr, SegValue, SegMask}, Effects: ir.EffectsReadWrite},
		ir.OpDef{Name: DescriptorLoadOpName, Segments: []string{SegDesc, SegIndices}, Effects: ir.EffectsRead},
		ir.OpDef{Name: DescriptorGatherOpName, Segments: []string{SegDesc, SegXOffsets, SegYOffset}, Effects: ir.EffectsRead},
		ir.OpDef{Name: DotOpName, Segments: []string{SegA, SegB, SegC}},
		ir.OpDef{Name: PrintOpName, Effects: ir.EffectsWrite},
		ir.OpDef{Name: AssumeOpName, Effects: ir.EffectsWrite},
	)
}

// NewModule returns a detached module with an empty body. numCTAs is stored
// under NumCTAsAttrName.
func NewModule(ctx *ir.Context, numCTAs int) *ir.Op {
	m := ctx.Create(ir.OpState{
		Name:  ModuleOpName,
		Attrs: map[string]ir.Attribute{NumCTAsAttrName: ir.NewI32Attr(int64(numCTAs))},
	})
	m.Region(0).AddBlock()
	return m
}

// NumCTAs returns the number of CTAs of the module enclosing op, or 1.
func NumCTAs(op *ir.Op) int {
	m := op
	if m.Name() != ModuleOpName {
		m = op.ParentOfKind(ModuleOpName)
	}
	if m == nil {
		return 1
	}
	if a, ok := m.Attr(NumCTAsAttrName).(ir.IntegerAttr); ok && a.Value > 0 {
		return int(a.Value)
	}
	return 1
}

// NewFunc appends a tt.func with the given argument types to the body of
// module. It returns the function and its entry block; the caller
// terminates the block with Return.
func NewFunc(module *ir.Op, name string, argTypes []ir.Type) (*ir.Op, *ir.Block) {
	b := ir.NewBuilder(module.Context())
	b.SetInsertionPointToEnd(module.Region(0).Front())
	fn := b.Create(ir.OpState{
		Name:  FuncOpName,
		Attrs: map[string]ir.Attribute{"sym_name": ir.StringAttr(name)},
	})
	entry := fn.Region(0).AddBlock()
	for _, t := range argTypes {
		entry.AddArgument(t)
	}
	return fn, entry
}

// Return terminates a function body.
func Return(b *ir.Builder, vals ...*ir.Value) *ir.Op {
	return b.Create(ir.OpState{Name: ReturnOpName, Operands: vals})
}

// Splat broadcasts the scalar v to tensor type t.
func Splat(b *ir.Builder, t ir.Type, v *ir.Value) *ir.Value {
	return b.Create(ir.OpState{
		Name:        SplatOpName,
		Operands:    []*ir.Value{v},
		ResultTypes: []ir.Type{t},
	}).Result(0)
}

// Load reads through ptr. mask and other may be nil.
func Load(b *ir.Builder, ptr, mask, other *ir.Value, resultType ir.Type) *ir.Op {
	return b.Create(ir.OpState{
		Name:        LoadOpName,
		Segments:    [][]*ir.Value{{ptr}, {mask}, {other}},
		ResultTypes: []ir.Type{resultType},
	})
}

// Store writes value through ptr. mask may be nil.
func Store(b *ir.Builder, ptr, value, mask *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     StoreOpName,
		Segments: [][]*ir.Value{{ptr}, {value}, {mask}},
	})
}

// AtomicRMW applies the read-modify-write kind (e.g. "add") through ptr and
// returns the old values. mask may be nil.
func AtomicRMW(b *ir.Builder, kind string, ptr, value, mask *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:        AtomicRMWOpName,
		Segments:    [][]*ir.Value{{ptr}, {value}, {mask}},
		ResultTypes: []ir.Type{value.Type()},
		Attrs:       map[string]ir.Attribute{"atomic_rmw_op": ir.StringAttr(kind)},
	})
}

// DescriptorLoad loads the tile of desc at indices.
func DescriptorLoad(b *ir.Builder, desc *ir.Value, indices []*ir.Value, resultType ir.Type) *ir.Op {
	return b.Create(ir.OpState{
		Name:        DescriptorLoadOpName,
		Segments:    [][]*ir.Value{{desc}, indices},
		ResultTypes: []ir.Type{resultType},
	})
}

// DescriptorGather gathers rows xOffsets of desc starting at column yOffset.
func DescriptorGather(b *ir.Builder, desc, xOffsets, yOffset *ir.Value, resultType ir.Type) *ir.Op {
	return b.Create(ir.OpState{
		Name:        DescriptorGatherOpName,
		Segments:    [][]*ir.Value{{desc}, {xOffsets}, {yOffset}},
		ResultTypes: []ir.Type{resultType},
	})
}

// Dot computes a*b + c in registers.
func Dot(b *ir.Builder, a, bOperand, c *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:        DotOpName,
		Segments:    [][]*ir.Value{{a}, {bOperand}, {c}},
		ResultTypes: []ir.Type{c.Type()},
	})
}

// Print emits a device-side print of vals.
func Print(b *ir.Builder, prefix string, vals ...*ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     PrintOpName,
		Operands: vals,
		Attrs:    map[string]ir.Attribute{"prefix": ir.StringAttr(prefix)},
	})
}

// Assume records that cond holds.
func Assume(b *ir.Builder, cond *ir.Value) *ir.Op {
	return b.Create(ir.OpState{Name: AssumeOpName, Operands: []*ir.Value{cond}})
}
