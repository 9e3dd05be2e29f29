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
	"testing"

	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/ajroetker/go-pipeliner/layout"
	"github.com/google/go-cmp/cmp"
)

// newFuncBuilder returns a module holding one function and a builder
// appending to the function body.
func newFuncBuilder(t *testing.T, numCTAs int, argTypes ...ir.Type) (*ir.Op, *ir.Block, *ir.Builder) {
	t.Helper()
	ctx := ir.NewContext()
	m := NewModule(ctx, numCTAs)
	_, entry := NewFunc(m, "kernel", argTypes)
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	return m, entry, b
}

func TestForOpAccessors(t *testing.T) {
	m, entry, b := newFuncBuilder(t, 1, ir.I32)
	lb := ConstantInt(b, 0, ir.I32)
	ub := entry.Argument(0)
	step := ConstantInt(b, 1, ir.I32)
	init0 := ConstantInt(b, 7, ir.I32)
	init1 := ConstantBool(b, true)

	var bodyIV *ir.Value
	f := NewFor(b, lb, ub, step, []*ir.Value{init0, init1}, func(b *ir.Builder, iv *ir.Value, args []*ir.Value) []*ir.Value {
		bodyIV = iv
		return []*ir.Value{AddI(b, args[0], iv), args[1]}
	})
	Return(b)

	if f.LowerBound() != lb || f.UpperBound() != ub || f.Step() != step {
		t.Errorf("bounds = (%v, %v, %v), want (lb, ub, step)", f.LowerBound(), f.UpperBound(), f.Step())
	}
	if f.InductionVar() != bodyIV || f.InductionVar().ArgNumber() != 0 {
		t.Errorf("InductionVar() is not body argument 0")
	}
	if got := len(f.RegionIterArgs()); got != 2 {
		t.Fatalf("len(RegionIterArgs()) = %d, want 2", got)
	}
	if diff := cmp.Diff([]string{"i32", "i1"}, typeStrings(f.ResultTypes())); diff != "" {
		t.Errorf("result types mismatch (-want +got):\n%s", diff)
	}
	yielded := f.YieldedValues()
	if len(yielded) != 2 || yielded[1] != f.RegionIterArgs()[1] {
		t.Errorf("YieldedValues() = %v, want [addi, iter arg 1]", yielded)
	}
	if def := yielded[0].DefiningOp(); def == nil || def.Name() != AddIOpName {
		t.Errorf("first yielded value defined by %v, want %s", def, AddIOpName)
	}
	if got, ok := AsFor(f.Op); !ok || got.Op != f.Op {
		t.Errorf("AsFor(for) = %v, %v", got, ok)
	}
	if _, ok := AsFor(lb.DefiningOp()); ok {
		t.Errorf("AsFor(constant) succeeded")
	}
	if err := ir.Verify(m); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestNewIf(t *testing.T) {
	m, _, b := newFuncBuilder(t, 1)
	cond := ConstantBool(b, true)
	ifOp := NewIf(b, []ir.Type{ir.I32}, cond, true)
	Yield(ifOp.ThenBuilder(), ConstantInt(ifOp.ThenBuilder(), 1, ir.I32))
	Yield(ifOp.ElseBuilder(), ConstantInt(ifOp.ElseBuilder(), 0, ir.I32))
	Return(b)

	if ifOp.Condition() != cond {
		t.Errorf("Condition() = %v, want cond", ifOp.Condition())
	}
	other := ConstantBool(ir.NewBuilderBefore(ifOp.Op), false)
	ifOp.SetCondition(other)
	if ifOp.Condition() != other || cond.HasUses() {
		t.Errorf("SetCondition did not replace the condition in place")
	}
	if got := ifOp.ThenBlock().Len(); got != 2 {
		t.Errorf("then block has %d ops, want 2", got)
	}
	if err := ir.Verify(m); err != nil {
		t.Errorf("Verify: %v", err)
	}

	noElse := NewIf(b, nil, cond, false)
	if noElse.ElseBlock() != nil {
		t.Errorf("ElseBlock() of if without else = %v, want nil", noElse.ElseBlock())
	}
}

func TestZeroConstant(t *testing.T) {
	_, _, b := newFuncBuilder(t, 1)
	for _, tc := range []struct {
		name    string
		typ     ir.Type
		wantErr bool
	}{
		{"i32", ir.I32, false},
		{"i64", ir.I64, false},
		{"index", ir.Index, false},
		{"f32", ir.F32, true},
		{"token", AsyncTokenType, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ZeroConstant(b, tc.typ)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ZeroConstant(%s) succeeded", tc.typ)
				}
				return
			}
			if err != nil {
				t.Fatalf("ZeroConstant(%s): %v", tc.typ, err)
			}
			attr, ok := ConstantValue(v)
			if !ok {
				t.Fatalf("zero is not an arith.constant")
			}
			if a, ok := attr.(ir.IntegerAttr); !ok || a.Value != 0 {
				t.Errorf("zero attribute = %v, want 0", attr)
			}
		})
	}
}

func TestNumCTAs(t *testing.T) {
	m, _, b := newFuncBuilder(t, 4)
	c := ConstantInt(b, 1, ir.I32)
	if got := NumCTAs(c.DefiningOp()); got != 4 {
		t.Errorf("NumCTAs(nested op) = %d, want 4", got)
	}
	if got := NumCTAs(m); got != 4 {
		t.Errorf("NumCTAs(module) = %d, want 4", got)
	}
	m.RemoveAttr(NumCTAsAttrName)
	if got := NumCTAs(c.DefiningOp()); got != 1 {
		t.Errorf("NumCTAs without attribute = %d, want 1", got)
	}
}

func TestMemDescTrans(t *testing.T) {
	cta := layout.DefaultCTALayout(2)
	enc := layout.NewSwizzledSharedEncoding(8, 1, 8, []int{1, 0}, cta)
	src := &ir.MemDescType{
		Shape:       []int64{64, 32},
		Elem:        ir.F16,
		Encoding:    enc,
		MemorySpace: layout.SharedMemorySpace{},
		AllocShape:  []int64{2, 64, 32},
	}

	for _, mutable := range []bool{false, true} {
		src := src.WithMutable(mutable)
		got := MemDescTransType(src, []int{1, 0})
		if diff := cmp.Diff([]int64{32, 64}, got.Shape); diff != "" {
			t.Errorf("shape mismatch (-want +got):\n%s", diff)
		}
		if got.Mutable != mutable {
			t.Errorf("Mutable = %t, want %t", got.Mutable, mutable)
		}
		wantCTA := layout.CTALayout{CTAsPerCGA: []int{1, 1}, CTASplitNum: []int{1, 1}, CTAOrder: []int{0, 1}}
		want := layout.NewSwizzledSharedEncoding(8, 1, 8, []int{0, 1}, wantCTA)
		if !ir.AttrEqual(got.Encoding, want) {
			t.Errorf("Encoding = %v, want %v", got.Encoding, want)
		}
		// The alloc shape has an extra stage dimension and is kept as is.
		if diff := cmp.Diff([]int64{2, 64, 32}, got.AllocShape); diff != "" {
			t.Errorf("alloc shape mismatch (-want +got):\n%s", diff)
		}
	}

	_, _, b := newFuncBuilder(t, 1)
	alloc := LocalAlloc(b, src, nil)
	trans := MemDescTrans(b, alloc, []int{1, 0})
	if diff := cmp.Diff([]int{1, 0}, TransOrder(trans.DefiningOp())); diff != "" {
		t.Errorf("TransOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestOptionalSegments(t *testing.T) {
	ptrTy := ir.NewTensorType([]int64{128}, &ir.PointerType{Pointee: ir.F16}, nil)
	m, entry, b := newFuncBuilder(t, 1, ptrTy)
	ptr := entry.Argument(0)

	load := Load(b, ptr, nil, nil, ir.NewTensorType([]int64{128}, ir.F16, nil))
	if load.SegmentValue(SegMask) != nil || load.SegmentValue(SegOther) != nil {
		t.Errorf("load without mask has mask=%v other=%v", load.SegmentValue(SegMask), load.SegmentValue(SegOther))
	}
	bar := LocalAlloc(b, ir.NewMemDescType([]int64{1}, ir.I64, nil, layout.SharedMemorySpace{}, true), nil)
	phase := ConstantInt(b, 0, ir.I32)
	pred := ConstantBool(b, true)
	wait := WaitBarrier(b, bar, phase, nil)
	if wait.SegmentValue(SegPred) != nil {
		t.Errorf("wait_barrier without pred has pred %v", wait.SegmentValue(SegPred))
	}
	wait.SetSegment(SegPred, pred)
	if wait.SegmentValue(SegPred) != pred || wait.SegmentValue(SegPhase) != phase {
		t.Errorf("setting pred disturbed other segments")
	}
	Return(b)
	if err := ir.Verify(m); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestRegisteredEffects(t *testing.T) {
	for _, tc := range []struct {
		name string
		want ir.Effects
	}{
		{ConstantOpName, ir.EffectsNone},
		{MemDescSubviewOpName, ir.EffectsNone},
		{LoadOpName, ir.EffectsRead},
		{StoreOpName, ir.EffectsWrite},
		{AsyncCopyGlobalToLocalOpName, ir.EffectsReadWrite},
		{WaitOpName, ir.EffectsReadWrite},
		{ForOpName, ir.EffectsRecursive},
	} {
		t.Run(tc.name, func(t *testing.T) {
			def, ok := ir.LookupOp(tc.name)
			if !ok {
				t.Fatalf("%s is not registered", tc.name)
			}
			if def.Effects != tc.want {
				t.Errorf("Effects = %s, want %s", def.Effects, tc.want)
			}
		})
	}
}

func typeStrings(ts []ir.Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}
