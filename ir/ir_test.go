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

package ir

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func init() {
	RegisterOp(OpDef{Name: "test.def"})
	RegisterOp(OpDef{Name: "test.use", Effects: EffectsWrite})
	RegisterOp(OpDef{Name: "test.masked", Segments: []string{"ptr", "mask", "extra"}, Effects: EffectsRead})
	RegisterOp(OpDef{Name: "test.region", Effects: EffectsRecursive, NumRegions: 1, Terminator: "test.yield"})
	RegisterOp(OpDef{Name: "test.yield", IsTerminator: true})
	RegisterOp(OpDef{Name: "test.container", NumRegions: 1})
}

// newTestContainer returns a detached container op with one block and a
// builder appending to it.
func newTestContainer(ctx *Context) (*Op, *Builder) {
	c := ctx.Create(OpState{Name: "test.container"})
	blk := c.Region(0).AddBlock()
	b := NewBuilder(ctx)
	b.SetInsertionPointToEnd(blk)
	return c, b
}

func newDef(b *Builder) *Value {
	return b.Create(OpState{Name: "test.def", ResultTypes: []Type{I32}}).Result(0)
}

func opIDs(ops []*Op) []int {
	ids := make([]int, len(ops))
	for i, op := range ops {
		ids[i] = op.ID()
	}
	return ids
}

func opNames(ops []*Op) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name()
	}
	return names
}

func TestSegments(t *testing.T) {
	ctx := NewContext()
	_, b := newTestContainer(ctx)
	p, a, m := newDef(b), newDef(b), newDef(b)

	op := b.Create(OpState{
		Name:     "test.masked",
		Segments: [][]*Value{{p}, nil, {a, a}},
	})
	if got := op.NumOperands(); got != 3 {
		t.Fatalf("NumOperands() = %d, want 3", got)
	}
	if got := op.SegmentValue("mask"); got != nil {
		t.Errorf("SegmentValue(mask) = %v, want nil", got)
	}
	if got := len(op.Segment("extra")); got != 2 {
		t.Errorf("len(Segment(extra)) = %d, want 2", got)
	}

	op.SetSegment("mask", m)
	if got := op.SegmentValue("mask"); got != m {
		t.Errorf("SegmentValue(mask) after set = %v, want %v", got, m)
	}
	if got := op.Operand(1); got != m {
		t.Errorf("Operand(1) = %v, want mask", got)
	}
	for i, o := range op.OpOperands() {
		if o.Index() != i {
			t.Errorf("operand %d has index %d", i, o.Index())
		}
	}
	if m.NumUses() != 1 {
		t.Errorf("mask uses = %d, want 1", m.NumUses())
	}

	// Reassigning a segment of unchanged length keeps operand handles.
	h := op.SegmentOperands("mask")[0]
	op.SetSegment("mask", a)
	if h.Get() != a {
		t.Errorf("mask handle reads %v after reassign, want %v", h.Get(), a)
	}
	if m.HasUses() {
		t.Errorf("old mask still has %d uses", m.NumUses())
	}

	op.SetSegment("mask")
	if op.NumOperands() != 3 || op.SegmentValue("mask") != nil {
		t.Errorf("clearing mask left %d operands, mask=%v", op.NumOperands(), op.SegmentValue("mask"))
	}
	if got := a.NumUses(); got != 2 {
		t.Errorf("a uses = %d, want 2", got)
	}
	if err := Verify(op.ParentOp()); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestReplaceAllUsesWith(t *testing.T) {
	ctx := NewContext()
	c, b := newTestContainer(ctx)
	oldV, newV := newDef(b), newDef(b)
	u1 := b.Create(OpState{Name: "test.use", Operands: []*Value{oldV, oldV}})
	u2 := b.Create(OpState{Name: "test.use", Operands: []*Value{oldV}})

	if diff := cmp.Diff(opIDs([]*Op{u1, u2}), opIDs(oldV.Users())); diff != "" {
		t.Errorf("Users() mismatch (-want +got):\n%s", diff)
	}
	oldV.ReplaceAllUsesWith(newV)
	if oldV.HasUses() {
		t.Errorf("old value still has %d uses", oldV.NumUses())
	}
	if newV.NumUses() != 3 {
		t.Errorf("new value uses = %d, want 3", newV.NumUses())
	}
	if err := Verify(c); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestEraseWithUsesPanics(t *testing.T) {
	ctx := NewContext()
	_, b := newTestContainer(ctx)
	v := newDef(b)
	b.Create(OpState{Name: "test.use", Operands: []*Value{v}})

	defer func() {
		if r := recover(); r == nil {
			t.Error("Erase of op with live uses did not panic")
		}
	}()
	v.DefiningOp().Erase()
}

func TestEraseDropsUses(t *testing.T) {
	ctx := NewContext()
	c, b := newTestContainer(ctx)
	v := newDef(b)
	use := b.Create(OpState{Name: "test.use", Operands: []*Value{v}})
	use.Erase()
	if v.HasUses() {
		t.Errorf("value still has %d uses after user erased", v.NumUses())
	}
	if !use.IsErased() || use.Block() != nil {
		t.Error("erased op still attached")
	}
	if got := c.Region(0).Front().Len(); got != 1 {
		t.Errorf("block has %d ops, want 1", got)
	}
}

func TestWalkPostOrder(t *testing.T) {
	ctx := NewContext()
	c, b := newTestContainer(ctx)
	r := b.Create(OpState{Name: "test.region"})
	inner := NewBuilder(ctx)
	inner.SetInsertionPointToEnd(r.Region(0).AddBlock())
	newDef(inner)
	inner.Create(OpState{Name: "test.yield"})

	var got []string
	c.Walk(func(op *Op) { got = append(got, op.Name()) })
	want := []string{"test.def", "test.yield", "test.region", "test.container"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneRemapsNestedValues(t *testing.T) {
	ctx := NewContext()
	c, b := newTestContainer(ctx)
	outer := newDef(b)
	r := b.Create(OpState{Name: "test.region"})
	blk := r.Region(0).AddBlock()
	arg := blk.AddArgument(I1)
	inner := NewBuilder(ctx)
	inner.SetInsertionPointToEnd(blk)
	inner.Create(OpState{Name: "test.use", Operands: []*Value{outer, arg}})
	inner.Create(OpState{Name: "test.yield"})

	b.SetInsertionPointToEnd(c.Region(0).Front())
	m := NewMapping()
	clone := b.Clone(r, m)

	cb := clone.Region(0).Front()
	if cb == blk {
		t.Fatal("clone shares the original block")
	}
	use := cb.Front()
	if use.Operand(0) != outer {
		t.Errorf("outer operand remapped to %v", use.Operand(0))
	}
	if use.Operand(1) != cb.Argument(0) || m.Lookup(arg) != cb.Argument(0) {
		t.Error("block argument not remapped to the cloned block's argument")
	}
	if outer.NumUses() != 2 {
		t.Errorf("outer uses = %d, want 2", outer.NumUses())
	}
	if clone.ID() == r.ID() {
		t.Error("clone reuses the original id")
	}
	if err := Verify(c); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestBuilderInsertionOrder(t *testing.T) {
	ctx := NewContext()
	c, b := newTestContainer(ctx)
	first := newDef(b).DefiningOp()
	last := newDef(b).DefiningOp()

	b.SetInsertionPointAfter(first)
	restore := b.SaveInsertionPoint()
	x := b.Create(OpState{Name: "test.use"})
	y := b.Create(OpState{Name: "test.use"})

	b.SetInsertionPointToStart(c.Region(0).Front())
	z := b.Create(OpState{Name: "test.use"})
	restore()
	w := b.Create(OpState{Name: "test.use"})

	want := []*Op{z, first, x, y, w, last}
	if diff := cmp.Diff(opIDs(want), opIDs(c.Region(0).Front().Operations())); diff != "" {
		t.Errorf("block order mismatch (-want +got):\n%s", diff)
	}
	if !x.IsBeforeInBlock(y) || y.IsBeforeInBlock(x) {
		t.Error("IsBeforeInBlock disagrees with block order")
	}
}

func TestVerifyDetectsErrors(t *testing.T) {
	t.Run("UseBeforeDef", func(t *testing.T) {
		ctx := NewContext()
		c, b := newTestContainer(ctx)
		v := newDef(b)
		b.SetInsertionPoint(v.DefiningOp())
		b.Create(OpState{Name: "test.use", Operands: []*Value{v}})
		if err := Verify(c); err == nil || !strings.Contains(err.Error(), "before its definition") {
			t.Errorf("Verify() = %v, want use-before-definition error", err)
		}
	})
	t.Run("MissingTerminator", func(t *testing.T) {
		ctx := NewContext()
		c, b := newTestContainer(ctx)
		r := b.Create(OpState{Name: "test.region"})
		r.Region(0).AddBlock()
		if err := Verify(c); err == nil || !strings.Contains(err.Error(), "does not end with test.yield") {
			t.Errorf("Verify() = %v, want missing terminator error", err)
		}
	})
	t.Run("DetachedDefinition", func(t *testing.T) {
		ctx := NewContext()
		c, b := newTestContainer(ctx)
		detached := ctx.Create(OpState{Name: "test.def", ResultTypes: []Type{I32}})
		b.Create(OpState{Name: "test.use", Operands: []*Value{detached.Result(0)}})
		if err := Verify(c); err == nil || !strings.Contains(err.Error(), "detached op") {
			t.Errorf("Verify() = %v, want detached definition error", err)
		}
	})
}

func TestIsMemoryEffectFree(t *testing.T) {
	ctx := NewContext()
	_, b := newTestContainer(ctx)

	pure := b.Create(OpState{Name: "test.region"})
	pb := NewBuilder(ctx)
	pb.SetInsertionPointToEnd(pure.Region(0).AddBlock())
	newDef(pb)
	pb.Create(OpState{Name: "test.yield"})

	impure := b.Create(OpState{Name: "test.region"})
	ib := NewBuilder(ctx)
	ib.SetInsertionPointToEnd(impure.Region(0).AddBlock())
	ib.Create(OpState{Name: "test.use"})
	ib.Create(OpState{Name: "test.yield"})

	tests := []struct {
		name string
		op   *Op
		want bool
	}{
		{"Pure", newDef(b).DefiningOp(), true},
		{"Write", b.Create(OpState{Name: "test.use"}), false},
		{"RecursivePure", pure, true},
		{"RecursiveImpure", impure, false},
		{"Unregistered", b.Create(OpState{Name: "test.unknown"}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMemoryEffectFree(tt.op); got != tt.want {
				t.Errorf("IsMemoryEffectFree(%s) = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
}

func TestI1SameShape(t *testing.T) {
	tests := []struct {
		in   Type
		want string
	}{
		{I32, "i1"},
		{&PointerType{Pointee: F16}, "i1"},
		{NewTensorType([]int64{128, 64}, &PointerType{Pointee: F16}, nil), "tensor<128x64xi1>"},
	}
	for _, tt := range tests {
		if got := I1SameShape(tt.in).String(); got != tt.want {
			t.Errorf("I1SameShape(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMemDescTypeString(t *testing.T) {
	full := NewMemDescType([]int64{3, 128, 64}, F16, nil, StringAttr("smem"), true)
	if got, want := full.String(), `!ttg.memdesc<3x128x64xf16, "smem", mutable>`; got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
	view := &MemDescType{Shape: []int64{128, 64}, Elem: F16, AllocShape: []int64{3, 128, 64}}
	if got, want := view.String(), "!ttg.memdesc<128x64xf16, 3x128x64>"; got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

func TestPrint(t *testing.T) {
	ctx := NewContext()
	c, b := newTestContainer(ctx)
	d := b.Create(OpState{
		Name:        "test.def",
		ResultTypes: []Type{I32},
		Attrs:       map[string]Attribute{"value": IntegerAttr{Value: 7, Type: I32}},
	}).Result(0)
	b.Create(OpState{
		Name:        "test.masked",
		Segments:    [][]*Value{{d}, nil, {d, d}},
		ResultTypes: []Type{NewTensorType([]int64{4}, F16, nil)},
	})
	r := b.Create(OpState{Name: "test.region"})
	blk := r.Region(0).AddBlock()
	arg := blk.AddArgument(I1)
	inner := NewBuilder(ctx)
	inner.SetInsertionPointToEnd(blk)
	inner.Create(OpState{Name: "test.yield", Operands: []*Value{arg}})

	want := `test.container() {
  ^bb0:
    %0 = test.def() {value = 7 : i32} : i32
    %1 = test.masked(ptr: %0, extra: [%0, %0]) : tensor<4xf16>
    test.region() {
      ^bb1(%arg0: i1):
        test.yield(%arg0)
    }
}
`
	if diff := cmp.Diff(want, Print(c)); diff != "" {
		t.Errorf("Print mismatch (-want +got):\n%s", diff)
	}
}

func TestDiagnosticCollector(t *testing.T) {
	col := &DiagnosticCollector{}
	ctx := NewContext(WithDiagnosticHandler(col))
	_, b := newTestContainer(ctx)
	op := newDef(b).DefiningOp()
	op.SetLoc(Location{File: "kernel.py", Line: 3, Col: 7})
	op.EmitRemark("slow path %d", 1)
	op.EmitError("broken")

	if got := len(col.WithSeverity(SeverityRemark)); got != 1 {
		t.Errorf("remarks = %d, want 1", got)
	}
	errs := col.WithSeverity(SeverityError)
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1", len(errs))
	}
	if got, want := errs[0].String(), "kernel.py:3:7: error: broken"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{"test.def"}, opNames([]*Op{errs[0].Op})); diff != "" {
		t.Errorf("diagnostic op mismatch (-want +got):\n%s", diff)
	}
}
