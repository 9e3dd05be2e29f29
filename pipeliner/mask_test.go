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
	"testing"

	"github.com/ajroetker/go-pipeliner/dialect"
	"github.com/ajroetker/go-pipeliner/ir"
)

func TestPredMask(t *testing.T) {
	ptrTy := ir.NewTensorType([]int64{64}, &ir.PointerType{Pointee: ir.F16}, nil)
	maskTy := ir.I1SameShape(ptrTy)
	f := newFixture(t, 1, maskTy, ir.I1, ir.I1)
	mask, p, q := f.arg(0), f.arg(1), f.arg(2)
	names := map[*ir.Value]string{mask: "mask", p: "p", q: "q"}

	for _, tc := range []struct {
		name    string
		typ     ir.Type
		current *ir.Value
		want    string
		newOps  int
	}{
		{"ScalarNoMask", ir.I1, nil, "p", 0},
		{"ScalarWithMask", ir.I1, q, "and(p, q)", 1},
		{"TensorNoMask", ptrTy, nil, "splat(p)", 1},
		{"TensorWithMask", ptrTy, mask, "and(splat(p), mask)", 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			before := f.entry.Len()
			got := PredMask(f.b, tc.typ, tc.current, p)
			if s := describe(got, names); s != tc.want {
				t.Errorf("PredMask = %s, want %s", s, tc.want)
			}
			if n := f.entry.Len() - before; n != tc.newOps {
				t.Errorf("PredMask created %d ops, want %d", n, tc.newOps)
			}
			if !ir.TypeEqual(got.Type(), ir.I1SameShape(tc.typ)) {
				t.Errorf("mask type = %s, want %s", got.Type(), ir.I1SameShape(tc.typ))
			}
		})
	}
	f.finish()
	f.verify(t)
}

func TestPredMaskAccumulates(t *testing.T) {
	ptrTy := ir.NewTensorType([]int64{64}, &ir.PointerType{Pointee: ir.F16}, nil)
	f := newFixture(t, 1, ir.I1, ir.I1)
	p1, p2 := f.arg(0), f.arg(1)
	names := map[*ir.Value]string{p1: "p1", p2: "p2"}

	first := describe(PredMask(f.b, ptrTy, PredMask(f.b, ptrTy, nil, p1), p2), names)
	second := describe(PredMask(f.b, ptrTy, PredMask(f.b, ptrTy, nil, p2), p1), names)
	if first != "and(splat(p2), splat(p1))" {
		t.Errorf("p1 then p2 = %s", first)
	}
	if second != "and(splat(p1), splat(p2))" {
		t.Errorf("p2 then p1 = %s", second)
	}
	f.finish()
	f.verify(t)
}

func TestPredMaskKeepsOperandsOfOtherOps(t *testing.T) {
	ptrTy := ir.NewTensorType([]int64{64}, &ir.PointerType{Pointee: ir.F16}, nil)
	f := newFixture(t, 1, ptrTy, ir.I1SameShape(ptrTy), ir.I1)
	load := dialect.Load(f.b, f.arg(0), f.arg(1), nil, ir.NewTensorType([]int64{64}, ir.F16, nil))
	PredMask(f.b, ptrTy, load.SegmentValue(dialect.SegMask), f.arg(2))
	if load.SegmentValue(dialect.SegMask) != f.arg(1) {
		t.Errorf("PredMask changed the mask of the load it read")
	}
	f.finish()
	f.verify(t)
}
