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
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/ajroetker/go-pipeliner/dialect"
	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/ajroetker/go-pipeliner/layout"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"
)

var update = flag.Bool("update", false, "rewrite golden files in testdata")

// TestPipelineAsyncCopy multi-buffers a masked async copy the way a
// pipelining pass does: the copy is predicated on "not the last iteration",
// its single-stage buffer is replaced by a three-stage one and the views of
// the old buffer are rebuilt on the new one.
func TestPipelineAsyncCopy(t *testing.T) {
	maskTy := ir.I1SameShape(ptrTy)
	f := newFixture(t, 1, ptrTy, maskTy, ir.I32)
	src, mask, n := f.arg(0), f.arg(1), f.arg(2)

	enc := SharedEncodingForType(valTy)
	staged := dialect.LocalAlloc(f.b, ir.NewMemDescType([]int64{1, 64}, ir.F16, enc, layout.SharedMemorySpace{}, true), nil)
	lb := dialect.ConstantInt(f.b, 0, ir.I32)
	step := dialect.ConstantInt(f.b, 1, ir.I32)
	var (
		copyOp, commit *ir.Op
		pred           *ir.Value
	)
	forOp := dialect.NewFor(f.b, lb, n, step, nil, func(b *ir.Builder, iv *ir.Value, _ []*ir.Value) []*ir.Value {
		last := dialect.SubI(b, n, step)
		pred = dialect.CmpI(b, "slt", iv, last)
		view := CreateSingleBufferView(b, staged, 0)
		copyOp = dialect.AsyncCopyGlobalToLocal(b, src, view, mask, nil)
		commit = dialect.AsyncCommitGroup(b, copyOp.Result(0))
		return nil
	})
	f.finish()

	for _, op := range []*ir.Op{copyOp, commit} {
		if got, err := PredicateOp(f.b, op, pred); err != nil || got != op {
			t.Fatalf("PredicateOp(%s) = %v, %v", op.Name(), got, err)
		}
	}
	alloc := CreateAlloc(forOp, valTy, forOp.Loc(), enc, 3)
	ReplaceUsesAndPropagateType(f.b, staged.DefiningOp(), alloc)
	f.b.EraseOp(staged.DefiningOp())
	f.verify(t)

	names := map[*ir.Value]string{pred: "pred", mask: "mask"}
	if got := describe(copyOp.SegmentValue(dialect.SegMask), names); got != "and(splat(pred), mask)" {
		t.Errorf("copy mask = %s", got)
	}
	if dst := copyOp.SegmentValue(dialect.SegResult); dst.DefiningOp().SegmentValue(dialect.SegSrc) != alloc {
		t.Errorf("copy writes %v, want a view of the three-stage buffer", dst)
	}

	checkGolden(t, "pipeline.txtar", "kernel.mlir", ir.Print(f.module))
}

// checkGolden compares got with the file name of the txtar archive
// testdata/archive, rewriting it under -update.
func checkGolden(t *testing.T, archive, name, got string) {
	t.Helper()
	path := filepath.Join("testdata", archive)
	ar, err := txtar.ParseFile(path)
	if err != nil {
		t.Fatalf("reading golden archive: %v", err)
	}
	for i := range ar.Files {
		if ar.Files[i].Name != name {
			continue
		}
		if *update {
			ar.Files[i].Data = []byte(got)
			if err := os.WriteFile(path, txtar.Format(ar), 0o644); err != nil {
				t.Fatalf("updating golden archive: %v", err)
			}
			return
		}
		if diff := cmp.Diff(string(ar.Files[i].Data), got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
		return
	}
	t.Fatalf("%s has no file %s", path, name)
}
