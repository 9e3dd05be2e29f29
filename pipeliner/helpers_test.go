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
	"fmt"
	"testing"

	"github.com/ajroetker/go-pipeliner/dialect"
	"github.com/ajroetker/go-pipeliner/ir"
)

// fixture is a module with one function whose body is being built.
type fixture struct {
	ctx    *ir.Context
	diag   *ir.DiagnosticCollector
	module *ir.Op
	fn     *ir.Op
	entry  *ir.Block
	b      *ir.Builder
}

func newFixture(t *testing.T, numCTAs int, argTypes ...ir.Type) *fixture {
	t.Helper()
	diag := &ir.DiagnosticCollector{}
	ctx := ir.NewContext(ir.WithDiagnosticHandler(diag))
	m := dialect.NewModule(ctx, numCTAs)
	fn, entry := dialect.NewFunc(m, "kernel", argTypes)
	b := ir.NewBuilder(ctx)
	b.SetInsertionPointToEnd(entry)
	return &fixture{ctx: ctx, diag: diag, module: m, fn: fn, entry: entry, b: b}
}

func (f *fixture) arg(i int) *ir.Value {
	return f.entry.Argument(i)
}

// finish terminates the function.
func (f *fixture) finish() {
	dialect.Return(f.b)
}

func (f *fixture) verify(t *testing.T) {
	t.Helper()
	if err := ir.Verify(f.module); err != nil {
		t.Fatalf("Verify: %v\n%s", err, ir.Print(f.module))
	}
}

// emptyLoop builds "for i = 0 to n step 1" with no iteration arguments.
func (f *fixture) emptyLoop(n *ir.Value, body func(b *ir.Builder, iv *ir.Value)) dialect.ForOp {
	lb := dialect.ConstantInt(f.b, 0, ir.I32)
	step := dialect.ConstantInt(f.b, 1, ir.I32)
	return dialect.NewFor(f.b, lb, n, step, nil, func(b *ir.Builder, iv *ir.Value, _ []*ir.Value) []*ir.Value {
		if body != nil {
			body(b, iv)
		}
		return nil
	})
}

// describe renders the mask expression rooted at v using names for leaves.
func describe(v *ir.Value, names map[*ir.Value]string) string {
	if n, ok := names[v]; ok {
		return n
	}
	def := v.DefiningOp()
	if def == nil {
		return "?arg"
	}
	switch def.Name() {
	case dialect.SplatOpName:
		return fmt.Sprintf("splat(%s)", describe(def.Operand(0), names))
	case dialect.AndIOpName:
		return fmt.Sprintf("and(%s, %s)", describe(def.Operand(0), names), describe(def.Operand(1), names))
	default:
		return def.Name()
	}
}

func opNames(ops []*ir.Op) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name()
	}
	return names
}

func intConstant(t *testing.T, v *ir.Value) int64 {
	t.Helper()
	attr, ok := dialect.ConstantValue(v)
	if !ok {
		t.Fatalf("%v is not a constant", v)
	}
	a, ok := attr.(ir.IntegerAttr)
	if !ok {
		t.Fatalf("constant %v is not an integer", attr)
	}
	return a.Value
}
