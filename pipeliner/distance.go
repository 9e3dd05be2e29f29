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
)

// DefinitionAndDistance follows v back through the iteration arguments of
// forOp to the op result it originates from, and returns that result with
// the number of iterations between it and v.
//
// Values that are not block arguments have distance 0 and are their own
// origin. The induction variable, arguments of blocks other than the loop
// body, and argument chains that never reach an op result have no origin:
// (nil, 0) is returned.
func DefinitionAndDistance(forOp dialect.ForOp, v *ir.Value) (*ir.Value, int) {
	body := forOp.Body()
	yielded := forOp.YieldedValues()
	distance := 0
	for v.IsBlockArgument() {
		if v.OwnerBlock() != body || v.ArgNumber() == 0 {
			return nil, 0
		}
		// Every hop moves to a different argument, so a longer chain loops.
		if distance >= len(yielded) {
			return nil, 0
		}
		distance++
		v = yielded[v.ArgNumber()-1]
	}
	return v, distance
}

// DefiningOpAndDistance is DefinitionAndDistance returning the defining op.
func DefiningOpAndDistance(forOp dialect.ForOp, v *ir.Value) (*ir.Op, int) {
	def, distance := DefinitionAndDistance(forOp, v)
	if def == nil {
		return nil, distance
	}
	return def.DefiningOp(), distance
}

// ForwardChain walks distance iterations forward from v: each step moves
// from a yielded value to the iteration arguments receiving it in the next
// iteration. A value yielded at several positions fans out, so the result
// holds every iteration argument reached after exactly distance steps, in
// argument order. It returns nil when the chain ends early.
func ForwardChain(forOp dialect.ForOp, v *ir.Value, distance int) []*ir.Value {
	yielded := forOp.YieldedValues()
	args := forOp.RegionIterArgs()
	frontier := []*ir.Value{v}
	for range distance {
		var next []*ir.Value
		for i, y := range yielded {
			if slices.Contains(frontier, y) {
				next = append(next, args[i])
			}
		}
		if len(next) == 0 {
			return nil
		}
		frontier = next
	}
	return frontier
}
