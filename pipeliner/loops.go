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
	"github.com/ajroetker/go-pipeliner/dialect"
	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/samber/lo"
)

// LoopHasDistGreaterThanOne reports whether forOp yields one of its block
// arguments, so that some value reaches its use more than one iteration
// after it was computed.
func LoopHasDistGreaterThanOne(forOp dialect.ForOp) bool {
	return lo.SomeBy(forOp.YieldedValues(), func(v *ir.Value) bool {
		return v.DefiningOp() == nil
	})
}

// IsOuterLoop reports whether the body of forOp directly contains another
// loop.
func IsOuterLoop(forOp dialect.ForOp) bool {
	return lo.SomeBy(forOp.Body().Operations(), func(op *ir.Op) bool {
		return op.Is(dialect.ForOpName, dialect.WhileOpName)
	})
}
