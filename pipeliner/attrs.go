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
)

// Attribute keys read and written by the pipeliner.
const (
	// LatencyAttrName carries the i32 latency the scheduler assigned to an op.
	LatencyAttrName = "tt.latency"

	// DisallowAccMultiBufferAttrName on a loop forbids multi-buffering its
	// MMA accumulators.
	DisallowAccMultiBufferAttrName = "tt.disallow_acc_multi_buffer"

	// NumStagesAttrName on a loop overrides the number of pipeline stages.
	NumStagesAttrName = "tt.num_stages"
)

// DefaultNumStages is the stage count used when neither the loop nor the
// caller asks for another.
const DefaultNumStages = 2

// DisallowAccMultiBuffer reports whether forOp carries
// DisallowAccMultiBufferAttrName.
func DisallowAccMultiBuffer(forOp dialect.ForOp) bool {
	return forOp.HasAttr(DisallowAccMultiBufferAttrName)
}

// NumStagesOrDefault returns the stage count set on forOp, or def when the
// loop has no integer NumStagesAttrName.
func NumStagesOrDefault(forOp dialect.ForOp, def int) int {
	a, ok := forOp.Attr(NumStagesAttrName).(ir.IntegerAttr)
	if !ok {
		return def
	}
	return int(a.Value)
}

// IsTMALoad reports whether op loads through a tensor descriptor.
func IsTMALoad(op *ir.Op) bool {
	return op.Is(dialect.DescriptorLoadOpName, dialect.DescriptorGatherOpName)
}
