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

// Package dialect is the op catalog the pipeliner operates on: the kinds of
// the arith, scf, llvm, tt (Triton), ttg (TritonGPU), ttng (TritonNvidiaGPU)
// and distributed dialects, their operand segments and memory effects, and
// typed constructors.
//
// Importing the package registers every kind with the ir op registry.
package dialect

import "github.com/ajroetker/go-pipeliner/ir"

// Operand segment names shared by several kinds.
const (
	SegPtr     = "ptr"
	SegMask    = "mask"
	SegOther   = "other"
	SegValue   = "value"
	SegSrc     = "src"
	SegDst     = "dst"
	SegResult  = "result"
	SegPred    = "pred"
	SegAlloc   = "alloc"
	SegDesc    = "desc"
	SegBarrier = "barrier"
	SegOffsets = "offsets"
	SegToken   = "token"
)

func register(defs ...ir.OpDef) {
	for _, def := range defs {
		ir.RegisterOp(def)
	}
}
