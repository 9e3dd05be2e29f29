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

// Package pipeliner provides the building blocks of software pipelining for
// scf.for loops over the Triton GPU dialects: predicating ops that only run
// in some stages, allocating multi-stage shared memory buffers and their
// barriers, measuring how many iterations separate a use from its
// definition, choosing shared memory layouts for buffered values, and
// carrying per-op latencies between passes.
//
// The scheduler that assigns stages and latencies lives outside this
// package. A typical caller:
//
//	enc, err := pipeliner.SharedEncoding(load)
//	if err != nil {
//		return err
//	}
//	alloc := pipeliner.CreateAlloc(forOp, loadTy, load.Loc(), enc, numStages)
//	bars := pipeliner.CreateBarrierAlloc(forOp, numStages)
//	...
//	if _, err := pipeliner.PredicateOp(b, op, pred); err != nil {
//		return err // the loop is left partially rewritten
//	}
//
// Every entry point mutates the IR in place and expects exclusive access to
// it for the duration of the call.
package pipeliner
