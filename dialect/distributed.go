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

import "github.com/ajroetker/go-pipeliner/ir"

// Distributed op kinds: cross-device signal waits and the token that orders
// later memory accesses after them.
const (
	WaitOpName         = "distributed.wait"
	ConsumeTokenOpName = "distributed.consume_token"
)

// Operand segments of distributed ops.
const (
	SegBarrierPtrs = "barrierPtrs"
	SegWaitValue   = "waitValue"
	SegInput       = "input"
)

func init() {
	register(
		ir.OpDef{Name: WaitOpName, Segments: []string{SegBarrierPtrs, SegWaitValue}, Effects: ir.EffectsReadWrite},
		ir.OpDef{Name: ConsumeTokenOpName, Segments: []string{SegInput, SegToken}, Effects: ir.EffectsWrite},
	)
}

// Wait spins until every signal in barrierPtrs reaches waitValue and
// returns an integer token of type resultType.
func Wait(b *ir.Builder, barrierPtrs []*ir.Value, waitValue *ir.Value, resultType ir.Type) *ir.Op {
	return b.Create(ir.OpState{
		Name:        WaitOpName,
		Segments:    [][]*ir.Value{barrierPtrs, {waitValue}},
		ResultTypes: []ir.Type{resultType},
		Attrs:       map[string]ir.Attribute{"scope": ir.StringAttr("gpu"), "semantic": ir.StringAttr("acquire")},
	})
}

// ConsumeToken returns input ordered after token.
func ConsumeToken(b *ir.Builder, input, token *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:        ConsumeTokenOpName,
		Segments:    [][]*ir.Value{{input}, {token}},
		ResultTypes: []ir.Type{input.Type()},
	})
}
