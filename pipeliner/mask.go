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

// PredMask combines pred with currentMask into a mask shaped like typeLike.
// A scalar pred is splatted when typeLike is a tensor, and a non-nil
// currentMask is and-ed in. The new ops are created at b's insertion point
// with pred's location; nothing else is modified.
func PredMask(b *ir.Builder, typeLike ir.Type, currentMask, pred *ir.Value) *ir.Value {
	if def := pred.DefiningOp(); def != nil {
		loc := b.Loc()
		b.SetLoc(def.Loc())
		defer b.SetLoc(loc)
	}
	maskType := ir.I1SameShape(typeLike)
	mask := pred
	if ir.IsTensor(maskType) && !ir.TypeEqual(pred.Type(), maskType) {
		mask = dialect.Splat(b, maskType, pred)
	}
	if currentMask != nil {
		mask = dialect.AndI(b, mask, currentMask)
	}
	return mask
}
