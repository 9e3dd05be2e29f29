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
	"github.com/samber/lo"
)

// ReplaceUsesAndPropagateType replaces every use of the results of oldUse
// with val. Views of oldUse (memdesc subviews and transposes) are rebuilt on
// top of val so that their types follow val's mutability, then their own
// uses are replaced recursively and the old views are erased. oldUse itself
// is left in place without uses.
func ReplaceUsesAndPropagateType(b *ir.Builder, oldUse *ir.Op, val *ir.Value) {
	var (
		toErase   []*ir.Op
		toReplace []*ir.Operand
	)
	uses := lo.FlatMap(oldUse.Results(), func(r *ir.Value, _ int) []*ir.Operand { return r.Uses() })
	for _, use := range uses {
		user := use.Owner()
		if !user.Is(dialect.MemDescSubviewOpName, dialect.MemDescTransOpName) {
			toReplace = append(toReplace, use)
			continue
		}
		if slices.Contains(toErase, user) {
			continue
		}
		newVal := rebuildView(b, user, val)
		ReplaceUsesAndPropagateType(b, user, newVal)
		toErase = append(toErase, user)
	}

	for _, use := range toReplace {
		use.Set(val)
	}
	for _, op := range toErase {
		b.EraseOp(op)
	}
}

// rebuildView creates a copy of the view op view reading src instead,
// placed right before view.
func rebuildView(b *ir.Builder, view *ir.Op, src *ir.Value) *ir.Value {
	defer b.SaveInsertionPoint()()
	loc := b.Loc()
	defer b.SetLoc(loc)
	b.SetInsertionPoint(view)
	b.SetLoc(view.Loc())

	var newVal *ir.Value
	if view.Is(dialect.MemDescSubviewOpName) {
		oldTy := view.Result(0).Type().(*ir.MemDescType)
		srcTy := src.Type().(*ir.MemDescType)
		newTy := &ir.MemDescType{
			Shape:       slices.Clone(oldTy.Shape),
			Elem:        oldTy.Elem,
			Encoding:    oldTy.Encoding,
			MemorySpace: oldTy.MemorySpace,
			Mutable:     srcTy.Mutable,
			AllocShape:  slices.Clone(srcTy.AllocShape),
		}
		newVal = dialect.MemDescSubview(b, newTy, src, view.Segment(dialect.SegOffsets))
	} else {
		newVal = dialect.MemDescTrans(b, src, dialect.TransOrder(view))
	}
	newVal.DefiningOp().SetAttrs(view.Attrs())
	return newVal
}
