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

package ir

import (
	"slices"

	"github.com/pkg/errors"
)

// Verify checks the structural invariants of op and everything nested in it:
//   - every operand is listed in its value's use list and vice versa,
//   - no operand reads a value whose defining op was erased or detached,
//   - values defined in the same block are defined before they are used,
//   - blocks of regions with a required terminator end with it.
func Verify(op *Op) error {
	var err error
	op.Walk(func(o *Op) {
		if err != nil {
			return
		}
		err = verifyOp(o)
	})
	return err
}

func verifyOp(op *Op) error {
	if op.erased {
		return errors.Errorf("%s: op is erased", op)
	}
	for i, o := range op.operands {
		if o.owner != op || o.index != i {
			return errors.Errorf("%s: operand %d has stale owner or index", op, i)
		}
		v := o.value
		if v == nil {
			return errors.Errorf("%s: operand %d is null", op, i)
		}
		if !slices.Contains(v.uses, o) {
			return errors.Errorf("%s: operand %d missing from its value's use list", op, i)
		}
		if err := verifyDefinition(op, i, v); err != nil {
			return err
		}
	}
	for _, r := range op.results {
		for _, u := range r.uses {
			if u.value != r {
				return errors.Errorf("%s: result %d use list holds a foreign operand", op, r.index)
			}
			if u.owner.erased {
				return errors.Errorf("%s: result %d used by erased op %s", op, r.index, u.owner)
			}
			if u.index >= len(u.owner.operands) || u.owner.operands[u.index] != u {
				return errors.Errorf("%s: result %d use list holds a detached operand of %s", op, r.index, u.owner)
			}
		}
	}
	for ri, r := range op.regions {
		for bi, b := range r.blocks {
			if b.region != r {
				return errors.Errorf("%s: region %d block %d has wrong parent", op, ri, bi)
			}
			for _, child := range b.ops {
				if child.block != b {
					return errors.Errorf("%s: nested %s has wrong parent block", op, child)
				}
			}
			if op.def != nil && op.def.Terminator != "" {
				if last := b.Back(); last == nil || last.name != op.def.Terminator {
					return errors.Errorf("%s: region %d block %d does not end with %s", op, ri, bi, op.def.Terminator)
				}
			}
		}
	}
	return nil
}

func verifyDefinition(user *Op, idx int, v *Value) error {
	if v.IsBlockArgument() {
		if v.block.region == nil {
			return errors.Errorf("%s: operand %d is an argument of a detached block", user, idx)
		}
		return nil
	}
	def := v.def
	if def.erased {
		return errors.Errorf("%s: operand %d defined by erased op %s", user, idx, def)
	}
	if def.block == nil {
		return errors.Errorf("%s: operand %d defined by detached op %s", user, idx, def)
	}
	// Walk the user's ancestors up to the block of the definition; the
	// definition must come before that ancestor.
	for anc := user; anc != nil; anc = anc.ParentOp() {
		if anc.block == def.block {
			if anc == def || !def.IsBeforeInBlock(anc) {
				return errors.Errorf("%s: operand %d uses %s before its definition", user, idx, def)
			}
			return nil
		}
	}
	return nil
}
