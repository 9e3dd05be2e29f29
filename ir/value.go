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

	"github.com/samber/lo"
)

// Value is an SSA value: either the result of an op or an argument of a
// block. Exactly one of DefiningOp and OwnerBlock is non-nil.
type Value struct {
	typ Type

	// def and index identify an op result.
	def *Op

	// block and index identify a block argument.
	block *Block

	index int

	// uses lists every operand slot currently reading this value.
	uses []*Operand
}

// Type returns the value's static type.
func (v *Value) Type() Type {
	return v.typ
}

// SetType changes the value's type in place. Callers are responsible for
// keeping users consistent with the new type.
func (v *Value) SetType(t Type) {
	v.typ = t
}

// DefiningOp returns the op producing v, or nil for block arguments.
func (v *Value) DefiningOp() *Op {
	return v.def
}

// ResultNumber returns the result position of v in its defining op.
// It is only meaningful when DefiningOp is non-nil.
func (v *Value) ResultNumber() int {
	return v.index
}

// IsBlockArgument reports whether v is a block argument.
func (v *Value) IsBlockArgument() bool {
	return v.block != nil
}

// OwnerBlock returns the block v is an argument of, or nil for op results.
func (v *Value) OwnerBlock() *Block {
	return v.block
}

// ArgNumber returns the position of v in its owner block's argument list.
// It is only meaningful when IsBlockArgument is true.
func (v *Value) ArgNumber() int {
	return v.index
}

// Uses returns a snapshot of the operands reading v. Mutating the graph while
// ranging over the snapshot is safe.
func (v *Value) Uses() []*Operand {
	return slices.Clone(v.uses)
}

// NumUses returns the number of operands reading v.
func (v *Value) NumUses() int {
	return len(v.uses)
}

// HasUses reports whether any operand reads v.
func (v *Value) HasUses() bool {
	return len(v.uses) > 0
}

// Users returns the distinct ops reading v, in use order.
func (v *Value) Users() []*Op {
	return lo.Uniq(lo.Map(v.uses, func(u *Operand, _ int) *Op {
		return u.owner
	}))
}

// ReplaceAllUsesWith redirects every use of v to nv.
func (v *Value) ReplaceAllUsesWith(nv *Value) {
	if v == nv {
		return
	}
	for _, u := range v.Uses() {
		u.Set(nv)
	}
}

// ReplaceUsesWithIf redirects the uses of v for which keep returns true.
func (v *Value) ReplaceUsesWithIf(nv *Value, keep func(*Operand) bool) {
	if v == nv {
		return
	}
	for _, u := range v.Uses() {
		if keep(u) {
			u.Set(nv)
		}
	}
}

func (v *Value) addUse(o *Operand) {
	v.uses = append(v.uses, o)
}

func (v *Value) removeUse(o *Operand) {
	if i := slices.Index(v.uses, o); i >= 0 {
		v.uses = slices.Delete(v.uses, i, i+1)
	}
}

// Operand is one operand slot of an op. It is a stable handle: reassigning it
// with Set updates use lists without rebuilding the op.
type Operand struct {
	owner *Op
	index int
	value *Value
}

// Owner returns the op this operand belongs to.
func (o *Operand) Owner() *Op {
	return o.owner
}

// Index returns the operand's position in its owner's flat operand list.
func (o *Operand) Index() int {
	return o.index
}

// Get returns the value currently in this slot.
func (o *Operand) Get() *Value {
	return o.value
}

// Set replaces the value in this slot.
func (o *Operand) Set(v *Value) {
	if o.value == v {
		return
	}
	if o.value != nil {
		o.value.removeUse(o)
	}
	o.value = v
	if v != nil {
		v.addUse(o)
	}
}

func (o *Operand) drop() {
	if o.value != nil {
		o.value.removeUse(o)
		o.value = nil
	}
}
