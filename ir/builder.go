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

import "fmt"

// Builder creates ops and inserts them at its insertion point. The insertion
// point is a block plus the op new ops go before; a nil op means the end of
// the block. Successive inserts at the same point keep their creation order.
type Builder struct {
	ctx    *Context
	block  *Block
	before *Op
	loc    Location
}

// NewBuilder returns a Builder with no insertion point.
func NewBuilder(ctx *Context) *Builder {
	return &Builder{ctx: ctx}
}

// NewBuilderBefore returns a Builder inserting right before op, using op's
// location for new ops.
func NewBuilderBefore(op *Op) *Builder {
	b := &Builder{ctx: op.ctx, loc: op.loc}
	b.SetInsertionPoint(op)
	return b
}

// Context returns the builder's Context.
func (b *Builder) Context() *Context {
	return b.ctx
}

// Loc returns the location given to ops created without one.
func (b *Builder) Loc() Location {
	return b.loc
}

// SetLoc sets the location given to ops created without one.
func (b *Builder) SetLoc(loc Location) {
	b.loc = loc
}

// SetInsertionPoint makes new ops go right before op.
func (b *Builder) SetInsertionPoint(op *Op) {
	if op.block == nil {
		panic(fmt.Sprintf("ir: insertion point %s is not in a block", op))
	}
	b.block = op.block
	b.before = op
}

// SetInsertionPointAfter makes new ops go right after op.
func (b *Builder) SetInsertionPointAfter(op *Op) {
	if op.block == nil {
		panic(fmt.Sprintf("ir: insertion point %s is not in a block", op))
	}
	b.block = op.block
	b.before = op.Next()
}

// SetInsertionPointToStart makes new ops go at the start of block.
func (b *Builder) SetInsertionPointToStart(block *Block) {
	b.block = block
	b.before = block.Front()
}

// SetInsertionPointToEnd makes new ops go at the end of block.
func (b *Builder) SetInsertionPointToEnd(block *Block) {
	b.block = block
	b.before = nil
}

// InsertionBlock returns the block new ops are inserted into.
func (b *Builder) InsertionBlock() *Block {
	return b.block
}

// InsertionPoint returns the op new ops are inserted before, or nil when
// they go at the end of InsertionBlock.
func (b *Builder) InsertionPoint() *Op {
	return b.before
}

// SaveInsertionPoint returns a function restoring the current insertion
// point, for use as `defer b.SaveInsertionPoint()()`.
func (b *Builder) SaveInsertionPoint() func() {
	block, before := b.block, b.before
	return func() {
		b.block, b.before = block, before
	}
}

// Insert places a detached op at the insertion point.
func (b *Builder) Insert(op *Op) *Op {
	if b.block == nil {
		panic(fmt.Sprintf("ir: builder has no insertion point for %s", op))
	}
	i := len(b.block.ops)
	if b.before != nil {
		i = b.block.indexOf(b.before)
		if i < 0 {
			panic(fmt.Sprintf("ir: insertion point %s left its block", b.before))
		}
	}
	b.block.insertAt(i, op)
	return op
}

// Create builds an op from state and inserts it at the insertion point.
func (b *Builder) Create(state OpState) *Op {
	if state.Loc == (Location{}) {
		state.Loc = b.loc
	}
	return b.Insert(b.ctx.Create(state))
}

// Clone inserts a deep copy of op at the insertion point.
func (b *Builder) Clone(op *Op, m *Mapping) *Op {
	return b.Insert(op.Clone(m))
}

// ReplaceOp redirects the uses of op's results to vals and erases op.
func (b *Builder) ReplaceOp(op *Op, vals []*Value) {
	if len(vals) != len(op.results) {
		panic(fmt.Sprintf("ir: replacing %s: %d results, %d replacements", op, len(op.results), len(vals)))
	}
	for i, r := range op.results {
		r.ReplaceAllUsesWith(vals[i])
	}
	b.EraseOp(op)
}

// EraseOp erases op, moving the insertion point off it first.
func (b *Builder) EraseOp(op *Op) {
	if b.before == op {
		b.before = op.Next()
	}
	op.Erase()
}
