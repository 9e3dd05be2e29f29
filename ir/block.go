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
	"fmt"
	"slices"
)

// Region is an ordered list of blocks owned by an op.
type Region struct {
	blocks []*Block
	parent *Op
}

// ParentOp returns the op owning r.
func (r *Region) ParentOp() *Op {
	return r.parent
}

// Blocks returns the blocks of r.
func (r *Region) Blocks() []*Block {
	return slices.Clone(r.blocks)
}

// Empty reports whether r has no blocks.
func (r *Region) Empty() bool {
	return len(r.blocks) == 0
}

// Front returns the entry block, or nil for an empty region.
func (r *Region) Front() *Block {
	if len(r.blocks) == 0 {
		return nil
	}
	return r.blocks[0]
}

// AddBlock appends a new empty block to r and returns it.
func (r *Region) AddBlock() *Block {
	b := &Block{region: r}
	r.blocks = append(r.blocks, b)
	return b
}

// Block is a straight-line list of ops with arguments.
type Block struct {
	args   []*Value
	ops    []*Op
	region *Region
}

// Region returns the region containing b.
func (b *Block) Region() *Region {
	return b.region
}

// ParentOp returns the op owning b's region, or nil.
func (b *Block) ParentOp() *Op {
	if b.region == nil {
		return nil
	}
	return b.region.parent
}

// Arguments returns the block arguments.
func (b *Block) Arguments() []*Value {
	return slices.Clone(b.args)
}

// NumArguments returns the number of block arguments.
func (b *Block) NumArguments() int {
	return len(b.args)
}

// Argument returns the i-th block argument.
func (b *Block) Argument(i int) *Value {
	return b.args[i]
}

// AddArgument appends a new argument of type t and returns it.
func (b *Block) AddArgument(t Type) *Value {
	v := &Value{typ: t, block: b, index: len(b.args)}
	b.args = append(b.args, v)
	return v
}

// Operations returns the ops of b in order.
func (b *Block) Operations() []*Op {
	return slices.Clone(b.ops)
}

// Len returns the number of ops in b.
func (b *Block) Len() int {
	return len(b.ops)
}

// Empty reports whether b has no ops.
func (b *Block) Empty() bool {
	return len(b.ops) == 0
}

// Front returns the first op of b, or nil.
func (b *Block) Front() *Op {
	if len(b.ops) == 0 {
		return nil
	}
	return b.ops[0]
}

// Back returns the last op of b, or nil.
func (b *Block) Back() *Op {
	if len(b.ops) == 0 {
		return nil
	}
	return b.ops[len(b.ops)-1]
}

// Terminator returns the last op of b if it is a registered terminator.
func (b *Block) Terminator() *Op {
	last := b.Back()
	if last == nil || last.def == nil || !last.def.IsTerminator {
		return nil
	}
	return last
}

// Append adds a detached op at the end of b.
func (b *Block) Append(op *Op) {
	b.insertAt(len(b.ops), op)
}

func (b *Block) indexOf(op *Op) int {
	return slices.Index(b.ops, op)
}

func (b *Block) insertAt(i int, op *Op) {
	if op.block != nil {
		panic(fmt.Sprintf("ir: inserting %s which is already in a block", op))
	}
	if op.erased {
		panic(fmt.Sprintf("ir: inserting erased op %s", op))
	}
	b.ops = slices.Insert(b.ops, i, op)
	op.block = b
}

func (b *Block) remove(op *Op) {
	if i := b.indexOf(op); i >= 0 {
		b.ops = slices.Delete(b.ops, i, i+1)
	}
	op.block = nil
}

// MoveBefore detaches op from its block and inserts it right before other.
func (op *Op) MoveBefore(other *Op) {
	if op.block != nil {
		op.block.remove(op)
	}
	other.block.insertAt(other.block.indexOf(other), op)
}
