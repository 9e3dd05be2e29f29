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

import (
	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/samber/lo"
)

// Structured control flow op kinds.
const (
	ForOpName       = "scf.for"
	IfOpName        = "scf.if"
	WhileOpName     = "scf.while"
	YieldOpName     = "scf.yield"
	ConditionOpName = "scf.condition"
)

// Operand segments of scf ops.
const (
	SegLowerBound = "lowerBound"
	SegUpperBound = "upperBound"
	SegStep       = "step"
	SegInitArgs   = "initArgs"
	SegCondition  = "condition"
)

func init() {
	register(
		ir.OpDef{
			Name:       ForOpName,
			Segments:   []string{SegLowerBound, SegUpperBound, SegStep, SegInitArgs},
			Effects:    ir.EffectsRecursive,
			NumRegions: 1,
			Terminator: YieldOpName,
		},
		ir.OpDef{
			Name:       IfOpName,
			Segments:   []string{SegCondition},
			Effects:    ir.EffectsRecursive,
			NumRegions: 2,
			Terminator: YieldOpName,
		},
		ir.OpDef{Name: WhileOpName, Effects: ir.EffectsRecursive, NumRegions: 2},
		ir.OpDef{Name: YieldOpName, IsTerminator: true},
		ir.OpDef{Name: ConditionOpName, IsTerminator: true},
	)
}

// ForOp is a view of an scf.for op. The body block's argument 0 is the
// induction variable; arguments 1..n are the iteration arguments, each fed
// by InitArgs()[i-1] before the first iteration and by YieldedValues()[i-1]
// afterwards.
type ForOp struct {
	*ir.Op
}

// AsFor returns op as a ForOp if it is an scf.for.
func AsFor(op *ir.Op) (ForOp, bool) {
	if op == nil || op.Name() != ForOpName {
		return ForOp{}, false
	}
	return ForOp{op}, true
}

// ForBodyFunc fills the body of a loop and returns the values to yield.
type ForBodyFunc func(b *ir.Builder, iv *ir.Value, iterArgs []*ir.Value) []*ir.Value

// NewFor builds an scf.for at b's insertion point. body may be nil for a
// loop that yields its iteration arguments unchanged.
func NewFor(b *ir.Builder, lb, ub, step *ir.Value, inits []*ir.Value, body ForBodyFunc) ForOp {
	op := b.Create(ir.OpState{
		Name:        ForOpName,
		Segments:    [][]*ir.Value{{lb}, {ub}, {step}, inits},
		ResultTypes: lo.Map(inits, func(v *ir.Value, _ int) ir.Type { return v.Type() }),
	})
	blk := op.Region(0).AddBlock()
	iv := blk.AddArgument(lb.Type())
	args := lo.Map(inits, func(v *ir.Value, _ int) *ir.Value { return blk.AddArgument(v.Type()) })

	defer b.SaveInsertionPoint()()
	b.SetInsertionPointToEnd(blk)
	yielded := args
	if body != nil {
		yielded = body(b, iv, args)
	}
	Yield(b, yielded...)
	return ForOp{op}
}

// Body returns the loop body block.
func (f ForOp) Body() *ir.Block {
	return f.Region(0).Front()
}

// InductionVar returns the induction variable.
func (f ForOp) InductionVar() *ir.Value {
	return f.Body().Argument(0)
}

// LowerBound returns the loop lower bound.
func (f ForOp) LowerBound() *ir.Value {
	return f.SegmentValue(SegLowerBound)
}

// UpperBound returns the exclusive loop upper bound.
func (f ForOp) UpperBound() *ir.Value {
	return f.SegmentValue(SegUpperBound)
}

// Step returns the loop step.
func (f ForOp) Step() *ir.Value {
	return f.SegmentValue(SegStep)
}

// InitArgs returns the initial values of the iteration arguments.
func (f ForOp) InitArgs() []*ir.Value {
	return f.Segment(SegInitArgs)
}

// RegionIterArgs returns the iteration arguments, excluding the induction
// variable.
func (f ForOp) RegionIterArgs() []*ir.Value {
	return f.Body().Arguments()[1:]
}

// Yield returns the body terminator, or nil while the body is incomplete.
func (f ForOp) Yield() *ir.Op {
	t := f.Body().Terminator()
	if t == nil || t.Name() != YieldOpName {
		return nil
	}
	return t
}

// YieldedValues returns the values yielded at the end of each iteration.
func (f ForOp) YieldedValues() []*ir.Value {
	if y := f.Yield(); y != nil {
		return y.Operands()
	}
	return nil
}

// IfOp is a view of an scf.if op.
type IfOp struct {
	*ir.Op
}

// AsIf returns op as an IfOp if it is an scf.if.
func AsIf(op *ir.Op) (IfOp, bool) {
	if op == nil || op.Name() != IfOpName {
		return IfOp{}, false
	}
	return IfOp{op}, true
}

// NewIf builds an scf.if at b's insertion point with an empty then block
// and, when withElse is set, an empty else block. The caller fills both
// blocks and terminates them with Yield.
func NewIf(b *ir.Builder, resultTypes []ir.Type, cond *ir.Value, withElse bool) IfOp {
	op := b.Create(ir.OpState{
		Name:        IfOpName,
		Segments:    [][]*ir.Value{{cond}},
		ResultTypes: resultTypes,
	})
	op.Region(0).AddBlock()
	if withElse {
		op.Region(1).AddBlock()
	}
	return IfOp{op}
}

// Condition returns the branch condition.
func (i IfOp) Condition() *ir.Value {
	return i.SegmentValue(SegCondition)
}

// SetCondition replaces the branch condition in place.
func (i IfOp) SetCondition(v *ir.Value) {
	i.SetSegment(SegCondition, v)
}

// ThenBlock returns the block executed when the condition holds.
func (i IfOp) ThenBlock() *ir.Block {
	return i.Region(0).Front()
}

// ElseBlock returns the block executed otherwise, or nil.
func (i IfOp) ElseBlock() *ir.Block {
	return i.Region(1).Front()
}

// ThenBuilder returns a builder appending to the then block.
func (i IfOp) ThenBuilder() *ir.Builder {
	b := ir.NewBuilder(i.Context())
	b.SetLoc(i.Loc())
	b.SetInsertionPointToEnd(i.ThenBlock())
	return b
}

// ElseBuilder returns a builder appending to the else block.
func (i IfOp) ElseBuilder() *ir.Builder {
	b := ir.NewBuilder(i.Context())
	b.SetLoc(i.Loc())
	b.SetInsertionPointToEnd(i.ElseBlock())
	return b
}

// Yield terminates the current block with vals.
func Yield(b *ir.Builder, vals ...*ir.Value) *ir.Op {
	return b.Create(ir.OpState{Name: YieldOpName, Operands: vals})
}
