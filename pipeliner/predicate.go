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
	"fmt"
	"slices"
	"sync"

	"github.com/ajroetker/go-pipeliner/dialect"
	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// StrategyKind selects how PredicateOp gates an op kind.
type StrategyKind int

const (
	// StrategyUnsupported is the zero value: kinds without a registered
	// strategy fail with ErrUnsupportedOp.
	StrategyUnsupported StrategyKind = iota

	// StrategyExempt kinds are returned unchanged. They are idempotent,
	// already ordered by other predicated ops, or free to run in every stage.
	StrategyExempt

	// StrategyCondition kinds are region ops whose branch condition is
	// and-ed with the predicate in place.
	StrategyCondition

	// StrategyMask kinds carry a mask or predicate operand that is combined
	// with the predicate and reassigned in place.
	StrategyMask

	// StrategyTokenConsume kinds only order later accesses after a token;
	// running them unconditionally is safe.
	StrategyTokenConsume

	// StrategyBranch kinds have no mask operand and are wrapped in an
	// scf.if yielding zeros when the predicate is false.
	StrategyBranch
)

// String returns a human-readable name for the StrategyKind.
func (k StrategyKind) String() string {
	switch k {
	case StrategyUnsupported:
		return "Unsupported"
	case StrategyExempt:
		return "Exempt"
	case StrategyCondition:
		return "Condition"
	case StrategyMask:
		return "Mask"
	case StrategyTokenConsume:
		return "TokenConsume"
	case StrategyBranch:
		return "Branch"
	default:
		return fmt.Sprintf("StrategyKind(%d)", k)
	}
}

// Strategy describes how one op kind is predicated.
type Strategy struct {
	Kind StrategyKind

	// Segment is the operand segment holding the mask, predicate or
	// condition for StrategyMask and StrategyCondition.
	Segment string

	// Ref is the operand segment whose type the mask must match, e.g. the
	// pointer operand of a load. Empty means Segment itself. When the
	// reference operand is absent the predicate is assigned as is.
	Ref string
}

func exempt() Strategy { return Strategy{Kind: StrategyExempt} }

func masked(segment, ref string) Strategy {
	return Strategy{Kind: StrategyMask, Segment: segment, Ref: ref}
}

var (
	strategiesMu sync.RWMutex

	// strategies assigns every side-effecting kind the pipeliner knows to
	// exactly one bucket. Kinds missing here are unsupported.
	strategies = map[string]Strategy{
		dialect.AssumeOpName:           exempt(),
		dialect.AsyncCommitGroupOpName: exempt(),
		dialect.AsyncWaitOpName:        exempt(),
		dialect.LocalLoadOpName:        exempt(),
		dialect.LocalStoreOpName:       exempt(),
		dialect.TMEMAllocOpName:        exempt(),
		dialect.TMEMLoadOpName:         exempt(),

		dialect.IfOpName: {Kind: StrategyCondition, Segment: dialect.SegCondition},

		dialect.AsyncCopyGlobalToLocalOpName:    masked(dialect.SegMask, dialect.SegSrc),
		dialect.LoadOpName:                      masked(dialect.SegMask, dialect.SegPtr),
		dialect.StoreOpName:                     masked(dialect.SegMask, dialect.SegPtr),
		dialect.AtomicRMWOpName:                 masked(dialect.SegMask, dialect.SegPtr),
		dialect.AsyncTMACopyGlobalToLocalOpName: masked(dialect.SegPred, ""),
		dialect.AsyncTMAGatherOpName:            masked(dialect.SegPred, ""),
		dialect.BarrierExpectOpName:             masked(dialect.SegPred, ""),
		dialect.TMEMStoreOpName:                 masked(dialect.SegPred, ""),
		dialect.TCGen5MMAOpName:                 masked(dialect.SegPred, ""),
		dialect.TCGen5MMAScaledOpName:           masked(dialect.SegPred, ""),
		dialect.WaitBarrierOpName:               masked(dialect.SegPred, ""),
		dialect.ArriveBarrierOpName:             masked(dialect.SegPred, ""),

		dialect.ConsumeTokenOpName: {Kind: StrategyTokenConsume},

		dialect.WaitOpName: {Kind: StrategyBranch},
	}
)

// RegisterStrategy assigns a strategy to an op kind unknown to the
// pipeliner. Kinds can only be registered once, and mask strategies must
// name segments the kind declares.
func RegisterStrategy(name string, s Strategy) error {
	if s.Kind == StrategyUnsupported {
		return errors.Errorf("registering %s: unsupported is not a strategy", name)
	}
	if s.Kind == StrategyMask || s.Kind == StrategyCondition {
		def, ok := ir.LookupOp(name)
		if !ok {
			return errors.Errorf("registering %s: %s strategy needs a registered op", name, s.Kind)
		}
		for _, seg := range []string{s.Segment, s.Ref} {
			if seg != "" && !slices.Contains(def.Segments, seg) {
				return errors.Errorf("registering %s: no operand segment %q", name, seg)
			}
		}
		if s.Segment == "" {
			return errors.Errorf("registering %s: %s strategy needs a segment", name, s.Kind)
		}
	}

	strategiesMu.Lock()
	defer strategiesMu.Unlock()
	if prev, dup := strategies[name]; dup {
		return errors.Errorf("registering %s: already predicated with %s", name, prev.Kind)
	}
	strategies[name] = s
	return nil
}

// LookupStrategy returns the strategy of an op kind. Unknown kinds get
// StrategyUnsupported.
func LookupStrategy(name string) Strategy {
	strategiesMu.RLock()
	defer strategiesMu.RUnlock()
	return strategies[name]
}

// PredicateOp makes op take effect only when pred holds and returns the op
// that does so. Most kinds are updated in place and op itself is returned;
// kinds without a mask operand are replaced by an scf.if whose uses take
// over op's, and the scf.if is returned. A builder positioned before a
// replaced op is moved before its replacement. New ops go right before op
// and b's insertion point is otherwise left as it was.
//
// Kinds with no strategy produce an error wrapping ErrUnsupportedOp and an
// error diagnostic on op. The caller must abandon the transformation.
func PredicateOp(b *ir.Builder, op *ir.Op, pred *ir.Value) (*ir.Op, error) {
	if ir.IsMemoryEffectFree(op) {
		return op, nil
	}
	s := LookupStrategy(op.Name())
	klog.V(2).Infof("pipeliner: predicating %s (%s)", op, s.Kind)

	switch s.Kind {
	case StrategyExempt, StrategyTokenConsume:
		return op, nil
	case StrategyCondition, StrategyMask:
		defer b.SaveInsertionPoint()()
		b.SetInsertionPoint(op)
		predicateSegment(b, op, s, pred)
		return op, nil
	case StrategyBranch:
		at := b.InsertionPoint()
		ifOp, err := predicateWithBranch(op, pred)
		if err == nil && at == op {
			b.SetInsertionPoint(ifOp)
		}
		return ifOp, err
	default:
		op.EmitError("pipeliner doesn't know how to predicate this op.")
		return nil, errors.WithStack(&UnsupportedOpError{Op: op})
	}
}

func predicateSegment(b *ir.Builder, op *ir.Op, s Strategy, pred *ir.Value) {
	current := op.SegmentValue(s.Segment)
	ref := current
	if s.Ref != "" {
		ref = op.SegmentValue(s.Ref)
	}
	mask := pred
	if ref != nil {
		mask = PredMask(b, ref.Type(), current, pred)
	}
	op.SetSegment(s.Segment, mask)
}

// predicateWithBranch replaces op by
//
//	scf.if pred { yield clone(op) } else { yield zeros }
func predicateWithBranch(op *ir.Op, pred *ir.Value) (*ir.Op, error) {
	b := ir.NewBuilderBefore(op)
	ifOp := dialect.NewIf(b, op.ResultTypes(), pred, true)
	then := ifOp.ThenBuilder()
	clone := then.Clone(op, ir.NewMapping())
	dialect.Yield(then, clone.Results()...)

	els := ifOp.ElseBuilder()
	zeros := make([]*ir.Value, 0, op.NumResults())
	for _, t := range op.ResultTypes() {
		z, err := dialect.ZeroConstant(els, t)
		if err != nil {
			b.EraseOp(ifOp.Op)
			return nil, errors.Wrapf(err, "predicating %s", op)
		}
		zeros = append(zeros, z)
	}
	dialect.Yield(els, zeros...)

	b.ReplaceOp(op, ifOp.Results())
	return ifOp.Op, nil
}
