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
	"sort"

	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// LatencyTable maps ops to the latency the scheduler assigned them. The
// zero value is empty and ready to use. The table holds ops, not copies:
// entries for erased ops must be deleted by the owner.
type LatencyTable struct {
	byOp map[*ir.Op]int
}

// Get returns the latency of op and whether it has one.
func (t *LatencyTable) Get(op *ir.Op) (int, bool) {
	l, ok := t.byOp[op]
	return l, ok
}

// Set records the latency of op.
func (t *LatencyTable) Set(op *ir.Op, latency int) {
	if t.byOp == nil {
		t.byOp = make(map[*ir.Op]int)
	}
	t.byOp[op] = latency
}

// Delete forgets the latency of op.
func (t *LatencyTable) Delete(op *ir.Op) {
	delete(t.byOp, op)
}

// Len returns the number of ops with a latency.
func (t *LatencyTable) Len() int {
	return len(t.byOp)
}

// Ops returns the ops with a latency in creation order.
func (t *LatencyTable) Ops() []*ir.Op {
	ops := make([]*ir.Op, 0, len(t.byOp))
	for op := range t.byOp {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].ID() < ops[j].ID() })
	return ops
}

// SerializeLatencies stores every latency of t on its op under
// LatencyAttrName. All ops must be nested in module.
func SerializeLatencies(module *ir.Op, t *LatencyTable) error {
	for _, op := range t.Ops() {
		if !module.IsAncestorOf(op) {
			return errors.Errorf("serializing latencies: %s is not in %s", op, module)
		}
		l, _ := t.Get(op)
		op.SetAttr(LatencyAttrName, ir.NewI32Attr(int64(l)))
	}
	return nil
}

// DeserializeLatencies collects the LatencyAttrName attributes of root and
// everything nested in it into a new table, removing the attributes. A
// second call on the same IR returns an empty table.
func DeserializeLatencies(root *ir.Op) *LatencyTable {
	t := &LatencyTable{}
	root.Walk(func(op *ir.Op) {
		if !op.HasAttr(LatencyAttrName) {
			return
		}
		a := op.RemoveAttr(LatencyAttrName)
		l, ok := a.(ir.IntegerAttr)
		if !ok {
			klog.Warningf("pipeliner: dropping non-integer %s = %s on %s", LatencyAttrName, a, op)
			return
		}
		t.Set(op, int(l.Value))
	})
	return t
}
