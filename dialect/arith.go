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
	"github.com/pkg/errors"
)

// Arith op kinds.
const (
	ConstantOpName  = "arith.constant"
	AndIOpName      = "arith.andi"
	OrIOpName       = "arith.ori"
	AddIOpName      = "arith.addi"
	SubIOpName      = "arith.subi"
	MulIOpName      = "arith.muli"
	CmpIOpName      = "arith.cmpi"
	SelectOpName    = "arith.select"
	IndexCastOpName = "arith.index_cast"
)

func init() {
	register(
		ir.OpDef{Name: ConstantOpName},
		ir.OpDef{Name: AndIOpName},
		ir.OpDef{Name: OrIOpName},
		ir.OpDef{Name: AddIOpName},
		ir.OpDef{Name: SubIOpName},
		ir.OpDef{Name: MulIOpName},
		ir.OpDef{Name: CmpIOpName},
		ir.OpDef{Name: SelectOpName},
		ir.OpDef{Name: IndexCastOpName},
	)
}

// Constant materializes attr as a value of type t.
func Constant(b *ir.Builder, attr ir.Attribute, t ir.Type) *ir.Value {
	return b.Create(ir.OpState{
		Name:        ConstantOpName,
		ResultTypes: []ir.Type{t},
		Attrs:       map[string]ir.Attribute{"value": attr},
	}).Result(0)
}

// ConstantInt materializes the integer v of integer or index type t.
func ConstantInt(b *ir.Builder, v int64, t ir.Type) *ir.Value {
	return Constant(b, ir.IntegerAttr{Value: v, Type: t}, t)
}

// ConstantBool materializes an i1 constant.
func ConstantBool(b *ir.Builder, v bool) *ir.Value {
	return Constant(b, ir.BoolAttr(v), ir.I1)
}

// ZeroConstant materializes the zero of integer or index type t.
func ZeroConstant(b *ir.Builder, t ir.Type) (*ir.Value, error) {
	switch t.(type) {
	case ir.IntegerType, ir.IndexType:
		return ConstantInt(b, 0, t), nil
	default:
		return nil, errors.Errorf("cannot materialize a zero of type %s", t)
	}
}

// ConstantValue returns the attribute of an arith.constant defining v.
func ConstantValue(v *ir.Value) (ir.Attribute, bool) {
	def := v.DefiningOp()
	if def == nil || def.Name() != ConstantOpName {
		return nil, false
	}
	return def.Attr("value"), true
}

func binary(b *ir.Builder, name string, lhs, rhs *ir.Value) *ir.Value {
	return b.Create(ir.OpState{
		Name:        name,
		Operands:    []*ir.Value{lhs, rhs},
		ResultTypes: []ir.Type{lhs.Type()},
	}).Result(0)
}

// AndI returns lhs & rhs.
func AndI(b *ir.Builder, lhs, rhs *ir.Value) *ir.Value {
	return binary(b, AndIOpName, lhs, rhs)
}

// OrI returns lhs | rhs.
func OrI(b *ir.Builder, lhs, rhs *ir.Value) *ir.Value {
	return binary(b, OrIOpName, lhs, rhs)
}

// AddI returns lhs + rhs.
func AddI(b *ir.Builder, lhs, rhs *ir.Value) *ir.Value {
	return binary(b, AddIOpName, lhs, rhs)
}

// SubI returns lhs - rhs.
func SubI(b *ir.Builder, lhs, rhs *ir.Value) *ir.Value {
	return binary(b, SubIOpName, lhs, rhs)
}

// MulI returns lhs * rhs.
func MulI(b *ir.Builder, lhs, rhs *ir.Value) *ir.Value {
	return binary(b, MulIOpName, lhs, rhs)
}

// CmpI compares lhs and rhs with predicate pred ("slt", "eq", ...).
func CmpI(b *ir.Builder, pred string, lhs, rhs *ir.Value) *ir.Value {
	return b.Create(ir.OpState{
		Name:        CmpIOpName,
		Operands:    []*ir.Value{lhs, rhs},
		ResultTypes: []ir.Type{ir.I1SameShape(lhs.Type())},
		Attrs:       map[string]ir.Attribute{"predicate": ir.StringAttr(pred)},
	}).Result(0)
}

// Select returns cond ? t : f.
func Select(b *ir.Builder, cond, t, f *ir.Value) *ir.Value {
	return b.Create(ir.OpState{
		Name:        SelectOpName,
		Operands:    []*ir.Value{cond, t, f},
		ResultTypes: []ir.Type{t.Type()},
	}).Result(0)
}
