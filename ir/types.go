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
	"strings"
)

// Type is the static type of a Value. Types are immutable once constructed;
// two types are the same when TypeEqual reports so.
type Type interface {
	String() string
}

// TypeEqual reports whether a and b denote the same type.
func TypeEqual(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// IntegerType is a signless integer of the given bit width. Width 1 is the
// boolean type.
type IntegerType struct {
	Width int
}

func (t IntegerType) String() string {
	return fmt.Sprintf("i%d", t.Width)
}

// FloatType is a floating point type. Name distinguishes formats of equal
// width (f16 vs bf16).
type FloatType struct {
	Name  string
	Width int
}

func (t FloatType) String() string {
	return t.Name
}

// IndexType is the target-sized integer used for loop bounds.
type IndexType struct{}

func (IndexType) String() string {
	return "index"
}

// TokenType is an opaque value used to order asynchronous operations.
type TokenType struct {
	Name string
}

func (t TokenType) String() string {
	return "!" + t.Name
}

// Common scalar types.
var (
	I1    = IntegerType{Width: 1}
	I8    = IntegerType{Width: 8}
	I32   = IntegerType{Width: 32}
	I64   = IntegerType{Width: 64}
	F16   = FloatType{Name: "f16", Width: 16}
	BF16  = FloatType{Name: "bf16", Width: 16}
	F32   = FloatType{Name: "f32", Width: 32}
	Index = IndexType{}
)

// PointerType is a pointer to a scalar in global memory.
type PointerType struct {
	Pointee Type
}

func (t *PointerType) String() string {
	return fmt.Sprintf("!tt.ptr<%s>", t.Pointee)
}

// TensorType is a ranked tensor held in registers. Encoding describes how the
// elements are distributed across threads and may be nil.
type TensorType struct {
	Shape    []int64
	Elem     Type
	Encoding Attribute
}

// NewTensorType returns a tensor type with a private copy of shape.
func NewTensorType(shape []int64, elem Type, encoding Attribute) *TensorType {
	return &TensorType{Shape: slices.Clone(shape), Elem: elem, Encoding: encoding}
}

// Rank returns the number of dimensions.
func (t *TensorType) Rank() int {
	return len(t.Shape)
}

// NumElements returns the product of all dimensions.
func (t *TensorType) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

func (t *TensorType) String() string {
	var sb strings.Builder
	sb.WriteString("tensor<")
	writeShape(&sb, t.Shape, t.Elem)
	if t.Encoding != nil {
		fmt.Fprintf(&sb, ", %s", t.Encoding)
	}
	sb.WriteString(">")
	return sb.String()
}

// MemDescType describes a buffer in on-chip memory. AllocShape is the shape
// of the allocation the descriptor views into. It equals Shape for a full
// allocation and keeps the leading stage dimension for a single-stage view.
type MemDescType struct {
	Shape       []int64
	Elem        Type
	Encoding    Attribute
	MemorySpace Attribute
	Mutable     bool
	AllocShape  []int64
}

// NewMemDescType returns a memory descriptor type whose alloc shape equals
// its shape.
func NewMemDescType(shape []int64, elem Type, encoding, memorySpace Attribute, mutable bool) *MemDescType {
	return &MemDescType{
		Shape:       slices.Clone(shape),
		Elem:        elem,
		Encoding:    encoding,
		MemorySpace: memorySpace,
		Mutable:     mutable,
		AllocShape:  slices.Clone(shape),
	}
}

// Rank returns the number of dimensions.
func (t *MemDescType) Rank() int {
	return len(t.Shape)
}

// WithMutable returns a copy of t with the mutability flag set to mutable.
func (t *MemDescType) WithMutable(mutable bool) *MemDescType {
	return &MemDescType{
		Shape:       slices.Clone(t.Shape),
		Elem:        t.Elem,
		Encoding:    t.Encoding,
		MemorySpace: t.MemorySpace,
		Mutable:     mutable,
		AllocShape:  slices.Clone(t.AllocShape),
	}
}

func (t *MemDescType) String() string {
	var sb strings.Builder
	sb.WriteString("!ttg.memdesc<")
	writeShape(&sb, t.Shape, t.Elem)
	if t.Encoding != nil {
		fmt.Fprintf(&sb, ", %s", t.Encoding)
	}
	if t.MemorySpace != nil {
		fmt.Fprintf(&sb, ", %s", t.MemorySpace)
	}
	if t.Mutable {
		sb.WriteString(", mutable")
	}
	if len(t.AllocShape) > 0 && !slices.Equal(t.AllocShape, t.Shape) {
		sb.WriteString(", ")
		sb.WriteString(joinDims(t.AllocShape))
	}
	sb.WriteString(">")
	return sb.String()
}

// TensorDescType is the type of a bulk-transfer descriptor. Block is the
// tile the descriptor moves per transfer; its encoding, when set, is the
// shared memory layout the hardware writes.
type TensorDescType struct {
	Block *TensorType
}

func (t *TensorDescType) String() string {
	return fmt.Sprintf("!tt.tensordesc<%s>", t.Block)
}

// I1SameShape returns i1 for scalar types and a tensor of i1 with the same
// shape and encoding for tensor types.
func I1SameShape(t Type) Type {
	if tt, ok := t.(*TensorType); ok {
		return NewTensorType(tt.Shape, I1, tt.Encoding)
	}
	return I1
}

// ElementType returns the element type of shaped types and t itself otherwise.
func ElementType(t Type) Type {
	switch tt := t.(type) {
	case *TensorType:
		return tt.Elem
	case *MemDescType:
		return tt.Elem
	default:
		return t
	}
}

// ElementBitWidth returns the bit width of t's element type, or 0 when the
// element has no fixed width.
func ElementBitWidth(t Type) int {
	switch et := ElementType(t).(type) {
	case IntegerType:
		return et.Width
	case FloatType:
		return et.Width
	case *PointerType:
		return 64
	default:
		return 0
	}
}

// IsTensor reports whether t is a ranked register tensor.
func IsTensor(t Type) bool {
	_, ok := t.(*TensorType)
	return ok
}

func writeShape(sb *strings.Builder, shape []int64, elem Type) {
	for _, d := range shape {
		fmt.Fprintf(sb, "%dx", d)
	}
	sb.WriteString(elem.String())
}

func joinDims(shape []int64) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = fmt.Sprint(d)
	}
	return strings.Join(parts, "x")
}
