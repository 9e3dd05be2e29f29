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
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Attribute is an immutable piece of compile-time metadata attached to an op
// or embedded in a type (encodings, memory spaces).
type Attribute interface {
	String() string
}

// AttrEqual reports whether a and b denote the same attribute.
func AttrEqual(a, b Attribute) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// NamedAttribute pairs an attribute with its key.
type NamedAttribute struct {
	Name  string
	Value Attribute
}

// IntegerAttr is an integer constant of a given integer or index type.
type IntegerAttr struct {
	Value int64
	Type  Type
}

// NewI32Attr returns an i32 IntegerAttr.
func NewI32Attr(v int64) IntegerAttr {
	return IntegerAttr{Value: v, Type: I32}
}

func (a IntegerAttr) String() string {
	if a.Type == nil {
		return strconv.FormatInt(a.Value, 10)
	}
	return fmt.Sprintf("%d : %s", a.Value, a.Type)
}

// BoolAttr is a boolean constant.
type BoolAttr bool

func (a BoolAttr) String() string {
	return strconv.FormatBool(bool(a))
}

// StringAttr is a string constant.
type StringAttr string

func (a StringAttr) String() string {
	return strconv.Quote(string(a))
}

// UnitAttr carries no value; its presence is the information.
type UnitAttr struct{}

func (UnitAttr) String() string {
	return "unit"
}

// DenseI32ArrayAttr is a list of i32 values, used for permutations and orders.
type DenseI32ArrayAttr []int32

func (a DenseI32ArrayAttr) String() string {
	parts := lo.Map(a, func(v int32, _ int) string {
		return strconv.Itoa(int(v))
	})
	return "array<i32: " + strings.Join(parts, ", ") + ">"
}

// Ints returns the values as ints.
func (a DenseI32ArrayAttr) Ints() []int {
	return lo.Map(a, func(v int32, _ int) int { return int(v) })
}

// NewDenseI32ArrayAttr converts ints to a DenseI32ArrayAttr.
func NewDenseI32ArrayAttr(vals []int) DenseI32ArrayAttr {
	return lo.Map(vals, func(v int, _ int) int32 { return int32(v) })
}

// TypeAttr wraps a type as an attribute.
type TypeAttr struct {
	Type Type
}

func (a TypeAttr) String() string {
	return a.Type.String()
}
