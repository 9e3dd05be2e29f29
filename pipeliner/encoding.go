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
	"slices"

	"github.com/ajroetker/go-pipeliner/dialect"
	"github.com/ajroetker/go-pipeliner/ir"
	"github.com/ajroetker/go-pipeliner/layout"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// mixedEncodingsRemark is emitted when the users of a pipelined value want
// it in different shared layouts.
const mixedEncodingsRemark = "Pipelining load with different use encodings. This will lead to layout conversions and performance degradation."

// SharedEncoding chooses the shared memory layout for buffering the tensor
// result of op, in order of preference:
//
//  1. the layout of a ttg.local_alloc already reading the result;
//  2. for TMA loads, the layout of the descriptor;
//  3. the swizzled layout matching the dot operands all users convert it to;
//  4. a generic unswizzled layout in the register order of the result.
//
// When local_alloc users disagree the first one wins and a remark is
// emitted on op.
func SharedEncoding(op *ir.Op) (layout.SharedEncoding, error) {
	if op.NumResults() == 0 {
		return nil, errors.Errorf("%s has no result to buffer", op)
	}
	ty, ok := op.Result(0).Type().(*ir.TensorType)
	if !ok {
		return nil, errors.Errorf("%s: result type %s is not a tensor", op, op.Result(0).Type())
	}

	if enc := localAllocEncoding(op); enc != nil {
		return enc, nil
	}
	if IsTMALoad(op) {
		return descriptorEncoding(op, ty)
	}
	if enc, ok := sharedEncIfAllUsersAreDotEnc(op.Result(0)); ok {
		klog.V(3).Infof("pipeliner: %s feeds dot operands, using %s", op, enc)
		return enc, nil
	}
	return SharedEncodingForType(ty), nil
}

// SharedEncodingForType returns the generic shared layout for ty: no
// swizzling, the register order of ty and its CTA split. It is always legal
// but slow for 2-D tiles.
func SharedEncodingForType(ty *ir.TensorType) layout.SharedEncoding {
	return layout.NewSwizzledSharedEncoding(1, 1, 1, layout.OrderOf(ty), layout.CTALayoutOf(ty.Encoding, ty.Rank()))
}

func localAllocEncoding(op *ir.Op) layout.SharedEncoding {
	var chosen layout.SharedEncoding
	mixed := false
	for _, user := range op.Users() {
		if !user.Is(dialect.LocalAllocOpName) {
			continue
		}
		enc, ok := user.Result(0).Type().(*ir.MemDescType).Encoding.(layout.SharedEncoding)
		if !ok {
			continue
		}
		if chosen == nil {
			chosen = enc
			continue
		}
		if !ir.AttrEqual(enc, chosen) {
			mixed = true
		}
	}
	if mixed {
		op.EmitRemark(mixedEncodingsRemark)
	}
	return chosen
}

// descriptorEncoding returns the shared layout a TMA load writes: the one
// declared on the descriptor block, refitted when the loaded tile differs
// from the block as for gathers.
func descriptorEncoding(op *ir.Op, ty *ir.TensorType) (layout.SharedEncoding, error) {
	desc := op.SegmentValue(dialect.SegDesc)
	if desc == nil {
		op.EmitError("unrecognized tma load type")
		return nil, errors.Errorf("%s: TMA load without a descriptor", op)
	}
	descTy, ok := desc.Type().(*ir.TensorDescType)
	if !ok || descTy.Block == nil {
		return nil, errors.Errorf("%s: descriptor type %s has no block type", op, desc.Type())
	}
	rank := ty.Rank()
	elemBits := ir.ElementBitWidth(ty)
	enc, ok := descTy.Block.Encoding.(layout.SharedEncoding)
	if !ok {
		return layout.NVMMASharedFor(ty.Shape, layout.DefaultOrder(rank), layout.CTALayoutOf(ty.Encoding, rank), elemBits), nil
	}
	nvmma, isNVMMA := enc.(*layout.NVMMASharedEncoding)
	if slices.Equal(descTy.Block.Shape, ty.Shape) || !isNVMMA {
		return enc, nil
	}
	refit := layout.NVMMASharedFor(ty.Shape, nvmma.SharedOrder(rank), nvmma.CTALayout, nvmma.ElementBitWidth)
	refit.FP4Padded = nvmma.FP4Padded
	return refit, nil
}

// sharedEncIfAllUsersAreDotEnc returns the shared layout the users of v
// need when every one of them converts v to a dot operand, possibly through
// further shared memory descriptors. It reports false when some user is
// not such a conversion, when the users need different layouts, or when v
// has no users.
func sharedEncIfAllUsersAreDotEnc(v *ir.Value) (layout.SharedEncoding, bool) {
	var attr layout.SharedEncoding
	for _, user := range v.Users() {
		if user.NumResults() != 1 {
			return nil, false
		}
		var want layout.SharedEncoding
		res := user.Result(0)
		if memTy, ok := res.Type().(*ir.MemDescType); ok {
			want, ok = memTy.Encoding.(layout.SharedEncoding)
			if !ok {
				return nil, false
			}
			if _, ok := sharedEncIfAllUsersAreDotEnc(res); !ok {
				return nil, false
			}
		} else {
			if !user.Is(dialect.LocalLoadOpName, dialect.ConvertLayoutOpName) {
				return nil, false
			}
			resTy, ok := res.Type().(*ir.TensorType)
			if !ok {
				return nil, false
			}
			dot, ok := resTy.Encoding.(*layout.DotOperandEncoding)
			if !ok {
				return nil, false
			}
			want = dotOperandShared(v.Type(), dot)
			if want == nil {
				return nil, false
			}
		}
		if attr != nil && !ir.AttrEqual(attr, want) {
			return nil, false
		}
		attr = want
	}
	return attr, attr != nil
}

// dotOperandShared derives the swizzled layout a value of type srcTy must
// have in shared memory to be loaded as dot operand dot.
func dotOperandShared(srcTy ir.Type, dot *layout.DotOperandEncoding) layout.SharedEncoding {
	var (
		shape []int64
		enc   ir.Attribute
	)
	switch t := srcTy.(type) {
	case *ir.TensorType:
		shape, enc = t.Shape, t.Encoding
	case *ir.MemDescType:
		shape, enc = t.Shape, t.Encoding
	default:
		return nil
	}
	cta := layout.CTALayoutOf(enc, len(shape))
	return layout.SwizzledForDotOperand(dot, shape, layout.OrderForMemory(srcTy), cta, ir.ElementBitWidth(srcTy))
}

// CopyVecBytes returns the widest contiguous chunk, in bytes, a thread can
// copy when storing a tensor of type registerTy into shared memory with
// layout sharedEnc.
func CopyVecBytes(registerTy *ir.TensorType, sharedEnc layout.SharedEncoding) int {
	return layout.ContiguousElements(registerTy, sharedEnc) * ir.ElementBitWidth(registerTy) / 8
}
