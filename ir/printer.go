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
	"io"
	"strings"

	"github.com/samber/lo"
)

// Print renders op and everything nested in it in a deterministic textual
// form. Values are numbered in order of first appearance:
//
//	%0 = tt.load(ptr: %arg0, mask: %1) : tensor<128xf16>
//	scf.for(lowerBound: %2, upperBound: %3, step: %4) {
//	  ^bb0(%arg1: i32):
//	    scf.yield()
//	}
func Print(op *Op) string {
	var sb strings.Builder
	Fprint(&sb, op)
	return sb.String()
}

// Fprint writes the textual form of op to w.
func Fprint(w io.Writer, op *Op) {
	p := &printer{
		w:     w,
		names: make(map[*Value]string),
	}
	p.printOp(op, 0)
}

type printer struct {
	w       io.Writer
	names   map[*Value]string
	nextRes int
	nextArg int
	nextBB  int
}

func (p *printer) name(v *Value) string {
	if v == nil {
		return "<<null>>"
	}
	if n, ok := p.names[v]; ok {
		return n
	}
	var n string
	if v.IsBlockArgument() {
		n = fmt.Sprintf("%%arg%d", p.nextArg)
		p.nextArg++
	} else {
		n = fmt.Sprintf("%%%d", p.nextRes)
		p.nextRes++
	}
	p.names[v] = n
	return n
}

func (p *printer) valueList(vals []*Value) string {
	return strings.Join(lo.Map(vals, func(v *Value, _ int) string { return p.name(v) }), ", ")
}

func (p *printer) operands(op *Op) string {
	if op.def == nil || op.segSizes == nil {
		return "(" + p.valueList(op.Operands()) + ")"
	}
	var parts []string
	for _, seg := range op.def.Segments {
		vals := op.Segment(seg)
		switch len(vals) {
		case 0:
		case 1:
			parts = append(parts, seg+": "+p.name(vals[0]))
		default:
			parts = append(parts, seg+": ["+p.valueList(vals)+"]")
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (p *printer) printOp(op *Op, indent int) {
	pad := strings.Repeat("  ", indent)
	var line strings.Builder
	line.WriteString(pad)
	operands := p.operands(op)
	if len(op.results) > 0 {
		line.WriteString(p.valueList(op.results))
		line.WriteString(" = ")
	}
	line.WriteString(op.name)
	line.WriteString(operands)
	if attrs := op.Attrs(); len(attrs) > 0 {
		parts := lo.Map(attrs, func(a NamedAttribute, _ int) string {
			return a.Name + " = " + a.Value.String()
		})
		fmt.Fprintf(&line, " {%s}", strings.Join(parts, ", "))
	}
	if len(op.results) > 0 {
		types := lo.Map(op.results, func(v *Value, _ int) string { return v.typ.String() })
		fmt.Fprintf(&line, " : %s", strings.Join(types, ", "))
	}
	io.WriteString(p.w, line.String())

	for _, r := range op.regions {
		if r.Empty() {
			io.WriteString(p.w, " {}")
			continue
		}
		io.WriteString(p.w, " {\n")
		for _, b := range r.blocks {
			p.printBlockHeader(b, indent+1)
			for _, child := range b.ops {
				p.printOp(child, indent+2)
			}
		}
		io.WriteString(p.w, pad+"}")
	}
	io.WriteString(p.w, "\n")
}

func (p *printer) printBlockHeader(b *Block, indent int) {
	pad := strings.Repeat("  ", indent)
	id := p.nextBB
	p.nextBB++
	if len(b.args) == 0 {
		fmt.Fprintf(p.w, "%s^bb%d:\n", pad, id)
		return
	}
	args := lo.Map(b.args, func(v *Value, _ int) string {
		return p.name(v) + ": " + v.typ.String()
	})
	fmt.Fprintf(p.w, "%s^bb%d(%s):\n", pad, id, strings.Join(args, ", "))
}
