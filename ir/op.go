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
	"maps"
	"slices"
	"sort"

	"github.com/samber/lo"
)

// Location is a source position used when reporting diagnostics.
type Location struct {
	File string
	Line int
	Col  int
}

// String returns "file:line:col", or "unknown" for the zero Location.
func (l Location) String() string {
	if l.File == "" {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Op is a node of the IR graph: a kind name, ordered operands grouped into
// named segments, results, attributes and nested regions.
type Op struct {
	ctx  *Context
	id   int
	name string
	def  *OpDef
	loc  Location

	operands []*Operand

	// segSizes holds the length of each operand segment named in def.Segments.
	// It is nil for ops without segments.
	segSizes []int

	results []*Value
	attrs   map[string]Attribute
	regions []*Region

	// block is the block containing this op, nil while detached.
	block *Block

	erased bool
}

// OpState collects everything needed to create an op.
type OpState struct {
	Name string
	Loc  Location

	// Operands is used for ops whose definition declares no segments.
	Operands []*Value

	// Segments holds one entry per segment in the op definition, in order.
	// Missing trailing entries and nil values denote empty segments, which
	// is how optional operands such as masks are left out.
	Segments [][]*Value

	ResultTypes []Type
	Attrs       map[string]Attribute

	// NumRegions overrides the definition's region count when larger.
	NumRegions int
}

// Create builds a detached op from state.
func (c *Context) Create(state OpState) *Op {
	def, _ := LookupOp(state.Name)
	op := &Op{
		ctx:   c,
		id:    c.newID(),
		name:  state.Name,
		def:   def,
		loc:   state.Loc,
		attrs: make(map[string]Attribute, len(state.Attrs)),
	}
	maps.Copy(op.attrs, state.Attrs)

	var flat []*Value
	if def != nil && len(def.Segments) > 0 {
		if len(state.Segments) > len(def.Segments) {
			panic(fmt.Sprintf("ir: %s takes %d operand segments, got %d", state.Name, len(def.Segments), len(state.Segments)))
		}
		op.segSizes = make([]int, len(def.Segments))
		for i, seg := range state.Segments {
			vals := lo.Compact(seg)
			op.segSizes[i] = len(vals)
			flat = append(flat, vals...)
		}
	} else {
		flat = state.Operands
	}
	for i, v := range flat {
		o := &Operand{owner: op, index: i}
		o.Set(v)
		op.operands = append(op.operands, o)
	}

	for i, t := range state.ResultTypes {
		op.results = append(op.results, &Value{typ: t, def: op, index: i})
	}

	numRegions := state.NumRegions
	if def != nil && def.NumRegions > numRegions {
		numRegions = def.NumRegions
	}
	for range numRegions {
		op.regions = append(op.regions, &Region{parent: op})
	}
	return op
}

// Name returns the op kind, e.g. "tt.load".
func (op *Op) Name() string {
	return op.name
}

// Is reports whether op is of any of the given kinds.
func (op *Op) Is(names ...string) bool {
	return slices.Contains(names, op.name)
}

// ID returns an identifier unique within the op's Context. IDs increase in
// creation order.
func (op *Op) ID() int {
	return op.id
}

// Def returns the registered definition of this op kind, or nil.
func (op *Op) Def() *OpDef {
	return op.def
}

// Context returns the Context the op was created in.
func (op *Op) Context() *Context {
	return op.ctx
}

// Loc returns the op's source location.
func (op *Op) Loc() Location {
	return op.loc
}

// SetLoc sets the op's source location.
func (op *Op) SetLoc(loc Location) {
	op.loc = loc
}

// Block returns the block containing op, or nil if op is detached.
func (op *Op) Block() *Block {
	return op.block
}

// ParentOp returns the op whose region contains op, or nil.
func (op *Op) ParentOp() *Op {
	if op.block == nil {
		return nil
	}
	return op.block.ParentOp()
}

// ParentOfKind returns the closest enclosing op named name, or nil.
func (op *Op) ParentOfKind(name string) *Op {
	for p := op.ParentOp(); p != nil; p = p.ParentOp() {
		if p.name == name {
			return p
		}
	}
	return nil
}

// IsAncestorOf reports whether other is op or nested inside op.
func (op *Op) IsAncestorOf(other *Op) bool {
	for p := other; p != nil; p = p.ParentOp() {
		if p == op {
			return true
		}
	}
	return false
}

// Next returns the op following op in its block, or nil.
func (op *Op) Next() *Op {
	if op.block == nil {
		return nil
	}
	i := op.block.indexOf(op)
	if i+1 < len(op.block.ops) {
		return op.block.ops[i+1]
	}
	return nil
}

// Prev returns the op preceding op in its block, or nil.
func (op *Op) Prev() *Op {
	if op.block == nil {
		return nil
	}
	if i := op.block.indexOf(op); i > 0 {
		return op.block.ops[i-1]
	}
	return nil
}

// IsBeforeInBlock reports whether op precedes other in their common block.
func (op *Op) IsBeforeInBlock(other *Op) bool {
	if op.block == nil || op.block != other.block {
		return false
	}
	return op.block.indexOf(op) < op.block.indexOf(other)
}

// ---- Operands ----

// NumOperands returns the number of operands.
func (op *Op) NumOperands() int {
	return len(op.operands)
}

// Operands returns the operand values in order.
func (op *Op) Operands() []*Value {
	return lo.Map(op.operands, func(o *Operand, _ int) *Value { return o.value })
}

// Operand returns the i-th operand value.
func (op *Op) Operand(i int) *Value {
	return op.operands[i].value
}

// OpOperands returns the operand handles in order.
func (op *Op) OpOperands() []*Operand {
	return slices.Clone(op.operands)
}

// SetOperand replaces the i-th operand.
func (op *Op) SetOperand(i int, v *Value) {
	op.operands[i].Set(v)
}

func (op *Op) segmentRange(name string) (int, int, bool) {
	if op.def == nil || op.segSizes == nil {
		return 0, 0, false
	}
	start := 0
	for i, seg := range op.def.Segments {
		if seg == name {
			return start, start + op.segSizes[i], true
		}
		start += op.segSizes[i]
	}
	return 0, 0, false
}

// HasSegment reports whether op's definition declares the named segment.
func (op *Op) HasSegment(name string) bool {
	_, _, ok := op.segmentRange(name)
	return ok
}

// SegmentOperands returns the operand handles of the named segment.
func (op *Op) SegmentOperands(name string) []*Operand {
	start, end, ok := op.segmentRange(name)
	if !ok {
		return nil
	}
	return slices.Clone(op.operands[start:end])
}

// Segment returns the values of the named segment.
func (op *Op) Segment(name string) []*Value {
	return lo.Map(op.SegmentOperands(name), func(o *Operand, _ int) *Value { return o.value })
}

// SegmentValue returns the first value of the named segment, or nil when the
// segment is empty. It is the accessor for optional single operands.
func (op *Op) SegmentValue(name string) *Value {
	start, end, ok := op.segmentRange(name)
	if !ok || start == end {
		return nil
	}
	return op.operands[start].value
}

// SetSegment replaces the values of the named segment. Nil values are
// dropped, so SetSegment(name) and SetSegment(name, nil) clear it.
func (op *Op) SetSegment(name string, vals ...*Value) {
	start, end, ok := op.segmentRange(name)
	if !ok {
		panic(fmt.Sprintf("ir: %s has no operand segment %q", op.name, name))
	}
	vals = lo.Compact(vals)

	// Reuse existing slots where possible so handles held by callers stay
	// valid when the segment length does not change.
	if len(vals) == end-start {
		for i, v := range vals {
			op.operands[start+i].Set(v)
		}
		return
	}
	for _, o := range op.operands[start:end] {
		o.drop()
	}
	fresh := make([]*Operand, len(vals))
	for i, v := range vals {
		fresh[i] = &Operand{owner: op}
		fresh[i].Set(v)
	}
	op.operands = slices.Concat(op.operands[:start], fresh, op.operands[end:])
	for i, o := range op.operands {
		o.index = i
	}
	for i, seg := range op.def.Segments {
		if seg == name {
			op.segSizes[i] = len(vals)
		}
	}
}

// ---- Results ----

// NumResults returns the number of results.
func (op *Op) NumResults() int {
	return len(op.results)
}

// Results returns the result values.
func (op *Op) Results() []*Value {
	return slices.Clone(op.results)
}

// Result returns the i-th result.
func (op *Op) Result(i int) *Value {
	return op.results[i]
}

// ResultTypes returns the types of all results.
func (op *Op) ResultTypes() []Type {
	return lo.Map(op.results, func(v *Value, _ int) Type { return v.typ })
}

// HasUsers reports whether any result of op is used.
func (op *Op) HasUsers() bool {
	return lo.SomeBy(op.results, (*Value).HasUses)
}

// Users returns the distinct ops using any result of op.
func (op *Op) Users() []*Op {
	return lo.Uniq(lo.FlatMap(op.results, func(v *Value, _ int) []*Op { return v.Users() }))
}

// ---- Attributes ----

// Attr returns the attribute stored under name, or nil.
func (op *Op) Attr(name string) Attribute {
	return op.attrs[name]
}

// HasAttr reports whether an attribute is stored under name.
func (op *Op) HasAttr(name string) bool {
	_, ok := op.attrs[name]
	return ok
}

// SetAttr stores a under name.
func (op *Op) SetAttr(name string, a Attribute) {
	op.attrs[name] = a
}

// RemoveAttr deletes the attribute stored under name and returns it.
func (op *Op) RemoveAttr(name string) Attribute {
	a := op.attrs[name]
	delete(op.attrs, name)
	return a
}

// Attrs returns all attributes sorted by name.
func (op *Op) Attrs() []NamedAttribute {
	attrs := make([]NamedAttribute, 0, len(op.attrs))
	for k, v := range op.attrs {
		attrs = append(attrs, NamedAttribute{Name: k, Value: v})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	return attrs
}

// SetAttrs replaces all attributes of op.
func (op *Op) SetAttrs(attrs []NamedAttribute) {
	op.attrs = make(map[string]Attribute, len(attrs))
	for _, a := range attrs {
		op.attrs[a.Name] = a.Value
	}
}

// ---- Regions ----

// NumRegions returns the number of regions.
func (op *Op) NumRegions() int {
	return len(op.regions)
}

// Regions returns the op's regions.
func (op *Op) Regions() []*Region {
	return slices.Clone(op.regions)
}

// Region returns the i-th region.
func (op *Op) Region(i int) *Region {
	return op.regions[i]
}

// Walk calls fn for every op nested in op and for op itself, children
// before parents. fn may erase the op it is given.
func (op *Op) Walk(fn func(*Op)) {
	for _, r := range op.regions {
		for _, b := range r.blocks {
			for _, child := range slices.Clone(b.ops) {
				child.Walk(fn)
			}
		}
	}
	fn(op)
}

// IsErased reports whether op has been erased.
func (op *Op) IsErased() bool {
	return op.erased
}

// Erase removes op from its block and drops every reference it holds.
// It panics if any result of op is still used.
func (op *Op) Erase() {
	if op.erased {
		panic(fmt.Sprintf("ir: %s#%d erased twice", op.name, op.id))
	}
	for _, r := range op.results {
		if r.HasUses() {
			panic(fmt.Sprintf("ir: erasing %s#%d whose result %d still has %d uses", op.name, op.id, r.index, r.NumUses()))
		}
	}
	op.dropAllReferences()
	if op.block != nil {
		op.block.remove(op)
	}
	op.markErased()
}

func (op *Op) dropAllReferences() {
	for _, o := range op.operands {
		o.drop()
	}
	for _, r := range op.regions {
		for _, b := range r.blocks {
			for _, child := range b.ops {
				child.dropAllReferences()
			}
		}
	}
}

func (op *Op) markErased() {
	op.erased = true
	for _, r := range op.regions {
		for _, b := range r.blocks {
			for _, child := range b.ops {
				child.markErased()
			}
		}
	}
}

// Clone returns a detached deep copy of op. Operands found in m are remapped;
// others are shared with the original. The results of op and of every nested
// op, and the arguments of every nested block, are added to m.
func (op *Op) Clone(m *Mapping) *Op {
	if m == nil {
		m = NewMapping()
	}
	c := &Op{
		ctx:      op.ctx,
		id:       op.ctx.newID(),
		name:     op.name,
		def:      op.def,
		loc:      op.loc,
		segSizes: slices.Clone(op.segSizes),
		attrs:    maps.Clone(op.attrs),
	}
	for i, o := range op.operands {
		no := &Operand{owner: c, index: i}
		no.Set(m.Lookup(o.value))
		c.operands = append(c.operands, no)
	}
	for i, r := range op.results {
		nr := &Value{typ: r.typ, def: c, index: i}
		c.results = append(c.results, nr)
		m.Map(r, nr)
	}
	for _, r := range op.regions {
		nr := &Region{parent: c}
		c.regions = append(c.regions, nr)
		for _, b := range r.blocks {
			nb := nr.AddBlock()
			for _, arg := range b.args {
				m.Map(arg, nb.AddArgument(arg.typ))
			}
		}
		for bi, b := range r.blocks {
			nb := nr.blocks[bi]
			for _, child := range b.ops {
				nb.Append(child.Clone(m))
			}
		}
	}
	return c
}

// String returns a one-line summary of op for debugging.
func (op *Op) String() string {
	return fmt.Sprintf("%s#%d", op.name, op.id)
}

// Mapping maps original values to their replacements while cloning.
type Mapping struct {
	values map[*Value]*Value
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[*Value]*Value)}
}

// Map records that from is replaced by to.
func (m *Mapping) Map(from, to *Value) {
	m.values[from] = to
}

// Lookup returns the replacement of v, or v itself when none is recorded.
func (m *Mapping) Lookup(v *Value) *Value {
	if nv, ok := m.values[v]; ok {
		return nv
	}
	return v
}

// Contains reports whether a replacement of v is recorded.
func (m *Mapping) Contains(v *Value) bool {
	_, ok := m.values[v]
	return ok
}
