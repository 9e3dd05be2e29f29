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
	"sort"
	"sync"
)

// Effects classifies what an op kind may do to memory.
type Effects int

const (
	// EffectsNone marks pure ops.
	EffectsNone Effects = iota

	// EffectsRead marks ops that only read memory.
	EffectsRead

	// EffectsWrite marks ops that write, allocate or free memory.
	EffectsWrite

	// EffectsReadWrite marks ops that both read and write memory.
	EffectsReadWrite

	// EffectsRecursive marks ops (loops, conditionals) whose effects are the
	// union of the effects of the ops nested inside them.
	EffectsRecursive
)

// String returns a human-readable name for the Effects.
func (e Effects) String() string {
	switch e {
	case EffectsNone:
		return "None"
	case EffectsRead:
		return "Read"
	case EffectsWrite:
		return "Write"
	case EffectsReadWrite:
		return "ReadWrite"
	case EffectsRecursive:
		return "Recursive"
	default:
		return fmt.Sprintf("Effects(%d)", e)
	}
}

// OpDef describes an op kind: its operand segments, memory effects and
// structure.
type OpDef struct {
	// Name is the fully qualified kind, e.g. "ttg.local_alloc".
	Name string

	// Segments names the operand groups in order. Empty means the operands
	// form one unnamed variadic list.
	Segments []string

	// Effects is the memory-effect classification.
	Effects Effects

	// NumRegions is the number of regions every op of this kind carries.
	NumRegions int

	// Terminator is the op kind that must end every block of this op's
	// regions, or "" for no requirement.
	Terminator string

	// IsTerminator marks block terminators.
	IsTerminator bool
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*OpDef)
)

// RegisterOp adds def to the global op catalog. It panics if the kind is
// already registered.
func RegisterOp(def OpDef) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[def.Name]; dup {
		panic(fmt.Sprintf("ir: op %q registered twice", def.Name))
	}
	registry[def.Name] = &def
}

// LookupOp returns the registered definition of name.
func LookupOp(name string) (*OpDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	def, ok := registry[name]
	return def, ok
}

// RegisteredOps returns the names of all registered op kinds, sorted.
func RegisteredOps() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsMemoryEffectFree reports whether op is known not to touch memory.
// Unregistered ops are conservatively assumed to have effects, and ops with
// recursive effects are free only if everything nested in them is.
func IsMemoryEffectFree(op *Op) bool {
	if op.def == nil {
		return false
	}
	switch op.def.Effects {
	case EffectsNone:
		return true
	case EffectsRecursive:
		for _, r := range op.regions {
			for _, b := range r.blocks {
				for _, child := range b.ops {
					if !IsMemoryEffectFree(child) {
						return false
					}
				}
			}
		}
		return true
	default:
		return false
	}
}
