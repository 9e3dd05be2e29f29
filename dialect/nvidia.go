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

import "github.com/ajroetker/go-pipeliner/ir"

// TritonNvidiaGPU op kinds.
const (
	InitBarrierOpName               = "ttng.init_barrier"
	InvalBarrierOpName              = "ttng.inval_barrier"
	BarrierExpectOpName             = "ttng.barrier_expect"
	WaitBarrierOpName               = "ttng.wait_barrier"
	ArriveBarrierOpName             = "ttng.arrive_barrier"
	AsyncTMACopyGlobalToLocalOpName = "ttng.async_tma_copy_global_to_local"
	AsyncTMAGatherOpName            = "ttng.async_tma_gather"
	TMEMAllocOpName                 = "ttng.tmem_alloc"
	TMEMLoadOpName                  = "ttng.tmem_load"
	TMEMStoreOpName                 = "ttng.tmem_store"
	TCGen5MMAOpName                 = "ttng.tc_gen5_mma"
	TCGen5MMAScaledOpName           = "ttng.tc_gen5_mma_scaled"
)

// Operand segments of TritonNvidiaGPU ops.
const (
	SegPhase    = "phase"
	SegDeps     = "deps"
	SegCoord    = "coord"
	SegD        = "d"
	SegAScale   = "aScale"
	SegBScale   = "bScale"
	SegUseD     = "useD"
	SegBarriers = "barriers"
)

func init() {
	register(
		ir.OpDef{Name: InitBarrierOpName, Segments: []string{SegAlloc}, Effects: ir.EffectsWrite},
		ir.OpDef{Name: InvalBarrierOpName, Segments: []string{SegAlloc}, Effects: ir.EffectsWrite},
		ir.OpDef{Name: BarrierExpectOpName, Segments: []string{SegAlloc, SegPred}, Effects: ir.EffectsWrite},
		ir.OpDef{Name: WaitBarrierOpName, Segments: []string{SegAlloc, SegPhase, SegPred, SegDeps}, Effects: ir.EffectsReadWrite},
		ir.OpDef{Name: ArriveBarrierOpName, Segments: []string{SegAlloc, SegPred}, Effects: ir.EffectsWrite},
		ir.OpDef{
			Name:     AsyncTMACopyGlobalToLocalOpName,
			Segments: []string{SegDesc, SegCoord, SegBarrier, SegResult, SegPred},
			Effects:  ir.EffectsReadWrite,
		},
		ir.OpDef{
			Name:     AsyncTMAGatherOpName,
			Segments: []string{SegDesc, SegXOffsets, SegYOffset, SegBarrier, SegResult, SegPred},
			Effects:  ir.EffectsReadWrite,
		},
		ir.OpDef{Name: TMEMAllocOpName, Segments: []string{SegSrc}, Effects: ir.EffectsWrite},
		ir.OpDef{Name: TMEMLoadOpName, Segments: []string{SegSrc}, Effects: ir.EffectsRead},
		ir.OpDef{Name: TMEMStoreOpName, Segments: []string{SegDst, SegSrc, SegPred}, Effects: ir.EffectsWrite},
		ir.OpDef{
			Name:     TCGen5MMAOpName,
			Segments: []string{SegA, SegB, SegD, SegUseD, SegPred, SegBarriers},
			Effects:  ir.EffectsReadWrite,
		},
		ir.OpDef{
			Name:     TCGen5MMAScaledOpName,
			Segments: []string{SegA, SegB, SegD, SegAScale, SegBScale, SegUseD, SegPred, SegBarriers},
			Effects:  ir.EffectsReadWrite,
		},
	)
}

// InitBarrier initializes the barrier view alloc to expect count arrivals.
func InitBarrier(b *ir.Builder, alloc *ir.Value, count int) *ir.Op {
	return b.Create(ir.OpState{
		Name:     InitBarrierOpName,
		Segments: [][]*ir.Value{{alloc}},
		Attrs:    map[string]ir.Attribute{"count": ir.NewI32Attr(int64(count))},
	})
}

// InvalBarrier invalidates the barrier view alloc.
func InvalBarrier(b *ir.Builder, alloc *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     InvalBarrierOpName,
		Segments: [][]*ir.Value{{alloc}},
	})
}

// BarrierExpect announces that size bytes will arrive on alloc when pred
// holds.
func BarrierExpect(b *ir.Builder, alloc *ir.Value, size int, pred *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     BarrierExpectOpName,
		Segments: [][]*ir.Value{{alloc}, {pred}},
		Attrs:    map[string]ir.Attribute{"size": ir.NewI32Attr(int64(size))},
	})
}

// WaitBarrier waits for alloc to complete phase. pred may be nil.
func WaitBarrier(b *ir.Builder, alloc, phase, pred *ir.Value, deps ...*ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     WaitBarrierOpName,
		Segments: [][]*ir.Value{{alloc}, {phase}, {pred}, deps},
	})
}

// ArriveBarrier signals count arrivals on alloc. pred may be nil.
func ArriveBarrier(b *ir.Builder, alloc *ir.Value, count int, pred *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     ArriveBarrierOpName,
		Segments: [][]*ir.Value{{alloc}, {pred}},
		Attrs:    map[string]ir.Attribute{"count": ir.NewI32Attr(int64(count))},
	})
}

// AsyncTMACopyGlobalToLocal copies the tile of desc at coord into result,
// signalling barrier on completion.
func AsyncTMACopyGlobalToLocal(b *ir.Builder, desc *ir.Value, coord []*ir.Value, barrier, result, pred *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     AsyncTMACopyGlobalToLocalOpName,
		Segments: [][]*ir.Value{{desc}, coord, {barrier}, {result}, {pred}},
	})
}

// AsyncTMAGather gathers rows xOffsets of desc into result.
func AsyncTMAGather(b *ir.Builder, desc, xOffsets, yOffset, barrier, result, pred *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     AsyncTMAGatherOpName,
		Segments: [][]*ir.Value{{desc}, {xOffsets}, {yOffset}, {barrier}, {result}, {pred}},
	})
}

// TMEMAlloc allocates tensor memory of type t, optionally initialized from
// src.
func TMEMAlloc(b *ir.Builder, t *ir.MemDescType, src *ir.Value) *ir.Value {
	return b.Create(ir.OpState{
		Name:        TMEMAllocOpName,
		Segments:    [][]*ir.Value{{src}},
		ResultTypes: []ir.Type{t},
	}).Result(0)
}

// TMEMLoad reads tensor memory src into registers of type t.
func TMEMLoad(b *ir.Builder, t ir.Type, src *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:        TMEMLoadOpName,
		Segments:    [][]*ir.Value{{src}},
		ResultTypes: []ir.Type{t},
	})
}

// TMEMStore writes src into tensor memory dst when pred holds.
func TMEMStore(b *ir.Builder, dst, src, pred *ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     TMEMStoreOpName,
		Segments: [][]*ir.Value{{dst}, {src}, {pred}},
	})
}

// TCGen5MMA issues d = a*b (+ d when useD) when pred holds and arrives on
// barriers once done.
func TCGen5MMA(b *ir.Builder, a, bOperand, d, useD, pred *ir.Value, barriers ...*ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     TCGen5MMAOpName,
		Segments: [][]*ir.Value{{a}, {bOperand}, {d}, {useD}, {pred}, barriers},
	})
}

// TCGen5MMAScaled is TCGen5MMA with per-block scale factors.
func TCGen5MMAScaled(b *ir.Builder, a, bOperand, d, aScale, bScale, useD, pred *ir.Value, barriers ...*ir.Value) *ir.Op {
	return b.Create(ir.OpState{
		Name:     TCGen5MMAScaledOpName,
		Segments: [][]*ir.Value{{a}, {bOperand}, {d}, {aScale}, {bScale}, {useD}, {pred}, barriers},
	})
}

// IsMMAv5 reports whether op is one of the tcgen05 MMA kinds.
func IsMMAv5(op *ir.Op) bool {
	return op.Is(TCGen5MMAOpName, TCGen5MMAScaledOpName)
}
