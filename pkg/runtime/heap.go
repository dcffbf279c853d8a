package runtime

import (
	"fortio.org/safecast"

	"bril/interpreter-go/pkg/ast"
	"bril/interpreter-go/pkg/diag"
)

// DefaultMaxAllocation bounds the cell count of a single allocation.
const DefaultMaxAllocation int64 = 1 << 26

// Allocation is one heap region. Freed allocations stay in the table with
// Live=false so later accesses can be told apart from wild ones.
type Allocation struct {
	ID   AllocID
	Elem ast.Type
	Data []Value
	Live bool
}

// Heap is the allocation table of a single run. It is not safe for
// concurrent use.
type Heap struct {
	allocs []*Allocation
	live   int
	max    int64
}

// NewHeap returns an empty heap; max <= 0 selects DefaultMaxAllocation.
func NewHeap(max int64) *Heap {
	if max <= 0 {
		max = DefaultMaxAllocation
	}
	return &Heap{max: max}
}

// Alloc creates a live allocation of n cells of type elem.
func (h *Heap) Alloc(elem ast.Type, n int64) (Pointer, error) {
	if n <= 0 || n > h.max {
		return Pointer{}, diag.New(diag.InvalidAllocSize, "cannot allocate %d cells (limit %d)", n, h.max).Dynamic()
	}
	size, err := safecast.Convert[int](n)
	if err != nil {
		return Pointer{}, diag.New(diag.InvalidAllocSize, "cannot allocate %d cells", n).Wrap(err).Dynamic()
	}
	id := AllocID(len(h.allocs))
	h.allocs = append(h.allocs, &Allocation{ID: id, Elem: elem, Data: make([]Value, size), Live: true})
	h.live++
	return Pointer{Alloc: id, Elem: elem}, nil
}

// Free releases the allocation p points to. p must be a base pointer to a
// live allocation.
func (h *Heap) Free(p Pointer) error {
	a, ok := h.lookup(p)
	if !ok {
		return diag.New(diag.InvalidFree, "free of unknown allocation #%d", p.Alloc).Dynamic()
	}
	if !a.Live {
		return diag.New(diag.InvalidFree, "double free of allocation #%d", p.Alloc).Dynamic()
	}
	if p.Offset != 0 {
		return diag.New(diag.InvalidFree, "free of #%d at offset %d; only base pointers may be freed", p.Alloc, p.Offset).Dynamic()
	}
	a.Live = false
	a.Data = nil
	h.live--
	return nil
}

// Load reads the cell p addresses.
func (h *Heap) Load(p Pointer) (Value, error) {
	a, idx, err := h.cell(p)
	if err != nil {
		return Value{}, err
	}
	v := a.Data[idx]
	if !v.Bound() {
		return Value{}, diag.New(diag.UninitializedLoad, "load from uninitialised cell #%d+%d", p.Alloc, p.Offset).Dynamic()
	}
	return v, nil
}

// Store overwrites the cell p addresses.
func (h *Heap) Store(p Pointer, v Value) error {
	a, idx, err := h.cell(p)
	if err != nil {
		return err
	}
	a.Data[idx] = v
	return nil
}

// PtrAdd offsets p by delta cells. The result is not checked until it is
// dereferenced; the offset wraps like the IR's integers.
func PtrAdd(p Pointer, delta int64) Pointer {
	p.Offset += delta
	return p
}

// LiveCount returns how many allocations have not been freed.
func (h *Heap) LiveCount() int { return h.live }

// Allocations returns the number of allocations ever made.
func (h *Heap) Allocations() int { return len(h.allocs) }

// Live lists the allocations that have not been freed, in creation order.
func (h *Heap) Live() []*Allocation {
	out := make([]*Allocation, 0, h.live)
	for _, a := range h.allocs {
		if a.Live {
			out = append(out, a)
		}
	}
	return out
}

func (h *Heap) lookup(p Pointer) (*Allocation, bool) {
	if p.Alloc < 0 || int(p.Alloc) >= len(h.allocs) {
		return nil, false
	}
	return h.allocs[p.Alloc], true
}

func (h *Heap) cell(p Pointer) (*Allocation, int, error) {
	a, ok := h.lookup(p)
	if !ok {
		return nil, 0, diag.New(diag.MemoryAccessOutOfBounds, "access to unknown allocation #%d", p.Alloc).Dynamic()
	}
	if !a.Live {
		return nil, 0, diag.New(diag.UseAfterFree, "access to freed allocation #%d", p.Alloc).Dynamic()
	}
	idx, err := safecast.Convert[int](p.Offset)
	if err != nil || idx < 0 || idx >= len(a.Data) {
		return nil, 0, diag.New(diag.MemoryAccessOutOfBounds, "offset %d outside allocation #%d of %d cells", p.Offset, p.Alloc, len(a.Data)).Dynamic()
	}
	return a, idx, nil
}
