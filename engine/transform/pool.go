package transform

import "github.com/Carmen-Shannon/oxy-deferred/common"

// DefaultInitialSize is the number of transform slots a pool starts with.
const DefaultInitialSize = 2

// pool is the implementation of the Pool interface.
type pool struct {
	matrices   []float32
	transforms []*Transform
	free       []*Transform
	live       int

	report common.Reporter
}

// Pool issues and reclaims Transforms backed by one contiguous matrix buffer. When no free slot is left
// the buffer doubles in size; existing transforms keep their slots.
type Pool interface {
	// Acquire returns a free transform. Field values of a recycled transform are not reset; the caller must
	// set them (or call Reset) after acquisition.
	//
	// Returns:
	//   - *Transform: the issued transform
	Acquire() *Transform

	// Free returns a transform to the pool. Freeing a transform twice, or one from another pool, is reported
	// and ignored.
	//
	// Parameters:
	//   - t: the transform to release
	Free(t *Transform)

	// Capacity returns the number of slots in the matrix buffer.
	Capacity() int

	// Live returns the number of transforms currently issued.
	Live() int

	// Matrices returns the contiguous matrix buffer, 16 floats per slot.
	Matrices() []float32
}

var _ Pool = &pool{}

// NewPool creates a Pool with the given options.
//
// Parameters:
//   - options: functional options such as WithInitialSize
//
// Returns:
//   - Pool: the new pool
func NewPool(options ...PoolBuilderOption) Pool {
	p := &pool{report: common.LogReporter}
	size := DefaultInitialSize
	for _, opt := range options {
		opt(p, &size)
	}
	if size < 1 {
		size = 1
	}
	p.grow(size)
	return p
}

func (p *pool) Acquire() *Transform {
	if len(p.free) == 0 {
		p.report.Report("transform: expanding transform pool from %d to %d", p.Capacity(), p.Capacity()*2)
		p.grow(p.Capacity() * 2)
	}
	t := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	t.freed = false
	p.live++
	return t
}

func (p *pool) Free(t *Transform) {
	if t == nil || t.pool != p {
		p.report.Report("transform: free of a transform not owned by this pool")
		return
	}
	if t.freed {
		p.report.Report("transform: double free of slot %d", t.slot)
		return
	}
	t.freed = true
	p.live--
	p.free = append(p.free, t)
}

func (p *pool) Capacity() int {
	return len(p.transforms)
}

func (p *pool) Live() int {
	return p.live
}

func (p *pool) Matrices() []float32 {
	return p.matrices
}

// grow extends the buffer to size slots and issues fresh transforms for the new slots.
// New slots are pushed so that the lowest slot is handed out first.
func (p *pool) grow(size int) {
	old := len(p.transforms)
	if size <= old {
		return
	}

	matrices := make([]float32, size*16)
	copy(matrices, p.matrices)
	p.matrices = matrices

	for slot := old; slot < size; slot++ {
		t := &Transform{slot: slot, pool: p, freed: true}
		t.Reset()
		identity := common.Mat4Identity()
		copy(p.matrices[slot*16:], identity[:])
		p.transforms = append(p.transforms, t)
	}
	for slot := size - 1; slot >= old; slot-- {
		p.free = append(p.free, p.transforms[slot])
	}
}
