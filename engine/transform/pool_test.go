package transform

import (
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reports []string

func (r *reports) reporter() common.Reporter {
	return func(format string, args ...any) {
		*r = append(*r, fmt.Sprintf(format, args...))
	}
}

func TestPoolGrowsByDoubling(t *testing.T) {
	var got reports
	p := NewPool(WithReporter(got.reporter()))
	require.Equal(t, DefaultInitialSize, p.Capacity())

	var issued []*Transform
	for range 5 {
		issued = append(issued, p.Acquire())
		assert.LessOrEqual(t, p.Live(), p.Capacity())
	}

	assert.Equal(t, 8, p.Capacity())
	assert.Equal(t, 5, p.Live())
	assert.Len(t, p.Matrices(), 8*16)
	assert.Len(t, got, 2)

	slots := map[int]bool{}
	for _, tr := range issued {
		assert.False(t, slots[tr.Slot()], "slot issued twice")
		slots[tr.Slot()] = true
	}
}

func TestPoolMatrixViewSurvivesGrowth(t *testing.T) {
	p := NewPool(WithInitialSize(1), WithReporter(func(string, ...any) {}))
	first := p.Acquire()
	first.Position = common.Vec3{4, 5, 6}
	first.Matrix()

	p.Acquire()
	p.Acquire()

	view := first.MatrixView()
	require.Len(t, view, 16)
	assert.Equal(t, []float32{4, 5, 6}, view[12:15])
	assert.Equal(t, float32(4), p.Matrices()[first.Slot()*16+12])
}

func TestPoolFreeAndReacquire(t *testing.T) {
	var got reports
	p := NewPool(WithReporter(got.reporter()))
	a := p.Acquire()
	a.Position = common.Vec3{1, 2, 3}
	p.Free(a)
	assert.Equal(t, 0, p.Live())
	assert.Nil(t, a.MatrixView())

	b := p.Acquire()
	assert.Same(t, a, b)
	// recycled state is not reset by the pool
	assert.Equal(t, common.Vec3{1, 2, 3}, b.Position)
}

func TestPoolDoubleFreeReported(t *testing.T) {
	var got reports
	p := NewPool(WithReporter(got.reporter()))
	a := p.Acquire()
	p.Free(a)
	p.Free(a)

	assert.Equal(t, 0, p.Live())
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "double free")

	other := NewPool(WithReporter(func(string, ...any) {}))
	p.Free(other.Acquire())
	assert.Len(t, got, 2)
}

func TestTransformDefaultsAndForward(t *testing.T) {
	p := NewPool()
	tr := p.Acquire()
	assert.Equal(t, common.Vec3{1, 1, 1}, tr.Scale)
	assert.Equal(t, common.QuatIdentity(), tr.Rotation)
	assert.Equal(t, common.Vec3{0, 0, -1}, tr.Forward())
	assert.Equal(t, common.Mat4Identity(), tr.Matrix())
}

func TestTransformLookAt(t *testing.T) {
	p := NewPool()
	tr := p.Acquire()
	tr.LookAt(common.Vec3{0, 0, 10}, common.Vec3{0, 0, 0}, common.Vec3{0, 1, 0})

	fwd := tr.Forward()
	assert.InDelta(t, -1, fwd[2], 1e-6)
	assert.Equal(t, common.Vec3{0, 0, 10}, tr.Position)

	q := tr.Rotation
	assert.InDelta(t, 1, q[0]*q[0]+q[1]*q[1]+q[2]*q[2]+q[3]*q[3], 1e-6)
}

func TestTransformViewIgnoresScale(t *testing.T) {
	p := NewPool()
	tr := p.Acquire()
	tr.Position = common.Vec3{2, 0, 0}
	tr.Rotation = common.QuatFromAxisAngle(common.Vec3{0, 1, 0}, math32.Pi/2)
	tr.Scale = common.Vec3{3, 3, 3}

	// the view undoes position and rotation only
	local := tr.View().TransformPoint(common.Vec3{2, 0, -1})
	assert.InDelta(t, 1, local[0], 1e-5)
	assert.InDelta(t, 0, local[1], 1e-5)
	assert.InDelta(t, 0, local[2], 1e-5)
}
