package profiler

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	var lines []string
	p := NewProfiler(
		WithInterval(time.Second),
		WithClock(clk.now),
		WithReporter(func(format string, args ...any) {
			lines = append(lines, fmt.Sprintf(format, args...))
		}),
	)

	sampled := 0
	counts := func() Counts {
		sampled++
		return Counts{Objects: 3, Transforms: 5}
	}

	for range 9 {
		clk.t = clk.t.Add(100 * time.Millisecond)
		assert.False(t, p.Tick(counts))
	}
	clk.t = clk.t.Add(100 * time.Millisecond)
	require.True(t, p.Tick(counts))

	require.Len(t, lines, 1)
	assert.Equal(t, 1, sampled)
	assert.Contains(t, lines[0], "FPS: 10.00")
	assert.Contains(t, lines[0], "Frame: 100.00 ms")
	assert.Contains(t, lines[0], "Objects: 3")
	assert.Contains(t, lines[0], "Transforms: 5")

	clk.t = clk.t.Add(500 * time.Millisecond)
	assert.False(t, p.Tick(counts))
}

func TestTickWithoutCounts(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	var lines []string
	p := NewProfiler(WithClock(clk.now), WithReporter(func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}))

	clk.t = clk.t.Add(2 * time.Second)
	require.True(t, p.Tick(nil))
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Objects: 0")
}
