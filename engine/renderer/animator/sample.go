package animator

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
)

// keyframes locates the keyframe pair bracketing t on times and the interpolation fraction between them.
// t is wrapped into [0, duration); the upper key is the first one strictly after t, wrapping to the first
// key when t is past every sample.
func keyframes(times []float32, duration, t float32) (k0, k1 int, frac float32) {
	n := len(times)
	if n == 1 {
		return 0, 0, 0
	}
	t = math32.Mod(t, duration)
	if t < 0 {
		t += duration
	}

	k1 = n
	for i, ts := range times {
		if ts > t {
			k1 = i
			break
		}
	}
	if k1 > 0 && k1 < n {
		k0 = k1 - 1
		return k0, k1, (t - times[k0]) / (times[k1] - times[k0])
	}

	// between the last key and the first key of the next loop
	k0, k1 = n-1, 0
	span := duration - times[n-1] + times[0]
	if span <= 0 {
		return k0, k1, 0
	}
	if t < times[0] {
		t += duration
	}
	return k0, k1, min(max((t-times[k0])/span, 0), 1)
}

// sample evaluates every channel of c at t into poses.
func sample(c *model.Clip, t float32, poses []Pose) {
	k0, k1, frac := keyframes(c.Times, c.Duration, t)
	for i := range c.Channels {
		ch := &c.Channels[i]
		p := &poses[ch.Joint]
		switch ch.Property {
		case model.PropertyRotation:
			p.Rotation = common.Slerp(ch.Rotations[k0], ch.Rotations[k1], frac)
		case model.PropertyTranslation:
			p.Translation = common.LerpVec3(ch.Vectors[k0], ch.Vectors[k1], frac)
		case model.PropertyScale:
			p.Scale = common.LerpVec3(ch.Vectors[k0], ch.Vectors[k1], frac)
		}
	}
}
