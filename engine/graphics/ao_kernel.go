package graphics

import (
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// NewAOKernel generates count hemisphere sample vectors around +Z. Directions are cosine weighted and
// lengths are biased toward the origin so nearby occluders count more.
//
// Parameters:
//   - count: the number of samples
//   - seed: the random seed; equal seeds produce equal kernels
//
// Returns:
//   - []common.Vec3: sample vectors with z >= 0 and length <= 1
func NewAOKernel(count int, seed uint64) []common.Vec3 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]common.Vec3, count)
	for i := range out {
		// cosine-weighted direction from a uniform disk sample
		r := math32.Sqrt(rng.Float32())
		phi := 2 * math32.Pi * rng.Float32()
		x, y := r*math32.Cos(phi), r*math32.Sin(phi)
		z := math32.Sqrt(max(0, 1-x*x-y*y))

		scale := float32(i) / float32(count)
		scale = common.Lerp(0.1, 1, scale*scale)
		length := rng.Float32() * scale
		out[i] = common.Vec3{x * length, y * length, z * length}
	}
	return out
}

// NewAONoise generates a size x size RGBA8 tile of per-pixel rotation angles. The red channel holds the
// angle as a fraction of a full turn.
//
// Parameters:
//   - size: the tile width and height
//   - seed: the random seed
//
// Returns:
//   - common.TextureStagingData: the tile, ready for upload
func NewAONoise(size int, seed uint64) common.TextureStagingData {
	rng := rand.New(rand.NewPCG(seed^0xa5a5a5a5, seed))
	pixels := make([]byte, size*size*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i] = byte(rng.UintN(256))
		pixels[i+3] = 255
	}
	return common.TextureStagingData{
		Pixels:        pixels,
		Width:         uint32(size),
		Height:        uint32(size),
		BytesPerPixel: 4,
	}
}
