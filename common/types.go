// package common contains small value types and helpers shared across the engine. They are plain structs,
// not interface-wrapped, and carry no GPU handles.
package common

// Color is a linear RGB color. Components may exceed 1 for HDR light intensities.
type Color [3]float32

// White is the default light color.
var White = Color{1, 1, 1}

// TextureStagingData holds pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the raw texel data, tightly packed row by row.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// BytesPerPixel is the size of a single texel in bytes.
	BytesPerPixel uint32
}

// RowPitch returns the number of bytes in a single row of texels.
func (t TextureStagingData) RowPitch() uint32 {
	return t.Width * t.BytesPerPixel
}
