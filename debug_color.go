package rendergraph

// DebugColor tints a pass's debug label region in GPU capture tools.
type DebugColor struct {
	R, G, B, A float32
}

// Predefined debug colors.
var (
	DebugColorNone   = DebugColor{}
	DebugColorRed    = DebugColor{R: 1, A: 1}
	DebugColorGreen  = DebugColor{G: 1, A: 1}
	DebugColorBlue   = DebugColor{B: 1, A: 1}
	DebugColorYellow = DebugColor{R: 1, G: 1, A: 1}
)

// DebugColorFromRGBA8 converts 8-bit channels to a DebugColor.
func DebugColorFromRGBA8(r, g, b, a uint8) DebugColor {
	return DebugColor{
		R: float32(r) / 255,
		G: float32(g) / 255,
		B: float32(b) / 255,
		A: float32(a) / 255,
	}
}

// Float4 returns the color as the four floats debug label APIs expect.
func (c DebugColor) Float4() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}
