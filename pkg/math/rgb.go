package math

// RGB is a color with components in [0, 1].
type RGB struct {
	R, G, B float32
}

// White is the neutral tint.
var White = RGB{1, 1, 1}

// Valid reports whether all components are finite and within [0, 1].
func (c RGB) Valid() bool {
	return inUnit(c.R) && inUnit(c.G) && inUnit(c.B)
}

// Lerp returns the linear interpolation between c and other at t.
func (c RGB) Lerp(other RGB, t float32) RGB {
	return RGB{
		c.R + (other.R-c.R)*t,
		c.G + (other.G-c.G)*t,
		c.B + (other.B-c.B)*t,
	}
}

func inUnit(f float32) bool {
	return finite(f) && f >= 0 && f <= 1
}
