package renderer

import "math"

// Vertex is a bare 2D position. It matches the vertex shader's single
// `vec2 position` input attribute; there is no color, normal or UV data.
type Vertex struct {
	Position [2]float32
}

const (
	// RotationPeriod is the wall-clock seconds for one full revolution.
	RotationPeriod = 5.0
	// TriangleRadius is the circumradius of the triangle about the origin.
	TriangleRadius = 0.5
	// 120 degree offset in radians between neighbouring vertices.
	vertexOffset = (2.0 * math.Pi) / 3.0
)

// TriangleAt computes the rotating triangle for the given wall-clock seconds
// since the Unix epoch. The three vertices sit on a circle of radius 0.5
// about the origin at angle, angle+2π/3 and angle-2π/3, where the angle
// advances counter-clockwise through a full turn every RotationPeriod
// seconds. math.Mod yields a non-negative remainder for the non-negative
// epoch values real clocks produce, so the phase is always in [0,1).
func TriangleAt(epochSeconds float64) [3]Vertex {
	phase := math.Mod(epochSeconds, RotationPeriod) / RotationPeriod
	angle := phase * 2.0 * math.Pi

	return [3]Vertex{
		vertexOnCircle(angle),
		vertexOnCircle(angle + vertexOffset),
		vertexOnCircle(angle - vertexOffset),
	}
}

// LeadAngle returns the angle of the first (leading) vertex at the given
// wall-clock time, in [0, 2π).
func LeadAngle(epochSeconds float64) float64 {
	return math.Mod(epochSeconds, RotationPeriod) / RotationPeriod * 2.0 * math.Pi
}

func vertexOnCircle(angle float64) Vertex {
	return Vertex{
		Position: [2]float32{
			float32(math.Cos(angle) * TriangleRadius),
			float32(math.Sin(angle) * TriangleRadius),
		},
	}
}
