package molecule

import "math"

// Vec3 is a position or direction in model space (Å).
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// DistanceTo is the Euclidean distance between two points.
func (v Vec3) DistanceTo(o Vec3) float64 { return v.Sub(o).Length() }

// AngleTo returns the angle between two vectors in radians, in [0, π].
// If either vector has zero length the angle is 0.
func (v Vec3) AngleTo(o Vec3) float64 {
	denom := v.Length() * o.Length()
	if denom == 0 {
		return 0
	}
	c := v.Dot(o) / denom
	// rounding can push |c| slightly past 1 for (anti)parallel vectors
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}

//Personal.AI order the ending
