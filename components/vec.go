package components

import "math"

// Vec3 is a float32 3D vector. Y is the vertical axis; X/Z span the ground
// plane, matching terrain queries which take (x, z).
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// LengthSq returns the squared magnitude (avoids sqrt in hot paths).
func (v Vec3) LengthSq() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSq())))
}

// Normalized returns a unit vector, or the zero vector for zero input.
func (v Vec3) Normalized() Vec3 {
	mag := v.Length()
	if mag == 0 {
		return Vec3{}
	}
	inv := 1.0 / mag
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}

// Limit clamps the magnitude to max.
func (v Vec3) Limit(max float32) Vec3 {
	sq := v.LengthSq()
	if sq <= max*max || sq == 0 {
		return v
	}
	scale := max / float32(math.Sqrt(float64(sq)))
	return v.Scale(scale)
}

// WithMagnitude returns v rescaled to the given magnitude.
func (v Vec3) WithMagnitude(mag float32) Vec3 {
	return v.Normalized().Scale(mag)
}

// DistSq returns the squared distance between two points.
func DistSq(a, b Vec3) float32 {
	return a.Sub(b).LengthSq()
}
